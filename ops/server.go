package ops

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds the listen addresses. An empty address disables that server.
type Config struct {
	HTTPAddr string
	GRPCAddr string
}

// Serve runs the HTTP and gRPC ops servers until ctx is done, then shuts
// them down.
func Serve(ctx context.Context, cfg Config, checks Checks) error {
	errChan := make(chan error, 2)

	var httpServer *http.Server
	if cfg.HTTPAddr != "" {
		httpServer = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           NewRouter(checks),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.HTTPAddr).Msg("Ops HTTP server listening")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	grpcServer, hs := NewGRPCServer()
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		go WatchReadiness(ctx, hs, checks, 15*time.Second)
		go func() {
			log.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC health server listening")
			if err := grpcServer.Serve(lis); err != nil {
				errChan <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errChan:
		log.Error().Err(err).Msg("Ops server stopped unexpectedly")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Ops HTTP shutdown error")
		}
	}
	grpcServer.GracefulStop()
	return nil
}
