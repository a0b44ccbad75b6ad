package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func TestHTTPEndpoints(t *testing.T) {
	var ready atomic.Bool
	checks := Checks{
		"roster": func(context.Context) error {
			if !ready.Load() {
				return errors.New("roster not loaded")
			}
			return nil
		},
	}
	srv := httptest.NewServer(NewRouter(checks))
	t.Cleanup(srv.Close)

	cases := []struct {
		name   string
		path   string
		ready  bool
		status int
	}{
		{"health", "/healthz", false, http.StatusOK},
		{"not ready", "/readyz", false, http.StatusServiceUnavailable},
		{"ready", "/readyz", true, http.StatusOK},
		{"metrics", "/metrics", false, http.StatusOK},
		{"unknown", "/nope", false, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ready.Store(tc.ready)
			resp, err := http.Get(srv.URL + tc.path)
			if err != nil {
				t.Fatalf("GET %s: %v", tc.path, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Fatalf("GET %s = %d, want %d", tc.path, resp.StatusCode, tc.status)
			}
		})
	}
}

func TestReadyzReportsEachCheck(t *testing.T) {
	checks := Checks{
		"database": func(context.Context) error { return nil },
		"roster":   func(context.Context) error { return errors.New("roster not loaded") },
	}
	rec := httptest.NewRecorder()
	NewRouter(checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["database"] != "ok" || body["roster"] != "roster not loaded" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestGRPCHealth(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv, hs := NewGRPCServer()
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	client := healthpb.NewHealthClient(conn)

	status := func() healthpb.HealthCheckResponse_ServingStatus {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		return resp.Status
	}

	if got := status(); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("initial status = %v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go WatchReadiness(ctx, hs, Checks{"ok": func(context.Context) error { return nil }}, time.Hour)

	deadline := time.Now().Add(5 * time.Second)
	for status() != healthpb.HealthCheckResponse_SERVING {
		if time.Now().After(deadline) {
			t.Fatalf("health never switched to SERVING")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
