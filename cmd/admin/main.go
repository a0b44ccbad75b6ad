// Command admin runs one-shot maintenance tasks against the competition
// guild and the local ledger.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"showdown/backend"
	"showdown/config"
	"showdown/db"
	"showdown/logger"
	"showdown/model"
	"showdown/roster"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "Competition bot administration",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger.Init(level, true)
		return config.LoadConfig(configPath)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// newSession opens a REST-only Discord session; the gateway is not needed.
func newSession(cfg model.Config) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return s, nil
}

// applicationID returns the configured application id, falling back to the
// bot user's id.
func applicationID(s *discordgo.Session, cfg model.Config) (string, error) {
	if cfg.ApplicationID != "" {
		return cfg.ApplicationID, nil
	}
	me, err := s.User("@me")
	if err != nil {
		return "", fmt.Errorf("look up bot user: %w", err)
	}
	return me.ID, nil
}

func loadRoster(ctx context.Context, cfg model.Config) (*roster.Snapshot, error) {
	var source roster.Source
	if cfg.Roster.Source == "file" {
		source = roster.FileSource{Dir: cfg.Roster.Dir}
	} else {
		client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout,
			backend.WithRateLimit(cfg.Backend.RateLimit, cfg.Backend.RateBurst))
		source = roster.BackendSource{Client: client, TeamChannels: cfg.Roster.TeamChannels}
	}
	snap, err := roster.NewStore(source).Reload(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	return snap, nil
}

func openLedger() error {
	if err := db.InitDB(config.Cfg.Database.Path); err != nil {
		return err
	}
	log.Debug().Str("path", config.Cfg.Database.Path).Msg("Ledger opened")
	return nil
}
