package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"showdown/model"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cfg is the process-wide configuration, populated by LoadConfig.
var Cfg model.Config

// LoadConfig reads config.yaml from the working directory (or path, when
// given), applies SHOWDOWN_* environment overrides and validates the result.
// A .env file is loaded first when present.
func LoadConfig(path ...string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	if len(path) > 0 && path[0] != "" {
		v.SetConfigFile(path[0])
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("SHOWDOWN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	var cfg model.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return err
	}
	Cfg = cfg
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("backend.rate_limit", 0.0)
	v.SetDefault("backend.rate_burst", 5)
	v.SetDefault("roster.source", "backend")
	v.SetDefault("roster.dir", "bingo-info")
	v.SetDefault("roster.refresh_interval", 10*time.Minute)
	v.SetDefault("database.path", "./data/showdown.db")
	v.SetDefault("ops.http_addr", ":2112")
	v.SetDefault("ops.grpc_addr", ":50051")
	v.SetDefault("log.level", "info")

	// AutomaticEnv only sees keys viper already knows about.
	for _, key := range []string{
		"token", "application_id", "guild_id",
		"channels.approvals", "channels.log", "channels.errors",
		"roles.reviewer", "roles.staff", "roles.competitor",
		"backend.url",
	} {
		v.SetDefault(key, "")
	}
}

// Validate checks that every setting the bot cannot run without is present.
func Validate(cfg *model.Config) error {
	if cfg.Token == "" {
		return fmt.Errorf("token is required")
	}
	if cfg.GuildID == "" {
		return fmt.Errorf("guild_id is required")
	}
	if cfg.Channels.Approvals == "" || cfg.Channels.Log == "" || cfg.Channels.Errors == "" {
		return fmt.Errorf("channels.approvals, channels.log and channels.errors are required")
	}
	if cfg.Roles.Reviewer == "" || cfg.Roles.Staff == "" {
		return fmt.Errorf("roles.reviewer and roles.staff are required")
	}
	if cfg.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	switch cfg.Roster.Source {
	case "backend", "file":
	default:
		return fmt.Errorf("roster.source must be \"backend\" or \"file\", got %q", cfg.Roster.Source)
	}
	if cfg.Backend.RateLimit < 0 {
		return fmt.Errorf("backend.rate_limit must not be negative")
	}
	if cfg.Roster.RefreshInterval < 0 {
		return fmt.Errorf("roster.refresh_interval must not be negative")
	}
	return nil
}
