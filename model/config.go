package model

import "time"

// Config 对应于 config.yaml 的顶级结构
type Config struct {
	Token         string         `mapstructure:"token"`
	ApplicationID string         `mapstructure:"application_id"`
	GuildID       string         `mapstructure:"guild_id"`
	Channels      Channels       `mapstructure:"channels"`
	Roles         Roles          `mapstructure:"roles"`
	Backend       BackendConfig  `mapstructure:"backend"`
	Roster        RosterConfig   `mapstructure:"roster"`
	Database      DatabaseConfig `mapstructure:"database"`
	Ops           OpsConfig      `mapstructure:"ops"`
	Log           LogConfig      `mapstructure:"log"`
}

// Channels holds the review surface channel ids.
type Channels struct {
	Approvals string `mapstructure:"approvals"`
	Log       string `mapstructure:"log"`
	Errors    string `mapstructure:"errors"`
}

// Roles holds the role ids the authorization gate checks.
type Roles struct {
	Reviewer   string `mapstructure:"reviewer"`
	Staff      string `mapstructure:"staff"`
	Competitor string `mapstructure:"competitor"`
}

// BackendConfig points at the scoring backend.
type BackendConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit caps requests per second; 0 means unlimited.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// RosterConfig selects where roster snapshots come from.
type RosterConfig struct {
	// Source is "backend" or "file".
	Source          string            `mapstructure:"source"`
	Dir             string            `mapstructure:"dir"`
	RefreshInterval time.Duration     `mapstructure:"refresh_interval"`
	TeamChannels    map[string]string `mapstructure:"team_channels"`
}

// DatabaseConfig 对应 "database" 部分
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// OpsConfig holds the listen addresses for health and metrics.
type OpsConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
	GRPCAddr string `mapstructure:"grpc_addr"`
}

// LogConfig 对应 "log" 部分
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}
