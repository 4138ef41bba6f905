package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Terminal  TerminalConfig
	Watcher   WatcherConfig
	Events    EventsConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8090"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// TerminalConfig holds pseudo-terminal session configuration.
type TerminalConfig struct {
	// Shell overrides the platform shell lookup when set.
	Shell string `envconfig:"TERMINAL_SHELL" default:""`
	// KillGrace is the pause between SIGTERM and SIGKILL on close.
	KillGrace time.Duration `envconfig:"TERMINAL_KILL_GRACE" default:"100ms"`
	// ReadBuffer is the chunk size of the PTY read loop.
	ReadBuffer int `envconfig:"TERMINAL_READ_BUFFER" default:"4096"`
}

// WatcherConfig holds repository watcher configuration.
type WatcherConfig struct {
	// PollInterval bounds the latency of the mtime fallback poller.
	PollInterval time.Duration `envconfig:"WATCHER_POLL_INTERVAL" default:"500ms"`
}

// EventsConfig holds event dispatcher configuration.
type EventsConfig struct {
	Buffer int `envconfig:"EVENTS_BUFFER" default:"1024"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8090",
			Host: "127.0.0.1",
		},
		Terminal: TerminalConfig{
			KillGrace:  100 * time.Millisecond,
			ReadBuffer: 4096,
		},
		Watcher: WatcherConfig{
			PollInterval: 500 * time.Millisecond,
		},
		Events: EventsConfig{
			Buffer: 1024,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
