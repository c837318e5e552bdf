// Package config handles application configuration: environment variables for
// credentials, paths and limits, and a YAML source pool describing what the
// briefing reads.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"briefing/internal/storage"
)

// Config holds the environment configuration.
type Config struct {
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	ReadwiseToken string `envconfig:"READWISE_TOKEN"`
	SiteURL       string `envconfig:"BRIEFING_SITE_URL"`

	StateBackend     string `envconfig:"STATE_BACKEND" default:"file"`
	HistoryPath      string `envconfig:"HISTORY_PATH" default:"./data/antibubble_history.json"`
	ChannelCachePath string `envconfig:"CHANNEL_CACHE_PATH" default:"./data/youtube_channel_ids.json"`
	DatabasePath     string `envconfig:"DATABASE_PATH" default:"./data/briefing.db"`
	RedisAddr        string `envconfig:"REDIS_ADDR"`

	SourcesPath string `envconfig:"SOURCES_PATH"`

	HTTPTimeout       time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	RequestsPerSecond float64       `envconfig:"REQUESTS_PER_SECOND" default:"4"`

	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`

	MetricsTextfile string `envconfig:"METRICS_TEXTFILE"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	cfg.ReadwiseToken = strings.TrimSpace(cfg.ReadwiseToken)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel)
	}
	switch cfg.StateBackend {
	case storage.BackendFile, storage.BackendSQLite:
	case storage.BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required for the redis state backend")
		}
	default:
		return nil, fmt.Errorf("invalid STATE_BACKEND %q", cfg.StateBackend)
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", cfg.HTTPTimeout)
	}

	return &cfg, nil
}

// StorageOptions returns the state backend settings.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:          c.StateBackend,
		HistoryPath:      c.HistoryPath,
		ChannelCachePath: c.ChannelCachePath,
		DatabasePath:     c.DatabasePath,
		RedisAddr:        c.RedisAddr,
	}
}

// TelegramEnabled reports whether run notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}
