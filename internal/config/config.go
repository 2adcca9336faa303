// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// The platform caches listing responses for about 30 seconds; polling
// faster than that only returns stale data.
const minPollInterval = 30 * time.Second

// Config holds the application configuration.
type Config struct {
	Subreddit    string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	WebhookURL   string
	Channel      string
	DatabasePath string
	LogLevel     string
	PollInterval time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Subreddit:    strings.ToLower(os.Getenv("SUBREDDIT")),
		ClientID:     os.Getenv("CLIENT_ID"),
		ClientSecret: os.Getenv("CLIENT_SECRET"),
		Username:     os.Getenv("MOD_USERNAME"),
		Password:     os.Getenv("MOD_PASSWORD"),
		WebhookURL:   os.Getenv("WEBHOOK_URL"),
		Channel:      os.Getenv("CHANNEL"),
		DatabasePath: os.Getenv("DATABASE_PATH"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
	}

	required := []struct {
		name  string
		value string
	}{
		{"SUBREDDIT", cfg.Subreddit},
		{"CLIENT_ID", cfg.ClientID},
		{"CLIENT_SECRET", cfg.ClientSecret},
		{"MOD_USERNAME", cfg.Username},
		{"MOD_PASSWORD", cfg.Password},
		{"WEBHOOK_URL", cfg.WebhookURL},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, fmt.Errorf("%s is required", r.name)
		}
	}

	if cfg.Channel == "" {
		cfg.Channel = "#submission_feed"
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "./data/modbot.db"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.PollInterval = 32 * time.Second
	if raw := os.Getenv("POLL_INTERVAL_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid POLL_INTERVAL_SECONDS %q: %w", raw, err)
		}
		d := time.Duration(secs) * time.Second
		if d < minPollInterval {
			return nil, fmt.Errorf("POLL_INTERVAL_SECONDS must be at least %d", int(minPollInterval.Seconds()))
		}
		cfg.PollInterval = d
	}

	return cfg, nil
}

// UserAgent returns the descriptive User-Agent string sent with every
// platform request.
func (c *Config) UserAgent() string {
	return fmt.Sprintf("golang:modbot for %s:v1.0 (by /u/%s)", c.Subreddit, c.Username)
}
