package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"modbot/internal/config"
	"modbot/internal/reddit"
	"modbot/internal/relay"
	"modbot/internal/scheduler"
	"modbot/internal/slack"
	"modbot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	client := reddit.NewClient(cfg.Subreddit, reddit.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Username:     cfg.Username,
		Password:     cfg.Password,
		UserAgent:    cfg.UserAgent(),
	}, log)

	notifier := slack.NewNotifier(cfg.WebhookURL, cfg.Channel, http.DefaultClient, log)

	r := relay.New(client, notifier, store, cfg.Subreddit, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("logging in", "user", cfg.Username, "subreddit", cfg.Subreddit)
	if err := r.Bootstrap(ctx); err != nil {
		log.Error("bootstrap", "error", err)
		os.Exit(1)
	}

	log.Info("starting relay", "interval", cfg.PollInterval)
	scheduler.New(r, cfg.PollInterval, log).Run(ctx)

	log.Info("relay stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
