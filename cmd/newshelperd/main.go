package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yllan/newshelper-safari/internal/config"
	"github.com/yllan/newshelper-safari/internal/normalize"
	"github.com/yllan/newshelper-safari/internal/notifier"
	"github.com/yllan/newshelper-safari/internal/scheduler"
	"github.com/yllan/newshelper-safari/internal/service"
	"github.com/yllan/newshelper-safari/internal/source/newshelper"
	"github.com/yllan/newshelper-safari/internal/storage/sqlite"
	"github.com/yllan/newshelper-safari/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	// Open the local store. Without it there is no history tracking and
	// no matching, so failure here is fatal.
	db, err := sqlite.Open(cfg.Database.Path, logger)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("opened database", "path", cfg.Database.Path)

	historyStore := sqlite.NewHistoryStore(db)
	reportStore := sqlite.NewReportStore(db)

	norm := normalize.Default()

	feed := newshelper.New(newshelper.Config{
		BaseURL:        cfg.Feed.BaseURL,
		Timeout:        cfg.Feed.Timeout,
		MaxAttempts:    cfg.Feed.Retry.MaxAttempts,
		InitialBackoff: cfg.Feed.Retry.InitialBackoff,
		MaxBackoff:     cfg.Feed.Retry.MaxBackoff,
	}, norm, logger)

	// Alert delivery: AMQP when configured, daemon log otherwise.
	fallback := notifier.NewLogChannel(logger)
	var channel notifier.Channel
	if cfg.Notify.AMQP.URL != "" {
		amqpChannel, err := notifier.NewAMQPChannel(notifier.AMQPConfig{
			URL:        cfg.Notify.AMQP.URL,
			Exchange:   cfg.Notify.AMQP.Exchange,
			RoutingKey: cfg.Notify.AMQP.RoutingKey,
			QueueName:  cfg.Notify.AMQP.QueueName,
		}, logger)
		if err != nil {
			logger.Warn("alert channel unavailable, falling back to log", "error", err)
		} else {
			defer amqpChannel.Close()
			channel = amqpChannel
		}
	}
	alerts := notifier.New(channel, fallback, cfg.Notify.DedupWindow, logger)

	matcher := service.NewMatcher(historyStore, reportStore, alerts, norm, logger)
	syncService := service.NewSyncService(feed, reportStore, matcher, logger)
	sched := scheduler.NewScheduler(syncService, cfg.Sync.Interval, logger)

	server := web.NewServer(cfg.Server.Addr, web.NewHandler(matcher, logger), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("web server failed", "error", err)
			cancel()
		}
	}()

	logger.Info("starting newshelper daemon",
		"feed", cfg.Feed.BaseURL,
		"interval", cfg.Sync.Interval,
		"addr", cfg.Server.Addr,
	)

	err = sched.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("web server shutdown failed", "error", err)
	}

	if err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
