package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TodolistBot/internal/access"
	"TodolistBot/internal/bot"
	"TodolistBot/internal/config"
	"TodolistBot/internal/database"
	"TodolistBot/internal/lifecycle"
	"TodolistBot/internal/logging"
	"TodolistBot/internal/scheduler"
	"TodolistBot/internal/storage"
	"TodolistBot/internal/tracker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const storageStatsInterval = 30 * time.Minute

func monitorStorage(ctx context.Context, sessions storage.SessionStore) error {
	ticker := time.NewTicker(storageStatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			slog.Info("storage stats", "stats", sessions.GetStats(ctx))
		}
	}
}

func newSessionStore(ctx context.Context, cfg config.SessionConfig, g *errgroup.Group) (storage.SessionStore, func(), error) {
	switch cfg.Backend {
	case config.SessionRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		slog.Info("using redis session storage", "addr", cfg.RedisAddr)
		return storage.NewRedisStorage(client, cfg.TTL), func() { _ = client.Close() }, nil
	default:
		memory, err := storage.NewMemoryStorage(cfg.CacheSize, cfg.TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("create memory storage: %w", err)
		}
		g.Go(func() error {
			memory.RunCleanup(ctx, storage.DefaultCleanupInterval)
			return nil
		})
		slog.Info("using in-memory session storage", "size", cfg.CacheSize)
		return memory, func() {}, nil
	}
}

func run() error {
	if err := config.LoadEnv(); err != nil {
		slog.Warn("continuing with system environment variables", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database, cfg.LogLevel)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	store := database.New(db)
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("close database", "error", err)
		}
	}()

	evaluator := access.NewEvaluator(access.NewRegistry(store), store)
	service := tracker.NewService(store, evaluator, lifecycle.NewManager(store))

	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("connect to telegram: %w", err)
	}
	slog.Info("authorized on account", "username", api.Self.UserName)

	g, ctx := errgroup.WithContext(ctx)

	sessions, closeSessions, err := newSessionStore(ctx, cfg.Session, g)
	if err != nil {
		stop()
		_ = g.Wait()
		return err
	}
	defer closeSessions()

	channel := bot.NewTelegramChannel(api, cfg.Bot.PollTimeout)
	var opts []bot.Option
	if cfg.Bot.AdminChatID != 0 {
		opts = append(opts, bot.WithAdminChat(cfg.Bot.AdminChatID))
	}
	handler := bot.NewUpdateHandler(service, sessions, channel, opts...)
	poller := bot.NewPoller(channel, handler, cfg.Bot.RetryDelay)

	g.Go(func() error { return poller.Run(ctx) })
	g.Go(func() error { return monitorStorage(ctx, sessions) })
	if cfg.Reminder.Enabled {
		reminders := scheduler.NewScheduler(service, handler, cfg.Reminder.Hour, cfg.Reminder.Minute)
		g.Go(func() error { return reminders.Run(ctx) })
	}

	err = g.Wait()
	slog.Info("bot stopped")
	return err
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
