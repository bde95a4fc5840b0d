package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/mtewold/chathook/internal/broker"
	"github.com/mtewold/chathook/internal/card"
	"github.com/mtewold/chathook/internal/config"
	"github.com/mtewold/chathook/internal/dispatch"
	"github.com/mtewold/chathook/internal/envelope"
	"github.com/mtewold/chathook/internal/logging"
	"github.com/mtewold/chathook/internal/ratelimit"
	"github.com/mtewold/chathook/internal/relay"
	"github.com/mtewold/chathook/internal/store/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	asyncWorkers := flag.Int("workers", 3, "delivery worker count")
	flag.Parse()

	logging.Init()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("code", "SYS_STARTUP"), slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		slog.Error("database_url is required for the daemon", slog.String("code", "SYS_STARTUP"))
		os.Exit(1)
	}
	if cfg.NATSURL == "" {
		slog.Error("nats_url is required for the daemon", slog.String("code", "SYS_STARTUP"))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("code", "DB_ERROR"), slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to run migrations", slog.String("code", "DB_ERROR"), slog.Any("error", err))
		os.Exit(1)
	}

	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		limiter = ratelimit.NewRedisLimiter(client, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
	}

	dispatcher := dispatch.New(
		cfg.Enabled,
		postgres.NewEndpointConfigStore(db),
		postgres.NewNotificationLogStore(db),
		card.NewFormatter(cfg.AppBaseURL),
		envelope.NewAdapter(cfg.LegacyShapeHosts),
		limiter,
		relay.New(cfg.RelayURL, cfg.Timeout(), cfg.RetryAttempts, cfg.RetryDelay()),
	)

	async := dispatch.NewAsyncDispatcher(dispatcher, *asyncWorkers, 0)
	async.Start()

	consumer, err := broker.NewConsumer(cfg.NATSURL, async)
	if err != nil {
		slog.Error("failed to connect to NATS", slog.String("code", "BROKER_ERROR"), slog.Any("error", err))
		os.Exit(1)
	}
	if err := consumer.Start(ctx); err != nil {
		slog.Error("failed to start consumer", slog.String("code", "BROKER_ERROR"), slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("chathookd started", slog.String("code", "SYS_STARTUP"), slog.String("relay_url", cfg.RelayURL))

	<-ctx.Done()
	slog.Info("shutting down", slog.String("code", "SYS_SHUTDOWN"))

	// Intake stops before the workers so every accepted notification still
	// reaches a terminal record state.
	if err := consumer.Close(); err != nil {
		slog.Warn("consumer close failed", slog.String("code", "BROKER_ERROR"), slog.Any("error", err))
	}
	async.Close()
}
