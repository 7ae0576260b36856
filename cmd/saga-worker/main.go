package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blocodev/wallet-hub/internal/saga"
	"github.com/blocodev/wallet-hub/pkg/config"
	"github.com/blocodev/wallet-hub/pkg/db"
	"github.com/blocodev/wallet-hub/pkg/logger"
	"github.com/blocodev/wallet-hub/pkg/metrics"
	"github.com/blocodev/wallet-hub/pkg/migrate"
	"github.com/blocodev/wallet-hub/pkg/outbox/idempotency"
	"github.com/blocodev/wallet-hub/pkg/pubsub"
	"github.com/blocodev/wallet-hub/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "saga-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "saga-worker"

	logg = logger.New(logger.Options{
		ServiceName: "saga-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	idempotencyManager, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	sagaMetrics := metrics.NewSagaMetrics(prometheus.DefaultRegisterer)
	coordinator, err := saga.NewCoordinator(saga.CoordinatorParams{
		Repo:          saga.NewRepository(dbClient.DB()),
		Logg:          logg,
		Metrics:       sagaMetrics,
		RecordHistory: cfg.Saga.RecordHistory,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create saga coordinator", err)
		os.Exit(1)
	}

	subscriptions := make([]*gcppubsub.Subscriber, 0)
	for _, name := range cfg.PubSub.Subscriptions() {
		subscriptions = append(subscriptions, pubsubClient.Subscription(name))
	}

	consumer, err := saga.NewConsumer(saga.ConsumerParams{
		Coordinator:   coordinator,
		Subscriptions: subscriptions,
		Idempotency:   idempotencyManager,
		Metrics:       sagaMetrics,
		Logg:          logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create saga consumer", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting saga worker")

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "saga worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "saga worker shutting down gracefully")
}
