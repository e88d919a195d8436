package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/packaxis/packaxis-backend/internal/notifications"
	"github.com/packaxis/packaxis-backend/pkg/config"
	"github.com/packaxis/packaxis-backend/pkg/db"
	"github.com/packaxis/packaxis-backend/pkg/logger"
	"github.com/packaxis/packaxis-backend/pkg/outbox"
	"github.com/packaxis/packaxis-backend/pkg/outbox/idempotency"
	"github.com/packaxis/packaxis-backend/pkg/pubsub"
	"github.com/packaxis/packaxis-backend/pkg/redis"
)

// consumerIdempotencyTTL bounds how long a processed event id is remembered.
const consumerIdempotencyTTL = 7 * 24 * time.Hour

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}

	outboxPublisher, err := outbox.NewPublisher(outbox.PublisherParams{
		Config:     cfg.Outbox,
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(dbClient.DB()),
		Publisher:  pubsubClient.OrdersPublisher(),
	})
	if err != nil {
		logg.Error(ctx, "failed to create outbox publisher", err)
		os.Exit(1)
	}

	idempotencyManager, err := idempotency.NewManager(redisClient, consumerIdempotencyTTL)
	if err != nil {
		logg.Error(ctx, "failed to create idempotency manager", err)
		os.Exit(1)
	}

	mailer, err := notifications.NewMailer(cfg.Sendgrid, logg)
	if err != nil {
		logg.Error(ctx, "failed to create mailer", err)
		os.Exit(1)
	}

	confirmationConsumer, err := notifications.NewConsumer(mailer, pubsubClient.OrdersSubscription(), idempotencyManager, logg)
	if err != nil {
		logg.Error(ctx, "failed to create order confirmation consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:               cfg,
		Logger:               logg,
		DB:                   dbClient,
		Redis:                redisClient,
		PubSub:               pubsubClient,
		OutboxPublisher:      outboxPublisher,
		ConfirmationConsumer: confirmationConsumer,
	})
	if err != nil {
		logg.Error(ctx, "failed to create worker service", err)
		os.Exit(1)
	}

	logg.Info(ctx, "starting worker")
	runErr := service.Run(ctx)

	if closeErr := service.Close(); closeErr != nil {
		logg.Error(ctx, "error closing worker dependencies", closeErr)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", runErr)
		os.Exit(1)
	}
	logg.Info(ctx, "worker shut down gracefully")
}
