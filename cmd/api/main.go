package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/packaxis/packaxis-backend/api/routes"
	"github.com/packaxis/packaxis-backend/internal/checkout"
	"github.com/packaxis/packaxis-backend/internal/orders"
	"github.com/packaxis/packaxis-backend/internal/promotions"
	"github.com/packaxis/packaxis-backend/internal/shipping"
	"github.com/packaxis/packaxis-backend/internal/taxes"
	stripewebhook "github.com/packaxis/packaxis-backend/internal/webhooks/stripe"
	"github.com/packaxis/packaxis-backend/pkg/config"
	"github.com/packaxis/packaxis-backend/pkg/db"
	"github.com/packaxis/packaxis-backend/pkg/logger"
	"github.com/packaxis/packaxis-backend/pkg/metrics"
	"github.com/packaxis/packaxis-backend/pkg/migrate"
	"github.com/packaxis/packaxis-backend/pkg/outbox"
	"github.com/packaxis/packaxis-backend/pkg/redis"
	"github.com/packaxis/packaxis-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	taxResolver, err := taxes.NewResolver(taxes.NewRepository(dbClient.DB()), logg, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create tax resolver", err)
		os.Exit(1)
	}

	shippingCalc, err := shipping.NewCalculator(shipping.NewRepository(dbClient.DB()), logg, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping calculator", err)
		os.Exit(1)
	}

	couponValidator, err := promotions.NewValidator(promotions.NewRepository(dbClient.DB()), logg, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon validator", err)
		os.Exit(1)
	}

	aggregator, err := checkout.NewAggregator(taxResolver, shippingCalc, couponValidator, logg, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout aggregator", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	orderService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, couponValidator, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	var stripeClient *stripe.Client
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = stripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "stripe not configured, payment webhooks disabled")
	}

	stripeWebhookService, err := stripewebhook.NewService(orderService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	stripeGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Checkout.IdempotencyTTL, "stripe-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:             cfg,
			Logger:             logg,
			Redis:              redisClient,
			DBPinger:           dbClient,
			Aggregator:         aggregator,
			TaxResolver:        taxResolver,
			ShippingCalculator: shippingCalc,
			CouponValidator:    couponValidator,
			OrderService:       orderService,
			StripeClient:       stripeClient,
			StripeWebhook:      stripeWebhookService,
			StripeGuard:        stripeGuard,
			MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
