package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jpavezc/clubfees-backend/api/routes"
	"github.com/jpavezc/clubfees-backend/internal/payments"
	"github.com/jpavezc/clubfees-backend/internal/reconciliation"
	mpwebhook "github.com/jpavezc/clubfees-backend/internal/webhooks/mercadopago"
	"github.com/jpavezc/clubfees-backend/pkg/config"
	"github.com/jpavezc/clubfees-backend/pkg/db"
	"github.com/jpavezc/clubfees-backend/pkg/enums"
	"github.com/jpavezc/clubfees-backend/pkg/logger"
	"github.com/jpavezc/clubfees-backend/pkg/mercadopago"
	"github.com/jpavezc/clubfees-backend/pkg/metrics"
	"github.com/jpavezc/clubfees-backend/pkg/migrate"
	"github.com/jpavezc/clubfees-backend/pkg/redis"
)

const webhookIdempotencyScope = "mp-webhook"

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

	mpClient, err := mercadopago.NewClient(context.Background(), cfg.MercadoPago, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap mercadopago client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	reconciliationMetrics := metrics.NewReconciliationMetrics(registry)

	currency, err := enums.ParseCurrency(cfg.Billing.Currency)
	if err != nil {
		logg.Error(context.Background(), "invalid billing currency", err)
		os.Exit(1)
	}

	paymentsRepo := payments.NewRepository(dbClient.DB())

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Provider: mpClient,
		URLs:     cfg.URLs,
		Currency: currency,
		Logger:   logg,
		Metrics:  reconciliationMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	resolver, err := reconciliation.NewResolver(reconciliation.ResolverParams{
		Repository: paymentsRepo,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create resolver", err)
		os.Exit(1)
	}

	webhookService, err := mpwebhook.NewService(mpwebhook.ServiceParams{
		Provider: mpClient,
		Resolver: resolver,
		Logger:   logg,
		Metrics:  reconciliationMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := mpwebhook.NewIdempotencyGuard(redisClient, cfg.MercadoPago.WebhookEventTTL, webhookIdempotencyScope)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
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
			Config:          cfg,
			Logger:          logg,
			DBPinger:        dbClient,
			Redis:           redisClient,
			PaymentsService: paymentsService,
			WebhookService:  webhookService,
			WebhookGuard:    webhookGuard,
			MetricsGatherer: registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
