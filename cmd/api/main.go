package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopwalk/shopwalk-backend/api/controllers"
	"github.com/shopwalk/shopwalk-backend/api/routes"
	"github.com/shopwalk/shopwalk-backend/internal/catalog"
	"github.com/shopwalk/shopwalk-backend/internal/discovery"
	"github.com/shopwalk/shopwalk-backend/internal/orders"
	"github.com/shopwalk/shopwalk-backend/internal/payments"
	"github.com/shopwalk/shopwalk-backend/internal/promotions"
	"github.com/shopwalk/shopwalk-backend/internal/session"
	"github.com/shopwalk/shopwalk-backend/internal/shipping"
	"github.com/shopwalk/shopwalk-backend/internal/webhooks"
	"github.com/shopwalk/shopwalk-backend/pkg/config"
	"github.com/shopwalk/shopwalk-backend/pkg/db"
	"github.com/shopwalk/shopwalk-backend/pkg/logger"
	"github.com/shopwalk/shopwalk-backend/pkg/metrics"
	"github.com/shopwalk/shopwalk-backend/pkg/migrate"
	pkgredis "github.com/shopwalk/shopwalk-backend/pkg/redis"
	"github.com/shopwalk/shopwalk-backend/pkg/signing"
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

	var idempotencyStore pkgredis.IdempotencyStore
	pingers := []controllers.Pinger{dbClient}
	if cfg.Redis.Enabled() {
		redisClient, err := pkgredis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		idempotencyStore = redisClient
		pingers = append(pingers, redisClient)
	}

	var signer *signing.Signer
	if cfg.Signing.Ed25519Seed != "" {
		signer, err = signing.NewSignerFromSeed(cfg.Signing.Ed25519Seed, cfg.Signing.KeyID)
		if err != nil {
			logg.Error(context.Background(), "failed to load signing key", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "no signing seed configured, webhook payloads will be unsigned")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	commerceMetrics := metrics.NewCommerceMetrics(registry)

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	promotionsService, err := promotions.NewService(promotions.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create promotions service", err)
		os.Exit(1)
	}

	shippingService := shipping.NewService(cfg.Shipping)

	paymentAdapter, err := payments.NewSquareAdapter(cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment adapter", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	webhooksRepo := webhooks.NewRepository(dbClient.DB())

	notifier, err := webhooks.NewNotifier(webhooksRepo, ordersRepo, signer, logg, commerceMetrics, cfg.Webhooks, cfg.Merchant)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook notifier", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, dbClient, notifier, commerceMetrics, cfg.Merchant)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	sessionService, err := session.NewService(
		session.NewRepository(dbClient.DB()),
		dbClient,
		catalogService,
		promotionsService,
		shippingService,
		paymentAdapter,
		notifier,
		commerceMetrics,
		cfg.Checkout,
		cfg.Merchant,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create session service", err)
		os.Exit(1)
	}

	webhooksService, err := webhooks.NewService(webhooksRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhooks service", err)
		os.Exit(1)
	}

	discoveryBuilder := discovery.NewBuilder(cfg.Merchant, cfg.Square, signer)

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
		Handler: routes.NewRouter(
			cfg,
			logg,
			httpMetrics,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			idempotencyStore,
			sessionService,
			ordersService,
			webhooksService,
			discoveryBuilder,
			pingers...,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
