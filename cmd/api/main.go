package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nino-0813/honma-ec-sub000/api/routes"
	"github.com/nino-0813/honma-ec-sub000/internal/address"
	"github.com/nino-0813/honma-ec-sub000/internal/cart"
	checkoutsvc "github.com/nino-0813/honma-ec-sub000/internal/checkout"
	"github.com/nino-0813/honma-ec-sub000/internal/coupons"
	"github.com/nino-0813/honma-ec-sub000/internal/orders"
	"github.com/nino-0813/honma-ec-sub000/internal/products"
	"github.com/nino-0813/honma-ec-sub000/internal/profiles"
	"github.com/nino-0813/honma-ec-sub000/internal/shipping"
	stripewh "github.com/nino-0813/honma-ec-sub000/internal/webhooks/stripe"
	"github.com/nino-0813/honma-ec-sub000/pkg/config"
	"github.com/nino-0813/honma-ec-sub000/pkg/db"
	"github.com/nino-0813/honma-ec-sub000/pkg/logger"
	"github.com/nino-0813/honma-ec-sub000/pkg/metrics"
	"github.com/nino-0813/honma-ec-sub000/pkg/migrate"
	"github.com/nino-0813/honma-ec-sub000/pkg/postal"
	"github.com/nino-0813/honma-ec-sub000/pkg/redis"
	pkgstripe "github.com/nino-0813/honma-ec-sub000/pkg/stripe"
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

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	productsRepo := products.NewRepository(dbClient.DB())
	shippingRepo := shipping.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	profilesRepo := profiles.NewRepository(dbClient.DB())
	couponsRepo := coupons.NewRepository(dbClient.DB())

	cartStore, err := cart.NewStore(redisClient, cfg.Cart.TTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, profilesRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Products:  productsRepo,
		Shipping:  shippingRepo,
		Coupons:   couponsRepo,
		Intents:   stripeClient,
		Drafts:    ordersService,
		KV:        redisClient,
		Shipfees:  cfg.Shipping,
		IntentTTL: cfg.Cart.IntentTTL,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ledger, err := stripewh.NewLedger(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook ledger", err)
		os.Exit(1)
	}
	webhookService, err := stripewh.NewService(stripewh.ServiceParams{
		Orders:  ordersRepo,
		Stock:   productsRepo,
		Coupons: couponsRepo,
		Ledger:  ledger,
		Logger:  logg,
		Metrics: webhookMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	postalClient := postal.NewClient(
		postal.WithBaseURL(cfg.PostalAPI.BaseURL),
		postal.WithHTTPClient(&http.Client{Timeout: cfg.PostalAPI.Timeout}),
	)
	addressService, err := address.NewService(postalClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Cache:         redisClient,
			Registry:      registry,
			Products:      productsRepo,
			Shipping:      shippingRepo,
			Orders:        ordersRepo,
			CartStore:     cartStore,
			Checkout:      checkoutService,
			Address:       addressService,
			StripeClient:  stripeClient,
			StripeWebhook: webhookService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			stop()
		}
	}()

	<-shutdownCtx.Done()
	logg.Info(ctx, "shutting down api server")

	drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(drainCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	}
}
