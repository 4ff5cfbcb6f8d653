package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bosanoga/storefront/internal/apiclient"
	"github.com/bosanoga/storefront/internal/cart"
	"github.com/bosanoga/storefront/internal/catalog"
	"github.com/bosanoga/storefront/internal/checkout"
	"github.com/bosanoga/storefront/internal/handlers"
	"github.com/bosanoga/storefront/internal/platform/config"
	"github.com/bosanoga/storefront/internal/platform/kvstore"
	"github.com/bosanoga/storefront/internal/platform/observability"
)

func main() {
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("storefront")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	kv, err := kvstore.Open(cfg.Storage.Dir)
	if err != nil {
		logger.Fatal("failed to open state store", zap.String("dir", cfg.Storage.Dir), zap.Error(err))
	}

	api := apiclient.NewClient(cfg.API.BaseURL, apiclient.WithTimeout(cfg.API.Timeout))
	catalogClient := catalog.NewClient(api, cfg.Product.ItemsPerPage, logger.Named("catalog"))
	orderClient := checkout.NewClient(api)

	registry := handlers.NewSessionRegistry(handlers.SessionRegistryDeps{
		KV:      kv,
		Catalog: catalogClient,
		Orders:  orderClient,
		Limits: cart.Limits{
			MinCount: cfg.Product.MinOrderCount,
			MaxCount: cfg.Product.MaxOrderCount,
		},
		CookieName:    cfg.Session.CookieName,
		IdleTTL:       cfg.Session.IdleTTL,
		DraftTTL:      cfg.Storage.DraftTTL,
		DraftDebounce: cfg.Storage.DraftDebounce,
		Logger:        logger.Named("session"),
	})
	defer registry.Close()

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfoFromEnv(startedAt)),
		handlers.WithHealthReadinessCheck("upstream", func(r *http.Request) error {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			_, err := catalogClient.Categories(ctx)
			return err
		}),
	)

	catalogHandlers := handlers.NewCatalogHandlers(catalogClient)
	cartHandlers := handlers.NewCartHandlers()
	checkoutHandlers := handlers.NewCheckoutHandlers()

	router := handlers.NewRouter(
		handlers.WithMiddleware(
			observability.InjectLoggerMiddleware(logger.Named("http")),
			observability.RecoveryMiddleware(logger.Named("http")),
			observability.RequestLoggerMiddleware(),
			registry.Middleware,
		),
		handlers.WithHealth(healthHandlers),
		handlers.WithCatalogRoutes(catalogHandlers.Routes),
		handlers.WithCartRoutes(cartHandlers.Routes),
		handlers.WithCheckoutRoutes(checkoutHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("storefront listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildInfoFromEnv(started time.Time) handlers.BuildInfo {
	version := strings.TrimSpace(os.Getenv("BUILD_VERSION"))
	if version == "" {
		version = "dev"
	}
	return handlers.BuildInfo{
		Version:     version,
		CommitSHA:   strings.TrimSpace(os.Getenv("BUILD_COMMIT_SHA")),
		Environment: strings.TrimSpace(os.Getenv("ENVIRONMENT")),
		StartedAt:   started,
	}
}
