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

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/chung140204/storefront-api/internal/domain"
	"github.com/chung140204/storefront-api/internal/handlers"
	"github.com/chung140204/storefront-api/internal/platform/auth"
	"github.com/chung140204/storefront-api/internal/platform/config"
	pfirestore "github.com/chung140204/storefront-api/internal/platform/firestore"
	"github.com/chung140204/storefront-api/internal/platform/jobs"
	"github.com/chung140204/storefront-api/internal/platform/observability"
	platformstorage "github.com/chung140204/storefront-api/internal/platform/storage"
	firestoreRepo "github.com/chung140204/storefront-api/internal/repositories/firestore"
	"github.com/chung140204/storefront-api/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		if err := firestoreProvider.Close(); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(firebaseVerifier)

	var notifier services.NotificationSender
	var orderTopic *pubsub.Topic
	if cfg.PubSub.OrderTopic != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		orderTopic = pubsubClient.Topic(cfg.PubSub.OrderTopic)
		notifier, err = jobs.NewPubSubOrderNotifier(orderTopic)
		if err != nil {
			logger.Fatal("failed to initialise order notifier", zap.Error(err))
		}
	} else {
		logger.Info("order confirmation topic not configured; notifications disabled")
	}

	var mediaStore services.MediaStore
	if cfg.Storage.Bucket != "" {
		storageClient, err := cloudstorage.NewClient(ctx)
		if err != nil {
			logger.Fatal("failed to initialise storage client", zap.Error(err))
		}
		defer func() {
			if err := storageClient.Close(); err != nil {
				logger.Warn("storage close error", zap.Error(err))
			}
		}()
		mediaStore, err = platformstorage.NewMediaStore(storageClient.Bucket(cfg.Storage.Bucket))
		if err != nil {
			logger.Fatal("failed to initialise media store", zap.Error(err))
		}
	} else {
		logger.Info("return media bucket not configured; photo uploads disabled")
	}

	stockLedger := firestoreRepo.NewStockLedger()
	orderRepo, err := firestoreRepo.NewOrderRepository(firestoreProvider, stockLedger)
	if err != nil {
		logger.Fatal("failed to initialise order repository", zap.Error(err))
	}
	returnRepo, err := firestoreRepo.NewReturnRepository(firestoreProvider, stockLedger)
	if err != nil {
		logger.Fatal("failed to initialise return repository", zap.Error(err))
	}
	catalogRepo, err := firestoreRepo.NewCatalogRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise catalog repository", zap.Error(err))
	}
	counterRepo, err := firestoreRepo.NewCounterRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise counter repository", zap.Error(err))
	}

	pricingEngine, err := services.NewPricingEngine(services.PricingEngineDeps{
		Vouchers: voucherRules(cfg.Pricing.VoucherRates),
	})
	if err != nil {
		logger.Fatal("failed to initialise pricing engine", zap.Error(err))
	}

	checkoutService, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Orders:        orderRepo,
		Counters:      counterRepo,
		Pricing:       pricingEngine,
		Notifications: notifier,
		Clock:         time.Now,
		Logger:        observability.ServiceLogger(logger.Named("checkout")),
	})
	if err != nil {
		logger.Fatal("failed to initialise checkout service", zap.Error(err))
	}
	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders: orderRepo,
		Clock:  time.Now,
		Logger: observability.ServiceLogger(logger.Named("orders")),
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}
	returnService, err := services.NewReturnService(services.ReturnServiceDeps{
		Orders:  orderRepo,
		Returns: returnRepo,
		Media:   mediaStore,
		Window:  cfg.Returns.Window,
		Clock:   time.Now,
		Logger:  observability.ServiceLogger(logger.Named("returns")),
	})
	if err != nil {
		logger.Fatal("failed to initialise return service", zap.Error(err))
	}
	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Catalog: catalogRepo,
		Clock:   time.Now,
		Logger:  observability.ServiceLogger(logger.Named("catalog")),
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	catalogHandlers := handlers.NewCatalogHandlers(catalogService)
	checkoutHandlers := handlers.NewCheckoutHandlers(authenticator, checkoutService)
	orderHandlers := handlers.NewOrderHandlers(authenticator, orderService, returnService)
	adminHandlers := handlers.NewAdminHandlers(authenticator, orderService, returnService, catalogService)

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthStartedAt(startedAt),
		handlers.WithReadinessCheck("firestore", firestoreCheck(firestoreClient)),
	)

	projectID := traceProjectID(cfg)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithCatalogRoutes(catalogHandlers.Routes),
		handlers.WithCheckoutRoutes(checkoutHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
	)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("storefront api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	if orderTopic != nil {
		orderTopic.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// voucherRules converts the configured code to rate table into domain rules.
func voucherRules(rates map[string]float64) map[string]domain.VoucherRule {
	if len(rates) == 0 {
		return domain.DefaultVoucherRules()
	}
	rules := make(map[string]domain.VoucherRule, len(rates))
	for code, rate := range rates {
		rules[code] = domain.VoucherRule{Code: code, Rate: rate}
	}
	return rules
}

func firestoreCheck(client *firestore.Client) handlers.ReadinessCheck {
	return func(ctx context.Context) error {
		iter := client.Collections(ctx)
		_, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		return err
	}
}

func traceProjectID(cfg config.Config) string {
	if id := strings.TrimSpace(cfg.Firebase.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(cfg.Firestore.ProjectID)
}
