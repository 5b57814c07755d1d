package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/cache"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/config"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/db"
	httpHandlers "github.com/nathanieluriri/marcus-cleaning-backend/internal/http/handlers"
	httpRouter "github.com/nathanieluriri/marcus-cleaning-backend/internal/http/router"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/logger"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/onboarding"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/payments"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/place"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pricing"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/queue"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/repository"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/service"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: failed to load config: %v", err)
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: failed to connect to database: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: failed to run migrations: %v", err)
	}

	// The cache is optional infrastructure: when redis is unreachable at
	// boot, fall back to the in-process store instead of refusing to start.
	var store cache.Store
	redisStore, err := cache.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("main: redis unavailable, using in-memory cache: %v", err)
		store = cache.NewMemoryStore()
	} else {
		store = redisStore
		defer redisStore.Close()
	}

	documentStorage, err := storage.NewDocumentStorage(cfg.DocumentStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: failed to prepare document storage: %v", err)
	}
	taskRunner := queue.NewRunner(30 * time.Second)

	// Repositories.
	accountRepo := repository.NewAccountRepository(dbConn)
	bookingRepo := repository.NewBookingRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	documentRepo := repository.NewDocumentRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)

	// Payment providers: each is registered only when configured.
	providerMap := make(map[string]payments.Provider)
	if cfg.FlutterwaveSecretKey != "" {
		providerMap[models.ProviderFlutterwave] = payments.NewFlutterwaveProvider(cfg.FlutterwaveSecretKey, cfg.FlutterwaveWebhookSecretHash)
	}
	if cfg.StripeSecretKey != "" {
		providerMap[models.ProviderStripe] = payments.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	}
	var testProvider *payments.TestProvider
	if cfg.TestProviderBaseURL != "" {
		testProvider = payments.NewTestProvider(paymentRepo, cfg.TestProviderBaseURL, cfg.TestProviderWebhookHash)
		providerMap[models.ProviderTest] = testProvider
	}
	registry := payments.NewRegistry(providerMap, cfg.PaymentDefaultProvider)
	logger.Log.WithField("providers", registry.Names()).Info("payment providers configured")

	// Services.
	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL)
	authService := service.NewAuthService(accountRepo, tokenService)
	gate := onboarding.NewGate(store, accountRepo, cfg.AccessTokenTTL)
	cleanerService := service.NewCleanerService(accountRepo, gate)
	placeService := place.NewService(place.NewGoogleClient(cfg.GoogleMapsAPIKey), store)
	pricingEngine := pricing.NewEngine(placeService)
	paymentService := service.NewPaymentService(paymentRepo, registry)
	bookingService := service.NewBookingService(bookingRepo, pricingEngine, paymentService, accountRepo, cfg.AllowPendingPayment)
	reviewService := service.NewReviewService(reviewRepo, bookingRepo)

	// HTTP handlers.
	authHandler := httpHandlers.NewAuthHandler(authService)
	bookingHandler := httpHandlers.NewBookingHandler(bookingService, paymentService)
	paymentHandler := httpHandlers.NewPaymentHandler(paymentService)
	cleanerHandler := httpHandlers.NewCleanerHandler(cleanerService)
	reviewHandler := httpHandlers.NewReviewHandler(reviewService)
	documentHandler := httpHandlers.NewDocumentHandler(documentRepo, documentStorage, taskRunner)
	placeHandler := httpHandlers.NewPlaceHandler(placeService)
	healthHandler := httpHandlers.NewHealthHandler(dbConn, store)

	var testCheckoutHandler *httpHandlers.TestCheckoutHandler
	if testProvider != nil {
		testCheckoutHandler = httpHandlers.NewTestCheckoutHandler(paymentRepo)
	}

	engine := httpRouter.SetupRouter(
		cfg,
		authHandler,
		bookingHandler,
		paymentHandler,
		cleanerHandler,
		reviewHandler,
		documentHandler,
		placeHandler,
		testCheckoutHandler,
		healthHandler,
		tokenService,
		authService,
		gate,
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: http server shutdown: %v", err)
		}
	}()

	log.Printf("main: HTTP server listening on port %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: server exited with error: %v", err)
	}
}

func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: failed to close database: %v", err)
	}
}
