package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/notify"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting storefront API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rule, err := cfg.Delivery.Rule()
	if err != nil {
		return fmt.Errorf("invalid delivery configuration: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database.ConnectionString(), logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	redisClient, err := session.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	defer redisClient.Close()
	sessions := session.NewRedisStore(redisClient, cfg.Session.TTL)

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	profileRepo := repository.NewProfileRepository(pool, logger)

	stripeClient := payment.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, nil, logger)

	notifier, closeNotifier, err := newNotifier(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}
	defer closeNotifier()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	bagService := service.NewBagService(productRepo, sessions, rule, logger)
	checkoutService := service.NewCheckoutService(
		orderRepo, productRepo, profileRepo, sessions, stripeClient, rule, recorder,
		service.CheckoutConfig{PublicKey: cfg.Stripe.PublicKey, Currency: cfg.Stripe.Currency},
		logger,
	)
	webhookService := service.NewWebhookService(
		orderRepo, productRepo, profileRepo, stripeClient, notifier, rule, recorder,
		service.ReconcilerConfig{LookupAttempts: cfg.Reconciler.LookupAttempts, LookupInterval: cfg.Reconciler.LookupInterval},
		logger,
	)
	orderService := service.NewOrderService(orderRepo, productRepo, rule, logger)
	profileService := service.NewProfileService(profileRepo, orderRepo, logger)

	// Initialize router
	mux := router.New(router.Handlers{
		Products: handler.NewProductHandler(productService, logger),
		Bag:      handler.NewBagHandler(bagService, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, webhookService, logger),
		Orders:   handler.NewOrderHandler(orderService, logger),
		Profile:  handler.NewProfileHandler(profileService, logger),
	}, router.Options{
		AdminAPIKey: cfg.Auth.AdminAPIKey,
		UserHeader:  cfg.Auth.UserHeader,
		Session: middleware.SessionConfig{
			CookieName: cfg.Session.CookieName,
			TTL:        cfg.Session.TTL,
			Secure:     cfg.Session.Secure,
		},
		Metrics: recorder,
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// In-flight webhooks may be waiting on the reconciler window.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newNotifier publishes confirmation emails to Kafka when enabled and logs
// them otherwise.
func newNotifier(cfg *config.Config, logger zerolog.Logger) (notify.Notifier, func(), error) {
	renderer, err := notify.NewRenderer(cfg.Email.From, cfg.Email.StoreName)
	if err != nil {
		return nil, nil, err
	}

	if !cfg.Kafka.Enabled {
		logger.Info().Msg("kafka disabled, confirmation emails will be logged")
		return notify.NewLogNotifier(renderer, logger), func() {}, nil
	}

	kafkaNotifier := notify.NewKafkaNotifier(notify.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), renderer, logger)
	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.Topic).
		Msg("publishing confirmation emails to kafka")

	return kafkaNotifier, func() {
		if err := kafkaNotifier.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close kafka writer")
		}
	}, nil
}
