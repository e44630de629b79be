package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medisight/clinicpricewatch/internal/adapters/cache"
	"github.com/medisight/clinicpricewatch/internal/adapters/database"
	"github.com/medisight/clinicpricewatch/internal/adapters/events"
	"github.com/medisight/clinicpricewatch/internal/api/handlers"
	"github.com/medisight/clinicpricewatch/internal/api/routes"
	"github.com/medisight/clinicpricewatch/internal/application/services"
	"github.com/medisight/clinicpricewatch/internal/domain/providers"
	"github.com/medisight/clinicpricewatch/internal/domain/repositories"
	"github.com/medisight/clinicpricewatch/internal/infrastructure/clients/postgres"
	"github.com/medisight/clinicpricewatch/internal/infrastructure/clients/redis"
	"github.com/medisight/clinicpricewatch/internal/infrastructure/observability"
	"github.com/medisight/clinicpricewatch/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)
	logger := observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	logger.Info().Msg("PostgreSQL client initialized")

	// Initialize Redis client; the application works without caching and
	// live alert broadcast when it is unavailable.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Redis client, continuing without it")
		redisClient = nil
	} else {
		defer redisClient.Close()
		logger.Info().Msg("Redis client initialized")
	}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		logger.Info().Msg("Event bus initialized")
	}

	// Initialize adapters
	procedureAdapter := database.NewProcedureAdapter(pgClient)
	aliasAdapter := database.NewAliasAdapter(pgClient)
	packageAdapter := database.NewPackageAdapter(pgClient)
	candidateAdapter := database.NewCandidateAdapter(pgClient)
	collectedNameAdapter := database.NewCollectedNameAdapter(pgClient)
	hospitalAdapter := database.NewHospitalAdapter(pgClient)
	priceHistoryAdapter := database.NewPriceHistoryAdapter(pgClient)
	priceRecordAdapter := database.NewPriceRecordAdapter(pgClient)
	alertAdapter := database.NewAlertAdapter(pgClient)

	var settingsAdapter repositories.SettingsRepository = database.NewSettingsAdapter(pgClient)
	if cacheProvider != nil {
		settingsAdapter = database.NewCachedSettingsAdapter(settingsAdapter, cacheProvider)
		logger.Info().Msg("Settings adapter wrapped with caching layer")
	}

	// Initialize services
	lifecycleService := services.NewCandidateLifecycleService(candidateAdapter, settingsAdapter)
	resolutionService := services.NewNameResolutionService(
		procedureAdapter,
		aliasAdapter,
		packageAdapter,
		candidateAdapter,
		collectedNameAdapter,
		lifecycleService,
		metrics,
	)
	hospitalService := services.NewHospitalResolutionService(hospitalAdapter)
	fanoutService := services.NewAlertFanoutService(
		settingsAdapter,
		priceRecordAdapter,
		alertAdapter,
		eventBus,
		metrics,
	)
	priceHistoryService := services.NewPriceHistoryService(
		priceHistoryAdapter,
		priceRecordAdapter,
		procedureAdapter,
		settingsAdapter,
		fanoutService,
	)
	ingestionService := services.NewPriceIngestionService(
		hospitalService,
		resolutionService,
		priceHistoryService,
		metrics,
	)

	// Initialize handlers
	priceHandler := handlers.NewPriceHandler(ingestionService, priceHistoryService)
	candidateHandler := handlers.NewCandidateHandler(candidateAdapter, aliasAdapter)
	alertHandler := handlers.NewAlertHandler(alertAdapter)

	// Set up router
	router := routes.NewRouter(priceHandler, candidateHandler, alertHandler)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := cfg.Server.ServerAddr()
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during server shutdown")
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing event bus")
		}
	}

	logger.Info().Msg("Server stopped")
}
