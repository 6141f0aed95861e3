package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/snapmap/storefinder/backend/internal/adapters/cache"
	"github.com/snapmap/storefinder/backend/internal/adapters/database"
	"github.com/snapmap/storefinder/backend/internal/adapters/providers/geolocation"
	"github.com/snapmap/storefinder/backend/internal/adapters/providers/places"
	"github.com/snapmap/storefinder/backend/internal/api/handlers"
	"github.com/snapmap/storefinder/backend/internal/api/routes"
	"github.com/snapmap/storefinder/backend/internal/application/services"
	"github.com/snapmap/storefinder/backend/internal/domain/providers"
	"github.com/snapmap/storefinder/backend/internal/infrastructure/clients/postgres"
	"github.com/snapmap/storefinder/backend/internal/infrastructure/clients/redis"
	"github.com/snapmap/storefinder/backend/internal/infrastructure/observability"
	"github.com/snapmap/storefinder/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, getEnvName())
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
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	logger.Info().Msg("PostgreSQL client initialized")

	// Initialize Redis client; the application degrades to an in-process
	// cache when Redis is unavailable
	var cacheProvider providers.CacheProvider
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, using in-memory cache")
		memCache, memErr := cache.NewMemoryAdapter(4096)
		if memErr != nil {
			logger.Fatal().Err(memErr).Msg("failed to initialize in-memory cache")
		}
		cacheProvider = memCache
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		logger.Info().Msg("Redis client initialized")
	}

	// Initialize adapters
	storeSearchAdapter := database.NewStoreSearchAdapter(pgClient)
	clickEventAdapter := database.NewClickEventAdapter(pgClient)
	enrichmentCacheAdapter := database.NewEnrichmentCacheAdapter(pgClient)
	usageLedgerAdapter := database.NewUsageLedgerAdapter(pgClient)
	budgetEventAdapter := database.NewBudgetEventAdapter(pgClient)

	// Select the places provider
	var placesProvider providers.PlacesProvider
	switch cfg.Places.Provider {
	case "google":
		if cfg.Places.APIKey == "" {
			logger.Warn().Msg("PLACES_API_KEY is not set, using mock places provider")
			placesProvider = places.NewMockPlacesProvider()
		} else {
			placesProvider = places.NewGooglePlacesProvider(cfg.Places.APIKey)
		}
	default:
		placesProvider = places.NewMockPlacesProvider()
	}

	// Select the geolocation provider
	var geolocationProvider providers.GeolocationProvider
	switch cfg.Geolocation.Provider {
	case "ipapi":
		geolocationProvider = geolocation.NewIPAPIProvider(cfg.Geolocation.Endpoint, nil)
	default:
		geolocationProvider = geolocation.NewMockGeolocationProvider()
	}

	// Initialize services
	trendingService := services.NewTrendingService(clickEventAdapter, cfg.Search)
	searchService := services.NewSearchService(
		storeSearchAdapter,
		trendingService,
		cacheProvider,
		cfg.Search,
		metrics,
	)
	enrichmentService := services.NewEnrichmentService(
		placesProvider,
		enrichmentCacheAdapter,
		usageLedgerAdapter,
		budgetEventAdapter,
		cfg.Places,
		metrics,
	)
	geolocationService := services.NewSessionGeolocationService(
		geolocationProvider,
		cacheProvider,
		cfg.Geolocation.SessionTTLHours*3600,
	)

	// Initialize handlers
	storeHandler := handlers.NewStoreHandler(searchService, clickEventAdapter)
	enrichmentHandler := handlers.NewEnrichmentHandler(enrichmentService)
	geolocationHandler := handlers.NewGeolocationHandler(geolocationService)
	usageHandler := handlers.NewUsageHandler(usageLedgerAdapter)

	// Set up router
	router := routes.NewRouter(
		storeHandler,
		enrichmentHandler,
		geolocationHandler,
		usageHandler,
		metrics,
	)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	logger.Info().Msg("server stopped")
}

func getEnvName() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "development"
}
