package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/storedir/backend/internal/adapters/blob"
	"github.com/storedir/backend/internal/adapters/cache"
	"github.com/storedir/backend/internal/adapters/database"
	"github.com/storedir/backend/internal/adapters/mail"
	"github.com/storedir/backend/internal/adapters/search"
	"github.com/storedir/backend/internal/api/handlers"
	"github.com/storedir/backend/internal/api/middleware"
	"github.com/storedir/backend/internal/api/routes"
	"github.com/storedir/backend/internal/application/services"
	"github.com/storedir/backend/internal/domain/providers"
	"github.com/storedir/backend/internal/domain/repositories"
	"github.com/storedir/backend/internal/infrastructure/clients/postgres"
	"github.com/storedir/backend/internal/infrastructure/clients/redis"
	"github.com/storedir/backend/internal/infrastructure/clients/typesense"
	"github.com/storedir/backend/internal/infrastructure/observability"
	"github.com/storedir/backend/pkg/config"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)
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

	// Redis is optional; the application works without caching
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize Redis client, continuing without cache")
	} else {
		defer redisClient.Close()
		logger.Info().Msg("Redis client initialized")
	}

	// Typesense is optional; search falls back to the database
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize Typesense client, search will use the database")
		typesenseClient = nil
	} else {
		logger.Info().Msg("Typesense client initialized")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize adapters
	baseStoreAdapter := database.NewStoreAdapter(pgClient)

	var storeAdapter repositories.StoreRepository
	if cacheProvider != nil {
		storeAdapter = database.NewCachedStoreAdapter(baseStoreAdapter, cacheProvider)
		logger.Info().Msg("store adapter wrapped with caching layer")
	} else {
		storeAdapter = baseStoreAdapter
		logger.Warn().Msg("store adapter running without cache (Redis unavailable)")
	}

	reviewAdapter := database.NewReviewAdapter(pgClient)
	userAdapter := database.NewUserAdapter(pgClient)
	heartAdapter := database.NewHeartAdapter(pgClient)

	var searchRepo repositories.StoreSearchRepository
	if typesenseClient != nil {
		if err := typesenseClient.InitSchema(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("failed to init Typesense schema")
		}
		searchRepo = search.NewTypesenseAdapter(typesenseClient)
	}

	blobStore, err := blob.NewLocalStore(cfg.Uploads.Dir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize photo storage")
	}

	mailer := mail.NewGomailSender(&cfg.Mail)

	// Initialize services
	storeService := services.NewStoreService(storeAdapter, searchRepo, &cfg.Discovery)
	reviewService := services.NewReviewService(reviewAdapter, storeAdapter)
	heartService := services.NewHeartService(heartAdapter, storeAdapter)
	authService := services.NewAuthService(userAdapter, mailer, &cfg.Auth, &cfg.Mail)
	photoService := services.NewPhotoService(blobStore, &cfg.Uploads)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	storeHandler := handlers.NewStoreHandler(storeService, photoService)
	tagHandler := handlers.NewTagHandler(storeService)
	searchHandler := handlers.NewSearchHandler(storeService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	heartHandler := handlers.NewHeartHandler(heartService)

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
	}

	router := routes.NewRouter(
		authHandler,
		storeHandler,
		tagHandler,
		searchHandler,
		reviewHandler,
		heartHandler,
		authService,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

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
