package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/verbamind/verbamind/internal/api"
	"github.com/verbamind/verbamind/internal/api/handlers"
	"github.com/verbamind/verbamind/internal/api/middleware"
	"github.com/verbamind/verbamind/internal/embedding"
	"github.com/verbamind/verbamind/internal/engine"
	"github.com/verbamind/verbamind/internal/games"
	"github.com/verbamind/verbamind/internal/semantics"
	"github.com/verbamind/verbamind/internal/services"
	"github.com/verbamind/verbamind/pkg/config"
	"github.com/verbamind/verbamind/pkg/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logrus.StandardLogger()

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment(), database.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	cacheService := services.NewCacheService(redisClient)

	// Embedding provider and scorer
	provider, err := buildEmbeddingProvider(cfg, db, logger)
	if err != nil {
		logrus.Fatalf("Failed to initialize embedding provider: %v", err)
	}
	embeddingService, err := embedding.NewService(provider, cfg.EmbeddingCacheSize)
	if err != nil {
		logrus.Fatalf("Failed to initialize embedding service: %v", err)
	}
	scorer := semantics.NewScorer(embeddingService)

	// Game catalog and orchestrator
	catalog := engine.NewCatalog()
	if err := games.RegisterAll(catalog, scorer); err != nil {
		logrus.Fatalf("Failed to register games: %v", err)
	}
	orchestrator := engine.NewOrchestrator(catalog, logger)

	// Projections
	sessionStore := services.NewSessionStore(db.DB)
	leaderboards := services.NewLeaderboardService(db.DB, cacheService, logger)
	brainprints := services.NewBrainprintService(db.DB, logger)
	seasons := services.NewSeasonService(db.DB, logger)

	var hub *services.LiveHub
	if cfg.EnableLiveTicker {
		hub = services.NewLiveHub(logger, cfg.CorsOrigins)
	}

	// Background jobs
	if cfg.EnableBackgroundJobs {
		rollup := services.NewRollupService(db.DB, cacheService, seasons, logger, cfg.DailyRollupSchedule)
		if err := rollup.Start(); err != nil {
			logrus.Errorf("Failed to start rollup service: %v", err)
		}
		defer rollup.Stop()
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CorsOrigins))

	healthHandler := handlers.NewHealthHandler(db, cacheService, hub)
	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)

	// Setup API routes under /api/v1
	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, &api.Deps{
		DB:           db,
		Cache:        cacheService,
		Catalog:      catalog,
		Orchestrator: orchestrator,
		Scorer:       scorer,
		Leaderboards: leaderboards,
		Brainprints:  brainprints,
		Seasons:      seasons,
		Sessions:     sessionStore,
		Hub:          hub,
		Config:       cfg,
		Logger:       logger,
	})

	// WebSocket ticker at root level, not under /api/v1
	if hub != nil {
		router.GET("/ws", middleware.OptionalAuth(cfg.JWTSecret), gin.WrapH(hub))
	}

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func buildEmbeddingProvider(cfg *config.Config, db *database.DB, logger *logrus.Logger) (embedding.Provider, error) {
	switch cfg.EmbeddingProvider {
	case "file":
		return embedding.NewFileProvider(cfg.EmbeddingFilePath, cfg.DefaultLanguage, cfg.EmbeddingDimension,
			embedding.FileProviderOptions{
				MaxWords:  cfg.EmbeddingMaxWords,
				Normalize: cfg.EmbeddingNormalize,
				Logger:    logger,
			})
	case "store":
		return embedding.NewStoreProvider(db, cfg.CircuitBreakerThreshold, logger), nil
	case "mock":
		return embedding.NewMockProvider(cfg.EmbeddingDimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}
