package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/verbamind/verbamind/internal/api/handlers"
	"github.com/verbamind/verbamind/internal/api/middleware"
	"github.com/verbamind/verbamind/internal/engine"
	"github.com/verbamind/verbamind/internal/semantics"
	"github.com/verbamind/verbamind/internal/services"
	"github.com/verbamind/verbamind/pkg/config"
	"github.com/verbamind/verbamind/pkg/database"
)

// Deps bundles the shared collaborators the routes need.
type Deps struct {
	DB           *database.DB
	Cache        *services.CacheService
	Catalog      *engine.Catalog
	Orchestrator *engine.Orchestrator
	Scorer       *semantics.Scorer
	Leaderboards *services.LeaderboardService
	Brainprints  *services.BrainprintService
	Seasons      *services.SeasonService
	Sessions     *services.SessionStore
	Hub          *services.LiveHub
	Config       *config.Config
	Logger       *logrus.Logger
}

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, deps *Deps) {
	sessionHandler := handlers.NewSessionHandler(
		deps.Orchestrator, deps.Catalog, deps.Sessions,
		deps.Leaderboards, deps.Brainprints, deps.Seasons,
		deps.Hub, deps.Logger, deps.Config,
	)
	semanticsHandler := handlers.NewSemanticsHandler(deps.Scorer, deps.Config.DefaultLanguage)
	leaderboardHandler := handlers.NewLeaderboardHandler(deps.Leaderboards, deps.Config.LeaderboardPageSize)
	seasonHandler := handlers.NewSeasonHandler(deps.Seasons, deps.Hub, deps.Config.LeaderboardPageSize)
	brainprintHandler := handlers.NewBrainprintHandler(deps.Brainprints)
	gamesHandler := handlers.NewGamesHandler(deps.Catalog)

	// Catalog
	group.GET("/games", gamesHandler.List)
	group.GET("/games/:id", gamesHandler.Get)

	// Sessions (optional auth: anonymous play works, only authenticated
	// results feed the projections)
	sessionGroup := group.Group("/session")
	sessionGroup.Use(middleware.OptionalAuth(deps.Config.JWTSecret))
	{
		sessionGroup.POST("/init", sessionHandler.Init)
		sessionGroup.POST("/update", sessionHandler.Update)
		sessionGroup.POST("/summary", sessionHandler.Summarize)
		sessionGroup.POST("/run", sessionHandler.Run)
	}

	// Semantics (rate limited; the scorer fans out to the embedding
	// provider on cache misses)
	semanticsGroup := group.Group("/semantics")
	semanticsGroup.Use(middleware.OptionalAuth(deps.Config.JWTSecret))
	semanticsGroup.Use(middleware.RateLimit(deps.Config.SemanticsRateLimit))
	{
		semanticsGroup.POST("/similarity", semanticsHandler.Similarity)
		semanticsGroup.POST("/rarity", semanticsHandler.Rarity)
		semanticsGroup.POST("/midpoint", semanticsHandler.Midpoint)
		semanticsGroup.POST("/clusterHeat", semanticsHandler.ClusterHeat)
		semanticsGroup.POST("/neighbors", semanticsHandler.Neighbors)
	}

	// Leaderboards
	boardGroup := group.Group("/leaderboards")
	boardGroup.Use(middleware.OptionalAuth(deps.Config.JWTSecret))
	{
		boardGroup.GET("/:game/:mode", leaderboardHandler.GetBoard)
		boardGroup.GET("/:game/:mode/daily", leaderboardHandler.GetDaily)
	}
	group.POST("/leaderboards/:game/:mode/submit",
		middleware.AuthRequired(deps.Config.JWTSecret), leaderboardHandler.Submit)

	// Seasons
	group.GET("/seasons/active", seasonHandler.GetActive)
	group.GET("/seasons/list", seasonHandler.List)
	group.GET("/seasons/:id", seasonHandler.Get)
	group.GET("/seasons/:id/progress/:user", seasonHandler.GetProgress)
	group.GET("/seasons/:id/leaderboard", seasonHandler.GetLeaderboard)
	group.POST("/seasons/:id/milestones/claim",
		middleware.AuthRequired(deps.Config.JWTSecret), seasonHandler.ClaimMilestone)

	// Brainprints
	group.GET("/brainprint/:user", brainprintHandler.Get)
	group.GET("/brainprint/:user/insights", brainprintHandler.GetInsights)
	group.POST("/brainprint/:user/rebuild",
		middleware.AuthRequired(deps.Config.JWTSecret), brainprintHandler.Rebuild)
}
