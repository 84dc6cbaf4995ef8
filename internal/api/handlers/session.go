package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/verbamind/verbamind/internal/api/middleware"
	"github.com/verbamind/verbamind/internal/engine"
	"github.com/verbamind/verbamind/internal/models"
	"github.com/verbamind/verbamind/internal/services"
	"github.com/verbamind/verbamind/pkg/config"
	"github.com/verbamind/verbamind/pkg/utils"
)

// SessionHandler drives game sessions and fans finished results out to the
// projections (session store, leaderboards, brainprint, season).
type SessionHandler struct {
	orchestrator *engine.Orchestrator
	catalog      *engine.Catalog
	sessions     *services.SessionStore
	leaderboards *services.LeaderboardService
	brainprints  *services.BrainprintService
	seasons      *services.SeasonService
	hub          *services.LiveHub
	logger       *logrus.Logger

	defaultLanguage string
	journeyMaxSteps int
	arenaDurationMs int64
	deadline        time.Duration
}

func NewSessionHandler(
	orchestrator *engine.Orchestrator,
	catalog *engine.Catalog,
	sessions *services.SessionStore,
	leaderboards *services.LeaderboardService,
	brainprints *services.BrainprintService,
	seasons *services.SeasonService,
	hub *services.LiveHub,
	logger *logrus.Logger,
	cfg *config.Config,
) *SessionHandler {
	return &SessionHandler{
		orchestrator:    orchestrator,
		catalog:         catalog,
		sessions:        sessions,
		leaderboards:    leaderboards,
		brainprints:     brainprints,
		seasons:         seasons,
		hub:             hub,
		logger:          logger,
		defaultLanguage: cfg.DefaultLanguage,
		journeyMaxSteps: cfg.JourneyMaxSteps,
		arenaDurationMs: cfg.ArenaDurationMs,
		deadline:        cfg.SessionDeadline,
	}
}

// requestContext bounds session work by the configured deadline so a slow
// embedding provider cannot hold a request open indefinitely.
func (h *SessionHandler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.deadline <= 0 {
		return c.Request.Context(), func() {}
	}
	return context.WithTimeout(c.Request.Context(), h.deadline)
}

type sessionContextRequest struct {
	GameID   string `json:"game_id" binding:"required"`
	Mode     string `json:"mode" binding:"required"`
	Seed     string `json:"seed"`
	Language string `json:"language"`
	UserID   string `json:"user_id"`
}

func (h *SessionHandler) gameContext(c *gin.Context, req *sessionContextRequest) *engine.Context {
	userID := middleware.UserID(c)
	if userID == "" {
		userID = req.UserID
	}
	language := req.Language
	if language == "" {
		language = h.defaultLanguage
	}
	seed := req.Seed
	if seed == "" {
		seed = uuid.New().String()
	}
	return &engine.Context{
		UserID:   userID,
		Language: language,
		Seed:     seed,
		Mode:     engine.Mode(req.Mode),
	}
}

// Init starts a stepwise session and returns the initial state.
func (h *SessionHandler) Init(c *gin.Context) {
	var req sessionContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	gctx := h.gameContext(c, &req)
	ctx, cancel := h.requestContext(c)
	defer cancel()
	state, err := h.orchestrator.InitSession(ctx, req.GameID, gctx)
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	utils.SendSuccess(c, gin.H{"state": state, "context": gctx})
}

type sessionUpdateRequest struct {
	sessionContextRequest
	State  *engine.State `json:"state" binding:"required"`
	Action engine.Action `json:"action" binding:"required"`
}

// Update applies one action to a stepwise session.
func (h *SessionHandler) Update(c *gin.Context) {
	var req sessionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	gctx := h.gameContext(c, &req.sessionContextRequest)
	ctx, cancel := h.requestContext(c)
	defer cancel()
	state, err := h.orchestrator.UpdateSession(ctx, req.GameID, gctx, req.State, req.Action)
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	utils.SendSuccess(c, gin.H{"state": state})
}

type sessionSummaryRequest struct {
	sessionContextRequest
	State *engine.State `json:"state" binding:"required"`
}

// Summarize finishes a stepwise session, persists the summary and feeds the
// projections, mirroring what Run does for single-call sessions.
func (h *SessionHandler) Summarize(c *gin.Context) {
	var req sessionSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	gctx := h.gameContext(c, &req.sessionContextRequest)
	ctx, cancel := h.requestContext(c)
	defer cancel()
	summary, err := h.orchestrator.SummarizeSession(ctx, req.GameID, gctx, req.State)
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}

	result := &engine.ModeResult{
		SessionID: uuid.New().String(),
		Summary:   summary,
		Metadata:  summary.Metadata,
	}

	var submitted *services.SubmitResult
	if gctx.UserID != "" {
		submitted = h.project(ctx, gctx, req.GameID, result)
	}

	utils.SendSuccess(c, gin.H{
		"session_id": result.SessionID,
		"summary":    summary,
		"submission": submitted,
	})
}

type enduranceLegRequest struct {
	GameID  string          `json:"game_id" binding:"required"`
	Actions []engine.Action `json:"actions"`
}

type sessionRunRequest struct {
	sessionContextRequest
	Actions      []engine.Action       `json:"actions"`
	TimedActions []engine.TimedAction  `json:"timed_actions"`
	MaxSteps     int                   `json:"max_steps"`
	DurationMs   int64                 `json:"duration_ms"`
	Games        []enduranceLegRequest `json:"games"`
}

// Run executes a full session in one call, persists the summary and feeds
// the downstream projections.
func (h *SessionHandler) Run(c *gin.Context) {
	var req sessionRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	gctx := h.gameContext(c, &req.sessionContextRequest)
	runReq := &engine.SessionRequest{
		GameID:       req.GameID,
		Mode:         engine.Mode(req.Mode),
		Context:      gctx,
		Actions:      req.Actions,
		TimedActions: req.TimedActions,
		Config: engine.ModeConfig{
			MaxSteps:   req.MaxSteps,
			DurationMs: req.DurationMs,
		},
	}
	if runReq.Config.MaxSteps <= 0 {
		runReq.Config.MaxSteps = h.journeyMaxSteps
	}
	if runReq.Config.DurationMs <= 0 {
		runReq.Config.DurationMs = h.arenaDurationMs
	}
	for _, leg := range req.Games {
		plugin, err := h.catalog.Get(leg.GameID)
		if err != nil {
			utils.SendAppError(c, utils.AsAppError(err))
			return
		}
		runReq.Config.Games = append(runReq.Config.Games, engine.EnduranceGame{
			Plugin:  plugin,
			Actions: leg.Actions,
		})
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()
	result, err := h.orchestrator.Run(ctx, runReq)
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}

	var submitted *services.SubmitResult
	if gctx.UserID != "" {
		submitted = h.project(ctx, gctx, req.GameID, result)
	}

	utils.SendSuccess(c, gin.H{
		"result":     result,
		"submission": submitted,
	})
}

// project persists the summary and updates the downstream projections. The
// session insert is the idempotency gate: a replayed session id skips all
// projections.
func (h *SessionHandler) project(ctx context.Context, gctx *engine.Context, gameID string, result *engine.ModeResult) *services.SubmitResult {
	session := &models.GameSession{
		SessionID:    result.SessionID,
		UserID:       gctx.UserID,
		GameID:       gameID,
		Mode:         string(gctx.Mode),
		Language:     gctx.Language,
		Seed:         gctx.Seed,
		Score:        result.Summary.Score,
		DurationMs:   result.Summary.DurationMs,
		Accuracy:     result.Summary.Accuracy,
		Percentile:   result.Summary.Percentile,
		SkillSignals: models.SkillSignals(result.Summary.SkillSignals),
		Metadata:     datatypes.JSONMap(result.Metadata),
	}
	inserted, err := h.sessions.Put(ctx, session)
	if err != nil {
		h.logger.WithError(err).Error("Failed to persist session")
		return nil
	}
	if !inserted {
		return nil
	}

	submitted, err := h.leaderboards.Submit(ctx, gctx.UserID, gameID, string(gctx.Mode), result.Summary.Score, result.SessionID)
	if err != nil {
		h.logger.WithError(err).Error("Leaderboard submission failed")
	}

	if _, err := h.brainprints.ApplySession(ctx, gctx.UserID, session.SkillSignals); err != nil {
		h.logger.WithError(err).Error("Brainprint update failed")
	}

	if season, err := h.seasons.ActiveSeason(ctx); err == nil {
		if _, err := h.seasons.ApplyScore(ctx, season, gctx.UserID, gameID, result.Summary.Score); err != nil {
			h.logger.WithError(err).Error("Season score update failed")
		}
	}

	if h.hub != nil && submitted != nil {
		h.hub.Broadcast(services.LiveEvent{
			Type:   "score_submitted",
			GameID: gameID,
			Mode:   string(gctx.Mode),
			UserID: gctx.UserID,
			Payload: gin.H{
				"score":    result.Summary.Score,
				"rank":     submitted.Rank,
				"improved": submitted.Improved,
			},
		})
	}
	return submitted
}
