package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/verbamind/verbamind/internal/api/middleware"
	"github.com/verbamind/verbamind/internal/engine"
	"github.com/verbamind/verbamind/internal/services"
	"github.com/verbamind/verbamind/pkg/utils"
)

type LeaderboardHandler struct {
	svc             *services.LeaderboardService
	defaultPageSize int
}

func NewLeaderboardHandler(svc *services.LeaderboardService, defaultPageSize int) *LeaderboardHandler {
	return &LeaderboardHandler{svc: svc, defaultPageSize: defaultPageSize}
}

func (h *LeaderboardHandler) pageParams(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.defaultPageSize)))
	if limit <= 0 || limit > 200 {
		limit = h.defaultPageSize
	}
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func boardParams(c *gin.Context) (gameID, mode string, ok bool) {
	gameID = c.Param("game")
	mode = c.Param("mode")
	if !engine.ValidMode(engine.Mode(mode)) {
		utils.SendValidationError(c, "Unknown mode", mode)
		return "", "", false
	}
	return gameID, mode, true
}

// GetBoard returns one window of the all-time ranking. friends=true
// restricts it to the caller and their friends.
func (h *LeaderboardHandler) GetBoard(c *gin.Context) {
	gameID, mode, ok := boardParams(c)
	if !ok {
		return
	}
	limit, offset := h.pageParams(c)

	userID := middleware.UserID(c)
	if userID == "" {
		userID = c.Query("user_id")
	}

	var page *services.LeaderboardPage
	var err error
	if c.Query("friends") == "true" {
		if userID == "" {
			utils.SendValidationError(c, "Friends view requires a user", "Authenticate or pass user_id")
			return
		}
		page, err = h.svc.GetFriendsPage(c.Request.Context(), gameID, mode, userID, limit, offset)
	} else {
		page, err = h.svc.GetPage(c.Request.Context(), gameID, mode, limit, offset, userID)
	}
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}

	utils.SendSuccessWithMeta(c, page, &utils.Meta{
		Limit:   limit,
		Offset:  offset,
		Total:   page.Total,
		HasMore: page.HasMore,
	})
}

// GetDaily returns today's ranking plus population stats.
func (h *LeaderboardHandler) GetDaily(c *gin.Context) {
	gameID, mode, ok := boardParams(c)
	if !ok {
		return
	}
	limit, _ := h.pageParams(c)

	entries, err := h.svc.GetDaily(c.Request.Context(), gameID, mode, limit)
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	stats, err := h.svc.GetDailyStats(c.Request.Context(), gameID, mode)
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	utils.SendSuccess(c, gin.H{"entries": entries, "stats": stats})
}

type submitRequest struct {
	UserID    string  `json:"user_id"`
	Score     float64 `json:"score" binding:"required"`
	SessionID string  `json:"session_id" binding:"required"`
}

// Submit records a score directly. The session runner does this
// automatically; this endpoint serves imported or offline results.
func (h *LeaderboardHandler) Submit(c *gin.Context) {
	gameID, mode, ok := boardParams(c)
	if !ok {
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	userID := middleware.UserID(c)
	if userID == "" {
		userID = req.UserID
	}
	if userID == "" {
		utils.SendValidationError(c, "Submission requires a user", "Authenticate or pass user_id")
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), userID, gameID, mode, req.Score, req.SessionID)
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	utils.SendSuccess(c, result)
}
