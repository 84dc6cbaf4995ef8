package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/verbamind/verbamind/internal/api/middleware"
	"github.com/verbamind/verbamind/internal/services"
	"github.com/verbamind/verbamind/pkg/utils"
)

type SeasonHandler struct {
	svc             *services.SeasonService
	hub             *services.LiveHub
	defaultPageSize int
}

func NewSeasonHandler(svc *services.SeasonService, hub *services.LiveHub, defaultPageSize int) *SeasonHandler {
	return &SeasonHandler{svc: svc, hub: hub, defaultPageSize: defaultPageSize}
}

func seasonID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid season id", c.Param("id"))
		return 0, false
	}
	return uint(id), true
}

// GetActive returns the season covering now.
func (h *SeasonHandler) GetActive(c *gin.Context) {
	season, err := h.svc.ActiveSeason(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	utils.SendSuccess(c, season)
}

// List returns all seasons, newest first.
func (h *SeasonHandler) List(c *gin.Context) {
	seasons, err := h.svc.List(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	utils.SendSuccess(c, seasons)
}

// Get returns one season by id.
func (h *SeasonHandler) Get(c *gin.Context) {
	id, ok := seasonID(c)
	if !ok {
		return
	}
	season, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	utils.SendSuccess(c, season)
}

// GetProgress returns one user's standing in a season.
func (h *SeasonHandler) GetProgress(c *gin.Context) {
	id, ok := seasonID(c)
	if !ok {
		return
	}
	progress, err := h.svc.Progress(c.Request.Context(), id, c.Param("user"))
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	utils.SendSuccess(c, progress)
}

// GetLeaderboard ranks season participants by total score.
func (h *SeasonHandler) GetLeaderboard(c *gin.Context) {
	id, ok := seasonID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.defaultPageSize)))
	if limit <= 0 || limit > 200 {
		limit = h.defaultPageSize
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	standings, total, err := h.svc.Leaderboard(c.Request.Context(), id, limit, offset)
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	utils.SendSuccessWithMeta(c, standings, &utils.Meta{
		Limit:   limit,
		Offset:  offset,
		Total:   total,
		HasMore: int64(offset+len(standings)) < total,
	})
}

type claimRequest struct {
	UserID      string `json:"user_id"`
	MilestoneID string `json:"milestone_id" binding:"required"`
}

// ClaimMilestone records a milestone claim for the caller.
func (h *SeasonHandler) ClaimMilestone(c *gin.Context) {
	id, ok := seasonID(c)
	if !ok {
		return
	}

	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	userID := middleware.UserID(c)
	if userID == "" {
		userID = req.UserID
	}
	if userID == "" {
		utils.SendValidationError(c, "Claim requires a user", "Authenticate or pass user_id")
		return
	}

	claim, err := h.svc.ClaimMilestone(c.Request.Context(), id, userID, req.MilestoneID)
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(services.LiveEvent{
			Type:    "milestone_claimed",
			UserID:  userID,
			Payload: claim,
		})
	}
	utils.SendSuccess(c, claim)
}
