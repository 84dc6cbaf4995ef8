package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/verbamind/verbamind/internal/services"
	"github.com/verbamind/verbamind/pkg/utils"
)

type BrainprintHandler struct {
	svc *services.BrainprintService
}

func NewBrainprintHandler(svc *services.BrainprintService) *BrainprintHandler {
	return &BrainprintHandler{svc: svc}
}

// Get returns a user's profile with derived top skills and category
// distribution.
func (h *BrainprintHandler) Get(c *gin.Context) {
	bp, err := h.svc.Get(c.Request.Context(), c.Param("user"))
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	utils.SendSuccess(c, gin.H{
		"brainprint":   bp,
		"top_skills":   services.TopSkills(bp.Skills, 5),
		"distribution": services.CategoryDistribution(bp.Skills),
	})
}

// GetInsights returns the coaching view: strengths, growth areas and game
// recommendations.
func (h *BrainprintHandler) GetInsights(c *gin.Context) {
	bp, err := h.svc.Get(c.Request.Context(), c.Param("user"))
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	utils.SendSuccess(c, services.BuildInsights(bp.Skills))
}

// Rebuild recomputes the profile from the full session history.
func (h *BrainprintHandler) Rebuild(c *gin.Context) {
	bp, err := h.svc.Rebuild(c.Request.Context(), c.Param("user"))
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	utils.SendSuccess(c, bp)
}
