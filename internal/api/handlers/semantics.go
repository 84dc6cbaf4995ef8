package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/verbamind/verbamind/internal/embedding"
	"github.com/verbamind/verbamind/internal/semantics"
	"github.com/verbamind/verbamind/pkg/utils"
)

// SemanticsHandler exposes the scorer operations directly, mainly for
// client-side previews and tooling.
type SemanticsHandler struct {
	scorer          *semantics.Scorer
	defaultLanguage string
}

func NewSemanticsHandler(scorer *semantics.Scorer, defaultLanguage string) *SemanticsHandler {
	return &SemanticsHandler{scorer: scorer, defaultLanguage: defaultLanguage}
}

func (h *SemanticsHandler) language(requested string) string {
	if requested != "" {
		return requested
	}
	return h.defaultLanguage
}

type similarityRequest struct {
	Word      string    `json:"word" binding:"required"`
	OtherWord string    `json:"other_word"`
	Vector    []float64 `json:"vector"`
	Language  string    `json:"language"`
}

// Similarity scores a word against another word or a raw vector.
func (h *SemanticsHandler) Similarity(c *gin.Context) {
	var req similarityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	language := h.language(req.Language)
	var score float64
	var err error
	switch {
	case req.OtherWord != "":
		score, err = h.scorer.Similarity(c.Request.Context(), req.Word, req.OtherWord, language)
	case len(req.Vector) > 0:
		score, err = h.scorer.SimilarityToVector(c.Request.Context(), req.Word, req.Vector, language)
	default:
		utils.SendValidationError(c, "Missing comparison target", "Provide other_word or vector")
		return
	}
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	utils.SendSuccess(c, gin.H{"score": score})
}

type rarityRequest struct {
	Word     string `json:"word" binding:"required"`
	Pattern  string `json:"pattern"`
	Language string `json:"language"`
}

// Rarity scores how uncommon a word is, with an optional V/C pattern bonus.
func (h *SemanticsHandler) Rarity(c *gin.Context) {
	var req rarityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	result, err := h.scorer.Rarity(c.Request.Context(), req.Word, req.Pattern, h.language(req.Language))
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	utils.SendSuccess(c, gin.H{"rarity": result.Rarity, "pattern_match": result.PatternMatch})
}

type midpointRequest struct {
	Word     string `json:"word" binding:"required"`
	AnchorA  string `json:"anchor_a" binding:"required"`
	AnchorB  string `json:"anchor_b" binding:"required"`
	Language string `json:"language"`
}

// Midpoint scores how well a word bridges two anchors.
func (h *SemanticsHandler) Midpoint(c *gin.Context) {
	var req midpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	result, err := h.scorer.MidpointScore(c.Request.Context(), req.Word, req.AnchorA, req.AnchorB, h.language(req.Language))
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	utils.SendSuccess(c, gin.H{
		"score":      result.Score,
		"distance_a": result.DistanceA,
		"distance_b": result.DistanceB,
	})
}

type neighborsRequest struct {
	Word     string    `json:"word"`
	Vector   []float64 `json:"vector"`
	K        int       `json:"k"`
	Language string    `json:"language"`
}

// Neighbors returns the nearest catalog words to a word or a raw vector.
// Only similarity-capable providers serve this endpoint.
func (h *SemanticsHandler) Neighbors(c *gin.Context) {
	var req neighborsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	k := req.K
	if k <= 0 {
		k = 10
	}
	if k > 50 {
		k = 50
	}

	language := h.language(req.Language)
	var (
		words []embedding.SimilarWord
		err   error
	)
	switch {
	case req.Word != "":
		words, err = h.scorer.Neighbors(c.Request.Context(), req.Word, language, k)
	case len(req.Vector) > 0:
		words, err = h.scorer.FindSimilarWords(c.Request.Context(), req.Vector, language, k)
	default:
		utils.SendValidationError(c, "Missing search origin", "Provide word or vector")
		return
	}
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	utils.SendSuccess(c, gin.H{"neighbors": words})
}

type clusterHeatRequest struct {
	Word         string   `json:"word" binding:"required"`
	ClusterWords []string `json:"cluster_words" binding:"required"`
	Language     string   `json:"language"`
}

// ClusterHeat scores a word against the centroid of a word cluster.
func (h *SemanticsHandler) ClusterHeat(c *gin.Context) {
	var req clusterHeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	language := h.language(req.Language)
	center, err := h.scorer.ClusterCenter(c.Request.Context(), req.ClusterWords, language)
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	heat, err := h.scorer.ClusterHeat(c.Request.Context(), req.Word, center, language)
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	utils.SendSuccess(c, gin.H{"heat": heat.Heat, "distance": heat.Distance})
}
