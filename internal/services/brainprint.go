package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/verbamind/verbamind/internal/models"
	"github.com/verbamind/verbamind/internal/vectormath"
	"github.com/verbamind/verbamind/pkg/utils"
)

const (
	// MaxConfidence caps the confidence score; the curve never reaches it
	// before roughly 1800 games.
	MaxConfidence = 95

	// emaAlphaCap bounds how fast a single session can move a profile.
	emaAlphaCap = 0.3

	// skillBaseline is assumed for a skill never seen before an
	// incremental update touches it.
	skillBaseline = 50.0

	conflictRetries = 3
)

// skillCategories maps every known skill to its report category. Unknown
// signals still aggregate; they just stay out of the distribution report.
var skillCategories = map[string]string{
	"semantic_precision":    "semantic",
	"vocabulary_depth":      "semantic",
	"conceptual_bridging":   "semantic",
	"semantic_flexibility":  "semantic",
	"verbal_fluency":        "semantic",
	"association_speed":     "semantic",
	"divergent_thinking":    "creative",
	"originality":           "creative",
	"imagination":           "creative",
	"metaphor_construction": "creative",
	"idea_combination":      "creative",
	"working_memory":        "executive",
	"pattern_inference":     "executive",
	"attention_control":     "executive",
	"processing_speed":      "executive",
	"planning":              "executive",
	"cognitive_flexibility": "executive",
	"balance":               "affective",
	"persistence":           "affective",
	"risk_calibration":      "affective",
	"composure":             "affective",
	"curiosity":             "affective",
}

// Categories in report order.
var skillCategoryNames = []string{"semantic", "creative", "executive", "affective"}

// growthGameMap suggests the game that trains each skill.
var growthGameMap = map[string]string{
	"semantic_precision":   "echo",
	"vocabulary_depth":     "echo",
	"conceptual_bridging":  "bridge",
	"balance":              "bridge",
	"semantic_flexibility": "storm",
	"divergent_thinking":   "storm",
	"pattern_inference":    "chain",
	"working_memory":       "chain",
}

// reservedSignalKeys never aggregate as skills.
var reservedSignalKeys = map[string]bool{
	"last_updated":     true,
	"total_games":      true,
	"confidence_score": true,
}

func usableSignal(key string, value float64) bool {
	return !reservedSignalKeys[key] && !math.IsNaN(value) && !math.IsInf(value, 0)
}

// Confidence maps a game count onto a 0-95 logarithmic confidence score.
func Confidence(totalGames int) float64 {
	if totalGames <= 0 {
		return 0
	}
	raw := vectormath.RoundHalfAwayFromZero(30 + 20*math.Log10(float64(totalGames)))
	return vectormath.Clamp(float64(raw), 0, MaxConfidence)
}

// BatchAggregate rebuilds a profile from a full session history: the
// arithmetic mean per skill, rounded to whole points.
func BatchAggregate(histories []models.SkillSignals) models.SkillSignals {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, signals := range histories {
		for skill, value := range signals {
			if !usableSignal(skill, value) {
				continue
			}
			sums[skill] += vectormath.Clamp(value, 0, 100)
			counts[skill]++
		}
	}

	out := make(models.SkillSignals, len(sums))
	for skill, sum := range sums {
		out[skill] = float64(vectormath.RoundHalfAwayFromZero(sum / float64(counts[skill])))
	}
	return out
}

// IncrementalUpdate folds one session's signals into an existing profile
// using an exponential moving average. totalGames counts the new session.
// Skills absent from the profile start from the baseline before updating.
func IncrementalUpdate(skills models.SkillSignals, totalGames int, signals models.SkillSignals) models.SkillSignals {
	alpha := emaAlphaCap
	if totalGames > 0 {
		if inv := 1 / math.Sqrt(float64(totalGames)); inv < alpha {
			alpha = inv
		}
	}

	out := make(models.SkillSignals, len(skills)+len(signals))
	for skill, value := range skills {
		out[skill] = value
	}
	for skill, value := range signals {
		if !usableSignal(skill, value) {
			continue
		}
		current, ok := out[skill]
		if !ok {
			current = skillBaseline
		}
		value = vectormath.Clamp(value, 0, 100)
		out[skill] = vectormath.Clamp(current*(1-alpha)+value*alpha, 0, 100)
	}
	return out
}

// SkillValue is one named skill with its profile value.
type SkillValue struct {
	Skill string  `json:"skill"`
	Value float64 `json:"value"`
}

// TopSkills returns the k strongest skills, ties broken by name.
func TopSkills(skills models.SkillSignals, k int) []SkillValue {
	ranked := sortedSkills(skills)
	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}

func sortedSkills(skills models.SkillSignals) []SkillValue {
	ranked := make([]SkillValue, 0, len(skills))
	for skill, value := range skills {
		ranked = append(ranked, SkillValue{Skill: skill, Value: value})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Value != ranked[j].Value {
			return ranked[i].Value > ranked[j].Value
		}
		return ranked[i].Skill < ranked[j].Skill
	})
	return ranked
}

// CategoryDistribution averages the present members of each category.
// Categories with no measured member report 0.
func CategoryDistribution(skills models.SkillSignals) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for skill, value := range skills {
		category, ok := skillCategories[skill]
		if !ok {
			continue
		}
		sums[category] += value
		counts[category]++
	}

	out := make(map[string]float64, len(skillCategoryNames))
	for _, category := range skillCategoryNames {
		if counts[category] > 0 {
			out[category] = sums[category] / float64(counts[category])
		} else {
			out[category] = 0
		}
	}
	return out
}

// Insights is the coaching view of a profile.
type Insights struct {
	Strengths        []SkillValue `json:"strengths"`
	GrowthAreas      []SkillValue `json:"growth_areas"`
	RecommendedGames []string     `json:"recommended_games"`
}

// BuildInsights derives strengths, growth areas and up to three game
// recommendations targeting the growth areas.
func BuildInsights(skills models.SkillSignals) Insights {
	ranked := sortedSkills(skills)

	insights := Insights{
		Strengths:        make([]SkillValue, 0, 3),
		GrowthAreas:      make([]SkillValue, 0, 3),
		RecommendedGames: make([]string, 0, 3),
	}
	for i := 0; i < 3 && i < len(ranked); i++ {
		insights.Strengths = append(insights.Strengths, ranked[i])
	}
	for i := len(ranked) - 1; i >= 0 && len(insights.GrowthAreas) < 3; i-- {
		insights.GrowthAreas = append(insights.GrowthAreas, ranked[i])
	}

	seen := make(map[string]bool)
	for _, area := range insights.GrowthAreas {
		game, ok := growthGameMap[area.Skill]
		if !ok || seen[game] {
			continue
		}
		seen[game] = true
		insights.RecommendedGames = append(insights.RecommendedGames, game)
	}
	return insights
}

// BrainprintService persists profiles and applies session signals to them.
type BrainprintService struct {
	db     *gorm.DB
	logger *logrus.Logger
	clock  func() time.Time
}

func NewBrainprintService(db *gorm.DB, logger *logrus.Logger) *BrainprintService {
	return &BrainprintService{db: db, logger: logger, clock: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (s *BrainprintService) WithClock(clock func() time.Time) *BrainprintService {
	s.clock = clock
	return s
}

// Get loads a user's profile. A user with no recorded sessions gets an
// empty profile rather than a not-found error.
func (s *BrainprintService) Get(ctx context.Context, userID string) (*models.UserBrainprint, error) {
	var bp models.UserBrainprint
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&bp).Error
	if err == gorm.ErrRecordNotFound {
		return &models.UserBrainprint{UserID: userID, Skills: models.SkillSignals{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &bp, nil
}

// ApplySession folds one session's signals into the stored profile.
// Concurrent writers race on the version column; losers retry with fresh
// state up to three times before surfacing the conflict.
func (s *BrainprintService) ApplySession(ctx context.Context, userID string, signals models.SkillSignals) (*models.UserBrainprint, error) {
	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		bp, err := s.applyOnce(ctx, userID, signals)
		if err == nil {
			return bp, nil
		}
		appErr := utils.AsAppError(err)
		if appErr.Code != utils.ErrCodeStoreConflict {
			return nil, err
		}
		lastErr = err
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"attempt": attempt + 1,
		}).Warn("Brainprint version conflict, retrying")
	}
	return nil, lastErr
}

func (s *BrainprintService) applyOnce(ctx context.Context, userID string, signals models.SkillSignals) (*models.UserBrainprint, error) {
	db := s.db.WithContext(ctx)

	var bp models.UserBrainprint
	err := db.Where("user_id = ?", userID).First(&bp).Error
	if err == gorm.ErrRecordNotFound {
		bp = models.UserBrainprint{UserID: userID, Skills: models.SkillSignals{}}
		if err := db.Create(&bp).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	totalGames := bp.TotalGames + 1
	updated := IncrementalUpdate(bp.Skills, totalGames, signals)

	result := db.Model(&models.UserBrainprint{}).
		Where("id = ? AND version = ?", bp.ID, bp.Version).
		Updates(map[string]interface{}{
			"skills":           updated,
			"total_games":      totalGames,
			"confidence_score": Confidence(totalGames),
			"version":          bp.Version + 1,
			"last_updated":     s.clock().UTC(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, utils.NewAppError(utils.ErrCodeStoreConflict, "brainprint changed concurrently")
	}

	bp.Skills = updated
	bp.TotalGames = totalGames
	bp.ConfidenceScore = Confidence(totalGames)
	bp.Version++
	return &bp, nil
}

// Rebuild recomputes a profile from the full session history, replacing
// whatever incremental state accumulated.
func (s *BrainprintService) Rebuild(ctx context.Context, userID string) (*models.UserBrainprint, error) {
	db := s.db.WithContext(ctx)

	var sessions []models.GameSession
	if err := db.Where("user_id = ?", userID).Order("created_at asc").Find(&sessions).Error; err != nil {
		return nil, err
	}

	histories := make([]models.SkillSignals, 0, len(sessions))
	for _, session := range sessions {
		if len(session.SkillSignals) > 0 {
			histories = append(histories, session.SkillSignals)
		}
	}

	bp := models.UserBrainprint{
		UserID:          userID,
		Skills:          BatchAggregate(histories),
		TotalGames:      len(sessions),
		ConfidenceScore: Confidence(len(sessions)),
		LastUpdated:     s.clock().UTC(),
	}

	var existing models.UserBrainprint
	err := db.Where("user_id = ?", userID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		if err := db.Create(&bp).Error; err != nil {
			return nil, err
		}
		return &bp, nil
	}
	if err != nil {
		return nil, err
	}

	if err := db.Model(&existing).Updates(map[string]interface{}{
		"skills":           bp.Skills,
		"total_games":      bp.TotalGames,
		"confidence_score": bp.ConfidenceScore,
		"version":          existing.Version + 1,
		"last_updated":     bp.LastUpdated,
	}).Error; err != nil {
		return nil, err
	}
	bp.ID = existing.ID
	bp.Version = existing.Version + 1
	return &bp, nil
}
