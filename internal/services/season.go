package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/verbamind/verbamind/internal/models"
	"github.com/verbamind/verbamind/pkg/utils"
)

// SeasonService owns the seasonal ranking: active-season resolution, score
// accrual, tier assignment and milestone claims.
type SeasonService struct {
	db     *gorm.DB
	logger *logrus.Logger
	clock  func() time.Time
}

func NewSeasonService(db *gorm.DB, logger *logrus.Logger) *SeasonService {
	return &SeasonService{db: db, logger: logger, clock: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (s *SeasonService) WithClock(clock func() time.Time) *SeasonService {
	s.clock = clock
	return s
}

// ActiveSeason resolves the season covering now. Zero matches is a plain
// not-found; more than one is a data invariant violation the operator has
// to fix, never something to silently pick from.
func (s *SeasonService) ActiveSeason(ctx context.Context) (*models.Season, error) {
	now := s.clock().UTC()

	var seasons []models.Season
	err := s.db.WithContext(ctx).
		Where("status = ? AND start_date <= ? AND end_date >= ?", models.SeasonStatusActive, now, now).
		Find(&seasons).Error
	if err != nil {
		return nil, err
	}
	switch len(seasons) {
	case 0:
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "no active season")
	case 1:
		return &seasons[0], nil
	default:
		return nil, utils.NewAppError(utils.ErrCodeInvariantViolation, "multiple active seasons")
	}
}

// Get loads one season by id.
func (s *SeasonService) Get(ctx context.Context, seasonID uint) (*models.Season, error) {
	var season models.Season
	err := s.db.WithContext(ctx).First(&season, seasonID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "season not found")
	}
	if err != nil {
		return nil, err
	}
	return &season, nil
}

// List returns all seasons, newest first.
func (s *SeasonService) List(ctx context.Context) ([]models.Season, error) {
	var seasons []models.Season
	err := s.db.WithContext(ctx).Order("number DESC").Find(&seasons).Error
	return seasons, err
}

// Progress loads a user's progress row for a season, creating nothing. A
// user who never played the season gets a zero-value row back.
func (s *SeasonService) Progress(ctx context.Context, seasonID uint, userID string) (*models.UserSeasonProgress, error) {
	var progress models.UserSeasonProgress
	err := s.db.WithContext(ctx).
		Where("season_id = ? AND user_id = ?", seasonID, userID).
		First(&progress).Error
	if err == gorm.ErrRecordNotFound {
		return &models.UserSeasonProgress{
			UserID:   userID,
			SeasonID: seasonID,
			Tier:     models.TierNovice,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// ApplyScore accrues one session's score into the user's season standing
// and re-derives the tier, provided the game belongs to the season.
func (s *SeasonService) ApplyScore(ctx context.Context, season *models.Season, userID, gameID string, score float64) (*models.UserSeasonProgress, error) {
	if !seasonHasGame(season, gameID) {
		return nil, nil
	}
	db := s.db.WithContext(ctx)

	var progress models.UserSeasonProgress
	err := db.Where("season_id = ? AND user_id = ?", season.ID, userID).First(&progress).Error
	if err == gorm.ErrRecordNotFound {
		progress = models.UserSeasonProgress{
			UserID:   userID,
			SeasonID: season.ID,
			Tier:     models.TierNovice,
		}
		if err := db.Create(&progress).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	progress.TotalScore += score
	progress.GamesPlayed++
	progress.Tier = TierForScore(season.Config.TierThresholds, progress.TotalScore)

	if err := db.Model(&progress).Updates(map[string]interface{}{
		"total_score":  progress.TotalScore,
		"games_played": progress.GamesPlayed,
		"tier":         progress.Tier,
	}).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

// TierForScore derives the season tier from the configured thresholds.
// Missing thresholds leave the user at novice.
func TierForScore(thresholds map[string]int, totalScore float64) string {
	// Highest first so the first satisfied threshold wins.
	order := []string{
		models.TierDiamond, models.TierPlatinum, models.TierGold,
		models.TierSilver, models.TierBronze,
	}
	for _, tier := range order {
		threshold, ok := thresholds[tier]
		if ok && totalScore >= float64(threshold) {
			return tier
		}
	}
	return models.TierNovice
}

// ClaimResult is the outcome of a successful milestone claim.
type ClaimResult struct {
	MilestoneID string `json:"milestone_id"`
	Reward      string `json:"reward"`
}

// ClaimMilestone validates and records one milestone claim. The checks run
// in a fixed order so a double claim of an unknown id reports the claim,
// not the unknown id.
func (s *SeasonService) ClaimMilestone(ctx context.Context, seasonID uint, userID, milestoneID string) (*ClaimResult, error) {
	season, err := s.Get(ctx, seasonID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var progress models.UserSeasonProgress
	if err := db.Where("season_id = ? AND user_id = ?", seasonID, userID).First(&progress).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewAppError(utils.ErrCodeNotAchieved, "no progress recorded for this season")
		}
		return nil, err
	}

	if progress.HasMilestone(milestoneID) {
		return nil, utils.NewAppError(utils.ErrCodeAlreadyClaimed, "milestone already claimed", milestoneID)
	}
	milestone, ok := season.Config.Milestone(milestoneID)
	if !ok {
		return nil, utils.NewAppError(utils.ErrCodeUnknownMilestone, "milestone not part of this season", milestoneID)
	}
	if progress.TotalScore < float64(milestone.Requirement) {
		return nil, utils.NewAppError(utils.ErrCodeNotAchieved, "milestone requirement not met", milestoneID)
	}

	completed := append(progress.MilestonesCompleted, milestoneID)
	if err := db.Model(&progress).Updates(map[string]interface{}{
		"milestones_completed": completed,
		"updated_at":           s.clock().UTC(),
	}).Error; err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":      userID,
		"season_id":    seasonID,
		"milestone_id": milestoneID,
	}).Info("Milestone claimed")

	return &ClaimResult{MilestoneID: milestoneID, Reward: milestone.Reward}, nil
}

// SeasonStanding is one row of a season leaderboard, tiered by rank.
type SeasonStanding struct {
	Rank       int     `json:"rank"`
	UserID     string  `json:"user_id"`
	TotalScore float64 `json:"total_score"`
	Games      int     `json:"games_played"`
	RankTier   string  `json:"rank_tier"`
}

// Leaderboard ranks all participants of a season by total score.
func (s *SeasonService) Leaderboard(ctx context.Context, seasonID uint, limit, offset int) ([]SeasonStanding, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.UserSeasonProgress{}).
		Where("season_id = ?", seasonID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.UserSeasonProgress
	if err := db.Where("season_id = ?", seasonID).
		Order("total_score DESC, id ASC").
		Limit(limit).Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	standings := make([]SeasonStanding, len(rows))
	for i, row := range rows {
		rank := offset + i + 1
		standings[i] = SeasonStanding{
			Rank:       rank,
			UserID:     row.UserID,
			TotalScore: row.TotalScore,
			Games:      row.GamesPlayed,
			RankTier:   TierByRank(rank),
		}
	}
	return standings, total, nil
}

// SweepExpired flips active seasons whose end date passed to ended. Called
// from the daily rollup job.
func (s *SeasonService) SweepExpired(ctx context.Context) (int64, error) {
	now := s.clock().UTC()
	result := s.db.WithContext(ctx).Model(&models.Season{}).
		Where("status = ? AND end_date < ?", models.SeasonStatusActive, now).
		Update("status", models.SeasonStatusEnded)
	return result.RowsAffected, result.Error
}

func seasonHasGame(season *models.Season, gameID string) bool {
	if len(season.Config.Games) == 0 {
		return true
	}
	for _, g := range season.Config.Games {
		if g == gameID {
			return true
		}
	}
	return false
}
