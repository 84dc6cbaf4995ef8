package services

import (
	"context"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/verbamind/verbamind/internal/models"
	"github.com/verbamind/verbamind/internal/vectormath"
	"github.com/verbamind/verbamind/pkg/utils"
)

// Tier names for the by-rank scheme used on season leaderboards.
const (
	RankTierLegendary    = "legendary"
	RankTierMaster       = "master"
	RankTierExpert       = "expert"
	RankTierAdvanced     = "advanced"
	RankTierIntermediate = "intermediate"
	RankTierNovice       = "novice"
)

// round2 rounds to two decimals, halves away from zero.
func round2(x float64) float64 {
	return float64(vectormath.RoundHalfAwayFromZero(x*100)) / 100
}

// Rank orders entries by descending best score and assigns 1-based ranks.
// Ties keep their input order and still consume a rank each.
func Rank(entries []models.LeaderboardEntry) []models.LeaderboardEntry {
	ranked := make([]models.LeaderboardEntry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].BestScore > ranked[j].BestScore
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Percentile places a score inside a population: the share of entries not
// strictly better, as a whole percent. An empty population reads as median.
func Percentile(scores []float64, score float64) int {
	n := len(scores)
	if n == 0 {
		return 50
	}
	better := 0
	for _, s := range scores {
		if s > score {
			better++
		}
	}
	return int(vectormath.RoundHalfAwayFromZero(float64(n-better) / float64(n) * 100))
}

// TierByPercentile is the scheme for global and submit-time tiers.
func TierByPercentile(percentile int) string {
	switch {
	case percentile >= 95:
		return models.TierDiamond
	case percentile >= 85:
		return models.TierPlatinum
	case percentile >= 70:
		return models.TierGold
	case percentile >= 50:
		return models.TierSilver
	default:
		return models.TierBronze
	}
}

// TierByRank is the scheme for season leaderboards, where absolute position
// matters more than population share.
func TierByRank(rank int) string {
	switch {
	case rank == 1:
		return RankTierLegendary
	case rank <= 10:
		return RankTierMaster
	case rank <= 50:
		return RankTierExpert
	case rank <= 200:
		return RankTierAdvanced
	case rank <= 1000:
		return RankTierIntermediate
	default:
		return RankTierNovice
	}
}

// Paginate cuts a (limit, offset) window out of ranked entries.
func Paginate(entries []models.LeaderboardEntry, limit, offset int) (page []models.LeaderboardEntry, hasMore bool, total int) {
	total = len(entries)
	if offset >= total || limit <= 0 {
		return []models.LeaderboardEntry{}, false, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page = entries[offset:end]
	return page, offset+len(page) < total, total
}

// MergeSubmission folds a new score into an entry and reports whether the
// personal best improved. BestSessionID moves only on a strict improvement.
func MergeSubmission(entry *models.LeaderboardEntry, score float64, sessionID string) bool {
	improved := score > entry.BestScore

	entry.AverageScore = round2((entry.AverageScore*float64(entry.GamesPlayed) + score) / float64(entry.GamesPlayed+1))
	entry.GamesPlayed++
	if improved {
		entry.BestScore = round2(score)
		entry.BestSessionID = sessionID
	}
	return improved
}

// DailyStatsResult summarizes one day's population.
type DailyStatsResult struct {
	TotalPlayers int     `json:"total_players"`
	AvgScore     float64 `json:"avg_score"`
	Median       float64 `json:"median"`
	Top          float64 `json:"top"`
	Bottom       float64 `json:"bottom"`
}

// DailyStats computes population stats; the median is the lower median on
// even counts.
func DailyStats(scores []float64) DailyStatsResult {
	if len(scores) == 0 {
		return DailyStatsResult{}
	}
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	sum := 0.0
	for _, s := range sorted {
		sum += s
	}
	return DailyStatsResult{
		TotalPlayers: len(sorted),
		AvgScore:     round2(sum / float64(len(sorted))),
		Median:       sorted[(len(sorted)-1)/2],
		Top:          sorted[len(sorted)-1],
		Bottom:       sorted[0],
	}
}

// SubmitResult is the caller-facing outcome of a score submission.
type SubmitResult struct {
	Rank       int     `json:"rank"`
	Percentile int     `json:"percentile"`
	Tier       string  `json:"tier"`
	Improved   bool    `json:"improved"`
	BestScore  float64 `json:"best_score"`
}

// LeaderboardPage is one window of a ranked projection.
type LeaderboardPage struct {
	Entries []models.LeaderboardEntry `json:"entries"`
	Total   int64                     `json:"total"`
	HasMore bool                      `json:"has_more"`
	// The requesting user's own entry when asked for, even off-page.
	UserEntry *models.LeaderboardEntry `json:"user_entry,omitempty"`
}

// LeaderboardService maintains the all-time and daily projections.
type LeaderboardService struct {
	db     *gorm.DB
	cache  *CacheService
	logger *logrus.Logger
	clock  func() time.Time
}

func NewLeaderboardService(db *gorm.DB, cache *CacheService, logger *logrus.Logger) *LeaderboardService {
	return &LeaderboardService{db: db, cache: cache, logger: logger, clock: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (s *LeaderboardService) WithClock(clock func() time.Time) *LeaderboardService {
	s.clock = clock
	return s
}

// Submit records a session score against the all-time and daily boards and
// returns the player's new standing. Writers race on the version column;
// losers retry with fresh state.
func (s *LeaderboardService) Submit(ctx context.Context, userID, gameID, mode string, score float64, sessionID string) (*SubmitResult, error) {
	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		result, err := s.submitOnce(ctx, userID, gameID, mode, score, sessionID)
		if err == nil {
			return result, nil
		}
		if utils.AsAppError(err).Code != utils.ErrCodeStoreConflict {
			return nil, err
		}
		lastErr = err
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"game_id": gameID,
			"attempt": attempt + 1,
		}).Warn("Leaderboard version conflict, retrying")
	}
	return nil, lastErr
}

func (s *LeaderboardService) submitOnce(ctx context.Context, userID, gameID, mode string, score float64, sessionID string) (*SubmitResult, error) {
	db := s.db.WithContext(ctx)

	var entry models.LeaderboardEntry
	err := db.Where("user_id = ? AND game_id = ? AND mode = ?", userID, gameID, mode).First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		entry = models.LeaderboardEntry{UserID: userID, GameID: gameID, Mode: mode}
		if err := db.Create(&entry).Error; err != nil {
			return nil, err
		}
		// A freshly created row has zero games; MergeSubmission treats the
		// first submission as an improvement over the zero best.
		entry.BestScore = -1
	} else if err != nil {
		return nil, err
	}

	improved := MergeSubmission(&entry, score, sessionID)

	result := db.Model(&models.LeaderboardEntry{}).
		Where("id = ? AND version = ?", entry.ID, entry.Version).
		Updates(map[string]interface{}{
			"best_score":      entry.BestScore,
			"average_score":   entry.AverageScore,
			"games_played":    entry.GamesPlayed,
			"best_session_id": entry.BestSessionID,
			"version":         entry.Version + 1,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, utils.NewAppError(utils.ErrCodeStoreConflict, "leaderboard entry changed concurrently")
	}

	if err := s.recordDaily(ctx, userID, gameID, mode, score, sessionID); err != nil {
		// The all-time board is authoritative; a daily miss only costs
		// today's ranking freshness.
		s.logger.WithError(err).Warn("Daily leaderboard update failed")
	}

	var betterCount int64
	if err := db.Model(&models.LeaderboardEntry{}).
		Where("game_id = ? AND mode = ? AND best_score > ?", gameID, mode, entry.BestScore).
		Count(&betterCount).Error; err != nil {
		return nil, err
	}
	var total int64
	if err := db.Model(&models.LeaderboardEntry{}).
		Where("game_id = ? AND mode = ?", gameID, mode).
		Count(&total).Error; err != nil {
		return nil, err
	}

	percentile := 50
	if total > 0 {
		percentile = int(vectormath.RoundHalfAwayFromZero(float64(total-betterCount) / float64(total) * 100))
	}

	return &SubmitResult{
		Rank:       int(betterCount) + 1,
		Percentile: percentile,
		Tier:       TierByPercentile(percentile),
		Improved:   improved,
		BestScore:  entry.BestScore,
	}, nil
}

func (s *LeaderboardService) recordDaily(ctx context.Context, userID, gameID, mode string, score float64, sessionID string) error {
	db := s.db.WithContext(ctx)
	date := s.clock().UTC().Format("2006-01-02")

	var daily models.DailyLeaderboardEntry
	err := db.Where("user_id = ? AND game_id = ? AND mode = ? AND date = ?", userID, gameID, mode, date).
		First(&daily).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		daily = models.DailyLeaderboardEntry{
			UserID: userID, GameID: gameID, Mode: mode,
			Date: date, Score: round2(score), SessionID: sessionID,
		}
		if err := db.Create(&daily).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if score > daily.Score {
			if err := db.Model(&daily).
				Updates(map[string]interface{}{"score": round2(score), "session_id": sessionID}).Error; err != nil {
				return err
			}
		} else {
			return nil
		}
	}

	if s.cache == nil {
		return nil
	}
	key := DailyBoardKey(gameID, mode, date)
	pipe := s.cache.Client().Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: round2(score), Member: userID})
	pipe.Expire(ctx, key, 48*time.Hour)
	_, err = pipe.Exec(ctx)
	return err
}

// GetPage returns one ranked window of the all-time board. When userID is
// set the user's own standing rides along even if it falls off the page.
// Anonymous pages are served from a short-lived cache; staleness is bounded
// by the TTL, so submissions never invalidate explicitly.
func (s *LeaderboardService) GetPage(ctx context.Context, gameID, mode string, limit, offset int, userID string) (*LeaderboardPage, error) {
	db := s.db.WithContext(ctx)

	cacheable := userID == "" && s.cache != nil
	cacheKey := LeaderboardPageCacheKey(gameID, mode, limit, offset)
	if cacheable {
		var cached LeaderboardPage
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	var total int64
	if err := db.Model(&models.LeaderboardEntry{}).
		Where("game_id = ? AND mode = ?", gameID, mode).
		Count(&total).Error; err != nil {
		return nil, err
	}

	var entries []models.LeaderboardEntry
	if err := db.Where("game_id = ? AND mode = ?", gameID, mode).
		Order("best_score DESC, id ASC").
		Limit(limit).Offset(offset).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Rank = offset + i + 1
	}

	page := &LeaderboardPage{
		Entries: entries,
		Total:   total,
		HasMore: int64(offset+len(entries)) < total,
	}

	if userID != "" {
		userEntry, err := s.userStanding(ctx, gameID, mode, userID)
		if err != nil {
			return nil, err
		}
		page.UserEntry = userEntry
	}

	if cacheable {
		if err := s.cache.Set(ctx, cacheKey, page, 30*time.Second); err != nil {
			s.logger.WithError(err).Debug("Leaderboard page cache write failed")
		}
	}
	return page, nil
}

func (s *LeaderboardService) userStanding(ctx context.Context, gameID, mode, userID string) (*models.LeaderboardEntry, error) {
	db := s.db.WithContext(ctx)

	var entry models.LeaderboardEntry
	err := db.Where("game_id = ? AND mode = ? AND user_id = ?", gameID, mode, userID).First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var better int64
	if err := db.Model(&models.LeaderboardEntry{}).
		Where("game_id = ? AND mode = ? AND best_score > ?", gameID, mode, entry.BestScore).
		Count(&better).Error; err != nil {
		return nil, err
	}
	entry.Rank = int(better) + 1
	return &entry, nil
}

// GetFriendsPage is the all-time board restricted to the user and their
// friends. The friendship relation is read-only input here.
func (s *LeaderboardService) GetFriendsPage(ctx context.Context, gameID, mode, userID string, limit, offset int) (*LeaderboardPage, error) {
	db := s.db.WithContext(ctx)

	var friendIDs []string
	if err := db.Model(&models.Friendship{}).
		Where("user_id = ?", userID).
		Pluck("friend_id", &friendIDs).Error; err != nil {
		return nil, err
	}
	ids := append(friendIDs, userID)

	var entries []models.LeaderboardEntry
	if err := db.Where("game_id = ? AND mode = ? AND user_id IN ?", gameID, mode, ids).
		Order("best_score DESC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	ranked := Rank(entries)
	page, hasMore, total := Paginate(ranked, limit, offset)
	return &LeaderboardPage{Entries: page, Total: int64(total), HasMore: hasMore}, nil
}

// GetDaily returns today's ranking, preferring the redis sorted set and
// falling back to the table when the set is cold.
func (s *LeaderboardService) GetDaily(ctx context.Context, gameID, mode string, limit int) ([]models.DailyLeaderboardEntry, error) {
	date := s.clock().UTC().Format("2006-01-02")

	if s.cache != nil {
		key := DailyBoardKey(gameID, mode, date)
		members, err := s.cache.Client().ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
		if err == nil && len(members) > 0 {
			entries := make([]models.DailyLeaderboardEntry, 0, len(members))
			for _, m := range members {
				entries = append(entries, models.DailyLeaderboardEntry{
					UserID: m.Member.(string),
					GameID: gameID,
					Mode:   mode,
					Date:   date,
					Score:  m.Score,
				})
			}
			return entries, nil
		}
		if err != nil {
			s.logger.WithError(err).Warn("Daily board cache read failed, falling back to database")
		}
	}

	var entries []models.DailyLeaderboardEntry
	err := s.db.WithContext(ctx).
		Where("game_id = ? AND mode = ? AND date = ?", gameID, mode, date).
		Order("score DESC, id ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// GetDailyStats summarizes today's population for a board.
func (s *LeaderboardService) GetDailyStats(ctx context.Context, gameID, mode string) (*DailyStatsResult, error) {
	date := s.clock().UTC().Format("2006-01-02")

	var scores []float64
	if err := s.db.WithContext(ctx).Model(&models.DailyLeaderboardEntry{}).
		Where("game_id = ? AND mode = ? AND date = ?", gameID, mode, date).
		Pluck("score", &scores).Error; err != nil {
		return nil, err
	}
	stats := DailyStats(scores)
	return &stats, nil
}
