package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/verbamind/verbamind/internal/models"
)

// RollupService runs the scheduled maintenance: rebuilding the daily board
// sorted sets from the table of record and sweeping expired seasons.
type RollupService struct {
	db       *gorm.DB
	cache    *CacheService
	seasons  *SeasonService
	logger   *logrus.Logger
	cron     *cron.Cron
	schedule string
	mu       sync.Mutex
	running  bool
}

func NewRollupService(db *gorm.DB, cache *CacheService, seasons *SeasonService, logger *logrus.Logger, schedule string) *RollupService {
	return &RollupService{
		db:       db,
		cache:    cache,
		seasons:  seasons,
		logger:   logger,
		cron:     cron.New(),
		schedule: schedule,
	}
}

// Start schedules the daily rollup and kicks off one immediate run so a
// restarted process does not serve stale sorted sets until the next tick.
func (s *RollupService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("rollup service is already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runOnce); err != nil {
		return fmt.Errorf("failed to schedule rollup: %w", err)
	}

	s.cron.Start()
	s.running = true

	go s.runOnce()

	s.logger.Info("Rollup service started")
	return nil
}

// Stop halts the scheduler and waits for an in-flight run.
func (s *RollupService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.running = false
	s.logger.Info("Rollup service stopped")
}

func (s *RollupService) runOnce() {
	ctx := context.Background()

	if err := s.RebuildDailyBoards(ctx); err != nil {
		s.logger.Errorf("Daily board rebuild failed: %v", err)
	}
	if s.seasons != nil {
		ended, err := s.seasons.SweepExpired(ctx)
		if err != nil {
			s.logger.Errorf("Season sweep failed: %v", err)
		} else if ended > 0 {
			s.logger.Infof("Ended %d expired seasons", ended)
		}
	}
}

// RebuildDailyBoards re-derives today's redis sorted sets from the daily
// table. The table is authoritative; redis only accelerates reads.
func (s *RollupService) RebuildDailyBoards(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	date := time.Now().UTC().Format("2006-01-02")

	var entries []models.DailyLeaderboardEntry
	if err := s.db.WithContext(ctx).
		Where("date = ?", date).
		Find(&entries).Error; err != nil {
		return err
	}

	boards := make(map[string][]redis.Z)
	for _, entry := range entries {
		key := DailyBoardKey(entry.GameID, entry.Mode, entry.Date)
		boards[key] = append(boards[key], redis.Z{Score: entry.Score, Member: entry.UserID})
	}

	client := s.cache.Client()
	for key, members := range boards {
		pipe := client.Pipeline()
		pipe.Del(ctx, key)
		pipe.ZAdd(ctx, key, members...)
		pipe.Expire(ctx, key, 48*time.Hour)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to rebuild %s: %w", key, err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"date":   date,
		"boards": len(boards),
	}).Info("Daily boards rebuilt")
	return nil
}
