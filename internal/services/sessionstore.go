package services

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/verbamind/verbamind/internal/models"
	"github.com/verbamind/verbamind/pkg/utils"
)

// SessionStore persists finished session summaries. Put is idempotent on
// session id so downstream projections can key their updates off a single
// insert.
type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Put inserts a summary once. Replays of the same session id are ignored
// and reported so callers can skip re-projecting.
func (s *SessionStore) Put(ctx context.Context, session *models.GameSession) (inserted bool, err error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoNothing: true,
		}).
		Create(session)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Get loads one summary by session id.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*models.GameSession, error) {
	var session models.GameSession
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if err == gorm.ErrRecordNotFound {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "session not found", sessionID)
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// History returns a user's sessions oldest first, optionally capped.
func (s *SessionStore) History(ctx context.Context, userID string, limit int) ([]models.GameSession, error) {
	query := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var sessions []models.GameSession
	err := query.Find(&sessions).Error
	return sessions, err
}
