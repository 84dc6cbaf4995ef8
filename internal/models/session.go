package models

import (
	"time"

	"gorm.io/datatypes"
)

// GameSession is a persisted result summary for one completed session.
// Downstream projections (brainprint, leaderboards, seasons) are updated
// idempotently keyed by SessionID.
type GameSession struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SessionID  string    `gorm:"uniqueIndex;not null" json:"session_id"`
	UserID     string    `gorm:"index" json:"user_id"`
	GameID     string    `gorm:"index;not null" json:"game_id"`
	Mode       string    `gorm:"not null" json:"mode"` // "oneshot", "journey", "arena", "endurance"
	Language   string    `gorm:"default:en" json:"language"`
	Seed       string    `json:"seed"`
	Score      float64   `json:"score"`
	DurationMs int64     `json:"duration_ms"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	Percentile *float64  `json:"percentile,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	// Skill signals and engine metadata stored as JSONB
	SkillSignals SkillSignals      `gorm:"type:jsonb" json:"skill_signals"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`
}

// TableName specifies the table name for GORM
func (GameSession) TableName() string {
	return "game_sessions"
}
