package models

import "time"

// UserBrainprint is the aggregated cognitive profile: one 0-100 value per
// skill plus aggregation metadata.
type UserBrainprint struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	UserID          string       `gorm:"uniqueIndex;not null" json:"user_id"`
	Skills          SkillSignals `gorm:"type:jsonb" json:"skills"`
	TotalGames      int          `json:"total_games"`
	ConfidenceScore float64      `json:"confidence_score"` // 0-95
	Version         int          `gorm:"default:0" json:"-"`
	LastUpdated     time.Time    `json:"last_updated"`
	CreatedAt       time.Time    `json:"created_at"`
}

// TableName specifies the table name for GORM
func (UserBrainprint) TableName() string {
	return "user_brainprints"
}
