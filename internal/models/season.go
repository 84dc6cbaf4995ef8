package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

const (
	SeasonStatusUpcoming = "upcoming"
	SeasonStatusActive   = "active"
	SeasonStatusEnded    = "ended"
)

// Season tiers ordered lowest to highest.
const (
	TierNovice   = "novice"
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
	TierDiamond  = "diamond"
)

// Milestone is a season reward gate: reaching Requirement total score unlocks
// the reward.
type Milestone struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Requirement int    `json:"requirement"`
	Reward      string `json:"reward"`
}

// SeasonConfig is the JSONB configuration payload of a season.
type SeasonConfig struct {
	Games          []string       `json:"games"`
	Milestones     []Milestone    `json:"milestones"`
	TierThresholds map[string]int `json:"tier_thresholds"`
}

// Scan implements the sql.Scanner interface for JSONB
func (sc *SeasonConfig) Scan(value interface{}) error {
	if value == nil {
		*sc = SeasonConfig{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, sc)
	case string:
		return json.Unmarshal([]byte(v), sc)
	default:
		return fmt.Errorf("cannot scan %T into SeasonConfig", value)
	}
}

// Value implements the driver.Valuer interface for JSONB
func (sc SeasonConfig) Value() (driver.Value, error) {
	return json.Marshal(sc)
}

// Milestone returns the configured milestone with the given id, if any.
func (sc SeasonConfig) Milestone(id string) (Milestone, bool) {
	for _, m := range sc.Milestones {
		if m.ID == id {
			return m, true
		}
	}
	return Milestone{}, false
}

// Season is one ranked period. At most one season may be active for any
// moment inside its date range.
type Season struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Number    int          `gorm:"uniqueIndex;not null" json:"number"`
	Name      string       `gorm:"not null" json:"name"`
	StartDate time.Time    `gorm:"not null" json:"start_date"`
	EndDate   time.Time    `gorm:"not null" json:"end_date"`
	Status    string       `gorm:"default:upcoming" json:"status"`
	Config    SeasonConfig `gorm:"type:jsonb" json:"config"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Season) TableName() string {
	return "seasons"
}

// UserSeasonProgress tracks one user's standing inside one season.
type UserSeasonProgress struct {
	ID                  uint                        `gorm:"primaryKey" json:"id"`
	UserID              string                      `gorm:"uniqueIndex:idx_user_season;not null" json:"user_id"`
	SeasonID            uint                        `gorm:"uniqueIndex:idx_user_season;not null" json:"season_id"`
	TotalScore          float64                     `json:"total_score"`
	GamesPlayed         int                         `json:"games_played"`
	Tier                string                      `gorm:"default:novice" json:"tier"`
	MilestonesCompleted datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"milestones_completed"`
	BadgesEarned        datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"badges_earned"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (UserSeasonProgress) TableName() string {
	return "user_season_progress"
}

// HasMilestone reports whether the milestone id was already claimed.
func (p *UserSeasonProgress) HasMilestone(id string) bool {
	for _, m := range p.MilestonesCompleted {
		if m == id {
			return true
		}
	}
	return false
}
