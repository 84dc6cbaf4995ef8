package models

import "time"

// LeaderboardEntry is the all-time projection, unique per (user, game, mode).
type LeaderboardEntry struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        string    `gorm:"uniqueIndex:idx_lb_user_game_mode;not null" json:"user_id"`
	GameID        string    `gorm:"uniqueIndex:idx_lb_user_game_mode;not null" json:"game_id"`
	Mode          string    `gorm:"uniqueIndex:idx_lb_user_game_mode;not null" json:"mode"`
	BestScore     float64   `gorm:"index" json:"best_score"`
	AverageScore  float64   `json:"average_score"`
	GamesPlayed   int       `json:"games_played"`
	BestSessionID string    `json:"best_session_id"`
	Version       int       `gorm:"default:0" json:"-"` // optimistic concurrency
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Derived at read time, never persisted
	Rank int `gorm:"-" json:"rank,omitempty"`
}

// TableName specifies the table name for GORM
func (LeaderboardEntry) TableName() string {
	return "leaderboard_entries"
}

// DailyLeaderboardEntry keeps one best score per (user, game, mode, date).
type DailyLeaderboardEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"uniqueIndex:idx_daily_user_game_mode_date;not null" json:"user_id"`
	GameID    string    `gorm:"uniqueIndex:idx_daily_user_game_mode_date;not null" json:"game_id"`
	Mode      string    `gorm:"uniqueIndex:idx_daily_user_game_mode_date;not null" json:"mode"`
	Date      string    `gorm:"uniqueIndex:idx_daily_user_game_mode_date;not null" json:"date"` // YYYY-MM-DD (UTC)
	Score     float64   `gorm:"index" json:"score"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (DailyLeaderboardEntry) TableName() string {
	return "daily_leaderboard_entries"
}

// Friendship is a directed relation supplied by an external collaborator.
// This service only ever reads it.
type Friendship struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index;not null" json:"user_id"`
	FriendID  string    `gorm:"not null" json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "friendships"
}
