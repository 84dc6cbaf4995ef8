// Package engine hosts the game plugin contract, the catalog, the four mode
// runners and the session orchestrator. The engine treats plugin state
// payloads as opaque; only the plugin touches its own Data shape.
package engine

import (
	"encoding/json"
	"time"

	"github.com/verbamind/verbamind/pkg/utils"
)

// Mode selects a runner strategy.
type Mode string

const (
	ModeOneShot   Mode = "oneshot"
	ModeJourney   Mode = "journey"
	ModeArena     Mode = "arena"
	ModeEndurance Mode = "endurance"
)

// ValidMode reports whether m names a known runner.
func ValidMode(m Mode) bool {
	switch m {
	case ModeOneShot, ModeJourney, ModeArena, ModeEndurance:
		return true
	}
	return false
}

// Context is the immutable per-session environment. Seed is the only
// non-environment input to deterministic generation.
type Context struct {
	UserID   string `json:"user_id,omitempty"`
	Language string `json:"language"`
	Seed     string `json:"seed"`
	Mode     Mode   `json:"mode"`
	Now      int64  `json:"now"` // epoch ms, logical session origin
}

// State is the mutable session state. The runner owns Step and Done; Data
// belongs to the plugin. Once Done is set no further Update is invoked.
type State struct {
	Step int         `json:"step"`
	Done bool        `json:"done"`
	Data interface{} `json:"data"`
}

// snapshot returns a copy for histories. Data is shared; plugins return fresh
// payloads from Update rather than mutating old ones.
func (s *State) snapshot() State {
	return State{Step: s.Step, Done: s.Done, Data: s.Data}
}

// DecodeState restores a plugin's typed state payload. State that crossed
// the HTTP boundary arrives with Data as a generic JSON map; a round trip
// through the plugin's own tags brings the typed struct back.
func DecodeState(data interface{}, dest interface{}) error {
	if data == nil {
		return utils.NewAppError(utils.ErrCodeMissingField, "state payload is missing")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeValidation, "state payload is not serializable", err.Error())
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return utils.NewAppError(utils.ErrCodeValidation, "state payload does not match game", err.Error())
	}
	return nil
}

// ActionType tags the PlayerAction variant.
type ActionType string

const (
	ActionTap        ActionType = "tap"
	ActionTapMany    ActionType = "tap_many"
	ActionSubmitWord ActionType = "submit_word"
	ActionTimer      ActionType = "timer"
	ActionNoop       ActionType = "noop"
	ActionCustom     ActionType = "custom"
)

// Action is one player input. Only the fields of the tagged case are set.
type Action struct {
	Type    ActionType             `json:"type"`
	WordID  string                 `json:"word_id,omitempty"`
	WordIDs []string               `json:"word_ids,omitempty"`
	Text    string                 `json:"text,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// TimedAction attaches an epoch-ms timestamp for arena mode. Timestamps are
// logical: they are compared against Context.Now, never the wall clock.
type TimedAction struct {
	Action    Action `json:"action"`
	Timestamp int64  `json:"timestamp"`
}

// ResultSummary is what a finished session yields. Score is 0-100 by
// convention; skill signal values are clamped to [0,100] before any
// aggregation.
type ResultSummary struct {
	Score        float64                `json:"score"`
	DurationMs   int64                  `json:"duration_ms"`
	Accuracy     *float64               `json:"accuracy,omitempty"`
	Percentile   *float64               `json:"percentile,omitempty"`
	SkillSignals map[string]float64     `json:"skill_signals,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// UISchema is a declarative rendering hint consumed by the external UI. The
// engine never interprets it.
type UISchema struct {
	Layout    string `json:"layout"`
	Input     string `json:"input"`
	Feedback  string `json:"feedback"`
	Animation string `json:"animation,omitempty"`
	CardStyle string `json:"card_style,omitempty"`
}

// ModeConfig carries per-runner settings. Zero values select defaults.
type ModeConfig struct {
	// Journey
	MaxSteps int `json:"max_steps,omitempty"`
	// Arena
	DurationMs int64 `json:"duration_ms,omitempty"`
	// Endurance: ordered games, each with its own actions
	Games []EnduranceGame `json:"-"`
}

// EnduranceGame pairs a plugin with the actions for its journey leg.
type EnduranceGame struct {
	Plugin  Plugin
	Actions []Action
}

// ModeResult packages a finished run.
type ModeResult struct {
	SessionID string                 `json:"session_id,omitempty"`
	Summary   *ResultSummary         `json:"summary"`
	History   []State                `json:"history,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Clock supplies wall time, injectable for tests. Wall time only affects the
// advisory DurationMs, never scores.
type Clock func() time.Time

// Runner defaults.
const (
	DefaultJourneyMaxSteps = 5
	DefaultArenaDurationMs = 60000
	EnduranceMinGames      = 3
	EnduranceMaxGames      = 5
)
