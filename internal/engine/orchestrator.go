package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/verbamind/verbamind/pkg/utils"
)

// Orchestrator is the single entry point for running sessions. It resolves
// plugins, validates mode compatibility and action shape, dispatches to the
// right runner and stamps a session id on the result.
type Orchestrator struct {
	catalog *Catalog
	logger  *logrus.Logger
	clock   Clock
}

func NewOrchestrator(catalog *Catalog, logger *logrus.Logger) *Orchestrator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Orchestrator{
		catalog: catalog,
		logger:  logger,
		clock:   time.Now,
	}
}

// WithClock replaces the wall clock, for tests.
func (o *Orchestrator) WithClock(clock Clock) *Orchestrator {
	o.clock = clock
	return o
}

// SessionRequest describes one run. Actions is used by one-shot and journey,
// TimedActions by arena, Config.Games by endurance.
type SessionRequest struct {
	GameID       string
	Mode         Mode
	Context      *Context
	Actions      []Action
	TimedActions []TimedAction
	Config       ModeConfig
}

// Run executes the request to completion and returns the packaged result.
// Runner errors come back wrapped with game and mode context; the underlying
// error kind is preserved.
func (o *Orchestrator) Run(ctx context.Context, req *SessionRequest) (*ModeResult, error) {
	if req.Context == nil {
		return nil, utils.NewAppError(utils.ErrCodeMissingField, "session context is required")
	}
	if !ValidMode(req.Mode) {
		return nil, utils.NewAppError(utils.ErrCodeValidation, "unknown mode", string(req.Mode))
	}
	req.Context.Mode = req.Mode
	if req.Context.Now == 0 {
		req.Context.Now = o.clock().UnixMilli()
	}

	var result *ModeResult
	var err error

	if req.Mode == ModeEndurance {
		for _, leg := range req.Config.Games {
			if leg.Plugin != nil && !SupportsMode(leg.Plugin, ModeEndurance) {
				return nil, utils.NewAppError(utils.ErrCodeModeUnsupported,
					"game does not support endurance", leg.Plugin.ID())
			}
		}
		result, err = RunEndurance(ctx, req.Context, req.Config, o.clock)
		if err != nil {
			return nil, o.wrap(err, "endurance", string(req.Mode))
		}
	} else {
		plugin, perr := o.catalog.Get(req.GameID)
		if perr != nil {
			return nil, perr
		}
		if !SupportsMode(plugin, req.Mode) {
			return nil, utils.NewAppError(utils.ErrCodeModeUnsupported,
				fmt.Sprintf("game %s does not support mode %s", req.GameID, req.Mode))
		}

		switch req.Mode {
		case ModeOneShot:
			result, err = RunOneShot(ctx, plugin, req.Context, req.Actions, o.clock)
		case ModeJourney:
			result, err = RunJourney(ctx, plugin, req.Context, req.Actions, req.Config, o.clock)
		case ModeArena:
			result, err = RunArena(ctx, plugin, req.Context, req.TimedActions, req.Config, o.clock)
		}
		if err != nil {
			return nil, o.wrap(err, req.GameID, string(req.Mode))
		}
	}

	result.SessionID = uuid.New().String()
	o.logger.WithFields(logrus.Fields{
		"session_id": result.SessionID,
		"game_id":    req.GameID,
		"mode":       req.Mode,
		"score":      result.Summary.Score,
	}).Debug("Session completed")

	return result, nil
}

// InitSession creates the initial state for the stepwise HTTP flow.
func (o *Orchestrator) InitSession(ctx context.Context, gameID string, gctx *Context) (*State, error) {
	plugin, err := o.catalog.Get(gameID)
	if err != nil {
		return nil, err
	}
	if !ValidMode(gctx.Mode) {
		return nil, utils.NewAppError(utils.ErrCodeValidation, "unknown mode", string(gctx.Mode))
	}
	if !SupportsMode(plugin, gctx.Mode) {
		return nil, utils.NewAppError(utils.ErrCodeModeUnsupported,
			fmt.Sprintf("game %s does not support mode %s", gameID, gctx.Mode))
	}
	if gctx.Now == 0 {
		gctx.Now = o.clock().UnixMilli()
	}
	state, err := plugin.Init(ctx, gctx)
	if err != nil {
		return nil, o.wrap(err, gameID, string(gctx.Mode))
	}
	if err := validateState(plugin, state); err != nil {
		return nil, err
	}
	return state, nil
}

// UpdateSession applies one action for the stepwise HTTP flow. Finished
// states are returned unchanged.
func (o *Orchestrator) UpdateSession(ctx context.Context, gameID string, gctx *Context, state *State, action Action) (*State, error) {
	plugin, err := o.catalog.Get(gameID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, utils.NewAppError(utils.ErrCodeMissingField, "state is required")
	}
	if state.Done {
		return state, nil
	}
	next, err := plugin.Update(ctx, gctx, state, action)
	if err != nil {
		return nil, o.wrap(err, gameID, string(gctx.Mode))
	}
	if err := validateState(plugin, next); err != nil {
		return nil, err
	}
	return next, nil
}

// SummarizeSession finishes a stepwise session.
func (o *Orchestrator) SummarizeSession(ctx context.Context, gameID string, gctx *Context, state *State) (*ResultSummary, error) {
	plugin, err := o.catalog.Get(gameID)
	if err != nil {
		return nil, err
	}
	summary, err := plugin.Summarize(ctx, gctx, state)
	if err != nil {
		return nil, o.wrap(err, gameID, string(gctx.Mode))
	}
	if err := validateSummary(plugin, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (o *Orchestrator) wrap(err error, gameID, mode string) error {
	appErr := utils.AsAppError(err)
	return appErr.Wrap(fmt.Sprintf("game %s (%s)", gameID, mode))
}
