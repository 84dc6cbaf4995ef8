package engine

import (
	"context"

	"github.com/verbamind/verbamind/pkg/utils"
)

// RunOneShot drives a plugin through a single action. Exactly one action is
// required; the runner forces Done after the update regardless of the plugin.
func RunOneShot(ctx context.Context, p Plugin, gctx *Context, actions []Action, clock Clock) (*ModeResult, error) {
	if len(actions) != 1 {
		return nil, utils.NewAppError(utils.ErrCodeOneShotOneAction,
			"one-shot mode requires exactly one action")
	}

	t0 := clock()

	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	state, err := p.Init(ctx, gctx)
	if err != nil {
		return nil, err
	}
	if err := validateState(p, state); err != nil {
		return nil, err
	}
	initial := state.snapshot()

	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	state, err = p.Update(ctx, gctx, state, actions[0])
	if err != nil {
		return nil, err
	}
	if err := validateState(p, state); err != nil {
		return nil, err
	}
	state.Done = true

	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	summary, err := p.Summarize(ctx, gctx, state)
	if err != nil {
		return nil, err
	}
	if err := validateSummary(p, summary); err != nil {
		return nil, err
	}
	summary.DurationMs = clock().Sub(t0).Milliseconds()

	return &ModeResult{
		Summary: summary,
		History: []State{initial, state.snapshot()},
		Metadata: map[string]interface{}{
			"mode": string(ModeOneShot),
		},
	}, nil
}
