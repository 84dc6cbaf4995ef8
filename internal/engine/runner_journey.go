package engine

import (
	"context"
)

// RunJourney drives a plugin through a bounded multi-step session. Actions
// beyond MaxSteps are ignored; the plugin may finish early by setting Done.
func RunJourney(ctx context.Context, p Plugin, gctx *Context, actions []Action, cfg ModeConfig, clock Clock) (*ModeResult, error) {
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultJourneyMaxSteps
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

	history := []State{state.snapshot()}

	steps := len(actions)
	if steps > maxSteps {
		steps = maxSteps
	}

	applied := 0
	for i := 0; i < steps; i++ {
		if err := checkCancelled(ctx); err != nil {
			return nil, err
		}
		state, err = p.Update(ctx, gctx, state, actions[i])
		if err != nil {
			return nil, err
		}
		if err := validateState(p, state); err != nil {
			return nil, err
		}
		state.Step = i + 1
		applied++
		history = append(history, state.snapshot())
		if state.Done {
			break
		}
	}

	// Consuming every allowed step ends the session even if the plugin
	// never declared completion.
	if !state.Done {
		state.Done = true
	}

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
	if summary.Metadata == nil {
		summary.Metadata = make(map[string]interface{})
	}
	summary.Metadata["attempts"] = applied

	return &ModeResult{
		Summary: summary,
		History: history,
		Metadata: map[string]interface{}{
			"mode":         string(ModeJourney),
			"actual_steps": applied,
			"max_steps":    maxSteps,
		},
	}, nil
}
