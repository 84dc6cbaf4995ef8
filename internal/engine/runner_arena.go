package engine

import (
	"context"
)

// RunArena drives a plugin through a timed action stream. The time budget is
// logical: action timestamps are measured against Context.Now, never the wall
// clock, so identical inputs replay identically. Processing stops at the
// first action past the window (inclusive cutoff) or when the plugin is done.
func RunArena(ctx context.Context, p Plugin, gctx *Context, actions []TimedAction, cfg ModeConfig, clock Clock) (*ModeResult, error) {
	durationMs := cfg.DurationMs
	if durationMs <= 0 {
		durationMs = DefaultArenaDurationMs
	}
	cutoff := gctx.Now + durationMs

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

	applied := 0
	var lastTimestamp int64
	for _, ta := range actions {
		if ta.Timestamp > cutoff {
			break
		}
		if err := checkCancelled(ctx); err != nil {
			return nil, err
		}
		state, err = p.Update(ctx, gctx, state, ta.Action)
		if err != nil {
			return nil, err
		}
		if err := validateState(p, state); err != nil {
			return nil, err
		}
		applied++
		state.Step = applied
		lastTimestamp = ta.Timestamp
		history = append(history, state.snapshot())
		if state.Done {
			break
		}
	}

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
	// Percentile stays whatever the plugin set; ranking against the
	// population happens at submission, not here.

	actualDuration := int64(0)
	if applied > 0 {
		actualDuration = lastTimestamp - gctx.Now
	}

	return &ModeResult{
		Summary: summary,
		History: history,
		Metadata: map[string]interface{}{
			"mode":               string(ModeArena),
			"duration_ms":        durationMs,
			"actual_duration":    actualDuration,
			"action_count":       applied,
			"actions_per_second": float64(applied) / float64(durationMs) * 1000,
		},
	}, nil
}
