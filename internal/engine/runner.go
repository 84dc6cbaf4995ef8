package engine

import (
	"context"
	"math"

	"github.com/verbamind/verbamind/pkg/utils"
)

// checkCancelled converts context cancellation into the CANCELLED error kind.
// Runners call it before every plugin invocation; already-applied state is
// simply discarded by the caller.
func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return utils.NewAppError(utils.ErrCodeCancelled, "session cancelled", err.Error())
	}
	return nil
}

// validateSummary enforces the plugin contract on summaries: present, with a
// usable numeric score.
func validateSummary(p Plugin, summary *ResultSummary) error {
	if summary == nil {
		return utils.NewAppError(utils.ErrCodePluginViolation, "plugin returned nil summary", p.ID())
	}
	if math.IsNaN(summary.Score) || math.IsInf(summary.Score, 0) || summary.Score < 0 {
		return utils.NewAppError(utils.ErrCodePluginViolation, "plugin returned invalid score", p.ID())
	}
	return nil
}

// validateState enforces the plugin contract on returned states.
func validateState(p Plugin, state *State) error {
	if state == nil {
		return utils.NewAppError(utils.ErrCodePluginViolation, "plugin returned nil state", p.ID())
	}
	return nil
}
