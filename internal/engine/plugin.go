package engine

import "context"

// Plugin is the contract every micro-game implements.
//
// Init must be a pure function of (seed, language, mode) and must not leak
// wall-clock into anything that affects scoring. Update is deterministic and
// returns the state unchanged for actions it does not expect. Summarize must
// set a numeric score. All three may suspend only through scorer calls, which
// is why they take a context.
type Plugin interface {
	ID() string
	Name() string
	ShortDescription() string
	SupportedModes() []Mode

	Init(ctx context.Context, gctx *Context) (*State, error)
	Update(ctx context.Context, gctx *Context, state *State, action Action) (*State, error)
	Summarize(ctx context.Context, gctx *Context, state *State) (*ResultSummary, error)

	UISchema() UISchema
}

// SupportsMode reports whether the plugin lists mode.
func SupportsMode(p Plugin, mode Mode) bool {
	for _, m := range p.SupportedModes() {
		if m == mode {
			return true
		}
	}
	return false
}
