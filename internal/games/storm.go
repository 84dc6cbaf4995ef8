package games

import (
	"context"

	"github.com/verbamind/verbamind/internal/engine"
	"github.com/verbamind/verbamind/internal/semantics"
	"github.com/verbamind/verbamind/internal/vectormath"
	"github.com/verbamind/verbamind/pkg/utils"
)

const stormThemeSize = 3

// Storm seeds a small theme cluster and scores tapped words by their heat
// against the cluster center. Arena mode rewards sustained output; journey
// mode rewards picking well within few steps.
type Storm struct {
	scorer *semantics.Scorer
}

func NewStorm(scorer *semantics.Scorer) *Storm {
	return &Storm{scorer: scorer}
}

// Center is derived from Theme and stays out of the wire format; it is
// recomputed when state comes back through the HTTP boundary.
type stormState struct {
	Theme     []string        `json:"theme"`
	Center    []float64       `json:"-"`
	TotalHeat float64         `json:"total_heat"`
	Taps      int             `json:"taps"`
	Seen      map[string]bool `json:"seen,omitempty"`
}

func (g *Storm) ID() string   { return "storm" }
func (g *Storm) Name() string { return "Storm" }
func (g *Storm) ShortDescription() string {
	return "Tap words that belong to the theme"
}

func (g *Storm) SupportedModes() []engine.Mode {
	return []engine.Mode{engine.ModeArena, engine.ModeJourney, engine.ModeEndurance}
}

func (g *Storm) UISchema() engine.UISchema {
	return engine.UISchema{
		Layout:    "word-grid",
		Input:     "tap",
		Feedback:  "heat-glow",
		Animation: "ripple",
	}
}

func (g *Storm) Init(ctx context.Context, gctx *engine.Context) (*engine.State, error) {
	rng := engine.SeedRand(gctx.Seed)
	theme := pickWords(rng, gctx.Language, stormThemeSize)

	center, err := g.scorer.ClusterCenter(ctx, theme, gctx.Language)
	if err != nil {
		return nil, err
	}
	return &engine.State{Data: &stormState{
		Theme:  theme,
		Center: center,
		Seen:   make(map[string]bool),
	}}, nil
}

func (g *Storm) state(ctx context.Context, gctx *engine.Context, s *engine.State) (*stormState, error) {
	data, ok := s.Data.(*stormState)
	if !ok {
		data = &stormState{}
		if err := engine.DecodeState(s.Data, data); err != nil {
			return nil, err
		}
		s.Data = data
	}
	if data.Seen == nil {
		data.Seen = make(map[string]bool)
	}
	if data.Center == nil && len(data.Theme) > 0 {
		center, err := g.scorer.ClusterCenter(ctx, data.Theme, gctx.Language)
		if err != nil {
			return nil, err
		}
		data.Center = center
	}
	return data, nil
}

func (g *Storm) Update(ctx context.Context, gctx *engine.Context, state *engine.State, action engine.Action) (*engine.State, error) {
	var words []string
	switch action.Type {
	case engine.ActionTapMany:
		if len(action.WordIDs) == 0 {
			return nil, utils.NewAppError(utils.ErrCodeBadAction, "tap_many requires word_ids")
		}
		words = action.WordIDs
	default:
		word, ok, err := actionWord(action)
		if err != nil {
			return nil, err
		}
		if !ok {
			return state, nil
		}
		words = []string{word}
	}

	data, err := g.state(ctx, gctx, state)
	if err != nil {
		return nil, err
	}

	next := &stormState{
		Theme:     data.Theme,
		Center:    data.Center,
		TotalHeat: data.TotalHeat,
		Taps:      data.Taps,
		Seen:      make(map[string]bool, len(data.Seen)+len(words)),
	}
	for w := range data.Seen {
		next.Seen[w] = true
	}

	for _, word := range words {
		heat, err := g.scorer.ClusterHeat(ctx, word, data.Center, gctx.Language)
		if err != nil {
			return nil, err
		}
		next.TotalHeat += heat.Heat
		next.Taps++
		next.Seen[word] = true
	}
	return &engine.State{Step: state.Step, Data: next}, nil
}

func (g *Storm) Summarize(ctx context.Context, gctx *engine.Context, state *engine.State) (*engine.ResultSummary, error) {
	data, err := g.state(ctx, gctx, state)
	if err != nil {
		return nil, err
	}

	meanHeat := 0.0
	if data.Taps > 0 {
		meanHeat = data.TotalHeat / float64(data.Taps)
	}
	score := vectormath.Clamp(meanHeat*100, 0, 100)

	return &engine.ResultSummary{
		Score: score,
		SkillSignals: map[string]float64{
			"semantic_flexibility": score,
			"divergent_thinking":   vectormath.Clamp(float64(len(data.Seen))*20, 0, 100),
		},
		Metadata: map[string]interface{}{
			"theme":          data.Theme,
			"tap_count":      data.Taps,
			"distinct_words": len(data.Seen),
		},
	}, nil
}
