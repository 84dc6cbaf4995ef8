package games

import (
	"context"

	"github.com/verbamind/verbamind/internal/engine"
	"github.com/verbamind/verbamind/internal/semantics"
	"github.com/verbamind/verbamind/internal/vectormath"
)

// Echo asks the player to guess words close to a hidden seeded target. In
// one-shot mode a single guess decides the score; in arena mode the best
// guess inside the window counts.
type Echo struct {
	scorer *semantics.Scorer
}

func NewEcho(scorer *semantics.Scorer) *Echo {
	return &Echo{scorer: scorer}
}

type echoState struct {
	Target    string  `json:"target"`
	Best      float64 `json:"best"`
	BestWord  string  `json:"best_word,omitempty"`
	Attempts  int     `json:"attempts"`
	RaritySum float64 `json:"rarity_sum"`
}

func (g *Echo) ID() string   { return "echo" }
func (g *Echo) Name() string { return "Echo" }
func (g *Echo) ShortDescription() string {
	return "Guess the word closest to a hidden target"
}

func (g *Echo) SupportedModes() []engine.Mode {
	return []engine.Mode{engine.ModeOneShot, engine.ModeArena, engine.ModeEndurance}
}

func (g *Echo) UISchema() engine.UISchema {
	return engine.UISchema{
		Layout:    "single-card",
		Input:     "text",
		Feedback:  "proximity-meter",
		Animation: "pulse",
	}
}

func (g *Echo) Init(ctx context.Context, gctx *engine.Context) (*engine.State, error) {
	rng := engine.SeedRand(gctx.Seed)
	target := pickWords(rng, gctx.Language, 1)[0]
	return &engine.State{Data: &echoState{Target: target}}, nil
}

// state returns the typed payload, restoring it after a JSON round trip
// through the stepwise HTTP flow.
func (g *Echo) state(s *engine.State) (*echoState, error) {
	if data, ok := s.Data.(*echoState); ok {
		return data, nil
	}
	data := &echoState{}
	if err := engine.DecodeState(s.Data, data); err != nil {
		return nil, err
	}
	s.Data = data
	return data, nil
}

func (g *Echo) Update(ctx context.Context, gctx *engine.Context, state *engine.State, action engine.Action) (*engine.State, error) {
	word, ok, err := actionWord(action)
	if err != nil {
		return nil, err
	}
	if !ok {
		return state, nil
	}
	data, err := g.state(state)
	if err != nil {
		return nil, err
	}

	sim, err := g.scorer.Similarity(ctx, word, data.Target, gctx.Language)
	if err != nil {
		return nil, err
	}
	rarity, err := g.scorer.Rarity(ctx, word, "", gctx.Language)
	if err != nil {
		return nil, err
	}

	next := &echoState{
		Target:    data.Target,
		Best:      data.Best,
		BestWord:  data.BestWord,
		Attempts:  data.Attempts + 1,
		RaritySum: data.RaritySum + float64(rarity.Rarity),
	}
	if sim > next.Best {
		next.Best = sim
		next.BestWord = word
	}
	return &engine.State{Step: state.Step, Data: next}, nil
}

func (g *Echo) Summarize(ctx context.Context, gctx *engine.Context, state *engine.State) (*engine.ResultSummary, error) {
	data, err := g.state(state)
	if err != nil {
		return nil, err
	}

	score := data.Best * 100
	accuracy := data.Best
	depth := 0.0
	if data.Attempts > 0 {
		depth = data.RaritySum / float64(data.Attempts)
	}

	return &engine.ResultSummary{
		Score:    score,
		Accuracy: &accuracy,
		SkillSignals: map[string]float64{
			"semantic_precision": vectormath.Clamp(score, 0, 100),
			"vocabulary_depth":   vectormath.Clamp(depth, 0, 100),
		},
		Metadata: map[string]interface{}{
			"target":      data.Target,
			"best_word":   data.BestWord,
			"guess_count": data.Attempts,
		},
	}, nil
}
