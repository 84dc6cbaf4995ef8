package games

import (
	"context"

	"github.com/verbamind/verbamind/internal/engine"
	"github.com/verbamind/verbamind/internal/semantics"
	"github.com/verbamind/verbamind/internal/vectormath"
)

// A bridge word sitting this close to the true midpoint ends the session
// early; further guesses could only tie.
const bridgeWinThreshold = 0.92

// Bridge seeds two anchor words and asks the player for words that sit
// between them. The best midpoint score across the journey decides the
// outcome, with balance between the anchors scored separately.
type Bridge struct {
	scorer *semantics.Scorer
}

func NewBridge(scorer *semantics.Scorer) *Bridge {
	return &Bridge{scorer: scorer}
}

type bridgeState struct {
	AnchorA     string  `json:"anchor_a"`
	AnchorB     string  `json:"anchor_b"`
	Best        float64 `json:"best"`
	BestWord    string  `json:"best_word,omitempty"`
	BestBalance float64 `json:"best_balance"`
	Submissions int     `json:"submissions"`
}

func (g *Bridge) ID() string   { return "bridge" }
func (g *Bridge) Name() string { return "Bridge" }
func (g *Bridge) ShortDescription() string {
	return "Find the word that connects two anchors"
}

func (g *Bridge) SupportedModes() []engine.Mode {
	return []engine.Mode{engine.ModeJourney, engine.ModeEndurance}
}

func (g *Bridge) UISchema() engine.UISchema {
	return engine.UISchema{
		Layout:    "two-anchor",
		Input:     "text",
		Feedback:  "distance-bars",
		CardStyle: "split",
	}
}

func (g *Bridge) Init(ctx context.Context, gctx *engine.Context) (*engine.State, error) {
	rng := engine.SeedRand(gctx.Seed)
	anchors := pickWords(rng, gctx.Language, 2)
	return &engine.State{Data: &bridgeState{AnchorA: anchors[0], AnchorB: anchors[1]}}, nil
}

func (g *Bridge) state(s *engine.State) (*bridgeState, error) {
	if data, ok := s.Data.(*bridgeState); ok {
		return data, nil
	}
	data := &bridgeState{}
	if err := engine.DecodeState(s.Data, data); err != nil {
		return nil, err
	}
	s.Data = data
	return data, nil
}

func (g *Bridge) Update(ctx context.Context, gctx *engine.Context, state *engine.State, action engine.Action) (*engine.State, error) {
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

	mid, err := g.scorer.MidpointScore(ctx, word, data.AnchorA, data.AnchorB, gctx.Language)
	if err != nil {
		return nil, err
	}

	next := &bridgeState{
		AnchorA:     data.AnchorA,
		AnchorB:     data.AnchorB,
		Best:        data.Best,
		BestWord:    data.BestWord,
		BestBalance: data.BestBalance,
		Submissions: data.Submissions + 1,
	}
	if mid.Score > next.Best {
		balance, err := g.scorer.BalanceScore(ctx, word, data.AnchorA, data.AnchorB, gctx.Language)
		if err != nil {
			return nil, err
		}
		next.Best = mid.Score
		next.BestWord = word
		next.BestBalance = balance
	}

	out := &engine.State{Step: state.Step, Data: next}
	if next.Best >= bridgeWinThreshold {
		out.Done = true
	}
	return out, nil
}

func (g *Bridge) Summarize(ctx context.Context, gctx *engine.Context, state *engine.State) (*engine.ResultSummary, error) {
	data, err := g.state(state)
	if err != nil {
		return nil, err
	}

	score := data.Best * 100
	return &engine.ResultSummary{
		Score: score,
		SkillSignals: map[string]float64{
			"conceptual_bridging": vectormath.Clamp(score, 0, 100),
			"balance":             vectormath.Clamp(data.BestBalance*100, 0, 100),
		},
		Metadata: map[string]interface{}{
			"anchor_a":    data.AnchorA,
			"anchor_b":    data.AnchorB,
			"best_word":   data.BestWord,
			"submissions": data.Submissions,
		},
	}, nil
}
