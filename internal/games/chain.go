package games

import (
	"context"
	"strconv"

	"github.com/verbamind/verbamind/internal/engine"
	"github.com/verbamind/verbamind/internal/vectormath"
	"github.com/verbamind/verbamind/pkg/utils"
)

const chainShownTerms = 4

// Chain is a numeric next-in-sequence puzzle. Sequences are either plain
// arithmetic or alternate between two deltas; the expected answer always
// continues the alternation pattern that produced the shown terms.
type Chain struct{}

func NewChain() *Chain {
	return &Chain{}
}

type chainPuzzle struct {
	Sequence []int `json:"sequence"`
	Next     int   `json:"next"`
}

type chainState struct {
	Puzzle  chainPuzzle `json:"puzzle"`
	Round   int         `json:"round"`
	Correct int         `json:"correct"`
	Wrong   int         `json:"wrong"`
}

func (g *Chain) ID() string   { return "chain" }
func (g *Chain) Name() string { return "Chain" }
func (g *Chain) ShortDescription() string {
	return "Continue the number sequence"
}

func (g *Chain) SupportedModes() []engine.Mode {
	return []engine.Mode{engine.ModeJourney, engine.ModeOneShot, engine.ModeEndurance}
}

func (g *Chain) UISchema() engine.UISchema {
	return engine.UISchema{
		Layout:   "sequence-row",
		Input:    "numpad",
		Feedback: "instant",
	}
}

// generatePuzzle derives one puzzle from the seeded source. Round folds into
// the derivation so every round of a journey gets a fresh sequence while the
// whole session stays reproducible.
func generatePuzzle(seed string, round int) chainPuzzle {
	rng := engine.SeedRand(engine.ChildSeed(seed, round))

	start := rng.Intn(20) + 1
	deltaA := rng.Intn(9) + 1
	deltaB := rng.Intn(9) + 1
	alternating := rng.Intn(2) == 0

	deltas := make([]int, chainShownTerms)
	for i := range deltas {
		if alternating && i%2 == 1 {
			deltas[i] = deltaB
		} else {
			deltas[i] = deltaA
		}
	}

	seq := make([]int, chainShownTerms)
	seq[0] = start
	for i := 1; i < chainShownTerms; i++ {
		seq[i] = seq[i-1] + deltas[i-1]
	}
	return chainPuzzle{Sequence: seq, Next: seq[chainShownTerms-1] + deltas[chainShownTerms-1]}
}

func (g *Chain) Init(ctx context.Context, gctx *engine.Context) (*engine.State, error) {
	return &engine.State{Data: &chainState{Puzzle: generatePuzzle(gctx.Seed, 0)}}, nil
}

func (g *Chain) state(s *engine.State) (*chainState, error) {
	if data, ok := s.Data.(*chainState); ok {
		return data, nil
	}
	data := &chainState{}
	if err := engine.DecodeState(s.Data, data); err != nil {
		return nil, err
	}
	s.Data = data
	return data, nil
}

func (g *Chain) Update(ctx context.Context, gctx *engine.Context, state *engine.State, action engine.Action) (*engine.State, error) {
	answer, ok, err := chainAnswer(action)
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

	next := &chainState{
		Round:   data.Round + 1,
		Correct: data.Correct,
		Wrong:   data.Wrong,
	}
	if answer == data.Puzzle.Next {
		next.Correct++
	} else {
		next.Wrong++
	}
	next.Puzzle = generatePuzzle(gctx.Seed, next.Round)

	return &engine.State{Step: state.Step, Data: next}, nil
}

func (g *Chain) Summarize(ctx context.Context, gctx *engine.Context, state *engine.State) (*engine.ResultSummary, error) {
	data, err := g.state(state)
	if err != nil {
		return nil, err
	}

	attempts := data.Correct + data.Wrong
	accuracy := 0.0
	if attempts > 0 {
		accuracy = float64(data.Correct) / float64(attempts)
	}
	score := accuracy * 100

	return &engine.ResultSummary{
		Score:    score,
		Accuracy: &accuracy,
		SkillSignals: map[string]float64{
			"pattern_inference": score,
			"working_memory":    vectormath.Clamp(float64(data.Correct)*25, 0, 100),
		},
		Metadata: map[string]interface{}{
			"rounds":  attempts,
			"correct": data.Correct,
			"wrong":   data.Wrong,
		},
	}, nil
}

// chainAnswer pulls the numeric answer out of an action. Action types the
// game does not play report ok=false; a playable type without a parseable
// answer is a bad action.
func chainAnswer(action engine.Action) (answer int, ok bool, err error) {
	switch action.Type {
	case engine.ActionSubmitWord, engine.ActionCustom:
		if action.Text != "" {
			n, err := strconv.Atoi(action.Text)
			if err != nil {
				return 0, false, utils.NewAppError(utils.ErrCodeBadAction, "answer is not a number", action.Text)
			}
			return n, true, nil
		}
		if v, ok := action.Payload["answer"]; ok {
			switch t := v.(type) {
			case float64:
				return int(t), true, nil
			case int:
				return t, true, nil
			}
		}
		return 0, false, utils.NewAppError(utils.ErrCodeBadAction, "answer is required")
	}
	return 0, false, nil
}
