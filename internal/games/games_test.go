package games

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verbamind/verbamind/internal/embedding"
	"github.com/verbamind/verbamind/internal/engine"
	"github.com/verbamind/verbamind/internal/semantics"
	"github.com/verbamind/verbamind/pkg/utils"
)

func newTestScorer(t *testing.T) *semantics.Scorer {
	t.Helper()
	svc, err := embedding.NewService(embedding.NewMockProvider(16), 256)
	require.NoError(t, err)
	return semantics.NewScorer(svc)
}

func testClock() engine.Clock {
	at := time.UnixMilli(1_700_000_000_000)
	return func() time.Time { return at }
}

func sessionContext(mode engine.Mode, seed string) *engine.Context {
	return &engine.Context{
		UserID:   "user-1",
		Language: "en",
		Seed:     seed,
		Mode:     mode,
		Now:      1_700_000_000_000,
	}
}

func TestRegisterAll(t *testing.T) {
	catalog := engine.NewCatalog()
	require.NoError(t, RegisterAll(catalog, newTestScorer(t)))

	assert.Len(t, catalog.GetAll(), 4)
	for _, id := range []string{"echo", "bridge", "storm", "chain"} {
		assert.True(t, catalog.Has(id), id)
	}
	assert.Len(t, catalog.GetByMode(engine.ModeJourney), 3)
	assert.Len(t, catalog.GetByMode(engine.ModeEndurance), 4)
	assert.Len(t, catalog.GetByMode(engine.ModeOneShot), 2)
}

func TestEchoOneShotPerfectGuess(t *testing.T) {
	scorer := newTestScorer(t)
	echo := NewEcho(scorer)
	gctx := sessionContext(engine.ModeOneShot, "echo-seed")
	ctx := context.Background()

	// Read the seeded target out of the initial state, then guess it.
	state, err := echo.Init(ctx, gctx)
	require.NoError(t, err)
	target := state.Data.(*echoState).Target

	result, err := engine.RunOneShot(ctx, echo, gctx,
		[]engine.Action{{Type: engine.ActionSubmitWord, Text: target}}, testClock())
	require.NoError(t, err)

	assert.InDelta(t, 100, result.Summary.Score, 1e-6)
	assert.InDelta(t, 100, result.Summary.SkillSignals["semantic_precision"], 1e-6)
	assert.Greater(t, result.Summary.SkillSignals["vocabulary_depth"], 0.0)
	assert.Equal(t, target, result.Summary.Metadata["best_word"])
}

func TestEchoArenaKeepsBestGuess(t *testing.T) {
	scorer := newTestScorer(t)
	echo := NewEcho(scorer)
	gctx := sessionContext(engine.ModeArena, "echo-seed")
	ctx := context.Background()

	state, err := echo.Init(ctx, gctx)
	require.NoError(t, err)
	target := state.Data.(*echoState).Target

	actions := []engine.TimedAction{
		{Action: engine.Action{Type: engine.ActionSubmitWord, Text: "unrelated"}, Timestamp: gctx.Now + 100},
		{Action: engine.Action{Type: engine.ActionSubmitWord, Text: target}, Timestamp: gctx.Now + 200},
		{Action: engine.Action{Type: engine.ActionSubmitWord, Text: "another"}, Timestamp: gctx.Now + 300},
	}
	result, err := engine.RunArena(ctx, echo, gctx, actions, engine.ModeConfig{DurationMs: 5000}, testClock())
	require.NoError(t, err)

	assert.InDelta(t, 100, result.Summary.Score, 1e-6)
	assert.Equal(t, target, result.Summary.Metadata["best_word"])
	assert.Equal(t, 3, result.Summary.Metadata["guess_count"])
}

func TestEchoDeterministicTarget(t *testing.T) {
	scorer := newTestScorer(t)
	echo := NewEcho(scorer)
	ctx := context.Background()

	a, err := echo.Init(ctx, sessionContext(engine.ModeOneShot, "same-seed"))
	require.NoError(t, err)
	b, err := echo.Init(ctx, sessionContext(engine.ModeOneShot, "same-seed"))
	require.NoError(t, err)
	c, err := echo.Init(ctx, sessionContext(engine.ModeOneShot, "other-seed"))
	require.NoError(t, err)

	assert.Equal(t, a.Data.(*echoState).Target, b.Data.(*echoState).Target)
	assert.NotEqual(t, a.Data.(*echoState).Target, c.Data.(*echoState).Target)
}

func TestUnexpectedActionTypeIsIgnored(t *testing.T) {
	scorer := newTestScorer(t)
	ctx := context.Background()

	plugins := []engine.Plugin{NewEcho(scorer), NewBridge(scorer), NewStorm(scorer), NewChain()}
	for _, p := range plugins {
		gctx := sessionContext(p.SupportedModes()[0], "ignore-seed")
		state, err := p.Init(ctx, gctx)
		require.NoError(t, err, p.ID())

		// A stray timer action leaves the state untouched without error.
		next, err := p.Update(ctx, gctx, state, engine.Action{Type: engine.ActionTimer})
		require.NoError(t, err, p.ID())
		assert.Same(t, state, next, p.ID())
	}
}

func TestMalformedPlayableActionIsRejected(t *testing.T) {
	scorer := newTestScorer(t)
	echo := NewEcho(scorer)
	gctx := sessionContext(engine.ModeOneShot, "echo-seed")
	ctx := context.Background()

	state, err := echo.Init(ctx, gctx)
	require.NoError(t, err)
	_, err = echo.Update(ctx, gctx, state, engine.Action{Type: engine.ActionSubmitWord})
	require.Error(t, err)
	assert.Equal(t, utils.ErrCodeBadAction, utils.AsAppError(err).Code)
}

// roundTrip simulates the stepwise HTTP flow, where state crosses the wire
// as JSON and Data comes back as a generic map.
func roundTrip(t *testing.T, state *engine.State) *engine.State {
	t.Helper()
	raw, err := json.Marshal(state)
	require.NoError(t, err)
	var out engine.State
	require.NoError(t, json.Unmarshal(raw, &out))
	return &out
}

func TestStepwiseStateSurvivesJSONRoundTrip(t *testing.T) {
	scorer := newTestScorer(t)
	echo := NewEcho(scorer)
	gctx := sessionContext(engine.ModeOneShot, "wire-seed")
	ctx := context.Background()

	state, err := echo.Init(ctx, gctx)
	require.NoError(t, err)
	target := state.Data.(*echoState).Target

	next, err := echo.Update(ctx, gctx, roundTrip(t, state),
		engine.Action{Type: engine.ActionSubmitWord, Text: target})
	require.NoError(t, err)

	summary, err := echo.Summarize(ctx, gctx, roundTrip(t, next))
	require.NoError(t, err)
	assert.InDelta(t, 100, summary.Score, 1e-6)
	assert.Equal(t, target, summary.Metadata["best_word"])
}

func TestStormRehydrationRecomputesCenter(t *testing.T) {
	scorer := newTestScorer(t)
	storm := NewStorm(scorer)
	gctx := sessionContext(engine.ModeJourney, "wire-storm")
	ctx := context.Background()

	state, err := storm.Init(ctx, gctx)
	require.NoError(t, err)
	theme := state.Data.(*stormState).Theme

	first, err := storm.Update(ctx, gctx, state, engine.Action{Type: engine.ActionTap, WordID: theme[0]})
	require.NoError(t, err)

	second, err := storm.Update(ctx, gctx, roundTrip(t, first),
		engine.Action{Type: engine.ActionTap, WordID: theme[1]})
	require.NoError(t, err)

	summary, err := storm.Summarize(ctx, gctx, roundTrip(t, second))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Metadata["tap_count"])
	assert.Equal(t, 2, summary.Metadata["distinct_words"])

	// The rehydrated path scores exactly like the in-memory path.
	direct, err := storm.Update(ctx, gctx, first, engine.Action{Type: engine.ActionTap, WordID: theme[1]})
	require.NoError(t, err)
	directSummary, err := storm.Summarize(ctx, gctx, direct)
	require.NoError(t, err)
	assert.InDelta(t, directSummary.Score, summary.Score, 1e-9)
}

func TestBridgeJourney(t *testing.T) {
	scorer := newTestScorer(t)
	bridge := NewBridge(scorer)
	gctx := sessionContext(engine.ModeJourney, "bridge-seed")
	ctx := context.Background()

	state, err := bridge.Init(ctx, gctx)
	require.NoError(t, err)
	data := state.Data.(*bridgeState)
	require.NotEqual(t, data.AnchorA, data.AnchorB)

	actions := []engine.Action{
		{Type: engine.ActionSubmitWord, Text: data.AnchorA},
		{Type: engine.ActionSubmitWord, Text: "river"},
	}
	result, err := engine.RunJourney(ctx, bridge, gctx, actions, engine.ModeConfig{}, testClock())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.Summary.Score, 0.0)
	assert.LessOrEqual(t, result.Summary.Score, 100.0)
	assert.Equal(t, 2, result.Summary.Metadata["submissions"])
	assert.Contains(t, result.Summary.SkillSignals, "conceptual_bridging")
	assert.Contains(t, result.Summary.SkillSignals, "balance")
}

func TestStormHeatScoring(t *testing.T) {
	scorer := newTestScorer(t)
	storm := NewStorm(scorer)
	gctx := sessionContext(engine.ModeJourney, "storm-seed")
	ctx := context.Background()

	state, err := storm.Init(ctx, gctx)
	require.NoError(t, err)
	theme := state.Data.(*stormState).Theme
	require.Len(t, theme, stormThemeSize)

	actions := []engine.Action{
		{Type: engine.ActionTap, WordID: theme[0]},
		{Type: engine.ActionTapMany, WordIDs: []string{theme[1], theme[2]}},
	}
	result, err := engine.RunJourney(ctx, storm, gctx, actions, engine.ModeConfig{}, testClock())
	require.NoError(t, err)

	// Score must equal the mean heat of the tapped words against the
	// theme centroid, straight from the scorer.
	center, err := scorer.ClusterCenter(ctx, theme, gctx.Language)
	require.NoError(t, err)
	var total float64
	for _, w := range theme {
		heat, herr := scorer.ClusterHeat(ctx, w, center, gctx.Language)
		require.NoError(t, herr)
		total += heat.Heat
	}
	assert.InDelta(t, total/3*100, result.Summary.Score, 1e-6)
	assert.Equal(t, 3, result.Summary.Metadata["tap_count"])
	assert.Equal(t, 3, result.Summary.Metadata["distinct_words"])
	assert.InDelta(t, 60, result.Summary.SkillSignals["divergent_thinking"], 1e-6)
}

func TestChainPuzzleContinuesAlternation(t *testing.T) {
	// Whatever the delta pattern, the expected next value must extend it:
	// the closing delta equals the delta two positions back.
	for round := 0; round < 50; round++ {
		p := generatePuzzle("chain-property", round)
		require.Len(t, p.Sequence, chainShownTerms)
		prior := p.Sequence[2] - p.Sequence[1]
		assert.Equal(t, prior, p.Next-p.Sequence[3], "round %d: %v -> %d", round, p.Sequence, p.Next)
	}
}

func TestChainPuzzleDeterminism(t *testing.T) {
	a := generatePuzzle("seed-x", 3)
	b := generatePuzzle("seed-x", 3)
	c := generatePuzzle("seed-x", 4)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestChainJourneyAllCorrect(t *testing.T) {
	chain := NewChain()
	gctx := sessionContext(engine.ModeJourney, "chain-run")
	ctx := context.Background()

	actions := make([]engine.Action, 3)
	for i := range actions {
		actions[i] = engine.Action{
			Type: engine.ActionSubmitWord,
			Text: strconv.Itoa(generatePuzzle(gctx.Seed, i).Next),
		}
	}

	result, err := engine.RunJourney(ctx, chain, gctx, actions, engine.ModeConfig{}, testClock())
	require.NoError(t, err)

	assert.InDelta(t, 100, result.Summary.Score, 1e-6)
	assert.Equal(t, 3, result.Summary.Metadata["correct"])
	assert.InDelta(t, 75, result.Summary.SkillSignals["working_memory"], 1e-6)
	require.NotNil(t, result.Summary.Accuracy)
	assert.InDelta(t, 1.0, *result.Summary.Accuracy, 1e-9)
}

func TestChainWrongAnswer(t *testing.T) {
	chain := NewChain()
	gctx := sessionContext(engine.ModeOneShot, "chain-wrong")
	ctx := context.Background()

	wrong := generatePuzzle(gctx.Seed, 0).Next + 1
	result, err := engine.RunOneShot(ctx, chain, gctx,
		[]engine.Action{{Type: engine.ActionSubmitWord, Text: strconv.Itoa(wrong)}}, testClock())
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Summary.Score)
	assert.Equal(t, 1, result.Summary.Metadata["wrong"])
}

func TestChainRejectsNonNumericAnswer(t *testing.T) {
	chain := NewChain()
	gctx := sessionContext(engine.ModeOneShot, "chain-bad")
	ctx := context.Background()

	state, err := chain.Init(ctx, gctx)
	require.NoError(t, err)
	_, err = chain.Update(ctx, gctx, state, engine.Action{Type: engine.ActionSubmitWord, Text: "twelve"})
	require.Error(t, err)
	assert.Equal(t, utils.ErrCodeBadAction, utils.AsAppError(err).Code)
}

func TestEnduranceAcrossPlugins(t *testing.T) {
	scorer := newTestScorer(t)
	gctx := sessionContext(engine.ModeEndurance, "marathon")
	ctx := context.Background()

	chainActions := make([]engine.Action, 2)
	for i := range chainActions {
		chainActions[i] = engine.Action{
			Type: engine.ActionSubmitWord,
			Text: strconv.Itoa(generatePuzzle(engine.ChildSeed(gctx.Seed, 2), i).Next),
		}
	}

	cfg := engine.ModeConfig{Games: []engine.EnduranceGame{
		{Plugin: NewEcho(scorer), Actions: []engine.Action{{Type: engine.ActionSubmitWord, Text: "ocean"}}},
		{Plugin: NewStorm(scorer), Actions: []engine.Action{{Type: engine.ActionTap, WordID: "river"}}},
		{Plugin: NewChain(), Actions: chainActions},
	}}

	result, err := engine.RunEndurance(ctx, gctx, cfg, testClock())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Metadata["game_count"])
	assert.Contains(t, result.Summary.SkillSignals, "pattern_inference")
	assert.GreaterOrEqual(t, result.Summary.Score, 0.0)

	// Same request replays to the same aggregate.
	again, err := engine.RunEndurance(ctx, gctx, cfg, testClock())
	require.NoError(t, err)
	assert.Equal(t, result.Summary.Score, again.Summary.Score)
	assert.Equal(t, result.Summary.SkillSignals, again.Summary.SkillSignals)
}
