package engine

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verbamind/verbamind/pkg/utils"
)

// scriptedData is the opaque payload of the scripted test plugin.
type scriptedData struct {
	Updates int
}

// scriptedPlugin finishes after doneAt updates (0 = never) and reports a
// fixed score and signal set.
type scriptedPlugin struct {
	id      string
	modes   []Mode
	doneAt  int
	score   float64
	signals map[string]float64
}

func (p *scriptedPlugin) ID() string               { return p.id }
func (p *scriptedPlugin) Name() string             { return "Scripted " + p.id }
func (p *scriptedPlugin) ShortDescription() string { return "test plugin" }
func (p *scriptedPlugin) SupportedModes() []Mode   { return p.modes }
func (p *scriptedPlugin) UISchema() UISchema {
	return UISchema{Layout: "grid", Input: "tap", Feedback: "instant"}
}

func (p *scriptedPlugin) Init(ctx context.Context, gctx *Context) (*State, error) {
	return &State{Data: &scriptedData{}}, nil
}

func (p *scriptedPlugin) Update(ctx context.Context, gctx *Context, state *State, action Action) (*State, error) {
	data := state.Data.(*scriptedData)
	next := &State{
		Step: state.Step,
		Data: &scriptedData{Updates: data.Updates + 1},
	}
	if p.doneAt > 0 && data.Updates+1 >= p.doneAt {
		next.Done = true
	}
	return next, nil
}

func (p *scriptedPlugin) Summarize(ctx context.Context, gctx *Context, state *State) (*ResultSummary, error) {
	score := p.score
	if score == 0 {
		score = float64(state.Data.(*scriptedData).Updates * 10)
	}
	return &ResultSummary{
		Score:        score,
		SkillSignals: p.signals,
		Metadata:     map[string]interface{}{},
	}, nil
}

func fixedClock() Clock {
	t := time.UnixMilli(1_700_000_000_000)
	return func() time.Time { return t }
}

func testContext(mode Mode) *Context {
	return &Context{
		UserID:   "user-1",
		Language: "en",
		Seed:     "test-seed",
		Mode:     mode,
		Now:      1_700_000_000_000,
	}
}

func tapActions(n int) []Action {
	actions := make([]Action, n)
	for i := range actions {
		actions[i] = Action{Type: ActionTap, WordID: "w"}
	}
	return actions
}

func TestOneShot(t *testing.T) {
	p := &scriptedPlugin{id: "echo", modes: []Mode{ModeOneShot}}
	ctx := context.Background()

	result, err := RunOneShot(ctx, p, testContext(ModeOneShot), tapActions(1), fixedClock())
	require.NoError(t, err)
	assert.True(t, result.History[1].Done)
	assert.Len(t, result.History, 2)
	assert.Equal(t, 10.0, result.Summary.Score)
}

func TestOneShotRequiresExactlyOneAction(t *testing.T) {
	p := &scriptedPlugin{id: "echo", modes: []Mode{ModeOneShot}}
	ctx := context.Background()

	_, err := RunOneShot(ctx, p, testContext(ModeOneShot), nil, fixedClock())
	require.Error(t, err)
	assert.Equal(t, utils.ErrCodeOneShotOneAction, utils.AsAppError(err).Code)

	_, err = RunOneShot(ctx, p, testContext(ModeOneShot), tapActions(2), fixedClock())
	require.Error(t, err)
	assert.Equal(t, utils.ErrCodeOneShotOneAction, utils.AsAppError(err).Code)
}

func TestJourneyEarlyCompletion(t *testing.T) {
	p := &scriptedPlugin{id: "bridge", modes: []Mode{ModeJourney}, doneAt: 3}
	ctx := context.Background()

	result, err := RunJourney(ctx, p, testContext(ModeJourney), tapActions(5), ModeConfig{}, fixedClock())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Metadata["actual_steps"])
	assert.Equal(t, 3, result.Summary.Metadata["attempts"])
	assert.Len(t, result.History, 4) // initial + 3 updates
	assert.True(t, result.History[3].Done)
	assert.Equal(t, 3, result.History[3].Step)
}

func TestJourneyForcesDoneAtMaxSteps(t *testing.T) {
	p := &scriptedPlugin{id: "bridge", modes: []Mode{ModeJourney}}
	ctx := context.Background()

	result, err := RunJourney(ctx, p, testContext(ModeJourney), tapActions(8), ModeConfig{MaxSteps: 5}, fixedClock())
	require.NoError(t, err)
	assert.Equal(t, 5, result.Metadata["actual_steps"])
	assert.Len(t, result.History, 6)
	assert.Equal(t, 50.0, result.Summary.Score)
}

func TestJourneyNoActionsSummarizesInitialState(t *testing.T) {
	p := &scriptedPlugin{id: "bridge", modes: []Mode{ModeJourney}}
	ctx := context.Background()

	result, err := RunJourney(ctx, p, testContext(ModeJourney), nil, ModeConfig{}, fixedClock())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Metadata["actual_steps"])
	assert.Len(t, result.History, 1)
	assert.Equal(t, 0.0, result.Summary.Score)
}

func TestArenaCutoff(t *testing.T) {
	p := &scriptedPlugin{id: "storm", modes: []Mode{ModeArena}}
	gctx := testContext(ModeArena)
	ctx := context.Background()

	offsets := []int64{100, 1100, 3100, 5100, 6100}
	actions := make([]TimedAction, len(offsets))
	for i, off := range offsets {
		actions[i] = TimedAction{
			Action:    Action{Type: ActionTap, WordID: "w"},
			Timestamp: gctx.Now + off,
		}
	}

	result, err := RunArena(ctx, p, gctx, actions, ModeConfig{DurationMs: 5000}, fixedClock())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Metadata["action_count"])
	assert.Equal(t, int64(3100), result.Metadata["actual_duration"])
	assert.InDelta(t, 0.6, result.Metadata["actions_per_second"], 1e-9)
	assert.Equal(t, 3, result.History[len(result.History)-1].Step)
	assert.Nil(t, result.Summary.Percentile)
}

func TestArenaInclusiveWindowBoundary(t *testing.T) {
	p := &scriptedPlugin{id: "storm", modes: []Mode{ModeArena}}
	gctx := testContext(ModeArena)

	actions := []TimedAction{
		{Action: Action{Type: ActionTap}, Timestamp: gctx.Now + 5000}, // exactly at cutoff
		{Action: Action{Type: ActionTap}, Timestamp: gctx.Now + 5001},
	}
	result, err := RunArena(context.Background(), p, gctx, actions, ModeConfig{DurationMs: 5000}, fixedClock())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Metadata["action_count"])
}

func TestEnduranceAggregation(t *testing.T) {
	games := []EnduranceGame{
		{
			Plugin: &scriptedPlugin{id: "a", modes: []Mode{ModeJourney, ModeEndurance},
				score: 60, signals: map[string]float64{"precision": 80}},
			Actions: tapActions(1),
		},
		{
			Plugin: &scriptedPlugin{id: "b", modes: []Mode{ModeJourney, ModeEndurance},
				score: 70, signals: map[string]float64{"precision": 60, "inference": 90}},
			Actions: tapActions(1),
		},
		{
			Plugin: &scriptedPlugin{id: "c", modes: []Mode{ModeJourney, ModeEndurance},
				score: 80, signals: map[string]float64{"inference": 70}},
			Actions: tapActions(1),
		},
	}

	result, err := RunEndurance(context.Background(), testContext(ModeEndurance),
		ModeConfig{Games: games}, fixedClock())
	require.NoError(t, err)

	assert.Equal(t, 210.0, result.Summary.Score)
	assert.Equal(t, 210.0, result.Summary.Metadata["total_score"])
	assert.Equal(t, 70.0, result.Summary.Metadata["average_score"])
	assert.Equal(t, 70.0, result.Summary.SkillSignals["precision"])
	assert.Equal(t, 80.0, result.Summary.SkillSignals["inference"])
}

func TestEnduranceBadLength(t *testing.T) {
	mk := func(n int) []EnduranceGame {
		games := make([]EnduranceGame, n)
		for i := range games {
			games[i] = EnduranceGame{
				Plugin:  &scriptedPlugin{id: "g", modes: []Mode{ModeEndurance}},
				Actions: tapActions(1),
			}
		}
		return games
	}

	for _, n := range []int{0, 2, 6} {
		_, err := RunEndurance(context.Background(), testContext(ModeEndurance),
			ModeConfig{Games: mk(n)}, fixedClock())
		require.Error(t, err, "n=%d", n)
		assert.Equal(t, utils.ErrCodeEnduranceBadLength, utils.AsAppError(err).Code)
	}
}

func TestEnduranceChildSeeds(t *testing.T) {
	assert.Equal(t, "root-0", ChildSeed("root", 0))
	assert.Equal(t, "root-4", ChildSeed("root", 4))
}

func TestRunnerCancellation(t *testing.T) {
	p := &scriptedPlugin{id: "echo", modes: []Mode{ModeJourney}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunJourney(ctx, p, testContext(ModeJourney), tapActions(3), ModeConfig{}, fixedClock())
	require.Error(t, err)
	assert.Equal(t, utils.ErrCodeCancelled, utils.AsAppError(err).Code)
}

func TestCatalog(t *testing.T) {
	catalog := NewCatalog()

	p := &scriptedPlugin{id: "echo", modes: []Mode{ModeOneShot, ModeArena}}
	require.NoError(t, catalog.Register(p))

	// Duplicate id rejected
	err := catalog.Register(&scriptedPlugin{id: "echo", modes: []Mode{ModeOneShot}})
	require.Error(t, err)

	// Empty mode list rejected
	err = catalog.Register(&scriptedPlugin{id: "empty"})
	require.Error(t, err)

	// Missing id rejected
	err = catalog.Register(&scriptedPlugin{modes: []Mode{ModeOneShot}})
	require.Error(t, err)

	got, err := catalog.Get("echo")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = catalog.Get("nope")
	require.Error(t, err)

	assert.True(t, catalog.Has("echo"))
	assert.False(t, catalog.Has("nope"))
	assert.Len(t, catalog.GetAll(), 1)
	assert.Len(t, catalog.GetByMode(ModeArena), 1)
	assert.Empty(t, catalog.GetByMode(ModeJourney))
}

func TestOrchestratorModeValidation(t *testing.T) {
	catalog := NewCatalog()
	require.NoError(t, catalog.Register(&scriptedPlugin{id: "echo", modes: []Mode{ModeOneShot}}))
	orch := NewOrchestrator(catalog, logrus.New()).WithClock(fixedClock())

	_, err := orch.Run(context.Background(), &SessionRequest{
		GameID:  "echo",
		Mode:    ModeJourney,
		Context: testContext(ModeJourney),
		Actions: tapActions(1),
	})
	require.Error(t, err)
	assert.Equal(t, utils.ErrCodeModeUnsupported, utils.AsAppError(err).Code)
}

func TestOrchestratorRunStampsSessionID(t *testing.T) {
	catalog := NewCatalog()
	require.NoError(t, catalog.Register(&scriptedPlugin{id: "echo", modes: []Mode{ModeOneShot}}))
	orch := NewOrchestrator(catalog, logrus.New()).WithClock(fixedClock())

	result, err := orch.Run(context.Background(), &SessionRequest{
		GameID:  "echo",
		Mode:    ModeOneShot,
		Context: testContext(ModeOneShot),
		Actions: tapActions(1),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionID)
	assert.Equal(t, 10.0, result.Summary.Score)
}

func TestOrchestratorWrapsRunnerErrors(t *testing.T) {
	catalog := NewCatalog()
	require.NoError(t, catalog.Register(&scriptedPlugin{id: "echo", modes: []Mode{ModeOneShot}}))
	orch := NewOrchestrator(catalog, logrus.New()).WithClock(fixedClock())

	_, err := orch.Run(context.Background(), &SessionRequest{
		GameID:  "echo",
		Mode:    ModeOneShot,
		Context: testContext(ModeOneShot),
		Actions: tapActions(3),
	})
	require.Error(t, err)
	appErr := utils.AsAppError(err)
	assert.Equal(t, utils.ErrCodeOneShotOneAction, appErr.Code)
	assert.Contains(t, appErr.Message, "echo")
}

func TestSeedRandDeterminism(t *testing.T) {
	a := SeedRand("seed-42")
	b := SeedRand("seed-42")
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Int63(), b.Int63())
	}

	c := SeedRand("seed-43")
	d := SeedRand("seed-42")
	assert.NotEqual(t, c.Int63(), d.Int63())
}
