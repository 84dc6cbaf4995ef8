package engine

import (
	"context"

	"github.com/verbamind/verbamind/internal/vectormath"
	"github.com/verbamind/verbamind/pkg/utils"
)

// RunEndurance drives an ordered sequence of 3-5 games, each as a journey leg
// with its own derived seed, and aggregates the results. Merged skill signals
// use a two-sample running midpoint rather than a plain mean, which keeps
// later games weighted more heavily.
func RunEndurance(ctx context.Context, gctx *Context, cfg ModeConfig, clock Clock) (*ModeResult, error) {
	n := len(cfg.Games)
	if n < EnduranceMinGames || n > EnduranceMaxGames {
		return nil, utils.NewAppError(utils.ErrCodeEnduranceBadLength,
			"endurance requires 3 to 5 games")
	}

	t0 := clock()

	var totalScore float64
	merged := make(map[string]float64)
	gameScores := make([]map[string]interface{}, 0, n)

	for i, leg := range cfg.Games {
		if leg.Plugin == nil {
			return nil, utils.NewAppError(utils.ErrCodeMissingField, "endurance leg has no game")
		}
		if err := checkCancelled(ctx); err != nil {
			return nil, err
		}

		childCtx := &Context{
			UserID:   gctx.UserID,
			Language: gctx.Language,
			Seed:     ChildSeed(gctx.Seed, i),
			Mode:     ModeEndurance,
			Now:      gctx.Now,
		}

		result, err := RunJourney(ctx, leg.Plugin, childCtx, leg.Actions,
			ModeConfig{MaxSteps: DefaultJourneyMaxSteps}, clock)
		if err != nil {
			return nil, err
		}

		totalScore += result.Summary.Score
		for skill, value := range result.Summary.SkillSignals {
			if existing, ok := merged[skill]; ok {
				merged[skill] = (existing + value) / 2
			} else {
				merged[skill] = value
			}
		}
		gameScores = append(gameScores, map[string]interface{}{
			"game_id": leg.Plugin.ID(),
			"score":   result.Summary.Score,
		})
	}

	for skill, value := range merged {
		merged[skill] = vectormath.Clamp(value, 0, 100)
	}

	summary := &ResultSummary{
		Score:        totalScore,
		DurationMs:   clock().Sub(t0).Milliseconds(),
		SkillSignals: merged,
		Metadata: map[string]interface{}{
			"games":         gameScores,
			"total_score":   totalScore,
			"average_score": totalScore / float64(n),
		},
	}

	return &ModeResult{
		Summary: summary,
		Metadata: map[string]interface{}{
			"mode":       string(ModeEndurance),
			"game_count": n,
		},
	}, nil
}
