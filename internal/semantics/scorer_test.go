package semantics

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verbamind/verbamind/internal/embedding"
	"github.com/verbamind/verbamind/internal/vectormath"
)

// fixtureProvider serves hand-built vectors for exact assertions.
type fixtureProvider struct {
	words map[string]*embedding.WordEmbedding
}

func (p *fixtureProvider) Get(ctx context.Context, word, language string) (*embedding.WordEmbedding, error) {
	if emb, ok := p.words[word]; ok {
		return emb, nil
	}
	return nil, embedding.ErrNotFound(word, language)
}

func (p *fixtureProvider) Has(ctx context.Context, word, language string) (bool, error) {
	_, ok := p.words[word]
	return ok, nil
}

func newFixtureScorer(t *testing.T) *Scorer {
	t.Helper()
	provider := &fixtureProvider{words: map[string]*embedding.WordEmbedding{
		"east":  {Word: "east", Language: "en", Vector: []float64{1, 0, 0}},
		"north": {Word: "north", Language: "en", Vector: []float64{0, 1, 0}},
		"up":    {Word: "up", Language: "en", Vector: []float64{0, 0, 1}},
		"northeast": {Word: "northeast", Language: "en",
			Vector: vectormath.Normalize([]float64{1, 1, 0})},
		"west": {Word: "west", Language: "en", Vector: []float64{-1, 0, 0}},
		"cat":  {Word: "cat", Language: "en", Vector: []float64{1, 0, 0}, Frequency: 2000},
		"zyzzyva": {Word: "zyzzyva", Language: "en",
			Vector: vectormath.Normalize([]float64{1, 2, 3})},
	}}
	svc, err := embedding.NewService(provider, 64)
	require.NoError(t, err)
	return NewScorer(svc)
}

func TestSimilarity(t *testing.T) {
	scorer := newFixtureScorer(t)
	ctx := context.Background()

	score, err := scorer.Similarity(ctx, "east", "northeast", "en")
	require.NoError(t, err)
	assert.InDelta(t, 1/math.Sqrt(2), score, 1e-9)

	// Opposite vectors clamp to zero, not -1
	score, err = scorer.Similarity(ctx, "east", "west", "en")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	// Missing word scores zero without error
	score, err = scorer.Similarity(ctx, "east", "unknownword", "en")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestAverageSimilarity(t *testing.T) {
	scorer := newFixtureScorer(t)
	ctx := context.Background()

	// cos(east,east)=1, cos(east,north)=0, missing contributes 0
	score, err := scorer.AverageSimilarity(ctx, "east", []string{"east", "north", "ghost"}, "en")
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3, score, 1e-9)

	score, err = scorer.AverageSimilarity(ctx, "east", nil, "en")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestFindMostSimilar(t *testing.T) {
	scorer := newFixtureScorer(t)
	ctx := context.Background()

	best, err := scorer.FindMostSimilar(ctx, "east", []string{"north", "northeast", "ghost"}, "en")
	require.NoError(t, err)
	assert.Equal(t, "northeast", best.Word)
	assert.InDelta(t, 1/math.Sqrt(2), best.Score, 1e-9)

	// Unknown target yields a zero match
	best, err = scorer.FindMostSimilar(ctx, "ghost", []string{"north"}, "en")
	require.NoError(t, err)
	assert.Equal(t, BestMatch{}, best)

	// All candidates unknown also yields a zero match
	best, err = scorer.FindMostSimilar(ctx, "east", []string{"ghost", "wraith"}, "en")
	require.NoError(t, err)
	assert.Equal(t, BestMatch{}, best)
}

func TestClusterCenterAndHeat(t *testing.T) {
	scorer := newFixtureScorer(t)
	ctx := context.Background()

	center, err := scorer.ClusterCenter(ctx, []string{"east", "north", "ghost"}, "en")
	require.NoError(t, err)
	assert.InDelta(t, 1, vectormath.Magnitude(center), vectormath.Epsilon)

	heat, err := scorer.ClusterHeat(ctx, "northeast", center, "en")
	require.NoError(t, err)
	assert.InDelta(t, 1, heat.Heat, 1e-9)
	assert.InDelta(t, 0, heat.Distance, 1e-9)

	cold, err := scorer.ClusterHeat(ctx, "ghost", center, "en")
	require.NoError(t, err)
	assert.Equal(t, 0.0, cold.Heat)
	assert.Equal(t, 1.0, cold.Distance)

	_, err = scorer.ClusterCenter(ctx, []string{"ghost", "wraith"}, "en")
	require.Error(t, err)
}

func TestRankByClusterHeat(t *testing.T) {
	scorer := newFixtureScorer(t)
	ctx := context.Background()

	center := []float64{1, 0, 0}
	ranked, err := scorer.RankByClusterHeat(ctx, []string{"north", "east", "northeast"}, center, "en")
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "east", ranked[0].Word)
	assert.Equal(t, "northeast", ranked[1].Word)
	assert.Equal(t, "north", ranked[2].Word)

	// Ties keep input order: north and up are both orthogonal to center
	ranked, err = scorer.RankByClusterHeat(ctx, []string{"north", "up"}, center, "en")
	require.NoError(t, err)
	assert.Equal(t, "north", ranked[0].Word)
	assert.Equal(t, "up", ranked[1].Word)
}

func TestMidpointScore(t *testing.T) {
	scorer := newFixtureScorer(t)
	ctx := context.Background()

	result, err := scorer.MidpointScore(ctx, "northeast", "east", "north", "en")
	require.NoError(t, err)
	assert.InDelta(t, 1, result.Score, 1e-9)
	assert.InDelta(t, 1-1/math.Sqrt(2), result.DistanceA, 1e-9)
	assert.InDelta(t, 1-1/math.Sqrt(2), result.DistanceB, 1e-9)

	missing, err := scorer.MidpointScore(ctx, "ghost", "east", "north", "en")
	require.NoError(t, err)
	assert.Equal(t, 0.0, missing.Score)
}

func TestBalanceScore(t *testing.T) {
	scorer := newFixtureScorer(t)
	ctx := context.Background()

	// northeast is equidistant from east and north
	score, err := scorer.BalanceScore(ctx, "northeast", "east", "north", "en")
	require.NoError(t, err)
	assert.InDelta(t, 1, score, 1e-9)

	// east is maximally unbalanced between east and north
	score, err = scorer.BalanceScore(ctx, "east", "east", "north", "en")
	require.NoError(t, err)
	assert.InDelta(t, 0, score, 1e-9)

	score, err = scorer.BalanceScore(ctx, "ghost", "east", "north", "en")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestFindBestMidpoint(t *testing.T) {
	scorer := newFixtureScorer(t)
	ctx := context.Background()

	best, err := scorer.FindBestMidpoint(ctx, []string{"up", "northeast", "ghost"}, "east", "north", "en")
	require.NoError(t, err)
	assert.Equal(t, "northeast", best.Word)
}

func TestInterpolateAndGradient(t *testing.T) {
	scorer := newFixtureScorer(t)
	ctx := context.Background()

	v, err := scorer.InterpolateVectors(ctx, "east", "north", 0.5, "en")
	require.NoError(t, err)
	assert.InDelta(t, v[0], v[1], 1e-9)
	assert.InDelta(t, 1, vectormath.Magnitude(v), vectormath.Epsilon)

	_, err = scorer.InterpolateVectors(ctx, "east", "ghost", 0.5, "en")
	require.Error(t, err)
	assert.True(t, embedding.IsNotFound(err))

	dir, err := scorer.GradientDirection(ctx, "east", "north", "en")
	require.NoError(t, err)
	assert.InDelta(t, -1/math.Sqrt(2), dir[0], 1e-9)
	assert.InDelta(t, 1/math.Sqrt(2), dir[1], 1e-9)
}

func TestProjectOntoGradient(t *testing.T) {
	scorer := newFixtureScorer(t)
	ctx := context.Background()

	atA, err := scorer.ProjectOntoGradient(ctx, "east", "east", "north", "en")
	require.NoError(t, err)
	assert.Equal(t, 0.0, atA)

	atB, err := scorer.ProjectOntoGradient(ctx, "north", "east", "north", "en")
	require.NoError(t, err)
	assert.Equal(t, 1.0, atB)

	between, err := scorer.ProjectOntoGradient(ctx, "northeast", "east", "north", "en")
	require.NoError(t, err)
	assert.Greater(t, between, 0.0)
	assert.Less(t, between, 1.0)

	missing, err := scorer.ProjectOntoGradient(ctx, "ghost", "east", "north", "en")
	require.NoError(t, err)
	assert.Equal(t, 0.5, missing)
}

func TestTriangleScore(t *testing.T) {
	scorer := newFixtureScorer(t)
	ctx := context.Background()

	// Pairs (east,northeast)=(north,northeast)=1/sqrt2, (east,north)=0
	score, err := scorer.TriangleScore(ctx, "northeast", "east", "north", "en")
	require.NoError(t, err)
	assert.InDelta(t, (2/math.Sqrt(2))/3, score, 1e-9)

	score, err = scorer.TriangleScore(ctx, "ghost", "east", "north", "en")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestPivotScore(t *testing.T) {
	scorer := newFixtureScorer(t)
	ctx := context.Background()

	score, err := scorer.PivotScore(ctx, "northeast", "east", "north", "en")
	require.NoError(t, err)
	assert.InDelta(t, 2/math.Sqrt(2), score, 1e-9)

	score, err = scorer.PivotScore(ctx, "ghost", "east", "north", "en")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}
