package semantics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verbamind/verbamind/pkg/utils"
)

func TestRarityWithFrequency(t *testing.T) {
	scorer := newFixtureScorer(t)
	ctx := context.Background()

	// freq=2000: base = 100*(1 - log10(2001)/6) ~ 44.98
	result, err := scorer.Rarity(ctx, "cat", "", "en")
	require.NoError(t, err)
	assert.Equal(t, 45, result.Rarity)
	assert.False(t, result.PatternMatch)
}

func TestRarityPatternBoost(t *testing.T) {
	scorer := newFixtureScorer(t)
	ctx := context.Background()

	// base ~44.98, x1.2 ~53.97, rounds to 54
	result, err := scorer.Rarity(ctx, "cat", "CVC", "en")
	require.NoError(t, err)
	assert.Equal(t, 54, result.Rarity)
	assert.True(t, result.PatternMatch)
}

func TestRarityPatternMismatch(t *testing.T) {
	scorer := newFixtureScorer(t)
	ctx := context.Background()

	result, err := scorer.Rarity(ctx, "cat", "CVV", "en")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Rarity)
	assert.False(t, result.PatternMatch)

	// Length mismatch is a plain non-match, not an error
	result, err = scorer.Rarity(ctx, "cat", "CVCC", "en")
	require.NoError(t, err)
	assert.False(t, result.PatternMatch)
}

func TestRarityInvalidPattern(t *testing.T) {
	scorer := newFixtureScorer(t)

	_, err := scorer.Rarity(context.Background(), "cat", "CXC", "en")
	require.Error(t, err)
	assert.Equal(t, utils.ErrCodeInvalidPattern, utils.AsAppError(err).Code)
}

func TestRarityLengthFallback(t *testing.T) {
	scorer := newFixtureScorer(t)
	ctx := context.Background()

	tests := []struct {
		word     string
		expected int
	}{
		{"east", 30},             // len 4, no frequency metadata
		{"zyzzyva", 50},          // len 7, no frequency metadata
		{"ghost", 30},            // absent word still gets length-based rarity
		{"absentmindedness", 90}, // len > 10
	}
	for _, tt := range tests {
		result, err := scorer.Rarity(ctx, tt.word, "", "en")
		require.NoError(t, err)
		assert.Equal(t, tt.expected, result.Rarity, "word %q", tt.word)
	}
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		word    string
		pattern string
		match   bool
	}{
		{"cat", "CVC", true},
		{"idea", "VCVV", true},
		{"cat", "CVV", false},
		{"cats", "CVC", false},
		{"über", "VCVC", false}, // non-ASCII letters never match
		{"c4t", "CVC", false},   // digits are not letters
	}
	for _, tt := range tests {
		got, err := MatchesPattern(tt.word, tt.pattern)
		require.NoError(t, err)
		assert.Equal(t, tt.match, got, "%s vs %s", tt.word, tt.pattern)
	}
}
