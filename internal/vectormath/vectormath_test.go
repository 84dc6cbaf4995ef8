package vectormath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verbamind/verbamind/pkg/utils"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{
			name:     "Identical vectors",
			a:        []float64{1, 2, 3},
			b:        []float64{1, 2, 3},
			expected: 1,
		},
		{
			name:     "Orthogonal vectors",
			a:        []float64{1, 0},
			b:        []float64{0, 1},
			expected: 0,
		},
		{
			name:     "Opposite vectors clamp to zero",
			a:        []float64{1, 0},
			b:        []float64{-1, 0},
			expected: 0,
		},
		{
			name:     "Zero vector yields zero",
			a:        []float64{0, 0},
			b:        []float64{1, 1},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestCosineSymmetry(t *testing.T) {
	a := []float64{0.3, -0.4, 0.9}
	b := []float64{0.1, 0.7, 0.2}

	ab, err := Cosine(a, b)
	require.NoError(t, err)
	ba, err := Cosine(b, a)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)

	self, err := Cosine(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1, self, 1e-12)
}

func TestCosineDimensionMismatch(t *testing.T) {
	_, err := Cosine([]float64{1, 2}, []float64{1, 2, 3})
	require.Error(t, err)
	appErr := utils.AsAppError(err)
	assert.Equal(t, utils.ErrCodeDimensionMismatch, appErr.Code)
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float64{3, 4})
	assert.InDelta(t, 1, Magnitude(v), Epsilon)
	assert.InDelta(t, 0.6, v[0], 1e-12)
	assert.InDelta(t, 0.8, v[1], 1e-12)

	zero := Normalize([]float64{0, 0, 0})
	assert.Equal(t, []float64{0, 0, 0}, zero)
}

func TestNormalizeUnitNormProperty(t *testing.T) {
	vectors := [][]float64{
		{1e-8, 2e-8},
		{100, -200, 300},
		{0.001, 0.002, 0.003, 0.004},
	}
	for _, v := range vectors {
		assert.InDelta(t, 1, Magnitude(Normalize(v)), Epsilon)
	}
}

func TestMidpoint(t *testing.T) {
	mid, err := Midpoint([]float64{1, 0}, []float64{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1/math.Sqrt(2), mid[0], 1e-12)
	assert.InDelta(t, 1/math.Sqrt(2), mid[1], 1e-12)
}

func TestInterpolate(t *testing.T) {
	a := []float64{1, 0}
	b := []float64{0, 1}

	atA, err := Interpolate(a, b, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1, atA[0], 1e-12)

	atB, err := Interpolate(a, b, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1, atB[1], 1e-12)

	half, err := Interpolate(a, b, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, half[0], half[1], 1e-12)
	assert.InDelta(t, 1, Magnitude(half), Epsilon)
}

func TestCentroid(t *testing.T) {
	c, err := Centroid([][]float64{{1, 0}, {0, 1}})
	require.NoError(t, err)
	assert.InDelta(t, c[0], c[1], 1e-12)
	assert.InDelta(t, 1, Magnitude(c), Epsilon)

	_, err = Centroid(nil)
	require.Error(t, err)
	assert.Equal(t, utils.ErrCodeEmptyCluster, utils.AsAppError(err).Code)
}

func TestProjectOnto(t *testing.T) {
	a := []float64{0, 0}
	b := []float64{10, 0}

	start, err := ProjectOnto(a, a, b)
	require.NoError(t, err)
	assert.Equal(t, 0.0, start)

	end, err := ProjectOnto(b, a, b)
	require.NoError(t, err)
	assert.Equal(t, 1.0, end)

	mid, err := ProjectOnto([]float64{5, 3}, a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, mid, 1e-12)

	// Points beyond either endpoint clamp.
	before, err := ProjectOnto([]float64{-5, 0}, a, b)
	require.NoError(t, err)
	assert.Equal(t, 0.0, before)

	// Degenerate segment defaults to the middle.
	deg, err := ProjectOnto([]float64{1, 1}, a, a)
	require.NoError(t, err)
	assert.Equal(t, 0.5, deg)
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 1, RoundHalfAwayFromZero(0.5))
	assert.Equal(t, -1, RoundHalfAwayFromZero(-0.5))
	assert.Equal(t, 2, RoundHalfAwayFromZero(1.5))
	assert.Equal(t, 54, RoundHalfAwayFromZero(53.93))
	assert.Equal(t, 0, RoundHalfAwayFromZero(0.4999))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-3, 0, 100))
	assert.Equal(t, 100.0, Clamp(170, 0, 100))
	assert.Equal(t, 42.0, Clamp(42, 0, 100))
}
