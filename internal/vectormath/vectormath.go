// Package vectormath provides the pure numeric primitives behind semantic
// scoring. All functions operate on plain float64 slices and do no I/O.
package vectormath

import (
	"math"

	"github.com/verbamind/verbamind/pkg/utils"
)

// Epsilon is the tolerance used when checking unit norms.
const Epsilon = 1e-9

// Dot returns the dot product of two equal-length vectors.
func Dot(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, utils.NewAppError(utils.ErrCodeDimensionMismatch, "vector dimensions differ")
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum, nil
}

// Magnitude returns the L2 norm of v.
func Magnitude(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of a and b, clamped to [0,1].
// Negative cosine is floored to 0: opposite-direction vectors count as
// unrelated rather than anti-related, which every scorer operation relies on.
// A zero vector on either side yields 0.
func Cosine(a, b []float64) (float64, error) {
	dot, err := Dot(a, b)
	if err != nil {
		return 0, err
	}
	magA := Magnitude(a)
	magB := Magnitude(b)
	if magA == 0 || magB == 0 {
		return 0, nil
	}
	cos := dot / (magA * magB)
	if cos < 0 {
		return 0, nil
	}
	if cos > 1 {
		return 1, nil
	}
	return cos, nil
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged as the "no signal" sentinel.
func Normalize(v []float64) []float64 {
	mag := Magnitude(v)
	if mag == 0 {
		out := make([]float64, len(v))
		copy(out, v)
		return out
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / mag
	}
	return out
}

// Midpoint returns the normalized element-wise average of a and b.
func Midpoint(a, b []float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, utils.NewAppError(utils.ErrCodeDimensionMismatch, "vector dimensions differ")
	}
	mid := make([]float64, len(a))
	for i := range a {
		mid[i] = (a[i] + b[i]) / 2
	}
	return Normalize(mid), nil
}

// Interpolate returns the normalized linear interpolation a + alpha*(b-a).
// alpha is not clamped here; callers decide their own bounds.
func Interpolate(a, b []float64, alpha float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, utils.NewAppError(utils.ErrCodeDimensionMismatch, "vector dimensions differ")
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + alpha*(b[i]-a[i])
	}
	return Normalize(out), nil
}

// Centroid returns the normalized element-wise mean of a non-empty vector
// list.
func Centroid(vs [][]float64) ([]float64, error) {
	if len(vs) == 0 {
		return nil, utils.NewAppError(utils.ErrCodeEmptyCluster, "centroid of empty vector list")
	}
	dim := len(vs[0])
	sum := make([]float64, dim)
	for _, v := range vs {
		if len(v) != dim {
			return nil, utils.NewAppError(utils.ErrCodeDimensionMismatch, "vector dimensions differ")
		}
		for i, x := range v {
			sum[i] += x
		}
	}
	n := float64(len(vs))
	for i := range sum {
		sum[i] /= n
	}
	return Normalize(sum), nil
}

// ProjectOnto returns the position of p along the segment a->b as a scalar in
// [0,1]. When a and b coincide the position is defined as 0.5.
func ProjectOnto(p, a, b []float64) (float64, error) {
	if len(p) != len(a) || len(a) != len(b) {
		return 0, utils.NewAppError(utils.ErrCodeDimensionMismatch, "vector dimensions differ")
	}
	var num, den float64
	for i := range a {
		d := b[i] - a[i]
		num += (p[i] - a[i]) * d
		den += d * d
	}
	if den == 0 {
		return 0.5, nil
	}
	t := num / den
	if t < 0 {
		return 0, nil
	}
	if t > 1 {
		return 1, nil
	}
	return t, nil
}

// RoundHalfAwayFromZero rounds to the nearest integer with halves moving away
// from zero, fixed for reproducibility across platforms.
func RoundHalfAwayFromZero(x float64) int {
	if x >= 0 {
		return int(math.Floor(x + 0.5))
	}
	return int(math.Ceil(x - 0.5))
}

// Clamp restricts x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
