// Package semantics implements the named scoring operations games are built
// on. Every operation converts embedding absence into a policy value (usually
// zero) rather than an error; only transient provider faults propagate.
package semantics

import (
	"context"
	"sort"

	"github.com/verbamind/verbamind/internal/embedding"
	"github.com/verbamind/verbamind/internal/vectormath"
	"github.com/verbamind/verbamind/pkg/utils"
)

type Scorer struct {
	embeddings *embedding.Service
}

func NewScorer(embeddings *embedding.Service) *Scorer {
	return &Scorer{embeddings: embeddings}
}

// BestMatch is the winner of an argmax operation. A zero Word means no
// candidate resolved.
type BestMatch struct {
	Word  string  `json:"word"`
	Score float64 `json:"score"`
}

// HeatResult reports closeness to a cluster centroid.
type HeatResult struct {
	Heat     float64 `json:"heat"`     // cosine to center, [0,1]
	Distance float64 `json:"distance"` // 1 - heat
}

// WordHeat pairs a word with its cluster heat for ranking.
type WordHeat struct {
	Word string  `json:"word"`
	Heat float64 `json:"heat"`
}

// MidpointResult scores a word against the semantic midpoint of two anchors.
type MidpointResult struct {
	Score     float64 `json:"score"`      // cosine to the midpoint, [0,1]
	DistanceA float64 `json:"distance_a"` // 1 - cos(word, A)
	DistanceB float64 `json:"distance_b"` // 1 - cos(word, B)
}

// vec resolves a word's vector. The bool is false when the embedding is
// absent; only non-absence faults are returned as errors.
func (s *Scorer) vec(ctx context.Context, word, language string) ([]float64, bool, error) {
	emb, err := s.embeddings.Get(ctx, word, language)
	if err != nil {
		if embedding.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return emb.Vector, true, nil
}

// Similarity returns the clamped cosine of two words, 0 when either is
// unknown.
func (s *Scorer) Similarity(ctx context.Context, a, b, language string) (float64, error) {
	va, ok, err := s.vec(ctx, a, language)
	if err != nil || !ok {
		return 0, err
	}
	vb, ok, err := s.vec(ctx, b, language)
	if err != nil || !ok {
		return 0, err
	}
	return vectormath.Cosine(va, vb)
}

// SimilarityToVector returns the clamped cosine of a word against a raw
// vector, 0 when the word is unknown.
func (s *Scorer) SimilarityToVector(ctx context.Context, word string, vector []float64, language string) (float64, error) {
	v, ok, err := s.vec(ctx, word, language)
	if err != nil || !ok {
		return 0, err
	}
	return vectormath.Cosine(v, vector)
}

// AverageSimilarity returns the mean similarity of word against each entry of
// words. Missing entries contribute zero; an empty list scores zero.
func (s *Scorer) AverageSimilarity(ctx context.Context, word string, words []string, language string) (float64, error) {
	if len(words) == 0 {
		return 0, nil
	}
	var sum float64
	for _, other := range words {
		score, err := s.Similarity(ctx, word, other, language)
		if err != nil {
			return 0, err
		}
		sum += score
	}
	return sum / float64(len(words)), nil
}

// FindMostSimilar returns the candidate closest to word. Unresolvable
// candidates are skipped; an unknown target yields a zero BestMatch.
func (s *Scorer) FindMostSimilar(ctx context.Context, word string, candidates []string, language string) (BestMatch, error) {
	target, ok, err := s.vec(ctx, word, language)
	if err != nil {
		return BestMatch{}, err
	}
	if !ok {
		return BestMatch{}, nil
	}

	best := BestMatch{Score: -1}
	for _, cand := range candidates {
		v, ok, err := s.vec(ctx, cand, language)
		if err != nil {
			return BestMatch{}, err
		}
		if !ok {
			continue
		}
		score, err := vectormath.Cosine(target, v)
		if err != nil {
			return BestMatch{}, err
		}
		if score > best.Score {
			best = BestMatch{Word: cand, Score: score}
		}
	}
	if best.Score < 0 {
		return BestMatch{}, nil
	}
	return best, nil
}

// ClusterCenter returns the normalized centroid of the words that resolve.
// All-absent input fails with EMPTY_CLUSTER.
func (s *Scorer) ClusterCenter(ctx context.Context, words []string, language string) ([]float64, error) {
	vectors := make([][]float64, 0, len(words))
	for _, w := range words {
		v, ok, err := s.vec(ctx, w, language)
		if err != nil {
			return nil, err
		}
		if ok {
			vectors = append(vectors, v)
		}
	}
	if len(vectors) == 0 {
		return nil, utils.NewAppError(utils.ErrCodeEmptyCluster, "no cluster words resolved")
	}
	return vectormath.Centroid(vectors)
}

// ClusterHeat scores a word against a cluster centroid. Unknown words are
// fully cold.
func (s *Scorer) ClusterHeat(ctx context.Context, word string, center []float64, language string) (HeatResult, error) {
	heat, err := s.SimilarityToVector(ctx, word, center, language)
	if err != nil {
		return HeatResult{}, err
	}
	return HeatResult{Heat: heat, Distance: 1 - heat}, nil
}

// RankByClusterHeat orders words by descending heat against center. Ties keep
// input order.
func (s *Scorer) RankByClusterHeat(ctx context.Context, words []string, center []float64, language string) ([]WordHeat, error) {
	ranked := make([]WordHeat, 0, len(words))
	for _, w := range words {
		result, err := s.ClusterHeat(ctx, w, center, language)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, WordHeat{Word: w, Heat: result.Heat})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Heat > ranked[j].Heat
	})
	return ranked, nil
}

// MidpointScore scores word against the semantic midpoint of anchors a and b.
// Any absent word zeroes the whole result.
func (s *Scorer) MidpointScore(ctx context.Context, word, a, b, language string) (MidpointResult, error) {
	vw, ok, err := s.vec(ctx, word, language)
	if err != nil || !ok {
		return MidpointResult{DistanceA: 1, DistanceB: 1}, err
	}
	va, ok, err := s.vec(ctx, a, language)
	if err != nil || !ok {
		return MidpointResult{DistanceA: 1, DistanceB: 1}, err
	}
	vb, ok, err := s.vec(ctx, b, language)
	if err != nil || !ok {
		return MidpointResult{DistanceA: 1, DistanceB: 1}, err
	}

	mid, err := vectormath.Midpoint(va, vb)
	if err != nil {
		return MidpointResult{}, err
	}
	score, err := vectormath.Cosine(vw, mid)
	if err != nil {
		return MidpointResult{}, err
	}
	cosA, err := vectormath.Cosine(vw, va)
	if err != nil {
		return MidpointResult{}, err
	}
	cosB, err := vectormath.Cosine(vw, vb)
	if err != nil {
		return MidpointResult{}, err
	}
	return MidpointResult{Score: score, DistanceA: 1 - cosA, DistanceB: 1 - cosB}, nil
}

// BalanceScore rewards words equally close to both anchors:
// 1 - |cos(w,A) - cos(w,B)|. Any absent word scores zero.
func (s *Scorer) BalanceScore(ctx context.Context, word, a, b, language string) (float64, error) {
	vw, ok, err := s.vec(ctx, word, language)
	if err != nil || !ok {
		return 0, err
	}
	va, ok, err := s.vec(ctx, a, language)
	if err != nil || !ok {
		return 0, err
	}
	vb, ok, err := s.vec(ctx, b, language)
	if err != nil || !ok {
		return 0, err
	}
	cosA, err := vectormath.Cosine(vw, va)
	if err != nil {
		return 0, err
	}
	cosB, err := vectormath.Cosine(vw, vb)
	if err != nil {
		return 0, err
	}
	diff := cosA - cosB
	if diff < 0 {
		diff = -diff
	}
	return 1 - diff, nil
}

// FindBestMidpoint returns the candidate with the highest midpoint score
// between anchors a and b, skipping unresolved candidates.
func (s *Scorer) FindBestMidpoint(ctx context.Context, candidates []string, a, b, language string) (BestMatch, error) {
	best := BestMatch{Score: -1}
	for _, cand := range candidates {
		_, ok, err := s.vec(ctx, cand, language)
		if err != nil {
			return BestMatch{}, err
		}
		if !ok {
			continue
		}
		result, err := s.MidpointScore(ctx, cand, a, b, language)
		if err != nil {
			return BestMatch{}, err
		}
		if result.Score > best.Score {
			best = BestMatch{Word: cand, Score: result.Score}
		}
	}
	if best.Score < 0 {
		return BestMatch{}, nil
	}
	return best, nil
}

// InterpolateVectors returns the normalized interpolation between two word
// vectors. Unlike the score operations, absence here is an error: there is no
// meaningful fallback vector.
func (s *Scorer) InterpolateVectors(ctx context.Context, a, b string, alpha float64, language string) ([]float64, error) {
	va, err := s.mustVec(ctx, a, language)
	if err != nil {
		return nil, err
	}
	vb, err := s.mustVec(ctx, b, language)
	if err != nil {
		return nil, err
	}
	return vectormath.Interpolate(va, vb, alpha)
}

// GradientDirection returns the unit vector pointing from a to b.
func (s *Scorer) GradientDirection(ctx context.Context, a, b, language string) ([]float64, error) {
	va, err := s.mustVec(ctx, a, language)
	if err != nil {
		return nil, err
	}
	vb, err := s.mustVec(ctx, b, language)
	if err != nil {
		return nil, err
	}
	diff := make([]float64, len(va))
	for i := range va {
		diff[i] = vb[i] - va[i]
	}
	return vectormath.Normalize(diff), nil
}

// ProjectOntoGradient places word along the a->b axis in [0,1]. Any absent
// word lands in the middle.
func (s *Scorer) ProjectOntoGradient(ctx context.Context, word, a, b, language string) (float64, error) {
	vw, ok, err := s.vec(ctx, word, language)
	if err != nil {
		return 0.5, err
	}
	va, okA, errA := s.vec(ctx, a, language)
	if errA != nil {
		return 0.5, errA
	}
	vb, okB, errB := s.vec(ctx, b, language)
	if errB != nil {
		return 0.5, errB
	}
	if !ok || !okA || !okB {
		return 0.5, nil
	}
	return vectormath.ProjectOnto(vw, va, vb)
}

// TriangleScore is the mean of the three pairwise similarities of an anchor
// and two words. Any absent word zeroes the result.
func (s *Scorer) TriangleScore(ctx context.Context, anchor, w1, w2, language string) (float64, error) {
	va, ok, err := s.vec(ctx, anchor, language)
	if err != nil || !ok {
		return 0, err
	}
	v1, ok, err := s.vec(ctx, w1, language)
	if err != nil || !ok {
		return 0, err
	}
	v2, ok, err := s.vec(ctx, w2, language)
	if err != nil || !ok {
		return 0, err
	}

	c1, err := vectormath.Cosine(va, v1)
	if err != nil {
		return 0, err
	}
	c2, err := vectormath.Cosine(va, v2)
	if err != nil {
		return 0, err
	}
	c3, err := vectormath.Cosine(v1, v2)
	if err != nil {
		return 0, err
	}
	return (c1 + c2 + c3) / 3, nil
}

// PivotScore sums a pivot word's similarity to both anchors, landing in
// [0,2]. Any absent word zeroes the result.
func (s *Scorer) PivotScore(ctx context.Context, pivot, a, b, language string) (float64, error) {
	vp, ok, err := s.vec(ctx, pivot, language)
	if err != nil || !ok {
		return 0, err
	}
	va, ok, err := s.vec(ctx, a, language)
	if err != nil || !ok {
		return 0, err
	}
	vb, ok, err := s.vec(ctx, b, language)
	if err != nil || !ok {
		return 0, err
	}
	cosA, err := vectormath.Cosine(vp, va)
	if err != nil {
		return 0, err
	}
	cosB, err := vectormath.Cosine(vp, vb)
	if err != nil {
		return 0, err
	}
	return cosA + cosB, nil
}

// FindSimilarWords exposes the provider's nearest-word search, for games and
// endpoints that need candidate generation.
func (s *Scorer) FindSimilarWords(ctx context.Context, vector []float64, language string, k int) ([]embedding.SimilarWord, error) {
	return s.embeddings.FindSimilar(ctx, vector, language, k)
}

// Neighbors returns the k nearest catalog words to word. Absence is an error
// here: with no vector there is nothing to search from.
func (s *Scorer) Neighbors(ctx context.Context, word, language string, k int) ([]embedding.SimilarWord, error) {
	v, err := s.mustVec(ctx, word, language)
	if err != nil {
		return nil, err
	}
	return s.FindSimilarWords(ctx, v, language, k)
}

func (s *Scorer) mustVec(ctx context.Context, word, language string) ([]float64, error) {
	v, ok, err := s.vec(ctx, word, language)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, embedding.ErrNotFound(word, language)
	}
	return v, nil
}
