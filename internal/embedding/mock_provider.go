package embedding

import (
	"context"
	"math"
	"strings"

	"github.com/verbamind/verbamind/internal/vectormath"
)

// MockProvider derives a deterministic pseudo-vector from the characters of a
// word. The same (word, language, dimension) always yields the same unit
// vector, which makes scorer and engine tests reproducible without fixtures.
type MockProvider struct {
	dimension int
}

func NewMockProvider(dimension int) *MockProvider {
	return &MockProvider{dimension: dimension}
}

func (p *MockProvider) Get(ctx context.Context, word, language string) (*WordEmbedding, error) {
	word = strings.ToLower(word)
	if word == "" {
		return nil, ErrNotFound(word, language)
	}

	vector := make([]float64, p.dimension)
	for i := range vector {
		var phase float64
		for j, r := range word {
			phase += float64(r) * float64(j+1)
		}
		vector[i] = math.Sin(phase + float64(i)*0.7)
	}

	return &WordEmbedding{
		Word:     word,
		Language: language,
		Vector:   vectormath.Normalize(vector),
		// Rough proxy so rarity has something to chew on in tests
		Frequency: float64(1000 / len(word)),
	}, nil
}

func (p *MockProvider) Has(ctx context.Context, word, language string) (bool, error) {
	return word != "", nil
}
