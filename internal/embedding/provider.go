// Package embedding provides keyed lookup of word vectors behind a pluggable
// provider, fronted by a bounded cache with single-flight miss deduplication.
package embedding

import (
	"context"

	"github.com/verbamind/verbamind/pkg/utils"
)

// WordEmbedding is a unit-norm vector for a (word, language) pair plus
// optional frequency metadata. Immutable once loaded.
type WordEmbedding struct {
	Word         string    `json:"word"` // lowercased
	Language     string    `json:"language"`
	Vector       []float64 `json:"vector"`
	Frequency    float64   `json:"frequency,omitempty"`
	PartOfSpeech string    `json:"part_of_speech,omitempty"`
}

// SimilarWord is one hit from a vector-similarity search.
type SimilarWord struct {
	Word  string  `json:"word"`
	Score float64 `json:"score"`
}

// Provider resolves embeddings. Absence is a terminal result, not a fault:
// implementations return an EMBEDDING_NOT_FOUND AppError and callers decide
// their own policy.
type Provider interface {
	Get(ctx context.Context, word, language string) (*WordEmbedding, error)
	Has(ctx context.Context, word, language string) (bool, error)
}

// SimilaritySearcher is implemented by providers that can run nearest-word
// queries against their backing store.
type SimilaritySearcher interface {
	FindSimilar(ctx context.Context, vector []float64, language string, k int) ([]SimilarWord, error)
}

// BulkWriter is implemented by the persistent provider variant.
type BulkWriter interface {
	StoreMany(ctx context.Context, embeddings []*WordEmbedding) (int, error)
}

// ErrNotFound builds the canonical absence error for a lookup.
func ErrNotFound(word, language string) *utils.AppError {
	return utils.NewAppError(utils.ErrCodeEmbeddingNotFound, "embedding not found",
		language+":"+word)
}

// IsNotFound reports whether err is an embedding-absence result.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return utils.AsAppError(err).Code == utils.ErrCodeEmbeddingNotFound
}
