package embedding

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/verbamind/verbamind/pkg/utils"
)

// Service wraps a provider with a bounded LRU cache keyed by
// (language, lowercased word). The cache is the only process-wide mutable
// state in the engine; concurrent misses on the same key collapse into a
// single provider load.
type Service struct {
	provider Provider
	cache    *lru.Cache[string, *WordEmbedding]
	group    singleflight.Group
}

// NewService creates a cached embedding service. cacheSize bounds the number
// of resident embeddings.
func NewService(provider Provider, cacheSize int) (*Service, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, *WordEmbedding](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return &Service{
		provider: provider,
		cache:    cache,
	}, nil
}

func cacheKey(word, language string) string {
	return language + ":" + word
}

// Get resolves the embedding for (word, language), case-folding the word.
// Absence surfaces as an EMBEDDING_NOT_FOUND AppError; absence results are
// not cached so late-loaded words become visible.
func (s *Service) Get(ctx context.Context, word, language string) (*WordEmbedding, error) {
	word = strings.ToLower(word)
	key := cacheKey(word, language)

	if emb, ok := s.cache.Get(key); ok {
		return emb, nil
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		if emb, ok := s.cache.Get(key); ok {
			return emb, nil
		}
		emb, err := s.provider.Get(ctx, word, language)
		if err != nil {
			return nil, err
		}
		s.cache.Add(key, emb)
		return emb, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*WordEmbedding), nil
}

// Has reports whether the word resolves without forcing a full load when the
// provider can answer existence cheaply.
func (s *Service) Has(ctx context.Context, word, language string) (bool, error) {
	word = strings.ToLower(word)
	if _, ok := s.cache.Get(cacheKey(word, language)); ok {
		return true, nil
	}
	return s.provider.Has(ctx, word, language)
}

// FindSimilar delegates to the provider when it supports similarity search.
func (s *Service) FindSimilar(ctx context.Context, vector []float64, language string, k int) ([]SimilarWord, error) {
	searcher, ok := s.provider.(SimilaritySearcher)
	if !ok {
		return nil, utils.NewAppError(utils.ErrCodeValidation, "provider does not support similarity search")
	}
	return searcher.FindSimilar(ctx, vector, language, k)
}

// StoreMany delegates to the provider when it supports bulk writes.
func (s *Service) StoreMany(ctx context.Context, embeddings []*WordEmbedding) (int, error) {
	writer, ok := s.provider.(BulkWriter)
	if !ok {
		return 0, utils.NewAppError(utils.ErrCodeValidation, "provider does not support bulk writes")
	}
	return writer.StoreMany(ctx, embeddings)
}

// CacheLen returns the number of cached embeddings, for health reporting.
func (s *Service) CacheLen() int {
	return s.cache.Len()
}
