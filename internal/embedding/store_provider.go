package embedding

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/verbamind/verbamind/internal/models"
	"github.com/verbamind/verbamind/internal/vectormath"
	"github.com/verbamind/verbamind/pkg/database"
	"github.com/verbamind/verbamind/pkg/utils"
)

// StoreProvider serves embeddings from the database, one row per
// (word, language). Calls run through a circuit breaker so a struggling
// database degrades to PROVIDER_UNAVAILABLE instead of piling up timeouts.
type StoreProvider struct {
	db      *database.DB
	breaker *gobreaker.CircuitBreaker
	logger  *logrus.Logger
}

// NewStoreProvider creates a database-backed provider. threshold is the
// number of consecutive failures that opens the breaker.
func NewStoreProvider(db *database.DB, threshold int, logger *logrus.Logger) *StoreProvider {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	settings := gobreaker.Settings{
		Name:    "embedding-store",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	}
	return &StoreProvider{
		db:      db,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

func (p *StoreProvider) Get(ctx context.Context, word, language string) (*WordEmbedding, error) {
	word = strings.ToLower(word)

	result, err := p.breaker.Execute(func() (interface{}, error) {
		var row models.WordEmbeddingRow
		err := p.db.WithContext(ctx).
			Where("word = ? AND language = ?", word, language).
			First(&row).Error
		if err != nil {
			return nil, err
		}
		return &row, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound(word, language)
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, utils.NewAppError(utils.ErrCodeProviderUnavailable, "embedding store unavailable", err.Error())
		}
		return nil, utils.NewAppError(utils.ErrCodeProviderUnavailable, "embedding store query failed", err.Error())
	}

	row := result.(*models.WordEmbeddingRow)
	return &WordEmbedding{
		Word:         row.Word,
		Language:     row.Language,
		Vector:       []float64(row.Vector),
		Frequency:    row.Frequency,
		PartOfSpeech: row.PartOfSpeech,
	}, nil
}

func (p *StoreProvider) Has(ctx context.Context, word, language string) (bool, error) {
	_, err := p.Get(ctx, word, language)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// StoreMany upserts embeddings in bulk and returns the number written.
// Conflicting (word, language) rows are replaced.
func (p *StoreProvider) StoreMany(ctx context.Context, embeddings []*WordEmbedding) (int, error) {
	if len(embeddings) == 0 {
		return 0, nil
	}

	rows := make([]models.WordEmbeddingRow, 0, len(embeddings))
	for _, emb := range embeddings {
		rows = append(rows, models.WordEmbeddingRow{
			Word:         strings.ToLower(emb.Word),
			Language:     emb.Language,
			Vector:       models.FloatVector(emb.Vector),
			Frequency:    emb.Frequency,
			PartOfSpeech: emb.PartOfSpeech,
		})
	}

	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "word"}, {Name: "language"}},
			UpdateAll: true,
		}).
		CreateInBatches(rows, 500).Error
	if err != nil {
		return 0, utils.NewAppError(utils.ErrCodeProviderUnavailable, "embedding bulk write failed", err.Error())
	}
	return len(rows), nil
}

// FindSimilar scans the language's rows and returns the k nearest words by
// cosine similarity. Stands in for a dedicated vector-similarity RPC; fine at
// vocabulary sizes this service carries, revisit if the table outgrows it.
func (p *StoreProvider) FindSimilar(ctx context.Context, vector []float64, language string, k int) ([]SimilarWord, error) {
	if k <= 0 {
		return nil, nil
	}

	hits := make([]SimilarWord, 0, 256)
	batch := make([]models.WordEmbeddingRow, 0, 500)
	err := p.db.WithContext(ctx).
		Where("language = ?", language).
		FindInBatches(&batch, 500, func(tx *gorm.DB, _ int) error {
			for _, row := range batch {
				score, err := vectormath.Cosine(vector, []float64(row.Vector))
				if err != nil {
					continue // dimension drift in old rows, skip
				}
				hits = append(hits, SimilarWord{Word: row.Word, Score: score})
			}
			return nil
		}).Error
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeProviderUnavailable, "similarity scan failed", err.Error())
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}
