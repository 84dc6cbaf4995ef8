package embedding

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/verbamind/verbamind/internal/models"
	"github.com/verbamind/verbamind/pkg/database"
	"github.com/verbamind/verbamind/pkg/utils"
)

func newStoreDB(t *testing.T) *database.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.WordEmbeddingRow{}))
	return &database.DB{DB: db}
}

func TestStoreProviderRoundTrip(t *testing.T) {
	p := NewStoreProvider(newStoreDB(t), 5, nil)
	ctx := context.Background()

	n, err := p.StoreMany(ctx, []*WordEmbedding{
		{Word: "Apple", Language: "en", Vector: []float64{1, 0, 0}, Frequency: 0.9},
		{Word: "banana", Language: "en", Vector: []float64{0, 1, 0}, Frequency: 0.4},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := p.Get(ctx, "APPLE", "en")
	require.NoError(t, err)
	assert.Equal(t, "apple", got.Word)
	assert.Equal(t, []float64{1, 0, 0}, got.Vector)
	assert.Equal(t, 0.9, got.Frequency)

	_, err = p.Get(ctx, "cherry", "en")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	ok, err := p.Has(ctx, "banana", "en")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = p.Has(ctx, "banana", "fr")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreProviderUpsertReplaces(t *testing.T) {
	db := newStoreDB(t)
	p := NewStoreProvider(db, 5, nil)
	ctx := context.Background()

	_, err := p.StoreMany(ctx, []*WordEmbedding{
		{Word: "apple", Language: "en", Vector: []float64{1, 0, 0}},
	})
	require.NoError(t, err)
	_, err = p.StoreMany(ctx, []*WordEmbedding{
		{Word: "apple", Language: "en", Vector: []float64{0, 0, 1}},
	})
	require.NoError(t, err)

	got, err := p.Get(ctx, "apple", "en")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1}, got.Vector)

	var count int64
	require.NoError(t, db.Model(&models.WordEmbeddingRow{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestStoreProviderFindSimilar(t *testing.T) {
	p := NewStoreProvider(newStoreDB(t), 5, nil)
	ctx := context.Background()

	_, err := p.StoreMany(ctx, []*WordEmbedding{
		{Word: "apple", Language: "en", Vector: []float64{1, 0, 0}},
		{Word: "apricot", Language: "en", Vector: []float64{0.9, 0.1, 0}},
		{Word: "submarine", Language: "en", Vector: []float64{0, 0, 1}},
		{Word: "pomme", Language: "fr", Vector: []float64{1, 0, 0}},
	})
	require.NoError(t, err)

	hits, err := p.FindSimilar(ctx, []float64{1, 0, 0}, "en", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "apple", hits[0].Word)
	assert.Equal(t, "apricot", hits[1].Word)
	assert.Greater(t, hits[0].Score, hits[1].Score)

	none, err := p.FindSimilar(ctx, []float64{1, 0, 0}, "en", 0)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestStoreProviderBreakerSurfacesUnavailable(t *testing.T) {
	db := newStoreDB(t)
	p := NewStoreProvider(db, 2, nil)
	ctx := context.Background()

	require.NoError(t, db.Migrator().DropTable(&models.WordEmbeddingRow{}))

	for i := 0; i < 4; i++ {
		_, err := p.Get(ctx, "apple", "en")
		require.Error(t, err)
		assert.False(t, IsNotFound(err))
		assert.Equal(t, utils.ErrCodeProviderUnavailable, utils.AsAppError(err).Code)
	}
}
