package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fyrsmithlabs/ragchatd/internal/config"
)

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(config.VectorStoreConfig{
		Provider:   "chromem",
		VectorSize: 3,
		Collection: "test_collection",
		Chromem:    config.ChromemConfig{Path: t.TempDir()},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRecords() []Record {
	return []Record{
		{ID: "a-1", Vector: []float32{1, 0, 0}, Text: "alpha", Source: "a.pdf", Page: 1},
		{ID: "a-2", Vector: []float32{0, 1, 0}, Text: "beta", Source: "a.pdf", Page: 2},
		{ID: "b-1", Vector: []float32{0, 0, 1}, Text: "gamma", Source: "b.pdf", Page: 1},
	}
}

func TestChromemUpsertAndSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testRecords()))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	matches, err := store.Search(ctx, []float32{1, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "alpha", matches[0].Text)
	assert.Equal(t, "a.pdf", matches[0].Source)
	assert.Equal(t, 1, matches[0].Page)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score, "matches must be sorted by descending score")
}

func TestChromemUpsertIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testRecords()))
	require.NoError(t, store.Upsert(ctx, testRecords()))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "re-upserting the same IDs must not grow the index")
}

func TestChromemSearchEmptyIndex(t *testing.T) {
	store := newTestStore(t)

	matches, err := store.Search(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestChromemSearchCapsKAtIndexSize(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testRecords()))

	matches, err := store.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestChromemDimensionMismatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, []Record{{ID: "x", Vector: []float32{1, 0}, Text: "short"}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = store.Search(ctx, []float32{1, 0, 0, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestChromemUpsertEmpty(t *testing.T) {
	store := newTestStore(t)
	assert.ErrorIs(t, store.Upsert(context.Background(), nil), ErrEmptyRecords)
}

func TestNewSelectsProvider(t *testing.T) {
	store, err := New(config.VectorStoreConfig{
		Provider:   "chromem",
		VectorSize: 3,
		Collection: "factory_test",
		Chromem:    config.ChromemConfig{Path: t.TempDir()},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &ChromemStore{}, store)

	_, err = New(config.VectorStoreConfig{Provider: "pinecone"}, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
