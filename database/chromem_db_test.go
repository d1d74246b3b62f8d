package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChromemStoreSearchEmptyNamespace(t *testing.T) {
	store := NewInMemoryChromemStore()

	results, err := store.Search(context.Background(), "nothing-here", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChromemStoreUpsertAndSearchTopK(t *testing.T) {
	store := NewInMemoryChromemStore()
	ctx := context.Background()

	records := []VectorRecord{
		{ID: "a", Vector: []float32{1, 0, 0}, Content: "chunk a", Metadata: map[string]string{"page": "1"}},
		{ID: "b", Vector: []float32{0.8, 0.6, 0}, Content: "chunk b", Metadata: map[string]string{"page": "1"}},
		{ID: "c", Vector: []float32{0, 1, 0}, Content: "chunk c", Metadata: map[string]string{"page": "2"}},
		{ID: "d", Vector: []float32{0.6, 0.8, 0}, Content: "chunk d", Metadata: map[string]string{"page": "2"}},
	}
	stored, err := store.Upsert(ctx, "ns-1", records)
	require.NoError(t, err)
	assert.Equal(t, 4, stored)

	results, err := store.Search(ctx, "ns-1", []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "chunk a", results[0].Content)
	assert.Equal(t, "chunk b", results[1].Content)
	assert.Equal(t, "chunk d", results[2].Content)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
	}
	assert.InDelta(t, 1.0, results[0].Score, 0.001)
}

func TestChromemStoreUpsertOverwritesByID(t *testing.T) {
	store := NewInMemoryChromemStore()
	ctx := context.Background()

	_, err := store.Upsert(ctx, "ns-1", []VectorRecord{
		{ID: "x", Vector: []float32{0, 1, 0}, Content: "old text"},
	})
	require.NoError(t, err)

	_, err = store.Upsert(ctx, "ns-1", []VectorRecord{
		{ID: "x", Vector: []float32{1, 0, 0}, Content: "new text"},
	})
	require.NoError(t, err)

	results, err := store.Search(ctx, "ns-1", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new text", results[0].Content)
	assert.InDelta(t, 1.0, results[0].Score, 0.001)
}

func TestChromemStoreNamespaceIsolation(t *testing.T) {
	store := NewInMemoryChromemStore()
	ctx := context.Background()

	_, err := store.Upsert(ctx, "ns-1", []VectorRecord{
		{ID: "a", Vector: []float32{1, 0, 0}, Content: "in ns-1"},
	})
	require.NoError(t, err)
	_, err = store.Upsert(ctx, "ns-2", []VectorRecord{
		{ID: "b", Vector: []float32{1, 0, 0}, Content: "in ns-2"},
	})
	require.NoError(t, err)

	results, err := store.Search(ctx, "ns-1", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "in ns-1", results[0].Content)
}

func TestChromemStoreDeleteNamespace(t *testing.T) {
	store := NewInMemoryChromemStore()
	ctx := context.Background()

	_, err := store.Upsert(ctx, "ns-1", []VectorRecord{
		{ID: "a", Vector: []float32{1, 0, 0}, Content: "chunk a"},
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteNamespace(ctx, "ns-1"))

	results, err := store.Search(ctx, "ns-1", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	// deleting a namespace that never existed is fine
	assert.NoError(t, store.DeleteNamespace(ctx, "ns-unknown"))
}
