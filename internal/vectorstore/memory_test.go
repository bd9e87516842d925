package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func testEntries() []Entry {
	return []Entry{
		{ChunkID: "c1", DocumentID: "doc-a", Text: "alpha", Page: 1, Embedding: []float32{1, 0, 0}},
		{ChunkID: "c2", DocumentID: "doc-a", Text: "beta", Page: 2, Embedding: []float32{0.9, 0.1, 0}},
		{ChunkID: "c3", DocumentID: "doc-b", Text: "gamma", Page: 1, Embedding: []float32{0, 1, 0}},
		{ChunkID: "c4", DocumentID: "doc-c", Text: "delta", Page: 1, Embedding: []float32{0, 0, 1}},
	}
}

func TestCosineSimilarity(t *testing.T) {
	require.InDelta(t, 1.0, float64(CosineSimilarity([]float32{1, 0}, []float32{2, 0})), 1e-6)
	require.InDelta(t, 0.0, float64(CosineSimilarity([]float32{1, 0}, []float32{0, 1})), 1e-6)
	require.Equal(t, float32(0), CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestMemoryStoreSearchGroupsByDocument(t *testing.T) {
	store, err := NewMemoryStore("")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.AddBatch(ctx, testEntries()))

	hits, err := store.Search(ctx, []float32{1, 0, 0}, nil, 3)
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	// Both doc-a chunks score highest and land in a single document hit.
	require.Equal(t, "doc-a", hits[0].DocumentID)
	require.Len(t, hits[0].Chunks, 2)
	require.Equal(t, "c1", hits[0].Chunks[0].ChunkID)
	require.InDelta(t, 1.0, float64(hits[0].Score), 1e-6)

	// Document score is the best chunk score, and documents come back
	// best first.
	for i := 1; i < len(hits); i++ {
		require.LessOrEqual(t, hits[i].Score, hits[i-1].Score)
	}
}

func TestMemoryStoreSearchFiltersDocuments(t *testing.T) {
	store, err := NewMemoryStore("")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.AddBatch(ctx, testEntries()))

	hits, err := store.Search(ctx, []float32{1, 0, 0}, []string{"doc-b"}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "doc-b", hits[0].DocumentID)
}

func TestMemoryStoreDeleteDocument(t *testing.T) {
	store, err := NewMemoryStore("")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.AddBatch(ctx, testEntries()))
	require.NoError(t, store.DeleteDocument(ctx, "doc-a"))
	require.Equal(t, 2, store.Len())

	hits, err := store.Search(ctx, []float32{1, 0, 0}, []string{"doc-a"}, 5)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestMemoryStoreSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewMemoryStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.AddBatch(ctx, testEntries()))

	reopened, err := NewMemoryStore(dir)
	require.NoError(t, err)
	require.Equal(t, 4, reopened.Len())

	hits, err := reopened.Search(ctx, []float32{0, 1, 0}, nil, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "doc-b", hits[0].DocumentID)
}

func TestRankEntriesTopKLimit(t *testing.T) {
	hits := rankEntries(testEntries(), []float32{1, 0, 0}, nil, 1)
	require.Len(t, hits, 1)
	require.Len(t, hits[0].Chunks, 1)
	require.Equal(t, "c1", hits[0].Chunks[0].ChunkID)
}
