package vectorstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client)
}

func TestRedisStoreAddAndSearch(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddBatch(ctx, testEntries()))

	hits, err := store.Search(ctx, []float32{1, 0, 0}, []string{"doc-a"}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "doc-a", hits[0].DocumentID)
	require.Len(t, hits[0].Chunks, 2)
	require.InDelta(t, 1.0, float64(hits[0].Score), 1e-6)
}

func TestRedisStoreSearchAllViaScan(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddBatch(ctx, testEntries()))

	hits, err := store.Search(ctx, []float32{0, 0, 1}, nil, 2)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.Equal(t, "doc-c", hits[0].DocumentID)
}

func TestRedisStoreDeleteDocument(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddBatch(ctx, testEntries()))
	require.NoError(t, store.DeleteDocument(ctx, "doc-a"))

	hits, err := store.Search(ctx, []float32{1, 0, 0}, []string{"doc-a"}, 5)
	require.NoError(t, err)
	require.Empty(t, hits)

	// Other documents stay indexed.
	hits, err = store.Search(ctx, []float32{0, 1, 0}, []string{"doc-b"}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestRedisStoreEmptySearch(t *testing.T) {
	store := newTestRedisStore(t)

	hits, err := store.Search(context.Background(), []float32{1, 0, 0}, nil, 5)
	require.NoError(t, err)
	require.Empty(t, hits)
}
