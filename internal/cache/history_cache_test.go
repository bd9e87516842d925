package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"studyassist/internal/model"
)

func newTestCache(t *testing.T) (*HistoryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewHistoryCache(client, 60*time.Second, 5*time.Second), mr
}

func TestHistoryCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	messages := []model.ChatMessage{
		{ID: "m1", ChatSessionID: "s1", Sender: model.SenderUser, Text: "hello"},
		{ID: "m2", ChatSessionID: "s1", Sender: model.SenderBot, Text: "hi there"},
	}
	require.NoError(t, c.SetHistory(ctx, "s1", messages))

	got, hit, err := c.GetHistory(ctx, "s1")
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, got, 2)
	require.Equal(t, "hello", got[0].Text)
	require.Equal(t, model.SenderBot, got[1].Sender)
}

func TestHistoryCacheMiss(t *testing.T) {
	c, _ := newTestCache(t)

	got, hit, err := c.GetHistory(context.Background(), "unknown")
	require.NoError(t, err)
	require.False(t, hit)
	require.Nil(t, got)
}

func TestHistoryCachePreservesSourceChunks(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	msg := model.ChatMessage{ID: "m1", ChatSessionID: "s1", Sender: model.SenderBot, Text: "cited"}
	msg.SetSources([]model.SourceChunk{{ChunkID: "c1", Text: "source text", Page: 2, Score: 0.9}})
	require.NoError(t, c.SetHistory(ctx, "s1", []model.ChatMessage{msg}))

	got, hit, err := c.GetHistory(ctx, "s1")
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, got, 1)

	sources := got[0].Sources()
	require.Len(t, sources, 1)
	require.Equal(t, "c1", sources[0].ChunkID)
	require.Equal(t, 2, sources[0].Page)
}

func TestHistoryCacheDelete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetHistory(ctx, "s1", []model.ChatMessage{{ID: "m1"}}))
	require.NoError(t, c.DeleteHistory(ctx, "s1"))

	_, hit, err := c.GetHistory(ctx, "s1")
	require.NoError(t, err)
	require.False(t, hit)
}

func TestHistoryCacheDirtyMarker(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	dirty, err := c.IsDirty(ctx, "s1")
	require.NoError(t, err)
	require.False(t, dirty)

	require.NoError(t, c.MarkDirty(ctx, "s1"))
	dirty, err = c.IsDirty(ctx, "s1")
	require.NoError(t, err)
	require.True(t, dirty)

	// The marker expires on its own once the persistence window passes.
	mr.FastForward(6 * time.Second)
	dirty, err = c.IsDirty(ctx, "s1")
	require.NoError(t, err)
	require.False(t, dirty)
}

func TestHistoryCacheEntryExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetHistory(ctx, "s1", []model.ChatMessage{{ID: "m1"}}))
	mr.FastForward(61 * time.Second)

	_, hit, err := c.GetHistory(ctx, "s1")
	require.NoError(t, err)
	require.False(t, hit)
}
