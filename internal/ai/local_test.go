package ai

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalEmbedderDeterministic(t *testing.T) {
	e := NewLocalEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "the quick brown fox")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "the quick brown fox")
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestLocalEmbedderNormalized(t *testing.T) {
	e := NewLocalEmbedder(128)

	vec, err := e.Embed(context.Background(), "vectors should have unit length after normalization")
	require.NoError(t, err)
	require.Len(t, vec, 128)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	require.InDelta(t, 1.0, norm, 1e-5)
}

func TestLocalEmbedderDistinguishesTexts(t *testing.T) {
	e := NewLocalEmbedder(256)
	ctx := context.Background()

	a, err := e.Embed(ctx, "photosynthesis converts light into energy")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "databases store rows in tables")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestLocalEmbedderRejectsEmptyInput(t *testing.T) {
	e := NewLocalEmbedder(64)
	_, err := e.Embed(context.Background(), "   ")
	require.Error(t, err)
}

func TestLocalEmbedderBatch(t *testing.T) {
	e := NewLocalEmbedder(64)
	ctx := context.Background()

	vecs, err := e.EmbedBatch(ctx, []string{"first text", "second text"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	single, err := e.Embed(ctx, "first text")
	require.NoError(t, err)
	require.Equal(t, single, vecs[0])

	empty, err := e.EmbedBatch(ctx, nil)
	require.NoError(t, err)
	require.Nil(t, empty)
}

func TestLocalEmbedderDefaultDimension(t *testing.T) {
	e := NewLocalEmbedder(0)
	require.Equal(t, 384, e.Dimension())

	vec, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	require.Len(t, vec, 384)
	require.False(t, math.IsNaN(float64(vec[0])))
}
