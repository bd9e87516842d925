package ai

import (
	"context"

	"studyassist/internal/logger"
)

// FallbackEmbedder tries the primary embedder and falls back to the
// local one when the remote call fails, so ingestion and chat keep
// working through provider outages. Mixed-provider vectors score lower
// against each other, which degrades retrieval but does not break it.
type FallbackEmbedder struct {
	primary  Embedder
	fallback *LocalEmbedder
}

func NewFallbackEmbedder(primary Embedder, fallback *LocalEmbedder) *FallbackEmbedder {
	return &FallbackEmbedder{primary: primary, fallback: fallback}
}

func (e *FallbackEmbedder) Dimension() int {
	return e.primary.Dimension()
}

func (e *FallbackEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.primary.Embed(ctx, text)
	if err == nil {
		return vec, nil
	}
	logger.Warnf("remote embedding failed, using local embedder: %v", err)
	return e.fallback.Embed(ctx, text)
}

func (e *FallbackEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.primary.EmbedBatch(ctx, texts)
	if err == nil {
		return vecs, nil
	}
	logger.Warnf("remote batch embedding failed, using local embedder: %v", err)
	return e.fallback.EmbedBatch(ctx, texts)
}
