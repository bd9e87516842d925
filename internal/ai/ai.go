// Package ai holds the model-facing clients: chat completion and text
// embedding, with a local fallback that needs no external service.
package ai

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer produces a chat completion for a message transcript.
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// StreamCompleter delivers the completion incrementally through onChunk
// and returns the assembled text once the stream ends.
type StreamCompleter interface {
	StreamComplete(ctx context.Context, messages []ChatMessage, onChunk func(chunk string) error) (string, error)
}

// Embedder maps text to dense vectors for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}
