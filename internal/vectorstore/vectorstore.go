// Package vectorstore indexes chunk embeddings for similarity search.
// Two implementations are provided: an in-memory store with a JSON
// snapshot on disk, and a Redis-backed store for shared deployments.
package vectorstore

import (
	"context"
	"math"
	"sort"
)

// Entry is one indexed chunk.
type Entry struct {
	ChunkID    string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	Text       string    `json:"text"`
	Page       int       `json:"page,omitempty"`
	Embedding  []float32 `json:"embedding"`
}

// ChunkHit is one matching chunk within a document result.
type ChunkHit struct {
	ChunkID string  `json:"chunk_id"`
	Text    string  `json:"text"`
	Page    int     `json:"page,omitempty"`
	Score   float32 `json:"score"`
}

// DocumentHit groups matching chunks by document. Score is the best
// chunk score within the document.
type DocumentHit struct {
	DocumentID string     `json:"document_id"`
	Score      float32    `json:"score"`
	Chunks     []ChunkHit `json:"chunks"`
}

type Store interface {
	// AddBatch indexes chunk entries.
	AddBatch(ctx context.Context, entries []Entry) error
	// Search returns the top-k most similar chunks grouped by document.
	// An empty documentIDs filter searches all indexed chunks.
	Search(ctx context.Context, query []float32, documentIDs []string, topK int) ([]DocumentHit, error)
	// DeleteDocument removes all entries of a document.
	DeleteDocument(ctx context.Context, documentID string) error
}

// CosineSimilarity is zero when either vector has no magnitude.
func CosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// rankEntries scores entries against the query, keeps the top-k chunks
// and groups them by document, best document first.
func rankEntries(entries []Entry, query []float32, documentIDs []string, topK int) []DocumentHit {
	if topK <= 0 {
		topK = 5
	}

	var allowed map[string]bool
	if len(documentIDs) > 0 {
		allowed = make(map[string]bool, len(documentIDs))
		for _, id := range documentIDs {
			allowed[id] = true
		}
	}

	type scoredEntry struct {
		entry Entry
		score float32
	}
	var scored []scoredEntry
	for _, e := range entries {
		if allowed != nil && !allowed[e.DocumentID] {
			continue
		}
		scored = append(scored, scoredEntry{entry: e, score: CosineSimilarity(query, e.Embedding)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}

	byDoc := map[string]*DocumentHit{}
	var order []string
	for _, s := range scored {
		hit, ok := byDoc[s.entry.DocumentID]
		if !ok {
			hit = &DocumentHit{DocumentID: s.entry.DocumentID}
			byDoc[s.entry.DocumentID] = hit
			order = append(order, s.entry.DocumentID)
		}
		hit.Chunks = append(hit.Chunks, ChunkHit{
			ChunkID: s.entry.ChunkID,
			Text:    s.entry.Text,
			Page:    s.entry.Page,
			Score:   s.score,
		})
		if s.score > hit.Score {
			hit.Score = s.score
		}
	}

	results := make([]DocumentHit, 0, len(order))
	for _, id := range order {
		results = append(results, *byDoc[id])
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
