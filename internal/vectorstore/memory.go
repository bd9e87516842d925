package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const snapshotFile = "entries.json"

// MemoryStore keeps all entries in memory and writes a JSON snapshot to
// disk after every mutation so the index survives restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	dir     string
}

// NewMemoryStore loads the snapshot from dir if one exists. An empty dir
// disables persistence.
func NewMemoryStore(dir string) (*MemoryStore, error) {
	s := &MemoryStore{dir: dir}
	if dir == "" {
		return s, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create vector store dir failed: %w", err)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MemoryStore) AddBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	return s.save()
}

func (s *MemoryStore) Search(ctx context.Context, query []float32, documentIDs []string, topK int) ([]DocumentHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rankEntries(s.entries, query, documentIDs, topK), nil
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.DocumentID != documentID {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return s.save()
}

// Len reports the number of indexed entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) load() error {
	raw, err := os.ReadFile(filepath.Join(s.dir, snapshotFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read vector store snapshot failed: %w", err)
	}
	if err := json.Unmarshal(raw, &s.entries); err != nil {
		return fmt.Errorf("parse vector store snapshot failed: %w", err)
	}
	return nil
}

// save is called with the write lock held.
func (s *MemoryStore) save() error {
	if s.dir == "" {
		return nil
	}
	raw, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("marshal vector store snapshot failed: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, snapshotFile), raw, 0o644); err != nil {
		return fmt.Errorf("write vector store snapshot failed: %w", err)
	}
	return nil
}
