package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	redisv9 "github.com/redis/go-redis/v9"
)

const (
	redisEntryKeyPrefix = "vstore:chunk:"
	redisDocSetPrefix   = "vstore:doc:"
)

// RedisStore keeps entries as JSON values keyed by chunk ID, with a set
// per document for deletes. Scoring happens client-side, so it trades
// memory locality for shared state across instances.
type RedisStore struct {
	client *redisv9.Client
}

func NewRedisStore(client *redisv9.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) AddBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	pipe := s.client.TxPipeline()
	for _, e := range entries {
		raw, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal vector entry failed: %w", err)
		}
		pipe.Set(ctx, redisEntryKeyPrefix+e.ChunkID, raw, 0)
		pipe.SAdd(ctx, redisDocSetPrefix+e.DocumentID, e.ChunkID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis add vector entries failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Search(ctx context.Context, query []float32, documentIDs []string, topK int) ([]DocumentHit, error) {
	var chunkIDs []string
	var err error
	if len(documentIDs) > 0 {
		for _, docID := range documentIDs {
			ids, serr := s.client.SMembers(ctx, redisDocSetPrefix+docID).Result()
			if serr != nil {
				return nil, fmt.Errorf("redis list document chunks failed: %w", serr)
			}
			chunkIDs = append(chunkIDs, ids...)
		}
	} else {
		chunkIDs, err = s.scanChunkIDs(ctx)
		if err != nil {
			return nil, err
		}
	}
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(chunkIDs))
	for i, id := range chunkIDs {
		keys[i] = redisEntryKeyPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load vector entries failed: %w", err)
	}

	entries := make([]Entry, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}

	return rankEntries(entries, query, documentIDs, topK), nil
}

func (s *RedisStore) DeleteDocument(ctx context.Context, documentID string) error {
	setKey := redisDocSetPrefix + documentID
	ids, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("redis list document chunks failed: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, redisEntryKeyPrefix+id)
	}
	pipe.Del(ctx, setKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete document entries failed: %w", err)
	}
	return nil
}

func (s *RedisStore) scanChunkIDs(ctx context.Context) ([]string, error) {
	var ids []string
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisEntryKeyPrefix+"*", 200).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan vector entries failed: %w", err)
		}
		for _, k := range keys {
			ids = append(ids, k[len(redisEntryKeyPrefix):])
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return ids, nil
}
