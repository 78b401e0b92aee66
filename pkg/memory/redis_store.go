package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps conversation history in a Redis list per session, newest
// at the head, with a sliding TTL. Suits deployments without Postgres.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func historyKey(userID, sessionID string) string {
	return fmt.Sprintf("memory:history:%s:%s", userID, sessionID)
}

func (s *RedisStore) GetHistory(ctx context.Context, userID, sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 20
	}

	raw, err := s.client.LRange(ctx, historyKey(userID, sessionID), 0, int64(limit)-1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("load history: %w", err)
	}

	// Entries are pushed newest-first; reverse to oldest-first.
	out := make([]Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var msg Message
		if err := json.Unmarshal([]byte(raw[i]), &msg); err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *RedisStore) SaveHistory(ctx context.Context, userID, sessionID, userMessage, assistantMessage string) error {
	now := time.Now()
	key := historyKey(userID, sessionID)

	userRaw, err := json.Marshal(Message{Role: "user", Content: userMessage, Timestamp: now})
	if err != nil {
		return err
	}
	assistantRaw, err := json.Marshal(Message{Role: "assistant", Content: assistantMessage, Timestamp: now})
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	// User first so reversing the head slice yields user before assistant.
	pipe.LPush(ctx, key, userRaw, assistantRaw)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
