package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedStore fronts another Store with a short-lived in-process cache so a
// burst of turns in one session does not hammer the backing store. Saves
// invalidate the session's cached history.
type CachedStore struct {
	backend Store
	cache   *cache.Cache
}

func NewCachedStore(backend Store, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedStore{
		backend: backend,
		cache:   cache.New(ttl, 10*time.Minute),
	}
}

func cacheKey(userID, sessionID string, limit int) string {
	return fmt.Sprintf("%s:%s:%d", userID, sessionID, limit)
}

func (s *CachedStore) GetHistory(ctx context.Context, userID, sessionID string, limit int) ([]Message, error) {
	key := cacheKey(userID, sessionID, limit)
	if x, found := s.cache.Get(key); found {
		return x.([]Message), nil
	}

	history, err := s.backend.GetHistory(ctx, userID, sessionID, limit)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, history, cache.DefaultExpiration)
	return history, nil
}

func (s *CachedStore) SaveHistory(ctx context.Context, userID, sessionID, userMessage, assistantMessage string) error {
	if err := s.backend.SaveHistory(ctx, userID, sessionID, userMessage, assistantMessage); err != nil {
		return err
	}

	// Drop every cached window for this session regardless of limit.
	prefix := userID + ":" + sessionID + ":"
	for key := range s.cache.Items() {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			s.cache.Delete(key)
		}
	}
	return nil
}
