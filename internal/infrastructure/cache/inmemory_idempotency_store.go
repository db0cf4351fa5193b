package cache

import (
	"context"
	"sync"
	"time"

	"github.com/wcpa/backend/internal/domain/shared"
)

// InMemoryIdempotencyStore implements shared.IdempotencyStore with a map.
// State is per-process, so it only dedupes within a single instance; use
// the Redis store for multi-instance deployments.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]time.Time // id -> expiry
}

// NewInMemoryIdempotencyStore creates an empty in-memory store
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{
		entries: make(map[string]time.Time),
	}
}

// MarkProcessed records an ID with a TTL. Expired entries for other IDs are
// swept opportunistically on each write.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, expiry := range s.entries {
		if now.After(expiry) {
			delete(s.entries, k)
		}
	}

	if expiry, exists := s.entries[id]; exists && now.Before(expiry) {
		return false, nil
	}
	s.entries[id] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether an unexpired entry exists for the ID
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, exists := s.entries[id]
	return exists && time.Now().Before(expiry), nil
}

// Close releases nothing; it exists to satisfy the interface
func (s *InMemoryIdempotencyStore) Close() error {
	return nil
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
