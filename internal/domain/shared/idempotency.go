package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers recently seen request and event IDs so that
// client retries and duplicate webhook deliveries can be answered without
// re-running side effects.
type IdempotencyStore interface {
	// MarkProcessed records an ID. Returns true if the ID was newly
	// recorded, false if it was already present.
	MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether an ID has already been recorded.
	IsProcessed(ctx context.Context, id string) (bool, error)

	// Close releases resources held by the store.
	Close() error
}
