package billing

import "context"

// SubscriberRepository persists subscriber records. Upsert is keyed on
// UserID and fully replaces the existing row, which makes client retries of
// the subscribe flow safe from the ledger's perspective.
type SubscriberRepository interface {
	Upsert(ctx context.Context, subscriber *Subscriber) error
	FindByUserID(ctx context.Context, userID string) (*Subscriber, error)
}

// SubscriptionStatusRepository persists the cached subscription status rows
// maintained by the webhook receiver. Upsert is keyed on UserID,
// last-write-wins. FindByUserID returns shared.ErrNotFound for users with no
// cached row; callers treat that as "not subscribed", not as a failure.
type SubscriptionStatusRepository interface {
	Upsert(ctx context.Context, status *SubscriptionStatus) error
	FindByUserID(ctx context.Context, userID string) (*SubscriptionStatus, error)
}
