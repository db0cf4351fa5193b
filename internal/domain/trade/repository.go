package trade

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository persists orders and their line items. Create inserts the
// order row only; InsertItems is a separate best-effort bulk insert with no
// transactional tie to the order row. MarkIncomplete is the compensating
// action applied when the item insert fails.
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	InsertItems(ctx context.Context, orderID uuid.UUID, items []OrderItem) error
	MarkIncomplete(ctx context.Context, orderID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
}
