package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wcpa/backend/internal/domain/shared"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	// OrderStatusCreated is the normal terminal state.
	OrderStatusCreated OrderStatus = "CREATED"
	// OrderStatusIncomplete marks an order whose line items failed to
	// persist. The order row itself is kept so it is never silently
	// orphaned; the response to the client still succeeds.
	OrderStatusIncomplete OrderStatus = "INCOMPLETE"
)

// TaxRate is the fixed sales-tax rate applied to the item subtotal.
var TaxRate = decimal.NewFromFloat(0.08)

// OrderItem represents a line item in an order
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	CreatedAt time.Time
}

// NewOrderItem creates a new order line item
func NewOrderItem(orderID uuid.UUID, sku, name string, unitPrice decimal.Decimal, quantity int) (*OrderItem, error) {
	if sku == "" {
		return nil, shared.NewValidationError("Item SKU cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError("Item quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("Item unit price cannot be negative")
	}
	return &OrderItem{
		ID:        uuid.New(),
		OrderID:   orderID,
		SKU:       sku,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		CreatedAt: time.Now(),
	}, nil
}

// LineTotal returns unit price times quantity
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is an immutable record of a placed order. Total is the item
// subtotal as computed by the caller; it is not recomputed or verified
// against the line items inserted afterwards.
type Order struct {
	shared.BaseEntity
	UserID string
	Total  decimal.Decimal
	Status OrderStatus
	Items  []OrderItem
}

// NewOrder creates an order for a user from a non-empty set of items.
// The persisted total is Subtotal(items).
func NewOrder(userID string, items []OrderItem) (*Order, error) {
	if userID == "" {
		return nil, shared.NewValidationError("User ID cannot be empty")
	}
	if len(items) == 0 {
		return nil, shared.NewValidationError("Order must contain at least one item")
	}

	order := &Order{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Status:     OrderStatusCreated,
		Items:      make([]OrderItem, len(items)),
	}
	for i, item := range items {
		item.OrderID = order.ID
		order.Items[i] = item
	}
	order.Total = Subtotal(order.Items)
	return order, nil
}

// MarkIncomplete flags the order after a failed line-item insert
func (o *Order) MarkIncomplete() {
	o.Status = OrderStatusIncomplete
	o.Touch()
}

// Subtotal returns the sum of unit price times quantity across items
func Subtotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Tax returns the sales tax on a subtotal, rounded to cents
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate).Round(2)
}

// GrandTotal returns round2(subtotal * (1 + TaxRate))
func GrandTotal(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(decimal.NewFromInt(1).Add(TaxRate)).Round(2)
}
