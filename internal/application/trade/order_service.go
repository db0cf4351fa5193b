package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wcpa/backend/internal/domain/partner"
	"github.com/wcpa/backend/internal/domain/shared"
	"github.com/wcpa/backend/internal/domain/trade"
	"github.com/wcpa/backend/internal/infrastructure/document"
	"github.com/wcpa/backend/internal/infrastructure/mail"
)

// DocumentRenderer renders a purchase-order document to bytes
type DocumentRenderer interface {
	RenderPurchaseOrder(ctx context.Context, data document.PurchaseOrderData) ([]byte, error)
}

// Mailer delivers outbound email
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// OrderService orchestrates order placement: persist the order, then the
// line items, then render and email the purchase-order document. Only the
// order-row write is fatal; everything after it degrades.
type OrderService struct {
	orderRepo      trade.OrderRepository
	addressRepo    partner.AddressRepository
	renderer       DocumentRenderer
	mailer         Mailer
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// OrderServiceConfig contains dependencies for OrderService
type OrderServiceConfig struct {
	OrderRepo      trade.OrderRepository
	AddressRepo    partner.AddressRepository
	Renderer       DocumentRenderer
	Mailer         Mailer
	Idempotency    shared.IdempotencyStore
	IdempotencyTTL time.Duration
	Logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(cfg OrderServiceConfig) *OrderService {
	ttl := cfg.IdempotencyTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &OrderService{
		orderRepo:      cfg.OrderRepo,
		addressRepo:    cfg.AddressRepo,
		renderer:       cfg.Renderer,
		mailer:         cfg.Mailer,
		idempotency:    cfg.Idempotency,
		idempotencyTTL: ttl,
		logger:         cfg.Logger,
	}
}

// OrderItemCommand is one requested line of an order
type OrderItemCommand struct {
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// AddressCommand is a resolved postal address supplied with the order
type AddressCommand struct {
	FirstName  string
	LastName   string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// PlaceOrderCommand is the input to PlaceOrder. ShippingAddress and
// BillingAddress are the addresses the customer resolved at checkout; when
// absent, the saved defaults are used for the purchase-order document.
type PlaceOrderCommand struct {
	UserID          string
	Email           string
	CustomerName    string
	Items           []OrderItemCommand
	ShippingAddress *AddressCommand
	BillingAddress  *AddressCommand
	RequestID       string
}

// PlaceOrderResult is the outcome of order placement. EmailSent reports
// whether the confirmation email with the purchase order went out; the
// order itself stands either way.
type PlaceOrderResult struct {
	OrderID     uuid.UUID       `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	Status      string          `json:"status"`
	EmailSent   bool            `json:"emailSent"`
	Warning     string          `json:"warning,omitempty"`
}

// PlaceOrder records an order and emails the purchase-order document.
// Validation, including address resolution, happens before any write. The
// order row is written first and its failure aborts the flow; a failed
// line-item insert marks the order INCOMPLETE but still returns success,
// and a failed render or send only clears EmailSent.
func (s *OrderService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*PlaceOrderResult, error) {
	if cmd.UserID == "" {
		return nil, shared.NewValidationError("User ID is required")
	}
	if cmd.Email == "" {
		return nil, shared.NewValidationError("Email is required")
	}
	if len(cmd.Items) == 0 {
		return nil, shared.NewValidationError("Order must contain at least one item")
	}

	shipTo := resolvedAddress(cmd.UserID, cmd.ShippingAddress, partner.AddressTypeShipping)
	billTo := resolvedAddress(cmd.UserID, cmd.BillingAddress, partner.AddressTypeBilling)
	if shipTo == nil || billTo == nil {
		defShip, defBill := s.defaultAddresses(ctx, cmd.UserID)
		if shipTo == nil {
			shipTo = defShip
		}
		if billTo == nil {
			billTo = defBill
		}
	}
	if shipTo == nil {
		return nil, shared.NewValidationError("A shipping address is required")
	}
	if billTo == nil {
		return nil, shared.NewValidationError("A billing address is required")
	}

	if err := s.claimRequest(ctx, cmd.RequestID); err != nil {
		return nil, err
	}

	items := make([]trade.OrderItem, len(cmd.Items))
	for i, item := range cmd.Items {
		built, err := trade.NewOrderItem(uuid.Nil, item.SKU, item.Name, item.UnitPrice, item.Quantity)
		if err != nil {
			return nil, err
		}
		items[i] = *built
	}

	order, err := trade.NewOrder(cmd.UserID, items)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Placing order",
		zap.String("user_id", cmd.UserID),
		zap.String("order_id", order.ID.String()),
		zap.Int("item_count", len(order.Items)))

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error("Failed to record order",
			zap.String("user_id", cmd.UserID),
			zap.Error(err))
		return nil, shared.NewLedgerWriteError("Failed to record order")
	}

	if err := s.orderRepo.InsertItems(ctx, order.ID, order.Items); err != nil {
		s.logger.Error("Failed to record order items, marking order incomplete",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		if markErr := s.orderRepo.MarkIncomplete(ctx, order.ID); markErr != nil {
			s.logger.Error("Failed to mark order incomplete",
				zap.String("order_id", order.ID.String()),
				zap.Error(markErr))
		}
		order.MarkIncomplete()
	}

	result := &PlaceOrderResult{
		OrderID:     order.ID,
		OrderNumber: document.OrderNumber(order),
		Subtotal:    order.Total,
		Tax:         trade.Tax(order.Total),
		Total:       trade.GrandTotal(order.Total),
		Status:      string(order.Status),
	}
	result.EmailSent = s.sendPurchaseOrder(ctx, cmd, order, shipTo, billTo)
	if !result.EmailSent {
		result.Warning = "Order recorded, but the confirmation email could not be sent"
	}
	return result, nil
}

// sendPurchaseOrder renders the purchase-order document and emails it to the
// customer. Every failure here is logged and swallowed.
func (s *OrderService) sendPurchaseOrder(ctx context.Context, cmd PlaceOrderCommand, order *trade.Order, shipTo, billTo *partner.Address) bool {
	data := document.BuildPurchaseOrderData(order, cmd.CustomerName, shipTo, billTo)
	doc, err := s.renderer.RenderPurchaseOrder(ctx, data)
	if err != nil {
		s.logger.Error("Failed to render purchase order",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		return false
	}

	msg := mail.Message{
		To:       cmd.Email,
		Subject:  fmt.Sprintf("Your WCPA Medical Supplies order %s", data.OrderNumber),
		HTMLBody: orderConfirmationBody(data),
		Attachments: []mail.Attachment{{
			Filename:    fmt.Sprintf("purchase-order-%s.html", data.OrderNumber),
			ContentType: "text/html",
			Data:        doc,
		}},
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("Failed to send order confirmation",
			zap.String("order_id", order.ID.String()),
			zap.String("to", cmd.Email),
			zap.Error(err))
		return false
	}

	s.logger.Info("Order confirmation sent",
		zap.String("order_id", order.ID.String()),
		zap.String("to", cmd.Email))
	return true
}

// resolvedAddress converts an address supplied at checkout into a domain
// address for the purchase-order document. Addresses without a street line
// are treated as absent.
func resolvedAddress(userID string, cmd *AddressCommand, addrType partner.AddressType) *partner.Address {
	if cmd == nil || cmd.Line1 == "" {
		return nil
	}
	return &partner.Address{
		UserID:     userID,
		Type:       addrType,
		FirstName:  cmd.FirstName,
		LastName:   cmd.LastName,
		Line1:      cmd.Line1,
		Line2:      cmd.Line2,
		City:       cmd.City,
		State:      cmd.State,
		PostalCode: cmd.PostalCode,
		Country:    cmd.Country,
	}
}

// defaultAddresses loads the customer's default shipping and billing
// addresses. A lookup failure leaves the document without address blocks.
func (s *OrderService) defaultAddresses(ctx context.Context, userID string) (shipTo, billTo *partner.Address) {
	addresses, err := s.addressRepo.FindByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to load addresses for purchase order",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, nil
	}
	for i := range addresses {
		addr := &addresses[i]
		if !addr.IsDefault {
			continue
		}
		if shipTo == nil && addr.Type.InBucket(partner.BucketShipping) {
			shipTo = addr
		}
		if billTo == nil && addr.Type.InBucket(partner.BucketBilling) {
			billTo = addr
		}
	}
	return shipTo, billTo
}

func orderConfirmationBody(data document.PurchaseOrderData) string {
	return fmt.Sprintf(
		`<p>Thank you for your order.</p>
<p>Order <strong>%s</strong> has been received. Your purchase order is attached.</p>
<p>Total charged: $%s</p>`,
		data.OrderNumber, data.Total.StringFixed(2))
}

func (s *OrderService) claimRequest(ctx context.Context, requestID string) error {
	if requestID == "" || s.idempotency == nil {
		return nil
	}
	fresh, err := s.idempotency.MarkProcessed(ctx, "order:"+requestID, s.idempotencyTTL)
	if err != nil {
		s.logger.Warn("Idempotency check failed, continuing", zap.Error(err))
		return nil
	}
	if !fresh {
		return shared.NewDuplicateRequestError("Request already processed")
	}
	return nil
}
