package billing

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/wcpa/backend/internal/domain/billing"
	"github.com/wcpa/backend/internal/domain/shared"
	infra "github.com/wcpa/backend/internal/infrastructure/billing"
)

// PaymentGateway is the slice of gateway operations the subscription flows
// need. The Stripe adapter satisfies it; tests substitute a mock.
type PaymentGateway interface {
	CreateSetupIntent(ctx context.Context, input infra.CreateSetupIntentInput) (*infra.CreateSetupIntentOutput, error)
	CreateCustomer(ctx context.Context, input infra.CreateCustomerInput) (*infra.CreateCustomerOutput, error)
	AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	CreateSubscription(ctx context.Context, input infra.CreateSubscriptionInput) (*infra.CreateSubscriptionOutput, error)
	RetrievePaymentMethod(ctx context.Context, paymentMethodID string) (*infra.PaymentMethodOutput, error)
	CreateCheckoutSession(ctx context.Context, input infra.CreateCheckoutSessionInput) (*infra.CreateCheckoutSessionOutput, error)
	ResolvePriceForProduct(ctx context.Context, productID string) (string, error)
}

// SubscriptionService orchestrates the subscribe flow: gateway calls first,
// ledger write last.
type SubscriptionService struct {
	gateway        PaymentGateway
	subscriberRepo billing.SubscriberRepository
	statusRepo     billing.SubscriptionStatusRepository
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// SubscriptionServiceConfig contains dependencies for SubscriptionService
type SubscriptionServiceConfig struct {
	Gateway        PaymentGateway
	SubscriberRepo billing.SubscriberRepository
	StatusRepo     billing.SubscriptionStatusRepository
	Idempotency    shared.IdempotencyStore
	IdempotencyTTL time.Duration
	Logger         *zap.Logger
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(cfg SubscriptionServiceConfig) *SubscriptionService {
	ttl := cfg.IdempotencyTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &SubscriptionService{
		gateway:        cfg.Gateway,
		subscriberRepo: cfg.SubscriberRepo,
		statusRepo:     cfg.StatusRepo,
		idempotency:    cfg.Idempotency,
		idempotencyTTL: ttl,
		logger:         cfg.Logger,
	}
}

// CreateSetupIntentCommand is the input to CreateSetupIntent. Either PriceID
// or ProductID must be set; a product ID is resolved to its active price.
type CreateSetupIntentCommand struct {
	UserID    string
	PriceID   string
	ProductID string
}

// SetupIntentResult is returned to the frontend to confirm the card
type SetupIntentResult struct {
	ClientSecret  string `json:"clientSecret"`
	SetupIntentID string `json:"setupIntentId"`
	PriceID       string `json:"priceId"`
}

// CreateSetupIntent starts the subscribe flow by creating a gateway setup intent
func (s *SubscriptionService) CreateSetupIntent(ctx context.Context, cmd CreateSetupIntentCommand) (*SetupIntentResult, error) {
	if cmd.UserID == "" {
		return nil, shared.NewValidationError("User ID is required")
	}

	priceID, err := s.resolvePrice(ctx, cmd.PriceID, cmd.ProductID)
	if err != nil {
		return nil, err
	}

	output, err := s.gateway.CreateSetupIntent(ctx, infra.CreateSetupIntentInput{
		UserID:  cmd.UserID,
		PriceID: priceID,
	})
	if err != nil {
		return nil, shared.NewGatewayError(err.Error())
	}

	return &SetupIntentResult{
		ClientSecret:  output.ClientSecret,
		SetupIntentID: output.SetupIntentID,
		PriceID:       priceID,
	}, nil
}

// SubscribeCommand is the input to Subscribe
type SubscribeCommand struct {
	UserID          string
	Email           string
	Name            string
	PaymentMethodID string
	PriceID         string
	ProductID       string
	RequestID       string
}

// SubscribeResult is the outcome of the subscribe flow
type SubscribeResult struct {
	SubscriptionID   string    `json:"subscriptionId"`
	CustomerID       string    `json:"customerId"`
	Status           string    `json:"status"`
	ClientSecret     string    `json:"clientSecret,omitempty"`
	CurrentPeriodEnd time.Time `json:"currentPeriodEnd"`
}

// Subscribe runs the full subscribe flow: create a gateway customer tagged
// with the user ID, attach and default the payment method, create the
// subscription, then record the subscriber with the payment method's billing
// details. The ledger write comes last so a failure earlier leaves no
// subscriber row.
func (s *SubscriptionService) Subscribe(ctx context.Context, cmd SubscribeCommand) (*SubscribeResult, error) {
	if cmd.UserID == "" {
		return nil, shared.NewValidationError("User ID is required")
	}
	if cmd.Email == "" {
		return nil, shared.NewValidationError("Email is required")
	}
	if cmd.PaymentMethodID == "" {
		return nil, shared.NewValidationError("Payment method ID is required")
	}

	if err := s.claimRequest(ctx, cmd.RequestID); err != nil {
		return nil, err
	}

	priceID, err := s.resolvePrice(ctx, cmd.PriceID, cmd.ProductID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Starting subscribe flow",
		zap.String("user_id", cmd.UserID),
		zap.String("price_id", priceID))

	cust, err := s.gateway.CreateCustomer(ctx, infra.CreateCustomerInput{
		UserID: cmd.UserID,
		Email:  cmd.Email,
		Name:   cmd.Name,
	})
	if err != nil {
		return nil, shared.NewGatewayError(err.Error())
	}

	if err := s.gateway.AttachPaymentMethod(ctx, cmd.PaymentMethodID, cust.CustomerID); err != nil {
		return nil, shared.NewGatewayError(err.Error())
	}
	if err := s.gateway.SetDefaultPaymentMethod(ctx, cust.CustomerID, cmd.PaymentMethodID); err != nil {
		return nil, shared.NewGatewayError(err.Error())
	}

	sub, err := s.gateway.CreateSubscription(ctx, infra.CreateSubscriptionInput{
		UserID:     cmd.UserID,
		CustomerID: cust.CustomerID,
		PriceID:    priceID,
	})
	if err != nil {
		return nil, shared.NewGatewayError(err.Error())
	}

	subscriber, err := billing.NewSubscriber(cmd.UserID, cust.CustomerID, cmd.Email)
	if err != nil {
		return nil, err
	}
	subscriber.Name = cmd.Name

	// Billing details are a best-effort enrichment; the subscription is
	// already live at this point.
	pm, err := s.gateway.RetrievePaymentMethod(ctx, cmd.PaymentMethodID)
	if err != nil {
		s.logger.Warn("Failed to read payment method billing details",
			zap.String("user_id", cmd.UserID),
			zap.String("payment_method_id", cmd.PaymentMethodID),
			zap.Error(err))
	} else {
		subscriber.SetBillingDetails(pm.BillingDetails, pm.PaymentMethodID)
	}

	if err := s.subscriberRepo.Upsert(ctx, subscriber); err != nil {
		s.logger.Error("Failed to record subscriber",
			zap.String("user_id", cmd.UserID),
			zap.String("subscription_id", sub.SubscriptionID),
			zap.Error(err))
		return nil, shared.NewLedgerWriteError("Failed to record subscriber")
	}

	s.logger.Info("Subscribe flow completed",
		zap.String("user_id", cmd.UserID),
		zap.String("subscription_id", sub.SubscriptionID),
		zap.String("status", sub.Status))

	return &SubscribeResult{
		SubscriptionID:   sub.SubscriptionID,
		CustomerID:       cust.CustomerID,
		Status:           sub.Status,
		ClientSecret:     sub.ClientSecret,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
	}, nil
}

// SubscriptionCheck is the answer to a check-subscription query
type SubscriptionCheck struct {
	Active           bool       `json:"active"`
	Status           string     `json:"status"`
	SubscriptionID   string     `json:"subscriptionId,omitempty"`
	PriceID          string     `json:"priceId,omitempty"`
	CurrentPeriodEnd *time.Time `json:"currentPeriodEnd,omitempty"`
}

// CheckSubscription reads the cached subscription status for a user. A user
// with no cached row is simply not subscribed.
func (s *SubscriptionService) CheckSubscription(ctx context.Context, userID string) (*SubscriptionCheck, error) {
	if userID == "" {
		return nil, shared.NewValidationError("User ID is required")
	}

	status, err := s.statusRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &SubscriptionCheck{Active: false, Status: "none"}, nil
		}
		return nil, err
	}

	check := &SubscriptionCheck{
		Active:         status.IsActive(),
		Status:         status.Status,
		SubscriptionID: status.SubscriptionID,
		PriceID:        status.PriceID,
	}
	if !status.CurrentPeriodEnd.IsZero() {
		end := status.CurrentPeriodEnd
		check.CurrentPeriodEnd = &end
	}
	return check, nil
}

// CheckoutItemCommand is one line of a one-off checkout
type CheckoutItemCommand struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// CreateCheckoutSessionCommand is the input to CreateCheckoutSession.
// PriceID requests a subscription-mode session; Items request a one-off
// payment session. Exactly one of the two must be supplied.
type CreateCheckoutSessionCommand struct {
	UserID     string
	Email      string
	PriceID    string
	Items      []CheckoutItemCommand
	SuccessURL string
	CancelURL  string
}

// CheckoutSessionResult carries the hosted checkout redirect target
type CheckoutSessionResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CreateCheckoutSession creates a hosted checkout session, either for a
// recurring price or for ad-hoc one-off line items
func (s *SubscriptionService) CreateCheckoutSession(ctx context.Context, cmd CreateCheckoutSessionCommand) (*CheckoutSessionResult, error) {
	if cmd.UserID == "" {
		return nil, shared.NewValidationError("User ID is required")
	}
	if cmd.PriceID == "" && len(cmd.Items) == 0 {
		return nil, shared.NewValidationError("Checkout requires a price ID or at least one item")
	}
	if cmd.PriceID != "" && len(cmd.Items) > 0 {
		return nil, shared.NewValidationError("Checkout accepts a price ID or items, not both")
	}

	items := make([]infra.CheckoutItem, len(cmd.Items))
	for i, item := range cmd.Items {
		if item.Name == "" {
			return nil, shared.NewValidationError("Checkout item name cannot be empty")
		}
		if item.UnitAmount <= 0 {
			return nil, shared.NewValidationError("Checkout item amount must be positive")
		}
		if item.Quantity <= 0 {
			return nil, shared.NewValidationError("Checkout item quantity must be positive")
		}
		items[i] = infra.CheckoutItem{
			Name:       item.Name,
			UnitAmount: item.UnitAmount,
			Quantity:   item.Quantity,
		}
	}

	output, err := s.gateway.CreateCheckoutSession(ctx, infra.CreateCheckoutSessionInput{
		UserID:     cmd.UserID,
		Email:      cmd.Email,
		PriceID:    cmd.PriceID,
		Items:      items,
		SuccessURL: cmd.SuccessURL,
		CancelURL:  cmd.CancelURL,
	})
	if err != nil {
		return nil, shared.NewGatewayError(err.Error())
	}

	return &CheckoutSessionResult{
		SessionID: output.SessionID,
		URL:       output.URL,
	}, nil
}

// resolvePrice returns the price ID, resolving a product ID when needed
func (s *SubscriptionService) resolvePrice(ctx context.Context, priceID, productID string) (string, error) {
	if priceID != "" {
		return priceID, nil
	}
	if productID == "" {
		return "", shared.NewValidationError("Either price ID or product ID is required")
	}
	resolved, err := s.gateway.ResolvePriceForProduct(ctx, productID)
	if err != nil {
		return "", shared.NewGatewayError(err.Error())
	}
	return resolved, nil
}

// claimRequest reserves a client request ID. Duplicate IDs are rejected so a
// retried submission does not create a second subscription.
func (s *SubscriptionService) claimRequest(ctx context.Context, requestID string) error {
	if requestID == "" || s.idempotency == nil {
		return nil
	}
	fresh, err := s.idempotency.MarkProcessed(ctx, "subscribe:"+requestID, s.idempotencyTTL)
	if err != nil {
		// The dedup cache is advisory; losing it must not block subscriptions.
		s.logger.Warn("Idempotency check failed, continuing", zap.Error(err))
		return nil
	}
	if !fresh {
		return shared.NewDuplicateRequestError("Request already processed")
	}
	return nil
}
