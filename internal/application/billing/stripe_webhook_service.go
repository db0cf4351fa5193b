package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"github.com/wcpa/backend/internal/domain/billing"
	"github.com/wcpa/backend/internal/domain/shared"
	infra "github.com/wcpa/backend/internal/infrastructure/billing"
)

// StripeWebhookService handles Stripe webhook events and keeps the cached
// subscription status per user current. Events are applied in arrival order;
// the cache is last-write-wins by design of the upsert.
type StripeWebhookService struct {
	config      *infra.StripeConfig
	statusRepo  billing.SubscriptionStatusRepository
	idempotency shared.IdempotencyStore
	eventTTL    time.Duration
	logger      *zap.Logger
}

// StripeWebhookServiceConfig contains dependencies for StripeWebhookService
type StripeWebhookServiceConfig struct {
	Config      *infra.StripeConfig
	StatusRepo  billing.SubscriptionStatusRepository
	Idempotency shared.IdempotencyStore
	EventTTL    time.Duration
	Logger      *zap.Logger
}

// NewStripeWebhookService creates a new StripeWebhookService
func NewStripeWebhookService(cfg StripeWebhookServiceConfig) *StripeWebhookService {
	ttl := cfg.EventTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &StripeWebhookService{
		config:      cfg.Config,
		statusRepo:  cfg.StatusRepo,
		idempotency: cfg.Idempotency,
		eventTTL:    ttl,
		logger:      cfg.Logger,
	}
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Message   string `json:"message,omitempty"`
}

// ProcessWebhook verifies the event signature and applies the event. An
// invalid signature is the only rejection; events we do not recognize, or
// that lack the user mapping, are acknowledged so the gateway stops retrying.
func (s *StripeWebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.config.WebhookSecret)
	if err != nil {
		s.logger.Error("Failed to verify webhook signature", zap.Error(err))
		return nil, shared.NewSignatureError("Webhook signature verification failed")
	}

	s.logger.Info("Processing Stripe webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: string(event.Type),
		Processed: true,
	}

	if s.idempotency != nil {
		fresh, err := s.idempotency.MarkProcessed(ctx, "webhook:"+event.ID, s.eventTTL)
		if err != nil {
			s.logger.Warn("Webhook dedup check failed, processing anyway",
				zap.String("event_id", event.ID),
				zap.Error(err))
		} else if !fresh {
			s.logger.Info("Skipping duplicate webhook event", zap.String("event_id", event.ID))
			result.Processed = false
			result.Message = "Duplicate event"
			return result, nil
		}
	}

	switch event.Type {
	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted":
		err = s.applySubscriptionEvent(ctx, event)
	case "checkout.session.completed":
		err = s.handleCheckoutCompleted(ctx, event)
	case "invoice.payment_failed":
		err = s.handleInvoicePaymentFailed(ctx, event)
	default:
		s.logger.Debug("Unhandled webhook event type",
			zap.String("event_type", string(event.Type)))
		result.Message = "Event type not handled"
	}

	if err != nil {
		s.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		result.Processed = false
		result.Message = err.Error()
		return result, err
	}

	return result, nil
}

// applySubscriptionEvent upserts the status cache row for the user named in
// the subscription's metadata. Created, updated, and deleted all reduce to
// the same write: the status carried by the event.
func (s *StripeWebhookService) applySubscriptionEvent(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	userID := sub.Metadata[infra.MetadataUserIDKey]
	if userID == "" {
		// Subscriptions created outside our flow carry no user mapping.
		// Acknowledge so the gateway does not retry forever.
		s.logger.Warn("Subscription event without user metadata, skipping",
			zap.String("event_id", event.ID),
			zap.String("subscription_id", sub.ID))
		return nil
	}

	status := &billing.SubscriptionStatus{
		UserID:           userID,
		SubscriptionID:   sub.ID,
		Status:           string(sub.Status),
		CurrentPeriodEnd: time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		UpdatedAt:        time.Now().UTC(),
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		status.PriceID = sub.Items.Data[0].Price.ID
	}

	if err := s.statusRepo.Upsert(ctx, status); err != nil {
		return fmt.Errorf("failed to upsert subscription status: %w", err)
	}

	s.logger.Info("Updated subscription status",
		zap.String("user_id", userID),
		zap.String("subscription_id", sub.ID),
		zap.String("status", string(sub.Status)))
	return nil
}

func (s *StripeWebhookService) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}

	s.logger.Info("Checkout session completed",
		zap.String("session_id", session.ID),
		zap.String("client_reference_id", session.ClientReferenceID),
		zap.Int64("amount_total", session.AmountTotal))
	return nil
}

func (s *StripeWebhookService) handleInvoicePaymentFailed(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("failed to unmarshal invoice: %w", err)
	}

	subscriptionID := ""
	if invoice.Subscription != nil {
		subscriptionID = invoice.Subscription.ID
	}
	s.logger.Warn("Invoice payment failed",
		zap.String("invoice_id", invoice.ID),
		zap.String("subscription_id", subscriptionID))
	// The status cache is corrected by the customer.subscription.updated
	// event that follows a failed payment.
	return nil
}
