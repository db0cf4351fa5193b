package billing

import (
	"time"

	"github.com/wcpa/backend/internal/domain/billing"
)

// MetadataUserIDKey is the gateway metadata key carrying the application
// user ID. It is written on customers, setup intents, and subscriptions,
// and read back from webhook events.
const MetadataUserIDKey = "userId"

// CreateSetupIntentInput contains input for creating a setup intent.
// The price ID rides along as metadata so the frontend can complete the
// subscription after card confirmation.
type CreateSetupIntentInput struct {
	UserID  string
	PriceID string
}

// CreateSetupIntentOutput contains the result of creating a setup intent
type CreateSetupIntentOutput struct {
	SetupIntentID string
	ClientSecret  string
}

// CreateCustomerInput contains input for creating a Stripe customer
type CreateCustomerInput struct {
	UserID string
	Email  string
	Name   string
}

// CreateCustomerOutput contains the result of creating a Stripe customer
type CreateCustomerOutput struct {
	CustomerID string
	Email      string
	Name       string
	CreatedAt  time.Time
}

// CreateSubscriptionInput contains input for creating a Stripe subscription
type CreateSubscriptionInput struct {
	UserID     string
	CustomerID string
	PriceID    string
}

// CreateSubscriptionOutput contains the result of creating a Stripe subscription
type CreateSubscriptionOutput struct {
	SubscriptionID   string
	CustomerID       string
	Status           string
	CurrentPeriodEnd time.Time
	PriceID          string
	ClientSecret     string // for subscriptions requiring further payment action
	LatestInvoiceID  string
}

// PaymentMethodOutput contains the billing details read from a payment method
type PaymentMethodOutput struct {
	PaymentMethodID string
	BillingDetails  billing.BillingDetails
	CardBrand       string
	CardLast4       string
}

// CheckoutItem is one line of a one-off checkout session. UnitAmount is in
// the currency's smallest unit (cents for USD).
type CheckoutItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// CreateCheckoutSessionInput contains input for creating a checkout session.
// PriceID selects subscription mode for a recurring price; Items build a
// one-off payment session. The two are mutually exclusive.
type CreateCheckoutSessionInput struct {
	UserID     string
	Email      string
	PriceID    string
	Items      []CheckoutItem
	SuccessURL string
	CancelURL  string
}

// CreateCheckoutSessionOutput contains the result of creating a checkout session
type CreateCheckoutSessionOutput struct {
	SessionID string
	URL       string
}
