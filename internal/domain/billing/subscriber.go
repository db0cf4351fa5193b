package billing

import (
	"strings"
	"time"

	"github.com/wcpa/backend/internal/domain/shared"
)

// BillingDetails is the structured snapshot of the payment method's billing
// information as reported by the payment gateway. It is stored verbatim on
// the subscriber record; a new subscription fully replaces it.
type BillingDetails struct {
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Subscriber maps an application user to a payment-gateway customer and the
// billing details collected when the subscription was created. One record per
// user; writes are full replacements keyed on UserID.
type Subscriber struct {
	shared.BaseEntity
	UserID                 string
	StripeCustomerID       string
	Email                  string
	Name                   string
	BillingDetails         BillingDetails
	DefaultPaymentMethodID string
}

// NewSubscriber creates a subscriber record for a user
func NewSubscriber(userID, customerID, email string) (*Subscriber, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, shared.NewValidationError("User ID cannot be empty")
	}
	if customerID == "" {
		return nil, shared.NewValidationError("Gateway customer ID cannot be empty")
	}
	return &Subscriber{
		BaseEntity:       shared.NewBaseEntity(),
		UserID:           userID,
		StripeCustomerID: customerID,
		Email:            strings.ToLower(strings.TrimSpace(email)),
	}, nil
}

// SetBillingDetails replaces the billing snapshot and default payment method.
// There are no merge semantics.
func (s *Subscriber) SetBillingDetails(details BillingDetails, paymentMethodID string) {
	s.BillingDetails = details
	s.DefaultPaymentMethodID = paymentMethodID
	if details.Name != "" {
		s.Name = details.Name
	}
	if details.Email != "" {
		s.Email = strings.ToLower(details.Email)
	}
	s.Touch()
}

// SubscriptionStatus is the cached view of a user's gateway subscription,
// refreshed from webhook events. It reflects the most recently delivered
// event only; delivery may be duplicated or out of order, and the cache
// accepts last-write-wins.
type SubscriptionStatus struct {
	UserID           string
	SubscriptionID   string
	Status           string
	CurrentPeriodEnd time.Time
	PriceID          string
	UpdatedAt        time.Time
}

// IsActive reports whether the cached status grants access
func (s *SubscriptionStatus) IsActive() bool {
	return s != nil && s.Status == StatusActive
}

// Gateway subscription statuses we recognize. Anything else is stored as-is
// and treated as inactive.
const (
	StatusActive            = "active"
	StatusTrialing          = "trialing"
	StatusPastDue           = "past_due"
	StatusCanceled          = "canceled"
	StatusIncomplete        = "incomplete"
	StatusIncompleteExpired = "incomplete_expired"
	StatusUnpaid            = "unpaid"
)
