package models

import (
	"time"

	"github.com/wcpa/backend/internal/domain/billing"
)

// SubscriberModel is the persistence model for the Subscriber entity.
// Billing details are flattened into billing_* columns.
type SubscriberModel struct {
	BaseModel
	UserID                 string `gorm:"type:varchar(100);not null;uniqueIndex"`
	StripeCustomerID       string `gorm:"type:varchar(100);not null;index"`
	Email                  string `gorm:"type:varchar(320);not null"`
	Name                   string `gorm:"type:varchar(200)"`
	DefaultPaymentMethodID string `gorm:"type:varchar(100)"`
	BillingName            string `gorm:"type:varchar(200)"`
	BillingEmail           string `gorm:"type:varchar(320)"`
	BillingPhone           string `gorm:"type:varchar(50)"`
	BillingLine1           string `gorm:"type:varchar(200)"`
	BillingLine2           string `gorm:"type:varchar(200)"`
	BillingCity            string `gorm:"type:varchar(100)"`
	BillingState           string `gorm:"type:varchar(100)"`
	BillingPostalCode      string `gorm:"type:varchar(20)"`
	BillingCountry         string `gorm:"type:varchar(2)"`
}

// TableName returns the table name for GORM
func (SubscriberModel) TableName() string {
	return "subscribers"
}

// ToDomain converts the persistence model to a domain Subscriber entity.
func (m *SubscriberModel) ToDomain() *billing.Subscriber {
	return &billing.Subscriber{
		BaseEntity:             m.BaseModel.ToDomain(),
		UserID:                 m.UserID,
		StripeCustomerID:       m.StripeCustomerID,
		Email:                  m.Email,
		Name:                   m.Name,
		DefaultPaymentMethodID: m.DefaultPaymentMethodID,
		BillingDetails: billing.BillingDetails{
			Name:       m.BillingName,
			Email:      m.BillingEmail,
			Phone:      m.BillingPhone,
			Line1:      m.BillingLine1,
			Line2:      m.BillingLine2,
			City:       m.BillingCity,
			State:      m.BillingState,
			PostalCode: m.BillingPostalCode,
			Country:    m.BillingCountry,
		},
	}
}

// FromDomain populates the persistence model from a domain Subscriber entity.
func (m *SubscriberModel) FromDomain(s *billing.Subscriber) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.UserID = s.UserID
	m.StripeCustomerID = s.StripeCustomerID
	m.Email = s.Email
	m.Name = s.Name
	m.DefaultPaymentMethodID = s.DefaultPaymentMethodID
	m.BillingName = s.BillingDetails.Name
	m.BillingEmail = s.BillingDetails.Email
	m.BillingPhone = s.BillingDetails.Phone
	m.BillingLine1 = s.BillingDetails.Line1
	m.BillingLine2 = s.BillingDetails.Line2
	m.BillingCity = s.BillingDetails.City
	m.BillingState = s.BillingDetails.State
	m.BillingPostalCode = s.BillingDetails.PostalCode
	m.BillingCountry = s.BillingDetails.Country
}

// SubscriberModelFromDomain creates a new persistence model from a domain Subscriber entity.
func SubscriberModelFromDomain(s *billing.Subscriber) *SubscriberModel {
	m := &SubscriberModel{}
	m.FromDomain(s)
	return m
}

// SubscriptionStatusModel is the persistence model for the webhook-maintained
// subscription status cache. One row per user, last write wins.
type SubscriptionStatusModel struct {
	UserID           string    `gorm:"type:varchar(100);primary_key"`
	SubscriptionID   string    `gorm:"type:varchar(100);not null"`
	Status           string    `gorm:"type:varchar(30);not null"`
	CurrentPeriodEnd time.Time `gorm:"not null"`
	PriceID          string    `gorm:"type:varchar(100)"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SubscriptionStatusModel) TableName() string {
	return "subscription_statuses"
}

// ToDomain converts the persistence model to a domain SubscriptionStatus.
func (m *SubscriptionStatusModel) ToDomain() *billing.SubscriptionStatus {
	return &billing.SubscriptionStatus{
		UserID:           m.UserID,
		SubscriptionID:   m.SubscriptionID,
		Status:           m.Status,
		CurrentPeriodEnd: m.CurrentPeriodEnd,
		PriceID:          m.PriceID,
		UpdatedAt:        m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain SubscriptionStatus.
func (m *SubscriptionStatusModel) FromDomain(s *billing.SubscriptionStatus) {
	m.UserID = s.UserID
	m.SubscriptionID = s.SubscriptionID
	m.Status = s.Status
	m.CurrentPeriodEnd = s.CurrentPeriodEnd
	m.PriceID = s.PriceID
	m.UpdatedAt = s.UpdatedAt
}
