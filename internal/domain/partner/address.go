package partner

import (
	"github.com/wcpa/backend/internal/domain/shared"
)

// AddressType declares what an address may be used for
type AddressType string

const (
	AddressTypeShipping AddressType = "shipping"
	AddressTypeBilling  AddressType = "billing"
	AddressTypeBoth     AddressType = "both"
)

// IsValid checks if the type is a recognized AddressType
func (t AddressType) IsValid() bool {
	switch t {
	case AddressTypeShipping, AddressTypeBilling, AddressTypeBoth:
		return true
	}
	return false
}

// Bucket identifies the scope within which "default" is unique. A user may
// have one default shipping-capable address and one default billing-capable
// address; a "both" address belongs to both buckets.
type Bucket string

const (
	BucketShipping Bucket = "shipping"
	BucketBilling  Bucket = "billing"
)

// Buckets returns the buckets this address type belongs to
func (t AddressType) Buckets() []Bucket {
	switch t {
	case AddressTypeShipping:
		return []Bucket{BucketShipping}
	case AddressTypeBilling:
		return []Bucket{BucketBilling}
	case AddressTypeBoth:
		return []Bucket{BucketShipping, BucketBilling}
	}
	return nil
}

// InBucket reports whether this type belongs to the given bucket
func (t AddressType) InBucket(b Bucket) bool {
	for _, bucket := range t.Buckets() {
		if bucket == b {
			return true
		}
	}
	return false
}

// Address is a user's shipping and/or billing address
type Address struct {
	shared.BaseEntity
	UserID     string
	Type       AddressType
	FirstName  string
	LastName   string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	IsDefault  bool
}

// NewAddress creates an address for a user
func NewAddress(userID string, addrType AddressType, firstName, lastName, line1, city, state, postalCode string) (*Address, error) {
	if userID == "" {
		return nil, shared.NewValidationError("User ID cannot be empty")
	}
	if !addrType.IsValid() {
		return nil, shared.NewValidationError("Address type must be shipping, billing, or both")
	}
	if line1 == "" {
		return nil, shared.NewValidationError("Address line 1 cannot be empty")
	}
	if city == "" || state == "" || postalCode == "" {
		return nil, shared.NewValidationError("City, state, and postal code are required")
	}
	return &Address{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Type:       addrType,
		FirstName:  firstName,
		LastName:   lastName,
		Line1:      line1,
		City:       city,
		State:      state,
		PostalCode: postalCode,
	}, nil
}
