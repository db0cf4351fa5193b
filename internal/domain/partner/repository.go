package partner

import (
	"context"

	"github.com/google/uuid"
)

// AddressRepository persists the address book. The default-address invariant
// (at most one default per user per bucket) is maintained by the caller via
// UnsetDefaults-then-Save sequencing inside InTransaction, not by a database
// constraint.
type AddressRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Address, error)
	FindByUser(ctx context.Context, userID string) ([]Address, error)
	Save(ctx context.Context, address *Address) error
	Delete(ctx context.Context, id uuid.UUID) error
	// UnsetDefaults clears is_default on every address of the user whose
	// type belongs to the given bucket.
	UnsetDefaults(ctx context.Context, userID string, bucket Bucket) error
	// InTransaction runs fn against a repository whose writes commit or
	// roll back as one unit.
	InTransaction(ctx context.Context, fn func(AddressRepository) error) error
}
