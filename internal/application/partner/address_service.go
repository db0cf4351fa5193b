package partner

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wcpa/backend/internal/domain/partner"
	"github.com/wcpa/backend/internal/domain/shared"
)

// AddressService manages a user's address book. It owns the default-address
// invariant: at most one default per user per bucket, maintained by clearing
// the bucket before marking a new default.
type AddressService struct {
	repo   partner.AddressRepository
	logger *zap.Logger
}

// NewAddressService creates a new AddressService
func NewAddressService(repo partner.AddressRepository, logger *zap.Logger) *AddressService {
	return &AddressService{repo: repo, logger: logger}
}

// AddressCommand carries the writable fields of an address
type AddressCommand struct {
	UserID     string
	Type       string
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

// List returns the user's addresses, defaults first
func (s *AddressService) List(ctx context.Context, userID string) ([]partner.Address, error) {
	if userID == "" {
		return nil, shared.NewValidationError("User ID is required")
	}
	return s.repo.FindByUser(ctx, userID)
}

// Add creates a new address for the user
func (s *AddressService) Add(ctx context.Context, cmd AddressCommand) (*partner.Address, error) {
	address, err := partner.NewAddress(cmd.UserID, partner.AddressType(cmd.Type),
		cmd.FirstName, cmd.LastName, cmd.Line1, cmd.City, cmd.State, cmd.PostalCode)
	if err != nil {
		return nil, err
	}
	address.Line2 = cmd.Line2
	address.Country = cmd.Country

	if cmd.IsDefault {
		address.IsDefault = true
		if err := s.saveDefault(ctx, address); err != nil {
			s.logger.Error("Failed to save address",
				zap.String("user_id", cmd.UserID),
				zap.Error(err))
			return nil, err
		}
	} else if err := s.repo.Save(ctx, address); err != nil {
		s.logger.Error("Failed to save address",
			zap.String("user_id", cmd.UserID),
			zap.Error(err))
		return nil, shared.NewLedgerWriteError("Failed to save address")
	}

	s.logger.Info("Address added",
		zap.String("user_id", cmd.UserID),
		zap.String("address_id", address.ID.String()),
		zap.String("type", string(address.Type)))
	return address, nil
}

// Update replaces the writable fields of an existing address. An address
// belonging to another user looks the same as a missing one.
func (s *AddressService) Update(ctx context.Context, id uuid.UUID, cmd AddressCommand) (*partner.Address, error) {
	address, err := s.ownedAddress(ctx, cmd.UserID, id)
	if err != nil {
		return nil, err
	}

	// Validate the new field values the same way a fresh address would be.
	validated, err := partner.NewAddress(cmd.UserID, partner.AddressType(cmd.Type),
		cmd.FirstName, cmd.LastName, cmd.Line1, cmd.City, cmd.State, cmd.PostalCode)
	if err != nil {
		return nil, err
	}

	address.Type = validated.Type
	address.FirstName = validated.FirstName
	address.LastName = validated.LastName
	address.Line1 = validated.Line1
	address.Line2 = cmd.Line2
	address.City = validated.City
	address.State = validated.State
	address.PostalCode = validated.PostalCode
	address.Country = cmd.Country
	address.Touch()

	// Re-typing can move the address into a bucket that already has a
	// default, so the target buckets are cleared whenever the result is a
	// default, not only on a false-to-true transition.
	address.IsDefault = cmd.IsDefault
	if cmd.IsDefault {
		if err := s.saveDefault(ctx, address); err != nil {
			s.logger.Error("Failed to update address",
				zap.String("address_id", id.String()),
				zap.Error(err))
			return nil, err
		}
		return address, nil
	}

	if err := s.repo.Save(ctx, address); err != nil {
		s.logger.Error("Failed to update address",
			zap.String("address_id", id.String()),
			zap.Error(err))
		return nil, shared.NewLedgerWriteError("Failed to update address")
	}
	return address, nil
}

// Remove deletes an address. When a default is removed, the newest remaining
// address covering the same bucket is promoted so the user keeps a default.
func (s *AddressService) Remove(ctx context.Context, userID string, id uuid.UUID) error {
	address, err := s.ownedAddress(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Address removed",
		zap.String("user_id", userID),
		zap.String("address_id", id.String()))

	if address.IsDefault {
		s.promoteDefaults(ctx, userID, address.Type.Buckets())
	}
	return nil
}

// SetDefault marks an address as the default for every bucket its type covers
func (s *AddressService) SetDefault(ctx context.Context, userID string, id uuid.UUID) (*partner.Address, error) {
	address, err := s.ownedAddress(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	address.IsDefault = true
	address.Touch()
	if err := s.saveDefault(ctx, address); err != nil {
		s.logger.Error("Failed to set default address",
			zap.String("address_id", id.String()),
			zap.Error(err))
		return nil, err
	}
	return address, nil
}

// ownedAddress loads an address and verifies ownership
func (s *AddressService) ownedAddress(ctx context.Context, userID string, id uuid.UUID) (*partner.Address, error) {
	if userID == "" {
		return nil, shared.NewValidationError("User ID is required")
	}
	address, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if address.UserID != userID {
		return nil, shared.ErrNotFound
	}
	return address, nil
}

// saveDefault clears every bucket the address covers and saves it as the new
// default, all inside one transaction so a failed save cannot leave a bucket
// without its previous default.
func (s *AddressService) saveDefault(ctx context.Context, address *partner.Address) error {
	return s.repo.InTransaction(ctx, func(repo partner.AddressRepository) error {
		for _, bucket := range address.Type.Buckets() {
			if err := repo.UnsetDefaults(ctx, address.UserID, bucket); err != nil {
				return shared.NewLedgerWriteError("Failed to clear default addresses")
			}
		}
		if err := repo.Save(ctx, address); err != nil {
			return shared.NewLedgerWriteError("Failed to save address")
		}
		return nil
	})
}

// promoteDefaults fills empty buckets after a default was deleted. A
// candidate is skipped if making it default would steal the default of a
// bucket it also covers.
func (s *AddressService) promoteDefaults(ctx context.Context, userID string, buckets []partner.Bucket) {
	addresses, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to load addresses for default promotion",
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}

	defaulted := map[partner.Bucket]bool{}
	for _, a := range addresses {
		if !a.IsDefault {
			continue
		}
		for _, b := range a.Type.Buckets() {
			defaulted[b] = true
		}
	}

	for _, bucket := range buckets {
		if defaulted[bucket] {
			continue
		}
		candidate := s.pickCandidate(addresses, bucket, defaulted)
		if candidate == nil {
			continue
		}
		candidate.IsDefault = true
		candidate.Touch()
		if err := s.repo.Save(ctx, candidate); err != nil {
			s.logger.Warn("Failed to promote default address",
				zap.String("address_id", candidate.ID.String()),
				zap.Error(err))
			continue
		}
		for _, b := range candidate.Type.Buckets() {
			defaulted[b] = true
		}
	}
}

func (s *AddressService) pickCandidate(addresses []partner.Address, bucket partner.Bucket, defaulted map[partner.Bucket]bool) *partner.Address {
	var candidate *partner.Address
	for i := range addresses {
		a := &addresses[i]
		if a.IsDefault || !a.Type.InBucket(bucket) {
			continue
		}
		conflicts := false
		for _, b := range a.Type.Buckets() {
			if b != bucket && defaulted[b] {
				conflicts = true
			}
		}
		if conflicts {
			continue
		}
		if candidate == nil || a.CreatedAt.After(candidate.CreatedAt) {
			candidate = a
		}
	}
	return candidate
}
