package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wcpa/backend/internal/domain/partner"
	"github.com/wcpa/backend/internal/domain/shared"
	"github.com/wcpa/backend/internal/infrastructure/persistence/models"
)

// GormAddressRepository implements partner.AddressRepository using GORM
type GormAddressRepository struct {
	db *gorm.DB
}

// NewGormAddressRepository creates a new GormAddressRepository
func NewGormAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// FindByID finds an address by its ID
func (r *GormAddressRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Address, error) {
	var model models.AddressModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUser returns all addresses for a user, defaults first, newest first
func (r *GormAddressRepository) FindByUser(ctx context.Context, userID string) ([]partner.Address, error) {
	var rows []models.AddressModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	addresses := make([]partner.Address, len(rows))
	for i := range rows {
		addresses[i] = *rows[i].ToDomain()
	}
	return addresses, nil
}

// Save inserts or updates an address
func (r *GormAddressRepository) Save(ctx context.Context, address *partner.Address) error {
	model := models.AddressModelFromDomain(address)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes an address by ID
func (r *GormAddressRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.AddressModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// InTransaction runs fn against a repository bound to a single transaction,
// so a failure anywhere in fn rolls back every write it made.
func (r *GormAddressRepository) InTransaction(ctx context.Context, fn func(partner.AddressRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormAddressRepository{db: tx})
	})
}

// UnsetDefaults clears is_default for every address of the user whose type
// belongs to the given bucket. A "both" address belongs to both buckets.
func (r *GormAddressRepository) UnsetDefaults(ctx context.Context, userID string, bucket partner.Bucket) error {
	types := []partner.AddressType{partner.AddressTypeBoth}
	switch bucket {
	case partner.BucketShipping:
		types = append(types, partner.AddressTypeShipping)
	case partner.BucketBilling:
		types = append(types, partner.AddressTypeBilling)
	}
	return r.db.WithContext(ctx).
		Model(&models.AddressModel{}).
		Where("user_id = ? AND type IN ? AND is_default = ?", userID, types, true).
		Update("is_default", false).Error
}
