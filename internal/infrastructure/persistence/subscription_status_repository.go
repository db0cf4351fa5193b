package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wcpa/backend/internal/domain/billing"
	"github.com/wcpa/backend/internal/domain/shared"
	"github.com/wcpa/backend/internal/infrastructure/persistence/models"
)

// GormSubscriptionStatusRepository implements billing.SubscriptionStatusRepository using GORM
type GormSubscriptionStatusRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionStatusRepository creates a new GormSubscriptionStatusRepository
func NewGormSubscriptionStatusRepository(db *gorm.DB) *GormSubscriptionStatusRepository {
	return &GormSubscriptionStatusRepository{db: db}
}

// Upsert inserts or replaces the status row keyed on user_id. Rows are
// replaced unconditionally; event ordering is not enforced here.
func (r *GormSubscriptionStatusRepository) Upsert(ctx context.Context, status *billing.SubscriptionStatus) error {
	var model models.SubscriptionStatusModel
	model.FromDomain(status)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"subscription_id", "status", "current_period_end", "price_id", "updated_at",
			}),
		}).
		Create(&model).Error
}

// FindByUserID finds the cached status for a user
func (r *GormSubscriptionStatusRepository) FindByUserID(ctx context.Context, userID string) (*billing.SubscriptionStatus, error) {
	var model models.SubscriptionStatusModel
	if err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}
