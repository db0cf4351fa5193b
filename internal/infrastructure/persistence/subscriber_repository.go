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

// GormSubscriberRepository implements billing.SubscriberRepository using GORM
type GormSubscriberRepository struct {
	db *gorm.DB
}

// NewGormSubscriberRepository creates a new GormSubscriberRepository
func NewGormSubscriberRepository(db *gorm.DB) *GormSubscriberRepository {
	return &GormSubscriberRepository{db: db}
}

// Upsert inserts or fully replaces the subscriber row keyed on user_id
func (r *GormSubscriberRepository) Upsert(ctx context.Context, subscriber *billing.Subscriber) error {
	model := models.SubscriberModelFromDomain(subscriber)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"stripe_customer_id", "email", "name", "default_payment_method_id",
				"billing_name", "billing_email", "billing_phone",
				"billing_line1", "billing_line2", "billing_city", "billing_state",
				"billing_postal_code", "billing_country",
				"updated_at",
			}),
		}).
		Create(model).Error
}

// FindByUserID finds a subscriber by the application user ID
func (r *GormSubscriberRepository) FindByUserID(ctx context.Context, userID string) (*billing.Subscriber, error) {
	var model models.SubscriberModel
	if err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}
