package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wcpa/backend/internal/domain/shared"
	"github.com/wcpa/backend/internal/domain/trade"
	"github.com/wcpa/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements trade.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts the order row. Line items are written separately via
// InsertItems so a failed item insert leaves the order row in place.
func (r *GormOrderRepository) Create(ctx context.Context, order *trade.Order) error {
	model := models.OrderModelFromDomain(order)
	return r.db.WithContext(ctx).Create(model).Error
}

// InsertItems bulk-inserts line items for an order
func (r *GormOrderRepository) InsertItems(ctx context.Context, orderID uuid.UUID, items []trade.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]models.OrderItemModel, len(items))
	for i := range items {
		items[i].OrderID = orderID
		rows[i] = *models.OrderItemModelFromDomain(&items[i])
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// MarkIncomplete flags an order whose line items failed to persist
func (r *GormOrderRepository) MarkIncomplete(ctx context.Context, orderID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", orderID).
		Update("status", trade.OrderStatusIncomplete)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID loads an order with its line items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).Preload("Items").First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}
