package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wcpa/backend/internal/domain/trade"
)

// OrderModel is the persistence model for the Order entity.
type OrderModel struct {
	BaseModel
	UserID string            `gorm:"type:varchar(100);not null;index"`
	Total  decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	Status trade.OrderStatus `gorm:"type:varchar(20);not null;default:'CREATED'"`
	Items  []OrderItemModel  `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *trade.Order {
	order := &trade.Order{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		Total:      m.Total,
		Status:     m.Status,
		Items:      make([]trade.OrderItem, len(m.Items)),
	}
	for i, item := range m.Items {
		order.Items[i] = *item.ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain Order entity.
// Items are mapped separately so the order row and its lines can be
// written in independent statements.
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.UserID = o.UserID
	m.Total = o.Total
	m.Status = o.Status
}

// OrderModelFromDomain creates a new persistence model from a domain Order entity.
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for the OrderItem entity.
type OrderItemModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU       string          `gorm:"type:varchar(50);not null"`
	Name      string          `gorm:"type:varchar(200);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Quantity  int             `gorm:"not null"`
	CreatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem entity.
func (m *OrderItemModel) ToDomain() *trade.OrderItem {
	return &trade.OrderItem{
		ID:        m.ID,
		OrderID:   m.OrderID,
		SKU:       m.SKU,
		Name:      m.Name,
		UnitPrice: m.UnitPrice,
		Quantity:  m.Quantity,
		CreatedAt: m.CreatedAt,
	}
}

// OrderItemModelFromDomain creates a new persistence model from a domain OrderItem entity.
func OrderItemModelFromDomain(i *trade.OrderItem) *OrderItemModel {
	return &OrderItemModel{
		ID:        i.ID,
		OrderID:   i.OrderID,
		SKU:       i.SKU,
		Name:      i.Name,
		UnitPrice: i.UnitPrice,
		Quantity:  i.Quantity,
		CreatedAt: i.CreatedAt,
	}
}
