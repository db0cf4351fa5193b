package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wcpa/backend/internal/domain/shared"
	"github.com/wcpa/backend/internal/domain/trade"
)

func setupOrderTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE orders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			total TEXT NOT NULL DEFAULT '0',
			status TEXT NOT NULL DEFAULT 'CREATED',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE order_items (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			sku TEXT NOT NULL,
			name TEXT NOT NULL,
			unit_price TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)
	`).Error
	require.NoError(t, err)

	return db
}

func newTestOrder(t *testing.T) *trade.Order {
	t.Helper()
	item, err := trade.NewOrderItem(uuid.Nil, "GLV-100", "Nitrile Gloves", decimal.RequireFromString("12.50"), 2)
	require.NoError(t, err)
	order, err := trade.NewOrder("user-1", []trade.OrderItem{*item})
	require.NoError(t, err)
	return order
}

func TestGormOrderRepository_CreateAndFind(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	order := newTestOrder(t)
	require.NoError(t, repo.Create(ctx, order))
	require.NoError(t, repo.InsertItems(ctx, order.ID, order.Items))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", found.UserID)
	assert.Equal(t, trade.OrderStatusCreated, found.Status)
	assert.True(t, found.Total.Equal(decimal.RequireFromString("25")))
	require.Len(t, found.Items, 1)
	assert.Equal(t, "GLV-100", found.Items[0].SKU)
	assert.Equal(t, 2, found.Items[0].Quantity)
}

func TestGormOrderRepository_ItemInsertFailureLeavesOrderRow(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	order := newTestOrder(t)
	require.NoError(t, repo.Create(ctx, order))

	// Simulate a line-item write failure after the order row landed.
	require.NoError(t, db.Exec(`DROP TABLE order_items`).Error)
	err := repo.InsertItems(ctx, order.ID, order.Items)
	require.Error(t, err)

	require.NoError(t, repo.MarkIncomplete(ctx, order.ID))

	var status string
	require.NoError(t, db.Table("orders").Where("id = ?", order.ID).Select("status").Scan(&status).Error)
	assert.Equal(t, string(trade.OrderStatusIncomplete), status)
}

func TestGormOrderRepository_MarkIncompleteUnknownOrder(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)

	err := repo.MarkIncomplete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOrderRepository_InsertItemsEmpty(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)

	assert.NoError(t, repo.InsertItems(context.Background(), uuid.New(), nil))
}

func TestGormOrderRepository_FindByIDNotFound(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
