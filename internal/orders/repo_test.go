package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/chiecouture/storefront-backend/pkg/db/models"
	"github.com/chiecouture/storefront-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  total TEXT NOT NULL DEFAULT '0',
  created_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT,
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	return db
}

func createTestOrder(t *testing.T, db *gorm.DB, buyerID uuid.UUID, created time.Time, total string) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:        uuid.New(),
		BuyerID:   buyerID,
		Total:     decimal.RequireFromString(total),
		CreatedAt: created,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryCreateAndLoadOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	buyerID := uuid.New()
	order := &models.Order{ID: uuid.New(), BuyerID: buyerID, Total: decimal.Zero}
	require.NoError(t, repo.Create(ctx, order))

	productID := uuid.New()
	items := []models.OrderItem{
		{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   &productID,
			ProductName: "Silk Scarf",
			Quantity:    2,
			Price:       decimal.RequireFromString("12.50"),
		},
		{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductName: "Linen Tote",
			Quantity:    1,
			Price:       decimal.RequireFromString("30.00"),
		},
	}
	require.NoError(t, repo.CreateItems(ctx, items))

	order.Total = decimal.RequireFromString("55.00")
	require.NoError(t, repo.UpdateTotal(ctx, order))

	loaded, err := repo.FindByIDWithItems(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Total.Equal(decimal.RequireFromString("55.00")))
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, "Silk Scarf", loaded.Items[0].ProductName)
	// the second line has no product reference, the snapshot stands alone
	assert.Nil(t, loaded.Items[1].ProductID)
}

func TestRepositoryListByBuyer_pagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	buyerID := uuid.New()
	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		createTestOrder(t, db, buyerID, base.Add(time.Duration(i)*time.Hour), "10.00")
	}
	createTestOrder(t, db, uuid.New(), base, "99.00")

	firstPage, err := repo.ListByBuyer(ctx, buyerID, nil, 3)
	require.NoError(t, err)
	require.Len(t, firstPage, 3)
	assert.True(t, firstPage[0].CreatedAt.After(firstPage[1].CreatedAt))

	last := firstPage[len(firstPage)-1]
	cursor := &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	secondPage, err := repo.ListByBuyer(ctx, buyerID, cursor, 3)
	require.NoError(t, err)
	require.Len(t, secondPage, 2)
	for _, order := range secondPage {
		assert.True(t, order.CreatedAt.Before(last.CreatedAt))
		assert.Equal(t, buyerID, order.BuyerID)
	}
}
