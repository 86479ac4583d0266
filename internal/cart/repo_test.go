package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/chiecouture/storefront-backend/pkg/db/models"
	"github.com/chiecouture/storefront-backend/pkg/enums"
)

func mustCreateTestBuyer(t *testing.T, tx *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Username:     fmt.Sprintf("sf_test_%s", uuid.NewString()),
		Email:        fmt.Sprintf("sf_test_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		Role:         enums.RoleBuyer,
	}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func mustCreateTestProduct(t *testing.T, tx *gorm.DB) *models.Product {
	t.Helper()
	vendor := &models.User{
		ID:           uuid.New(),
		Username:     fmt.Sprintf("sf_vendor_%s", uuid.NewString()),
		Email:        fmt.Sprintf("sf_vendor_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		Role:         enums.RoleVendor,
	}
	if err := tx.Create(vendor).Error; err != nil {
		t.Fatalf("create vendor: %v", err)
	}
	store := &models.Store{ID: uuid.New(), Name: "Repo Store", OwnerID: vendor.ID}
	if err := tx.Create(store).Error; err != nil {
		t.Fatalf("create store: %v", err)
	}
	product := &models.Product{
		ID:      uuid.New(),
		StoreID: store.ID,
		Name:    "Repo Scarf",
		Price:   decimal.RequireFromString("12.50"),
		Stock:   10,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func TestRepositoryCartFlow(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	buyer := mustCreateTestBuyer(t, tx)
	product := mustCreateTestProduct(t, tx)

	created, err := repo.FindOrCreateByBuyer(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected cart id to be generated")
	}

	again, err := repo.FindOrCreateByBuyer(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if again.ID != created.ID {
		t.Fatal("expected the same cart on repeat lookup")
	}

	item := &models.CartItem{CartID: created.ID, ProductID: product.ID, Quantity: 2}
	if err := repo.InsertItem(ctx, item); err != nil {
		t.Fatalf("insert item: %v", err)
	}

	touched, err := repo.IncrementItem(ctx, created.ID, product.ID, 3)
	if err != nil {
		t.Fatalf("increment item: %v", err)
	}
	if touched != 1 {
		t.Fatalf("expected one row touched, got %d", touched)
	}

	loaded, err := repo.FindByBuyer(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("load cart: %v", err)
	}
	if len(loaded.Items) != 1 || loaded.Items[0].Quantity != 5 {
		t.Fatalf("expected one merged line with quantity 5, got %+v", loaded.Items)
	}
	if loaded.Items[0].Product == nil || !loaded.Items[0].Product.Price.Equal(product.Price) {
		t.Fatal("expected preloaded product data")
	}

	locked, err := repo.FindByBuyerForUpdate(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("lock cart: %v", err)
	}
	if len(locked.Items) != 1 {
		t.Fatalf("expected locked cart with items, got %d", len(locked.Items))
	}

	if err := repo.DeleteItemsByCart(ctx, created.ID); err != nil {
		t.Fatalf("clear cart: %v", err)
	}
	cleared, err := repo.FindByBuyer(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("reload cleared cart: %v", err)
	}
	if len(cleared.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(cleared.Items))
	}
}

func TestRepositoryUniqueLinePerProduct(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	buyer := mustCreateTestBuyer(t, tx)
	product := mustCreateTestProduct(t, tx)

	cart, err := repo.FindOrCreateByBuyer(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	if err := repo.InsertItem(ctx, &models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("insert item: %v", err)
	}
	err = repo.InsertItem(ctx, &models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 1})
	if err == nil {
		t.Fatal("expected unique violation for duplicate line")
	}
}
