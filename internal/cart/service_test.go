package cart

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/chiecouture/storefront-backend/pkg/db/models"
	pkgerrors "github.com/chiecouture/storefront-backend/pkg/errors"
	"github.com/chiecouture/storefront-backend/pkg/logger"
)

type memoryCartRepo struct {
	carts    map[uuid.UUID]*models.Cart // keyed by buyer id
	items    map[uuid.UUID]*models.CartItem
	products map[uuid.UUID]*models.Product
	seq      int
}

func newMemoryCartRepo() *memoryCartRepo {
	return &memoryCartRepo{
		carts:    make(map[uuid.UUID]*models.Cart),
		items:    make(map[uuid.UUID]*models.CartItem),
		products: make(map[uuid.UUID]*models.Product),
	}
}

func (m *memoryCartRepo) WithTx(tx *gorm.DB) CartRepository { return m }

func (m *memoryCartRepo) FindOrCreateByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	if cart, ok := m.carts[buyerID]; ok {
		return cart, nil
	}
	cart := &models.Cart{ID: uuid.New(), BuyerID: buyerID}
	m.carts[buyerID] = cart
	return cart, nil
}

func (m *memoryCartRepo) FindByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	cart, ok := m.carts[buyerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	view := *cart
	view.Items = nil
	for _, item := range m.items {
		if item.CartID == cart.ID {
			line := *item
			if product, ok := m.products[item.ProductID]; ok {
				line.Product = product
			}
			view.Items = append(view.Items, line)
		}
	}
	return &view, nil
}

func (m *memoryCartRepo) FindByBuyerForUpdate(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	return m.FindByBuyer(ctx, buyerID)
}

func (m *memoryCartRepo) FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	item, ok := m.items[itemID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (m *memoryCartRepo) InsertItem(ctx context.Context, item *models.CartItem) error {
	item.ID = uuid.New()
	m.seq++
	item.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Millisecond)
	m.items[item.ID] = item
	return nil
}

func (m *memoryCartRepo) IncrementItem(ctx context.Context, cartID, productID uuid.UUID, delta int) (int64, error) {
	for _, item := range m.items {
		if item.CartID == cartID && item.ProductID == productID {
			item.Quantity += delta
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memoryCartRepo) SetItemQuantity(ctx context.Context, itemID uuid.UUID, qty int) error {
	if item, ok := m.items[itemID]; ok {
		item.Quantity = qty
	}
	return nil
}

func (m *memoryCartRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	if _, ok := m.items[itemID]; !ok {
		return 0, nil
	}
	delete(m.items, itemID)
	return 1, nil
}

func (m *memoryCartRepo) DeleteItemsByCart(ctx context.Context, cartID uuid.UUID) error {
	for id, item := range m.items {
		if item.CartID == cartID {
			delete(m.items, id)
		}
	}
	return nil
}

func (m *memoryCartRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (m *memoryCartRepo) addProduct(price string) *models.Product {
	product := &models.Product{
		ID:    uuid.New(),
		Name:  "Scarf",
		Price: decimal.RequireFromString(price),
		Stock: 10,
	}
	m.products[product.ID] = product
	return product
}

func newTestService(t *testing.T, repo *memoryCartRepo) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
	svc, err := NewService(repo, repo, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestAddItemMergesLines(t *testing.T) {
	repo := newMemoryCartRepo()
	svc := newTestService(t, repo)
	buyerID := uuid.New()
	product := repo.addProduct("10.00")

	if _, err := svc.AddItem(context.Background(), buyerID, product.ID, "2"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	view, err := svc.AddItem(context.Background(), buyerID, product.ID, "3")
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(view.Items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(view.Items))
	}
	if view.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", view.Items[0].Quantity)
	}
	if view.Items[0].Subtotal != "50.00" {
		t.Fatalf("expected subtotal 50.00, got %s", view.Items[0].Subtotal)
	}
}

func TestAddItemQuantityCoercion(t *testing.T) {
	repo := newMemoryCartRepo()
	svc := newTestService(t, repo)
	buyerID := uuid.New()
	product := repo.addProduct("10.00")

	for _, raw := range []string{"0", "-1", "two", "1.5", ""} {
		_, err := svc.AddItem(context.Background(), buyerID, product.ID, raw)
		assertCode(t, err, pkgerrors.CodeValidation)
	}

	if _, err := svc.AddItem(context.Background(), buyerID, product.ID, " 4 "); err != nil {
		t.Fatalf("whitespace-padded quantity should parse: %v", err)
	}
}

func TestAddItemUnknownProduct(t *testing.T) {
	repo := newMemoryCartRepo()
	svc := newTestService(t, repo)

	_, err := svc.AddItem(context.Background(), uuid.New(), uuid.New(), "1")
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateItemsSilentlySkipsBadEntries(t *testing.T) {
	repo := newMemoryCartRepo()
	svc := newTestService(t, repo)
	buyerID := uuid.New()
	product := repo.addProduct("5.00")

	view, err := svc.AddItem(context.Background(), buyerID, product.ID, "2")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	itemID := view.Items[0].ID

	// another buyer's line must not be touchable
	otherBuyer := uuid.New()
	otherView, err := svc.AddItem(context.Background(), otherBuyer, product.ID, "1")
	if err != nil {
		t.Fatalf("other add: %v", err)
	}

	updated, err := svc.UpdateItems(context.Background(), buyerID, map[string]string{
		itemID.String():                "7",
		"not-a-uuid":                   "3",
		uuid.New().String():            "3",
		otherView.Items[0].ID.String(): "9",
	})
	if err != nil {
		t.Fatalf("batch update must not abort on bad entries: %v", err)
	}
	if updated.Items[0].Quantity != 7 {
		t.Fatalf("expected quantity 7, got %d", updated.Items[0].Quantity)
	}
	if repo.items[otherView.Items[0].ID].Quantity != 1 {
		t.Fatal("foreign line must be untouched")
	}
}

func TestUpdateItemsZeroDeletesLine(t *testing.T) {
	repo := newMemoryCartRepo()
	svc := newTestService(t, repo)
	buyerID := uuid.New()
	product := repo.addProduct("5.00")

	view, err := svc.AddItem(context.Background(), buyerID, product.ID, "2")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	updated, err := svc.UpdateItems(context.Background(), buyerID, map[string]string{
		view.Items[0].ID.String(): "0",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(updated.Items))
	}
}

func TestRemoveItemOwnershipAndNotFound(t *testing.T) {
	repo := newMemoryCartRepo()
	svc := newTestService(t, repo)
	buyerID := uuid.New()
	product := repo.addProduct("5.00")

	view, err := svc.AddItem(context.Background(), buyerID, product.ID, "2")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	assertCode(t, svc.RemoveItem(context.Background(), uuid.New(), view.Items[0].ID), pkgerrors.CodeNotFound)
	assertCode(t, svc.RemoveItem(context.Background(), buyerID, uuid.New()), pkgerrors.CodeNotFound)

	if err := svc.RemoveItem(context.Background(), buyerID, view.Items[0].ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
}

func TestViewCreatesCartLazily(t *testing.T) {
	repo := newMemoryCartRepo()
	svc := newTestService(t, repo)

	view, err := svc.View(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("view must never surface a missing cart: %v", err)
	}
	if len(view.Items) != 0 || view.Total != "0.00" {
		t.Fatalf("expected empty cart with zero total, got %+v", view)
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s", code, typed.Code())
	}
}
