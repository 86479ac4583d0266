package products

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
	"github.com/chiecouture/storefront-backend/pkg/pagination"
)

type stubProductRepo struct {
	byID    map[uuid.UUID]*models.Product
	listed  []models.Product
	deleted []uuid.UUID
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{byID: make(map[uuid.UUID]*models.Product)}
}

func (s *stubProductRepo) Create(ctx context.Context, product *models.Product) error {
	product.ID = uuid.New()
	product.CreatedAt = time.Now()
	s.byID[product.ID] = product
	return nil
}

func (s *stubProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (s *stubProductRepo) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	if len(s.listed) > limit {
		return s.listed[:limit], nil
	}
	return s.listed, nil
}

func (s *stubProductRepo) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Product, error) {
	var result []models.Product
	for _, product := range s.byID {
		if product.StoreID == storeID {
			result = append(result, *product)
		}
	}
	return result, nil
}

func (s *stubProductRepo) Update(ctx context.Context, product *models.Product) error {
	s.byID[product.ID] = product
	return nil
}

func (s *stubProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	delete(s.byID, id)
	return nil
}

type stubStoreLoader struct {
	byID    map[uuid.UUID]*models.Store
	byOwner map[uuid.UUID]*models.Store
}

func newStubStoreLoader() *stubStoreLoader {
	return &stubStoreLoader{
		byID:    make(map[uuid.UUID]*models.Store),
		byOwner: make(map[uuid.UUID]*models.Store),
	}
}

func (s *stubStoreLoader) add(store *models.Store) {
	s.byID[store.ID] = store
	s.byOwner[store.OwnerID] = store
}

func (s *stubStoreLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return store, nil
}

func (s *stubStoreLoader) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error) {
	store, ok := s.byOwner[ownerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return store, nil
}

type stubAnnouncer struct {
	products [][2]string
}

func (s *stubAnnouncer) AnnounceNewProduct(ctx context.Context, storeName, productName string) error {
	s.products = append(s.products, [2]string{storeName, productName})
	return nil
}

func newTestService(t *testing.T, repo *stubProductRepo, stores *stubStoreLoader, social *stubAnnouncer) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "products-test", Output: io.Discard})
	svc, err := NewService(repo, stores, social, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func vendorWithStore(stores *stubStoreLoader) (uuid.UUID, *models.Store) {
	vendorID := uuid.New()
	store := &models.Store{ID: uuid.New(), Name: "Chie Couture", OwnerID: vendorID}
	stores.add(store)
	return vendorID, store
}

func TestCreateProductAnnounces(t *testing.T) {
	repo := newStubProductRepo()
	stores := newStubStoreLoader()
	social := &stubAnnouncer{}
	svc := newTestService(t, repo, stores, social)
	vendorID, store := vendorWithStore(stores)

	product, err := svc.Create(context.Background(), vendorID, CreateProductInput{
		Name:  "Silk Scarf",
		Price: decimal.RequireFromString("29.99"),
		Stock: 5,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if product.StoreID != store.ID {
		t.Fatalf("expected product under vendor store")
	}
	if product.Price != "29.99" {
		t.Fatalf("expected fixed price string, got %q", product.Price)
	}
	if len(social.products) != 1 || social.products[0] != [2]string{"Chie Couture", "Silk Scarf"} {
		t.Fatalf("unexpected announcement %v", social.products)
	}
}

func TestCreateProductValidation(t *testing.T) {
	stores := newStubStoreLoader()
	svc := newTestService(t, newStubProductRepo(), stores, &stubAnnouncer{})
	vendorID, _ := vendorWithStore(stores)

	_, err := svc.Create(context.Background(), vendorID, CreateProductInput{Name: "  ", Price: decimal.New(1, 0)})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(context.Background(), vendorID, CreateProductInput{Name: "x", Price: decimal.RequireFromString("-1")})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(context.Background(), vendorID, CreateProductInput{Name: "x", Price: decimal.New(1, 0), Stock: -1})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateProductWithoutStore(t *testing.T) {
	svc := newTestService(t, newStubProductRepo(), newStubStoreLoader(), &stubAnnouncer{})

	_, err := svc.Create(context.Background(), uuid.New(), CreateProductInput{Name: "x", Price: decimal.New(1, 0)})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateProductOwnerOnly(t *testing.T) {
	repo := newStubProductRepo()
	stores := newStubStoreLoader()
	svc := newTestService(t, repo, stores, &stubAnnouncer{})
	vendorID, _ := vendorWithStore(stores)

	created, err := svc.Create(context.Background(), vendorID, CreateProductInput{Name: "Scarf", Price: decimal.New(10, 0)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// another vendor with their own store
	otherVendor, _ := vendorWithStore(stores)
	price := decimal.RequireFromString("12.50")
	_, err = svc.Update(context.Background(), otherVendor, created.ID, UpdateProductInput{Price: &price})
	assertCode(t, err, pkgerrors.CodeForbidden)

	updated, err := svc.Update(context.Background(), vendorID, created.ID, UpdateProductInput{Price: &price})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Price != "12.50" {
		t.Fatalf("expected updated price, got %q", updated.Price)
	}
}

func TestDeleteProductOwnerOnly(t *testing.T) {
	repo := newStubProductRepo()
	stores := newStubStoreLoader()
	svc := newTestService(t, repo, stores, &stubAnnouncer{})
	vendorID, _ := vendorWithStore(stores)

	created, err := svc.Create(context.Background(), vendorID, CreateProductInput{Name: "Scarf", Price: decimal.New(10, 0)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	otherVendor, _ := vendorWithStore(stores)
	assertCode(t, svc.Delete(context.Background(), otherVendor, created.ID), pkgerrors.CodeForbidden)

	if err := svc.Delete(context.Background(), vendorID, created.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Fatal("expected delete call")
	}
}

func TestListPaginatesWithCursor(t *testing.T) {
	repo := newStubProductRepo()
	stores := newStubStoreLoader()
	svc := newTestService(t, repo, stores, &stubAnnouncer{})

	now := time.Now()
	for i := 0; i < 3; i++ {
		repo.listed = append(repo.listed, models.Product{
			ID:        uuid.New(),
			Name:      "p",
			Price:     decimal.New(1, 0),
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		})
	}

	page, err := svc.List(context.Background(), pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
	if page.NextCursor == "" {
		t.Fatal("expected next cursor")
	}

	if _, err := svc.List(context.Background(), pagination.Params{Cursor: "garbage!"}); err == nil {
		t.Fatal("expected invalid cursor error")
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
