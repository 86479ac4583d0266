package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/chiecouture/storefront-backend/pkg/db/models"
	pkgerrors "github.com/chiecouture/storefront-backend/pkg/errors"
	"github.com/chiecouture/storefront-backend/pkg/pagination"
)

type stubOrdersRepo struct {
	byID    map[uuid.UUID]*models.Order
	byBuyer map[uuid.UUID][]models.Order
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{
		byID:    make(map[uuid.UUID]*models.Order),
		byBuyer: make(map[uuid.UUID][]models.Order),
	}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) error {
	order.ID = uuid.New()
	s.byID[order.ID] = order
	s.byBuyer[order.BuyerID] = append(s.byBuyer[order.BuyerID], *order)
	return nil
}

func (s *stubOrdersRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	return nil
}

func (s *stubOrdersRepo) UpdateTotal(ctx context.Context, order *models.Order) error {
	return nil
}

func (s *stubOrdersRepo) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubOrdersRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	rows := s.byBuyer[buyerID]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func TestGetByIDHidesForeignOrders(t *testing.T) {
	repo := newStubOrdersRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	buyerID := uuid.New()
	order := &models.Order{
		BuyerID:   buyerID,
		Total:     decimal.RequireFromString("35.00"),
		CreatedAt: time.Now(),
		Items: []models.OrderItem{
			{ProductName: "Scarf", Quantity: 2, Price: decimal.RequireFromString("10.00")},
		},
	}
	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err = svc.GetByID(context.Background(), uuid.New(), order.ID)
	assertCode(t, err, pkgerrors.CodeNotFound)

	dto, err := svc.GetByID(context.Background(), buyerID, order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dto.Total != "35.00" {
		t.Fatalf("expected total 35.00, got %s", dto.Total)
	}
	if dto.Items[0].Subtotal != "20.00" {
		t.Fatalf("expected line subtotal 20.00, got %s", dto.Items[0].Subtotal)
	}
}

func TestListPaginates(t *testing.T) {
	repo := newStubOrdersRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	buyerID := uuid.New()
	for i := 0; i < 3; i++ {
		order := &models.Order{BuyerID: buyerID, Total: decimal.New(1, 0), CreatedAt: time.Now()}
		if err := repo.Create(context.Background(), order); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	page, err := svc.List(context.Background(), buyerID, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
	if page.NextCursor == "" {
		t.Fatal("expected next cursor")
	}

	if _, err := svc.List(context.Background(), buyerID, pagination.Params{Cursor: "!!"}); err == nil {
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
