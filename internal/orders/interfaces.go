package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chiecouture/storefront-backend/pkg/db/models"
	"github.com/chiecouture/storefront-backend/pkg/pagination"
)

// Repository is the persistence surface for committed orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	UpdateTotal(ctx context.Context, order *models.Order) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
}
