package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chiecouture/storefront-backend/pkg/db/models"
)

// CartRepository is the persistence surface for carts and their lines.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindOrCreateByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error)
	FindByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error)
	FindByBuyerForUpdate(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error)
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error)
	InsertItem(ctx context.Context, item *models.CartItem) error
	IncrementItem(ctx context.Context, cartID, productID uuid.UUID, delta int) (int64, error)
	SetItemQuantity(ctx context.Context, itemID uuid.UUID, qty int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) (int64, error)
	DeleteItemsByCart(ctx context.Context, cartID uuid.UUID) error
}
