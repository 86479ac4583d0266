package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chiecouture/storefront-backend/pkg/db/models"
)

// Repository handles cart persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to cart operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	return &Repository{db: tx}
}

// FindOrCreateByBuyer loads the buyer's cart, creating it lazily.
func (r *Repository) FindOrCreateByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	cart, err := r.FindByBuyer(ctx, buyerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &models.Cart{BuyerID: buyerID}
	if createErr := r.db.WithContext(ctx).Create(created).Error; createErr != nil {
		// concurrent first-add may have won the unique index race
		if cart, retryErr := r.FindByBuyer(ctx, buyerID); retryErr == nil {
			return cart, nil
		}
		return nil, createErr
	}
	created.Items = []models.CartItem{}
	return created, nil
}

// FindByBuyer loads the cart with its lines and product data, oldest line first.
func (r *Repository) FindByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Items.Product").
		Where("buyer_id = ?", buyerID).
		First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindByBuyerForUpdate locks the cart row FOR UPDATE and loads its lines.
// Serializes concurrent checkouts of the same cart.
func (r *Repository) FindByBuyerForUpdate(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("buyer_id = ?", buyerID).
		First(&cart).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("cart_id = ?", cart.ID).
		Order("created_at ASC").
		Find(&cart.Items).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindItemByID loads a single cart line.
func (r *Repository) FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// InsertItem persists a new cart line.
func (r *Repository) InsertItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// IncrementItem bumps an existing line's quantity with a single atomic UPDATE.
// Returns the number of rows touched; zero means no line exists yet.
func (r *Repository) IncrementItem(ctx context.Context, cartID, productID uuid.UUID, delta int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	return result.RowsAffected, result.Error
}

// SetItemQuantity replaces a line's quantity.
func (r *Repository) SetItemQuantity(ctx context.Context, itemID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", qty).Error
}

// DeleteItem removes a single line and reports how many rows went away.
func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ?", itemID)
	return result.RowsAffected, result.Error
}

// DeleteItemsByCart clears every line of the cart.
func (r *Repository) DeleteItemsByCart(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "cart_id = ?", cartID).Error
}
