package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chiecouture/storefront-backend/pkg/db/models"
	pkgerrors "github.com/chiecouture/storefront-backend/pkg/errors"
	"github.com/chiecouture/storefront-backend/pkg/logger"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart operations for authenticated buyers.
type Service interface {
	AddItem(ctx context.Context, buyerID, productID uuid.UUID, rawQty string) (*CartDTO, error)
	UpdateItems(ctx context.Context, buyerID uuid.UUID, entries map[string]string) (*CartDTO, error)
	RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) error
	View(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error)
}

type service struct {
	repo     CartRepository
	products productLoader
	logg     *logger.Logger
}

// NewService builds the cart service.
func NewService(repo CartRepository, products productLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, products: products, logg: logg}, nil
}

func (s *service) AddItem(ctx context.Context, buyerID, productID uuid.UUID, rawQty string) (*CartDTO, error) {
	qty, ok := CoerceQuantity(rawQty)
	if !ok || qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	cart, err := s.repo.FindOrCreateByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	// increment-first keeps the merge a single UPDATE for the common case
	touched, err := s.repo.IncrementItem(ctx, cart.ID, productID, qty)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart line")
	}
	if touched == 0 {
		item := &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: qty}
		if insertErr := s.repo.InsertItem(ctx, item); insertErr != nil {
			// concurrent add of the same product created the line first
			if pkgerrors.IsUniqueViolation(insertErr, "idx_cart_items_cart_product") {
				if _, err := s.repo.IncrementItem(ctx, cart.ID, productID, qty); err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart line")
				}
			} else {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, insertErr, "insert cart line")
			}
		}
	}

	return s.View(ctx, buyerID)
}

// UpdateItems applies a batch of quantity changes. Positive quantities are
// set, non-positive quantities delete the line. Malformed ids, unparseable
// quantities, and lines not owned by the buyer are skipped without aborting
// the batch.
func (s *service) UpdateItems(ctx context.Context, buyerID uuid.UUID, entries map[string]string) (*CartDTO, error) {
	cart, err := s.repo.FindOrCreateByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	for rawID, rawQty := range entries {
		itemID, err := uuid.Parse(rawID)
		if err != nil {
			continue
		}
		qty, ok := CoerceQuantity(rawQty)
		if !ok {
			continue
		}

		item, err := s.repo.FindItemByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}
		if item.CartID != cart.ID {
			continue
		}

		if qty > 0 {
			if err := s.repo.SetItemQuantity(ctx, itemID, qty); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set cart line quantity")
			}
		} else {
			if _, err := s.repo.DeleteItem(ctx, itemID); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
			}
		}
	}

	return s.View(ctx, buyerID)
}

func (s *service) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) error {
	cart, err := s.repo.FindOrCreateByBuyer(ctx, buyerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if item.CartID != cart.ID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	if _, err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
	}
	return nil
}

func (s *service) View(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindOrCreateByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	// reload to pick up lines touched in this request
	loaded, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return FromModel(cart), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart lines")
	}
	return FromModel(loaded), nil
}
