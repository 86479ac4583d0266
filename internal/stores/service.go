package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chiecouture/storefront-backend/pkg/db/models"
	pkgerrors "github.com/chiecouture/storefront-backend/pkg/errors"
	"github.com/chiecouture/storefront-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLister interface {
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Product, error)
}

type reviewLister interface {
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Review, error)
}

type announcer interface {
	AnnounceNewStore(ctx context.Context, storeName string) error
}

// CreateStoreInput captures a vendor's new storefront request.
type CreateStoreInput struct {
	Name        string
	Description string
}

// DashboardDTO aggregates a vendor's store, listings, and incoming reviews.
type DashboardDTO struct {
	Store    *StoreDTO       `json:"store"`
	Products []ProductRowDTO `json:"products"`
	Reviews  []ReviewRowDTO  `json:"reviews"`
}

// ProductRowDTO is the dashboard projection of a listing.
type ProductRowDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price string    `json:"price"`
	Stock int       `json:"stock"`
}

// ReviewRowDTO is the dashboard projection of a review.
type ReviewRowDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Verified  bool      `json:"verified"`
}

// Service exposes store operations.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateStoreInput) (*StoreDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error)
	List(ctx context.Context) ([]StoreDTO, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]StoreDTO, error)
	Update(ctx context.Context, ownerID, storeID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error)
	Delete(ctx context.Context, ownerID, storeID uuid.UUID) error
	Dashboard(ctx context.Context, ownerID uuid.UUID) (*DashboardDTO, error)
}

type service struct {
	tx       txRunner
	repo     StoreRepository
	products productLister
	reviews  reviewLister
	social   announcer
	logg     *logger.Logger
}

// NewService builds a store service with the provided collaborators.
func NewService(
	tx txRunner,
	repo StoreRepository,
	products productLister,
	reviews reviewLister,
	social announcer,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lister required")
	}
	if reviews == nil {
		return nil, fmt.Errorf("review lister required")
	}
	if social == nil {
		return nil, fmt.Errorf("social publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       tx,
		repo:     repo,
		products: products,
		reviews:  reviews,
		social:   social,
		logg:     logg,
	}, nil
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreateStoreInput) (*StoreDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}

	var created *models.Store
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// check-then-create inside one transaction; the unique index on
		// owner_id closes the remaining race
		_, err := repo.FindByOwner(ctx, ownerID)
		if err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "vendor already has a store")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing store")
		}

		created, err = repo.Create(ctx, CreateStoreDTO{
			Name:        name,
			Description: strings.TrimSpace(input.Description),
			OwnerID:     ownerID,
		})
		if err != nil {
			if pkgerrors.IsUniqueViolation(err, "idx_stores_owner_id") {
				return pkgerrors.New(pkgerrors.CodeConflict, "vendor already has a store")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// best effort, never fails the request
	if announceErr := s.social.AnnounceNewStore(ctx, created.Name); announceErr != nil {
		s.logg.Error(s.logg.WithField(ctx, "store_id", created.ID.String()), "store announcement failed", announceErr)
	}

	return FromModel(created), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return FromModel(store), nil
}

func (s *service) List(ctx context.Context) ([]StoreDTO, error) {
	stores, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	result := make([]StoreDTO, 0, len(stores))
	for i := range stores {
		result = append(result, *FromModel(&stores[i]))
	}
	return result, nil
}

func (s *service) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]StoreDTO, error) {
	store, err := s.repo.FindByOwner(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []StoreDTO{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup vendor store")
	}
	return []StoreDTO{*FromModel(store)}, nil
}

func (s *service) Update(ctx context.Context, ownerID, storeID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error) {
	store, err := s.ownedStore(ctx, ownerID, storeID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
		}
		store.Name = name
	}
	if input.Description != nil {
		store.Description = strings.TrimSpace(*input.Description)
	}

	if err := s.repo.Update(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store")
	}
	return FromModel(store), nil
}

func (s *service) Delete(ctx context.Context, ownerID, storeID uuid.UUID) error {
	if _, err := s.ownedStore(ctx, ownerID, storeID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, storeID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete store")
	}
	return nil
}

func (s *service) Dashboard(ctx context.Context, ownerID uuid.UUID) (*DashboardDTO, error) {
	store, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor has no store")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor store")
	}

	products, err := s.products.ListByStore(ctx, store.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store products")
	}
	reviews, err := s.reviews.ListByStore(ctx, store.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store reviews")
	}

	dto := &DashboardDTO{
		Store:    FromModel(store),
		Products: make([]ProductRowDTO, 0, len(products)),
		Reviews:  make([]ReviewRowDTO, 0, len(reviews)),
	}
	for _, p := range products {
		dto.Products = append(dto.Products, ProductRowDTO{
			ID:    p.ID,
			Name:  p.Name,
			Price: p.Price.StringFixed(2),
			Stock: p.Stock,
		})
	}
	for _, r := range reviews {
		dto.Reviews = append(dto.Reviews, ReviewRowDTO{
			ID:        r.ID,
			ProductID: r.ProductID,
			Rating:    r.Rating,
			Comment:   r.Comment,
			Verified:  r.Verified,
		})
	}
	return dto, nil
}

func (s *service) ownedStore(ctx context.Context, ownerID, storeID uuid.UUID) (*models.Store, error) {
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if store.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store belongs to another vendor")
	}
	return store, nil
}
