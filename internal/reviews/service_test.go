package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chiecouture/storefront-backend/pkg/db/models"
	pkgerrors "github.com/chiecouture/storefront-backend/pkg/errors"
)

type stubReviewRepo struct {
	created   []*models.Review
	purchases map[[2]uuid.UUID]bool
	listed    []models.Review
}

func newStubReviewRepo() *stubReviewRepo {
	return &stubReviewRepo{purchases: make(map[[2]uuid.UUID]bool)}
}

func (s *stubReviewRepo) Create(ctx context.Context, review *models.Review) error {
	review.ID = uuid.New()
	s.created = append(s.created, review)
	return nil
}

func (s *stubReviewRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	return s.listed, nil
}

func (s *stubReviewRepo) HasPurchased(ctx context.Context, buyerID, productID uuid.UUID) (bool, error) {
	return s.purchases[[2]uuid.UUID{buyerID, productID}], nil
}

type stubProductLoader struct {
	known map[uuid.UUID]bool
}

func (s *stubProductLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if !s.known[id] {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Product{ID: id}, nil
}

type stubBuyerLoader struct{}

func (stubBuyerLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return &models.User{ID: id, Username: "buyer"}, nil
}

func newTestService(t *testing.T, repo *stubReviewRepo, productID uuid.UUID) Service {
	t.Helper()
	svc, err := NewService(repo, &stubProductLoader{known: map[uuid.UUID]bool{productID: true}}, stubBuyerLoader{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSubmitRatingBounds(t *testing.T) {
	productID := uuid.New()
	svc := newTestService(t, newStubReviewRepo(), productID)
	buyerID := uuid.New()

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := svc.Submit(context.Background(), buyerID, productID, SubmitReviewInput{Rating: rating})
		assertCode(t, err, pkgerrors.CodeValidation)
	}
	for _, rating := range []int{1, 5} {
		if _, err := svc.Submit(context.Background(), buyerID, productID, SubmitReviewInput{Rating: rating}); err != nil {
			t.Fatalf("rating %d should be accepted: %v", rating, err)
		}
	}
}

func TestSubmitComputesVerifiedOnce(t *testing.T) {
	productID := uuid.New()
	repo := newStubReviewRepo()
	svc := newTestService(t, repo, productID)

	purchaser := uuid.New()
	repo.purchases[[2]uuid.UUID{purchaser, productID}] = true
	stranger := uuid.New()

	verified, err := svc.Submit(context.Background(), purchaser, productID, SubmitReviewInput{Rating: 5, Comment: "lovely"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !verified.Verified {
		t.Fatal("purchaser review must be verified")
	}

	unverified, err := svc.Submit(context.Background(), stranger, productID, SubmitReviewInput{Rating: 3})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if unverified.Verified {
		t.Fatal("non-purchaser review must not be verified")
	}

	// the persisted flag is fixed at submission; later purchases change nothing
	repo.purchases[[2]uuid.UUID{stranger, productID}] = true
	if repo.created[1].Verified {
		t.Fatal("stored review must keep its submission-time flag")
	}
}

func TestSubmitRequiresBuyerPrincipal(t *testing.T) {
	productID := uuid.New()
	svc := newTestService(t, newStubReviewRepo(), productID)

	_, err := svc.Submit(context.Background(), uuid.Nil, productID, SubmitReviewInput{Rating: 4})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestSubmitUnknownProduct(t *testing.T) {
	svc := newTestService(t, newStubReviewRepo(), uuid.New())

	_, err := svc.Submit(context.Background(), uuid.New(), uuid.New(), SubmitReviewInput{Rating: 4})
	assertCode(t, err, pkgerrors.CodeNotFound)
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
