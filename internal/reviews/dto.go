package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/chiecouture/storefront-backend/pkg/db/models"
)

// ReviewDTO exposes a product review in API responses.
type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	BuyerName string    `json:"buyer_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitReviewInput captures a buyer's review submission.
type SubmitReviewInput struct {
	Rating  int
	Comment string
}

// FromModel maps the persisted review into a DTO.
func FromModel(m *models.Review) *ReviewDTO {
	if m == nil {
		return nil
	}
	dto := &ReviewDTO{
		ID:        m.ID,
		ProductID: m.ProductID,
		Rating:    m.Rating,
		Comment:   m.Comment,
		Verified:  m.Verified,
		CreatedAt: m.CreatedAt,
	}
	if m.Buyer != nil {
		dto.BuyerName = m.Buyer.Username
	}
	return dto
}
