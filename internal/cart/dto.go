package cart

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chiecouture/storefront-backend/pkg/db/models"
)

// CartItemDTO is one cart line with its computed subtotal.
type CartItemDTO struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	UnitPrice   string    `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	Subtotal    string    `json:"subtotal"`
}

// CartDTO is the buyer's cart view with a grand total.
type CartDTO struct {
	ID    uuid.UUID     `json:"id"`
	Items []CartItemDTO `json:"items"`
	Total string        `json:"total"`
}

// CoerceQuantity turns free-form quantity input into an integer. The boolean
// reports whether the input parsed at all; callers decide what zero or
// negative values mean.
func CoerceQuantity(raw string) (int, bool) {
	qty, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return qty, true
}

// FromModel maps a persisted cart into the response DTO, computing per-line
// subtotals and the grand total.
func FromModel(m *models.Cart) *CartDTO {
	if m == nil {
		return nil
	}
	dto := &CartDTO{
		ID:    m.ID,
		Items: make([]CartItemDTO, 0, len(m.Items)),
	}
	total := decimal.Zero
	for _, item := range m.Items {
		line := CartItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
			line.UnitPrice = item.Product.Price.StringFixed(2)
			subtotal := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			line.Subtotal = subtotal.StringFixed(2)
			total = total.Add(subtotal)
		}
		dto.Items = append(dto.Items, line)
	}
	dto.Total = total.StringFixed(2)
	return dto
}
