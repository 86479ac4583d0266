package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chiecouture/storefront-backend/pkg/db/models"
)

func decimalFromInt(value int) decimal.Decimal {
	return decimal.NewFromInt(int64(value))
}

// OrderItemDTO is one purchased line with its snapshot price.
type OrderItemDTO struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   *uuid.UUID `json:"product_id,omitempty"`
	ProductName string     `json:"product_name"`
	Quantity    int        `json:"quantity"`
	Price       string     `json:"price"`
	Subtotal    string     `json:"subtotal"`
}

// OrderDTO is a committed purchase.
type OrderDTO struct {
	ID        uuid.UUID      `json:"id"`
	Total     string         `json:"total"`
	Items     []OrderItemDTO `json:"items,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// OrderPage is a cursor-paginated slice of the buyer's orders.
type OrderPage struct {
	Items      []OrderDTO `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// FromModel maps the persisted order into a DTO, including items when loaded.
func FromModel(m *models.Order) *OrderDTO {
	if m == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:        m.ID,
		Total:     m.Total.StringFixed(2),
		CreatedAt: m.CreatedAt,
	}
	for _, item := range m.Items {
		subtotal := item.Price.Mul(decimalFromInt(item.Quantity))
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price.StringFixed(2),
			Subtotal:    subtotal.StringFixed(2),
		})
	}
	return dto
}
