package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a buyer's rating of a product. Verified is computed exactly once at
// submission from the buyer's order history and never recomputed.
type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	BuyerID   uuid.UUID `gorm:"column:buyer_id;type:uuid;not null;index"`
	Rating    int       `gorm:"column:rating;not null"`
	Comment   string    `gorm:"column:comment;not null;default:''"`
	Verified  bool      `gorm:"column:verified;not null;default:false"`
	Buyer     *User     `gorm:"foreignKey:BuyerID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
