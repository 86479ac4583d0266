package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetToken is a single-use reset credential valid for 24 hours.
type PasswordResetToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Token     uuid.UUID `gorm:"column:token;type:uuid;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Expired reports whether the token is past its 24 hour validity window.
func (t PasswordResetToken) Expired(now time.Time) bool {
	return now.Sub(t.CreatedAt) >= 24*time.Hour
}
