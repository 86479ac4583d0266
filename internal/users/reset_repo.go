package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chiecouture/storefront-backend/pkg/db/models"
)

// ResetTokenRepository handles password reset token persistence.
type ResetTokenRepository struct {
	db *gorm.DB
}

// NewResetTokenRepository binds a GORM DB to reset token operations.
func NewResetTokenRepository(db *gorm.DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

// Create persists a new single-use token for the user.
func (r *ResetTokenRepository) Create(ctx context.Context, userID uuid.UUID) (*models.PasswordResetToken, error) {
	token := &models.PasswordResetToken{
		UserID: userID,
		Token:  uuid.New(),
	}
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

// FindByToken loads a reset token by its opaque value.
func (r *ResetTokenRepository) FindByToken(ctx context.Context, token uuid.UUID) (*models.PasswordResetToken, error) {
	var record models.PasswordResetToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Delete removes a consumed or expired token.
func (r *ResetTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.PasswordResetToken{}, "id = ?", id).Error
}

// DeleteForUser removes every outstanding token for the user.
func (r *ResetTokenRepository) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.PasswordResetToken{}, "user_id = ?", userID).Error
}
