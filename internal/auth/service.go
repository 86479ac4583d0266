package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chiecouture/storefront-backend/internal/users"
	pkgauth "github.com/chiecouture/storefront-backend/pkg/auth"
	"github.com/chiecouture/storefront-backend/pkg/config"
	"github.com/chiecouture/storefront-backend/pkg/db/models"
	"github.com/chiecouture/storefront-backend/pkg/enums"
	pkgerrors "github.com/chiecouture/storefront-backend/pkg/errors"
	"github.com/chiecouture/storefront-backend/pkg/logger"
	"github.com/chiecouture/storefront-backend/pkg/mailer"
	"github.com/chiecouture/storefront-backend/pkg/security"
)

const minPasswordLength = 8

type usersRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type resetTokenRepository interface {
	Create(ctx context.Context, userID uuid.UUID) (*models.PasswordResetToken, error)
	FindByToken(ctx context.Context, token uuid.UUID) (*models.PasswordResetToken, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteForUser(ctx context.Context, userID uuid.UUID) error
}

// Service exposes identity operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*SessionDTO, error)
	Login(ctx context.Context, input LoginInput) (*SessionDTO, error)
	RequestPasswordReset(ctx context.Context, input ResetRequestInput) error
	ConfirmPasswordReset(ctx context.Context, input ResetConfirmInput) error
}

type service struct {
	users       usersRepository
	resetTokens resetTokenRepository
	mail        mailer.Sender
	logg        *logger.Logger
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	baseURL     string
	now         func() time.Time
}

// NewService builds the identity service.
func NewService(
	usersRepo usersRepository,
	resetTokens resetTokenRepository,
	mail mailer.Sender,
	logg *logger.Logger,
	jwtCfg config.JWTConfig,
	passwordCfg config.PasswordConfig,
	baseURL string,
) (Service, error) {
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if resetTokens == nil {
		return nil, fmt.Errorf("reset token repository required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		users:       usersRepo,
		resetTokens: resetTokens,
		mail:        mail,
		logg:        logg,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		baseURL:     strings.TrimRight(baseURL, "/"),
		now:         time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*SessionDTO, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	role, err := enums.ParseRole(input.Role)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be buyer or vendor")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if pkgerrors.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username or email already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	return s.session(user)
}

func (s *service) Login(ctx context.Context, input LoginInput) (*SessionDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	return s.session(user)
}

func (s *service) RequestPasswordReset(ctx context.Context, input ResetRequestInput) error {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// do not reveal whether the address exists
			s.logg.Info(s.logg.WithField(ctx, "email", email), "password reset requested for unknown email")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	token, err := s.resetTokens.Create(ctx, user.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reset token")
	}

	resetLink := fmt.Sprintf("%s/reset_password/%s/", s.baseURL, token.Token)
	msg := mailer.Message{
		ToName:  user.Username,
		ToEmail: user.Email,
		Subject: "Password Reset Request",
		Body:    fmt.Sprintf("Click the link to reset your password: %s", resetLink),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNotification, err, "send password reset email")
	}
	return nil
}

func (s *service) ConfirmPasswordReset(ctx context.Context, input ResetConfirmInput) error {
	tokenID, err := uuid.Parse(strings.TrimSpace(input.Token))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid reset token")
	}
	if len(input.Password) < minPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	record, err := s.resetTokens.FindByToken(ctx, tokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "reset token not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup reset token")
	}
	if record.Expired(s.now()) {
		// expired tokens are single-shot garbage, clean up eagerly
		_ = s.resetTokens.Delete(ctx, record.ID)
		return pkgerrors.New(pkgerrors.CodeValidation, "reset token expired")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePasswordHash(ctx, record.UserID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	if err := s.resetTokens.DeleteForUser(ctx, record.UserID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete reset tokens")
	}
	return nil
}

func (s *service) session(user *models.User) (*SessionDTO, error) {
	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &SessionDTO{
		AccessToken: token,
		User:        users.FromModel(user),
	}, nil
}
