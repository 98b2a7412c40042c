package repository

import (
	"context"

	"ecc-auth/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// SetOTPSecret stores the per-user TOTP secret assigned at registration.
	SetOTPSecret(ctx context.Context, userID, secret string) error
}
