package repository

import (
	"context"
	"time"

	"ecc-auth/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	// GetByToken returns the active session with the given token, or nil.
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	// ListActiveByUser returns all active sessions for a user, most-recently-active first.
	ListActiveByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	// Invalidate sets active=false. Idempotent: invalidating an inactive session is a no-op.
	Invalidate(ctx context.Context, id string) error
	// InvalidateAllExcept sets active=false on every active session of the user
	// other than keepID and reports how many sessions it revoked.
	InvalidateAllExcept(ctx context.Context, userID, keepID string) (int, error)
	// Touch bumps the session's last-active timestamp.
	Touch(ctx context.Context, id string, at time.Time) error
}
