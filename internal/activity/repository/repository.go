package repository

import (
	"context"

	"ecc-auth/internal/activity/domain"
)

// DefaultLimit bounds ListRecentByUser when the caller passes limit <= 0.
const DefaultLimit = 10

// Repository defines persistence for the append-only login-activity ledger.
type Repository interface {
	Create(ctx context.Context, a *domain.LoginActivity) error
	// ListRecentByUser returns the user's most recent activity, newest first,
	// bounded by limit (DefaultLimit when limit <= 0).
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]*domain.LoginActivity, error)
}
