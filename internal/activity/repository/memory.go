package repository

import (
	"context"
	"sort"
	"sync"

	"ecc-auth/internal/activity/domain"
)

// MemoryRepository is an in-memory activity ledger guarded by a mutex.
// Append-only: records are never mutated or removed.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []*domain.LoginActivity
}

// NewMemoryRepository returns an empty in-memory activity repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Create appends a copy of the record.
func (r *MemoryRepository) Create(ctx context.Context, a *domain.LoginActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.records = append(r.records, &cp)
	return nil
}

// ListRecentByUser returns the user's most recent activity, newest first,
// bounded by limit (DefaultLimit when limit <= 0).
func (r *MemoryRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]*domain.LoginActivity, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.LoginActivity
	for _, a := range r.records {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
