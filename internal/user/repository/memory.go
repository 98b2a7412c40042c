package repository

import (
	"context"
	"sync"

	"ecc-auth/internal/user/domain"
)

// MemoryRepository is an in-memory user repository guarded by a mutex. The
// default backend when no DATABASE_URL is configured; also used in tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.User
}

// NewMemoryRepository returns an empty in-memory user repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*domain.User)}
}

// GetByID returns the user for id, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// GetByUsername returns the user with the given username, or nil if not found.
func (r *MemoryRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByEmail returns the user with the given email, or nil if not found.
func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Create stores a copy of the user. The user must have ID set.
func (r *MemoryRepository) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.byID[u.ID] = &cp
	return nil
}

// SetOTPSecret stores the per-user TOTP secret. No-op when the user is absent.
func (r *MemoryRepository) SetOTPSecret(ctx context.Context, userID, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[userID]; ok {
		u.OTPSecret = secret
	}
	return nil
}
