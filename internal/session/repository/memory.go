package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"ecc-auth/internal/security"
	"ecc-auth/internal/session/domain"
)

// MemoryRepository is an in-memory session repository guarded by a mutex.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.Session
}

// NewMemoryRepository returns an empty in-memory session repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*domain.Session)}
}

// GetByID returns the session for id, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

// GetByToken returns the active session with the given token, or nil.
// Token comparison is constant-time.
func (r *MemoryRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.byID {
		if s.IsActive && security.TokenEqual(s.Token, token) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

// ListActiveByUser returns all active sessions for a user, most-recently-active first.
func (r *MemoryRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Session
	for _, s := range r.byID {
		if s.UserID == userID && s.IsActive {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActive.After(out[j].LastActive) })
	return out, nil
}

// Create stores a copy of the session. The session must have ID and Token set.
func (r *MemoryRepository) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.byID[s.ID] = &cp
	return nil
}

// Invalidate sets active=false. No-op if the session is absent or already inactive.
func (r *MemoryRepository) Invalidate(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		s.IsActive = false
	}
	return nil
}

// InvalidateAllExcept sets active=false on every active session of the user
// other than keepID and reports how many sessions it revoked.
func (r *MemoryRepository) InvalidateAllExcept(ctx context.Context, userID, keepID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	revoked := 0
	for id, s := range r.byID {
		if s.UserID == userID && s.IsActive && id != keepID {
			s.IsActive = false
			revoked++
		}
	}
	return revoked, nil
}

// Touch bumps the session's last-active timestamp. No-op if absent.
func (r *MemoryRepository) Touch(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		s.LastActive = at
	}
	return nil
}
