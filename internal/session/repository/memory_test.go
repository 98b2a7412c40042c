package repository

import (
	"context"
	"testing"
	"time"

	"ecc-auth/internal/session/domain"
)

func seedSession(t *testing.T, r *MemoryRepository, id, userID, token string, lastActive time.Time) {
	t.Helper()
	err := r.Create(context.Background(), &domain.Session{
		ID:         id,
		UserID:     userID,
		Token:      token,
		IsActive:   true,
		CreatedAt:  lastActive,
		LastActive: lastActive,
	})
	if err != nil {
		t.Fatalf("Create(%s): %v", id, err)
	}
}

func TestGetByTokenReturnsOnlyActiveSessions(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	seedSession(t, r, "s1", "u1", "tok-1", time.Now())

	got, err := r.GetByToken(ctx, "tok-1")
	if err != nil || got == nil || got.ID != "s1" {
		t.Fatalf("GetByToken: %v, %v", got, err)
	}
	if got, _ := r.GetByToken(ctx, "tok-unknown"); got != nil {
		t.Errorf("unknown token should yield nil, got %+v", got)
	}

	if err := r.Invalidate(ctx, "s1"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if got, _ := r.GetByToken(ctx, "tok-1"); got != nil {
		t.Error("invalidated session must not resolve by token")
	}
}

func TestInvalidateIsIdempotent(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	seedSession(t, r, "s1", "u1", "tok-1", time.Now())

	for range 2 {
		if err := r.Invalidate(ctx, "s1"); err != nil {
			t.Fatalf("Invalidate: %v", err)
		}
	}
	if err := r.Invalidate(ctx, "absent"); err != nil {
		t.Errorf("invalidating an absent session: %v", err)
	}
}

func TestListActiveByUserOrdersByLastActive(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedSession(t, r, "old", "u1", "tok-old", base)
	seedSession(t, r, "new", "u1", "tok-new", base.Add(time.Hour))
	seedSession(t, r, "other", "u2", "tok-other", base)

	list, err := r.ListActiveByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListActiveByUser: %v", err)
	}
	if len(list) != 2 || list[0].ID != "new" || list[1].ID != "old" {
		t.Fatalf("order = %v", list)
	}

	// Touching the older session moves it to the front.
	if err := r.Touch(ctx, "old", base.Add(2*time.Hour)); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	list, _ = r.ListActiveByUser(ctx, "u1")
	if list[0].ID != "old" {
		t.Errorf("after touch, first = %s, want old", list[0].ID)
	}
}

func TestInvalidateAllExceptReportsCount(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()
	seedSession(t, r, "s1", "u1", "tok-1", now)
	seedSession(t, r, "s2", "u1", "tok-2", now)
	seedSession(t, r, "s3", "u1", "tok-3", now)
	seedSession(t, r, "s4", "u2", "tok-4", now)

	revoked, err := r.InvalidateAllExcept(ctx, "u1", "s2")
	if err != nil {
		t.Fatalf("InvalidateAllExcept: %v", err)
	}
	if revoked != 2 {
		t.Errorf("revoked = %d, want 2", revoked)
	}

	list, _ := r.ListActiveByUser(ctx, "u1")
	if len(list) != 1 || list[0].ID != "s2" {
		t.Errorf("surviving sessions = %v, want only s2", list)
	}
	otherUser, _ := r.ListActiveByUser(ctx, "u2")
	if len(otherUser) != 1 {
		t.Error("another user's sessions must be untouched")
	}
}

func TestRepositoryReturnsCopies(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	seedSession(t, r, "s1", "u1", "tok-1", time.Now())

	got, _ := r.GetByID(ctx, "s1")
	got.IsActive = false

	again, _ := r.GetByID(ctx, "s1")
	if !again.IsActive {
		t.Error("mutating a returned session must not affect the store")
	}
}
