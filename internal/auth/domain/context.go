package domain

import "time"

// PendingAuth marks that identity verification succeeded and an OTP challenge
// is outstanding. It lives only in the interactive-session context, never in
// the durable store, and each interactive session holds at most one; a new
// identity verification overwrites the previous one.
type PendingAuth struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Expired reports whether the challenge window has closed at the given time.
func (p *PendingAuth) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// AuthContext identifies the authenticated user and session bound to an
// interactive session after a completed login.
type AuthContext struct {
	UserID       string
	SessionID    string
	SessionToken string
}

// SessionContext is the interactive-session-scoped state threaded through
// every orchestrator call. The transport layer persists and restores it (for
// the HTTP server, as a signed cookie); the state machine itself stays
// independent of any cookie mechanism.
type SessionContext struct {
	PendingAuth *PendingAuth
	Auth        *AuthContext
}

// Authenticated reports whether the context carries a completed login.
func (c *SessionContext) Authenticated() bool {
	return c != nil && c.Auth != nil
}
