package domain

import "time"

// Session is one authenticated device/browser instance. Sessions are created
// only after a successful OTP verification, flip IsActive to false exactly
// once on invalidation, and are never hard-deleted (kept for audit).
type Session struct {
	ID         string
	UserID     string
	Token      string // opaque high-entropy token, unique across all sessions
	DeviceInfo string
	IPAddress  string
	Location   string
	IsActive   bool
	CreatedAt  time.Time
	LastActive time.Time
}
