package domain

import (
	"errors"
	"time"
)

// User is the core user entity. The public key is derived from the user's
// catchphrase at registration and is immutable afterwards; the phrase itself
// is never stored.
type User struct {
	ID         string
	Username   string
	Email      string
	PublicKey  string
	OTPEnabled bool
	OTPSecret  string // empty until assigned at registration
	CreatedAt  time.Time
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Username == "" {
		return errors.New("username is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PublicKey == "" {
		return errors.New("public key is required")
	}
	return nil
}
