package service

import "errors"

// Sentinel errors for the auth service; the handler maps them to HTTP statuses.
var (
	// ErrInvalidInput covers malformed registration/login input (bad email
	// shape, catchphrase below the minimum length, missing fields).
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateUser is returned when the username or email is taken.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrInvalidCredentials covers every identity-step failure. Deliberately
	// generic: the caller must not learn whether the email or the phrase was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoPendingAuth is returned when VerifyOTP runs without a prior
	// successful identity verification in this interactive session.
	ErrNoPendingAuth = errors.New("no pending authentication")
	// ErrAuthExpired is returned when the OTP step runs after the challenge
	// window closed. Detection deletes the pending authentication.
	ErrAuthExpired = errors.New("authentication expired, please start over")
	// ErrEmailMismatch is returned when the OTP step's email differs from the
	// one identity verification was performed for.
	ErrEmailMismatch = errors.New("email mismatch")
	// ErrInvalidOtp is returned on OTP mismatch. The pending authentication is
	// retained so the user may retry until expiry.
	ErrInvalidOtp = errors.New("invalid OTP")
	// ErrNotAuthenticated is returned when an operation requires a completed login.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNotFound is returned when the user or session vanished between steps.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamUnavailable is returned when a required external collaborator
	// (OTP mail delivery) fails; the caller may retry.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
