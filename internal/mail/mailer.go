// Package mail delivers account notifications: the welcome message, the login
// OTP, and login alerts. Delivery is an external collaborator of the login
// flow; everything except the OTP message is best-effort.
package mail

import "context"

// Mailer sends the three account notification kinds. Implementations must be
// independently timeoutable; a slow mail server must not hold a login
// transition open indefinitely.
type Mailer interface {
	// SendWelcome greets a freshly registered user.
	SendWelcome(ctx context.Context, email, username string) error
	// SendOTP delivers a one-time code. Failures here must surface to the
	// caller: without the code the user cannot finish logging in.
	SendOTP(ctx context.Context, email, code string) error
	// SendLoginAlert notifies about a completed login. urgent marks logins
	// from a location the user has never logged in from before.
	SendLoginAlert(ctx context.Context, email, location, device string, urgent bool) error
}
