package domain

import "time"

// Status classifies a completed or rejected login attempt at the OTP stage.
type Status string

const (
	StatusSuccessful  Status = "successful"
	StatusNewLocation Status = "new_location"
	StatusFailed      Status = "failed"
)

// LoginActivity is one append-only record in a user's login history. Records
// are immutable once written and are used for anomaly detection and audit
// display.
type LoginActivity struct {
	ID         string
	UserID     string
	IPAddress  string
	DeviceInfo string
	Location   string
	Status     Status
	CreatedAt  time.Time
}

// Classify decides whether a login at location is anomalous given the user's
// history: new_location iff the user has at least one prior record and none of
// them share the exact location label. A user's first-ever login is never
// flagged, even though its location is by definition new.
func Classify(history []*LoginActivity, location string) Status {
	if len(history) == 0 {
		return StatusSuccessful
	}
	for _, a := range history {
		if a.Location == location {
			return StatusSuccessful
		}
	}
	return StatusNewLocation
}
