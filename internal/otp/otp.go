// Package otp issues and verifies time-based one-time codes bound to a
// per-user secret. Codes use a 300-second step so a code stays valid for the
// whole five-minute challenge window, with one step of skew either side.
package otp

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// Period is the TOTP time step in seconds. Matches the five-minute
	// challenge validity of the login flow.
	Period = 300
	// Digits is the code length.
	Digits = 6
	// Skew is the number of adjacent steps accepted on verify, to tolerate
	// small clock or network drift.
	Skew = 1

	secretSize = 20
	issuer     = "ECC Security System"
)

// Engine generates per-user secrets and issues/verifies codes against them.
// The zero value is not usable; call NewEngine.
type Engine struct {
	nowF func() time.Time
}

// NewEngine returns an Engine using the wall clock.
func NewEngine() *Engine {
	return &Engine{nowF: time.Now}
}

// NewEngineAt returns an Engine using the given clock. Used in tests to pin
// the time step.
func NewEngineAt(now func() time.Time) *Engine {
	return &Engine{nowF: now}
}

// GenerateSecret produces a fresh random base32 TOTP secret for one user,
// created at registration and stored alongside the account.
func (e *Engine) GenerateSecret(accountName string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		Period:      Period,
		SecretSize:  secretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

// Issue produces the 6-digit code for the current time step. Calling it again
// within the same step yields the same code, so re-sends inside a window are
// idempotent in effect.
func (e *Engine) Issue(secret string) (string, error) {
	return totp.GenerateCodeCustom(secret, e.nowF(), e.opts())
}

// Verify reports whether code matches the value for the current time step or
// an immediately adjacent one. No side effects on failure; the caller is
// responsible for closing the window after a successful login.
func (e *Engine) Verify(secret, code string) bool {
	ok, err := totp.ValidateCustom(code, secret, e.nowF(), e.opts())
	return err == nil && ok
}

func (e *Engine) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    Period,
		Skew:      Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}
