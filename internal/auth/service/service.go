// Package service implements the authentication state machine: registration,
// two-step login (identity verification then OTP), session lifecycle, and the
// login-activity ledger. All collaborators are injected; the service owns no
// process-wide state.
package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	activitydomain "ecc-auth/internal/activity/domain"
	activityrepo "ecc-auth/internal/activity/repository"
	authdomain "ecc-auth/internal/auth/domain"
	"ecc-auth/internal/geo"
	"ecc-auth/internal/logging"
	"ecc-auth/internal/mail"
	"ecc-auth/internal/otp"
	"ecc-auth/internal/security"
	sessiondomain "ecc-auth/internal/session/domain"
	userdomain "ecc-auth/internal/user/domain"
)

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	SetOTPSecret(ctx context.Context, userID, secret string) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Invalidate(ctx context.Context, id string) error
	InvalidateAllExcept(ctx context.Context, userID, keepID string) (int, error)
	Touch(ctx context.Context, id string, at time.Time) error
}

// ActivityRepo is the minimal activity repository needed by the auth service.
type ActivityRepo interface {
	Create(ctx context.Context, a *activitydomain.LoginActivity) error
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]*activitydomain.LoginActivity, error)
}

// LoginResult holds the outcome of a completed OTP verification.
type LoginResult struct {
	User     *userdomain.User
	Session  *sessiondomain.Session
	Location geo.Location
	Status   activitydomain.Status
}

// SessionInfo is one row of a user's session list, with the caller's own
// session marked.
type SessionInfo struct {
	Session   *sessiondomain.Session
	IsCurrent bool
}

// AuthService drives the login state machine over injected stores and
// collaborators. Safe for concurrent use; all mutable state lives in the
// repositories and in the per-call SessionContext.
type AuthService struct {
	users      UserRepo
	sessions   SessionRepo
	activities ActivityRepo
	otp        *otp.Engine
	mailer     mail.Mailer
	locator    geo.Locator
	log        logging.Logger
	pendingTTL time.Duration
	devLogOTP  bool
	nowF       func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies.
// pendingTTL bounds the window between identity verification and the OTP step.
func NewAuthService(
	users UserRepo,
	sessions SessionRepo,
	activities ActivityRepo,
	otpEngine *otp.Engine,
	mailer mail.Mailer,
	locator geo.Locator,
	log logging.Logger,
	pendingTTL time.Duration,
	devLogOTP bool,
) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		activities: activities,
		otp:        otpEngine,
		mailer:     mailer,
		locator:    locator,
		log:        log,
		pendingTTL: pendingTTL,
		devLogOTP:  devLogOTP,
		nowF:       time.Now,
	}
}

// WithClock overrides the service clock. Used in tests to drive expiry.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.nowF = now
	return s
}

// DerivePublicKey derives the public key for a catchphrase without touching
// any state. Lets clients without local curve support obtain the key the
// server would derive.
func (s *AuthService) DerivePublicKey(phrase string) (string, error) {
	pub, err := security.DerivePublicKey(phrase)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidInput, "catchphrase too short")
	}
	return pub, nil
}

// Register creates a user with the given public key (or one derived from the
// phrase when no key is supplied), assigns a fresh OTP secret, and sends a
// welcome mail best-effort.
func (s *AuthService) Register(ctx context.Context, username, email, phrase, publicKey string) (*userdomain.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if publicKey == "" {
		derived, err := security.DerivePublicKey(phrase)
		if err != nil {
			return nil, fmt.Errorf("%w: catchphrase must be at least %d characters", ErrInvalidInput, security.MinPhraseLen)
		}
		publicKey = derived
	}

	if existing, err := s.users.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrDuplicateUser
	}
	if existing, err := s.users.GetByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrDuplicateUser
	}

	user := &userdomain.User{
		ID:         uuid.New().String(),
		Username:   username,
		Email:      email,
		PublicKey:  publicKey,
		OTPEnabled: true,
		CreatedAt:  s.nowF().UTC(),
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	secret, err := s.otp.GenerateSecret(email)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetOTPSecret(ctx, user.ID, secret); err != nil {
		return nil, err
	}
	user.OTPSecret = secret

	if err := s.mailer.SendWelcome(ctx, email, username); err != nil {
		s.log.Warn(ctx, "welcome mail failed", "email", email, "err", err)
	}
	return user, nil
}

// VerifyIdentity is the first login step. The login is accepted when either
// the client-supplied public key equals the stored one, or the key re-derived
// from the phrase does; both paths are equally authoritative. On success a
// PendingAuth is written into sctx (overwriting any prior one) and an OTP is
// dispatched by mail.
func (s *AuthService) VerifyIdentity(ctx context.Context, sctx *authdomain.SessionContext, email, phrase, clientPublicKey string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if len(phrase) < security.MinPhraseLen {
		return fmt.Errorf("%w: catchphrase must be at least %d characters", ErrInvalidInput, security.MinPhraseLen)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidCredentials
	}

	if clientPublicKey == "" || clientPublicKey != user.PublicKey {
		derived, err := security.DerivePublicKey(phrase)
		if err != nil || derived != user.PublicKey {
			return ErrInvalidCredentials
		}
	}

	code, err := s.otp.Issue(user.OTPSecret)
	if err != nil {
		return err
	}
	if err := s.mailer.SendOTP(ctx, user.Email, code); err != nil {
		// The user has no other way to obtain the code; surface as retryable.
		return fmt.Errorf("%w: otp mail: %s", ErrUpstreamUnavailable, err)
	}
	if s.devLogOTP {
		s.log.Info(ctx, "development otp issued", "email", user.Email, "otp", code)
	}

	sctx.PendingAuth = &authdomain.PendingAuth{
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: s.nowF().Add(s.pendingTTL),
	}
	return nil
}

// VerifyOTP is the second login step. On success it creates a session,
// classifies the login against the user's activity history, appends a ledger
// record, sends a login alert, consumes the PendingAuth, and binds the new
// session into sctx as the authenticated context.
func (s *AuthService) VerifyOTP(ctx context.Context, sctx *authdomain.SessionContext, email, code, deviceInfo, ipAddress string) (*LoginResult, error) {
	email = normalizeEmail(email)
	pending := sctx.PendingAuth
	if pending == nil {
		return nil, ErrNoPendingAuth
	}
	now := s.nowF()
	if pending.Expired(now) {
		sctx.PendingAuth = nil
		return nil, ErrAuthExpired
	}
	if pending.Email != email {
		return nil, ErrEmailMismatch
	}

	user, err := s.users.GetByID(ctx, pending.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		sctx.PendingAuth = nil
		return nil, ErrNotFound
	}

	if !s.otp.Verify(user.OTPSecret, code) {
		s.recordActivity(ctx, user.ID, ipAddress, deviceInfo, geo.UnknownLocation, activitydomain.StatusFailed)
		return nil, ErrInvalidOtp
	}

	location := s.resolveLocation(ctx, ipAddress)
	label := location.Label()

	token, err := security.GenerateSessionToken()
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		ID:         uuid.New().String(),
		UserID:     user.ID,
		Token:      token,
		DeviceInfo: deviceInfo,
		IPAddress:  location.IP,
		Location:   label,
		IsActive:   true,
		CreatedAt:  now.UTC(),
		LastActive: now.UTC(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	status := s.classifyLogin(ctx, user.ID, label)
	s.recordActivity(ctx, user.ID, location.IP, deviceInfo, label, status)

	if err := s.mailer.SendLoginAlert(ctx, user.Email, label, deviceInfo, status == activitydomain.StatusNewLocation); err != nil {
		s.log.Warn(ctx, "login alert mail failed", "email", user.Email, "err", err)
	}

	sctx.PendingAuth = nil
	sctx.Auth = &authdomain.AuthContext{
		UserID:       user.ID,
		SessionID:    sess.ID,
		SessionToken: token,
	}
	return &LoginResult{User: user, Session: sess, Location: location, Status: status}, nil
}

// requireSession checks that the context's session still exists, is active,
// and carries a matching token. A session revoked from another device fails
// here even though the caller's cookie is still structurally valid.
func (s *AuthService) requireSession(ctx context.Context, sctx *authdomain.SessionContext) (*authdomain.AuthContext, error) {
	if !sctx.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	sess, err := s.sessions.GetByID(ctx, sctx.Auth.SessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.IsActive || !security.TokenEqual(sess.Token, sctx.Auth.SessionToken) {
		sctx.Auth = nil
		return nil, ErrNotAuthenticated
	}
	return sctx.Auth, nil
}

// Logout invalidates the current session and clears the authenticated context.
func (s *AuthService) Logout(ctx context.Context, sctx *authdomain.SessionContext) error {
	auth, err := s.requireSession(ctx, sctx)
	if err != nil {
		return err
	}
	if err := s.sessions.Invalidate(ctx, auth.SessionID); err != nil {
		return err
	}
	sctx.Auth = nil
	sctx.PendingAuth = nil
	return nil
}

// ForceLogoutOthers invalidates every other active session of the current user
// and reports how many it revoked.
func (s *AuthService) ForceLogoutOthers(ctx context.Context, sctx *authdomain.SessionContext) (int, error) {
	auth, err := s.requireSession(ctx, sctx)
	if err != nil {
		return 0, err
	}
	return s.sessions.InvalidateAllExcept(ctx, auth.UserID, auth.SessionID)
}

// Profile returns the current user and bumps the session's last-active time.
func (s *AuthService) Profile(ctx context.Context, sctx *authdomain.SessionContext) (*userdomain.User, error) {
	auth, err := s.requireSession(ctx, sctx)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, auth.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if err := s.sessions.Touch(ctx, auth.SessionID, s.nowF().UTC()); err != nil {
		s.log.Warn(ctx, "session touch failed", "session_id", auth.SessionID, "err", err)
	}
	return user, nil
}

// Sessions lists the user's active sessions, most-recently-active first, with
// the caller's own session marked.
func (s *AuthService) Sessions(ctx context.Context, sctx *authdomain.SessionContext) ([]SessionInfo, error) {
	auth, err := s.requireSession(ctx, sctx)
	if err != nil {
		return nil, err
	}
	list, err := s.sessions.ListActiveByUser(ctx, auth.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]SessionInfo, len(list))
	for i, sess := range list {
		out[i] = SessionInfo{Session: sess, IsCurrent: sess.ID == sctx.Auth.SessionID}
	}
	return out, nil
}

// Activity returns the user's most recent login activity, newest first.
func (s *AuthService) Activity(ctx context.Context, sctx *authdomain.SessionContext, limit int) ([]*activitydomain.LoginActivity, error) {
	auth, err := s.requireSession(ctx, sctx)
	if err != nil {
		return nil, err
	}
	return s.activities.ListRecentByUser(ctx, auth.UserID, limit)
}

// resolveLocation looks up the client location, degrading to an unresolved
// Location (label "Unknown location") when the collaborator fails. A lookup
// failure must not abort a login that is otherwise committed.
func (s *AuthService) resolveLocation(ctx context.Context, ipAddress string) geo.Location {
	loc, err := s.locator.Locate(ctx, ipAddress)
	if loc.IP == "" {
		loc.IP = geo.SanitizeIP(ipAddress)
	}
	if err != nil {
		s.log.Warn(ctx, "location lookup failed", "ip", loc.IP, "err", err)
	}
	return loc
}

// classifyLogin compares the login location against recent non-failed history.
// Failed attempts carry no trustworthy location and are excluded.
func (s *AuthService) classifyLogin(ctx context.Context, userID, label string) activitydomain.Status {
	history, err := s.activities.ListRecentByUser(ctx, userID, activityrepo.DefaultLimit)
	if err != nil {
		s.log.Warn(ctx, "activity lookup failed", "user_id", userID, "err", err)
		return activitydomain.StatusSuccessful
	}
	completed := history[:0:0]
	for _, a := range history {
		if a.Status != activitydomain.StatusFailed {
			completed = append(completed, a)
		}
	}
	return activitydomain.Classify(completed, label)
}

// recordActivity appends a ledger record best-effort; ledger write failures
// are logged and do not abort the login transition.
func (s *AuthService) recordActivity(ctx context.Context, userID, ipAddress, deviceInfo, label string, status activitydomain.Status) {
	entry := &activitydomain.LoginActivity{
		ID:         uuid.New().String(),
		UserID:     userID,
		IPAddress:  geo.SanitizeIP(ipAddress),
		DeviceInfo: deviceInfo,
		Location:   label,
		Status:     status,
		CreatedAt:  s.nowF().UTC(),
	}
	if err := s.activities.Create(ctx, entry); err != nil {
		s.log.Error(ctx, "activity record failed", "user_id", userID, "status", string(status), "err", err)
	}
}

const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`

var emailRe = regexp.MustCompile(simpleEmail)

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func validateEmail(email string) error {
	if email == "" || !emailRe.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	return nil
}

func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 30 {
		return fmt.Errorf("%w: username must be 3-30 characters", ErrInvalidInput)
	}
	return nil
}
