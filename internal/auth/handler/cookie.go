package handler

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	authdomain "ecc-auth/internal/auth/domain"
)

// sessionClaims is the JWT payload carrying the interactive-session context.
// Pending fields exist between identity verification and the OTP step, auth
// fields after a completed login.
type sessionClaims struct {
	PendingUserID    string `json:"pnd_uid,omitempty"`
	PendingEmail     string `json:"pnd_email,omitempty"`
	PendingExpiresAt int64  `json:"pnd_exp,omitempty"`
	AuthUserID       string `json:"auth_uid,omitempty"`
	AuthSessionID    string `json:"auth_sid,omitempty"`
	AuthToken        string `json:"auth_tok,omitempty"`
	jwt.RegisteredClaims
}

// CookieCodec persists a SessionContext as an HS256-signed JWT in an HttpOnly
// cookie, so the server stays stateless between requests.
type CookieCodec struct {
	name   string
	secret []byte
	secure bool
	ttl    time.Duration
	nowF   func() time.Time
}

// NewCookieCodec returns a codec writing cookies named name, signed with
// secret, valid for ttl.
func NewCookieCodec(name string, secret []byte, secure bool, ttl time.Duration) *CookieCodec {
	return &CookieCodec{name: name, secret: secret, secure: secure, ttl: ttl, nowF: time.Now}
}

// Read restores the SessionContext from the request cookie. A missing, expired
// or tampered cookie yields an empty context: the request simply proceeds
// unauthenticated.
func (c *CookieCodec) Read(r *http.Request) *authdomain.SessionContext {
	cookie, err := r.Cookie(c.name)
	if err != nil || cookie.Value == "" {
		return &authdomain.SessionContext{}
	}

	var claims sessionClaims
	tok, err := jwt.ParseWithClaims(cookie.Value, &claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !tok.Valid {
		return &authdomain.SessionContext{}
	}

	sctx := &authdomain.SessionContext{}
	if claims.PendingUserID != "" {
		sctx.PendingAuth = &authdomain.PendingAuth{
			UserID:    claims.PendingUserID,
			Email:     claims.PendingEmail,
			ExpiresAt: time.Unix(claims.PendingExpiresAt, 0).UTC(),
		}
	}
	if claims.AuthUserID != "" {
		sctx.Auth = &authdomain.AuthContext{
			UserID:       claims.AuthUserID,
			SessionID:    claims.AuthSessionID,
			SessionToken: claims.AuthToken,
		}
	}
	return sctx
}

// Write persists the SessionContext onto the response. An empty context
// clears the cookie instead.
func (c *CookieCodec) Write(w http.ResponseWriter, sctx *authdomain.SessionContext) error {
	if sctx == nil || (sctx.PendingAuth == nil && sctx.Auth == nil) {
		c.Clear(w)
		return nil
	}

	now := c.nowF()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	if p := sctx.PendingAuth; p != nil {
		claims.PendingUserID = p.UserID
		claims.PendingEmail = p.Email
		claims.PendingExpiresAt = p.ExpiresAt.Unix()
	}
	if a := sctx.Auth; a != nil {
		claims.AuthUserID = a.UserID
		claims.AuthSessionID = a.SessionID
		claims.AuthToken = a.SessionToken
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear removes the session cookie.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
