// Package handler exposes the authentication state machine over HTTP. The
// interactive-session context travels in a signed cookie; request and response
// bodies are JSON.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	activitydomain "ecc-auth/internal/activity/domain"
	authdomain "ecc-auth/internal/auth/domain"
	"ecc-auth/internal/auth/service"
	"ecc-auth/internal/logging"
	"ecc-auth/internal/metrics"
	userdomain "ecc-auth/internal/user/domain"
)

// AuthService is the orchestrator surface the handler needs.
type AuthService interface {
	Register(ctx context.Context, username, email, phrase, publicKey string) (*userdomain.User, error)
	DerivePublicKey(phrase string) (string, error)
	VerifyIdentity(ctx context.Context, sctx *authdomain.SessionContext, email, phrase, clientPublicKey string) error
	VerifyOTP(ctx context.Context, sctx *authdomain.SessionContext, email, code, deviceInfo, ipAddress string) (*service.LoginResult, error)
	Logout(ctx context.Context, sctx *authdomain.SessionContext) error
	ForceLogoutOthers(ctx context.Context, sctx *authdomain.SessionContext) (int, error)
	Profile(ctx context.Context, sctx *authdomain.SessionContext) (*userdomain.User, error)
	Sessions(ctx context.Context, sctx *authdomain.SessionContext) ([]service.SessionInfo, error)
	Activity(ctx context.Context, sctx *authdomain.SessionContext, limit int) ([]*activitydomain.LoginActivity, error)
}

// AuthHandler serves the /api/auth and /api/user endpoints.
type AuthHandler struct {
	svc     AuthService
	cookies *CookieCodec
	metrics metrics.Recorder
	log     logging.Logger
}

// NewAuthHandler wires the handler to its collaborators.
func NewAuthHandler(svc AuthService, cookies *CookieCodec, rec metrics.Recorder, log logging.Logger) *AuthHandler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &AuthHandler{svc: svc, cookies: cookies, metrics: rec, log: log}
}

// Routes returns the router for all auth and user endpoints.
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/generate-public-key", h.GeneratePublicKey)
		r.Post("/login", h.Login)
		r.Post("/verify-otp", h.VerifyOTP)
		r.Post("/logout", h.Logout)
		r.Post("/force-logout", h.ForceLogout)
	})
	r.Route("/user", func(r chi.Router) {
		r.Get("/profile", h.Profile)
		r.Get("/sessions", h.Sessions)
		r.Get("/login-activity", h.LoginActivity)
	})
	return r
}

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Catchphrase string `json:"catchphrase"`
	PublicKey   string `json:"publicKey"`
}

type userResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	PublicKey  string    `json:"publicKey"`
	OTPEnabled bool      `json:"otpEnabled"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toUserResponse(u *userdomain.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		PublicKey:  u.PublicKey,
		OTPEnabled: u.OTPEnabled,
		CreatedAt:  u.CreatedAt,
	}
}

// Register creates an account.
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Catchphrase, req.PublicKey)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.metrics.RecordRegistration()
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Registration successful",
		"user":    toUserResponse(user),
	})
}

// GeneratePublicKey derives a public key for clients without local curve support.
// POST /api/auth/generate-public-key
func (h *AuthHandler) GeneratePublicKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Catchphrase string `json:"catchphrase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pub, err := h.svc.DerivePublicKey(req.Catchphrase)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": pub})
}

type loginRequest struct {
	Email       string `json:"email"`
	Catchphrase string `json:"catchphrase"`
	PublicKey   string `json:"publicKey"`
}

// Login runs the identity step and mails an OTP.
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sctx := h.cookies.Read(r)
	err := h.svc.VerifyIdentity(r.Context(), sctx, req.Email, req.Catchphrase, req.PublicKey)
	if werr := h.cookies.Write(w, sctx); werr != nil {
		h.log.Error(r.Context(), "session cookie write failed", "err", werr)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to your email"})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyOTP runs the OTP step and completes the login.
// POST /api/auth/verify-otp
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sctx := h.cookies.Read(r)
	res, err := h.svc.VerifyOTP(r.Context(), sctx, req.Email, req.OTP, deviceInfo(r), clientIP(r))
	// The state machine may consume the pending challenge even on failure
	// (expiry, vanished user), so the cookie is rewritten either way.
	if werr := h.cookies.Write(w, sctx); werr != nil {
		h.log.Error(r.Context(), "session cookie write failed", "err", werr)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if err != nil {
		if errors.Is(err, service.ErrInvalidOtp) {
			h.metrics.RecordOTPVerification(false)
		}
		h.writeServiceError(w, r, err)
		return
	}
	h.metrics.RecordOTPVerification(true)
	h.metrics.RecordLogin(string(res.Status))
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    toUserResponse(res.User),
		"session": map[string]any{
			"id":        res.Session.ID,
			"location":  res.Session.Location,
			"createdAt": res.Session.CreatedAt,
		},
		"status": string(res.Status),
	})
}

// Logout invalidates the current session.
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sctx := h.cookies.Read(r)
	err := h.svc.Logout(r.Context(), sctx)
	h.cookies.Clear(w)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.metrics.RecordSessionRevocations(1)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// ForceLogout invalidates every other active session of the current user.
// POST /api/auth/force-logout
func (h *AuthHandler) ForceLogout(w http.ResponseWriter, r *http.Request) {
	sctx := h.cookies.Read(r)
	revoked, err := h.svc.ForceLogoutOthers(r.Context(), sctx)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.metrics.RecordSessionRevocations(revoked)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":         "All other sessions logged out",
		"revokedSessions": revoked,
	})
}

// Profile returns the current user.
// GET /api/user/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	sctx := h.cookies.Read(r)
	user, err := h.svc.Profile(r.Context(), sctx)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(user)})
}

// Sessions lists the current user's active sessions.
// GET /api/user/sessions
func (h *AuthHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	sctx := h.cookies.Read(r)
	list, err := h.svc.Sessions(r.Context(), sctx)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	out := make([]map[string]any, len(list))
	for i, s := range list {
		out[i] = map[string]any{
			"id":         s.Session.ID,
			"deviceInfo": s.Session.DeviceInfo,
			"ipAddress":  s.Session.IPAddress,
			"location":   s.Session.Location,
			"createdAt":  s.Session.CreatedAt,
			"lastActive": s.Session.LastActive,
			"isCurrent":  s.IsCurrent,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

// LoginActivity lists the current user's recent login activity.
// GET /api/user/login-activity?limit=N
func (h *AuthHandler) LoginActivity(w http.ResponseWriter, r *http.Request) {
	sctx := h.cookies.Read(r)
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	list, err := h.svc.Activity(r.Context(), sctx, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	out := make([]map[string]any, len(list))
	for i, a := range list {
		out[i] = map[string]any{
			"id":         a.ID,
			"ipAddress":  a.IPAddress,
			"deviceInfo": a.DeviceInfo,
			"location":   a.Location,
			"status":     string(a.Status),
			"createdAt":  a.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"activities": out})
}

// writeServiceError maps orchestrator sentinels onto HTTP statuses.
func (h *AuthHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrEmailMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrNoPendingAuth),
		errors.Is(err, service.ErrAuthExpired),
		errors.Is(err, service.ErrInvalidOtp),
		errors.Is(err, service.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrDuplicateUser):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUpstreamUnavailable):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.log.Error(r.Context(), "unhandled service error", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the socket
// peer address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func deviceInfo(r *http.Request) string {
	if ua := r.Header.Get("User-Agent"); ua != "" {
		return ua
	}
	return "Unknown device"
}
