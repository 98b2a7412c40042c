package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	activityrepo "ecc-auth/internal/activity/repository"
	"ecc-auth/internal/auth/service"
	"ecc-auth/internal/geo"
	"ecc-auth/internal/logging"
	"ecc-auth/internal/otp"
	sessionrepo "ecc-auth/internal/session/repository"
	userrepo "ecc-auth/internal/user/repository"
)

type captureMailer struct {
	lastOTP string
}

func (m *captureMailer) SendWelcome(context.Context, string, string) error { return nil }

func (m *captureMailer) SendOTP(_ context.Context, _ string, code string) error {
	m.lastOTP = code
	return nil
}

func (m *captureMailer) SendLoginAlert(context.Context, string, string, string, bool) error {
	return nil
}

type staticLocator struct{}

func (staticLocator) Locate(_ context.Context, ip string) (geo.Location, error) {
	return geo.Location{IP: ip, City: "Paris", Country: "France"}, nil
}

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (nopLogger) With(...any) logging.Logger            { return nopLogger{} }

type testAPI struct {
	srv    *httptest.Server
	mailer *captureMailer
	client *http.Client
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	mailer := &captureMailer{}
	svc := service.NewAuthService(
		userrepo.NewMemoryRepository(),
		sessionrepo.NewMemoryRepository(),
		activityrepo.NewMemoryRepository(),
		otp.NewEngine(),
		mailer, staticLocator{}, nopLogger{},
		5*time.Minute, false,
	)
	codec := NewCookieCodec("ecc_session", []byte("test-secret-test-secret-test-sec"), false, time.Hour)
	h := NewAuthHandler(svc, codec, nil, nopLogger{})

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	jar := newCookieJar(t)
	return &testAPI{
		srv:    srv,
		mailer: mailer,
		client: &http.Client{Jar: jar},
	}
}

func newCookieJar(t *testing.T) http.CookieJar {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return jar
}

func (a *testAPI) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := a.client.Post(a.srv.URL+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func (a *testAPI) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := a.client.Get(a.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func (a *testAPI) register(t *testing.T, username, email, phrase string) {
	t.Helper()
	resp := a.post(t, "/auth/register", map[string]string{
		"username": username, "email": email, "catchphrase": phrase,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func (a *testAPI) login(t *testing.T, email, phrase string) {
	t.Helper()
	resp := a.post(t, "/auth/login", map[string]string{"email": email, "catchphrase": phrase})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = a.post(t, "/auth/verify-otp", map[string]string{"email": email, "otp": a.mailer.lastOTP})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify-otp status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestFullLoginFlowOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice", "alice@example.com", "open-sesame")

	resp := api.post(t, "/auth/login", map[string]string{
		"email": "alice@example.com", "catchphrase": "open-sesame",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	resp.Body.Close()
	if api.mailer.lastOTP == "" {
		t.Fatal("expected an otp to be mailed")
	}

	resp = api.post(t, "/auth/verify-otp", map[string]string{
		"email": "alice@example.com", "otp": api.mailer.lastOTP,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify-otp status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != "successful" {
		t.Errorf("login status field = %v", body["status"])
	}

	resp = api.get(t, "/user/profile")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile status = %d", resp.StatusCode)
	}
	profile := decodeBody(t, resp)
	user, _ := profile["user"].(map[string]any)
	if user["username"] != "alice" {
		t.Errorf("profile user = %v", profile["user"])
	}
}

func TestVerifyOTPWithoutPriorLogin(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice", "alice@example.com", "open-sesame")

	resp := api.post(t, "/auth/verify-otp", map[string]string{
		"email": "alice@example.com", "otp": "123456",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRegisterConflictAndValidation(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice", "alice@example.com", "open-sesame")

	resp := api.post(t, "/auth/register", map[string]string{
		"username": "alice2", "email": "alice@example.com", "catchphrase": "open-sesame",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate email status = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.post(t, "/auth/register", map[string]string{
		"username": "bob", "email": "not-an-email", "catchphrase": "open-sesame",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad email status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginWithWrongPhrase(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice", "alice@example.com", "open-sesame")

	resp := api.post(t, "/auth/login", map[string]string{
		"email": "alice@example.com", "catchphrase": "wrong phrase",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestGeneratePublicKey(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post(t, "/auth/generate-public-key", map[string]string{"catchphrase": "open-sesame"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	key, _ := body["publicKey"].(string)
	if len(key) != 130 || key[:2] != "04" {
		t.Errorf("publicKey = %q, want 130 hex chars with 04 prefix", key)
	}

	resp = api.post(t, "/auth/generate-public-key", map[string]string{"catchphrase": "abc"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("short phrase status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSessionsAndForceLogout(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice", "alice@example.com", "open-sesame")

	// Two devices: the second client keeps its own cookie jar.
	api.login(t, "alice@example.com", "open-sesame")
	other := &http.Client{Jar: newCookieJar(t)}
	first := api.client
	api.client = other
	api.login(t, "alice@example.com", "open-sesame")
	api.client = first

	resp := api.get(t, "/user/sessions")
	body := decodeBody(t, resp)
	sessions, _ := body["sessions"].([]any)
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}

	resp = api.post(t, "/auth/force-logout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("force-logout status = %d", resp.StatusCode)
	}
	out := decodeBody(t, resp)
	if out["revokedSessions"] != float64(1) {
		t.Errorf("revokedSessions = %v, want 1", out["revokedSessions"])
	}

	resp = api.get(t, "/user/sessions")
	body = decodeBody(t, resp)
	sessions, _ = body["sessions"].([]any)
	if len(sessions) != 1 {
		t.Fatalf("after force-logout: %d sessions, want 1", len(sessions))
	}
	current, _ := sessions[0].(map[string]any)
	if current["isCurrent"] != true {
		t.Error("the surviving session must be the caller's")
	}
}

func TestLogoutClearsAuthentication(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice", "alice@example.com", "open-sesame")
	api.login(t, "alice@example.com", "open-sesame")

	resp := api.post(t, "/auth/logout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.get(t, "/user/profile")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("profile after logout = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginActivityEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice", "alice@example.com", "open-sesame")
	api.login(t, "alice@example.com", "open-sesame")

	resp := api.get(t, "/user/login-activity")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	activities, _ := body["activities"].([]any)
	if len(activities) != 1 {
		t.Fatalf("got %d activity records, want 1", len(activities))
	}
	entry, _ := activities[0].(map[string]any)
	if entry["status"] != "successful" || entry["location"] != "Paris, France" {
		t.Errorf("activity record = %v", entry)
	}

	resp = api.get(t, "/user/login-activity?limit=bogus")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}
