package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCollectorExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRegistration()
	c.RecordLogin("successful")
	c.RecordLogin("new_location")
	c.RecordOTPVerification(true)
	c.RecordOTPVerification(false)
	c.RecordSessionRevocations(3)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(401)
	c.RecordRequestLatency(25 * time.Millisecond)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler(reg).ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		"eccauth_registrations_total 1",
		`eccauth_logins_total{status="successful"} 1`,
		`eccauth_logins_total{status="new_location"} 1`,
		`eccauth_otp_verifications_total{result="ok"} 1`,
		`eccauth_otp_verifications_total{result="failed"} 1`,
		"eccauth_session_revocations_total 3",
		`eccauth_http_responses_total{status_code="401"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
}

func TestNopRecorderIsSafe(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordRegistration()
	r.RecordLogin("successful")
	r.RecordOTPVerification(false)
	r.RecordSessionRevocations(1)
	r.RecordHTTPStatus(500)
	r.RecordRequestLatency(time.Second)
}
