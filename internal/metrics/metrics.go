// Package metrics collects and exposes Prometheus metrics for the auth
// service: login outcomes, OTP verification results, and the HTTP request
// surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics interface used by the handler and middleware layers.
type Recorder interface {
	RecordRegistration()
	RecordLogin(status string)
	RecordOTPVerification(ok bool)
	RecordSessionRevocations(count int)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(d time.Duration)
}

// Collector implements Recorder on top of a Prometheus registry.
type Collector struct {
	registrations    prometheus.Counter
	logins           *prometheus.CounterVec
	otpVerifications *prometheus.CounterVec
	revocations      prometheus.Counter
	httpStatus       *prometheus.CounterVec
	requestLatency   prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eccauth_registrations_total",
			Help: "Total completed user registrations.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eccauth_logins_total",
			Help: "Completed logins by activity status.",
		}, []string{"status"}),
		otpVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eccauth_otp_verifications_total",
			Help: "OTP verification attempts by result.",
		}, []string{"result"}),
		revocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eccauth_session_revocations_total",
			Help: "Sessions invalidated by logout or bulk revocation.",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eccauth_http_responses_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "eccauth_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		c.registrations,
		c.logins,
		c.otpVerifications,
		c.revocations,
		c.httpStatus,
		c.requestLatency,
	)
	return c
}

// RecordRegistration counts a completed registration.
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordLogin counts a completed login under its activity status label.
func (c *Collector) RecordLogin(status string) {
	c.logins.WithLabelValues(status).Inc()
}

// RecordOTPVerification counts an OTP attempt as "ok" or "failed".
func (c *Collector) RecordOTPVerification(ok bool) {
	result := "failed"
	if ok {
		result = "ok"
	}
	c.otpVerifications.WithLabelValues(result).Inc()
}

// RecordSessionRevocations counts invalidated sessions.
func (c *Collector) RecordSessionRevocations(count int) {
	c.revocations.Add(float64(count))
}

// RecordHTTPStatus counts a response by status code.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency observes one request's duration.
func (c *Collector) RecordRequestLatency(d time.Duration) {
	c.requestLatency.Observe(d.Seconds())
}

// Handler returns the /metrics scrape endpoint for the given gatherer.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Nop is a Recorder that discards everything. Used where metrics are not wired.
type Nop struct{}

func (Nop) RecordRegistration()                {}
func (Nop) RecordLogin(string)                 {}
func (Nop) RecordOTPVerification(bool)         {}
func (Nop) RecordSessionRevocations(int)       {}
func (Nop) RecordHTTPStatus(int)               {}
func (Nop) RecordRequestLatency(time.Duration) {}
