package otel

import (
	"context"
	"testing"
)

func TestNewProvidersEmptyEndpoint(t *testing.T) {
	ctx := context.Background()
	providers, err := NewProviders(ctx, "", "test-service", false)
	if err != nil {
		t.Fatalf("NewProviders empty endpoint: %v", err)
	}
	if providers.TracerProvider == nil || providers.MeterProvider == nil {
		t.Fatal("no-op providers must still be non-nil")
	}
	if err := providers.Shutdown(ctx); err != nil {
		t.Errorf("shutdown should be a no-op for an empty endpoint, got %v", err)
	}
}

func TestNewProvidersWhitespaceEndpoint(t *testing.T) {
	providers, err := NewProviders(context.Background(), "   ", "test-service", false)
	if err != nil {
		t.Fatalf("NewProviders whitespace endpoint: %v", err)
	}
	if providers == nil {
		t.Fatal("providers should not be nil")
	}
}

func TestNewProvidersInvalidEndpoint(t *testing.T) {
	for _, endpoint := range []string{"://invalid", "http://[invalid", "http://"} {
		if _, err := NewProviders(context.Background(), endpoint, "test-service", false); err == nil {
			t.Errorf("NewProviders(%q) should fail", endpoint)
		}
	}
}
