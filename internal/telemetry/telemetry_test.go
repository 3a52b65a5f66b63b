package telemetry

import (
	"context"
	"testing"
)

func TestSetup_NoEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), "tbidash", "")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestSetup_WithEndpoint(t *testing.T) {
	// The exporter connects lazily, so setup succeeds without a collector.
	shutdown, err := Setup(context.Background(), "", "http://127.0.0.1:4318")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}

func TestSetup_InvalidEndpoint(t *testing.T) {
	for _, endpoint := range []string{"://bad", "localhost:4318", "/v1/traces", "http://"} {
		if _, err := Setup(context.Background(), "tbidash", endpoint); err == nil {
			t.Errorf("Setup(%q): expected error", endpoint)
		}
	}
}

func TestValidateEndpoint(t *testing.T) {
	if err := ValidateEndpoint("https://collector.example:4318/v1/traces"); err != nil {
		t.Errorf("valid endpoint rejected: %v", err)
	}
	if err := ValidateEndpoint("collector"); err == nil {
		t.Error("bare host accepted")
	}
}
