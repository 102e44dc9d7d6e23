package pagerduty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/target/repo-gateway/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error when routing key missing")
	}
}

func TestBuildEventDefaults(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "key", Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event := client.buildEvent(notify.CreationFailurePayload{
		Organization: "acme",
		Repository:   "widgets",
		Status:       502,
		Error:        "boom",
		ErrorClass:   "app_downstream",
		Metadata:     map[string]string{"error": "ignored", "private": "true"},
	})

	payloadSection, ok := event["payload"].(map[string]any)
	if !ok {
		t.Fatalf("expected payload section")
	}
	if payloadSection["severity"] != notify.SeverityError {
		t.Fatalf("expected severity derived from status, got %v", payloadSection["severity"])
	}
	if payloadSection["source"] != "repo-gateway" {
		t.Fatalf("expected default source, got %v", payloadSection["source"])
	}
	if payloadSection["summary"] != "Repository creation for acme/widgets failed (502)" {
		t.Fatalf("unexpected summary %v", payloadSection["summary"])
	}

	custom, ok := payloadSection["custom_details"].(map[string]any)
	if !ok {
		t.Fatalf("expected custom details")
	}
	if custom["error"] != "boom" {
		t.Fatalf("metadata must not override canonical fields, got %v", custom["error"])
	}
	if custom["private"] != "true" {
		t.Fatalf("expected metadata in custom details")
	}
	if event["dedup_key"] != "acme/widgets" {
		t.Fatalf("unexpected dedup key %v", event["dedup_key"])
	}
}

func TestBuildEventDedupFallsBackToCorrelationID(t *testing.T) {
	client, _ := NewClient(Config{RoutingKey: "key"})
	event := client.buildEvent(notify.CreationFailurePayload{CorrelationID: "corr-1", Severity: "CRITICAL"})
	if event["dedup_key"] != "corr-1" {
		t.Fatalf("unexpected dedup key %v", event["dedup_key"])
	}
	section, _ := event["payload"].(map[string]any)
	if section["severity"] != notify.SeverityCritical {
		t.Fatalf("expected explicit severity, got %v", section["severity"])
	}
}

func TestSendCreationFailure(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, _ := NewClient(Config{RoutingKey: "key", Endpoint: srv.URL})
	if err := client.SendCreationFailure(context.Background(), notify.CreationFailurePayload{Organization: "acme"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["routing_key"] != "key" || got["event_action"] != "trigger" {
		t.Fatalf("unexpected event %v", got)
	}
}

func TestSendCreationFailureStopsOnContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, _ := NewClient(Config{RoutingKey: "key", Endpoint: srv.URL, RetryLimit: 5})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := client.SendCreationFailure(ctx, notify.CreationFailurePayload{})
	if err == nil || !strings.Contains(err.Error(), "deadline") {
		t.Fatalf("expected context error, got %v", err)
	}
}
