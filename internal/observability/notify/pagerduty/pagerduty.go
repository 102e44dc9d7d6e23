package pagerduty

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/target/repo-gateway/internal/observability/notify"
)

// APIEndpoint is the PagerDuty Events API v2 ingest URL.
const APIEndpoint = "https://events.pagerduty.com/v2/enqueue"

// Config captures runtime configuration for the PagerDuty sink.
type Config struct {
	RoutingKey string
	Source     string
	Component  string
	Endpoint   string // defaults to APIEndpoint
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// Client publishes events via PagerDuty's Events API v2.
type Client struct {
	routingKey string
	source     string
	component  string
	endpoint   string
	retryLimit int
	client     *http.Client
}

var _ notify.Sink = (*Client)(nil)

// NewClient constructs a PagerDuty events client from config. Callers must provide a routing key.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.RoutingKey)
	if key == "" {
		return nil, errors.New("pagerduty routing key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		routingKey: key,
		source:     fallbackString(strings.TrimSpace(cfg.Source), "repo-gateway"),
		component:  fallbackString(strings.TrimSpace(cfg.Component), "repo-creation"),
		endpoint:   fallbackString(strings.TrimSpace(cfg.Endpoint), APIEndpoint),
		retryLimit: max(cfg.RetryLimit, 0),
		client:     hc,
	}, nil
}

// SendCreationFailure submits a trigger event to PagerDuty.
func (c *Client) SendCreationFailure(ctx context.Context, payload notify.CreationFailurePayload) error {
	body, err := json.Marshal(c.buildEvent(payload))
	if err != nil {
		return fmt.Errorf("encode pagerduty payload: %w", err)
	}
	return notify.Retry(ctx, c.retryLimit, func(ctx context.Context) error {
		return notify.PostJSON(ctx, c.client, c.endpoint, "pagerduty api", body)
	})
}

func (c *Client) buildEvent(payload notify.CreationFailurePayload) map[string]any {
	severity := fallbackString(strings.ToLower(payload.Severity), notify.SeverityForStatus(payload.Status))

	occurredAt := payload.OccurredAt.UTC()
	if payload.OccurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	custom := map[string]any{
		"organization":   payload.Organization,
		"repository":     payload.Repository,
		"entrypoint":     payload.Entrypoint,
		"correlation_id": payload.CorrelationID,
		"status":         payload.Status,
		"error":          payload.Error,
		"error_class":    payload.ErrorClass,
	}
	for k, v := range payload.Metadata {
		if _, exists := custom[k]; !exists {
			custom[k] = v
		}
	}

	// Repeated failures for the same repository collapse into one incident.
	dedupKey := strings.Trim(payload.Organization+"/"+payload.Repository, "/")
	if dedupKey == "" {
		dedupKey = payload.CorrelationID
	}

	return map[string]any{
		"routing_key":  c.routingKey,
		"event_action": "trigger",
		"dedup_key":    dedupKey,
		"payload": map[string]any{
			"summary":        summary(payload),
			"severity":       severity,
			"source":         c.source,
			"component":      c.component,
			"timestamp":      occurredAt.Format(time.RFC3339),
			"custom_details": custom,
		},
	}
}

func summary(p notify.CreationFailurePayload) string {
	target := fallbackString(strings.Trim(p.Organization+"/"+p.Repository, "/"), "unknown")
	s := "Repository creation for " + target + " failed"
	if p.Status != 0 {
		s += " (" + strconv.Itoa(p.Status) + ")"
	}
	return s
}

func fallbackString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
