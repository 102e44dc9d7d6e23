package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/target/repo-gateway/internal/observability/notify"
)

// Config captures the subset of Slack webhook behaviour we need.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	// OrgURLPrefix links organization names, e.g. https://git.example.com/.
	OrgURLPrefix string
}

// Client delivers creation failure notifications to a Slack webhook.
type Client struct {
	webhookURL   string
	channel      string
	username     string
	retryLimit   int
	orgURLPrefix string
	client       *http.Client
}

var _ notify.Sink = (*Client)(nil)

// NewClient builds a Slack webhook client.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
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
		webhookURL:   webhookURL,
		channel:      strings.TrimSpace(cfg.Channel),
		username:     fallbackString(strings.TrimSpace(cfg.Username), "repo-gateway"),
		retryLimit:   max(cfg.RetryLimit, 0),
		orgURLPrefix: strings.TrimSpace(cfg.OrgURLPrefix),
		client:       hc,
	}, nil
}

// SendCreationFailure posts a formatted message to Slack.
func (c *Client) SendCreationFailure(ctx context.Context, payload notify.CreationFailurePayload) error {
	body, err := json.Marshal(c.formatMessage(payload))
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}
	return notify.Retry(ctx, c.retryLimit, func(ctx context.Context) error {
		return notify.PostJSON(ctx, c.client, c.webhookURL, "slack webhook", body)
	})
}

func (c *Client) formatMessage(payload notify.CreationFailurePayload) map[string]any {
	timestamp := payload.OccurredAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var text strings.Builder
	text.WriteString("*Repository creation failed*")
	if payload.Repository != "" {
		text.WriteString(" `")
		text.WriteString(escapeSlackText(payload.Repository))
		text.WriteByte('`')
	}
	text.WriteByte('\n')

	status := ""
	if payload.Status != 0 {
		status = strconv.Itoa(payload.Status)
	}
	for _, field := range []struct{ label, value string }{
		{"Severity", fallbackString(payload.Severity, notify.SeverityForStatus(payload.Status))},
		{"Organization", c.formatOrganization(payload.Organization)},
		{"Entrypoint", payload.Entrypoint},
		{"Status", status},
		{"Error class", payload.ErrorClass},
		{"Error", escapeSlackText(payload.Error)},
		{"Correlation id", payload.CorrelationID},
	} {
		appendSlackField(&text, field.label, field.value)
	}
	appendSlackMetadata(&text, payload.Metadata)
	text.WriteString("• Timestamp: ")
	text.WriteString(timestamp.UTC().Format(time.RFC3339))

	msg := map[string]any{
		"text":     text.String(),
		"username": c.username,
	}
	if c.channel != "" {
		msg["channel"] = c.channel
	}
	return msg
}

func (c *Client) formatOrganization(org string) string {
	name := escapeSlackText(strings.TrimSpace(org))
	if name == "" || c.orgURLPrefix == "" {
		return name
	}
	u, err := url.Parse(c.orgURLPrefix)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return name
	}
	link, err := url.JoinPath(u.String(), strings.TrimSpace(org))
	if err != nil {
		return name
	}
	return fmt.Sprintf("<%s|%s>", link, name)
}

func fallbackString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func escapeSlackText(value string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(value)
}

func appendSlackField(text *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	text.WriteString("• ")
	text.WriteString(label)
	text.WriteString(": ")
	text.WriteString(value)
	text.WriteByte('\n')
}

func appendSlackMetadata(text *strings.Builder, metadata map[string]string) {
	if len(metadata) == 0 {
		return
	}
	text.WriteString("• Metadata:\n")
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		text.WriteString("    • ")
		text.WriteString(k)
		text.WriteString(": ")
		text.WriteString(escapeSlackText(metadata[k]))
		text.WriteByte('\n')
	}
}
