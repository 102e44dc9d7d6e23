package config

import (
	"strings"
	"time"
)

const defaultObservabilityName = "repo-gateway"

// ObservabilityConfig groups configuration that controls metrics, telemetry, and failure fan-out.
type ObservabilityConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	Metrics       ObservabilityMetricsConfig
	Telemetry     ObservabilityTelemetryConfig
	Notifications ObservabilityNotificationsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Metrics.Sanitize()
	c.Telemetry.Sanitize()
	c.Notifications.Sanitize()
}

// ObservabilityMetricsConfig controls emission of metrics to StatsD and Prometheus.
type ObservabilityMetricsConfig struct {
	Enabled       bool   `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
	StatsdPrefix  string `env:"OBSERVABILITY_METRICS_STATSD_PREFIX"  envDefault:"repo_gateway"`
	// PrometheusEnabled serves GET /metrics.
	PrometheusEnabled bool `env:"OBSERVABILITY_PROMETHEUS_ENABLED" envDefault:"true"`
}

// Sanitize normalises derived fields and enforces safe defaults.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	if c.StatsdAddress == "" {
		c.Enabled = false
	}
}

// IsEnabled returns true when StatsD emission is active after sanitisation.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}

// ObservabilityTelemetryConfig sizes the asynchronous telemetry pipeline.
type ObservabilityTelemetryConfig struct {
	Buffer  int `env:"OBSERVABILITY_TELEMETRY_BUFFER"  envDefault:"256"`
	Workers int `env:"OBSERVABILITY_TELEMETRY_WORKERS" envDefault:"1"`
	// MetadataKeys are event properties copied into failure notifications.
	MetadataKeys []string `env:"OBSERVABILITY_TELEMETRY_METADATA_KEYS" envDefault:"api_version,provider"`
}

// Sanitize clamps queue sizing.
func (c *ObservabilityTelemetryConfig) Sanitize() {
	if c.Buffer <= 0 {
		c.Buffer = 256
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
}

// ObservabilityNotificationsConfig controls outbound repository creation failure notifications.
type ObservabilityNotificationsConfig struct {
	Enabled    bool                        `env:"OBSERVABILITY_NOTIFICATIONS_ENABLED"     envDefault:"false"`
	Timeout    time.Duration               `env:"OBSERVABILITY_NOTIFICATIONS_TIMEOUT"     envDefault:"5s"`
	RetryLimit int                         `env:"OBSERVABILITY_NOTIFICATIONS_RETRY_LIMIT" envDefault:"3"`
	Slack      SlackNotificationConfig     `                                                                 envPrefix:"OBSERVABILITY_NOTIFICATIONS_SLACK_"`
	PagerDuty  PagerDutyNotificationConfig `                                                                 envPrefix:"OBSERVABILITY_NOTIFICATIONS_PAGERDUTY_"`
}

// Sanitize normalises notification configuration values.
func (c *ObservabilityNotificationsConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}

	c.Slack.sanitize()
	c.PagerDuty.sanitize()

	if !c.Enabled {
		c.Slack.Enabled = false
		c.PagerDuty.Enabled = false
		return
	}

	if c.Slack.Enabled && c.Slack.WebhookURL == "" {
		c.Slack.Enabled = false
	}

	if c.PagerDuty.Enabled && c.PagerDuty.RoutingKey == "" {
		c.PagerDuty.Enabled = false
	}
}

// SlackNotificationConfig controls Slack webhook fan-out.
type SlackNotificationConfig struct {
	Enabled      bool   `env:"ENABLED"        envDefault:"false"`
	WebhookURL   string `env:"WEBHOOK_URL"`
	Channel      string `env:"CHANNEL"`
	Username     string `env:"USERNAME"       envDefault:"repo-gateway"`
	OrgURLPrefix string `env:"ORG_URL_PREFIX"`
}

func (c *SlackNotificationConfig) sanitize() {
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	c.Channel = strings.TrimSpace(c.Channel)
	c.OrgURLPrefix = strings.TrimSpace(c.OrgURLPrefix)
	if c.Username == "" {
		c.Username = defaultObservabilityName
	}
}

// PagerDutyNotificationConfig controls PagerDuty Events API v2 fan-out.
type PagerDutyNotificationConfig struct {
	Enabled    bool   `env:"ENABLED"     envDefault:"false"`
	RoutingKey string `env:"ROUTING_KEY"`
	Source     string `env:"SOURCE"      envDefault:"repo-gateway"`
	Component  string `env:"COMPONENT"   envDefault:"repo-creation"`
}

func (c *PagerDutyNotificationConfig) sanitize() {
	c.RoutingKey = strings.TrimSpace(c.RoutingKey)
	if c.Source = strings.TrimSpace(c.Source); c.Source == "" {
		c.Source = defaultObservabilityName
	}
	if c.Component = strings.TrimSpace(c.Component); c.Component == "" {
		c.Component = "repo-creation"
	}
}
