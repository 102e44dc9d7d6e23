package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseProviders(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    []ProviderName
		expectError bool
	}{
		{
			name:     "single provider",
			input:    "aad",
			expected: []ProviderName{ProviderAAD},
		},
		{
			name:     "order is preserved",
			input:    "devops,aad,apikey",
			expected: []ProviderName{ProviderDevOps, ProviderAAD, ProviderAPIKey},
		},
		{
			name:     "spaces and case",
			input:    " AAD , ApiKey ",
			expected: []ProviderName{ProviderAAD, ProviderAPIKey},
		},
		{
			name:     "duplicates keep first position",
			input:    "apikey,aad,apikey",
			expected: []ProviderName{ProviderAPIKey, ProviderAAD},
		},
		{
			name:        "empty string",
			input:       "",
			expectError: true,
		},
		{
			name:        "only spaces and commas",
			input:       " , , ",
			expectError: true,
		},
		{
			name:        "unknown provider",
			input:       "aad,github",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseProviders(tt.input)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestAppConfig_ParseAuthEnv(t *testing.T) {
	t.Setenv("AUTH_PROVIDERS", "aad,apikey")
	t.Setenv("ADMIN_GROUP", " repo-admins ")
	t.Setenv("ADMIN_PRINCIPALS", "alice,bob")
	t.Setenv("AAD_ISSUER", "https://login.example.com/tenant/v2.0")
	t.Setenv("AAD_AUDIENCE", "api://repo-gateway")
	t.Setenv("AAD_ORGANIZATION_SCOPES", "acme,globex")
	t.Setenv("APIKEY_SECRET", "pepper")
	t.Setenv("DEVOPS_PROFILE_URL", "https://devops.example.com/me")
	t.Setenv("DEVOPS_ORGANIZATIONS_EXPR", "memberships[].org")
	t.Setenv("DEV_AUTH_PRINCIPAL", "dev")
	t.Setenv("DEV_AUTH_ORGANIZATIONS", "acme")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	expected := AuthConfig{
		Providers: "aad,apikey",
		AAD: AADConfig{
			Issuer:             "https://login.example.com/tenant/v2.0",
			Audience:           "api://repo-gateway",
			OrganizationScopes: []string{"acme", "globex"},
		},
		APIKey: APIKeyConfig{Secret: "pepper", Prefix: "apikey:"},
		DevOps: DevOpsConfig{
			ProfileURL:        "https://devops.example.com/me",
			Timeout:           10 * time.Second,
			PrincipalExpr:     "login",
			ScopesExpr:        "scopes",
			OrganizationsExpr: "memberships[].org",
		},
		DevAuth: DevAuthConfig{
			Principal:     "dev",
			Scopes:        []string{"repo/create"},
			Organizations: []string{"acme"},
			Admin:         true,
		},
		AdminGroup:      "repo-admins",
		AdminPrincipals: []string{"alice", "bob"},
	}

	if !reflect.DeepEqual(cfg.Auth, expected) {
		t.Fatalf("unexpected auth configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Auth)
	}
}

func TestAppConfig_ParseGatewayEnv(t *testing.T) {
	t.Setenv("DIRECTORY_MODE", "Postgres")
	t.Setenv("DIRECTORY_CACHE_TTL", "1m")
	t.Setenv("UPSTREAM_BASE_URL", " https://git.example.com/api/v3 ")
	t.Setenv("UPSTREAM_TOKEN", "svc")
	t.Setenv("CUSTOMIZATION_ENABLED", "true")
	t.Setenv("CUSTOMIZATION_TEAM_ID", "42")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Directory.Mode != DirectoryModePostgres {
		t.Fatalf("expected postgres mode, got %q", cfg.Directory.Mode)
	}
	if cfg.Directory.CacheTTL != time.Minute {
		t.Fatalf("expected 1m cache ttl, got %v", cfg.Directory.CacheTTL)
	}
	if cfg.Upstream.BaseURL != "https://git.example.com/api/v3" {
		t.Fatalf("expected trimmed base url, got %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout != 30*time.Second {
		t.Fatalf("expected default upstream timeout, got %v", cfg.Upstream.Timeout)
	}
	if !cfg.Customization.Enabled || cfg.Customization.Visibility != "private" || cfg.Customization.TeamID != "42" {
		t.Fatalf("unexpected customization config: %#v", cfg.Customization)
	}
}

func TestDirectoryMode_UnmarshalText(t *testing.T) {
	var m DirectoryMode
	if err := m.UnmarshalText([]byte("ldap")); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	if err := m.UnmarshalText([]byte(" STATIC ")); err != nil || m != DirectoryModeStatic {
		t.Fatalf("expected static mode, got %q (%v)", m, err)
	}
}

func validConfig() AppConfig {
	return AppConfig{
		Auth: AuthConfig{
			Providers: "aad,apikey,devops",
			AAD:       AADConfig{Issuer: "https://issuer", Audience: "aud"},
			APIKey:    APIKeyConfig{Secret: "s"},
			DevOps:    DevOpsConfig{ProfileURL: "https://devops/me"},
		},
		Directory: DirectoryConfig{Mode: DirectoryModeStatic, Organizations: []string{"acme"}},
		Upstream:  UpstreamConfig{BaseURL: "https://git.example.com"},
	}
}

func TestAppConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		errMsg string
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{
			name:   "unknown provider",
			mutate: func(c *AppConfig) { c.Auth.Providers = "aad,ldap" },
			errMsg: "invalid auth provider",
		},
		{
			name:   "aad without issuer",
			mutate: func(c *AppConfig) { c.Auth.AAD.Issuer = "" },
			errMsg: "AAD_ISSUER",
		},
		{
			name:   "apikey without secret",
			mutate: func(c *AppConfig) { c.Auth.APIKey.Secret = "" },
			errMsg: "APIKEY_SECRET",
		},
		{
			name:   "devops without profile url",
			mutate: func(c *AppConfig) { c.Auth.DevOps.ProfileURL = "" },
			errMsg: "DEVOPS_PROFILE_URL",
		},
		{
			name:   "devauth outside dev mode",
			mutate: func(c *AppConfig) { c.Auth.Providers = "devauth" },
			errMsg: "DEV=true",
		},
		{
			name: "devauth in dev mode",
			mutate: func(c *AppConfig) {
				c.Auth.Providers = "devauth"
				c.IsDev = true
			},
		},
		{
			name:   "static directory without organizations",
			mutate: func(c *AppConfig) { c.Directory.Organizations = nil },
			errMsg: "DIRECTORY_ORGANIZATIONS",
		},
		{
			name:   "missing upstream",
			mutate: func(c *AppConfig) { c.Upstream.BaseURL = "" },
			errMsg: "UPSTREAM_BASE_URL",
		},
		{
			name: "bad visibility",
			mutate: func(c *AppConfig) {
				c.Customization = CustomizationConfig{Enabled: true, Visibility: "secret"}
			},
			errMsg: "CUSTOMIZATION_VISIBILITY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.errMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Fatalf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{CompressionLevel: 42}
	cfg.Sanitize()
	if cfg.CompressionLevel != 9 {
		t.Fatalf("expected compression level clamped to 9, got %d", cfg.CompressionLevel)
	}
	if cfg.ShutdownTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 {
		t.Fatalf("expected timeouts to fall back to defaults, got %#v", cfg)
	}
}

func TestDBConfig_Sanitize(t *testing.T) {
	cfg := DBConfig{MaxOpenConns: 0, MaxIdleConns: 50, ConnMaxLifetime: -time.Second}
	cfg.Sanitize()
	if cfg.MaxOpenConns != 10 || cfg.MaxIdleConns != 10 || cfg.ConnMaxLifetime != 0 {
		t.Fatalf("unexpected pool settings after sanitize: %#v", cfg)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
}

func TestObservabilityNotificationsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityNotificationsConfig{
		Enabled:    true,
		Timeout:    0,
		RetryLimit: -1,
		Slack: SlackNotificationConfig{
			Enabled:    true,
			WebhookURL: " ",
			Channel:    "  ",
			Username:   "",
		},
		PagerDuty: PagerDutyNotificationConfig{
			Enabled:    true,
			RoutingKey: " ",
			Source:     "",
			Component:  "",
		},
	}

	cfg.Sanitize()

	if cfg.Timeout <= 0 {
		t.Fatalf("expected timeout to fall back to default, got %v", cfg.Timeout)
	}
	if cfg.RetryLimit < 0 {
		t.Fatalf("expected retry limit to be clamped to >= 0, got %d", cfg.RetryLimit)
	}
	if cfg.Slack.Enabled {
		t.Fatalf("expected slack to be disabled without a webhook url")
	}
	if cfg.Slack.Username != defaultObservabilityName {
		t.Fatalf("expected default slack username, got %q", cfg.Slack.Username)
	}
	if cfg.PagerDuty.Enabled {
		t.Fatalf("expected pagerduty to be disabled without a routing key")
	}
	if cfg.PagerDuty.Source != defaultObservabilityName || cfg.PagerDuty.Component != "repo-creation" {
		t.Fatalf("unexpected pagerduty defaults: %#v", cfg.PagerDuty)
	}
}

func TestObservabilityNotificationsConfig_DisabledTurnsOffSinks(t *testing.T) {
	cfg := ObservabilityNotificationsConfig{
		Slack:     SlackNotificationConfig{Enabled: true, WebhookURL: "https://hooks.example.com"},
		PagerDuty: PagerDutyNotificationConfig{Enabled: true, RoutingKey: "rk"},
	}
	cfg.Sanitize()
	if cfg.Slack.Enabled || cfg.PagerDuty.Enabled {
		t.Fatalf("expected sinks to be disabled when notifications are off")
	}
}
