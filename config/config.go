package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Authentication providers and admin mapping
//   - database.go: Database and cache configuration
//   - http.go: HTTP server configuration
//   - gateway.go: Organization directory, upstream API and customization
//   - observability.go: Metrics, telemetry and failure notifications
type AppConfig struct {
	// IsDev controls development mode behavior (dev auth provider, text logs).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Authentication configuration
	Auth AuthConfig

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	Directory     DirectoryConfig     `envPrefix:"DIRECTORY_"`
	Upstream      UpstreamConfig      `envPrefix:"UPSTREAM_"`
	Customization CustomizationConfig `envPrefix:"CUSTOMIZATION_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Postgres.Sanitize()
	c.Auth.Sanitize()
	c.Directory.Sanitize()
	c.Upstream.Sanitize()
	c.Observability.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// Validate reports configuration that cannot produce a working gateway.
// Call it after Sanitize.
func (c *AppConfig) Validate() error {
	providers, err := c.Auth.EnabledProviders()
	if err != nil {
		return err
	}

	var errs []error
	for _, p := range providers {
		switch p {
		case ProviderAAD:
			if c.Auth.AAD.Issuer == "" || c.Auth.AAD.Audience == "" {
				errs = append(errs, errors.New("AAD_ISSUER and AAD_AUDIENCE are required when aad is enabled"))
			}
		case ProviderAPIKey:
			if c.Auth.APIKey.Secret == "" {
				errs = append(errs, errors.New("APIKEY_SECRET is required when apikey is enabled"))
			}
		case ProviderDevOps:
			if c.Auth.DevOps.ProfileURL == "" {
				errs = append(errs, errors.New("DEVOPS_PROFILE_URL is required when devops is enabled"))
			}
		case ProviderDevAuth:
			if !c.IsDev {
				errs = append(errs, errors.New("devauth may only be enabled when DEV=true"))
			}
		}
	}
	if err := c.Directory.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Upstream.BaseURL == "" {
		errs = append(errs, errors.New("UPSTREAM_BASE_URL is required"))
	}
	if c.Customization.Enabled {
		if err := c.Customization.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
