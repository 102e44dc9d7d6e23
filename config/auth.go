package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ProviderName identifies an authentication provider.
type ProviderName string

const (
	// ProviderAAD verifies Azure AD bearer tokens.
	ProviderAAD ProviderName = "aad"
	// ProviderAPIKey looks up API keys in Redis.
	ProviderAPIKey ProviderName = "apikey"
	// ProviderDevOps validates DevOps tokens against a profile endpoint.
	ProviderDevOps ProviderName = "devops"
	// ProviderDevAuth authenticates every request as a fixed identity (development only).
	ProviderDevAuth ProviderName = "devauth"
)

// ParseProviders parses a comma-delimited, ordered list of provider names.
// Duplicates keep their first position. Unknown names are an error.
func ParseProviders(s string) ([]ProviderName, error) {
	seen := make(map[ProviderName]bool)
	var out []ProviderName
	for _, part := range strings.Split(s, ",") {
		name := ProviderName(strings.ToLower(strings.TrimSpace(part)))
		if name == "" {
			continue
		}
		switch name {
		case ProviderAAD, ProviderAPIKey, ProviderDevOps, ProviderDevAuth:
		default:
			return nil, fmt.Errorf("invalid auth provider: %q (valid options: aad, apikey, devops, devauth)", part)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, errors.New("at least one auth provider must be specified")
	}
	return out, nil
}

// AADConfig configures Azure AD token verification.
type AADConfig struct {
	// Issuer is the tenant issuer, e.g. https://login.microsoftonline.com/<tenant>/v2.0.
	Issuer   string `env:"ISSUER"`
	Audience string `env:"AUDIENCE"`
	// OrganizationScopes are granted to every AAD identity. Unset leaves AAD
	// identities without organization configuration.
	OrganizationScopes []string `env:"ORGANIZATION_SCOPES"`
}

// APIKeyConfig configures the Redis-backed API key store.
type APIKeyConfig struct {
	// Secret keys the HMAC used to digest API keys before storage.
	Secret string `env:"SECRET"`
	Prefix string `env:"PREFIX" envDefault:"apikey:"`
}

// DevOpsConfig configures DevOps token validation.
type DevOpsConfig struct {
	ProfileURL string        `env:"PROFILE_URL"`
	Timeout    time.Duration `env:"TIMEOUT"     envDefault:"10s"`
	// JMESPath expressions evaluated against the profile document.
	PrincipalExpr     string `env:"PRINCIPAL_EXPR"     envDefault:"login"`
	ScopesExpr        string `env:"SCOPES_EXPR"        envDefault:"scopes"`
	OrganizationsExpr string `env:"ORGANIZATIONS_EXPR"`
}

// DevAuthConfig controls the development identity.
// Used only when DEV=true and devauth is listed in AUTH_PROVIDERS.
type DevAuthConfig struct {
	Principal     string   `env:"PRINCIPAL"     envDefault:"dev-user"`
	Scopes        []string `env:"SCOPES"        envDefault:"repo/create"`
	Organizations []string `env:"ORGANIZATIONS" envDefault:"*"`
	Admin         bool     `env:"ADMIN"         envDefault:"true"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Providers is the ordered provider list, e.g. "aad,apikey,devops".
	Providers string `env:"AUTH_PROVIDERS" envDefault:"aad,apikey,devops"`

	AAD     AADConfig     `envPrefix:"AAD_"`
	APIKey  APIKeyConfig  `envPrefix:"APIKEY_"`
	DevOps  DevOpsConfig  `envPrefix:"DEVOPS_"`
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// AdminGroup is the directory group whose members are administrators.
	AdminGroup string `env:"ADMIN_GROUP"`

	// AdminPrincipals are principals that are always administrators.
	AdminPrincipals []string `env:"ADMIN_PRINCIPALS"`
}

// Sanitize trims values that are compared verbatim later.
func (c *AuthConfig) Sanitize() {
	c.AAD.Issuer = strings.TrimSpace(c.AAD.Issuer)
	c.AAD.Audience = strings.TrimSpace(c.AAD.Audience)
	c.DevOps.ProfileURL = strings.TrimSpace(c.DevOps.ProfileURL)
	c.AdminGroup = strings.TrimSpace(c.AdminGroup)
	if c.APIKey.Prefix == "" {
		c.APIKey.Prefix = "apikey:"
	}
	if c.DevOps.Timeout <= 0 {
		c.DevOps.Timeout = 10 * time.Second
	}
}

// EnabledProviders returns the parsed provider list in attempt order.
func (c *AuthConfig) EnabledProviders() ([]ProviderName, error) {
	return ParseProviders(c.Providers)
}
