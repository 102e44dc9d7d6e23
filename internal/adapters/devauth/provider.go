package devauth

// Package devauth provides a simple, config-driven AuthProvider for local development.

import (
	"context"
	"errors"
	"net/http"

	domainauth "github.com/target/repo-gateway/internal/domain/auth"
	"github.com/target/repo-gateway/internal/ports"
)

// Config controls the dev auth provider behavior.
// Principal is required. Organizations nil leaves the identity without organization configuration.
type Config struct {
	Principal     string
	Scopes        []string
	Organizations []string
	Admin         bool
}

// Provider implements ports.AuthProvider for local development.
// Every request authenticates as the configured identity; it must only be registered
// when the gateway runs in development mode.
type Provider struct {
	identity *Identity
}

var (
	_ ports.AuthProvider  = (*Provider)(nil)
	_ domainauth.Identity = (*Identity)(nil)
)

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Principal == "" {
		return nil, errors.New("dev auth: Principal is required")
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{domainauth.ScopeRepoCreate}
	}
	principal := domainauth.BaseIdentity{
		ID:      cfg.Principal,
		Source:  domainauth.ProviderDevAuth,
		Granted: append([]string(nil), scopes...),
	}
	if cfg.Organizations != nil {
		principal.Orgs = domainauth.ParseOrgScopes(cfg.Organizations)
		principal.OrgsKnown = true
	}
	return &Provider{identity: &Identity{BaseIdentity: principal, admin: cfg.Admin}}, nil
}

// Name implements ports.AuthProvider.
func (p *Provider) Name() string { return domainauth.ProviderDevAuth }

// Attempt ignores the request and returns the configured identity.
func (p *Provider) Attempt(context.Context, *http.Request) (domainauth.Identity, error) {
	return p.identity, nil
}

// Identity is the fixed development identity.
type Identity struct {
	domainauth.BaseIdentity
	admin bool
}

// IsAdministrator returns the configured flag.
func (i *Identity) IsAdministrator(context.Context) (bool, error) { return i.admin, nil }
