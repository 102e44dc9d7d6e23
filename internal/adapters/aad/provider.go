// Package aad authenticates Azure Active Directory bearer tokens for API callers.
package aad

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/target/repo-gateway/internal/adapters/authroles"
	domainauth "github.com/target/repo-gateway/internal/domain/auth"
	"github.com/target/repo-gateway/internal/ports"
)

var (
	// ErrNoBearerToken is returned when the request carries no bearer token.
	ErrNoBearerToken = errors.New("no bearer token")
	// ErrMissingScope is returned when a verified token grants no scopes or roles.
	ErrMissingScope = errors.New("token grants no scopes")
)

// IDTokenVerifier verifies a raw JWT. *gooidc.IDTokenVerifier satisfies it via verifierAdapter.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (Claims, error)
}

// ProviderConfig holds configuration for the AAD provider.
type ProviderConfig struct {
	// Issuer is the tenant issuer URL, e.g. https://login.microsoftonline.com/<tenant>/v2.0.
	// A discovery document URL is accepted too.
	Issuer string
	// Audience is the application id URI or client id tokens must be issued for.
	Audience string
	// OrganizationScopes are granted to every AAD caller. Empty leaves identities
	// without organization configuration.
	OrganizationScopes []string
	Admins             authroles.StaticAdminMapper
	HTTPClient         *http.Client // Optional, defaults to a 30s client
}

// Provider implements ports.AuthProvider for AAD access tokens.
type Provider struct {
	verifier IDTokenVerifier
	orgs     []string
	admins   authroles.StaticAdminMapper
}

var (
	_ ports.AuthProvider  = (*Provider)(nil)
	_ domainauth.Identity = (*Identity)(nil)
)

// NewProvider discovers the issuer and builds a provider that verifies tokens for Audience.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if config.Audience == "" {
		return nil, errors.New("audience is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	// Single discovery fetch; the verifier reuses the client for JWKS refreshes.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(config.Issuer, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	verifier := op.Verifier(&gooidc.Config{ClientID: config.Audience})
	return NewProviderWithVerifier(verifierAdapter{v: verifier, client: httpClient}, config), nil
}

// NewProviderWithVerifier builds a provider around an existing verifier.
func NewProviderWithVerifier(v IDTokenVerifier, config ProviderConfig) *Provider {
	return &Provider{
		verifier: v,
		orgs:     append([]string(nil), config.OrganizationScopes...),
		admins:   config.Admins,
	}
}

// Name implements ports.AuthProvider.
func (p *Provider) Name() string { return domainauth.ProviderAAD }

// Attempt verifies the bearer token and maps its claims to an identity.
func (p *Provider) Attempt(ctx context.Context, r *http.Request) (domainauth.Identity, error) {
	raw, ok := BearerToken(r)
	if !ok {
		return nil, ErrNoBearerToken
	}
	claims, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}

	scopes := claims.ScopeList()
	if len(scopes) == 0 {
		return nil, ErrMissingScope
	}
	principal := domainauth.BaseIdentity{
		ID:      claims.PrincipalID(),
		Source:  domainauth.ProviderAAD,
		Granted: scopes,
	}
	if len(p.orgs) > 0 {
		principal.Orgs = domainauth.ParseOrgScopes(p.orgs)
		principal.OrgsKnown = true
	}
	return &Identity{
		BaseIdentity: principal,
		groups:       append([]string(nil), claims.Groups...),
		admins:       p.admins,
	}, nil
}

// Identity is an AAD-authenticated caller.
type Identity struct {
	domainauth.BaseIdentity
	groups []string
	admins authroles.StaticAdminMapper
}

// IsAdministrator reports membership in the admin group or the admin principal list.
func (i *Identity) IsAdministrator(ctx context.Context) (bool, error) {
	if i.admins.IsAdminGroupMember(i.groups) {
		return true, nil
	}
	return i.admins.IsAdmin(ctx, i.ID)
}

// Claims is the subset of AAD access token claims the gateway reads.
type Claims struct {
	Subject           string   `json:"sub"`
	ObjectID          string   `json:"oid"`
	AppID             string   `json:"appid"`
	UPN               string   `json:"upn"`
	PreferredUsername string   `json:"preferred_username"`
	Scp               string   `json:"scp"`
	Roles             []string `json:"roles"`
	Groups            []string `json:"groups"`
}

// PrincipalID prefers the user principal name, then the object id, app id and subject.
func (c Claims) PrincipalID() string {
	return firstNonEmpty(c.UPN, c.PreferredUsername, c.ObjectID, c.AppID, c.Subject)
}

// ScopeList merges delegated scopes (space separated scp) and application roles.
func (c Claims) ScopeList() []string {
	out := strings.Fields(c.Scp)
	return append(out, c.Roles...)
}

// BearerToken extracts the token from an Authorization: Bearer header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type verifierAdapter struct {
	v      *gooidc.IDTokenVerifier
	client *http.Client
}

func (a verifierAdapter) Verify(ctx context.Context, raw string) (Claims, error) {
	tok, err := a.v.Verify(gooidc.ClientContext(ctx, a.client), raw)
	if err != nil {
		return Claims{}, err
	}
	var c Claims
	if err := tok.Claims(&c); err != nil {
		return Claims{}, fmt.Errorf("parse claims: %w", err)
	}
	return c, nil
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
