// Package devops authenticates personal access tokens issued by a DevOps platform by
// presenting them to the platform's profile endpoint.
package devops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	domainauth "github.com/target/repo-gateway/internal/domain/auth"
	"github.com/target/repo-gateway/internal/ports"
)

// HeaderToken carries the DevOps personal access token.
const HeaderToken = "X-Devops-Token"

// maxProfileBytes bounds the profile response read into memory.
const maxProfileBytes = 1 << 20

var (
	// ErrNoToken is returned when the request carries no DevOps token.
	ErrNoToken = errors.New("no devops token")
	// ErrRejected is returned when the profile endpoint refuses the token.
	ErrRejected = errors.New("devops token rejected")
)

// Expressions are JMESPath expressions evaluated against the profile document.
type Expressions struct {
	Principal     string // required, must yield a non-empty string
	Scopes        string // string or list of strings
	Organizations string // optional; empty leaves identities without organization configuration
}

// ProviderConfig configures the DevOps provider.
type ProviderConfig struct {
	ProfileURL  string
	Expressions Expressions
	HTTPClient  *http.Client // Optional, defaults to a 10s client
}

// Provider implements ports.AuthProvider by calling the profile endpoint with the caller's token.
type Provider struct {
	profileURL string
	exprs      Expressions
	client     *http.Client
}

var (
	_ ports.AuthProvider  = (*Provider)(nil)
	_ domainauth.Identity = (*Identity)(nil)
)

// NewProvider validates the expressions and builds a provider.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.ProfileURL == "" {
		return nil, errors.New("profile URL is required")
	}
	if strings.TrimSpace(cfg.Expressions.Principal) == "" {
		return nil, errors.New("principal expression is required")
	}
	for name, expr := range map[string]string{
		"principal":     cfg.Expressions.Principal,
		"scopes":        cfg.Expressions.Scopes,
		"organizations": cfg.Expressions.Organizations,
	} {
		if expr == "" {
			continue
		}
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("invalid %s expression: %w", name, err)
		}
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{profileURL: cfg.ProfileURL, exprs: cfg.Expressions, client: client}, nil
}

// Name implements ports.AuthProvider.
func (p *Provider) Name() string { return domainauth.ProviderDevOps }

// Attempt fetches the caller's profile with their token and maps it to an identity.
func (p *Provider) Attempt(ctx context.Context, r *http.Request) (domainauth.Identity, error) {
	token := strings.TrimSpace(r.Header.Get(HeaderToken))
	if token == "" {
		return nil, ErrNoToken
	}

	profile, err := p.fetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	principalVal, err := jmespath.Search(p.exprs.Principal, profile)
	if err != nil {
		return nil, fmt.Errorf("evaluate principal: %w", err)
	}
	id, _ := principalVal.(string)
	if id == "" {
		return nil, errors.New("profile has no principal")
	}

	principal := domainauth.BaseIdentity{ID: id, Source: domainauth.ProviderDevOps}
	if p.exprs.Scopes != "" {
		v, err := jmespath.Search(p.exprs.Scopes, profile)
		if err != nil {
			return nil, fmt.Errorf("evaluate scopes: %w", err)
		}
		principal.Granted = toStrings(v)
	}
	if p.exprs.Organizations != "" {
		v, err := jmespath.Search(p.exprs.Organizations, profile)
		if err != nil {
			return nil, fmt.Errorf("evaluate organizations: %w", err)
		}
		if v != nil {
			principal.Orgs = domainauth.ParseOrgScopes(toStrings(v))
			principal.OrgsKnown = true
		}
	}
	return &Identity{BaseIdentity: principal}, nil
}

func (p *Provider) fetchProfile(ctx context.Context, token string) (any, error) {
	// The caller's token authorizes the profile request.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrRejected
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("profile request: unexpected status %d", resp.StatusCode)
	}

	var profile any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProfileBytes)).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return profile, nil
}

// Identity is a DevOps-authenticated caller. DevOps tokens never grant administration.
type Identity struct {
	domainauth.BaseIdentity
}

// IsAdministrator always reports false.
func (i *Identity) IsAdministrator(context.Context) (bool, error) { return false, nil }

// toStrings flattens a JMESPath result into strings. Space separated strings are split.
func toStrings(v any) []string {
	switch t := v.(type) {
	case string:
		return strings.Fields(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
