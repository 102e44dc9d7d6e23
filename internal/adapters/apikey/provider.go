package apikey

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/target/repo-gateway/internal/domain/auth"
	"github.com/target/repo-gateway/internal/ports"
)

// Header names that may carry an API key, checked in order before Basic auth.
const (
	HeaderAPIKey       = "X-Api-Key"
	HeaderSubscription = "Ocp-Apim-Subscription-Key"
)

// ErrNoKey is returned when the request presents no API key.
var ErrNoKey = errors.New("no api key presented")

// Provider implements ports.AuthProvider over a Store.
type Provider struct {
	store *Store
	group singleflight.Group
}

var (
	_ ports.AuthProvider  = (*Provider)(nil)
	_ domainauth.Identity = (*Identity)(nil)
)

// NewProvider creates an API key provider.
func NewProvider(store *Store) *Provider {
	if store == nil {
		panic("apikey: store is required")
	}
	return &Provider{store: store}
}

// Name implements ports.AuthProvider.
func (p *Provider) Name() string { return domainauth.ProviderAPIKey }

// Attempt looks up the presented key. Concurrent lookups of the same key share one round trip.
func (p *Provider) Attempt(ctx context.Context, r *http.Request) (domainauth.Identity, error) {
	key, ok := KeyFromRequest(r)
	if !ok {
		return nil, ErrNoKey
	}

	v, err, _ := p.group.Do(p.store.Digest(key), func() (any, error) {
		return p.store.Get(ctx, key)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("lookup api key: %w", err)
	}
	rec, _ := v.(Record)

	principal := domainauth.BaseIdentity{
		ID:      rec.Owner,
		Source:  domainauth.ProviderAPIKey,
		Granted: append([]string(nil), rec.Scopes...),
	}
	if rec.Organizations != nil {
		principal.Orgs = domainauth.ParseOrgScopes(rec.Organizations)
		principal.OrgsKnown = true
	}
	return &Identity{BaseIdentity: principal, admins: p.store}, nil
}

// Identity is a caller authenticated by API key.
type Identity struct {
	domainauth.BaseIdentity
	admins ports.AdminLookup
}

// IsAdministrator consults the store's administrator set.
func (i *Identity) IsAdministrator(ctx context.Context) (bool, error) {
	return i.admins.IsAdmin(ctx, i.ID)
}

// KeyFromRequest extracts a key from the key headers or the Basic auth password.
func KeyFromRequest(r *http.Request) (string, bool) {
	for _, h := range []string{HeaderAPIKey, HeaderSubscription} {
		if v := strings.TrimSpace(r.Header.Get(h)); v != "" {
			return v, true
		}
	}
	if _, pass, ok := r.BasicAuth(); ok && pass != "" {
		return pass, true
	}
	return "", false
}
