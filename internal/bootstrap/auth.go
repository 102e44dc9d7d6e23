package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/target/repo-gateway/config"
	"github.com/target/repo-gateway/internal/adapters/aad"
	"github.com/target/repo-gateway/internal/adapters/apikey"
	"github.com/target/repo-gateway/internal/adapters/authroles"
	"github.com/target/repo-gateway/internal/adapters/devauth"
	"github.com/target/repo-gateway/internal/adapters/devops"
	httpx "github.com/target/repo-gateway/internal/http"
	"github.com/target/repo-gateway/internal/observability/metrics"
	"github.com/target/repo-gateway/internal/ports"
	"github.com/target/repo-gateway/internal/service"
)

// Provider subsets per route group. Dev auth is appended to every group when enabled.
var (
	apiProviders    = []config.ProviderName{config.ProviderAAD, config.ProviderAPIKey, config.ProviderDevOps}
	clientProviders = []config.ProviderName{config.ProviderAAD, config.ProviderAPIKey}
	adminProviders  = []config.ProviderName{config.ProviderAAD, config.ProviderAPIKey}
)

// AuthDeps contains dependencies for the authentication providers.
type AuthDeps struct {
	Auth  config.AuthConfig
	IsDev bool
	// Redis backs the API key provider. Required when apikey is enabled.
	Redis  redis.UniversalClient
	Logger *slog.Logger
	// AADVerifier replaces OIDC discovery, for tests. Optional.
	AADVerifier aad.IDTokenVerifier
	HTTPClient  *http.Client // Optional, used for discovery and profile lookups
}

// ProviderSet holds the configured providers in AUTH_PROVIDERS order.
type ProviderSet struct {
	order     []config.ProviderName
	providers map[config.ProviderName]ports.AuthProvider
}

// Names returns the configured provider names in attempt order.
func (s *ProviderSet) Names() []config.ProviderName {
	return slices.Clone(s.order)
}

// Subset returns the configured providers named in allowed, keeping the configured order.
// Dev auth, when configured, is always appended last.
func (s *ProviderSet) Subset(allowed ...config.ProviderName) []ports.AuthProvider {
	out := make([]ports.AuthProvider, 0, len(allowed)+1)
	for _, name := range s.order {
		if name == config.ProviderDevAuth || !slices.Contains(allowed, name) {
			continue
		}
		out = append(out, s.providers[name])
	}
	if p, ok := s.providers[config.ProviderDevAuth]; ok {
		out = append(out, p)
	}
	return out
}

// BuildProviders constructs every provider listed in AUTH_PROVIDERS.
// Dev auth is skipped, with a warning, outside development mode.
func BuildProviders(ctx context.Context, deps AuthDeps) (*ProviderSet, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	names, err := deps.Auth.EnabledProviders()
	if err != nil {
		return nil, err
	}

	set := &ProviderSet{providers: make(map[config.ProviderName]ports.AuthProvider, len(names))}
	for _, name := range names {
		if name == config.ProviderDevAuth && !deps.IsDev {
			logger.WarnContext(ctx, "devauth provider ignored outside development mode")
			continue
		}
		p, buildErr := buildProvider(ctx, name, deps)
		if buildErr != nil {
			return nil, fmt.Errorf("build %s provider: %w", name, buildErr)
		}
		set.order = append(set.order, name)
		set.providers[name] = p
	}
	logger.InfoContext(ctx, "auth providers configured", "providers", set.order)
	return set, nil
}

//nolint:ireturn // each case yields a different provider implementation.
func buildProvider(ctx context.Context, name config.ProviderName, deps AuthDeps) (ports.AuthProvider, error) {
	cfg := deps.Auth
	admins := authroles.StaticAdminMapper{AdminGroup: cfg.AdminGroup, Principals: cfg.AdminPrincipals}

	switch name {
	case config.ProviderAAD:
		aadCfg := aad.ProviderConfig{
			Issuer:             cfg.AAD.Issuer,
			Audience:           cfg.AAD.Audience,
			OrganizationScopes: cfg.AAD.OrganizationScopes,
			Admins:             admins,
			HTTPClient:         deps.HTTPClient,
		}
		if deps.AADVerifier != nil {
			return aad.NewProviderWithVerifier(deps.AADVerifier, aadCfg), nil
		}
		return aad.NewProvider(ctx, aadCfg)

	case config.ProviderAPIKey:
		if deps.Redis == nil {
			return nil, errors.New("redis client is required")
		}
		store := apikey.NewStore(apikey.StoreOptions{
			Client: deps.Redis,
			Prefix: cfg.APIKey.Prefix,
			Secret: cfg.APIKey.Secret,
		})
		return apikey.NewProvider(store), nil

	case config.ProviderDevOps:
		hc := deps.HTTPClient
		if hc == nil {
			hc = &http.Client{Timeout: cfg.DevOps.Timeout}
		}
		return devops.NewProvider(devops.ProviderConfig{
			ProfileURL: cfg.DevOps.ProfileURL,
			Expressions: devops.Expressions{
				Principal:     cfg.DevOps.PrincipalExpr,
				Scopes:        cfg.DevOps.ScopesExpr,
				Organizations: cfg.DevOps.OrganizationsExpr,
			},
			HTTPClient: hc,
		})

	case config.ProviderDevAuth:
		return devauth.NewProvider(devauth.Config{
			Principal:     cfg.DevAuth.Principal,
			Scopes:        cfg.DevAuth.Scopes,
			Organizations: cfg.DevAuth.Organizations,
			Admin:         cfg.DevAuth.Admin,
		})

	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

// BuildRouteAuth builds one authenticator per route group from the provider set.
func BuildRouteAuth(set *ProviderSet, logger *slog.Logger, m *metrics.Recorder) httpx.RouteAuth {
	newAuth := func(names []config.ProviderName) *service.Authenticator {
		return service.NewAuthenticator(service.AuthenticatorOptions{
			Providers: set.Subset(names...),
			Logger:    logger,
			Metrics:   m,
		})
	}
	return httpx.RouteAuth{
		API:    newAuth(apiProviders),
		Client: newAuth(clientProviders),
		Admin:  newAuth(adminProviders),
	}
}
