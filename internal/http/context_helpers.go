package httpx

import (
	"context"

	domainauth "github.com/target/repo-gateway/internal/domain/auth"
	"github.com/target/repo-gateway/internal/domain/repo"
)

// Unexported context key types avoid collisions across packages.
// Centralized in this file so all handlers and middleware use the same keys.
type (
	identityKey      struct{}
	apiVersionKey    struct{}
	organizationKey  struct{}
	correlationIDKey struct{}
)

// SetIdentityInContext returns a child context carrying identity.
// If identity is nil, the original ctx is returned unchanged.
func SetIdentityInContext(ctx context.Context, identity domainauth.Identity) context.Context {
	if identity == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the authenticated identity and whether one is present.
func IdentityFromContext(ctx context.Context) (domainauth.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(domainauth.Identity)
	return identity, ok && identity != nil
}

// SetAPIVersionInContext returns a child context carrying the validated api-version.
func SetAPIVersionInContext(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, apiVersionKey{}, version)
}

// APIVersionFromContext returns the validated api-version, or "" for exempt routes.
func APIVersionFromContext(ctx context.Context) string {
	v, _ := ctx.Value(apiVersionKey{}).(string)
	return v
}

// SetOrganizationInContext returns a child context carrying the resolved organization.
func SetOrganizationInContext(ctx context.Context, org repo.Organization) context.Context {
	return context.WithValue(ctx, organizationKey{}, org)
}

// OrganizationFromContext returns the resolved organization and whether one is present.
func OrganizationFromContext(ctx context.Context) (repo.Organization, bool) {
	org, ok := ctx.Value(organizationKey{}).(repo.Organization)
	return org, ok
}

// SetCorrelationIDInContext returns a child context carrying the request correlation id.
func SetCorrelationIDInContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext returns the request correlation id, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}
