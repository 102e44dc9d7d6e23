package httpx

import (
	"context"
	"net/http"

	"github.com/target/repo-gateway/internal/domain/apiversion"
	domainauth "github.com/target/repo-gateway/internal/domain/auth"
	"github.com/target/repo-gateway/internal/domain/repo"
	apperrors "github.com/target/repo-gateway/internal/errors"
	"github.com/target/repo-gateway/internal/service"
)

// APIVersionParam is both the query parameter and the header carrying the API version.
const APIVersionParam = "api-version"

// Authenticator yields the identity for a request.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (domainauth.Identity, error)
}

// OrganizationResolver resolves the path organization for an identity.
type OrganizationResolver interface {
	Resolve(ctx context.Context, identity domainauth.Identity, name string) (repo.Organization, error)
}

// AdminChecker decides whether an identity may use administrative routes.
type AdminChecker interface {
	Check(ctx context.Context, identity domainauth.Identity) error
}

// Chain applies middlewares so that the first one listed runs first.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// APIVersion validates the api-version query parameter or header. Client paths are exempt.
func APIVersion() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiversion.IsClientPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			raw := r.URL.Query().Get(APIVersionParam)
			if raw == "" {
				raw = r.Header.Get(APIVersionParam)
			}
			version, err := apiversion.Validate(raw)
			if err != nil {
				WriteAppError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(SetAPIVersionInContext(r.Context(), version)))
		})
	}
}

// Authenticate stores the identity produced by auth in the request context.
func Authenticate(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := auth.Authenticate(r.Context(), r)
			if err != nil {
				WriteAppError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(SetIdentityInContext(r.Context(), identity)))
		})
	}
}

// RequireScope allows the request when the identity holds any of scopes.
// It must be composed after Authenticate.
func RequireScope(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := IdentityFromContext(r.Context())
			if err := service.RequireAnyScope(identity, scopes...); err != nil {
				WriteAppError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ResolveOrganization resolves the {org} path value and stores the handle in the context.
func ResolveOrganization(resolver OrganizationResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := IdentityFromContext(r.Context())
			org, err := resolver.Resolve(r.Context(), identity, r.PathValue("org"))
			if err != nil {
				WriteAppError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(SetOrganizationInContext(r.Context(), org)))
		})
	}
}

// RequireAdmin allows only identities that pass the administrative gate.
func RequireAdmin(gate AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := IdentityFromContext(r.Context())
			if err := gate.Check(r.Context(), identity); err != nil {
				WriteAppError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// notFound answers every unmatched route with a JSON 404.
func notFound(w http.ResponseWriter, r *http.Request) {
	WriteAppError(w, r, apperrors.NotFoundf("no route for %s %s", r.Method, r.URL.Path))
}
