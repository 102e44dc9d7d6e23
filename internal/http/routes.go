package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/target/repo-gateway/internal/domain/auth"
	"github.com/target/repo-gateway/internal/domain/repo"
)

// RouteAuth holds the authenticator for each route group. Each authenticator is built
// from its own ordered provider subset.
type RouteAuth struct {
	API    Authenticator // versioned API routes
	Client Authenticator // /client routes
	Admin  Authenticator // /admin routes
}

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth      RouteAuth
	Repos     *RepoHandlers
	Admin     *AdminHandlers
	Resolver  OrganizationResolver
	AdminGate AdminChecker
	// Optional: Prometheus handler served at /metrics.
	Metrics http.Handler
	// Optional: gzip responses when set.
	Compression *CompressionConfig
	Logger      *slog.Logger
}

// NewRouter creates and configures the gateway router with its middleware stack.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	registerRepoRoutes(mux, services)
	registerAdminRoutes(mux, services)
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	if services.Metrics != nil {
		mux.Handle("GET /metrics", services.Metrics)
	}

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mws := []func(http.Handler) http.Handler{
		CorrelationID(),
		Logging(logger),
		Recover(logger),
	}
	if services.Compression != nil {
		mws = append(mws, Compression(*services.Compression))
	}
	return Chain(&notFoundHandler{mux: mux}, mws...)
}

func registerRepoRoutes(mux *http.ServeMux, s RouterServices) {
	if s.Repos == nil {
		return
	}
	if s.Auth.API != nil {
		mux.Handle("POST /{org}/repos", Chain(
			s.Repos.Create(repo.EntrypointAPI),
			APIVersion(),
			Authenticate(s.Auth.API),
			RequireScope(domainauth.ScopeRepoCreate),
			ResolveOrganization(s.Resolver),
		))
		mux.Handle("GET /{org}/repos/{repo}/collaborators", Chain(
			http.HandlerFunc(s.Repos.ListCollaborators),
			APIVersion(),
			Authenticate(s.Auth.API),
			ResolveOrganization(s.Resolver),
		))
	}
	if s.Auth.Client != nil {
		mux.Handle("POST /client/{org}/repos", Chain(
			s.Repos.Create(repo.EntrypointClient),
			APIVersion(),
			Authenticate(s.Auth.Client),
			RequireScope(domainauth.ScopeRepoCreate),
			ResolveOrganization(s.Resolver),
		))
	}
}

func registerAdminRoutes(mux *http.ServeMux, s RouterServices) {
	if s.Admin == nil || s.Auth.Admin == nil || s.AdminGate == nil {
		return
	}
	mux.Handle("GET /admin/organizations", Chain(
		http.HandlerFunc(s.Admin.ListOrganizations),
		Authenticate(s.Auth.Admin),
		RequireAdmin(s.AdminGate),
	))
}

// notFoundHandler answers unmatched routes, including method mismatches, with a JSON 404.
type notFoundHandler struct {
	mux *http.ServeMux
}

func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, pattern := h.mux.Handler(r); pattern == "" {
		notFound(w, r)
		return
	}
	h.mux.ServeHTTP(w, r)
}
