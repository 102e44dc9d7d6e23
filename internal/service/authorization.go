package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	domainauth "github.com/target/repo-gateway/internal/domain/auth"
	"github.com/target/repo-gateway/internal/domain/repo"
	apperrors "github.com/target/repo-gateway/internal/errors"
	"github.com/target/repo-gateway/internal/observability/metrics"
	"github.com/target/repo-gateway/internal/ports"
)

// RequireAnyScope succeeds when identity holds at least one of the required scopes.
func RequireAnyScope(identity domainauth.Identity, required ...string) error {
	if identity == nil {
		return apperrors.ForbiddenScope("no authenticated identity")
	}
	granted := identity.Scopes()
	for _, want := range required {
		for _, have := range granted {
			if strings.EqualFold(want, have) {
				return nil
			}
		}
	}
	return apperrors.ForbiddenScope(fmt.Sprintf(
		"not authorized for this operation; requires one of: %s", strings.Join(required, ", ")))
}

// OrganizationResolver checks organization grants and resolves names through a directory.
type OrganizationResolver struct {
	directory ports.OrganizationDirectory
}

// NewOrganizationResolver constructs an OrganizationResolver.
func NewOrganizationResolver(directory ports.OrganizationDirectory) *OrganizationResolver {
	return &OrganizationResolver{directory: directory}
}

// Resolve returns the organization handle for name if identity may act on it.
func (o *OrganizationResolver) Resolve(
	ctx context.Context,
	identity domainauth.Identity,
	name string,
) (repo.Organization, error) {
	if identity == nil {
		return repo.Organization{}, apperrors.OrganizationNotAuthorized("no authenticated identity")
	}
	grants, configured := identity.OrganizationScopes()
	if !configured {
		return repo.Organization{}, apperrors.MisconfiguredKey(
			"the credential is not configured with organization scopes")
	}
	if !grants.Allows(name) {
		return repo.Organization{}, apperrors.OrganizationNotAuthorized(
			fmt.Sprintf("not authorized for organization %q", name))
	}

	org, err := o.directory.Resolve(ctx, name)
	if err != nil {
		return repo.Organization{}, apperrors.Wrapf(err, apperrors.ErrCodeBadRequest, "unknown organization %q", name)
	}
	return org, nil
}

// AdminDeniedMessage is the only message returned when the admin gate denies a request.
const AdminDeniedMessage = "you do not have permission to access this resource"

// AdminGate allows administrators and denies everyone else with one fixed error.
type AdminGate struct {
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// NewAdminGate constructs an AdminGate.
func NewAdminGate(logger *slog.Logger, m *metrics.Recorder) *AdminGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminGate{logger: logger, metrics: m}
}

// Check returns nil for administrators. A false answer and a failed check produce the
// same error so callers cannot tell them apart.
func (g *AdminGate) Check(ctx context.Context, identity domainauth.Identity) error {
	if identity != nil {
		ok, err := identity.IsAdministrator(ctx)
		if err == nil && ok {
			g.metrics.AdminCheck(metrics.ResultSuccess)
			return nil
		}
		if err != nil {
			g.logger.DebugContext(ctx, "administrator check failed",
				"principal", identity.Principal(), "provider", identity.Provider(), "error", err)
		}
	}
	g.metrics.AdminCheck(metrics.ResultDenied)
	return apperrors.Forbidden(AdminDeniedMessage)
}
