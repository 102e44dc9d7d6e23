package ports

import (
	"context"
	"net/http"

	"github.com/target/repo-gateway/internal/domain/repo"
)

// OrganizationDirectory resolves organization names to handles.
type OrganizationDirectory interface {
	// Resolve returns the handle for name, or an error when the organization is unknown.
	Resolve(ctx context.Context, name string) (repo.Organization, error)

	// List returns every known organization.
	List(ctx context.Context) ([]repo.Organization, error)
}

// CustomizationHook is a deployment-specific plugin that builds extra context for creation.
// The returned value is opaque to the gateway and forwarded unchanged.
type CustomizationHook interface {
	CreateContext(ctx context.Context, r *http.Request) (any, error)
}

// CreateInput carries everything the downstream creation operation receives.
type CreateInput struct {
	Request       *http.Request
	Organization  repo.Organization
	Hook          CustomizationHook
	CustomContext any
	Payload       repo.Payload
	Entrypoint    repo.Entrypoint
}

// RepoCreator is the downstream repository creation operation.
type RepoCreator interface {
	Create(ctx context.Context, in CreateInput) (repo.Result, error)
}

// TelemetrySink records named events. Implementations must not block or panic.
type TelemetrySink interface {
	TrackEvent(name string, properties map[string]string)
}

// CollaboratorLister reads the collaborators of an upstream repository.
type CollaboratorLister interface {
	ListCollaborators(ctx context.Context, org repo.Organization, name string) ([]repo.RawCollaborator, error)
}
