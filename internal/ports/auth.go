package ports

// Package ports defines interfaces (hexagonal ports) consumed by the gateway core.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"net/http"

	domainauth "github.com/target/repo-gateway/internal/domain/auth"
)

// AuthProvider attempts to authenticate one request against a single credential scheme.
// Attempt must not leave side effects behind when it fails.
type AuthProvider interface {
	// Name identifies the provider in failure details, logs, and metrics.
	Name() string

	// Attempt returns the identity for the request, or an error describing why the
	// credentials were missing or invalid.
	Attempt(ctx context.Context, r *http.Request) (domainauth.Identity, error)
}

// AdminLookup answers whether a principal is an administrator.
// Identity implementations delegate IsAdministrator to it.
type AdminLookup interface {
	IsAdmin(ctx context.Context, principal string) (bool, error)
}
