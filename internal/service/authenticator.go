package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/target/repo-gateway/internal/domain/auth"
	apperrors "github.com/target/repo-gateway/internal/errors"
	"github.com/target/repo-gateway/internal/observability/metrics"
	"github.com/target/repo-gateway/internal/ports"
)

var errNoIdentity = errors.New("provider returned no identity")

// AuthenticatorOptions groups dependencies for Authenticator.
type AuthenticatorOptions struct {
	// Providers are attempted in order. The slice is copied.
	Providers []ports.AuthProvider
	Logger    *slog.Logger
	Metrics   *metrics.Recorder
}

// Authenticator tries an ordered list of providers and yields the first identity.
// It is immutable after construction and safe for concurrent use.
type Authenticator struct {
	providers []ports.AuthProvider
	logger    *slog.Logger
	metrics   *metrics.Recorder
}

// NewAuthenticator constructs an Authenticator over a fixed provider list.
func NewAuthenticator(opts AuthenticatorOptions) *Authenticator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	providers := make([]ports.AuthProvider, 0, len(opts.Providers))
	for _, p := range opts.Providers {
		if p != nil {
			providers = append(providers, p)
		}
	}
	return &Authenticator{
		providers: providers,
		logger:    logger,
		metrics:   opts.Metrics,
	}
}

// ProviderNames returns the configured provider names in attempt order.
func (a *Authenticator) ProviderNames() []string {
	names := make([]string, 0, len(a.providers))
	for _, p := range a.providers {
		names = append(names, p.Name())
	}
	return names
}

// Authenticate attempts each provider in order. The first success wins and later
// providers are never attempted. When all fail, the returned error carries one
// ProviderFailure per attempted provider, in order.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) (domainauth.Identity, error) {
	failures := make([]domainauth.ProviderFailure, 0, len(a.providers))

	for _, p := range a.providers {
		identity, err := p.Attempt(ctx, r)
		if err == nil && identity == nil {
			err = errNoIdentity
		}
		if err != nil {
			failures = append(failures, domainauth.ProviderFailure{Provider: p.Name(), Err: err})
			a.metrics.AuthAttempt(p.Name(), metrics.ResultError)
			continue
		}

		a.metrics.AuthAttempt(p.Name(), metrics.ResultSuccess)
		return identity, nil
	}

	attrs := make([]any, 0, len(failures)+1)
	attrs = append(attrs, slog.String("path", r.URL.Path))
	for _, f := range failures {
		attrs = append(attrs, slog.String("provider."+f.Provider, errString(f.Err)))
	}
	a.logger.InfoContext(ctx, "authentication failed", attrs...)

	return nil, apperrors.AuthenticationFailed("authentication failed", failures)
}

// FailuresOf extracts the per-provider failures from an Authenticate error.
func FailuresOf(err error) []domainauth.ProviderFailure {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return nil
	}
	failures, _ := appErr.Details.([]domainauth.ProviderFailure)
	return failures
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
