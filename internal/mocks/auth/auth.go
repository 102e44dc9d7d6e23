package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"net/http"
	"sync"

	domainauth "github.com/target/repo-gateway/internal/domain/auth"
	"github.com/target/repo-gateway/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider  = (*MockAuthProvider)(nil)
	_ ports.AdminLookup   = (*StaticAdminLookup)(nil)
	_ ports.TelemetrySink = (*RecordingSink)(nil)
	_ domainauth.Identity = (*StaticIdentity)(nil)
)

// ErrNoCredentials is returned by MockAuthProvider when configured to fail without AttemptFunc.
var ErrNoCredentials = errors.New("no credentials")

// MockAuthProvider is a configurable AuthProvider that records how often it was attempted.
type MockAuthProvider struct {
	ProviderName string
	AttemptFunc  func(ctx context.Context, r *http.Request) (domainauth.Identity, error)

	// Identity is returned when AttemptFunc is nil and Fail is false.
	Identity domainauth.Identity
	Fail     bool

	mu    sync.Mutex
	calls int
}

// NewSucceedingProvider returns a provider that always yields identity.
func NewSucceedingProvider(name string, identity domainauth.Identity) *MockAuthProvider {
	return &MockAuthProvider{ProviderName: name, Identity: identity}
}

// NewFailingProvider returns a provider that always fails with ErrNoCredentials.
func NewFailingProvider(name string) *MockAuthProvider {
	return &MockAuthProvider{ProviderName: name, Fail: true}
}

func (m *MockAuthProvider) Name() string { return m.ProviderName }

func (m *MockAuthProvider) Attempt(ctx context.Context, r *http.Request) (domainauth.Identity, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.AttemptFunc != nil {
		return m.AttemptFunc(ctx, r)
	}
	if m.Fail {
		return nil, ErrNoCredentials
	}
	return m.Identity, nil
}

// Calls returns how many times Attempt was invoked.
func (m *MockAuthProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// StaticIdentity is an Identity with fixed answers.
type StaticIdentity struct {
	domainauth.BaseIdentity
	Admin    bool
	AdminErr error
}

// NewStaticIdentity builds an identity with scopes and optional org grants.
// A nil orgs slice means the identity has no organization-scope configuration.
func NewStaticIdentity(id string, scopes []string, orgs []string) *StaticIdentity {
	p := domainauth.BaseIdentity{ID: id, Source: "static", Granted: scopes}
	if orgs != nil {
		p.Orgs = domainauth.ParseOrgScopes(orgs)
		p.OrgsKnown = true
	}
	return &StaticIdentity{BaseIdentity: p}
}

func (s *StaticIdentity) IsAdministrator(context.Context) (bool, error) {
	return s.Admin, s.AdminErr
}

// StaticAdminLookup answers IsAdmin from a fixed set.
type StaticAdminLookup struct {
	Admins map[string]bool
	Err    error
}

func (s StaticAdminLookup) IsAdmin(_ context.Context, principal string) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	return s.Admins[principal], nil
}

// TrackedEvent is one event captured by RecordingSink.
type TrackedEvent struct {
	Name       string
	Properties map[string]string
}

// RecordingSink captures telemetry events for assertions.
type RecordingSink struct {
	mu     sync.Mutex
	events []TrackedEvent
}

func (s *RecordingSink) TrackEvent(name string, properties map[string]string) {
	cp := make(map[string]string, len(properties))
	for k, v := range properties {
		cp[k] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, TrackedEvent{Name: name, Properties: cp})
}

// Events returns a copy of the captured events.
func (s *RecordingSink) Events() []TrackedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TrackedEvent(nil), s.events...)
}

// Find returns the first event with the given name.
func (s *RecordingSink) Find(name string) (TrackedEvent, bool) {
	for _, e := range s.Events() {
		if e.Name == name {
			return e, true
		}
	}
	return TrackedEvent{}, false
}
