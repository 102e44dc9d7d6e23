package auth

// Package auth contains domain-level types for request identities.
// It is pure and free of framework/adapter concerns.

import (
	"context"
	"strings"
)

// Scope names checked by route groups.
const (
	ScopeRepoCreate = "repo/create"
	ScopeAdmin      = "admin"
)

// AllOrganizations is the organization-scope marker that grants every organization.
const AllOrganizations = "*"

// Provider names. They double as AUTH_PROVIDERS config values.
const (
	ProviderAAD     = "aad"
	ProviderAPIKey  = "apikey"
	ProviderDevOps  = "devops"
	ProviderDevAuth = "devauth"
)

// Identity is the authenticated principal for one request.
// Every provider returns its own implementation; all of them answer IsAdministrator,
// even when the answer is always false.
type Identity interface {
	// Principal is a stable identifier for the caller (user id, key owner, ...).
	Principal() string
	// Provider names the provider that authenticated the request.
	Provider() string
	// Scopes returns the granted scopes.
	Scopes() []string
	// OrganizationScopes returns the organization grants and whether any were configured.
	OrganizationScopes() (OrgScopes, bool)
	// IsAdministrator reports whether the principal may use administrative routes.
	IsAdministrator(ctx context.Context) (bool, error)
}

// OrgScopes lists the organizations an identity may act on.
type OrgScopes struct {
	All   bool
	Names []string
}

// ParseOrgScopes builds OrgScopes from raw grants; "*" anywhere grants all organizations.
func ParseOrgScopes(raw []string) OrgScopes {
	var out OrgScopes
	for _, r := range raw {
		name := strings.TrimSpace(r)
		switch name {
		case "":
			continue
		case AllOrganizations:
			out.All = true
		default:
			out.Names = append(out.Names, name)
		}
	}
	return out
}

// Allows reports whether the grants cover the organization (case-insensitive).
func (o OrgScopes) Allows(org string) bool {
	if o.All {
		return true
	}
	for _, n := range o.Names {
		if strings.EqualFold(n, org) {
			return true
		}
	}
	return false
}

// BaseIdentity is the provider-neutral part of an Identity.
// Provider identities embed it and add IsAdministrator.
type BaseIdentity struct {
	ID        string
	Source    string
	Granted   []string
	Orgs      OrgScopes
	OrgsKnown bool
}

// Principal implements Identity.
func (p BaseIdentity) Principal() string { return p.ID }

// Provider implements Identity.
func (p BaseIdentity) Provider() string { return p.Source }

// Scopes implements Identity.
func (p BaseIdentity) Scopes() []string { return append([]string(nil), p.Granted...) }

// OrganizationScopes implements Identity.
func (p BaseIdentity) OrganizationScopes() (OrgScopes, bool) { return p.Orgs, p.OrgsKnown }

// ProviderFailure records why one provider rejected a request.
type ProviderFailure struct {
	Provider string
	Err      error
}

func (f ProviderFailure) String() string {
	if f.Err == nil {
		return f.Provider + ": rejected"
	}
	return f.Provider + ": " + f.Err.Error()
}
