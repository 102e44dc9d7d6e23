package authroles

import (
	"context"
	"strings"
)

// StaticAdminMapper decides administrator membership by simple string rules.
// A principal is an administrator when it belongs to AdminGroup or is listed in Principals.
type StaticAdminMapper struct {
	AdminGroup string
	Principals []string
}

// IsAdminGroupMember reports whether groups contain the admin group (case-insensitive).
func (m StaticAdminMapper) IsAdminGroupMember(groups []string) bool {
	if m.AdminGroup == "" {
		return false
	}
	for _, g := range groups {
		if strings.EqualFold(g, m.AdminGroup) {
			return true
		}
	}
	return false
}

// IsAdmin implements ports.AdminLookup over the configured principal list.
func (m StaticAdminMapper) IsAdmin(_ context.Context, principal string) (bool, error) {
	for _, p := range m.Principals {
		if p != "" && strings.EqualFold(p, principal) {
			return true, nil
		}
	}
	return false, nil
}
