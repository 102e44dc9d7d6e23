// Package directory provides OrganizationDirectory implementations.
package directory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/target/repo-gateway/internal/domain/repo"
	apperrors "github.com/target/repo-gateway/internal/errors"
	"github.com/target/repo-gateway/internal/ports"
)

// Static is an in-memory directory built from configuration.
type Static struct {
	byName map[string]repo.Organization
}

var _ ports.OrganizationDirectory = (*Static)(nil)

// NewStatic parses entries of the form "name" or "name:id".
func NewStatic(entries []string) (*Static, error) {
	s := &Static{byName: make(map[string]repo.Organization, len(entries))}
	for _, e := range entries {
		name, id, _ := strings.Cut(strings.TrimSpace(e), ":")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := s.byName[key]; dup {
			return nil, fmt.Errorf("duplicate organization %q", name)
		}
		s.byName[key] = repo.Organization{Name: name, ID: strings.TrimSpace(id)}
	}
	return s, nil
}

// Resolve looks up name case-insensitively and returns the configured spelling.
func (s *Static) Resolve(_ context.Context, name string) (repo.Organization, error) {
	org, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return repo.Organization{}, apperrors.NotFoundf("organization %q not found", name)
	}
	return org, nil
}

// List returns the organizations ordered by name.
func (s *Static) List(context.Context) ([]repo.Organization, error) {
	out := make([]repo.Organization, 0, len(s.byName))
	for _, org := range s.byName {
		out = append(out, org)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}
