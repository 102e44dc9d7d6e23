// Package customize builds deployment-specific repository defaults for creation requests.
package customize

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/target/repo-gateway/internal/ports"
)

// Visibility values accepted by the upstream API.
const (
	VisibilityPrivate  = "private"
	VisibilityInternal = "internal"
	VisibilityPublic   = "public"
)

// Config holds the defaults applied to every created repository.
type Config struct {
	Visibility        string
	TeamID            string
	LicenseTemplate   string
	GitignoreTemplate string
	AutoInit          bool
}

// Context is the custom context handed to the creator. Its defaults sit under the caller's payload.
type Context struct {
	Requester string
	Defaults  Config
}

// PayloadDefaults returns the upstream fields implied by the configured defaults.
func (c Context) PayloadDefaults() map[string]any {
	d := c.Defaults
	out := map[string]any{}
	if d.Visibility != "" {
		out["visibility"] = d.Visibility
		out["private"] = d.Visibility != VisibilityPublic
	}
	if d.TeamID != "" {
		if id, err := strconv.ParseInt(d.TeamID, 10, 64); err == nil {
			out["team_id"] = id
		}
	}
	if d.LicenseTemplate != "" {
		out["license_template"] = d.LicenseTemplate
	}
	if d.GitignoreTemplate != "" {
		out["gitignore_template"] = d.GitignoreTemplate
	}
	if d.AutoInit {
		out["auto_init"] = true
	}
	return out
}

// RequesterFunc names the caller of a request, typically from the authenticated identity.
type RequesterFunc func(r *http.Request) string

// Hook implements ports.CustomizationHook from static configuration.
type Hook struct {
	defaults  Config
	requester RequesterFunc
}

var _ ports.CustomizationHook = (*Hook)(nil)

// NewHook validates cfg. requester may be nil.
func NewHook(cfg Config, requester RequesterFunc) (*Hook, error) {
	cfg.Visibility = strings.ToLower(strings.TrimSpace(cfg.Visibility))
	switch cfg.Visibility {
	case "", VisibilityPrivate, VisibilityInternal, VisibilityPublic:
	default:
		return nil, fmt.Errorf("invalid default visibility %q", cfg.Visibility)
	}
	cfg.TeamID = strings.TrimSpace(cfg.TeamID)
	if cfg.TeamID != "" {
		if _, err := strconv.ParseInt(cfg.TeamID, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid default team id %q: %w", cfg.TeamID, err)
		}
	}
	return &Hook{defaults: cfg, requester: requester}, nil
}

// CreateContext implements ports.CustomizationHook.
func (h *Hook) CreateContext(ctx context.Context, r *http.Request) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := Context{Defaults: h.defaults}
	if h.requester != nil && r != nil {
		c.Requester = h.requester(r)
	}
	return c, nil
}
