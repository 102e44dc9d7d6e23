package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DirectoryMode selects the organization directory backend.
type DirectoryMode string

const (
	// DirectoryModeStatic serves organizations listed in DIRECTORY_ORGANIZATIONS.
	DirectoryModeStatic DirectoryMode = "static"
	// DirectoryModePostgres serves organizations from the organizations table.
	DirectoryModePostgres DirectoryMode = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for DirectoryMode.
func (m *DirectoryMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "static", "postgres":
		*m = DirectoryMode(v)
		return nil
	default:
		return fmt.Errorf("invalid DirectoryMode: %q (valid options: static, postgres)", v)
	}
}

// DirectoryConfig configures organization lookup.
type DirectoryConfig struct {
	Mode DirectoryMode `env:"MODE" envDefault:"static"`
	// Organizations lists "name" or "name:id" entries for static mode.
	Organizations []string `env:"ORGANIZATIONS"`
	// CacheTTL controls how long resolved organizations stay in Redis. Zero disables the cache.
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

// Sanitize drops empty entries.
func (c *DirectoryConfig) Sanitize() {
	orgs := c.Organizations[:0]
	for _, o := range c.Organizations {
		if o = strings.TrimSpace(o); o != "" {
			orgs = append(orgs, o)
		}
	}
	c.Organizations = orgs
	if c.CacheTTL < 0 {
		c.CacheTTL = 0
	}
}

// Validate checks mode-specific requirements.
func (c *DirectoryConfig) Validate() error {
	if c.Mode == DirectoryModeStatic && len(c.Organizations) == 0 {
		return errors.New("DIRECTORY_ORGANIZATIONS is required in static directory mode")
	}
	return nil
}

// UpstreamConfig configures the repository hosting API that performs creation.
type UpstreamConfig struct {
	BaseURL string        `env:"BASE_URL"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"30s"`

	// Token is a static service token. When empty, client credentials are used.
	Token        string   `env:"TOKEN"`
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	TokenURL     string   `env:"TOKEN_URL"`
	Scopes       []string `env:"SCOPES"`
}

// Sanitize trims URLs and applies the default timeout.
func (c *UpstreamConfig) Sanitize() {
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.TokenURL = strings.TrimSpace(c.TokenURL)
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// CustomizationConfig configures the default repository settings hook.
type CustomizationConfig struct {
	Enabled           bool   `env:"ENABLED"            envDefault:"false"`
	Visibility        string `env:"VISIBILITY"         envDefault:"private"`
	TeamID            string `env:"TEAM_ID"`
	LicenseTemplate   string `env:"LICENSE_TEMPLATE"`
	GitignoreTemplate string `env:"GITIGNORE_TEMPLATE"`
	AutoInit          bool   `env:"AUTO_INIT"          envDefault:"false"`
}

// Validate checks the visibility value.
func (c *CustomizationConfig) Validate() error {
	switch strings.ToLower(c.Visibility) {
	case "", "public", "private", "internal":
		return nil
	default:
		return fmt.Errorf("invalid CUSTOMIZATION_VISIBILITY: %q (valid options: public, private, internal)", c.Visibility)
	}
}
