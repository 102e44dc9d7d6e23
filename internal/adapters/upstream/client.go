// Package upstream talks to the repository hosting REST API that actually creates repositories.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/target/repo-gateway/internal/domain/repo"
	apperrors "github.com/target/repo-gateway/internal/errors"
	"github.com/target/repo-gateway/internal/ports"
)

const maxResponseBytes = 4 << 20

// PayloadDefaults is implemented by custom contexts that contribute default repository settings.
// Caller-supplied payload keys always win over defaults.
type PayloadDefaults interface {
	PayloadDefaults() map[string]any
}

// Credentials selects how the client authenticates upstream.
// A static Token wins; otherwise client credentials are used when ClientID is set.
type Credentials struct {
	Token        string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

// ClientConfig configures the upstream client.
type ClientConfig struct {
	BaseURL     string
	Credentials Credentials
	Timeout     time.Duration // defaults to 30s
}

// Client implements ports.RepoCreator and ports.CollaboratorLister over HTTP.
type Client struct {
	base *url.URL
	http *http.Client
}

var (
	_ ports.RepoCreator        = (*Client)(nil)
	_ ports.CollaboratorLister = (*Client)(nil)
)

// NewClient builds an authenticated upstream client.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("upstream base URL is required")
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse upstream base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("upstream base URL must be http(s), got %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})

	var ts oauth2.TokenSource
	creds := cfg.Credentials
	switch {
	case creds.Token != "":
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.Token})
	case creds.ClientID != "":
		if creds.TokenURL == "" {
			return nil, errors.New("upstream token URL is required for client credentials")
		}
		cc := &clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     creds.TokenURL,
			Scopes:       creds.Scopes,
		}
		ts = cc.TokenSource(ctx)
	default:
		return nil, errors.New("upstream credentials are required")
	}

	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = timeout
	return &Client{base: base, http: hc}, nil
}

// Create posts the payload, layered over any custom context defaults, to the organization's repos.
func (c *Client) Create(ctx context.Context, in ports.CreateInput) (repo.Result, error) {
	if in.Organization.Name == "" {
		return nil, apperrors.BadRequest("organization is required")
	}

	body := make(map[string]any, len(in.Payload))
	if d, ok := in.CustomContext.(PayloadDefaults); ok {
		for k, v := range d.PayloadDefaults() {
			body[k] = v
		}
	}
	for k, v := range in.Payload {
		body[k] = v
	}
	// Credentials never leave the gateway even if a caller bypassed sanitizing.
	for k := range body {
		if repo.IsSensitiveKey(k) {
			delete(body, k)
		}
	}

	var out repo.Result
	if err := c.do(ctx, http.MethodPost, c.endpoint("orgs", in.Organization.Name, "repos"), body, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = repo.Result{}
	}
	return out, nil
}

// ListCollaborators returns the raw collaborators of org/name.
func (c *Client) ListCollaborators(ctx context.Context, org repo.Organization, name string) ([]repo.RawCollaborator, error) {
	if org.Name == "" || strings.TrimSpace(name) == "" {
		return nil, apperrors.BadRequest("organization and repository are required")
	}
	var out []repo.RawCollaborator
	if err := c.do(ctx, http.MethodGet, c.endpoint("repos", org.Name, name, "collaborators"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) endpoint(segments ...string) string {
	return c.base.JoinPath(segments...).String()
}

func (c *Client) do(ctx context.Context, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal upstream request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return badGateway("upstream request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return badGateway("read upstream response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, data)
	}
	if len(bytes.TrimSpace(data)) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return badGateway("decode upstream response", err)
	}
	return nil
}

func badGateway(msg string, cause error) error {
	e := apperrors.Downstream(http.StatusBadGateway, msg)
	e.Cause = cause
	return e
}

type errorDocument struct {
	Message string `json:"message"`
}

func statusError(status int, data []byte) error {
	var doc errorDocument
	msg := ""
	if json.Unmarshal(data, &doc) == nil {
		msg = strings.TrimSpace(doc.Message)
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	if status < 400 || status > 599 {
		return apperrors.Downstream(http.StatusBadGateway, fmt.Sprintf("upstream returned status %d", status))
	}
	return apperrors.Downstream(status, msg)
}
