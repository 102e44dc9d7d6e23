// Package repo contains domain types for repository creation and collaborator projections.
package repo

import (
	"strings"
)

// Entrypoint identifies which caller-facing surface invoked the shared creation operation.
type Entrypoint string

const (
	// EntrypointAPI marks calls made through the versioned REST API.
	EntrypointAPI Entrypoint = "api"
	// EntrypointClient marks calls made by the organization client (UI) routes.
	EntrypointClient Entrypoint = "client"
)

// Sensitive payload keys that must never reach the downstream call or telemetry.
const (
	KeyAccessToken   = "access_token"
	KeyAuthorization = "authorization"
)

// credentialKeys are the caller credentials that arrive as headers and are merged into the
// payload: the sensitive keys plus every header an auth provider reads a secret from.
var credentialKeys = map[string]struct{}{
	KeyAccessToken:              {},
	KeyAuthorization:            {},
	"proxy-authorization":       {},
	"cookie":                    {},
	"x-api-key":                 {},
	"ocp-apim-subscription-key": {},
	"x-devops-token":            {},
}

// Organization is a resolved organization handle.
type Organization struct {
	Name string `json:"name"`
	// ID is the directory identifier; empty for directories that only know names.
	ID string `json:"id,omitempty"`
}

// Payload is the merged caller-supplied header and body map.
type Payload map[string]any

// MergePayload merges headers first and body second, so body keys win on conflict.
func MergePayload(headers map[string]string, body map[string]any) Payload {
	out := make(Payload, len(headers)+len(body))
	for k, v := range headers {
		out[k] = v
	}
	for k, v := range body {
		out[k] = v
	}
	return out
}

// IsSensitiveKey reports whether key names a credential field (case-insensitive).
func IsSensitiveKey(key string) bool {
	_, ok := credentialKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// Sanitize deletes the credential fields in place and returns the payload.
func (p Payload) Sanitize() Payload {
	for k := range p {
		if IsSensitiveKey(k) {
			delete(p, k)
		}
	}
	return p
}

// Clone returns a shallow copy.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Result is the downstream success payload, returned verbatim to the caller.
type Result map[string]any
