// Package apiversion holds the api-version allow-list and its validation rules.
package apiversion

import (
	"fmt"
	"strings"

	apperrors "github.com/target/repo-gateway/internal/errors"
)

// Retired is the historical preview version that is no longer accepted.
const Retired = "2016-09-22_Preview"

// ClientPathPrefix marks organization-internal client routes, which skip version checks.
const ClientPathPrefix = "/client"

// supported is ordered newest first; index 0 is the recommended version.
//
//nolint:gochecknoglobals // init-only allow-list, never mutated
var supported = []string{
	"2019-10-01",
	"2019-02-01",
	"2017-09-01",
	"2017-03-08",
	"2016-12-01",
}

// Supported returns a copy of the allow-list, current version first.
func Supported() []string {
	return append([]string(nil), supported...)
}

// Current returns the recommended api-version.
func Current() string {
	return supported[0]
}

// IsClientPath reports whether the path belongs to the client subtree.
func IsClientPath(path string) bool {
	return path == ClientPathPrefix || strings.HasPrefix(path, ClientPathPrefix+"/")
}

// Validate checks a caller-supplied version and returns its canonical form.
func Validate(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", apperrors.MissingVersion(
			"an api-version query parameter or header is required; the current version is " + Current())
	}
	if strings.EqualFold(v, Retired) {
		return "", apperrors.RetiredVersion(fmt.Sprintf(
			"api-version %s is no longer supported, use %s instead", Retired, Current()))
	}
	for _, s := range supported {
		if strings.EqualFold(v, s) {
			return s, nil
		}
	}
	return "", apperrors.UnsupportedVersion(fmt.Sprintf(
		"api-version %q is not supported; supported versions are %s", v, strings.Join(supported, ", ")))
}
