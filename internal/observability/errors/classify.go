// Package errors turns arbitrary errors into low-cardinality class names for metrics and telemetry.
package errors

import (
	"context"
	goerrors "errors"
	"net"
	"reflect"
	"strings"

	apperrors "github.com/target/repo-gateway/internal/errors"
)

// Stable classes for failures that do not carry an application code.
const (
	ClassCanceled = "canceled"
	ClassTimeout  = "timeout"
	ClassNetwork  = "network"
	ClassUnknown  = "unknown"
)

// Classify returns a normalized error class.
// Application errors classify as app_<code>. Cancellation, timeouts and network failures get
// fixed classes; anything else is named after the innermost concrete type.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if code := apperrors.GetCode(err); code != "" {
		return "app_" + string(code)
	}

	switch {
	case goerrors.Is(err, context.Canceled):
		return ClassCanceled
	case goerrors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	}
	var netErr net.Error
	if goerrors.As(err, &netErr) {
		if netErr.Timeout() {
			return ClassTimeout
		}
		return ClassNetwork
	}

	return typeClass(innermost(err))
}

func innermost(err error) error {
	for {
		next := goerrors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func typeClass(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.String() == "" {
		return ClassUnknown
	}
	return strings.ReplaceAll(strings.ToLower(t.String()), ".", "_")
}
