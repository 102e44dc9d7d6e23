package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/target/repo-gateway/internal/errors"
)

func asAppError(err error) (*apperrors.AppError, bool) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// headerSnapshot flattens request headers into a lower-cased, single-value map.
// Repeated headers are joined with ", ".
func headerSnapshot(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vals := range h {
		out[strings.ToLower(k)] = strings.Join(vals, ", ")
	}
	return out
}

type loggerKey struct{}

// loggerFrom returns the request-scoped logger set by Logging, or the default logger.
func loggerFrom(r *http.Request) *slog.Logger {
	if l, ok := r.Context().Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
