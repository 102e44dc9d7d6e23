package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/target/repo-gateway/internal/errors"
)

// CorrelationIDHeader carries the per-request correlation id in both directions.
const CorrelationIDHeader = "X-Correlation-Id"

// CorrelationID returns a middleware that assigns every request a correlation id. A
// well-formed inbound id is reused; anything else is replaced with a fresh UUID.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(CorrelationIDHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			w.Header().Set(CorrelationIDHeader, id)
			next.ServeHTTP(w, r.WithContext(SetCorrelationIDInContext(r.Context(), id)))
		})
	}
}

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}

			reqLogger := logger
			if id := CorrelationIDFromContext(r.Context()); id != "" {
				reqLogger = logger.With(slog.String("correlation_id", id))
			}
			ctx := context.WithValue(r.Context(), loggerKey{}, reqLogger)

			next.ServeHTTP(ww, r.WithContext(ctx))
			reqLogger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics, logs them and answers with a
// JSON 500.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic",
						slog.Any("error", rec),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					WriteAppError(w, r, apperrors.Internal("internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
