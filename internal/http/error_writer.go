package httpx

import (
	"net/http"

	"github.com/target/repo-gateway/internal/domain/apiversion"
	apperrors "github.com/target/repo-gateway/internal/errors"
)

const misconfiguredKeyHint = "ask an administrator to grant organization scopes to this credential"

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error             string   `json:"error"`
	Message           string   `json:"message"`
	SupportedVersions []string `json:"supported_versions,omitempty"`
	CurrentVersion    string   `json:"current_version,omitempty"`
	Hint              string   `json:"hint,omitempty"`
}

// ErrorResponse maps err to its status and body. It has no side effects, so calling it
// repeatedly with the same error yields the same result.
func ErrorResponse(err error) (int, ErrorBody) {
	status := apperrors.HTTPStatus(err)
	code := apperrors.Code(err)
	body := ErrorBody{
		Error:   string(code),
		Message: errorMessage(err),
	}

	// Extra fields follow the code, not the status: a downstream 422 says nothing about versions.
	switch code {
	case apperrors.ErrCodeMissingVersion, apperrors.ErrCodeRetiredVersion, apperrors.ErrCodeUnsupportedVersion:
		body.SupportedVersions = apiversion.Supported()
		body.CurrentVersion = apiversion.Current()
	case apperrors.ErrCodeMisconfiguredKey:
		body.Hint = misconfiguredKeyHint
	}
	return status, body
}

// WriteAppError is the terminal stage for a failed request. It writes exactly one JSON
// error response.
func WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := ErrorResponse(err)
	if status >= http.StatusInternalServerError {
		loggerFrom(r).ErrorContext(r.Context(), "request failed",
			"status", status,
			"path", r.URL.Path,
			"correlation_id", CorrelationIDFromContext(r.Context()),
			"error", err)
	}
	WriteJSON(w, status, body)
}

// errorMessage returns the caller-facing message. Tagged errors expose only their
// message, never the wrapped cause; untagged errors expose their own text.
func errorMessage(err error) string {
	if appErr, ok := asAppError(err); ok {
		if appErr.Message != "" {
			return appErr.Message
		}
		return http.StatusText(appErr.StatusCode())
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return http.StatusText(http.StatusInternalServerError)
}
