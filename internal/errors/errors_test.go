package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

type upstreamErr struct{ status int }

func (e upstreamErr) Error() string   { return fmt.Sprintf("upstream returned %d", e.status) }
func (e upstreamErr) StatusCode() int { return e.status }

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeNotFound,
				Message: "resource not found",
			},
			want: "resource not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeBadRequest,
				Message: "unknown organization",
				Cause:   errors.New("lookup failed"),
			},
			want: "unknown organization: lookup failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, ErrCodeBadRequest, "wrapped error")

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(wrapped, cause) = false, want true")
	}
}

func TestWrap_NilError(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "wrapped error"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "missing version", err: MissingVersion("x"), want: http.StatusUnprocessableEntity},
		{name: "retired version", err: RetiredVersion("x"), want: http.StatusUnprocessableEntity},
		{name: "unsupported version", err: UnsupportedVersion("x"), want: http.StatusUnprocessableEntity},
		{name: "authentication failed", err: AuthenticationFailed("x", nil), want: http.StatusUnauthorized},
		{name: "forbidden scope", err: ForbiddenScope("x"), want: http.StatusUnauthorized},
		{name: "org not authorized", err: OrganizationNotAuthorized("x"), want: http.StatusUnauthorized},
		{name: "misconfigured key", err: MisconfiguredKey("x"), want: http.StatusPreconditionFailed},
		{name: "bad request", err: BadRequest("x"), want: http.StatusBadRequest},
		{name: "not found", err: NotFound("x"), want: http.StatusNotFound},
		{name: "forbidden", err: Forbidden("x"), want: http.StatusForbidden},
		{name: "downstream with status", err: Downstream(http.StatusConflict, "x"), want: http.StatusConflict},
		{name: "downstream without status", err: Downstream(0, "x"), want: http.StatusInternalServerError},
		{name: "wrapped app error", err: fmt.Errorf("ctx: %w", BadRequest("x")), want: http.StatusBadRequest},
		{name: "status coder", err: upstreamErr{status: http.StatusUnprocessableEntity}, want: http.StatusUnprocessableEntity},
		{name: "status coder out of range", err: upstreamErr{status: 200}, want: http.StatusInternalServerError},
		{name: "untagged", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCode(t *testing.T) {
	if got := Code(errors.New("plain")); got != ErrCodeInternal {
		t.Errorf("Code(plain) = %v, want %v", got, ErrCodeInternal)
	}
	if got := Code(fmt.Errorf("wrap: %w", ForbiddenScope("no"))); got != ErrCodeForbiddenScope {
		t.Errorf("Code(wrapped) = %v, want %v", got, ErrCodeForbiddenScope)
	}
}

func TestIsHelpers(t *testing.T) {
	tests := []struct {
		name string
		fn   func(error) bool
		err  error
		want bool
	}{
		{name: "not found", fn: IsNotFound, err: NotFound("x"), want: true},
		{name: "not found other", fn: IsNotFound, err: BadRequest("x"), want: false},
		{name: "auth failed", fn: IsAuthenticationFailed, err: AuthenticationFailed("x", nil), want: true},
		{name: "forbidden", fn: IsForbidden, err: Forbidden("x"), want: true},
		{name: "nil", fn: IsForbidden, err: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.err); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetField(t *testing.T) {
	if got := GetField(ValidationField("name", "required")); got != "name" {
		t.Errorf("GetField() = %q, want %q", got, "name")
	}
	if got := GetField(errors.New("x")); got != "" {
		t.Errorf("GetField(plain) = %q, want empty", got)
	}
}
