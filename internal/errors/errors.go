package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeMissingVersion indicates the request did not declare an api-version.
	ErrCodeMissingVersion ErrorCode = "missing_version"
	// ErrCodeRetiredVersion indicates the request declared the retired preview version.
	ErrCodeRetiredVersion ErrorCode = "retired_version"
	// ErrCodeUnsupportedVersion indicates the declared api-version is not in the allow-list.
	ErrCodeUnsupportedVersion ErrorCode = "unsupported_version"
	// ErrCodeAuthenticationFailed indicates every configured provider rejected the request.
	ErrCodeAuthenticationFailed ErrorCode = "authentication_failed"
	// ErrCodeForbiddenScope indicates the identity holds none of the required scopes.
	ErrCodeForbiddenScope ErrorCode = "forbidden_scope"
	// ErrCodeOrganizationNotAuthorized indicates the identity may not act on the organization.
	ErrCodeOrganizationNotAuthorized ErrorCode = "organization_not_authorized"
	// ErrCodeMisconfiguredKey indicates the identity has no organization scope configuration.
	ErrCodeMisconfiguredKey ErrorCode = "misconfigured_key"
	// ErrCodeBadRequest indicates malformed input, such as an unknown organization.
	ErrCodeBadRequest ErrorCode = "bad_request"
	// ErrCodeNotFound indicates a resource or route was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeForbidden indicates a privileged action was denied.
	ErrCodeForbidden ErrorCode = "forbidden"
	// ErrCodeDownstream indicates the downstream creation operation failed.
	ErrCodeDownstream ErrorCode = "downstream"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
)

//nolint:gochecknoglobals // static read-only lookup table
var codeStatus = map[ErrorCode]int{
	ErrCodeMissingVersion:            http.StatusUnprocessableEntity,
	ErrCodeRetiredVersion:            http.StatusUnprocessableEntity,
	ErrCodeUnsupportedVersion:        http.StatusUnprocessableEntity,
	ErrCodeAuthenticationFailed:      http.StatusUnauthorized,
	ErrCodeForbiddenScope:            http.StatusUnauthorized,
	ErrCodeOrganizationNotAuthorized: http.StatusUnauthorized,
	ErrCodeMisconfiguredKey:          http.StatusPreconditionFailed,
	ErrCodeBadRequest:                http.StatusBadRequest,
	ErrCodeNotFound:                  http.StatusNotFound,
	ErrCodeForbidden:                 http.StatusForbidden,
	ErrCodeValidation:                http.StatusBadRequest,
	ErrCodeInternal:                  http.StatusInternalServerError,
}

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
	// Status overrides the status derived from Code (optional, used by downstream errors)
	Status int
	// Details carries diagnostic data that is logged but never rendered to callers.
	Details any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status for the error code.
func (e *AppError) StatusCode() int {
	if e.Status != 0 {
		return e.Status
	}
	if s, ok := codeStatus[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func newError(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// MissingVersion creates a new MissingVersion error.
func MissingVersion(message string) *AppError {
	return newError(ErrCodeMissingVersion, message)
}

// RetiredVersion creates a new RetiredVersion error.
func RetiredVersion(message string) *AppError {
	return newError(ErrCodeRetiredVersion, message)
}

// UnsupportedVersion creates a new UnsupportedVersion error.
func UnsupportedVersion(message string) *AppError {
	return newError(ErrCodeUnsupportedVersion, message)
}

// AuthenticationFailed creates an aggregate authentication error.
// details is kept for logs and is never rendered.
func AuthenticationFailed(message string, details any) *AppError {
	return &AppError{Code: ErrCodeAuthenticationFailed, Message: message, Details: details}
}

// ForbiddenScope creates a new ForbiddenScope error.
func ForbiddenScope(message string) *AppError {
	return newError(ErrCodeForbiddenScope, message)
}

// OrganizationNotAuthorized creates a new OrganizationNotAuthorized error.
func OrganizationNotAuthorized(message string) *AppError {
	return newError(ErrCodeOrganizationNotAuthorized, message)
}

// MisconfiguredKey creates a new MisconfiguredKey error.
func MisconfiguredKey(message string) *AppError {
	return newError(ErrCodeMisconfiguredKey, message)
}

// BadRequest creates a new BadRequest error.
func BadRequest(message string) *AppError {
	return newError(ErrCodeBadRequest, message)
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return newError(ErrCodeNotFound, message)
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return newError(ErrCodeNotFound, fmt.Sprintf(format, args...))
}

// Forbidden creates a new Forbidden error.
func Forbidden(message string) *AppError {
	return newError(ErrCodeForbidden, message)
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return newError(ErrCodeValidation, message)
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return newError(ErrCodeInternal, message)
}

// Downstream creates an error carrying the status reported by the downstream operation.
// A status of 0 renders as 500.
func Downstream(status int, message string) *AppError {
	return &AppError{Code: ErrCodeDownstream, Message: message, Status: status}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsAuthenticationFailed checks if an error is an AuthenticationFailed error.
func IsAuthenticationFailed(err error) bool {
	return isCode(err, ErrCodeAuthenticationFailed)
}

// IsForbidden checks if an error is a Forbidden error.
func IsForbidden(err error) bool {
	return isCode(err, ErrCodeForbidden)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// statusCoder is implemented by errors that know their HTTP status (e.g. upstream responses).
type statusCoder interface {
	StatusCode() int
}

// HTTPStatus maps any error to an HTTP status. The outermost AppError wins;
// otherwise the first error in the chain reporting a status is used; otherwise 500.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode()
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		if s := sc.StatusCode(); s >= 400 && s <= 599 {
			return s
		}
	}
	return http.StatusInternalServerError
}

// Code returns the error code for rendering; untagged errors map to ErrCodeInternal.
func Code(err error) ErrorCode {
	if c := GetCode(err); c != "" {
		return c
	}
	return ErrCodeInternal
}
