package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"net"
	"testing"

	apperrors "github.com/target/repo-gateway/internal/errors"
)

type customErr struct{}

func (*customErr) Error() string { return "custom" }

type timeoutErr struct{ timeout bool }

func (e timeoutErr) Error() string   { return "net" }
func (e timeoutErr) Timeout() bool   { return e.timeout }
func (e timeoutErr) Temporary() bool { return false }

var _ net.Error = timeoutErr{}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain", err: goerrors.New("x"), want: "errors_errorstring"},
		{name: "wrapped custom", err: fmt.Errorf("outer: %w", &customErr{}), want: "errors_customerr"},
		{name: "app error", err: apperrors.BadRequest("unknown org"), want: "app_bad_request"},
		{name: "wrapped app error", err: fmt.Errorf("ctx: %w", apperrors.ForbiddenScope("x")), want: "app_forbidden_scope"},
		{name: "deadline", err: fmt.Errorf("upstream: %w", context.DeadlineExceeded), want: ClassTimeout},
		{name: "canceled", err: context.Canceled, want: ClassCanceled},
		{name: "net timeout", err: &net.OpError{Op: "dial", Err: timeoutErr{timeout: true}}, want: ClassTimeout},
		{name: "net failure", err: timeoutErr{}, want: ClassNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
