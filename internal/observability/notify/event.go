// Package notify delivers repository creation failure alerts to on-call channels.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityError    = "error"
	SeverityWarning  = "warning"
)

// CreationFailurePayload is the canonical data emitted when a repository creation fails.
type CreationFailurePayload struct {
	Organization  string
	Repository    string
	Entrypoint    string
	CorrelationID string
	Error         string
	ErrorClass    string
	Status        int
	Severity      string
	OccurredAt    time.Time
	Metadata      map[string]string
}

// SeverityForStatus maps a response status to a severity: 5xx are errors, the rest warnings.
func SeverityForStatus(status int) string {
	if status >= 500 {
		return SeverityError
	}
	return SeverityWarning
}

// Sink describes a destination capable of consuming creation failure notifications.
type Sink interface {
	SendCreationFailure(ctx context.Context, payload CreationFailurePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload CreationFailurePayload) error

// SendCreationFailure implements the Sink interface.
func (f SinkFunc) SendCreationFailure(ctx context.Context, payload CreationFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}

// Retry calls fn up to limit+1 times with a linear backoff, stopping early when ctx ends.
func Retry(ctx context.Context, limit int, fn func(context.Context) error) error {
	attempts := max(limit, 0) + 1
	var lastErr error
	for attempt := range attempts {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * 200 * time.Millisecond)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
