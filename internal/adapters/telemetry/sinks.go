// Package telemetry provides ports.TelemetrySink implementations.
package telemetry

import (
	"context"
	"log/slog"
	"sort"

	"github.com/target/repo-gateway/internal/observability/statsd"
	"github.com/target/repo-gateway/internal/ports"
)

// EventMetric is the StatsD counter incremented for every tracked event.
const EventMetric = "event"

// LogSink writes events as structured log lines.
type LogSink struct {
	Logger *slog.Logger
	Level  slog.Level
}

var _ ports.TelemetrySink = LogSink{}

// TrackEvent implements ports.TelemetrySink.
func (s LogSink) TrackEvent(name string, properties map[string]string) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	keys := make([]string, 0, len(properties))
	for k := range properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]any, 0, len(keys)+1)
	attrs = append(attrs, slog.String("event", name))
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, properties[k]))
	}
	logger.Log(context.Background(), s.Level, "telemetry event", slog.Group("telemetry", attrs...))
}

// StatsdSink counts events and forwards failures as StatsD events.
type StatsdSink struct {
	Metrics statsd.Sink
	Events  statsd.EventSink // optional
	// TagKeys are the properties copied into metric tags. Payload fields are never tags.
	TagKeys []string
}

var _ ports.TelemetrySink = StatsdSink{}

// TrackEvent implements ports.TelemetrySink.
func (s StatsdSink) TrackEvent(name string, properties map[string]string) {
	tags := map[string]string{"name": name}
	for _, k := range s.TagKeys {
		if v, ok := properties[k]; ok && v != "" {
			tags[k] = v
		}
	}
	if s.Metrics != nil {
		s.Metrics.Count(EventMetric, 1, tags)
	}
	if s.Events != nil {
		if msg, ok := properties["message"]; ok {
			s.Events.Event(name, msg, tags)
		}
	}
}

// MultiSink fans events out to every sink in order. A panicking sink does not stop the others.
type MultiSink []ports.TelemetrySink

var _ ports.TelemetrySink = MultiSink(nil)

// TrackEvent implements ports.TelemetrySink.
func (m MultiSink) TrackEvent(name string, properties map[string]string) {
	for _, s := range m {
		if s == nil {
			continue
		}
		trackSafely(s, name, properties)
	}
}

func trackSafely(s ports.TelemetrySink, name string, properties map[string]string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Default().Error("telemetry sink panicked", "event", name, "panic", r)
		}
	}()
	s.TrackEvent(name, properties)
}

func cloneProps(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
