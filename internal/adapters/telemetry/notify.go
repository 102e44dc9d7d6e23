package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/target/repo-gateway/internal/observability/notify"
	"github.com/target/repo-gateway/internal/ports"
)

// NotifySink turns one named failure event into on-call notifications.
// TrackEvent blocks for delivery, so wrap it in an AsyncSink.
type NotifySink struct {
	// Event is the event name that triggers a notification.
	Event string
	Sinks []notify.Sink
	// MetadataKeys are properties copied into the notification metadata.
	MetadataKeys []string
	Timeout      time.Duration // per sink, defaults to 10s
	Logger       *slog.Logger
	Now          func() time.Time
}

var _ ports.TelemetrySink = (*NotifySink)(nil)

type failureDescription struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Class   string `json:"class"`
}

// TrackEvent implements ports.TelemetrySink.
func (n *NotifySink) TrackEvent(name string, properties map[string]string) {
	if name != n.Event || len(n.Sinks) == 0 {
		return
	}
	payload := n.payload(properties)

	timeout := n.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, sink := range n.Sinks {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := sink.SendCreationFailure(ctx, payload); err != nil {
			logger.Warn("failure notification not delivered",
				"organization", payload.Organization,
				"correlation_id", payload.CorrelationID,
				"error", err)
		}
		cancel()
	}
}

func (n *NotifySink) payload(props map[string]string) notify.CreationFailurePayload {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	p := notify.CreationFailurePayload{
		Organization:  props["organization"],
		Repository:    props["name"],
		Entrypoint:    props["entrypoint"],
		CorrelationID: props["correlation_id"],
		Error:         props["message"],
		OccurredAt:    now(),
	}
	var desc failureDescription
	if raw := props["error"]; raw != "" && json.Unmarshal([]byte(raw), &desc) == nil {
		p.Status = desc.Status
		p.ErrorClass = desc.Class
		if p.Error == "" {
			p.Error = desc.Message
		}
	}
	for _, k := range n.MetadataKeys {
		if v, ok := props[k]; ok {
			if p.Metadata == nil {
				p.Metadata = make(map[string]string, len(n.MetadataKeys))
			}
			p.Metadata[k] = v
		}
	}
	return p
}
