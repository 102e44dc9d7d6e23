package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/target/repo-gateway/internal/ports"
)

type event struct {
	name  string
	props map[string]string
}

// AsyncOptions configures an AsyncSink.
type AsyncOptions struct {
	Buffer  int // queue capacity, defaults to 256
	Workers int // defaults to 1
	Logger  *slog.Logger
}

// AsyncSink hands events to background workers so TrackEvent never blocks the request.
// Events are dropped when the queue is full or the sink is closed.
type AsyncSink struct {
	next    ports.TelemetrySink
	queue   chan event
	group   *errgroup.Group
	logger  *slog.Logger
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
}

var _ ports.TelemetrySink = (*AsyncSink)(nil)

// NewAsyncSink starts the workers.
func NewAsyncSink(next ports.TelemetrySink, opts AsyncOptions) *AsyncSink {
	if next == nil {
		panic("telemetry: next sink is required")
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = 256
	}
	workers := max(opts.Workers, 1)
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &AsyncSink{
		next:   next,
		queue:  make(chan event, buffer),
		group:  new(errgroup.Group),
		logger: logger.With("component", "telemetry"),
	}
	for range workers {
		s.group.Go(func() error {
			for ev := range s.queue {
				trackSafely(s.next, ev.name, ev.props)
			}
			return nil
		})
	}
	return s
}

// TrackEvent enqueues a copy of the event without blocking.
func (s *AsyncSink) TrackEvent(name string, properties map[string]string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.queue <- event{name: name, props: cloneProps(properties)}:
	default:
		if n := s.dropped.Add(1); n == 1 || n%100 == 0 {
			s.logger.Warn("telemetry queue full, dropping events", "event", name, "dropped_total", n)
		}
	}
}

// Dropped reports how many events were discarded.
func (s *AsyncSink) Dropped() int64 { return s.dropped.Load() }

// Close stops accepting events and waits for queued events to drain or ctx to end.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- s.group.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
