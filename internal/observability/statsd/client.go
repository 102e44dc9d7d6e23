// Package statsd emits gateway counters, timings and events using the DogStatsD line protocol over UDP.
package statsd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Sink describes the minimal interface required to emit StatsD-style metrics.
type Sink interface {
	Count(name string, value int64, tags map[string]string)
	Gauge(name string, value float64, tags map[string]string)
	Timing(name string, value time.Duration, tags map[string]string)
}

// EventSink emits DogStatsD-style events.
type EventSink interface {
	Event(title, text string, tags map[string]string)
}

// Config describes how to connect to a StatsD-compatible agent.
type Config struct {
	Enabled    bool
	Address    string
	Prefix     string
	Logger     *slog.Logger
	GlobalTags map[string]string
}

const dialTimeout = 5 * time.Second

// Client writes one datagram per metric. A Client without a connection drops everything,
// as does a nil *Client. It is safe for concurrent use.
type Client struct {
	prefix string
	global tagSet
	logger *slog.Logger

	mu   sync.Mutex
	conn net.Conn
}

var (
	_ Sink      = (*Client)(nil)
	_ EventSink = (*Client)(nil)
)

// NewClient dials the agent when enabled with a non-empty address; otherwise it returns a no-op client.
func NewClient(cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		prefix: strings.Trim(strings.TrimSpace(cfg.Prefix), "."),
		global: mergeTags(cfg.GlobalTags),
		logger: logger,
	}

	address := strings.TrimSpace(cfg.Address)
	if !cfg.Enabled || address == "" {
		return c, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	conn, err := (&net.Dialer{}).DialContext(ctx, "udp", address)
	if err != nil {
		return nil, fmt.Errorf("statsd dial %s: %w", address, err)
	}
	c.conn = conn
	return c, nil
}

// Enabled reports whether the client has a live connection.
func (c *Client) Enabled() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Count adds value to a counter.
func (c *Client) Count(name string, value int64, tags map[string]string) {
	c.metric(name, strconv.FormatInt(value, 10), "c", tags)
}

// Gauge sets a gauge.
func (c *Client) Gauge(name string, value float64, tags map[string]string) {
	c.metric(name, strconv.FormatFloat(value, 'f', -1, 64), "g", tags)
}

// Timing records a duration in milliseconds.
func (c *Client) Timing(name string, value time.Duration, tags map[string]string) {
	ms := float64(value) / float64(time.Millisecond)
	c.metric(name, strconv.FormatFloat(ms, 'f', -1, 64), "ms", tags)
}

// Event emits a DogStatsD event. Newlines in text are escaped.
func (c *Client) Event(title, text string, tags map[string]string) {
	if c == nil {
		return
	}
	title = c.qualify(title)
	if title == "" {
		return
	}
	text = strings.ReplaceAll(text, "\n", "\\n")

	var b strings.Builder
	fmt.Fprintf(&b, "_e{%d,%d}:%s|%s", len(title), len(text), title, text)
	mergeTags(c.global, tags).writeTo(&b)
	c.send(b.String())
}

// Close releases the connection. Subsequent writes are dropped.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) metric(name, value, kind string, tags map[string]string) {
	if c == nil {
		return
	}
	name = c.qualify(name)
	if name == "" {
		return
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte(':')
	b.WriteString(value)
	b.WriteByte('|')
	b.WriteString(kind)
	mergeTags(c.global, tags).writeTo(&b)
	c.send(b.String())
}

func (c *Client) send(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	if _, err := c.conn.Write([]byte(line)); err != nil {
		c.logger.Debug("statsd write failed", "error", err)
	}
}

// qualify prefixes a normalized metric name. An empty name yields "".
func (c *Client) qualify(name string) string {
	n := normalizeName(name)
	switch {
	case n == "":
		return ""
	case c.prefix == "":
		return n
	default:
		return c.prefix + "." + n
	}
}

// normalizeName replaces spaces and slashes, since scope names such as repo/create
// are used in metric names, and collapses empty dot segments.
func normalizeName(name string) string {
	n := strings.NewReplacer(" ", "_", "/", "_").Replace(strings.TrimSpace(name))
	parts := strings.Split(n, ".")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

// tagSet holds trimmed tag keys and protocol-safe values.
type tagSet map[string]string

// tagValueReplacer strips the protocol delimiters that organization names may contain.
var tagValueReplacer = strings.NewReplacer(",", "_", "|", "_", "#", "_")

// mergeTags combines sets left to right; later keys win and blank keys are dropped.
func mergeTags(sets ...map[string]string) tagSet {
	n := 0
	for _, s := range sets {
		n += len(s)
	}
	out := make(tagSet, n)
	for _, s := range sets {
		for k, v := range s {
			if k = strings.TrimSpace(k); k != "" {
				out[k] = tagValueReplacer.Replace(strings.TrimSpace(v))
			}
		}
	}
	return out
}

func (t tagSet) writeTo(b *strings.Builder) {
	if len(t) == 0 {
		return
	}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteString("|#")
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(t[k])
	}
}
