package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	obserrors "github.com/target/repo-gateway/internal/observability/errors"
	"github.com/target/repo-gateway/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultDenied  = "denied"
)

// Recorder emits gateway metrics to Prometheus and, optionally, StatsD.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	authAttempts *prometheus.CounterVec
	creations    *prometheus.CounterVec
	creationTime *prometheus.HistogramVec
	adminChecks  *prometheus.CounterVec
	sink         statsd.Sink
}

// NewRecorder registers the gateway collectors with reg. sink may be nil.
func NewRecorder(reg prometheus.Registerer, sink statsd.Sink) *Recorder {
	r := &Recorder{
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repo_gateway_auth_attempts_total",
			Help: "Authentication attempts by provider and result.",
		}, []string{"provider", "result"}),
		creations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repo_gateway_repo_creations_total",
			Help: "Repository creation requests by entrypoint and result.",
		}, []string{"entrypoint", "result"}),
		creationTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "repo_gateway_repo_creation_duration_seconds",
			Help:    "Latency of the downstream repository creation call.",
			Buckets: prometheus.DefBuckets,
		}, []string{"entrypoint"}),
		adminChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repo_gateway_admin_checks_total",
			Help: "Administrative permission checks by result.",
		}, []string{"result"}),
		sink: sink,
	}
	if reg != nil {
		reg.MustRegister(r.authAttempts, r.creations, r.creationTime, r.adminChecks)
	}
	return r
}

// AuthAttempt records one provider attempt.
func (r *Recorder) AuthAttempt(provider, result string) {
	if r == nil {
		return
	}
	r.authAttempts.WithLabelValues(provider, result).Inc()
	if r.sink != nil {
		r.sink.Count("auth.attempt", 1, map[string]string{"provider": provider, "result": result})
	}
}

// CreationMetric captures one repository creation outcome.
type CreationMetric struct {
	Entrypoint string
	Result     string
	Duration   time.Duration
	Err        error
}

// RepoCreation records a repository creation outcome.
func (r *Recorder) RepoCreation(in CreationMetric) {
	if r == nil {
		return
	}
	r.creations.WithLabelValues(in.Entrypoint, in.Result).Inc()
	if in.Duration > 0 {
		r.creationTime.WithLabelValues(in.Entrypoint).Observe(in.Duration.Seconds())
	}
	if r.sink == nil {
		return
	}

	tags := map[string]string{
		"entrypoint": in.Entrypoint,
		"result":     in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	r.sink.Count("repo.create", 1, tags)
	if in.Duration > 0 {
		r.sink.Timing("repo.create.duration", in.Duration, CloneTags(tags))
	}
}

// AdminCheck records an administrative gate decision.
func (r *Recorder) AdminCheck(result string) {
	if r == nil {
		return
	}
	r.adminChecks.WithLabelValues(result).Inc()
	if r.sink != nil {
		r.sink.Count("admin.check", 1, map[string]string{"result": result})
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
