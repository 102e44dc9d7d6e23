package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/repo-gateway/internal/domain/repo"
	apperrors "github.com/target/repo-gateway/internal/errors"
	obserrors "github.com/target/repo-gateway/internal/observability/errors"
	"github.com/target/repo-gateway/internal/observability/metrics"
	"github.com/target/repo-gateway/internal/ports"
)

// Telemetry event names emitted by RepoCreationService.
const (
	EventRepoCreateRequest = "ApiRepoCreateRequest"
	EventRepoCreateSuccess = "ApiRepoCreateRequestSuccess"
	EventRepoCreateFailed  = "ApiRepoCreateRequestFailed"
)

const redacted = "[REDACTED]"

// HookOption holds an optional customization hook. The zero value is NoHook.
type HookOption struct {
	hook ports.CustomizationHook
}

// NoHook is the absent hook.
func NoHook() HookOption { return HookOption{} }

// WithHook wraps h. A nil h is the same as NoHook.
func WithHook(h ports.CustomizationHook) HookOption { return HookOption{hook: h} }

// Present reports whether a hook is configured.
func (o HookOption) Present() bool { return o.hook != nil }

// Get returns the hook and whether one is configured.
func (o HookOption) Get() (ports.CustomizationHook, bool) { return o.hook, o.hook != nil }

// RepoCreationObservers groups the best-effort observers of repository creation.
type RepoCreationObservers struct {
	Telemetry ports.TelemetrySink // Optional
	Logger    *slog.Logger        // Optional
	Metrics   *metrics.Recorder   // Optional
}

// RepoCreationServiceOptions groups dependencies for RepoCreationService.
type RepoCreationServiceOptions struct {
	Creator   ports.RepoCreator // Required
	Hook      HookOption
	Observers RepoCreationObservers
}

// RepoCreationService runs the repository creation workflow for one request.
type RepoCreationService struct {
	creator   ports.RepoCreator
	hook      HookOption
	telemetry ports.TelemetrySink
	logger    *slog.Logger
	metrics   *metrics.Recorder
}

// NewRepoCreationService constructs a RepoCreationService. It panics if Creator is nil.
func NewRepoCreationService(opts RepoCreationServiceOptions) *RepoCreationService {
	if opts.Creator == nil {
		panic("RepoCreator is required for RepoCreationService")
	}
	logger := opts.Observers.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RepoCreationService{
		creator:   opts.Creator,
		hook:      opts.Hook,
		telemetry: opts.Observers.Telemetry,
		logger:    logger,
		metrics:   opts.Observers.Metrics,
	}
}

// CreateRequest is one repository creation call.
type CreateRequest struct {
	Request       *http.Request
	Organization  repo.Organization
	Headers       map[string]string
	Body          map[string]any
	Entrypoint    repo.Entrypoint
	CorrelationID string
}

// Create merges and sanitizes the caller payload, builds the custom context and calls the
// downstream creator exactly once. The downstream error is returned unchanged.
func (s *RepoCreationService) Create(ctx context.Context, req CreateRequest) (repo.Result, error) {
	entrypoint := req.Entrypoint
	if entrypoint == "" {
		entrypoint = repo.EntrypointAPI
	}

	payload := repo.MergePayload(req.Headers, req.Body)
	s.track(EventRepoCreateRequest, s.baseProps(req, entrypoint, map[string]string{
		"headers": safeJSON(redactHeaders(req.Headers)),
	}))
	payload.Sanitize()

	start := time.Now()
	result, err := s.create(ctx, req, entrypoint, payload)
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.RepoCreation(metrics.CreationMetric{
			Entrypoint: string(entrypoint), Result: metrics.ResultError, Duration: elapsed, Err: err,
		})
		props := s.baseProps(req, entrypoint, flattenPayload(payload))
		props["message"] = err.Error()
		props["error"] = safeJSON(describeError(err))
		s.track(EventRepoCreateFailed, props)
		s.logger.WarnContext(ctx, "repository creation failed",
			"organization", req.Organization.Name,
			"entrypoint", entrypoint,
			"correlation_id", req.CorrelationID,
			"error", err)
		return nil, err
	}

	s.metrics.RepoCreation(metrics.CreationMetric{
		Entrypoint: string(entrypoint), Result: metrics.ResultSuccess, Duration: elapsed,
	})
	s.track(EventRepoCreateSuccess, s.baseProps(req, entrypoint, map[string]string{
		"request":  safeJSON(payload),
		"response": safeJSON(result),
	}))
	return result, nil
}

func (s *RepoCreationService) create(
	ctx context.Context,
	req CreateRequest,
	entrypoint repo.Entrypoint,
	payload repo.Payload,
) (repo.Result, error) {
	var custom any
	hook, ok := s.hook.Get()
	if ok {
		var err error
		custom, err = hook.CreateContext(ctx, req.Request)
		if err != nil {
			return nil, err
		}
	}
	return s.creator.Create(ctx, ports.CreateInput{
		Request:       req.Request,
		Organization:  req.Organization,
		Hook:          hook,
		CustomContext: custom,
		Payload:       payload,
		Entrypoint:    entrypoint,
	})
}

func (s *RepoCreationService) baseProps(
	req CreateRequest,
	entrypoint repo.Entrypoint,
	extra map[string]string,
) map[string]string {
	props := make(map[string]string, len(extra)+3)
	for k, v := range extra {
		props[k] = v
	}
	props["organization"] = req.Organization.Name
	props["entrypoint"] = string(entrypoint)
	if req.CorrelationID != "" {
		props["correlation_id"] = req.CorrelationID
	}
	return props
}

// track never lets a sink failure reach the caller.
func (s *RepoCreationService) track(name string, props map[string]string) {
	if s.telemetry == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("telemetry sink panicked", "event", name, "panic", fmt.Sprint(r))
		}
	}()
	s.telemetry.TrackEvent(name, props)
}

func redactHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if repo.IsSensitiveKey(k) {
			out[k] = redacted
			continue
		}
		out[k] = v
	}
	return out
}

// flattenPayload renders a payload as string properties. Strings are kept as-is.
func flattenPayload(p repo.Payload) map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		if repo.IsSensitiveKey(k) {
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = safeJSON(v)
	}
	return out
}

type errorDescription struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Class   string `json:"class"`
}

func describeError(err error) errorDescription {
	d := errorDescription{
		Message: err.Error(),
		Code:    string(apperrors.Code(err)),
		Status:  apperrors.HTTPStatus(err),
		Class:   obserrors.Classify(err),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		d.Message = appErr.Message
	}
	return d
}

// safeJSON marshals v, returning a placeholder when v cannot be encoded.
func safeJSON(v any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("[unserializable: %v]", r)
		}
	}()
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("[unserializable: %v]", err)
	}
	return string(b)
}
