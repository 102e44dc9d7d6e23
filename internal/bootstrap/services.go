package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/target/repo-gateway/config"
	"github.com/target/repo-gateway/internal/adapters/aad"
	"github.com/target/repo-gateway/internal/adapters/customize"
	"github.com/target/repo-gateway/internal/adapters/directory"
	"github.com/target/repo-gateway/internal/adapters/telemetry"
	"github.com/target/repo-gateway/internal/adapters/upstream"
	httpx "github.com/target/repo-gateway/internal/http"
	"github.com/target/repo-gateway/internal/observability/metrics"
	"github.com/target/repo-gateway/internal/observability/notify"
	"github.com/target/repo-gateway/internal/observability/notify/pagerduty"
	"github.com/target/repo-gateway/internal/observability/notify/slack"
	"github.com/target/repo-gateway/internal/observability/statsd"
	"github.com/target/repo-gateway/internal/ports"
	"github.com/target/repo-gateway/internal/service"
)

// statsdTagKeys are event properties promoted to StatsD tags. Everything else is high cardinality.
var statsdTagKeys = []string{"entrypoint", "organization", "provider"}

// Deps groups the external resources BuildApp wires together.
type Deps struct {
	Config *config.AppConfig
	// DB backs the postgres directory. Required in postgres mode.
	DB *sql.DB
	// Redis backs API keys and the directory cache. Optional unless apikey is enabled.
	Redis  redis.UniversalClient
	Logger *slog.Logger
	// Registry receives the gateway collectors. A private registry is created when nil.
	Registry *prometheus.Registry
	// AADVerifier replaces OIDC discovery, for tests. Optional.
	AADVerifier aad.IDTokenVerifier
	HTTPClient  *http.Client // Optional
}

// App is the fully wired gateway.
type App struct {
	Handler   http.Handler
	Directory ports.OrganizationDirectory
	Providers *ProviderSet
	Telemetry *telemetry.AsyncSink

	closers []func(context.Context) error
}

// Close drains telemetry and releases observability clients. Shared resources passed in
// through Deps are left to the caller.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildApp constructs every adapter, service, and the HTTP handler.
func BuildApp(ctx context.Context, deps Deps) (*App, error) {
	if deps.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{}

	obs := buildObservability(cfg.Observability, deps.Registry, logger)
	if obs.Statsd != nil {
		app.closers = append(app.closers, func(context.Context) error { return obs.Statsd.Close() })
	}

	app.Telemetry = buildTelemetry(cfg.Observability, obs.Statsd, logger)
	app.closers = append(app.closers, app.Telemetry.Close)

	providers, err := BuildProviders(ctx, AuthDeps{
		Auth:        cfg.Auth,
		IsDev:       cfg.IsDev,
		Redis:       deps.Redis,
		Logger:      logger,
		AADVerifier: deps.AADVerifier,
		HTTPClient:  deps.HTTPClient,
	})
	if err != nil {
		return nil, closeOnError(ctx, app, err)
	}
	app.Providers = providers

	dir, err := BuildDirectory(cfg.Directory, deps.DB, deps.Redis, logger)
	if err != nil {
		return nil, closeOnError(ctx, app, err)
	}
	app.Directory = dir

	client, err := upstream.NewClient(ctx, upstream.ClientConfig{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
		Credentials: upstream.Credentials{
			Token:        cfg.Upstream.Token,
			ClientID:     cfg.Upstream.ClientID,
			ClientSecret: cfg.Upstream.ClientSecret,
			TokenURL:     cfg.Upstream.TokenURL,
			Scopes:       cfg.Upstream.Scopes,
		},
	})
	if err != nil {
		return nil, closeOnError(ctx, app, fmt.Errorf("build upstream client: %w", err))
	}

	hook, err := BuildHook(cfg.Customization)
	if err != nil {
		return nil, closeOnError(ctx, app, err)
	}

	creation := service.NewRepoCreationService(service.RepoCreationServiceOptions{
		Creator: client,
		Hook:    hook,
		Observers: service.RepoCreationObservers{
			Telemetry: app.Telemetry,
			Logger:    logger,
			Metrics:   obs.Recorder,
		},
	})

	routerServices := httpx.RouterServices{
		Auth:      BuildRouteAuth(providers, logger, obs.Recorder),
		Repos:     &httpx.RepoHandlers{Svc: creation, Collaborators: client},
		Admin:     &httpx.AdminHandlers{Directory: dir},
		Resolver:  service.NewOrganizationResolver(dir),
		AdminGate: service.NewAdminGate(logger, obs.Recorder),
		Metrics:   obs.Handler,
		Logger:    logger,
	}
	if cfg.HTTP.CompressionEnabled {
		logger.InfoContext(ctx, "HTTP compression enabled", "level", cfg.HTTP.CompressionLevel)
		routerServices.Compression = &httpx.CompressionConfig{Level: cfg.HTTP.CompressionLevel, Logger: logger}
	}
	app.Handler = httpx.NewRouter(routerServices)
	return app, nil
}

func closeOnError(ctx context.Context, app *App, err error) error {
	if closeErr := app.Close(ctx); closeErr != nil {
		return errors.Join(err, fmt.Errorf("close partial app: %w", closeErr))
	}
	return err
}

// observability groups shared metric emitters.
type observability struct {
	Statsd   *statsd.Client
	Recorder *metrics.Recorder
	Handler  http.Handler // nil when Prometheus is disabled
}

func buildObservability(cfg config.ObservabilityConfig, reg *prometheus.Registry, logger *slog.Logger) observability {
	var obs observability
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.StatsdPrefix,
			Logger:  logger,
		})
		if err != nil {
			// Metrics are best effort; the gateway still serves without them.
			logger.Error("failed to initialise statsd client", "error", err)
		} else {
			obs.Statsd = client
		}
	}

	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	var sink statsd.Sink
	if obs.Statsd != nil {
		sink = obs.Statsd
	}
	obs.Recorder = metrics.NewRecorder(reg, sink)
	if cfg.Metrics.PrometheusEnabled {
		obs.Handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}
	return obs
}

// buildTelemetry assembles log, StatsD and notification sinks behind one asynchronous queue.
func buildTelemetry(cfg config.ObservabilityConfig, sd *statsd.Client, logger *slog.Logger) *telemetry.AsyncSink {
	sinks := telemetry.MultiSink{telemetry.LogSink{Logger: logger, Level: slog.LevelInfo}}
	if sd != nil {
		sinks = append(sinks, telemetry.StatsdSink{Metrics: sd, Events: sd, TagKeys: statsdTagKeys})
	}
	if notifiers := BuildNotifiers(cfg.Notifications, logger); len(notifiers) > 0 {
		sinks = append(sinks, &telemetry.NotifySink{
			Event:        service.EventRepoCreateFailed,
			Sinks:        notifiers,
			MetadataKeys: cfg.Telemetry.MetadataKeys,
			Timeout:      cfg.Notifications.Timeout * time.Duration(cfg.Notifications.RetryLimit+1),
			Logger:       logger,
		})
	}
	return telemetry.NewAsyncSink(sinks, telemetry.AsyncOptions{
		Buffer:  cfg.Telemetry.Buffer,
		Workers: cfg.Telemetry.Workers,
		Logger:  logger,
	})
}

// BuildNotifiers returns the enabled creation failure notifiers. Misconfigured sinks are
// logged and skipped.
func BuildNotifiers(cfg config.ObservabilityNotificationsConfig, logger *slog.Logger) []notify.Sink {
	if !cfg.Enabled {
		return nil
	}
	var out []notify.Sink
	if cfg.Slack.Enabled {
		c, err := slack.NewClient(slack.Config{
			WebhookURL:   cfg.Slack.WebhookURL,
			Channel:      cfg.Slack.Channel,
			Username:     cfg.Slack.Username,
			Timeout:      cfg.Timeout,
			RetryLimit:   cfg.RetryLimit,
			OrgURLPrefix: cfg.Slack.OrgURLPrefix,
		})
		if err != nil {
			logger.Error("failed to initialise slack notifier", "error", err)
		} else {
			out = append(out, c)
		}
	}
	if cfg.PagerDuty.Enabled {
		c, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			out = append(out, c)
		}
	}
	return out
}

// BuildDirectory selects the organization directory and wraps it in the Redis cache
// when a client is available and a TTL is configured.
//
//nolint:ireturn // the cache wrapper is optional.
func BuildDirectory(
	cfg config.DirectoryConfig,
	db *sql.DB,
	rdb redis.UniversalClient,
	logger *slog.Logger,
) (ports.OrganizationDirectory, error) {
	var base ports.OrganizationDirectory
	switch cfg.Mode {
	case config.DirectoryModePostgres:
		if db == nil {
			return nil, errors.New("postgres directory requires a database connection")
		}
		base = directory.NewPostgres(db)
	default:
		static, err := directory.NewStatic(cfg.Organizations)
		if err != nil {
			return nil, fmt.Errorf("build static directory: %w", err)
		}
		base = static
	}

	if rdb == nil || cfg.CacheTTL <= 0 {
		return base, nil
	}
	return directory.NewCached(base, directory.CachedOptions{Client: rdb, TTL: cfg.CacheTTL, Logger: logger}), nil
}

// BuildHook returns the customization hook option. Disabled customization yields NoHook.
func BuildHook(cfg config.CustomizationConfig) (service.HookOption, error) {
	if !cfg.Enabled {
		return service.NoHook(), nil
	}
	hook, err := customize.NewHook(customize.Config{
		Visibility:        cfg.Visibility,
		TeamID:            cfg.TeamID,
		LicenseTemplate:   cfg.LicenseTemplate,
		GitignoreTemplate: cfg.GitignoreTemplate,
		AutoInit:          cfg.AutoInit,
	}, requesterFromIdentity)
	if err != nil {
		return service.NoHook(), fmt.Errorf("build customization hook: %w", err)
	}
	return service.WithHook(hook), nil
}

func requesterFromIdentity(r *http.Request) string {
	if id, ok := httpx.IdentityFromContext(r.Context()); ok && id != nil {
		return id.Principal()
	}
	return ""
}
