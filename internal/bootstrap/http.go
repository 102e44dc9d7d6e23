package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/target/repo-gateway/config"
)

// NewHTTPServer builds the gateway HTTP server without starting it.
func NewHTTPServer(cfg config.HTTPConfig, handler http.Handler, logger *slog.Logger) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		// Upstream creation may take up to the upstream timeout.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}

// ServeHTTP listens on the server address and serves until Shutdown.
// It returns nil once the server has been shut down.
func ServeHTTP(server *http.Server, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return err
	}
	logger.Info("starting HTTP server", "addr", ln.Addr().String())
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ShutdownConfig contains dependencies for graceful shutdown.
type ShutdownConfig struct {
	Server  *http.Server
	App     *App
	Timeout time.Duration
	Logger  *slog.Logger
}

// Shutdown stops accepting requests, waits for in-flight ones, then drains telemetry.
func Shutdown(ctx context.Context, cfg ShutdownConfig) error {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	var errs []error
	if cfg.Server != nil {
		if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	if cfg.App != nil {
		if err := cfg.App.Close(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped", "dropped_events", droppedEvents(cfg.App))
	}
	return errors.Join(errs...)
}

func droppedEvents(app *App) int64 {
	if app == nil || app.Telemetry == nil {
		return 0
	}
	return app.Telemetry.Dropped()
}
