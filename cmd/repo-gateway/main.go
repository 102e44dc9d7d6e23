package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/target/repo-gateway/config"
	"github.com/target/repo-gateway/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	cfg, err := bootstrap.LoadConfig()
	logger := bootstrap.InitLogger(cfg.Observability.LogLevel, cfg.IsDev)
	if err == nil {
		err = run(ctx, logger, &cfg)
	}
	if err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logStartupInfo(ctx, logger, cfg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, redisClient, err := initInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeInfrastructure(ctx, logger, db, redisClient)

	app, err := bootstrap.BuildApp(ctx, bootstrap.Deps{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}

	server := bootstrap.NewHTTPServer(cfg.HTTP, app.Handler, logger)
	serveErr := make(chan error, 1)
	go func() { serveErr <- bootstrap.ServeHTTP(server, logger) }()

	select {
	case err = <-serveErr:
		// The listener failed before any shutdown was requested.
		return errors.Join(err, app.Close(context.WithoutCancel(ctx)))
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownErr := bootstrap.Shutdown(ctx, bootstrap.ShutdownConfig{
		Server:  server,
		App:     app,
		Timeout: cfg.HTTP.ShutdownTimeout,
		Logger:  logger,
	})
	return errors.Join(shutdownErr, <-serveErr)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting repo-gateway",
		"addr", cfg.HTTP.Addr,
		"auth_providers", cfg.Auth.Providers,
		"directory_mode", cfg.Directory.Mode,
		"customization", cfg.Customization.Enabled,
		"dev", cfg.IsDev)
}

func needsRedis(cfg *config.AppConfig) bool {
	providers, err := cfg.Auth.EnabledProviders()
	return (err == nil && slices.Contains(providers, config.ProviderAPIKey)) || cfg.Directory.CacheTTL > 0
}

// initInfrastructure connects the shared dependencies the configuration asks for.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*sql.DB, redis.UniversalClient, error) {
	var db *sql.DB
	if cfg.Directory.Mode == config.DirectoryModePostgres {
		var err error
		db, err = bootstrap.ConnectDB(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect db: %w", err)
		}
		if cfg.Postgres.RunMigrationsOnStart {
			if err = bootstrap.RunMigrations(ctx, db, logger); err != nil {
				return nil, nil, errors.Join(err, db.Close())
			}
		} else {
			logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		}
	}

	if !needsRedis(cfg) {
		return db, nil, nil
	}
	redisClient, err := bootstrap.ConnectRedis(ctx, cfg.Redis, logger)
	if err != nil {
		err = fmt.Errorf("connect redis: %w", err)
		if db != nil {
			if cerr := db.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close database: %w", cerr))
			}
		}
		return nil, nil, err
	}
	return db, redisClient, nil
}

func closeInfrastructure(ctx context.Context, logger *slog.Logger, db *sql.DB, redisClient redis.UniversalClient) {
	if db != nil {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}
	if redisClient != nil {
		if cerr := redisClient.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}
}
