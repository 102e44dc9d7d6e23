// Command repo-gateway-keys administers API keys and the Postgres organization directory.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/target/repo-gateway/config"
	"github.com/target/repo-gateway/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer

	// Connection factories; tests substitute miniredis and sqlmock.
	connectRedis func(ctx context.Context) (redis.UniversalClient, error)
	connectDB    func(ctx context.Context) (*sql.DB, error)
}

func main() {
	logger := bootstrap.InitLogger("info", false)

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := newCommandContext(context.Background(), logger, cfg, os.Stdout)
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func newCommandContext(ctx context.Context, logger *slog.Logger, cfg config.AppConfig, out io.Writer) *commandContext {
	return &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Out:    out,
		connectRedis: func(ctx context.Context) (redis.UniversalClient, error) {
			return bootstrap.ConnectRedis(ctx, cfg.Redis, logger)
		},
		connectDB: func(ctx context.Context) (*sql.DB, error) {
			return bootstrap.ConnectDB(ctx, cfg.Postgres, logger)
		},
	}
}

func commands() map[string]command {
	return map[string]command{
		"create": {
			name:        "create",
			description: "Create an API key and print it once",
			run:         runCreateKey,
		},
		"revoke": {
			name:        "revoke",
			description: "Delete an API key",
			run:         runRevokeKey,
		},
		"grant-admin": {
			name:        "grant-admin",
			description: "Add an API key owner to the administrator set",
			run:         runGrantAdmin,
		},
		"revoke-admin": {
			name:        "revoke-admin",
			description: "Remove an API key owner from the administrator set",
			run:         runRevokeAdmin,
		},
		"migrate": {
			name:        "migrate",
			description: "Run organization directory migrations",
			run:         runMigrations,
		},
		"org-add": {
			name:        "org-add",
			description: "Add or update an organization in the Postgres directory",
			run:         runOrgAdd,
		},
		"org-remove": {
			name:        "org-remove",
			description: "Remove an organization from the Postgres directory",
			run:         runOrgRemove,
		},
		"org-list": {
			name:        "org-list",
			description: "List organizations in the Postgres directory",
			run:         runOrgList,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: repo-gateway-keys <command> [flags]\n\nAvailable commands:\n"); err != nil {
		return err
	}
	names := make([]string, 0, len(commands()))
	for name := range commands() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-16s %s\n", name, commands()[name].description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

// withRedis connects, runs fn, and closes the client.
func (c *commandContext) withRedis(fn func(ctx context.Context, client redis.UniversalClient) error) error {
	client, err := c.connectRedis(c.Ctx)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			c.Logger.Warn("redis close failed", "error", closeErr)
		}
	}()
	return fn(c.Ctx, client)
}

// withDatabase connects, runs fn, and closes the pool.
func (c *commandContext) withDatabase(fn func(ctx context.Context, db *sql.DB) error) error {
	db, err := c.connectDB(c.Ctx)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			c.Logger.Warn("db close failed", "error", closeErr)
		}
	}()
	return fn(c.Ctx, db)
}
