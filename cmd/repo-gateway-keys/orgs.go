package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/repo-gateway/internal/adapters/directory"
	"github.com/target/repo-gateway/internal/bootstrap"
	"github.com/target/repo-gateway/internal/domain/repo"
)

const defaultMigrationTimeout = 5 * time.Minute

func runMigrations(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("migrate", cmdCtx.Out)
	timeout := fs.Duration("timeout", defaultMigrationTimeout, "Maximum duration to wait for migrations to complete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *timeout <= 0 {
		return errors.New("--timeout must be greater than zero")
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	return cmdCtx.withDatabase(func(_ context.Context, db *sql.DB) error {
		return bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
	})
}

func runOrgAdd(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("org-add", cmdCtx.Out)
	name := fs.String("name", "", "Organization name (required)")
	id := fs.String("id", "", "External organization id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	org := repo.Organization{Name: strings.TrimSpace(*name), ID: strings.TrimSpace(*id)}
	if org.Name == "" {
		return errors.New("--name is required")
	}

	err := cmdCtx.withDatabase(func(ctx context.Context, db *sql.DB) error {
		return directory.NewPostgres(db).Upsert(ctx, org)
	})
	if err != nil {
		return fmt.Errorf("add organization: %w", err)
	}
	cmdCtx.invalidateCachedOrg(org.Name)
	cmdCtx.Logger.Info("organization saved", "name", org.Name, "id", org.ID)
	return nil
}

func runOrgRemove(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("org-remove", cmdCtx.Out)
	name := fs.String("name", "", "Organization name (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" {
		return errors.New("--name is required")
	}

	err := cmdCtx.withDatabase(func(ctx context.Context, db *sql.DB) error {
		return directory.NewPostgres(db).Remove(ctx, *name)
	})
	if err != nil {
		return fmt.Errorf("remove organization: %w", err)
	}
	cmdCtx.invalidateCachedOrg(*name)
	cmdCtx.Logger.Info("organization removed", "name", *name)
	return nil
}

func runOrgList(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("org-list", cmdCtx.Out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	var orgs []repo.Organization
	err := cmdCtx.withDatabase(func(ctx context.Context, db *sql.DB) error {
		var listErr error
		orgs, listErr = directory.NewPostgres(db).List(ctx)
		return listErr
	})
	if err != nil {
		return fmt.Errorf("list organizations: %w", err)
	}

	tw := tabwriter.NewWriter(cmdCtx.Out, 0, 4, 2, ' ', 0)
	if err := writef(tw, "NAME\tID\n"); err != nil {
		return err
	}
	for _, o := range orgs {
		if err := writef(tw, "%s\t%s\n", o.Name, o.ID); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// invalidateCachedOrg drops the gateway's cached lookup so the change is visible before the TTL.
// Failure only delays visibility, so it is logged.
func (c *commandContext) invalidateCachedOrg(name string) {
	if c.Config.Directory.CacheTTL <= 0 {
		return
	}
	err := c.withRedis(func(ctx context.Context, client redis.UniversalClient) error {
		return directory.NewCached(noDirectory{}, directory.CachedOptions{Client: client, Logger: c.Logger}).
			Invalidate(ctx, name)
	})
	if err != nil {
		c.Logger.Warn("directory cache invalidation failed", "name", name, "error", err)
	}
}

// noDirectory backs a Cached used only for invalidation.
type noDirectory struct{}

func (noDirectory) Resolve(context.Context, string) (repo.Organization, error) {
	return repo.Organization{}, errors.New("not supported")
}

func (noDirectory) List(context.Context) ([]repo.Organization, error) { return nil, nil }
