package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/repo-gateway/internal/adapters/apikey"
	domainauth "github.com/target/repo-gateway/internal/domain/auth"
)

const keyPrefix = "rgk_"

type createOptions struct {
	Owner     string
	Key       string
	Scopes    []string
	Orgs      []string
	ExpiresIn time.Duration
}

func (c *commandContext) store(client redis.UniversalClient) *apikey.Store {
	return apikey.NewStore(apikey.StoreOptions{
		Client: client,
		Prefix: c.Config.Auth.APIKey.Prefix,
		Secret: c.Config.Auth.APIKey.Secret,
	})
}

func runCreateKey(cmdCtx *commandContext, args []string) error {
	opts, err := parseCreateFlags(args, cmdCtx.Out)
	if err != nil {
		return err
	}
	if cmdCtx.Config.Auth.APIKey.Secret == "" {
		return errors.New("APIKEY_SECRET must be set so the gateway can verify the key")
	}
	if opts.Key == "" {
		if opts.Key, err = generateKey(); err != nil {
			return err
		}
	}

	rec := apikey.Record{Owner: opts.Owner, Scopes: opts.Scopes, Organizations: opts.Orgs}
	if opts.ExpiresIn > 0 {
		rec.ExpiresAt = time.Now().Add(opts.ExpiresIn).UTC()
	}

	return cmdCtx.withRedis(func(ctx context.Context, client redis.UniversalClient) error {
		if saveErr := cmdCtx.store(client).Save(ctx, opts.Key, rec); saveErr != nil {
			return fmt.Errorf("save api key: %w", saveErr)
		}
		cmdCtx.Logger.Info("api key created", "owner", rec.Owner, "scopes", rec.Scopes, "organizations", rec.Organizations)
		return writef(cmdCtx.Out, "%s\n", opts.Key)
	})
}

func runRevokeKey(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("revoke", cmdCtx.Out)
	key := fs.String("key", "", "API key to delete (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*key) == "" {
		return errors.New("--key is required")
	}
	return cmdCtx.withRedis(func(ctx context.Context, client redis.UniversalClient) error {
		if err := cmdCtx.store(client).Delete(ctx, *key); err != nil {
			return fmt.Errorf("revoke api key: %w", err)
		}
		cmdCtx.Logger.Info("api key revoked")
		return nil
	})
}

func runGrantAdmin(cmdCtx *commandContext, args []string) error {
	return runAdminChange(cmdCtx, "grant-admin", args, (*apikey.Store).GrantAdmin)
}

func runRevokeAdmin(cmdCtx *commandContext, args []string) error {
	return runAdminChange(cmdCtx, "revoke-admin", args, (*apikey.Store).RevokeAdmin)
}

func runAdminChange(
	cmdCtx *commandContext,
	name string,
	args []string,
	change func(*apikey.Store, context.Context, string) error,
) error {
	fs := newFlagSet(name, cmdCtx.Out)
	owner := fs.String("owner", "", "API key owner (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*owner) == "" {
		return errors.New("--owner is required")
	}
	return cmdCtx.withRedis(func(ctx context.Context, client redis.UniversalClient) error {
		if err := change(cmdCtx.store(client), ctx, *owner); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		cmdCtx.Logger.Info("administrator set updated", "command", name, "owner", *owner)
		return nil
	})
}

func parseCreateFlags(args []string, out io.Writer) (createOptions, error) {
	fs := newFlagSet("create", out)
	var (
		opts   createOptions
		scopes string
		orgs   string
	)
	fs.StringVar(&opts.Owner, "owner", "", "Principal the key authenticates as (required)")
	fs.StringVar(&opts.Key, "key", "", "Use this key instead of generating one")
	fs.StringVar(&scopes, "scopes", domainauth.ScopeRepoCreate, "Comma-separated scopes")
	fs.StringVar(&orgs, "orgs", "", "Comma-separated organizations, or * for all; empty leaves the key unconfigured")
	fs.DurationVar(&opts.ExpiresIn, "expires-in", 0, "Key lifetime; zero never expires")

	if err := fs.Parse(args); err != nil {
		return createOptions{}, err
	}
	opts.Owner = strings.TrimSpace(opts.Owner)
	if opts.Owner == "" {
		return createOptions{}, errors.New("--owner is required")
	}
	if opts.ExpiresIn < 0 {
		return createOptions{}, errors.New("--expires-in must not be negative")
	}
	opts.Scopes = splitList(scopes)
	opts.Orgs = splitList(orgs)
	return opts, nil
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// splitList returns nil for an empty list so that unconfigured organizations stay unconfigured.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func generateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return keyPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}
