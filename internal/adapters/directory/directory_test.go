package directory

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/repo-gateway/internal/domain/repo"
	apperrors "github.com/target/repo-gateway/internal/errors"
	"github.com/target/repo-gateway/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatic(t *testing.T) {
	dir, err := NewStatic([]string{"Acme:1", " globex ", "", "initech:  7 "})
	require.NoError(t, err)
	ctx := context.Background()

	org, err := dir.Resolve(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, repo.Organization{Name: "Acme", ID: "1"}, org)

	org, err = dir.Resolve(ctx, "initech")
	require.NoError(t, err)
	assert.Equal(t, "7", org.ID)

	_, err = dir.Resolve(ctx, "ghost")
	assert.True(t, apperrors.IsNotFound(err))

	list, err := dir.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []repo.Organization{{Name: "Acme", ID: "1"}, {Name: "globex"}, {Name: "initech", ID: "7"}}, list)
}

func TestStatic_Duplicate(t *testing.T) {
	_, err := NewStatic([]string{"acme", "ACME:2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate organization")
}

const resolveQuery = `SELECT name, external_id FROM organizations WHERE lower(name) = lower($1)`

func TestPostgres_Resolve(t *testing.T) {
	db, mock := testutil.SetupMockDB(t)
	dir := NewPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(resolveQuery)).WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"name", "external_id"}).AddRow("Acme", "42"))
	org, err := dir.Resolve(ctx, " acme ")
	require.NoError(t, err)
	assert.Equal(t, repo.Organization{Name: "Acme", ID: "42"}, org)

	mock.ExpectQuery(regexp.QuoteMeta(resolveQuery)).WithArgs("globex").
		WillReturnRows(sqlmock.NewRows([]string{"name", "external_id"}).AddRow("globex", nil))
	org, err = dir.Resolve(ctx, "globex")
	require.NoError(t, err)
	assert.Empty(t, org.ID)

	mock.ExpectQuery(regexp.QuoteMeta(resolveQuery)).WithArgs("ghost").WillReturnError(sql.ErrNoRows)
	_, err = dir.Resolve(ctx, "ghost")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = dir.Resolve(ctx, "  ")
	assert.Equal(t, apperrors.ErrCodeBadRequest, apperrors.GetCode(err))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_MissingTable(t *testing.T) {
	db, mock := testutil.SetupMockDB(t)
	dir := NewPostgres(db)

	mock.ExpectQuery(regexp.QuoteMeta(resolveQuery)).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UndefinedTable, Message: `relation "organizations" does not exist`})
	_, err := dir.Resolve(context.Background(), "acme")
	assert.ErrorIs(t, err, ErrNotInitialized)

	mock.ExpectQuery("SELECT name, external_id FROM organizations ORDER BY").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UndefinedTable})
	_, err = dir.List(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_List(t *testing.T) {
	db, mock := testutil.SetupMockDB(t)
	dir := NewPostgres(db)

	mock.ExpectQuery("SELECT name, external_id FROM organizations ORDER BY").
		WillReturnRows(sqlmock.NewRows([]string{"name", "external_id"}).
			AddRow("acme", "1").
			AddRow("globex", nil))
	list, err := dir.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []repo.Organization{{Name: "acme", ID: "1"}, {Name: "globex"}}, list)

	mock.ExpectQuery("SELECT name, external_id FROM organizations ORDER BY").
		WillReturnError(errors.New("connection reset"))
	_, err = dir.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list organizations")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpsertAndRemove(t *testing.T) {
	db, mock := testutil.SetupMockDB(t)
	dir := NewPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO organizations").WithArgs("acme", "1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, dir.Upsert(ctx, repo.Organization{Name: " acme ", ID: "1"}))

	mock.ExpectExec("INSERT INTO organizations").WithArgs("globex", nil).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, dir.Upsert(ctx, repo.Organization{Name: "globex"}))

	err := dir.Upsert(ctx, repo.Organization{})
	assert.Equal(t, "name", apperrors.GetField(err))

	mock.ExpectExec("DELETE FROM organizations").WithArgs("acme").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, dir.Remove(ctx, "acme"))

	mock.ExpectExec("DELETE FROM organizations").WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.True(t, apperrors.IsNotFound(dir.Remove(ctx, "ghost")))

	require.NoError(t, mock.ExpectationsWereMet())
}

type countingDirectory struct {
	calls atomic.Int32
	org   repo.Organization
	err   error
}

func (c *countingDirectory) Resolve(context.Context, string) (repo.Organization, error) {
	c.calls.Add(1)
	return c.org, c.err
}

func (c *countingDirectory) List(context.Context) ([]repo.Organization, error) {
	return []repo.Organization{c.org}, nil
}

func TestCached_Resolve(t *testing.T) {
	client, mr := testutil.SetupTestRedis(t)
	next := &countingDirectory{org: repo.Organization{Name: "Acme", ID: "1"}}
	dir := NewCached(next, CachedOptions{Client: client, TTL: time.Minute, Logger: discardLogger()})
	ctx := context.Background()

	for range 3 {
		org, err := dir.Resolve(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, next.org, org)
	}
	org, err := dir.Resolve(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, next.org, org)
	assert.Equal(t, int32(1), next.calls.Load())

	require.NoError(t, dir.Invalidate(ctx, "Acme"))
	_, err = dir.Resolve(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())

	if mr != nil {
		mr.FastForward(2 * time.Minute)
		_, err = dir.Resolve(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, int32(3), next.calls.Load())
	}
}

func TestCached_ErrorsAreNotCached(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	next := &countingDirectory{err: apperrors.NotFound("organization not found")}
	dir := NewCached(next, CachedOptions{Client: client, Logger: discardLogger()})

	for range 2 {
		_, err := dir.Resolve(context.Background(), "ghost")
		assert.True(t, apperrors.IsNotFound(err))
	}
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCached_CorruptEntryFallsThrough(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	next := &countingDirectory{org: repo.Organization{Name: "acme"}}
	dir := NewCached(next, CachedOptions{Client: client, Logger: discardLogger()})
	require.NoError(t, client.Set(context.Background(), cacheKey("acme"), "{not json", 0).Err())

	org, err := dir.Resolve(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", org.Name)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCached_WithoutClient(t *testing.T) {
	next := &countingDirectory{org: repo.Organization{Name: "acme"}}
	dir := NewCached(next, CachedOptions{})
	for range 2 {
		_, err := dir.Resolve(context.Background(), "acme")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), next.calls.Load())
	require.NoError(t, dir.Invalidate(context.Background(), "acme"))

	list, err := dir.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
