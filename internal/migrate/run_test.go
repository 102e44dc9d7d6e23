package migrate

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/repo-gateway/internal/testutil"
)

func TestVersions(t *testing.T) {
	got, err := versions(fstest.MapFS{
		"migrations/0002_b.sql": {Data: []byte("b")},
		"migrations/0001_a.sql": {Data: []byte("a")},
		"migrations/README.md":  {Data: []byte("docs")},
		"migrations/sub/x.sql":  {Data: []byte("nested")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a", "0002_b"}, got)

	embedded, err := Versions()
	require.NoError(t, err)
	assert.Contains(t, embedded, "0001_organizations")
}

func expectMigration(mock sqlmock.Sqlmock, version string, exists bool) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).WithArgs(lockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`)).
		WithArgs(version).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func TestRun_AppliesPendingMigrations(t *testing.T) {
	db, mock := testutil.SetupMockDB(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	expectMigration(mock, "0001_organizations", false)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS organizations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO schema_migrations (version) VALUES ($1)`)).
		WithArgs("0001_organizations").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, Run(context.Background(), db, Options{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_SkipsAppliedMigrations(t *testing.T) {
	db, mock := testutil.SetupMockDB(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	expectMigration(mock, "0001_organizations", true)
	mock.ExpectRollback()

	require.NoError(t, Run(context.Background(), db, Options{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_FailedMigrationRollsBack(t *testing.T) {
	db, mock := testutil.SetupMockDB(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	expectMigration(mock, "0001_organizations", false)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS organizations").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err := Run(context.Background(), db, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exec migration 0001_organizations")
	require.NoError(t, mock.ExpectationsWereMet())
}
