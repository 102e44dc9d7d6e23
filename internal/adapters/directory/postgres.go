package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/target/repo-gateway/internal/domain/repo"
	apperrors "github.com/target/repo-gateway/internal/errors"
	"github.com/target/repo-gateway/internal/ports"
)

// ErrNotInitialized is returned when the organizations table does not exist yet.
var ErrNotInitialized = errors.New("organization directory is not initialized; run migrations")

// Postgres reads organizations from the organizations table.
type Postgres struct {
	DB *sql.DB
}

var _ ports.OrganizationDirectory = (*Postgres)(nil)

// NewPostgres creates a Postgres-backed directory.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{DB: db}
}

// Resolve looks up name case-insensitively.
func (p *Postgres) Resolve(ctx context.Context, name string) (repo.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return repo.Organization{}, apperrors.BadRequest("organization name is required")
	}

	var (
		org repo.Organization
		id  sql.NullString
	)
	err := p.DB.QueryRowContext(ctx,
		`SELECT name, external_id FROM organizations WHERE lower(name) = lower($1)`, name).
		Scan(&org.Name, &id)
	if errors.Is(err, sql.ErrNoRows) {
		return repo.Organization{}, apperrors.NotFoundf("organization %q not found", name)
	}
	if err != nil {
		return repo.Organization{}, mapError("resolve organization", err)
	}
	org.ID = id.String
	return org, nil
}

// List returns every organization ordered by name.
func (p *Postgres) List(ctx context.Context) ([]repo.Organization, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT name, external_id FROM organizations ORDER BY lower(name)`)
	if err != nil {
		return nil, mapError("list organizations", err)
	}
	defer rows.Close()

	var out []repo.Organization
	for rows.Next() {
		var (
			org repo.Organization
			id  sql.NullString
		)
		if err := rows.Scan(&org.Name, &id); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		org.ID = id.String
		out = append(out, org)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list organizations", err)
	}
	return out, nil
}

// Upsert inserts or renames-in-place an organization keyed by its lower-cased name.
func (p *Postgres) Upsert(ctx context.Context, org repo.Organization) error {
	name := strings.TrimSpace(org.Name)
	if name == "" {
		return apperrors.ValidationField("name", "organization name is required")
	}
	var id sql.NullString
	if org.ID != "" {
		id = sql.NullString{String: org.ID, Valid: true}
	}
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO organizations (name, external_id)
		VALUES ($1, $2)
		ON CONFLICT (lower(name)) DO UPDATE SET name = EXCLUDED.name, external_id = EXCLUDED.external_id, updated_at = now()`,
		name, id)
	if err != nil {
		return mapError("upsert organization", err)
	}
	return nil
}

// Remove deletes an organization. Removing an unknown organization is a NotFound error.
func (p *Postgres) Remove(ctx context.Context, name string) error {
	res, err := p.DB.ExecContext(ctx, `DELETE FROM organizations WHERE lower(name) = lower($1)`, strings.TrimSpace(name))
	if err != nil {
		return mapError("remove organization", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove organization: %w", err)
	}
	if n == 0 {
		return apperrors.NotFoundf("organization %q not found", name)
	}
	return nil
}

func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return fmt.Errorf("%s: %w", op, ErrNotInitialized)
	}
	return fmt.Errorf("%s: %w", op, err)
}
