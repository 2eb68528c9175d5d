package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mmaioli/projects/internal/model"
	"github.com/mmaioli/projects/internal/repository"
)

// ComponentPostgres is a PostgreSQL implementation of
// repository.ComponentRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type ComponentPostgres struct {
	db *sql.DB
}

// NewComponentPostgres creates a new ComponentPostgres repository.
func NewComponentPostgres(db *sql.DB) *ComponentPostgres {
	return &ComponentPostgres{db: db}
}

var _ repository.ComponentRepository = (*ComponentPostgres)(nil)

// Create inserts a new component row and returns the stored record.
func (r *ComponentPostgres) Create(ctx context.Context, comp *model.Component) (*model.Component, error) {
	const q = `
		INSERT INTO components (id, name, parameters, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, parameters, created_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, q,
		comp.ID,
		comp.Name,
		comp.Parameters,
		comp.CreatedAt,
		comp.UpdatedAt,
	)
	return scanComponent(row)
}

// FindByID fetches a single component by its ID. Returns sql.ErrNoRows when
// the identifier does not resolve.
func (r *ComponentPostgres) FindByID(ctx context.Context, id string) (*model.Component, error) {
	const q = `
		SELECT id, name, parameters, created_at, updated_at
		FROM components
		WHERE id = $1
	`
	return scanComponent(r.db.QueryRowContext(ctx, q, id))
}

// Update persists name, parameters and updated_at for an existing row and
// returns the stored record.
func (r *ComponentPostgres) Update(ctx context.Context, comp *model.Component) (*model.Component, error) {
	const q = `
		UPDATE components
		SET name = $2, parameters = $3, updated_at = $4
		WHERE id = $1
		RETURNING id, name, parameters, created_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, q,
		comp.ID,
		comp.Name,
		comp.Parameters,
		comp.UpdatedAt,
	)
	return scanComponent(row)
}

// Delete removes a component by ID. A delete that touches no rows reports
// sql.ErrNoRows so the caller can map it to the not-found response.
func (r *ComponentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM components WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return normalizeIDErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns every component row, newest first.
func (r *ComponentPostgres) List(ctx context.Context) ([]model.Component, error) {
	const q = `
		SELECT id, name, parameters, created_at, updated_at
		FROM components
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Component, 0)
	for rows.Next() {
		var (
			c      model.Component
			params sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &params, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if params.Valid {
			c.Parameters = &params.String
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// normalizeIDErr maps Postgres' invalid-uuid-syntax failure (SQLSTATE 22P02)
// onto sql.ErrNoRows: the id column is UUID-typed, so a string that does not
// parse as a uuid can never match a row and callers must see it as plain
// not-found, not as an infrastructure failure.
func normalizeIDErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
		return sql.ErrNoRows
	}
	return err
}

func scanComponent(row rowScanner) (*model.Component, error) {
	var (
		c      model.Component
		params sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &params, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, normalizeIDErr(err)
	}
	if params.Valid {
		c.Parameters = &params.String
	}
	return &c, nil
}
