package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS import_history (
	id          UUID PRIMARY KEY,
	file_name   TEXT NOT NULL,
	scope       TEXT NOT NULL,
	company_id  TEXT NOT NULL,
	employee_id TEXT,
	total       INTEGER NOT NULL,
	valid       INTEGER NOT NULL,
	invalid     INTEGER NOT NULL,
	success     INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	batch_id    TEXT,
	errors      TEXT[] NOT NULL DEFAULT '{}',
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS import_history_finished_at_idx ON import_history (finished_at DESC);
`

const entryColumns = `id, file_name, scope, company_id, employee_id, total, valid, invalid,
	success, failed, batch_id, errors, started_at, finished_at`

// Postgres stores history in the import_history table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an open pool. Call EnsureSchema before first use.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the table when it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create import_history: %w", err)
	}
	return nil
}

func (p *Postgres) Record(ctx context.Context, e Entry) error {
	e = prepare(e)
	errs := e.Errors
	if errs == nil {
		errs = []string{}
	}

	_, err := p.pool.Exec(ctx, `INSERT INTO import_history (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		pgtype.UUID{Bytes: e.ID, Valid: true},
		e.FileName,
		e.Scope,
		e.CompanyID,
		toPgText(e.EmployeeID),
		e.Total,
		e.Valid,
		e.Invalid,
		e.Success,
		e.Failed,
		toPgText(e.BatchID),
		errs,
		pgtype.Timestamptz{Time: e.StartedAt, Valid: true},
		pgtype.Timestamptz{Time: e.FinishedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("insert import history: %w", err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := p.pool.Query(ctx, `SELECT `+entryColumns+`
		FROM import_history ORDER BY finished_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (p *Postgres) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM import_history WHERE id = $1`,
		pgtype.UUID{Bytes: id, Valid: true})
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e          Entry
		id         pgtype.UUID
		employeeID pgtype.Text
		batchID    pgtype.Text
		started    pgtype.Timestamptz
		finished   pgtype.Timestamptz
	)
	err := row.Scan(&id, &e.FileName, &e.Scope, &e.CompanyID, &employeeID,
		&e.Total, &e.Valid, &e.Invalid, &e.Success, &e.Failed,
		&batchID, &e.Errors, &started, &finished)
	if err != nil {
		return Entry{}, err
	}

	if id.Valid {
		e.ID = uuid.UUID(id.Bytes)
	}
	if employeeID.Valid {
		e.EmployeeID = employeeID.String
	}
	if batchID.Valid {
		e.BatchID = batchID.String
	}
	e.StartedAt = started.Time
	e.FinishedAt = finished.Time
	return e, nil
}

func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}
