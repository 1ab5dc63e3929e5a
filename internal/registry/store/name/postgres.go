package name

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"namedeed/internal/registry/models"
	id "namedeed/pkg/domain"
	"namedeed/pkg/platform/sentinel"
	"namedeed/pkg/platform/tx"
)

// Schema is the name map DDL, applied by EnsureSchema. The primary key is
// the contention point: concurrent inserts of one name resolve to a
// single winner inside Postgres.
const Schema = `
CREATE TABLE IF NOT EXISTS names (
	name       text PRIMARY KEY,
	owner      text NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
);
`

const uniqueViolation = "23505"

// PostgresStore persists the name map in PostgreSQL. Writes join a caller
// transaction when one is carried in context.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed name store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema applies the name map DDL.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure names schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateIfAvailable(ctx context.Context, record models.NameRecord) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO names (name, owner, created_at) VALUES ($1, $2, $3)`,
		record.Name, record.Owner.String(), record.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert name %q: %w", record.Name, err)
	}
	return nil
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (models.NameRecord, error) {
	q := tx.Resolve(ctx, s.db)
	var record models.NameRecord
	var owner string
	err := q.QueryRowContext(ctx,
		`SELECT name, owner, created_at FROM names WHERE name = $1`,
		name).Scan(&record.Name, &owner, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NameRecord{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.NameRecord{}, fmt.Errorf("find name %q: %w", name, err)
	}
	record.Owner = id.Account(owner)
	return record, nil
}
