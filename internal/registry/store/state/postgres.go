package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	id "namedeed/pkg/domain"
	"namedeed/pkg/platform/sentinel"
	"namedeed/pkg/platform/tx"
)

// Schema is the registry configuration DDL, applied by EnsureSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS registry_state (
	key   text PRIMARY KEY,
	value text NOT NULL
);
`

const (
	keyPrice = "price"
	keyAdmin = "admin"
)

// PostgresStore persists registry configuration as a key/value table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed configuration store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema applies the registry configuration DDL.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure registry_state schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Price(ctx context.Context) (*big.Int, error) {
	raw, err := s.get(ctx, keyPrice)
	if err != nil {
		return nil, err
	}
	price, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("parse stored price %q", raw)
	}
	return price, nil
}

func (s *PostgresStore) SetPrice(ctx context.Context, price *big.Int) error {
	return s.set(ctx, keyPrice, price.String())
}

func (s *PostgresStore) Admin(ctx context.Context) (id.Account, error) {
	raw, err := s.get(ctx, keyAdmin)
	if err != nil {
		return "", err
	}
	return id.Account(raw), nil
}

func (s *PostgresStore) SetAdmin(ctx context.Context, admin id.Account) error {
	return s.set(ctx, keyAdmin, admin.String())
}

func (s *PostgresStore) Seed(ctx context.Context, admin id.Account, price *big.Int) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO registry_state (key, value) VALUES ($1, $2), ($3, $4)
		 ON CONFLICT (key) DO NOTHING`,
		keyAdmin, admin.String(), keyPrice, price.String())
	if err != nil {
		return fmt.Errorf("seed registry state: %w", err)
	}
	return nil
}

func (s *PostgresStore) get(ctx context.Context, key string) (string, error) {
	q := tx.Resolve(ctx, s.db)
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM registry_state WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read registry state %q: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStore) set(ctx context.Context, key, value string) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO registry_state (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("write registry state %q: %w", key, err)
	}
	return nil
}
