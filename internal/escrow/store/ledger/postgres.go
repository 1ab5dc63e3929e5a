package ledger

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

// Schema is the ledger DDL, applied by EnsureSchema. Amounts are
// numeric(78,0): wide enough for any 256-bit quantity, no fractional part.
const Schema = `
CREATE TABLE IF NOT EXISTS escrow_funds (
	currency   text NOT NULL,
	account    text NOT NULL,
	amount     numeric(78,0) NOT NULL DEFAULT 0,
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (currency, account)
);

CREATE TABLE IF NOT EXISTS escrow_frozen (
	currency   text PRIMARY KEY,
	amount     numeric(78,0) NOT NULL DEFAULT 0,
	updated_at timestamptz NOT NULL DEFAULT now()
);
`

// PostgresStore persists the ledger in PostgreSQL. Credit joins a caller
// transaction when one is carried in context (the child-purchase path);
// WithdrawAll always manages its own transaction because the row lock must
// span the outbound transfer.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ledger store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema applies the ledger DDL.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Credit(ctx context.Context, currency id.Currency, account id.Account, amount *big.Int) error {
	if _, ok := tx.From(ctx); ok {
		return s.credit(ctx, tx.Resolve(ctx, s.db), currency, account, amount)
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin credit tx: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	if err := s.credit(ctx, dbTx, currency, account, amount); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit credit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) credit(ctx context.Context, q tx.Querier, currency id.Currency, account id.Account, amount *big.Int) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO escrow_funds (currency, account, amount, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (currency, account)
		DO UPDATE SET amount = escrow_funds.amount + EXCLUDED.amount, updated_at = now()`,
		currency.String(), account.String(), amount.String())
	if err != nil {
		return fmt.Errorf("credit funds: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO escrow_frozen (currency, amount, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (currency)
		DO UPDATE SET amount = escrow_frozen.amount + EXCLUDED.amount, updated_at = now()`,
		currency.String(), amount.String())
	if err != nil {
		return fmt.Errorf("credit frozen: %w", err)
	}
	return nil
}

func (s *PostgresStore) WithdrawAll(ctx context.Context, currency id.Currency, account id.Account, send func(amount *big.Int) error) (*big.Int, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin withdraw tx: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	var raw string
	err = dbTx.QueryRowContext(ctx, `
		SELECT amount FROM escrow_funds
		WHERE currency = $1 AND account = $2
		FOR UPDATE`,
		currency.String(), account.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock ledger entry: %w", err)
	}

	amount, err := parseNumeric(raw)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, sentinel.ErrNotFound
	}

	// The row lock spans the outbound transfer so retries and concurrent
	// attempts serialize on this entry. A send failure rolls back,
	// leaving the entry claimable.
	if err := send(amount); err != nil {
		return nil, err
	}

	if _, err := dbTx.ExecContext(ctx, `
		UPDATE escrow_funds SET amount = 0, updated_at = now()
		WHERE currency = $1 AND account = $2`,
		currency.String(), account.String()); err != nil {
		return nil, fmt.Errorf("clear ledger entry: %w", err)
	}
	if _, err := dbTx.ExecContext(ctx, `
		UPDATE escrow_frozen SET amount = amount - $2, updated_at = now()
		WHERE currency = $1`,
		currency.String(), amount.String()); err != nil {
		return nil, fmt.Errorf("decrement frozen balance: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit withdraw tx: %w", err)
	}
	return amount, nil
}

func (s *PostgresStore) FrozenBalance(ctx context.Context, currency id.Currency) (*big.Int, error) {
	q := tx.Resolve(ctx, s.db)
	var raw string
	err := q.QueryRowContext(ctx,
		`SELECT amount FROM escrow_frozen WHERE currency = $1`,
		currency.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read frozen balance: %w", err)
	}
	return parseNumeric(raw)
}

func (s *PostgresStore) Claimable(ctx context.Context, currency id.Currency, account id.Account) (*big.Int, error) {
	q := tx.Resolve(ctx, s.db)
	var raw string
	err := q.QueryRowContext(ctx,
		`SELECT amount FROM escrow_funds WHERE currency = $1 AND account = $2`,
		currency.String(), account.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read claimable balance: %w", err)
	}
	return parseNumeric(raw)
}

func parseNumeric(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("malformed ledger amount %q", raw)
	}
	return amount, nil
}
