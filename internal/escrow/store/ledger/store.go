// Package ledger stores the per-currency escrow ledger: each name owner's
// claimable funds plus the frozen-balance aggregate that operator
// withdrawals must never touch.
package ledger

import (
	"context"
	"math/big"

	id "namedeed/pkg/domain"
)

// Store is the escrow ledger port. Implementations must keep
// frozen(currency) == sum of all entries in that currency at every
// externally observable point.
type Store interface {
	// Credit adds already-received funds to an account's claimable
	// balance and the frozen aggregate, atomically. Entries are created
	// lazily on first credit.
	Credit(ctx context.Context, currency id.Currency, account id.Account, amount *big.Int) error

	// WithdrawAll drains an account's entry. It reads the pre-mutation
	// amount, invokes send with it while holding the entry, and zeroes
	// the entry (decrementing frozen) only after send succeeds. A zero
	// or missing entry yields sentinel.ErrNotFound; a send failure is
	// returned unchanged with the ledger untouched, so the account can
	// retry for the full original amount.
	WithdrawAll(ctx context.Context, currency id.Currency, account id.Account, send func(amount *big.Int) error) (*big.Int, error)

	// FrozenBalance returns the aggregate owed to name owners in one
	// currency.
	FrozenBalance(ctx context.Context, currency id.Currency) (*big.Int, error)

	// Claimable returns one account's claimable balance.
	Claimable(ctx context.Context, currency id.Currency, account id.Account) (*big.Int, error)
}
