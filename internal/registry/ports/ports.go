// Package ports defines the registry's external collaborator interfaces:
// the price oracle and the two payment rails. The core only ever touches
// these narrow surfaces; the concrete clients live in internal/rails.
package ports

import (
	"context"
	"math/big"
	"time"

	id "namedeed/pkg/domain"
)

// Rate is one oracle observation: the native/stable exchange rate as an
// 8-decimal fixed-point answer, plus when the feed last updated. The
// answer is signed because the upstream feed is; callers must reject
// non-positive answers. UpdatedAt is reported but not validated for
// recency.
type Rate struct {
	Answer    *big.Int
	UpdatedAt time.Time
}

// PriceOracle reports the latest native-to-stable exchange rate.
type PriceOracle interface {
	LatestRate(ctx context.Context) (Rate, error)
}

// StablecoinRail is the fungible-token transfer surface. Purchases are
// pulled via TransferFrom against a pre-approved allowance; payouts go
// out via Transfer from the registry's own account.
type StablecoinRail interface {
	BalanceOf(ctx context.Context, account id.Account) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender id.Account) (*big.Int, error)
	Transfer(ctx context.Context, to id.Account, amount *big.Int) error
	TransferFrom(ctx context.Context, from, to id.Account, amount *big.Int) error
}

// NativeRail is the value-transfer surface. Receive collects the value a
// buyer attached to a purchase; Send pays out of the registry's account.
type NativeRail interface {
	BalanceOf(ctx context.Context, account id.Account) (*big.Int, error)
	Receive(ctx context.Context, from id.Account, amount *big.Int) error
	Send(ctx context.Context, to id.Account, amount *big.Int) error
}
