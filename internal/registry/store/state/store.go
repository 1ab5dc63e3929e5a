// Package state persists the registry's mutable configuration: the
// current sale price and the admin account.
package state

import (
	"context"
	"math/big"

	id "namedeed/pkg/domain"
)

// Store is the registry configuration port. Price is denominated in the
// stablecoin's smallest unit.
type Store interface {
	Price(ctx context.Context) (*big.Int, error)
	SetPrice(ctx context.Context, price *big.Int) error

	Admin(ctx context.Context) (id.Account, error)
	SetAdmin(ctx context.Context, admin id.Account) error

	// Seed installs the initial admin and price iff none are set yet,
	// so restarts never clobber live configuration.
	Seed(ctx context.Context, admin id.Account, price *big.Int) error
}
