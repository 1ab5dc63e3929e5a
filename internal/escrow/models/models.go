// Package models defines the escrow ledger's domain types and its typed
// failure modes.
package models

import (
	"errors"
	"fmt"

	id "namedeed/pkg/domain"
)

// ErrNothingToWithdraw means the claimable (or operator-available) balance
// is zero.
var ErrNothingToWithdraw = errors.New("nothing to withdraw")

// WithdrawFailedError means the outbound transfer rail rejected the payout.
// The ledger entry is left untouched so the account can retry.
type WithdrawFailedError struct {
	Account id.Account
	Cause   error
}

func (e *WithdrawFailedError) Error() string {
	return fmt.Sprintf("withdraw for %s failed: %v", e.Account, e.Cause)
}

func (e *WithdrawFailedError) Unwrap() error {
	return e.Cause
}
