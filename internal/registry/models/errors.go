package models

import (
	"errors"
	"fmt"
	"math/big"
)

// Purchase and administration failure modes. These carry the fields
// callers need to distinguish "retry with the right amount" from
// "permanently taken"; services wrap them with domain-error codes.
var (
	ErrNameTaken      = errors.New("name already taken")
	ErrParentNotFound = errors.New("parent name not found")
	ErrInvalidPrice   = errors.New("registration price must be positive")
	ErrUnauthorized   = errors.New("caller is not the administrator")
)

// IncorrectAmountError means the payment (or token allowance) does not
// exactly equal the quoted price. Exact equality is intentional: the
// registry makes no change.
type IncorrectAmountError struct {
	Received *big.Int
	Expected *big.Int
}

func (e *IncorrectAmountError) Error() string {
	return fmt.Sprintf("incorrect payment: received %s, expected %s", e.Received, e.Expected)
}

// OracleError means the price feed returned a nil, zero, or negative rate
// and no native-currency quote can be derived.
type OracleError struct {
	Answer *big.Int
}

func (e *OracleError) Error() string {
	if e.Answer == nil {
		return "oracle returned no rate"
	}
	return fmt.Sprintf("oracle returned invalid rate %s", e.Answer)
}
