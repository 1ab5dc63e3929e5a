// Package domain defines the identifier and value types shared across
// namedeed modules. Keeping them here avoids import cycles between the
// registry and escrow packages.
package domain

import (
	"fmt"
	"strings"
)

// Account identifies a party on the payment rails: a 0x-prefixed,
// 20-byte hex address. Accounts are stored lowercase so map lookups and
// database keys are case-insensitive by construction.
type Account string

const accountHexLen = 40

// ParseAccount validates and normalizes an account address.
func ParseAccount(s string) (Account, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", fmt.Errorf("account %q: missing 0x prefix", s)
	}
	hex := s[2:]
	if len(hex) != accountHexLen {
		return "", fmt.Errorf("account %q: want %d hex chars, got %d", s, accountHexLen, len(hex))
	}
	for _, c := range hex {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return "", fmt.Errorf("account %q: invalid hex character %q", s, c)
		}
	}
	return Account("0x" + strings.ToLower(hex)), nil
}

// IsZero reports whether the account is unset or the all-zero address,
// both of which mean "no owner".
func (a Account) IsZero() bool {
	if a == "" {
		return true
	}
	return a == "0x0000000000000000000000000000000000000000"
}

func (a Account) String() string {
	return string(a)
}

// Currency selects one of the two payment rails.
type Currency string

const (
	// CurrencyNative is the value-transfer currency, denominated in wei.
	CurrencyNative Currency = "ETH"
	// CurrencyStable is the fungible token, denominated in its smallest
	// unit (6 decimals).
	CurrencyStable Currency = "USDC"
)

// ParseCurrency accepts the two supported currency codes, case-insensitively.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(s))) {
	case CurrencyNative:
		return CurrencyNative, nil
	case CurrencyStable:
		return CurrencyStable, nil
	}
	return "", fmt.Errorf("unsupported currency %q", s)
}

// IsValid reports whether c is one of the supported currencies.
func (c Currency) IsValid() bool {
	return c == CurrencyNative || c == CurrencyStable
}

func (c Currency) String() string {
	return string(c)
}

// Decimals returns the decimal precision of the currency's smallest unit.
func (c Currency) Decimals() int32 {
	if c == CurrencyNative {
		return 18
	}
	return 6
}
