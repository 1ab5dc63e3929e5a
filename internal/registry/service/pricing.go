package service

import (
	"context"
	"errors"
	"math/big"

	"namedeed/internal/registry/models"
	id "namedeed/pkg/domain"
	dErrors "namedeed/pkg/domain-errors"
	"namedeed/pkg/platform/sentinel"
)

// Native quotes scale the stored stablecoin price (6 decimals) by 10^2 to
// the oracle answer's 8 decimals, then by 10^18 for wei, before dividing
// by the answer. Integer division truncates toward zero.
var (
	stableToAnswerScale = big.NewInt(100)
	weiScale            = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

// Price returns the current registration price in stablecoin smallest
// units.
func (s *Service) Price(ctx context.Context) (*big.Int, error) {
	price, err := s.state.Price(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeFailedPrecondition, "registration price is not configured")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read price")
	}
	return price, nil
}

// QuoteNative derives the native-currency price from the stablecoin price
// and a fresh oracle read. The rate is never cached: every quote reflects
// the feed at call time.
func (s *Service) QuoteNative(ctx context.Context) (*big.Int, error) {
	price, err := s.Price(ctx)
	if err != nil {
		return nil, err
	}

	rate, err := s.oracle.LatestRate(ctx)
	if err != nil {
		s.metrics.IncrementOracleErrors()
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "price oracle unreachable")
	}
	if rate.Answer == nil || rate.Answer.Sign() <= 0 {
		s.metrics.IncrementOracleErrors()
		return nil, dErrors.Wrap(&models.OracleError{Answer: rate.Answer},
			dErrors.CodeFailedPrecondition, "price oracle returned unusable rate")
	}

	quote := new(big.Int).Mul(price, stableToAnswerScale)
	quote.Mul(quote, weiScale)
	quote.Quo(quote, rate.Answer)
	return quote, nil
}

// PriceIn quotes the registration price in the requested currency.
func (s *Service) PriceIn(ctx context.Context, currency id.Currency) (*big.Int, error) {
	switch currency {
	case id.CurrencyStable:
		return s.Price(ctx)
	case id.CurrencyNative:
		return s.QuoteNative(ctx)
	}
	return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported currency")
}
