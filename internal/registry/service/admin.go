package service

import (
	"context"
	"errors"
	"math/big"

	escrowmodels "namedeed/internal/escrow/models"
	"namedeed/internal/registry/models"
	id "namedeed/pkg/domain"
	dErrors "namedeed/pkg/domain-errors"
	"namedeed/pkg/platform/events"
	"namedeed/pkg/platform/sentinel"
	"namedeed/pkg/requestcontext"
)

// requireAdmin resolves the authenticated caller and checks it against
// the stored admin account.
func (s *Service) requireAdmin(ctx context.Context) (id.Account, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return "", dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	admin, err := s.state.Admin(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeFailedPrecondition, "administrator is not configured")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to read administrator")
	}
	if caller != admin {
		return "", dErrors.Wrap(models.ErrUnauthorized, dErrors.CodeUnauthorized, "administrator only")
	}
	return caller, nil
}

// ChangePrice sets a new registration price, in stablecoin smallest
// units. Administrator only. Quotes issued before the change are not
// honored; buyers re-quote.
func (s *Service) ChangePrice(ctx context.Context, newPrice *big.Int) error {
	ctx, span := s.tracer.Start(ctx, "registry.ChangePrice")
	defer span.End()

	if _, err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if newPrice == nil || newPrice.Sign() <= 0 {
		return dErrors.Wrap(models.ErrInvalidPrice, dErrors.CodeInvalidInput, "price must be positive")
	}
	// The price is a uint64 of stablecoin smallest units; the audit
	// event carries it as such.
	if !newPrice.IsUint64() {
		return dErrors.Wrap(models.ErrInvalidPrice, dErrors.CodeInvalidInput, "price exceeds the supported range")
	}
	if err := s.state.SetPrice(ctx, newPrice); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set price")
	}

	s.metrics.IncrementPriceChanges()
	s.emit(ctx, events.TypePriceChanged, events.PriceChanged{NewPrice: newPrice.Uint64()})
	s.logger.InfoContext(ctx, "registration price changed",
		"new_price", newPrice.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// TransferAdmin hands administration to another account. Administrator
// only; takes effect immediately.
func (s *Service) TransferAdmin(ctx context.Context, newAdmin id.Account) error {
	ctx, span := s.tracer.Start(ctx, "registry.TransferAdmin")
	defer span.End()

	caller, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}
	if newAdmin.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "new administrator account is required")
	}
	if err := s.state.SetAdmin(ctx, newAdmin); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set administrator")
	}

	s.logger.InfoContext(ctx, "administration transferred",
		"from", caller,
		"to", newAdmin,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// WithdrawOperatorFunds pays the administrator the registry's revenue in
// one currency: the registry account's rail balance minus the escrow
// frozen total, which belongs to name owners and is never touchable.
// The computation is stateless; nothing is recorded until the transfer
// succeeds, so a rail failure leaves everything withdrawable as before.
func (s *Service) WithdrawOperatorFunds(ctx context.Context, currency id.Currency) (*big.Int, error) {
	ctx, span := s.tracer.Start(ctx, "registry.WithdrawOperatorFunds")
	defer span.End()

	caller, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if !currency.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported currency")
	}

	balance, err := s.railBalance(ctx, currency)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read registry balance")
	}
	frozen, err := s.escrow.FrozenBalance(ctx, currency)
	if err != nil {
		return nil, err
	}

	available := new(big.Int).Sub(balance, frozen)
	// Funds pulled for purchases still in flight are on the rail but
	// not yet frozen; they are not revenue.
	available.Sub(available, s.pendingAmount(currency))
	if available.Sign() <= 0 {
		return nil, dErrors.Wrap(escrowmodels.ErrNothingToWithdraw, dErrors.CodeFailedPrecondition, "no operator revenue available")
	}

	if err := s.payOut(ctx, currency, caller, available); err != nil {
		s.logger.WarnContext(ctx, "operator payout rejected by rail",
			"currency", currency,
			"amount", available.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(&escrowmodels.WithdrawFailedError{Account: caller, Cause: err},
			dErrors.CodeUnavailable, "outbound transfer rejected")
	}

	s.metrics.IncrementOperatorWithdrawals(currency.String())
	s.emit(ctx, events.TypeWithdrawal, events.Withdrawal{Account: caller, Amount: available})
	return available, nil
}

func (s *Service) railBalance(ctx context.Context, currency id.Currency) (*big.Int, error) {
	if currency == id.CurrencyStable {
		return s.stable.BalanceOf(ctx, s.registryAccount)
	}
	return s.native.BalanceOf(ctx, s.registryAccount)
}

func (s *Service) payOut(ctx context.Context, currency id.Currency, to id.Account, amount *big.Int) error {
	if currency == id.CurrencyStable {
		return s.stable.Transfer(ctx, to, amount)
	}
	return s.native.Send(ctx, to, amount)
}
