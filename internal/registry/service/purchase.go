package service

import (
	"context"
	"errors"
	"math/big"

	"namedeed/internal/registry/models"
	id "namedeed/pkg/domain"
	dErrors "namedeed/pkg/domain-errors"
	"namedeed/pkg/platform/events"
	"namedeed/pkg/platform/sentinel"
	"namedeed/pkg/requestcontext"
)

const (
	kindRoot  = "root"
	kindChild = "child"
)

// BuyRootName sells a top-level name to the authenticated caller. Payment
// must exactly equal the quote in the chosen currency; on any rejection
// no funds move and no state changes.
func (s *Service) BuyRootName(ctx context.Context, nameKey string, currency id.Currency, payment *big.Int) (models.NameRecord, error) {
	ctx, span := s.tracer.Start(ctx, "registry.BuyRootName")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return models.NameRecord{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if err := models.ValidateName(nameKey); err != nil {
		return models.NameRecord{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid name")
	}

	return s.purchase(ctx, purchaseRequest{
		kind:     kindRoot,
		fullName: nameKey,
		buyer:    caller,
		currency: currency,
		payment:  payment,
	})
}

// BuyChildName sells a name under an existing parent. The full price is
// credited to the parent name's owner in escrow, atomically with the
// registration.
func (s *Service) BuyChildName(ctx context.Context, label, parent string, currency id.Currency, payment *big.Int) (models.NameRecord, error) {
	ctx, span := s.tracer.Start(ctx, "registry.BuyChildName")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return models.NameRecord{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if err := models.ValidateLabel(label); err != nil {
		return models.NameRecord{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid label")
	}
	if err := models.ValidateName(parent); err != nil {
		return models.NameRecord{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid parent name")
	}

	parentRecord, err := s.names.FindByName(ctx, parent)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementPurchaseRejections("parent_not_found")
			return models.NameRecord{}, dErrors.Wrap(models.ErrParentNotFound, dErrors.CodeNotFound, "parent name is not registered")
		}
		return models.NameRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up parent name")
	}

	return s.purchase(ctx, purchaseRequest{
		kind:        kindChild,
		fullName:    models.FullName(label, parent),
		buyer:       caller,
		currency:    currency,
		payment:     payment,
		beneficiary: parentRecord.Owner,
	})
}

// GetOwner resolves a fully-qualified name to its owner.
func (s *Service) GetOwner(ctx context.Context, nameKey string) (models.NameRecord, error) {
	record, err := s.names.FindByName(ctx, nameKey)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.NameRecord{}, dErrors.New(dErrors.CodeNotFound, "name is not registered")
		}
		return models.NameRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up name")
	}
	return record, nil
}

type purchaseRequest struct {
	kind        string
	fullName    string
	buyer       id.Account
	currency    id.Currency
	payment     *big.Int
	beneficiary id.Account
}

// purchase runs the shared sale protocol: quote, exact-payment check,
// fund pull, then the atomic register-and-credit transaction. Funds are
// pulled before the transaction so no lock spans the inbound transfer;
// any failure after the pull triggers a compensating refund.
func (s *Service) purchase(ctx context.Context, req purchaseRequest) (models.NameRecord, error) {
	quote, err := s.PriceIn(ctx, req.currency)
	if err != nil {
		return models.NameRecord{}, err
	}
	// Integer division can truncate an extreme native quote to zero;
	// names are never sold for nothing.
	if quote.Sign() <= 0 {
		s.metrics.IncrementPurchaseRejections("zero_quote")
		return models.NameRecord{}, dErrors.New(dErrors.CodeFailedPrecondition, "quoted price truncates to zero")
	}

	// Cheap pre-check so obviously-taken names are rejected before any
	// rail traffic. The transaction below is still the authority.
	if _, err := s.names.FindByName(ctx, req.fullName); err == nil {
		s.metrics.IncrementPurchaseRejections("name_taken")
		return models.NameRecord{}, dErrors.Wrap(models.ErrNameTaken, dErrors.CodeConflict, "name is already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return models.NameRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check name availability")
	}

	if err := s.checkExactPayment(ctx, req, quote); err != nil {
		return models.NameRecord{}, err
	}

	if err := s.pullFunds(ctx, req, quote); err != nil {
		return models.NameRecord{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "payment transfer failed")
	}
	// Until the transaction resolves, the pulled funds sit in the
	// registry's rail balance without being frozen; the pending
	// aggregate keeps operator withdrawals off them.
	s.addPending(req.currency, quote)

	record := models.NameRecord{
		Name:      req.fullName,
		Owner:     req.buyer,
		CreatedAt: requestcontext.Now(ctx),
	}

	err = s.storeTx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.names.CreateIfAvailable(txCtx, record); err != nil {
			return err
		}
		if !req.beneficiary.IsZero() {
			if err := s.escrow.Credit(txCtx, req.currency, req.beneficiary, quote); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// All-or-nothing: whatever made the transaction fail, the
		// buyer gets the pulled funds back.
		s.refund(ctx, req, quote)
		s.subPending(req.currency, quote)
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementPurchaseRejections("name_taken")
			return models.NameRecord{}, dErrors.Wrap(models.ErrNameTaken, dErrors.CodeConflict, "name is already registered")
		}
		return models.NameRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register name")
	}
	s.subPending(req.currency, quote)

	s.metrics.IncrementRegistrations(req.kind, req.currency.String())
	s.emit(ctx, events.TypeNameRegistered, events.NameRegistered{Name: record.Name, Owner: record.Owner})
	s.logger.InfoContext(ctx, "name registered",
		"name", record.Name,
		"owner", record.Owner,
		"kind", req.kind,
		"currency", req.currency,
		"request_id", requestcontext.RequestID(ctx),
	)
	return record, nil
}

// checkExactPayment enforces the exact-amount protocol. For the
// stablecoin the caller's allowance to the registry must equal the quote;
// for native value the attached payment must equal it. Over- and
// underpayment are rejected alike.
func (s *Service) checkExactPayment(ctx context.Context, req purchaseRequest, quote *big.Int) error {
	switch req.currency {
	case id.CurrencyStable:
		allowance, err := s.stable.Allowance(ctx, req.buyer, s.registryAccount)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read token allowance")
		}
		if allowance == nil || allowance.Cmp(quote) != 0 {
			s.metrics.IncrementPurchaseRejections("incorrect_amount")
			return dErrors.Wrap(&models.IncorrectAmountError{Received: allowance, Expected: quote},
				dErrors.CodeInvalidInput, "token allowance must equal the price exactly")
		}
	case id.CurrencyNative:
		if req.payment == nil || req.payment.Cmp(quote) != 0 {
			s.metrics.IncrementPurchaseRejections("incorrect_amount")
			return dErrors.Wrap(&models.IncorrectAmountError{Received: req.payment, Expected: quote},
				dErrors.CodeInvalidInput, "attached value must equal the price exactly")
		}
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "unsupported currency")
	}
	return nil
}

func (s *Service) pullFunds(ctx context.Context, req purchaseRequest, quote *big.Int) error {
	if req.currency == id.CurrencyStable {
		return s.stable.TransferFrom(ctx, req.buyer, s.registryAccount, quote)
	}
	return s.native.Receive(ctx, req.buyer, quote)
}

// refund returns pulled funds after a failed registration. A failed
// refund is logged loudly; the funds sit in the registry account for
// manual reconciliation.
func (s *Service) refund(ctx context.Context, req purchaseRequest, quote *big.Int) {
	var err error
	if req.currency == id.CurrencyStable {
		err = s.stable.Transfer(ctx, req.buyer, quote)
	} else {
		err = s.native.Send(ctx, req.buyer, quote)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "refund after failed purchase failed",
			"name", req.fullName,
			"buyer", req.buyer,
			"currency", req.currency,
			"amount", quote.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
