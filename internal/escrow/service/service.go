// Package service implements the escrow ledger operations: crediting name
// owners after child purchases and paying owners out on demand, while
// maintaining the frozen-balance invariant the registry's operator
// withdrawals depend on.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	escrowmetrics "namedeed/internal/escrow/metrics"
	"namedeed/internal/escrow/models"
	"namedeed/internal/escrow/store/ledger"
	id "namedeed/pkg/domain"
	dErrors "namedeed/pkg/domain-errors"
	"namedeed/pkg/platform/events"
	"namedeed/pkg/platform/sentinel"
	"namedeed/pkg/requestcontext"
)

// Payer executes outbound payouts on the rail matching the currency.
type Payer interface {
	Pay(ctx context.Context, currency id.Currency, to id.Account, amount *big.Int) error
}

// PayFunc adapts a function to the Payer interface.
type PayFunc func(ctx context.Context, currency id.Currency, to id.Account, amount *big.Int) error

func (f PayFunc) Pay(ctx context.Context, currency id.Currency, to id.Account, amount *big.Int) error {
	return f(ctx, currency, to, amount)
}

// Service owns the escrow ledger. Only the registry credits it; name
// owners drain their own entries through Withdraw.
type Service struct {
	ledger    ledger.Store
	payer     Payer
	logger    *slog.Logger
	metrics   *escrowmetrics.Metrics
	publisher events.Publisher
	tracer    trace.Tracer
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *escrowmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// New builds the escrow service.
func New(store ledger.Store, payer Payer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if payer == nil {
		return nil, fmt.Errorf("payer is required")
	}
	svc := &Service{
		ledger: store,
		payer:  payer,
		logger: slog.Default(),
		tracer: otel.Tracer("namedeed/escrow"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Credit earmarks already-received purchase proceeds for a name owner.
// The caller guarantees the funds are in hand; there is no failure path
// beyond infrastructure errors.
func (s *Service) Credit(ctx context.Context, currency id.Currency, account id.Account, amount *big.Int) error {
	ctx, span := s.tracer.Start(ctx, "escrow.Credit")
	defer span.End()

	if !currency.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unsupported currency")
	}
	if account.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "credit account is required")
	}
	if amount == nil || amount.Sign() <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "credit amount must be positive")
	}

	if err := s.ledger.Credit(ctx, currency, account, amount); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit escrow ledger")
	}

	s.metrics.IncrementCredits(currency.String(), amount)
	return nil
}

// Withdraw pays out an account's full claimable balance. The transfer is
// attempted against the pre-mutation amount and the ledger entry is
// cleared only once the rail confirms, so a failed payout is retryable
// for the full original amount.
func (s *Service) Withdraw(ctx context.Context, currency id.Currency, account id.Account) (*big.Int, error) {
	ctx, span := s.tracer.Start(ctx, "escrow.Withdraw")
	defer span.End()

	if !currency.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported currency")
	}
	if account.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "withdraw account is required")
	}

	var payErr error
	amount, err := s.ledger.WithdrawAll(ctx, currency, account, func(amt *big.Int) error {
		if err := s.payer.Pay(ctx, currency, account, amt); err != nil {
			payErr = err
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(models.ErrNothingToWithdraw, dErrors.CodeFailedPrecondition, "claimable balance is zero")
		}
		if payErr != nil {
			s.metrics.IncrementWithdrawFailures(currency.String())
			s.logger.WarnContext(ctx, "escrow payout rejected by rail",
				"currency", currency,
				"account", account,
				"error", payErr,
				"request_id", requestcontext.RequestID(ctx),
			)
			return nil, dErrors.Wrap(&models.WithdrawFailedError{Account: account, Cause: payErr},
				dErrors.CodeUnavailable, "outbound transfer rejected")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to withdraw escrow funds")
	}

	s.metrics.IncrementWithdrawals(currency.String(), amount)
	s.emit(ctx, events.TypeWithdrawal, events.Withdrawal{Account: account, Amount: amount})
	return amount, nil
}

// FrozenBalance reports the aggregate owed to name owners in one currency.
func (s *Service) FrozenBalance(ctx context.Context, currency id.Currency) (*big.Int, error) {
	if !currency.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported currency")
	}
	frozen, err := s.ledger.FrozenBalance(ctx, currency)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read frozen balance")
	}
	return frozen, nil
}

// Claimable reports one account's claimable balance.
func (s *Service) Claimable(ctx context.Context, currency id.Currency, account id.Account) (*big.Int, error) {
	if !currency.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported currency")
	}
	if account.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "account is required")
	}
	amount, err := s.ledger.Claimable(ctx, currency, account)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read claimable balance")
	}
	return amount, nil
}

// emit publishes an audit event; publish failures are logged, never
// surfaced, because ledger state has already committed.
func (s *Service) emit(ctx context.Context, eventType events.Type, payload any) {
	if s.publisher == nil {
		return
	}
	event := events.New(eventType, requestcontext.Now(ctx), payload)
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit event",
			"event_type", eventType,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
