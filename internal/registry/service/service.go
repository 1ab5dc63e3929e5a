// Package service implements the name registry: quoting prices, selling
// root and child names, and the administrator operations. Child purchase
// proceeds are handed to the escrow module inside the same store
// transaction that registers the name.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	registrymetrics "namedeed/internal/registry/metrics"
	"namedeed/internal/registry/ports"
	"namedeed/internal/registry/store/name"
	"namedeed/internal/registry/store/state"
	id "namedeed/pkg/domain"
	"namedeed/pkg/platform/events"
	"namedeed/pkg/requestcontext"
)

// Escrow is the slice of the escrow module the registry drives: crediting
// parent owners on child sales and reading the frozen total that caps
// operator withdrawals.
type Escrow interface {
	Credit(ctx context.Context, currency id.Currency, account id.Account, amount *big.Int) error
	FrozenBalance(ctx context.Context, currency id.Currency) (*big.Int, error)
}

// StoreTx runs fn atomically over the registry's stores. The SQL
// implementation opens a transaction and carries it in the context fn
// receives; the in-memory implementation serializes callers.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type serialStoreTx struct {
	mu sync.Mutex
}

func (t *serialStoreTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

// Service is the registry core.
type Service struct {
	names           name.Store
	state           state.Store
	escrow          Escrow
	oracle          ports.PriceOracle
	stable          ports.StablecoinRail
	native          ports.NativeRail
	registryAccount id.Account

	storeTx   StoreTx
	logger    *slog.Logger
	metrics   *registrymetrics.Metrics
	publisher events.Publisher
	tracer    trace.Tracer

	// pending holds, per currency, funds already pulled for purchases
	// whose transaction has not resolved. They sit in the registry's
	// rail balance without being frozen yet, but belong to the buyer
	// (refund) or to escrow (credit), never to the operator.
	pendingMu sync.Mutex
	pending   map[id.Currency]*big.Int
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *registrymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithStoreTx installs a transactional runner spanning the name store and
// the escrow ledger. Required for SQL-backed stores.
func WithStoreTx(tx StoreTx) Option {
	return func(s *Service) { s.storeTx = tx }
}

// New builds the registry service.
func New(
	names name.Store,
	st state.Store,
	escrow Escrow,
	oracle ports.PriceOracle,
	stable ports.StablecoinRail,
	native ports.NativeRail,
	registryAccount id.Account,
	opts ...Option,
) (*Service, error) {
	if names == nil {
		return nil, fmt.Errorf("name store is required")
	}
	if st == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if escrow == nil {
		return nil, fmt.Errorf("escrow service is required")
	}
	if oracle == nil {
		return nil, fmt.Errorf("price oracle is required")
	}
	if stable == nil || native == nil {
		return nil, fmt.Errorf("both payment rails are required")
	}
	if registryAccount.IsZero() {
		return nil, fmt.Errorf("registry account is required")
	}
	svc := &Service{
		names:           names,
		state:           st,
		escrow:          escrow,
		oracle:          oracle,
		stable:          stable,
		native:          native,
		registryAccount: registryAccount,
		pending:         make(map[id.Currency]*big.Int),
		storeTx:         &serialStoreTx{},
		logger:          slog.Default(),
		tracer:          otel.Tracer("namedeed/registry"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *Service) addPending(currency id.Currency, amount *big.Int) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if s.pending[currency] == nil {
		s.pending[currency] = new(big.Int)
	}
	s.pending[currency].Add(s.pending[currency], amount)
}

func (s *Service) subPending(currency id.Currency, amount *big.Int) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	s.pending[currency].Sub(s.pending[currency], amount)
}

func (s *Service) pendingAmount(currency id.Currency) *big.Int {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if p, ok := s.pending[currency]; ok {
		return new(big.Int).Set(p)
	}
	return new(big.Int)
}

// emit publishes an audit event; publish failures are logged, never
// surfaced, because registry state has already committed.
func (s *Service) emit(ctx context.Context, eventType events.Type, payload any) {
	if s.publisher == nil {
		return
	}
	event := events.New(eventType, requestcontext.Now(ctx), payload)
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit event",
			"event_type", eventType,
			"error", err,
		)
	}
}
