package service

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	escrowservice "namedeed/internal/escrow/service"
	"namedeed/internal/escrow/store/ledger"
	"namedeed/internal/rails"
	"namedeed/internal/registry/models"
	"namedeed/internal/registry/store/name"
	"namedeed/internal/registry/store/state"
	id "namedeed/pkg/domain"
	dErrors "namedeed/pkg/domain-errors"
	"namedeed/pkg/platform/events"
	"namedeed/pkg/platform/sentinel"
	"namedeed/pkg/requestcontext"
)

var (
	admin       = id.Account("0x00000000000000000000000000000000000000a1")
	registry    = id.Account("0x00000000000000000000000000000000000000c0")
	buyer       = id.Account("0x1111111111111111111111111111111111111111")
	parentOwner = id.Account("0x2222222222222222222222222222222222222222")
)

// Seed price 100 with an oracle answer of 2000 makes the native quote
// 100 * 10^2 * 10^18 / 2000 = 5 * 10^18.
var (
	seedPrice   = big.NewInt(100)
	oracleRate  = big.NewInt(2000)
	nativeQuote = new(big.Int).Mul(big.NewInt(5), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
)

type RegistrySuite struct {
	suite.Suite

	svc       *Service
	escrow    *escrowservice.Service
	names     *name.MemoryStore
	state     *state.MemoryStore
	stable    *rails.SimToken
	native    *rails.SimNative
	oracle    *rails.StaticOracle
	publisher *events.MemoryPublisher
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	ctx := context.Background()

	s.names = name.NewMemoryStore()
	s.state = state.NewMemoryStore()
	s.Require().NoError(s.state.Seed(ctx, admin, seedPrice))

	s.stable = rails.NewSimToken(registry)
	s.native = rails.NewSimNative(registry)
	s.oracle = rails.NewStaticOracle(oracleRate)
	s.publisher = events.NewMemoryPublisher()

	payer := escrowservice.PayFunc(func(ctx context.Context, currency id.Currency, to id.Account, amount *big.Int) error {
		if currency == id.CurrencyStable {
			return s.stable.Transfer(ctx, to, amount)
		}
		return s.native.Send(ctx, to, amount)
	})
	escrow, err := escrowservice.New(ledger.NewMemoryStore(), payer)
	s.Require().NoError(err)
	s.escrow = escrow

	svc, err := New(s.names, s.state, escrow, s.oracle, s.stable, s.native, registry,
		WithPublisher(s.publisher))
	s.Require().NoError(err)
	s.svc = svc
}

func (s *RegistrySuite) as(account id.Account) context.Context {
	return requestcontext.WithCaller(context.Background(), account)
}

// fundStable mints the exact price and approves the registry to pull it.
func (s *RegistrySuite) fundStable(account id.Account, amount *big.Int) {
	s.stable.Mint(account, amount)
	s.stable.Approve(account, registry, amount)
}

func (s *RegistrySuite) buyRoot(owner id.Account, nameKey string) {
	s.fundStable(owner, seedPrice)
	_, err := s.svc.BuyRootName(s.as(owner), nameKey, id.CurrencyStable, nil)
	s.Require().NoError(err)
}

func (s *RegistrySuite) TestPriceInStable() {
	price, err := s.svc.PriceIn(context.Background(), id.CurrencyStable)
	s.Require().NoError(err)
	s.Equal(seedPrice, price)
}

func (s *RegistrySuite) TestQuoteNative() {
	quote, err := s.svc.QuoteNative(context.Background())
	s.Require().NoError(err)
	s.Equal(nativeQuote, quote)
}

func (s *RegistrySuite) TestQuoteNativeTracksRateChanges() {
	s.oracle.SetAnswer(big.NewInt(4000))
	quote, err := s.svc.QuoteNative(context.Background())
	s.Require().NoError(err)
	s.Equal(new(big.Int).Rsh(nativeQuote, 1), quote, "doubling the rate halves the quote")
}

func (s *RegistrySuite) TestBuyRootStable() {
	s.fundStable(buyer, seedPrice)

	record, err := s.svc.BuyRootName(s.as(buyer), "com", id.CurrencyStable, nil)
	s.Require().NoError(err)
	s.Equal("com", record.Name)
	s.Equal(buyer, record.Owner)

	got, err := s.svc.GetOwner(context.Background(), "com")
	s.Require().NoError(err)
	s.Equal(buyer, got.Owner)

	balance, err := s.stable.BalanceOf(context.Background(), registry)
	s.Require().NoError(err)
	s.Equal(seedPrice, balance)

	emitted := s.publisher.ByType(events.TypeNameRegistered)
	s.Require().Len(emitted, 1)
	payload := emitted[0].Payload.(events.NameRegistered)
	s.Equal("com", payload.Name)
	s.Equal(buyer, payload.Owner)
}

func (s *RegistrySuite) TestBuyRootNative() {
	s.native.Mint(buyer, nativeQuote)

	record, err := s.svc.BuyRootName(s.as(buyer), "eth", id.CurrencyNative, nativeQuote)
	s.Require().NoError(err)
	s.Equal(buyer, record.Owner)

	balance, err := s.native.BalanceOf(context.Background(), registry)
	s.Require().NoError(err)
	s.Equal(nativeQuote, balance)
}

func (s *RegistrySuite) TestBuyRootRequiresAuth() {
	_, err := s.svc.BuyRootName(context.Background(), "com", id.CurrencyStable, nil)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *RegistrySuite) TestBuyRootRejectsMalformedNames() {
	for _, bad := range []string{"", "has space", "double..dot", ".leading", "trailing."} {
		_, err := s.svc.BuyRootName(s.as(buyer), bad, id.CurrencyStable, nil)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput), "name %q must be rejected", bad)
	}
}

func (s *RegistrySuite) TestBuyRootExactAllowanceRequired() {
	// Underpayment.
	s.stable.Mint(buyer, big.NewInt(1000))
	s.stable.Approve(buyer, registry, big.NewInt(99))
	_, err := s.svc.BuyRootName(s.as(buyer), "com", id.CurrencyStable, nil)
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	var incorrect *models.IncorrectAmountError
	s.ErrorAs(err, &incorrect)
	s.Equal(big.NewInt(99), incorrect.Received)
	s.Equal(seedPrice, incorrect.Expected)

	// Overpayment is rejected just the same.
	s.stable.Approve(buyer, registry, big.NewInt(101))
	_, err = s.svc.BuyRootName(s.as(buyer), "com", id.CurrencyStable, nil)
	s.ErrorAs(err, &incorrect)

	// Nothing moved and the name stays available.
	balance, err := s.stable.BalanceOf(context.Background(), buyer)
	s.Require().NoError(err)
	s.Equal(big.NewInt(1000), balance)
	_, err = s.svc.GetOwner(context.Background(), "com")
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *RegistrySuite) TestBuyRootExactNativePaymentRequired() {
	s.native.Mint(buyer, new(big.Int).Lsh(nativeQuote, 1))

	wrong := new(big.Int).Add(nativeQuote, big.NewInt(1))
	_, err := s.svc.BuyRootName(s.as(buyer), "eth", id.CurrencyNative, wrong)
	var incorrect *models.IncorrectAmountError
	s.ErrorAs(err, &incorrect)
	s.Equal(nativeQuote, incorrect.Expected)

	_, err = s.svc.BuyRootName(s.as(buyer), "eth", id.CurrencyNative, nil)
	s.ErrorAs(err, &incorrect)
}

func (s *RegistrySuite) TestBuyRootNameTaken() {
	s.buyRoot(parentOwner, "com")

	s.fundStable(buyer, seedPrice)
	_, err := s.svc.BuyRootName(s.as(buyer), "com", id.CurrencyStable, nil)
	s.True(dErrors.Is(err, dErrors.CodeConflict))
	s.ErrorIs(err, models.ErrNameTaken)

	// Rejected before funds moved.
	balance, err := s.stable.BalanceOf(context.Background(), buyer)
	s.Require().NoError(err)
	s.Equal(seedPrice, balance)
}

func (s *RegistrySuite) TestBuyChildCreditsParentOwner() {
	ctx := context.Background()
	s.buyRoot(parentOwner, "com")

	s.fundStable(buyer, seedPrice)
	record, err := s.svc.BuyChildName(s.as(buyer), "shop", "com", id.CurrencyStable, nil)
	s.Require().NoError(err)
	s.Equal("shop.com", record.Name)
	s.Equal(buyer, record.Owner)

	// The full child price belongs to the parent owner, frozen in escrow.
	claimable, err := s.escrow.Claimable(ctx, id.CurrencyStable, parentOwner)
	s.Require().NoError(err)
	s.Equal(seedPrice, claimable)
	frozen, err := s.escrow.FrozenBalance(ctx, id.CurrencyStable)
	s.Require().NoError(err)
	s.Equal(seedPrice, frozen)
}

func (s *RegistrySuite) TestBuyChildOfUnregisteredParent() {
	s.fundStable(buyer, seedPrice)
	_, err := s.svc.BuyChildName(s.as(buyer), "shop", "com", id.CurrencyStable, nil)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
	s.ErrorIs(err, models.ErrParentNotFound)
}

func (s *RegistrySuite) TestBuyChildRejectsDottedLabel() {
	s.buyRoot(parentOwner, "com")
	_, err := s.svc.BuyChildName(s.as(buyer), "a.b", "com", id.CurrencyStable, nil)
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
}

func (s *RegistrySuite) TestGrandchildPaysImmediateParentOnly() {
	ctx := context.Background()
	s.buyRoot(parentOwner, "com")

	s.fundStable(buyer, seedPrice)
	_, err := s.svc.BuyChildName(s.as(buyer), "shop", "com", id.CurrencyStable, nil)
	s.Require().NoError(err)

	grandbuyer := id.Account("0x3333333333333333333333333333333333333333")
	s.fundStable(grandbuyer, seedPrice)
	record, err := s.svc.BuyChildName(s.as(grandbuyer), "eu", "shop.com", id.CurrencyStable, nil)
	s.Require().NoError(err)
	s.Equal("eu.shop.com", record.Name)

	// "shop.com" is owned by buyer; the grandchild proceeds are theirs,
	// not the root owner's.
	claimable, err := s.escrow.Claimable(ctx, id.CurrencyStable, buyer)
	s.Require().NoError(err)
	s.Equal(seedPrice, claimable)
	rootClaimable, err := s.escrow.Claimable(ctx, id.CurrencyStable, parentOwner)
	s.Require().NoError(err)
	s.Equal(seedPrice, rootClaimable, "root owner keeps only the direct child sale")
}

func (s *RegistrySuite) TestChangePrice() {
	err := s.svc.ChangePrice(s.as(admin), big.NewInt(500))
	s.Require().NoError(err)

	price, err := s.svc.PriceIn(context.Background(), id.CurrencyStable)
	s.Require().NoError(err)
	s.Equal(big.NewInt(500), price)

	emitted := s.publisher.ByType(events.TypePriceChanged)
	s.Require().Len(emitted, 1)
	s.Equal(uint64(500), emitted[0].Payload.(events.PriceChanged).NewPrice)
}

func (s *RegistrySuite) TestChangePriceAdminOnly() {
	err := s.svc.ChangePrice(s.as(buyer), big.NewInt(500))
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	s.ErrorIs(err, models.ErrUnauthorized)
}

func (s *RegistrySuite) TestChangePriceRejectsNonPositive() {
	for _, bad := range []*big.Int{nil, big.NewInt(0), big.NewInt(-1)} {
		err := s.svc.ChangePrice(s.as(admin), bad)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	}
}

func (s *RegistrySuite) TestChangePriceRejectsOversizedPrice() {
	over := new(big.Int).Lsh(big.NewInt(1), 64) // one past max uint64
	err := s.svc.ChangePrice(s.as(admin), over)
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	s.ErrorIs(err, models.ErrInvalidPrice)

	// The price is untouched and no change was announced.
	price, err := s.svc.PriceIn(context.Background(), id.CurrencyStable)
	s.Require().NoError(err)
	s.Equal(seedPrice, price)
	s.Empty(s.publisher.ByType(events.TypePriceChanged))
}

func (s *RegistrySuite) TestBuyRejectsQuoteTruncatedToZero() {
	// An absurd oracle rate truncates the native quote to zero; names
	// are never sold for nothing.
	s.oracle.SetAnswer(new(big.Int).Exp(big.NewInt(10), big.NewInt(23), nil))

	_, err := s.svc.BuyRootName(s.as(buyer), "eth", id.CurrencyNative, big.NewInt(0))
	s.True(dErrors.Is(err, dErrors.CodeFailedPrecondition))

	_, err = s.svc.GetOwner(context.Background(), "eth")
	s.True(dErrors.Is(err, dErrors.CodeNotFound), "name stays available")
}

func (s *RegistrySuite) TestTransferAdmin() {
	newAdmin := id.Account("0x4444444444444444444444444444444444444444")
	s.Require().NoError(s.svc.TransferAdmin(s.as(admin), newAdmin))

	// Old admin is locked out immediately; the new one is in charge.
	err := s.svc.ChangePrice(s.as(admin), big.NewInt(500))
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	s.Require().NoError(s.svc.ChangePrice(s.as(newAdmin), big.NewInt(500)))
}

func (s *RegistrySuite) TestOperatorWithdrawTakesRootRevenue() {
	ctx := context.Background()
	s.buyRoot(buyer, "com")

	amount, err := s.svc.WithdrawOperatorFunds(s.as(admin), id.CurrencyStable)
	s.Require().NoError(err)
	s.Equal(seedPrice, amount)

	balance, err := s.stable.BalanceOf(ctx, admin)
	s.Require().NoError(err)
	s.Equal(seedPrice, balance)

	emitted := s.publisher.ByType(events.TypeWithdrawal)
	s.Require().Len(emitted, 1)
	s.Equal(admin, emitted[0].Payload.(events.Withdrawal).Account)
}

func (s *RegistrySuite) TestOperatorWithdrawExcludesFrozenFunds() {
	s.buyRoot(parentOwner, "com")
	s.fundStable(buyer, seedPrice)
	_, err := s.svc.BuyChildName(s.as(buyer), "shop", "com", id.CurrencyStable, nil)
	s.Require().NoError(err)

	// Registry rail balance is 2x price, but the child sale's proceeds
	// are frozen for the parent owner: only the root sale is available.
	amount, err := s.svc.WithdrawOperatorFunds(s.as(admin), id.CurrencyStable)
	s.Require().NoError(err)
	s.Equal(seedPrice, amount)

	// A second withdrawal finds nothing; the frozen funds stay put.
	_, err = s.svc.WithdrawOperatorFunds(s.as(admin), id.CurrencyStable)
	s.True(dErrors.Is(err, dErrors.CodeFailedPrecondition))

	claimable, err := s.escrow.Claimable(context.Background(), id.CurrencyStable, parentOwner)
	s.Require().NoError(err)
	s.Equal(seedPrice, claimable)
}

func (s *RegistrySuite) TestOperatorWithdrawAdminOnly() {
	_, err := s.svc.WithdrawOperatorFunds(s.as(buyer), id.CurrencyStable)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *RegistrySuite) TestOperatorWithdrawNothingAvailable() {
	_, err := s.svc.WithdrawOperatorFunds(s.as(admin), id.CurrencyNative)
	s.True(dErrors.Is(err, dErrors.CodeFailedPrecondition))
}

// fixture wires a service around a caller-supplied name store so tests
// can inject failing or slow stores.
type fixture struct {
	svc    *Service
	escrow *escrowservice.Service
	stable *rails.SimToken
}

func newFixture(t *testing.T, names name.Store) *fixture {
	t.Helper()

	st := state.NewMemoryStore()
	require.NoError(t, st.Seed(context.Background(), admin, seedPrice))

	stable := rails.NewSimToken(registry)
	native := rails.NewSimNative(registry)
	payer := escrowservice.PayFunc(func(ctx context.Context, currency id.Currency, to id.Account, amount *big.Int) error {
		if currency == id.CurrencyStable {
			return stable.Transfer(ctx, to, amount)
		}
		return native.Send(ctx, to, amount)
	})
	escrow, err := escrowservice.New(ledger.NewMemoryStore(), payer)
	require.NoError(t, err)

	svc, err := New(names, st, escrow, rails.NewStaticOracle(oracleRate), stable, native, registry)
	require.NoError(t, err)
	return &fixture{svc: svc, escrow: escrow, stable: stable}
}

// blockingNameStore parks child registrations between entering the
// purchase transaction and committing it.
type blockingNameStore struct {
	*name.MemoryStore
	entered chan struct{}
	proceed chan struct{}
}

func (b *blockingNameStore) CreateIfAvailable(ctx context.Context, record models.NameRecord) error {
	if strings.Contains(record.Name, ".") {
		b.entered <- struct{}{}
		<-b.proceed
	}
	return b.MemoryStore.CreateIfAvailable(ctx, record)
}

func TestOperatorWithdrawExcludesInFlightChildPayment(t *testing.T) {
	ctx := context.Background()
	blocking := &blockingNameStore{
		MemoryStore: name.NewMemoryStore(),
		entered:     make(chan struct{}),
		proceed:     make(chan struct{}),
	}
	f := newFixture(t, blocking)

	// Root sale: one price of operator revenue on the rail.
	f.stable.Mint(parentOwner, seedPrice)
	f.stable.Approve(parentOwner, registry, seedPrice)
	_, err := f.svc.BuyRootName(requestcontext.WithCaller(ctx, parentOwner), "com", id.CurrencyStable, nil)
	require.NoError(t, err)

	// Park a child purchase after its funds were pulled but before the
	// registration commits and the escrow credit freezes them.
	f.stable.Mint(buyer, seedPrice)
	f.stable.Approve(buyer, registry, seedPrice)
	done := make(chan error, 1)
	go func() {
		_, err := f.svc.BuyChildName(requestcontext.WithCaller(ctx, buyer), "shop", "com", id.CurrencyStable, nil)
		done <- err
	}()
	<-blocking.entered

	// The rail holds two prices, but the in-flight child payment belongs
	// to the parent owner: only the root revenue is withdrawable.
	amount, err := f.svc.WithdrawOperatorFunds(requestcontext.WithCaller(ctx, admin), id.CurrencyStable)
	require.NoError(t, err)
	assert.Equal(t, seedPrice, amount)

	close(blocking.proceed)
	require.NoError(t, <-done)

	// After the commit the escrow total never exceeds what the rail
	// still holds, and the parent owner's credit is intact.
	frozen, err := f.escrow.FrozenBalance(ctx, id.CurrencyStable)
	require.NoError(t, err)
	balance, err := f.stable.BalanceOf(ctx, registry)
	require.NoError(t, err)
	assert.True(t, frozen.Cmp(balance) <= 0, "frozen %s exceeds rail balance %s", frozen, balance)

	claimable, err := f.escrow.Claimable(ctx, id.CurrencyStable, parentOwner)
	require.NoError(t, err)
	assert.Equal(t, seedPrice, claimable)
}

// failingNameStore rejects every registration with a fixed error.
type failingNameStore struct {
	*name.MemoryStore
	createErr error
}

func (f *failingNameStore) CreateIfAvailable(context.Context, models.NameRecord) error {
	return f.createErr
}

func TestFailedRegistrationRefundsBuyer(t *testing.T) {
	tests := []struct {
		name      string
		createErr error
		wantCode  dErrors.Code
	}{
		{"store failure", errors.New("connection reset"), dErrors.CodeInternal},
		{"lost registration race", sentinel.ErrConflict, dErrors.CodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, &failingNameStore{
				MemoryStore: name.NewMemoryStore(),
				createErr:   tt.createErr,
			})
			f.stable.Mint(buyer, seedPrice)
			f.stable.Approve(buyer, registry, seedPrice)

			_, err := f.svc.BuyRootName(requestcontext.WithCaller(ctx, buyer), "com", id.CurrencyStable, nil)
			require.Error(t, err)
			assert.True(t, dErrors.Is(err, tt.wantCode))

			balance, err := f.stable.BalanceOf(ctx, buyer)
			require.NoError(t, err)
			assert.Equal(t, seedPrice, balance, "buyer must be made whole")

			// Nothing stranded on the rail for the operator to take.
			_, err = f.svc.WithdrawOperatorFunds(requestcontext.WithCaller(ctx, admin), id.CurrencyStable)
			assert.True(t, dErrors.Is(err, dErrors.CodeFailedPrecondition))
		})
	}
}
