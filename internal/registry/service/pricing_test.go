package service

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	escrowservice "namedeed/internal/escrow/service"
	"namedeed/internal/escrow/store/ledger"
	"namedeed/internal/rails"
	"namedeed/internal/registry/models"
	"namedeed/internal/registry/ports"
	"namedeed/internal/registry/ports/mocks"
	"namedeed/internal/registry/store/name"
	"namedeed/internal/registry/store/state"
	id "namedeed/pkg/domain"
	dErrors "namedeed/pkg/domain-errors"
)

func newServiceWithOracle(t *testing.T, oracle ports.PriceOracle) *Service {
	t.Helper()
	ctx := context.Background()

	stateStore := state.NewMemoryStore()
	require.NoError(t, stateStore.Seed(ctx, admin, seedPrice))

	escrow, err := escrowservice.New(ledger.NewMemoryStore(),
		escrowservice.PayFunc(func(context.Context, id.Currency, id.Account, *big.Int) error { return nil }))
	require.NoError(t, err)

	svc, err := New(name.NewMemoryStore(), stateStore, escrow, oracle,
		rails.NewSimToken(registry), rails.NewSimNative(registry), registry)
	require.NoError(t, err)
	return svc
}

func TestQuoteNative_OracleUnreachable(t *testing.T) {
	ctrl := gomock.NewController(t)
	oracle := mocks.NewMockPriceOracle(ctrl)
	oracle.EXPECT().LatestRate(gomock.Any()).Return(ports.Rate{}, errors.New("feed timeout"))

	svc := newServiceWithOracle(t, oracle)
	_, err := svc.QuoteNative(context.Background())
	assert.True(t, dErrors.Is(err, dErrors.CodeUnavailable))
}

func TestQuoteNative_UnusableAnswers(t *testing.T) {
	for _, answer := range []*big.Int{nil, big.NewInt(0), big.NewInt(-2000)} {
		ctrl := gomock.NewController(t)
		oracle := mocks.NewMockPriceOracle(ctrl)
		oracle.EXPECT().LatestRate(gomock.Any()).Return(ports.Rate{Answer: answer}, nil)

		svc := newServiceWithOracle(t, oracle)
		_, err := svc.QuoteNative(context.Background())
		assert.True(t, dErrors.Is(err, dErrors.CodeFailedPrecondition), "answer %v", answer)
		var oracleErr *models.OracleError
		assert.ErrorAs(t, err, &oracleErr)
	}
}

func TestQuoteNative_TruncatesTowardZero(t *testing.T) {
	ctrl := gomock.NewController(t)
	oracle := mocks.NewMockPriceOracle(ctrl)
	// 100 * 100 * 10^18 / 3000 truncates the repeating fraction.
	oracle.EXPECT().LatestRate(gomock.Any()).Return(ports.Rate{Answer: big.NewInt(3000)}, nil)

	svc := newServiceWithOracle(t, oracle)
	quote, err := svc.QuoteNative(context.Background())
	require.NoError(t, err)

	want, _ := new(big.Int).SetString("3333333333333333333", 10)
	assert.Equal(t, want, quote)
}

func TestPriceIn_UnsupportedCurrency(t *testing.T) {
	svc := newServiceWithOracle(t, rails.NewStaticOracle(oracleRate))
	_, err := svc.PriceIn(context.Background(), id.Currency("DOGE"))
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
}

func TestPriceIn_NeverCachesOracleReads(t *testing.T) {
	ctrl := gomock.NewController(t)
	oracle := mocks.NewMockPriceOracle(ctrl)
	// Two quotes mean two feed reads, no memoization in between.
	oracle.EXPECT().LatestRate(gomock.Any()).Return(ports.Rate{Answer: big.NewInt(2000)}, nil).Times(2)

	svc := newServiceWithOracle(t, oracle)
	_, err := svc.QuoteNative(context.Background())
	require.NoError(t, err)
	_, err = svc.QuoteNative(context.Background())
	require.NoError(t, err)
}
