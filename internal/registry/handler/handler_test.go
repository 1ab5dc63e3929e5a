package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namedeed/internal/registry/models"
	id "namedeed/pkg/domain"
	dErrors "namedeed/pkg/domain-errors"
	"namedeed/pkg/requestcontext"
)

var (
	caller    = id.Account("0x1111111111111111111111111111111111111111")
	createdAt = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
)

type stubService struct {
	priceFn    func(currency id.Currency) (*big.Int, error)
	ownerFn    func(name string) (models.NameRecord, error)
	buyRootFn  func(name string, currency id.Currency, payment *big.Int) (models.NameRecord, error)
	buyChildFn func(label, parent string, currency id.Currency, payment *big.Int) (models.NameRecord, error)
	changeFn   func(newPrice *big.Int) error
	transferFn func(newAdmin id.Account) error
	withdrawFn func(currency id.Currency) (*big.Int, error)
}

func (s *stubService) PriceIn(_ context.Context, currency id.Currency) (*big.Int, error) {
	return s.priceFn(currency)
}

func (s *stubService) GetOwner(_ context.Context, name string) (models.NameRecord, error) {
	return s.ownerFn(name)
}

func (s *stubService) BuyRootName(_ context.Context, name string, currency id.Currency, payment *big.Int) (models.NameRecord, error) {
	return s.buyRootFn(name, currency, payment)
}

func (s *stubService) BuyChildName(_ context.Context, label, parent string, currency id.Currency, payment *big.Int) (models.NameRecord, error) {
	return s.buyChildFn(label, parent, currency, payment)
}

func (s *stubService) ChangePrice(_ context.Context, newPrice *big.Int) error {
	return s.changeFn(newPrice)
}

func (s *stubService) TransferAdmin(_ context.Context, newAdmin id.Account) error {
	return s.transferFn(newAdmin)
}

func (s *stubService) WithdrawOperatorFunds(_ context.Context, currency id.Currency) (*big.Int, error) {
	return s.withdrawFn(currency)
}

func newTestRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(requestcontext.WithCaller(req.Context(), caller)))
		})
	})
	h := New(svc, slog.Default())
	h.RegisterPublic(r)
	h.Register(r)
	return r
}

func TestHandlePrice_DefaultsToStable(t *testing.T) {
	router := newTestRouter(&stubService{
		priceFn: func(currency id.Currency) (*big.Int, error) {
			require.Equal(t, id.CurrencyStable, currency)
			return big.NewInt(100000000), nil
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/price", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"currency":"USDC","amount":"100000000","display":"100 USDC"}`, rec.Body.String())
}

func TestHandlePrice_Native(t *testing.T) {
	quote := new(big.Int).Mul(big.NewInt(5), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	router := newTestRouter(&stubService{
		priceFn: func(currency id.Currency) (*big.Int, error) {
			require.Equal(t, id.CurrencyNative, currency)
			return quote, nil
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/price?currency=eth", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"currency":"ETH","amount":"5000000000000000000","display":"5 ETH"}`, rec.Body.String())
}

func TestHandlePrice_OracleDown(t *testing.T) {
	router := newTestRouter(&stubService{
		priceFn: func(id.Currency) (*big.Int, error) {
			return nil, dErrors.New(dErrors.CodeUnavailable, "price oracle unreachable")
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/price?currency=ETH", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleGetOwner(t *testing.T) {
	router := newTestRouter(&stubService{
		ownerFn: func(name string) (models.NameRecord, error) {
			require.Equal(t, "shop.com", name)
			return models.NameRecord{Name: name, Owner: caller, CreatedAt: createdAt}, nil
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/names/shop.com", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"name": "shop.com",
		"owner": "0x1111111111111111111111111111111111111111",
		"createdAt": "2026-03-14T09:26:53Z"
	}`, rec.Body.String())
}

func TestHandleGetOwner_NotFound(t *testing.T) {
	router := newTestRouter(&stubService{
		ownerFn: func(string) (models.NameRecord, error) {
			return models.NameRecord{}, dErrors.New(dErrors.CodeNotFound, "name is not registered")
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/names/ghost", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleBuyRoot(t *testing.T) {
	router := newTestRouter(&stubService{
		buyRootFn: func(name string, currency id.Currency, payment *big.Int) (models.NameRecord, error) {
			require.Equal(t, "com", name)
			require.Equal(t, id.CurrencyStable, currency)
			require.Nil(t, payment)
			return models.NameRecord{Name: name, Owner: caller, CreatedAt: createdAt}, nil
		},
	})

	body := `{"name":"com","currency":"USDC"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/names", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"com"`)
}

func TestHandleBuyRoot_NativeCarriesPayment(t *testing.T) {
	router := newTestRouter(&stubService{
		buyRootFn: func(name string, currency id.Currency, payment *big.Int) (models.NameRecord, error) {
			require.Equal(t, id.CurrencyNative, currency)
			require.Equal(t, big.NewInt(5000), payment)
			return models.NameRecord{Name: name, Owner: caller, CreatedAt: createdAt}, nil
		},
	})

	body := `{"name":"eth","currency":"ETH","payment":"5000"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/names", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandleBuyRoot_Conflict(t *testing.T) {
	router := newTestRouter(&stubService{
		buyRootFn: func(string, id.Currency, *big.Int) (models.NameRecord, error) {
			return models.NameRecord{}, dErrors.Wrap(models.ErrNameTaken, dErrors.CodeConflict, "name is already registered")
		},
	})

	body := `{"name":"com","currency":"USDC"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/names", strings.NewReader(body)))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleBuyRoot_BadBody(t *testing.T) {
	router := newTestRouter(&stubService{})

	for _, body := range []string{"not json", `{"name":"com","currency":"DOGE"}`, `{"name":"com","currency":"ETH","payment":"abc"}`} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/names", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestHandleBuyChild(t *testing.T) {
	router := newTestRouter(&stubService{
		buyChildFn: func(label, parent string, currency id.Currency, payment *big.Int) (models.NameRecord, error) {
			require.Equal(t, "shop", label)
			require.Equal(t, "com", parent)
			require.Equal(t, id.CurrencyStable, currency)
			return models.NameRecord{Name: models.FullName(label, parent), Owner: caller, CreatedAt: createdAt}, nil
		},
	})

	body := `{"label":"shop","currency":"USDC"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/names/com/children", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"shop.com"`)
}

func TestHandleChangePrice(t *testing.T) {
	var got *big.Int
	router := newTestRouter(&stubService{
		changeFn: func(newPrice *big.Int) error {
			got = newPrice
			return nil
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/admin/price", strings.NewReader(`{"newPrice":"200000000"}`)))

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, big.NewInt(200000000), got)
}

func TestHandleChangePrice_NotAdmin(t *testing.T) {
	router := newTestRouter(&stubService{
		changeFn: func(*big.Int) error {
			return dErrors.Wrap(models.ErrUnauthorized, dErrors.CodeUnauthorized, "administrator only")
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/admin/price", strings.NewReader(`{"newPrice":"1"}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleTransferAdmin(t *testing.T) {
	var got id.Account
	router := newTestRouter(&stubService{
		transferFn: func(newAdmin id.Account) error {
			got = newAdmin
			return nil
		},
	})

	body := `{"newAdmin":"0x2222222222222222222222222222222222222222"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/transfer", strings.NewReader(body)))

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, id.Account("0x2222222222222222222222222222222222222222"), got)
}

func TestHandleTransferAdmin_BadAddress(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/transfer", strings.NewReader(`{"newAdmin":"not-an-address"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleOperatorWithdraw(t *testing.T) {
	router := newTestRouter(&stubService{
		withdrawFn: func(currency id.Currency) (*big.Int, error) {
			require.Equal(t, id.CurrencyStable, currency)
			return big.NewInt(100000000), nil
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/withdrawals", strings.NewReader(`{"currency":"USDC"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"currency":"USDC","amount":"100000000","display":"100 USDC"}`, rec.Body.String())
}

func TestHandleOperatorWithdraw_NothingAvailable(t *testing.T) {
	router := newTestRouter(&stubService{
		withdrawFn: func(id.Currency) (*big.Int, error) {
			return nil, dErrors.New(dErrors.CodeFailedPrecondition, "no operator revenue available")
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/withdrawals", strings.NewReader(`{"currency":"USDC"}`)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
