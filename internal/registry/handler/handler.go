// Package handler exposes the registry's HTTP surface: price quotes, name
// lookups, purchases, and the administrator endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"namedeed/internal/http/shared"
	"namedeed/internal/registry/models"
	id "namedeed/pkg/domain"
	dErrors "namedeed/pkg/domain-errors"
	"namedeed/pkg/requestcontext"
)

// Service defines the registry operations the handler needs.
type Service interface {
	PriceIn(ctx context.Context, currency id.Currency) (*big.Int, error)
	GetOwner(ctx context.Context, name string) (models.NameRecord, error)
	BuyRootName(ctx context.Context, name string, currency id.Currency, payment *big.Int) (models.NameRecord, error)
	BuyChildName(ctx context.Context, label, parent string, currency id.Currency, payment *big.Int) (models.NameRecord, error)
	ChangePrice(ctx context.Context, newPrice *big.Int) error
	TransferAdmin(ctx context.Context, newAdmin id.Account) error
	WithdrawOperatorFunds(ctx context.Context, currency id.Currency) (*big.Int, error)
}

// Handler handles registry-related endpoints.
type Handler struct {
	registry Service
	logger   *slog.Logger
}

// New creates a new registry Handler.
func New(registry Service, logger *slog.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

// RegisterPublic mounts the unauthenticated read endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/price", h.handlePrice)
	r.Get("/names/{name}", h.handleGetOwner)
}

// Register mounts the authenticated endpoints. The router passed in
// already carries the auth middleware chain.
func (h *Handler) Register(r chi.Router) {
	r.Post("/names", h.handleBuyRoot)
	r.Post("/names/{parent}/children", h.handleBuyChild)
	r.Put("/admin/price", h.handleChangePrice)
	r.Post("/admin/transfer", h.handleTransferAdmin)
	r.Post("/admin/withdrawals", h.handleOperatorWithdraw)
}

type priceResponse struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
	Display  string `json:"display"`
}

type nameResponse struct {
	Name      string `json:"name"`
	Owner     string `json:"owner"`
	CreatedAt string `json:"createdAt"`
}

type buyRootRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Payment  string `json:"payment,omitempty"`
}

type buyChildRequest struct {
	Label    string `json:"label"`
	Currency string `json:"currency"`
	Payment  string `json:"payment,omitempty"`
}

type changePriceRequest struct {
	NewPrice string `json:"newPrice"`
}

type transferAdminRequest struct {
	NewAdmin string `json:"newAdmin"`
}

type operatorWithdrawRequest struct {
	Currency string `json:"currency"`
}

type withdrawResponse struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
	Display  string `json:"display"`
}

func (h *Handler) handlePrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := r.URL.Query().Get("currency")
	if raw == "" {
		raw = id.CurrencyStable.String()
	}
	currency, err := id.ParseCurrency(raw)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unsupported currency"))
		return
	}

	amount, err := h.registry.PriceIn(ctx, currency)
	if err != nil {
		h.logger.WarnContext(ctx, "price quote failed",
			"currency", currency,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, priceResponse{
		Currency: currency.String(),
		Amount:   amount.String(),
		Display:  display(currency, amount),
	})
}

func (h *Handler) handleGetOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	record, err := h.registry.GetOwner(ctx, chi.URLParam(r, "name"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, newNameResponse(record))
}

func (h *Handler) handleBuyRoot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req buyRootRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	currency, payment, err := parsePayment(req.Currency, req.Payment)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	record, err := h.registry.BuyRootName(ctx, req.Name, currency, payment)
	if err != nil {
		h.logPurchaseFailure(ctx, req.Name, err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, newNameResponse(record))
}

func (h *Handler) handleBuyChild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parent := chi.URLParam(r, "parent")

	var req buyChildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	currency, payment, err := parsePayment(req.Currency, req.Payment)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	record, err := h.registry.BuyChildName(ctx, req.Label, parent, currency, payment)
	if err != nil {
		h.logPurchaseFailure(ctx, models.FullName(req.Label, parent), err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, newNameResponse(record))
}

func (h *Handler) handleChangePrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req changePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	newPrice, ok := new(big.Int).SetString(req.NewPrice, 10)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "newPrice must be a base-10 integer"))
		return
	}

	if err := h.registry.ChangePrice(ctx, newPrice); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransferAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req transferAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	newAdmin, err := id.ParseAccount(req.NewAdmin)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid account address"))
		return
	}

	if err := h.registry.TransferAdmin(ctx, newAdmin); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleOperatorWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req operatorWithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	currency, err := id.ParseCurrency(req.Currency)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unsupported currency"))
		return
	}

	amount, err := h.registry.WithdrawOperatorFunds(ctx, currency)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeFailedPrecondition) {
			h.logger.WarnContext(ctx, "operator withdrawal failed",
				"currency", currency,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, withdrawResponse{
		Currency: currency.String(),
		Amount:   amount.String(),
		Display:  display(currency, amount),
	})
}

func (h *Handler) logPurchaseFailure(ctx context.Context, name string, err error) {
	// Buyer mistakes (wrong amount, taken name) are expected traffic;
	// only infrastructure trouble is worth a warning.
	if dErrors.Is(err, dErrors.CodeUnavailable) || dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.WarnContext(ctx, "purchase failed",
			"name", name,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// parsePayment decodes the currency and optional attached payment. A
// payment amount only makes sense for native purchases; stablecoin
// purchases are paid via allowance.
func parsePayment(rawCurrency, rawPayment string) (id.Currency, *big.Int, error) {
	currency, err := id.ParseCurrency(rawCurrency)
	if err != nil {
		return "", nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported currency")
	}
	if rawPayment == "" {
		return currency, nil, nil
	}
	payment, ok := new(big.Int).SetString(rawPayment, 10)
	if !ok {
		return "", nil, dErrors.New(dErrors.CodeInvalidInput, "payment must be a base-10 integer")
	}
	return currency, payment, nil
}

func newNameResponse(record models.NameRecord) nameResponse {
	return nameResponse{
		Name:      record.Name,
		Owner:     record.Owner.String(),
		CreatedAt: record.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func display(currency id.Currency, amount *big.Int) string {
	return decimal.NewFromBigInt(amount, -currency.Decimals()).String() + " " + currency.String()
}
