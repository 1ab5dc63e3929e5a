// Package handler exposes the escrow withdrawal endpoints. It is thin
// glue: the caller account comes from the auth middleware and everything
// else is delegated to the escrow service.
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
	id "namedeed/pkg/domain"
	dErrors "namedeed/pkg/domain-errors"
	"namedeed/pkg/requestcontext"
)

// Service defines the escrow operations the handler needs.
type Service interface {
	Withdraw(ctx context.Context, currency id.Currency, account id.Account) (*big.Int, error)
	Claimable(ctx context.Context, currency id.Currency, account id.Account) (*big.Int, error)
}

// Handler handles escrow-related endpoints.
type Handler struct {
	escrow Service
	logger *slog.Logger
}

// New creates a new escrow Handler.
func New(escrow Service, logger *slog.Logger) *Handler {
	return &Handler{escrow: escrow, logger: logger}
}

// Register mounts the escrow routes. The router passed in already carries
// the authenticated middleware chain.
func (h *Handler) Register(r chi.Router) {
	r.Get("/escrow/balance", h.handleBalance)
	r.Post("/escrow/withdrawals", h.handleWithdraw)
}

type withdrawRequest struct {
	Currency string `json:"currency"`
}

type balanceResponse struct {
	Currency string `json:"currency"`
	Account  string `json:"account"`
	Amount   string `json:"amount"`
	Display  string `json:"display"`
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	currency, err := id.ParseCurrency(r.URL.Query().Get("currency"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unsupported currency"))
		return
	}

	amount, err := h.escrow.Claimable(ctx, currency, caller)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read claimable balance",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, newBalanceResponse(currency, caller, amount))
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	currency, err := id.ParseCurrency(req.Currency)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unsupported currency"))
		return
	}

	amount, err := h.escrow.Withdraw(ctx, currency, caller)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeFailedPrecondition) {
			h.logger.WarnContext(ctx, "escrow withdrawal failed",
				"currency", currency,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, newBalanceResponse(currency, caller, amount))
}

func newBalanceResponse(currency id.Currency, account id.Account, amount *big.Int) balanceResponse {
	display := decimal.NewFromBigInt(amount, -currency.Decimals()).String() + " " + currency.String()
	return balanceResponse{
		Currency: currency.String(),
		Account:  account.String(),
		Amount:   amount.String(),
		Display:  display,
	}
}
