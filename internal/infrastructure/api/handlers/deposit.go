package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	http2 "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/api/http"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/api/middlewares"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/usecases/dtos"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/usecases/interactor"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
)

// TransactionHandler serves the user facing deposit and order endpoints.
type TransactionHandler struct {
	deposits *interactor.DepositInteractor
	orders   *interactor.OrderInteractor
	logger   *zerolog.Logger
}

func NewTransactionHandler(deposits *interactor.DepositInteractor, orders *interactor.OrderInteractor) *TransactionHandler {
	logger := log.GetLogger()
	return &TransactionHandler{deposits: deposits, orders: orders, logger: &logger}
}

func (h *TransactionHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	principal, _ := middlewares.PrincipalFromContext(r.Context())

	var dto dtos.CreateDepositDTO
	if err := http2.DecodeJSON(r, &dto); err != nil {
		h.logger.Error().Err(err).Msg(errors.ErrFailedDecodeRequestBody)
		errors.HandleHTTPError(w, err)
		return
	}

	deposit, calc, err := h.deposits.Create(r.Context(), principal.UserID, &dto)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", principal.UserID).Msg(errors.ErrFailedCreateDeposit)
		errors.HandleHTTPError(w, err)
		return
	}

	http2.WriteJSON(w, http.StatusCreated, dtos.CreateDepositResponse{Deposit: deposit, Calculation: calc})
}

// CalculateDeposit serves GET /deposits/calculate?amount=&currency=&referralCode=.
func (h *TransactionHandler) CalculateDeposit(w http.ResponseWriter, r *http.Request) {
	principal, _ := middlewares.PrincipalFromContext(r.Context())
	q := r.URL.Query()

	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		errors.HandleHTTPError(w, errors.NewValidationError(errors.CodeInvalidAmount, errors.ErrInvalidAmount))
		return
	}
	var referralCode *string
	if code := q.Get("referralCode"); code != "" {
		referralCode = &code
	}

	calc, err := h.deposits.Calculate(r.Context(), principal.UserID, amount, q.Get("currency"), referralCode)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}
	http2.WriteJSON(w, http.StatusOK, calc)
}

// CreateOrder serves POST /orders/{asset}.
func (h *TransactionHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	principal, _ := middlewares.PrincipalFromContext(r.Context())
	asset, ok := models.ParseOrderAsset(chi.URLParam(r, http2.AssetParam))
	if !ok {
		errors.HandleHTTPError(w, errors.NewNotFoundError("order asset", chi.URLParam(r, http2.AssetParam)))
		return
	}

	var dto dtos.CreateOrderDTO
	if err := http2.DecodeJSON(r, &dto); err != nil {
		h.logger.Error().Err(err).Msg(errors.ErrFailedDecodeRequestBody)
		errors.HandleHTTPError(w, err)
		return
	}

	order, err := h.orders.Create(r.Context(), principal.UserID, asset, &dto)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", principal.UserID).Msg(errors.ErrFailedCreateOrder)
		errors.HandleHTTPError(w, err)
		return
	}
	http2.WriteJSON(w, http.StatusCreated, order)
}
