package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	http2 "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/api/http"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/usecases/dtos"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/usecases/interactor"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
)

// AdminHandler serves the admin status endpoints.
type AdminHandler struct {
	settlement *interactor.SettlementInteractor
	deposits   *interactor.DepositInteractor
	orders     *interactor.OrderInteractor
	logger     *zerolog.Logger
}

func NewAdminHandler(settlement *interactor.SettlementInteractor, deposits *interactor.DepositInteractor, orders *interactor.OrderInteractor) *AdminHandler {
	logger := log.GetLogger()
	return &AdminHandler{settlement: settlement, deposits: deposits, orders: orders, logger: &logger}
}

func (h *AdminHandler) UpdateSepaDepositStatus(w http.ResponseWriter, r *http.Request) {
	id, err := http2.IDFromURL(r, "deposit")
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}

	var dto dtos.StatusUpdateDTO
	if err = http2.DecodeJSON(r, &dto); err != nil {
		h.logger.Error().Err(err).Msg(errors.ErrFailedDecodeRequestBody)
		errors.HandleHTTPError(w, err)
		return
	}

	result, err := h.settlement.UpdateSepaDepositStatus(r.Context(), id, parseStatus(dto.Status))
	if err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg(errors.ErrFailedUpdateStatus)
		errors.HandleHTTPError(w, err)
		return
	}

	http2.WriteJSON(w, http.StatusOK, statusResponse(result))
}

// UpdateOrderStatus serves PATCH /admin/{usdt|usdc}/{id}.
func (h *AdminHandler) UpdateOrderStatus(asset models.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := http2.IDFromURL(r, string(asset)+" order")
		if err != nil {
			errors.HandleHTTPError(w, err)
			return
		}

		var dto dtos.StatusUpdateDTO
		if err = http2.DecodeJSON(r, &dto); err != nil {
			h.logger.Error().Err(err).Msg(errors.ErrFailedDecodeRequestBody)
			errors.HandleHTTPError(w, err)
			return
		}

		result, err := h.settlement.UpdateOrderStatus(r.Context(), asset, id, parseStatus(dto.Status), dto.TxHash)
		if err != nil {
			h.logger.Error().Err(err).Str("id", id).Str("asset", string(asset)).Msg(errors.ErrFailedUpdateStatus)
			errors.HandleHTTPError(w, err)
			return
		}

		http2.WriteJSON(w, http.StatusOK, statusResponse(result))
	}
}

func (h *AdminHandler) DeleteSepaDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := http2.IDFromURL(r, "deposit")
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}

	if err = h.settlement.DeleteSepaDeposit(r.Context(), id); err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("failed to delete deposit")
		errors.HandleHTTPError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) GetSepaDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := http2.IDFromURL(r, "deposit")
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}

	deposit, err := h.deposits.Get(r.Context(), id)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}
	http2.WriteJSON(w, http.StatusOK, deposit)
}

func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	asset, _ := models.ParseOrderAsset(chi.URLParam(r, http2.AssetParam))
	id, err := http2.IDFromURL(r, string(asset)+" order")
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}

	order, err := h.orders.Get(r.Context(), asset, id)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}
	http2.WriteJSON(w, http.StatusOK, order)
}

func parseStatus(s string) models.Status {
	return models.Status(strings.ToLower(strings.TrimSpace(s)))
}

func statusResponse(result *interactor.SettlementResult) dtos.StatusUpdateResponse {
	return dtos.StatusUpdateResponse{
		ID:             result.ID,
		Type:           string(result.Type),
		PreviousStatus: string(result.PreviousStatus),
		Status:         string(result.Status),
		Changed:        result.Changed(),
	}
}
