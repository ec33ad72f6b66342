package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	http2 "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/api/http"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/usecases/dtos"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/usecases/interactor"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
)

type TelegramHandler struct {
	interactor *interactor.TelegramNotificationInteractor
	logger     *zerolog.Logger
}

func NewTelegramHandler(interactor *interactor.TelegramNotificationInteractor) *TelegramHandler {
	logger := log.GetLogger()
	return &TelegramHandler{interactor: interactor, logger: &logger}
}

// NotifyTransaction answers 200 when the message was sent and 202 when it was
// accepted but not sent, e.g. without a bot token.
func (h *TelegramHandler) NotifyTransaction(w http.ResponseWriter, r *http.Request) {
	var note models.TransactionNotification
	if err := http2.DecodeJSON(r, &note); err != nil {
		errors.HandleHTTPError(w, err)
		return
	}
	if note.UserID == "" || note.Reference == "" {
		errors.HandleHTTPError(w, errors.NewBadRequestError("userId and reference are required"))
		return
	}

	result, err := h.interactor.Notify(r.Context(), &note)
	if err != nil {
		h.logger.Error().Err(err).Str("reference", note.Reference).Msg("failed to send telegram notification")
		errors.HandleHTTPError(w, err)
		return
	}

	status := http.StatusOK
	if !result.Delivered {
		status = http.StatusAccepted
	}
	http2.WriteJSON(w, status, dtos.NotifyResponse{Delivered: result.Delivered, ChatID: result.ChatID, Reason: result.Reason})
}
