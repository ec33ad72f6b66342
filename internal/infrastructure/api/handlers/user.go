package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	http2 "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/api/http"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/api/middlewares"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/usecases/dtos"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/usecases/interactor"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
)

type BalanceHandler struct {
	interactor *interactor.UserInteractor
	logger     *zerolog.Logger
}

func NewBalanceHandler(interactor *interactor.UserInteractor) *BalanceHandler {
	logger := log.GetLogger()
	return &BalanceHandler{interactor: interactor, logger: &logger}
}

func (uh *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	principal, _ := middlewares.PrincipalFromContext(r.Context())

	balance, currency, err := uh.interactor.GetBalance(r.Context(), principal.UserID)
	if err != nil {
		uh.logger.Error().Err(err).Msg("failed to get balance")
		errors.HandleHTTPError(w, err)
		return
	}

	http2.WriteJSON(w, http.StatusOK, dtos.BalanceResponse{Balance: balance, Currency: string(currency)})
}
