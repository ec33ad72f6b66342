package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/api/middlewares"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/websocket"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
)

type WebSocketHandler struct {
	hub    *websocket.Hub
	logger *zerolog.Logger
}

func NewWebSocketHandler(hub *websocket.Hub) *WebSocketHandler {
	logger := log.GetLogger()
	return &WebSocketHandler{hub: hub, logger: &logger}
}

// Connect upgrades the request and keeps it open until the client leaves.
func (h *WebSocketHandler) Connect(w http.ResponseWriter, r *http.Request) {
	principal, _ := middlewares.PrincipalFromContext(r.Context())
	if err := h.hub.Serve(w, r, principal.UserID); err != nil {
		// Upgrade already wrote the error response.
		h.logger.Warn().Err(err).Str("user_id", principal.UserID).Msg("WebSocket upgrade failed")
	}
}
