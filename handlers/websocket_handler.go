package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/Dosada05/smash-arena/live"
	"github.com/Dosada05/smash-arena/services"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub          *live.Hub
	arenaService services.ArenaService
	upgrader     websocket.Upgrader
	logger       *slog.Logger
}

// NewWebSocketHandler accepts upgrades from the given origins; "*" allows
// any origin.
func NewWebSocketHandler(hub *live.Hub, as services.ArenaService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:          hub,
		arenaService: as,
		logger:       logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// ServeWs godoc
// @Summary Live arena updates
// @Tags live
// @Description Upgrades to a WebSocket that receives MATCH_UPDATED and STANDINGS_UPDATED messages for the arena.
// @Param arenaID path int true "Arena ID"
// @Success 101 "Switching protocols"
// @Failure 404 {object} map[string]string "Arena not found"
// @Router /ws/arenas/{arenaID} [get]
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	arenaID, err := getIDFromURL(r, "arenaID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if _, err := h.arenaService.GetArena(r.Context(), arenaID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.logger.Warn("websocket upgrade failed", slog.Int("arena_id", arenaID), slog.Any("error", err))
		return
	}

	room := live.ArenaRoom(arenaID)
	h.hub.Subscribe(conn, room)
	h.logger.Debug("websocket client subscribed", slog.String("room", room))
}
