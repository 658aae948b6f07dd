package ws

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kaydendua/bAIted/internal/app"
	"github.com/kaydendua/bAIted/internal/domain"
)

// Handler upgrades HTTP requests to WebSocket connections and assigns each
// one its connection id
type Handler struct {
	hub          *Hub
	registry     *app.LobbyRegistry
	orchestrator *app.PhaseOrchestrator
	upgrader     websocket.Upgrader
	logger       *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, registry *app.LobbyRegistry, orchestrator *app.PhaseOrchestrator, logger *slog.Logger) *Handler {
	return &Handler{
		hub:          hub,
		registry:     registry,
		orchestrator: orchestrator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins for development
				// In production, you should validate the origin
				return true
			},
		},
		logger: logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	// Identity is the connection: a reconnect is a brand-new player
	playerID := uuid.New().String()

	client := NewClient(conn, h.hub, h.registry, h.orchestrator, playerID, h.logger)
	h.hub.Register(client)

	h.logger.Info("websocket connected", "playerID", playerID)

	client.Send(domain.NewEvent(domain.EventConnected, &domain.ConnectedPayload{
		PlayerID: playerID,
	}))

	client.Run()
}
