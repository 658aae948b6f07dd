package ws

import (
	"log/slog"
	"sync"

	"github.com/kaydendua/bAIted/internal/app"
	"github.com/kaydendua/bAIted/internal/domain"
)

// Hub is the connection registry and the room-broadcast primitive. Room
// membership is resolved through the lobby registry, so a broadcast always
// reaches the lobby's current members and nobody else.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client // playerID -> client
	registry *app.LobbyRegistry
	logger   *slog.Logger
}

// NewHub creates a hub backed by the given lobby registry
func NewHub(registry *app.LobbyRegistry, logger *slog.Logger) *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		registry: registry,
		logger:   logger,
	}
}

// Register adds a client connection for a player
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.playerID] = client
}

// Unregister removes a client connection
func (h *Hub) Unregister(playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, playerID)
}

// SendToPlayer delivers an event to a single connection
func (h *Hub) SendToPlayer(playerID string, event *domain.Event) {
	h.mu.RLock()
	client, ok := h.clients[playerID]
	h.mu.RUnlock()

	if !ok {
		return
	}
	if err := client.Send(event); err != nil {
		h.logger.Debug("failed to send to client", "playerID", playerID, "error", err)
	}
}

// SendToLobby delivers an event to every current member of a lobby
func (h *Hub) SendToLobby(code string, event *domain.Event) {
	h.SendToPlayers(h.registry.MemberIDs(code), event)
}

// SendToPlayers delivers an event to an explicit set of connections. Used
// for lobby-closed, where membership is already gone by broadcast time.
func (h *Hub) SendToPlayers(playerIDs []string, event *domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, id := range playerIDs {
		client, ok := h.clients[id]
		if !ok {
			continue
		}
		if err := client.Send(event); err != nil {
			h.logger.Debug("failed to send to client", "playerID", id, "error", err)
		}
	}
}

// ClientCount returns the number of live connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
