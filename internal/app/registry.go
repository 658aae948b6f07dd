package app

import (
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/kaydendua/bAIted/internal/config"
	"github.com/kaydendua/bAIted/internal/domain"
)

// codeAllocationAttempts bounds collision retries when allocating a lobby code
const codeAllocationAttempts = 10

// LeaveResult describes the outcome of a player leaving a lobby
type LeaveResult struct {
	// Lobby is the updated lobby, nil if the player was in no lobby or the
	// lobby was destroyed
	Lobby *domain.Lobby
	// Code is the code of the lobby the player was in, empty if none
	Code string
	// WasHost reports whether the leaver was the host
	WasHost bool
	// Destroyed reports whether the lobby was torn down
	Destroyed bool
	// Remaining holds the ids of the members left behind at the moment of
	// destruction, for the lobby-closed notification
	Remaining []string
}

// LobbyRegistry owns the set of live lobbies, their membership, host
// identity, role assignment and lifecycle
type LobbyRegistry struct {
	mu          sync.RWMutex
	lobbies     map[string]*domain.Lobby
	playerLobby map[string]string // playerID -> lobby code
	cfg         config.GameConfig
	logger      *slog.Logger
	done        chan struct{}
	closeOnce   sync.Once
}

// NewLobbyRegistry creates a lobby registry and starts its cleanup loop
func NewLobbyRegistry(cfg config.GameConfig, logger *slog.Logger) *LobbyRegistry {
	r := &LobbyRegistry{
		lobbies:     make(map[string]*domain.Lobby),
		playerLobby: make(map[string]string),
		cfg:         cfg,
		logger:      logger,
		done:        make(chan struct{}),
	}

	go r.cleanupLoop()

	return r
}

// CreateLobby allocates a fresh code and creates a lobby with the requester
// as host and sole member
func (r *LobbyRegistry) CreateLobby(hostID, hostName string, maxPlayers int) (domain.Lobby, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return domain.Lobby{}, domain.ErrEmptyPlayerName
	}

	if maxPlayers <= 0 {
		maxPlayers = r.cfg.DefaultMaxPlayers
	}
	if maxPlayers < r.cfg.MinPlayers {
		maxPlayers = r.cfg.MinPlayers
	}
	if maxPlayers > r.cfg.MaxPlayers {
		maxPlayers = r.cfg.MaxPlayers
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var code string
	for attempts := 0; attempts < codeAllocationAttempts; attempts++ {
		code = GenerateCode(r.cfg.RoomCodeLength)
		if _, exists := r.lobbies[code]; !exists {
			break
		}
	}
	if _, exists := r.lobbies[code]; exists {
		return domain.Lobby{}, domain.ErrCodeExhausted
	}

	lobby := domain.NewLobby(code, hostID, hostName, maxPlayers)
	r.lobbies[code] = lobby
	r.playerLobby[hostID] = code

	r.logger.Info("lobby created", "roomCode", code, "host", hostName, "maxPlayers", maxPlayers)

	return lobby.Clone(), nil
}

// JoinLobby adds a player to a waiting lobby. Joining with an id that is
// already a member is a no-op and returns the lobby unchanged.
func (r *LobbyRegistry) JoinLobby(code, playerID, playerName string) (domain.Lobby, error) {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return domain.Lobby{}, domain.ErrEmptyPlayerName
	}

	// Codes are generated lowercase
	code = strings.ToLower(strings.TrimSpace(code))

	r.mu.Lock()
	defer r.mu.Unlock()

	lobby, ok := r.lobbies[code]
	if !ok {
		return domain.Lobby{}, domain.ErrLobbyNotFound
	}

	if lobby.Status != domain.StatusWaiting {
		return domain.Lobby{}, domain.ErrGameInProgress
	}

	if lobby.HasPlayer(playerID) {
		return lobby.Clone(), nil
	}

	if lobby.IsFull() {
		return domain.Lobby{}, domain.ErrLobbyFull
	}

	lobby.AddPlayer(playerID, playerName)
	r.playerLobby[playerID] = code

	r.logger.Info("player joined lobby", "roomCode", code, "player", playerName)

	return lobby.Clone(), nil
}

// LeaveLobby removes the player from whatever lobby they are in. If the
// leaver was the host, or the lobby becomes empty, the lobby is destroyed;
// there is no host migration.
func (r *LobbyRegistry) LeaveLobby(playerID string) LeaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.playerLobby[playerID]
	if !ok {
		return LeaveResult{}
	}
	delete(r.playerLobby, playerID)

	lobby, ok := r.lobbies[code]
	if !ok {
		return LeaveResult{Code: code}
	}

	wasHost := lobby.HostID == playerID
	lobby.RemovePlayer(playerID)

	if wasHost || len(lobby.Players) == 0 {
		remaining := lobby.MemberIDs()
		for _, id := range remaining {
			delete(r.playerLobby, id)
		}
		delete(r.lobbies, code)

		r.logger.Info("lobby destroyed", "roomCode", code, "hostLeft", wasHost)

		return LeaveResult{Code: code, WasHost: wasHost, Destroyed: true, Remaining: remaining}
	}

	r.logger.Info("player left lobby", "roomCode", code, "playerID", playerID)

	updated := lobby.Clone()
	return LeaveResult{Lobby: &updated, Code: code, WasHost: wasHost}
}

// StartGame flips a waiting lobby to in-progress and assigns the secret AI
// role to one member chosen uniformly at random. The returned snapshot still
// carries the assignment; callers must broadcast through PublicView.
func (r *LobbyRegistry) StartGame(code, requesterID string) (domain.Lobby, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lobby, ok := r.lobbies[code]
	if !ok {
		return domain.Lobby{}, domain.ErrLobbyNotFound
	}

	if lobby.HostID != requesterID {
		return domain.Lobby{}, domain.ErrNotHost
	}

	if lobby.Status != domain.StatusWaiting {
		return domain.Lobby{}, domain.ErrGameInProgress
	}

	if len(lobby.Players) < r.cfg.MinPlayers {
		return domain.Lobby{}, domain.ErrNotEnoughPlayers
	}

	aiIdx := rand.Intn(len(lobby.Players))
	lobby.Players[aiIdx].IsAI = true
	lobby.AIPlayerID = lobby.Players[aiIdx].ID
	lobby.Status = domain.StatusInProgress

	r.logger.Info("game started", "roomCode", code, "players", len(lobby.Players))

	return lobby.Clone(), nil
}

// EndGame marks an in-progress lobby as ended when its results window closes
func (r *LobbyRegistry) EndGame(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lobby, ok := r.lobbies[code]
	if !ok || lobby.Status != domain.StatusInProgress {
		return
	}

	lobby.Status = domain.StatusEnded
	r.logger.Info("game ended", "roomCode", code)
}

// MarkSubmitted records a player's latest code on their lobby record
func (r *LobbyRegistry) MarkSubmitted(code, playerID, submittedCode string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lobby, ok := r.lobbies[code]
	if !ok {
		return
	}

	if p := lobby.Player(playerID); p != nil {
		p.LastSubmittedCode = submittedCode
		p.IsReady = true
	}
}

// GetLobby returns a snapshot of the lobby with the given code
func (r *LobbyRegistry) GetLobby(code string) (domain.Lobby, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lobby, ok := r.lobbies[strings.ToLower(code)]
	if !ok {
		return domain.Lobby{}, false
	}
	return lobby.Clone(), true
}

// GetLobbyByPlayer returns a snapshot of the lobby the player is a member of
func (r *LobbyRegistry) GetLobbyByPlayer(playerID string) (domain.Lobby, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	code, ok := r.playerLobby[playerID]
	if !ok {
		return domain.Lobby{}, false
	}
	lobby, ok := r.lobbies[code]
	if !ok {
		return domain.Lobby{}, false
	}
	return lobby.Clone(), true
}

// MemberIDs returns the member ids of a lobby in join order
func (r *LobbyRegistry) MemberIDs(code string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lobby, ok := r.lobbies[code]
	if !ok {
		return nil
	}
	return lobby.MemberIDs()
}

// LobbyCount returns the number of live lobbies
func (r *LobbyRegistry) LobbyCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lobbies)
}

// PlayerCount returns the total number of players across all lobbies
func (r *LobbyRegistry) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, lobby := range r.lobbies {
		total += len(lobby.Players)
	}
	return total
}

// Close stops the cleanup loop
func (r *LobbyRegistry) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
}

// cleanupLoop periodically drops stale waiting lobbies
func (r *LobbyRegistry) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.cleanupStaleLobbies()
		}
	}
}

// cleanupStaleLobbies removes waiting lobbies older than the configured max age
func (r *LobbyRegistry) cleanupStaleLobbies() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for code, lobby := range r.lobbies {
		if lobby.Status != domain.StatusWaiting {
			continue
		}
		if now.Sub(lobby.CreatedAt) <= r.cfg.LobbyMaxAge {
			continue
		}
		for _, id := range lobby.MemberIDs() {
			delete(r.playerLobby, id)
		}
		delete(r.lobbies, code)
		r.logger.Info("stale lobby cleaned up", "roomCode", code)
	}
}
