package domain

import "time"

// LobbyStatus represents the lifecycle state of a lobby.
// Transitions are monotonic: waiting -> in-progress -> ended.
type LobbyStatus string

const (
	StatusWaiting    LobbyStatus = "waiting"
	StatusInProgress LobbyStatus = "in-progress"
	StatusEnded      LobbyStatus = "ended"
)

// Lobby represents one game session's shared state, keyed by a short code
type Lobby struct {
	Code       string      `json:"code"`
	HostID     string      `json:"hostId"`
	Players    []Player    `json:"players"`
	Status     LobbyStatus `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
	MaxPlayers int         `json:"maxPlayers"`
	AIPlayerID string      `json:"aiPlayerId,omitempty"`
}

// NewLobby creates a lobby with the host as its sole member
func NewLobby(code, hostID, hostName string, maxPlayers int) *Lobby {
	return &Lobby{
		Code:       code,
		HostID:     hostID,
		Players:    []Player{NewPlayer(hostID, hostName)},
		Status:     StatusWaiting,
		CreatedAt:  time.Now(),
		MaxPlayers: maxPlayers,
	}
}

// AddPlayer appends a player, preserving join order
func (l *Lobby) AddPlayer(id, name string) *Player {
	l.Players = append(l.Players, NewPlayer(id, name))
	return &l.Players[len(l.Players)-1]
}

// RemovePlayer removes a player by id, returning whether it was present
func (l *Lobby) RemovePlayer(id string) bool {
	for i, p := range l.Players {
		if p.ID == id {
			l.Players = append(l.Players[:i], l.Players[i+1:]...)
			return true
		}
	}
	return false
}

// Player returns a pointer to the player with the given id
func (l *Lobby) Player(id string) *Player {
	for i := range l.Players {
		if l.Players[i].ID == id {
			return &l.Players[i]
		}
	}
	return nil
}

// HasPlayer reports whether the given id is a current member
func (l *Lobby) HasPlayer(id string) bool {
	return l.Player(id) != nil
}

// MemberIDs returns the member ids in join order
func (l *Lobby) MemberIDs() []string {
	ids := make([]string, len(l.Players))
	for i, p := range l.Players {
		ids[i] = p.ID
	}
	return ids
}

// IsFull reports whether the lobby is at capacity
func (l *Lobby) IsFull() bool {
	return len(l.Players) >= l.MaxPlayers
}

// Clone returns a deep copy of the lobby
func (l *Lobby) Clone() Lobby {
	out := *l
	out.Players = make([]Player, len(l.Players))
	copy(out.Players, l.Players)
	return out
}

// PublicLobby is the redacted view of a lobby that is safe to broadcast.
// The AI assignment is never present; the holder learns their role through
// a private message and everyone else at results time.
type PublicLobby struct {
	Code       string       `json:"code"`
	HostID     string       `json:"hostId"`
	Players    []PlayerInfo `json:"players"`
	Status     LobbyStatus  `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
	MaxPlayers int          `json:"maxPlayers"`
}

// PublicView is the single serialization chokepoint for broadcasting lobby
// state. All outbound lobby snapshots must be built here so no code path can
// leak the AI assignment.
func (l *Lobby) PublicView() PublicLobby {
	players := make([]PlayerInfo, len(l.Players))
	for i, p := range l.Players {
		players[i] = p.ToInfo()
	}
	return PublicLobby{
		Code:       l.Code,
		HostID:     l.HostID,
		Players:    players,
		Status:     l.Status,
		CreatedAt:  l.CreatedAt,
		MaxPlayers: l.MaxPlayers,
	}
}
