package domain

import "time"

// Player represents a player in a lobby. Identity is the transport connection
// id, so a reconnecting player is a brand-new Player record.
type Player struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	IsAI              bool      `json:"isAi"`
	LastSubmittedCode string    `json:"lastSubmittedCode,omitempty"`
	IsReady           bool      `json:"isReady"`
	JoinedAt          time.Time `json:"joinedAt"`
}

// NewPlayer creates a new player with the given ID and name
func NewPlayer(id, name string) Player {
	return Player{
		ID:       id,
		Name:     name,
		IsAI:     false,
		IsReady:  false,
		JoinedAt: time.Now(),
	}
}

// PlayerInfo is the public view of a player. It never carries the AI flag or
// the player's code; every broadcast goes through this type.
type PlayerInfo struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	IsReady  bool      `json:"isReady"`
	JoinedAt time.Time `json:"joinedAt"`
}

// ToInfo converts a Player to its public view
func (p Player) ToInfo() PlayerInfo {
	return PlayerInfo{
		ID:       p.ID,
		Name:     p.Name,
		IsReady:  p.IsReady,
		JoinedAt: p.JoinedAt,
	}
}
