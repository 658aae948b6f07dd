package domain

import "errors"

// Domain errors
var (
	ErrLobbyNotFound     = errors.New("lobby not found")
	ErrLobbyFull         = errors.New("lobby is full")
	ErrGameInProgress    = errors.New("game already started")
	ErrGameNotInProgress = errors.New("game not in progress")
	ErrNotEnoughPlayers  = errors.New("not enough players to start")
	ErrNotHost           = errors.New("only the host can perform this action")
	ErrNotInLobby        = errors.New("player is not in this lobby")
	ErrInvalidPhase      = errors.New("invalid action for current phase")
	ErrCannotVoteSelf    = errors.New("cannot vote for yourself")
	ErrInvalidVoteTarget = errors.New("invalid vote target")
	ErrEmptyPlayerName   = errors.New("player name is required")
	ErrCodeExhausted     = errors.New("failed to allocate a unique lobby code")
)
