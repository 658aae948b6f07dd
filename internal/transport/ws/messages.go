package ws

import "encoding/json"

// MessageType represents the type of an inbound WebSocket message
type MessageType string

// Client → Server message types. The set is closed: anything else is
// rejected at the boundary before reaching game logic.
const (
	MsgCreateRoom          MessageType = "create-room"
	MsgJoinRoom            MessageType = "join-room"
	MsgLeaveRoom           MessageType = "leave-room"
	MsgStartGame           MessageType = "start-game"
	MsgRequestReadingPhase MessageType = "request-reading-phase"
	MsgSubmitCode          MessageType = "submit-code"
	MsgCastVote            MessageType = "cast-vote"
	MsgGetVotes            MessageType = "get-votes"
	MsgPing                MessageType = "ping"
)

// ClientMessage is the envelope for every inbound message. Payloads stay
// raw until the handler for the concrete type validates them.
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CreateRoomPayload is the payload for create-room
type CreateRoomPayload struct {
	PlayerName string `json:"playerName"`
	MaxPlayers int    `json:"maxPlayers,omitempty"`
}

// JoinRoomPayload is the payload for join-room
type JoinRoomPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

// RoomCodePayload is the payload for requests that only name a room
type RoomCodePayload struct {
	RoomCode string `json:"roomCode"`
}

// SubmitCodePayload is the payload for submit-code
type SubmitCodePayload struct {
	RoomCode string `json:"roomCode"`
	Code     string `json:"code"`
}

// CastVotePayload is the payload for cast-vote
type CastVotePayload struct {
	RoomCode    string `json:"roomCode"`
	CandidateID string `json:"candidateId"`
}

// Error codes
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeRoomNotFound   = "ROOM_NOT_FOUND"
	ErrCodeRoomFull       = "ROOM_FULL"
	ErrCodeInvalidAction  = "INVALID_ACTION"
	ErrCodeNotHost        = "NOT_HOST"
	ErrCodeNotInRoom      = "NOT_IN_ROOM"
	ErrCodeCannotVoteSelf = "CANNOT_VOTE_SELF"
	ErrCodeInvalidTarget  = "INVALID_VOTE_TARGET"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)
