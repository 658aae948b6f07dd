package domain

import "time"

// EventType names an outbound server-to-client message
type EventType string

const (
	EventConnected        EventType = "connected"
	EventRoomCreated      EventType = "room-created"
	EventRoomJoined       EventType = "room-joined"
	EventPlayerJoined     EventType = "player-joined"
	EventPlayerLeft       EventType = "player-left"
	EventLobbyLeft        EventType = "lobby-left"
	EventLobbyClosed      EventType = "lobby-closed"
	EventGameStarted      EventType = "game-started"
	EventYouAreAI         EventType = "you-are-ai"
	EventPhaseStarted     EventType = "phase-started"
	EventProblemReady     EventType = "problem-ready"
	EventCodeAccepted     EventType = "code-accepted"
	EventSubmissionUpdate EventType = "submission-count-update"
	EventCodingEnded      EventType = "coding-phase-ended"
	EventVoteAccepted     EventType = "vote-accepted"
	EventVoteUpdate       EventType = "vote-count-update"
	EventVoteCounts       EventType = "vote-counts"
	EventError            EventType = "error"
	EventPong             EventType = "pong"
)

// Event is the uniform envelope for every outbound message
type Event struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new outbound event with the current timestamp
func NewEvent(eventType EventType, payload interface{}) *Event {
	return &Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ConnectedPayload acknowledges a new connection with its assigned id
type ConnectedPayload struct {
	PlayerID string `json:"playerId"`
}

// LobbySnapshotPayload carries a redacted lobby snapshot
type LobbySnapshotPayload struct {
	Lobby PublicLobby `json:"lobby"`
}

// PlayerJoinedPayload is broadcast when a player joins a lobby
type PlayerJoinedPayload struct {
	Lobby  PublicLobby `json:"lobby"`
	Player PlayerInfo  `json:"player"`
}

// PlayerLeftPayload is broadcast when a player leaves a lobby
type PlayerLeftPayload struct {
	Lobby    PublicLobby `json:"lobby"`
	PlayerID string      `json:"playerId"`
}

// LobbyClosedPayload is sent to remaining members when a lobby is destroyed
type LobbyClosedPayload struct {
	Reason string `json:"reason"`
}

// YouAreAIPayload is sent privately to the secret AI player only
type YouAreAIPayload struct {
	Message string `json:"message"`
}

// PhaseStartedPayload is the uniform envelope for every phase transition.
// Problem is present for reading/coding, Submissions for voting, Results
// for results. Duration and StartsAt are unix milliseconds.
type PhaseStartedPayload struct {
	Phase       Phase             `json:"phase"`
	Duration    int64             `json:"duration"`
	StartsAt    int64             `json:"startsAt"`
	Problem     string            `json:"problem,omitempty"`
	Submissions []SubmissionEntry `json:"submissions,omitempty"`
	Results     *RoundResults     `json:"results,omitempty"`
}

// ProblemReadyPayload delivers problem text that arrived after the reading
// phase had already been broadcast
type ProblemReadyPayload struct {
	Problem string `json:"problem"`
}

// CodeAcceptedPayload acknowledges a code submission to its author
type CodeAcceptedPayload struct {
	Success     bool  `json:"success"`
	SubmittedAt int64 `json:"submittedAt"`
}

// SubmissionUpdatePayload is broadcast after each accepted submission
type SubmissionUpdatePayload struct {
	SubmittedCount int `json:"submittedCount"`
	TotalPlayers   int `json:"totalPlayers"`
}

// CodingEndedPayload carries the complete submission set, one entry per
// member, at the end of the coding phase
type CodingEndedPayload struct {
	Submissions []SubmissionEntry `json:"submissions"`
}

// VoteAcceptedPayload acknowledges a vote to its caster
type VoteAcceptedPayload struct {
	VoterID      string `json:"voterId"`
	VotedForID   string `json:"votedForId"`
	VotedForName string `json:"votedForName"`
}

// VoteCount is one candidate's aggregate count. Counts only; who voted for
// whom is never revealed.
type VoteCount struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Votes      int    `json:"votes"`
}

// VoteUpdatePayload is broadcast after each accepted vote
type VoteUpdatePayload struct {
	VoteCounts  []VoteCount `json:"voteCounts"`
	TotalVoters int         `json:"totalVoters"`
}

// VoteResult is one player's line in the end-of-round reveal
type VoteResult struct {
	PlayerID      string `json:"playerId"`
	PlayerName    string `json:"playerName"`
	Votes         int    `json:"votes"`
	WasEliminated bool   `json:"wasEliminated"`
	WasAI         bool   `json:"wasAI"`
}

// PlayerRef identifies a player in the results payload
type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EliminatedPlayer describes the voted-out player, if any
type EliminatedPlayer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	WasAI bool   `json:"wasAI"`
}

// RoundResults is the full outcome payload for the results phase. This is
// the one place the AI identity is revealed to everyone.
type RoundResults struct {
	IsTie            bool              `json:"isTie"`
	EliminatedPlayer *EliminatedPlayer `json:"eliminatedPlayer"`
	AIPlayer         *PlayerRef        `json:"aiPlayer"`
	VoteResults      []VoteResult      `json:"voteResults"`
	HumansWin        bool              `json:"humansWin"`
}

// ErrorPayload is sent privately to the offending requester only
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
