package domain

import "time"

// CodeSubmission represents one player's code for the current round.
// Resubmitting overwrites; last write per player wins.
type CodeSubmission struct {
	PlayerID    string    `json:"playerId"`
	Code        string    `json:"code"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// SubmissionEntry is the broadcast form of a submission, with the player
// name resolved and the timestamp in unix milliseconds for the wire.
type SubmissionEntry struct {
	PlayerID    string `json:"playerId"`
	PlayerName  string `json:"playerName"`
	Code        string `json:"code"`
	SubmittedAt int64  `json:"submittedAt"`
}
