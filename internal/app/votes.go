package app

import "sync"

// VoteTally is a per-lobby, per-voter single-choice ballot box. Casting
// again overwrites the prior ballot. It is a dumb ledger: candidate
// legitimacy is the caller's job.
type VoteTally struct {
	mu    sync.RWMutex
	votes map[string]map[string]string // lobby code -> voterID -> candidateID
}

// NewVoteTally creates an empty vote tally
func NewVoteTally() *VoteTally {
	return &VoteTally{
		votes: make(map[string]map[string]string),
	}
}

// CastVote records (or overwrites) the voter's ballot
func (t *VoteTally) CastVote(code, voterID, candidateID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ballots, ok := t.votes[code]
	if !ok {
		ballots = make(map[string]string)
		t.votes[code] = ballots
	}
	ballots[voterID] = candidateID
}

// Counts derives candidate -> count fresh from the ledger
func (t *VoteTally) Counts(code string) map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	counts := make(map[string]int)
	for _, candidateID := range t.votes[code] {
		counts[candidateID]++
	}
	return counts
}

// HasVoted reports whether the voter has a live ballot
func (t *VoteTally) HasVoted(code, voterID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.votes[code][voterID]
	return ok
}

// BallotCount returns the number of live ballots for a lobby
func (t *VoteTally) BallotCount(code string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.votes[code])
}

// Clear drops the lobby's ballot box entirely
func (t *VoteTally) Clear(code string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.votes, code)
}
