package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kaydendua/bAIted/internal/config"
	"github.com/kaydendua/bAIted/internal/domain"
)

// Broadcaster is the room-broadcast primitive the orchestrator pushes state
// through. Delivery is ordered per connection by the transport.
type Broadcaster interface {
	SendToPlayer(playerID string, event *domain.Event)
	SendToLobby(code string, event *domain.Event)
}

// phaseState is the per-lobby state owned by the orchestrator. A lobby has
// at most one pending deadline timer; entering a phase cancels-then-arms.
type phaseState struct {
	phase       domain.Phase
	startedAt   time.Time
	timer       *time.Timer
	submissions map[string]domain.CodeSubmission
	problem     string
}

// PhaseOrchestrator drives each lobby's round through
// reading -> coding -> voting -> results on wall-clock deadlines, with
// early advance when every member has acted.
type PhaseOrchestrator struct {
	mu          sync.Mutex
	states      map[string]*phaseState
	registry    *LobbyRegistry
	tally       *VoteTally
	generator   ProblemGenerator
	broadcaster Broadcaster
	game        config.GameConfig
	problem     config.ProblemConfig
	logger      *slog.Logger
}

// NewPhaseOrchestrator creates a phase orchestrator
func NewPhaseOrchestrator(
	registry *LobbyRegistry,
	tally *VoteTally,
	generator ProblemGenerator,
	broadcaster Broadcaster,
	game config.GameConfig,
	problem config.ProblemConfig,
	logger *slog.Logger,
) *PhaseOrchestrator {
	return &PhaseOrchestrator{
		states:      make(map[string]*phaseState),
		registry:    registry,
		tally:       tally,
		generator:   generator,
		broadcaster: broadcaster,
		game:        game,
		problem:     problem,
		logger:      logger,
	}
}

// StartReadingPhase begins the round for an in-progress lobby. Problem
// generation is kicked off exactly once, in the background; the phase
// broadcast waits for it at most the configured grace window so the phase
// clock stays reliable even when the generator is slow or down.
func (o *PhaseOrchestrator) StartReadingPhase(code string) error {
	o.mu.Lock()
	lobby, ok := o.registry.GetLobby(code)
	if !ok {
		o.mu.Unlock()
		return domain.ErrLobbyNotFound
	}
	if lobby.Status != domain.StatusInProgress {
		o.mu.Unlock()
		return domain.ErrGameNotInProgress
	}
	if _, exists := o.states[lobby.Code]; exists {
		o.mu.Unlock()
		return domain.ErrInvalidPhase
	}
	st := &phaseState{phase: domain.PhaseNone}
	o.states[lobby.Code] = st
	o.mu.Unlock()

	done := make(chan string, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.problem.Timeout)
		defer cancel()

		text, err := o.generator.Generate(ctx)
		if err != nil {
			o.logger.Error("problem generation failed", "roomCode", lobby.Code, "error", err)
			text = ProblemPlaceholder
		}
		done <- text
	}()

	var problem string
	select {
	case problem = <-done:
	case <-time.After(o.problem.GraceWindow):
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	st, ok = o.states[lobby.Code]
	if !ok {
		// Lobby torn down while we waited
		return domain.ErrLobbyNotFound
	}
	if st.phase != domain.PhaseNone {
		return domain.ErrInvalidPhase
	}

	st.problem = problem
	code = lobby.Code
	o.enterPhase(code, st, domain.PhaseReading, o.game.ReadingDuration,
		&domain.PhaseStartedPayload{Problem: st.problem},
		func() { o.startCodingPhase(code) },
	)

	if problem == "" {
		go o.deliverLateProblem(code, done)
	}

	return nil
}

// deliverLateProblem caches problem text that missed the reading broadcast
// and pushes it to the room as soon as it arrives
func (o *PhaseOrchestrator) deliverLateProblem(code string, done <-chan string) {
	text := <-done

	o.mu.Lock()
	defer o.mu.Unlock()

	st, ok := o.states[code]
	if !ok || st.problem != "" {
		return
	}
	st.problem = text
	o.broadcaster.SendToLobby(code, domain.NewEvent(domain.EventProblemReady, &domain.ProblemReadyPayload{
		Problem: text,
	}))
}

// startCodingPhase transitions reading -> coding on timer expiry
func (o *PhaseOrchestrator) startCodingPhase(code string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, ok := o.states[code]
	if !ok || st.phase != domain.PhaseReading {
		return
	}

	// The generator's own timeout is shorter than the reading phase, so the
	// cache should be set by now; placeholder if it somehow is not.
	if st.problem == "" {
		st.problem = ProblemPlaceholder
	}

	st.submissions = make(map[string]domain.CodeSubmission)

	o.enterPhase(code, st, domain.PhaseCoding, o.game.CodingDuration,
		&domain.PhaseStartedPayload{Problem: st.problem},
		func() { o.endCodingPhase(code) },
	)
}

// SubmitCode records (or overwrites) a player's code for the round and ends
// the coding phase early once every current member has submitted
func (o *PhaseOrchestrator) SubmitCode(code, playerID, submittedCode string) (domain.CodeSubmission, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, ok := o.states[code]
	if !ok || st.phase != domain.PhaseCoding {
		return domain.CodeSubmission{}, domain.ErrInvalidPhase
	}

	lobby, ok := o.registry.GetLobby(code)
	if !ok {
		return domain.CodeSubmission{}, domain.ErrLobbyNotFound
	}
	if !lobby.HasPlayer(playerID) {
		return domain.CodeSubmission{}, domain.ErrNotInLobby
	}

	sub := domain.CodeSubmission{
		PlayerID:    playerID,
		Code:        submittedCode,
		SubmittedAt: time.Now(),
	}
	st.submissions[playerID] = sub
	o.registry.MarkSubmitted(code, playerID, submittedCode)

	submitted := 0
	for _, p := range lobby.Players {
		if _, ok := st.submissions[p.ID]; ok {
			submitted++
		}
	}

	o.broadcaster.SendToLobby(code, domain.NewEvent(domain.EventSubmissionUpdate, &domain.SubmissionUpdatePayload{
		SubmittedCount: submitted,
		TotalPlayers:   len(lobby.Players),
	}))

	if submitted == len(lobby.Players) {
		o.endCodingLocked(code, st)
	}

	return sub, nil
}

// endCodingPhase ends the coding phase on natural expiry
func (o *PhaseOrchestrator) endCodingPhase(code string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, ok := o.states[code]
	if !ok {
		return
	}
	o.endCodingLocked(code, st)
}

// endCodingLocked ends the coding phase exactly once: early advance and
// natural expiry both funnel through the phase check here
func (o *PhaseOrchestrator) endCodingLocked(code string, st *phaseState) {
	if st.phase != domain.PhaseCoding {
		return
	}
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}

	lobby, ok := o.registry.GetLobby(code)
	if !ok {
		return
	}

	// Every member gets a recorded entry, empty code for anyone who never
	// submitted, so the voting and results views are always complete.
	now := time.Now()
	entries := make([]domain.SubmissionEntry, 0, len(lobby.Players))
	for _, p := range lobby.Players {
		sub, ok := st.submissions[p.ID]
		if !ok {
			sub = domain.CodeSubmission{PlayerID: p.ID, Code: "", SubmittedAt: now}
			st.submissions[p.ID] = sub
		}
		entries = append(entries, domain.SubmissionEntry{
			PlayerID:    p.ID,
			PlayerName:  p.Name,
			Code:        sub.Code,
			SubmittedAt: sub.SubmittedAt.UnixMilli(),
		})
	}

	o.logger.Info("coding phase ended", "roomCode", code, "submissions", len(entries))

	o.broadcaster.SendToLobby(code, domain.NewEvent(domain.EventCodingEnded, &domain.CodingEndedPayload{
		Submissions: entries,
	}))

	o.enterPhase(code, st, domain.PhaseVoting, o.game.VotingDuration,
		&domain.PhaseStartedPayload{Submissions: entries},
		func() { o.endVotingPhase(code) },
	)
}

// CastVote validates and records a vote, broadcasts the anonymous aggregate
// counts, and ends the voting phase early once every member has voted. It
// returns the candidate's name for the voter's private acknowledgement.
func (o *PhaseOrchestrator) CastVote(code, voterID, candidateID string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, ok := o.states[code]
	if !ok || st.phase != domain.PhaseVoting {
		return "", domain.ErrInvalidPhase
	}

	lobby, ok := o.registry.GetLobby(code)
	if !ok {
		return "", domain.ErrLobbyNotFound
	}
	if !lobby.HasPlayer(voterID) {
		return "", domain.ErrNotInLobby
	}
	if voterID == candidateID {
		return "", domain.ErrCannotVoteSelf
	}
	candidate := lobby.Player(candidateID)
	if candidate == nil {
		return "", domain.ErrInvalidVoteTarget
	}

	o.tally.CastVote(code, voterID, candidateID)

	o.broadcaster.SendToLobby(code, domain.NewEvent(domain.EventVoteUpdate, o.buildVoteCounts(lobby)))

	allVoted := true
	for _, p := range lobby.Players {
		if !o.tally.HasVoted(code, p.ID) {
			allVoted = false
			break
		}
	}
	if allVoted {
		o.endVotingLocked(code, st)
	}

	return candidate.Name, nil
}

// VoteCounts returns the current aggregate counts for a lobby
func (o *PhaseOrchestrator) VoteCounts(code string) (*domain.VoteUpdatePayload, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	lobby, ok := o.registry.GetLobby(code)
	if !ok {
		return nil, domain.ErrLobbyNotFound
	}
	return o.buildVoteCounts(lobby), nil
}

// buildVoteCounts derives the anonymous per-candidate counts in join order
func (o *PhaseOrchestrator) buildVoteCounts(lobby domain.Lobby) *domain.VoteUpdatePayload {
	counts := o.tally.Counts(lobby.Code)

	voteCounts := make([]domain.VoteCount, 0, len(lobby.Players))
	for _, p := range lobby.Players {
		voteCounts = append(voteCounts, domain.VoteCount{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Votes:      counts[p.ID],
		})
	}

	return &domain.VoteUpdatePayload{
		VoteCounts:  voteCounts,
		TotalVoters: len(lobby.Players),
	}
}

// endVotingPhase ends the voting phase on natural expiry
func (o *PhaseOrchestrator) endVotingPhase(code string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, ok := o.states[code]
	if !ok {
		return
	}
	o.endVotingLocked(code, st)
}

// endVotingLocked computes the outcome and enters the results phase
func (o *PhaseOrchestrator) endVotingLocked(code string, st *phaseState) {
	if st.phase != domain.PhaseVoting {
		return
	}
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}

	lobby, ok := o.registry.GetLobby(code)
	if !ok {
		return
	}

	results := ComputeResults(lobby, o.tally.Counts(code))

	eliminated := "no one (tie)"
	if results.EliminatedPlayer != nil {
		eliminated = results.EliminatedPlayer.Name
	}
	o.logger.Info("voting phase ended",
		"roomCode", code,
		"eliminated", eliminated,
		"humansWin", results.HumansWin,
	)

	o.enterPhase(code, st, domain.PhaseResults, o.game.ResultsDuration,
		&domain.PhaseStartedPayload{Results: results},
		func() { o.finishRound(code) },
	)
}

// ComputeResults derives the round outcome from the final counts. A tie
// (no votes, or multiple candidates at the maximum) eliminates no one and
// the AI wins by default; otherwise the single leader is eliminated and the
// humans win exactly when that leader was the AI.
func ComputeResults(lobby domain.Lobby, counts map[string]int) *domain.RoundResults {
	maxVotes := 0
	var leaders []string
	for _, p := range lobby.Players {
		c := counts[p.ID]
		if c > maxVotes {
			maxVotes = c
			leaders = []string{p.ID}
		} else if c == maxVotes {
			leaders = append(leaders, p.ID)
		}
	}

	isTie := maxVotes == 0 || len(leaders) > 1
	eliminatedID := ""
	if !isTie {
		eliminatedID = leaders[0]
	}

	results := &domain.RoundResults{
		IsTie:     isTie,
		HumansWin: !isTie && eliminatedID == lobby.AIPlayerID,
	}

	if ai := lobby.Player(lobby.AIPlayerID); ai != nil {
		results.AIPlayer = &domain.PlayerRef{ID: ai.ID, Name: ai.Name}
	}

	results.VoteResults = make([]domain.VoteResult, 0, len(lobby.Players))
	for _, p := range lobby.Players {
		results.VoteResults = append(results.VoteResults, domain.VoteResult{
			PlayerID:      p.ID,
			PlayerName:    p.Name,
			Votes:         counts[p.ID],
			WasEliminated: p.ID == eliminatedID,
			WasAI:         p.ID == lobby.AIPlayerID,
		})
		if p.ID == eliminatedID {
			results.EliminatedPlayer = &domain.EliminatedPlayer{
				ID:    p.ID,
				Name:  p.Name,
				WasAI: p.ID == lobby.AIPlayerID,
			}
		}
	}

	return results
}

// finishRound closes out the results window: the lobby is marked ended and
// all per-round state is dropped
func (o *PhaseOrchestrator) finishRound(code string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, ok := o.states[code]
	if !ok || st.phase != domain.PhaseResults {
		return
	}
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}

	delete(o.states, code)
	o.tally.Clear(code)
	o.registry.EndGame(code)

	o.logger.Info("round complete", "roomCode", code)
}

// CurrentPhase returns the lobby's current phase, PhaseNone when no round
// is running
func (o *PhaseOrchestrator) CurrentPhase(code string) domain.Phase {
	o.mu.Lock()
	defer o.mu.Unlock()

	if st, ok := o.states[code]; ok {
		return st.phase
	}
	return domain.PhaseNone
}

// Cleanup cancels the lobby's pending timer and drops its phase state and
// ballots. Called on lobby teardown; a torn-down lobby leaves no timer that
// can touch freed state.
func (o *PhaseOrchestrator) Cleanup(code string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if st, ok := o.states[code]; ok {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
		delete(o.states, code)
	}
	o.tally.Clear(code)
}

// Close cancels every pending timer
func (o *PhaseOrchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	for code, st := range o.states {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
		delete(o.states, code)
	}
}

// enterPhase is the single transition point: it cancels any prior timer,
// records the new phase, broadcasts the uniform phase-started envelope and
// arms the deadline. Caller must hold the lock.
func (o *PhaseOrchestrator) enterPhase(
	code string,
	st *phaseState,
	phase domain.Phase,
	duration time.Duration,
	payload *domain.PhaseStartedPayload,
	onExpiry func(),
) {
	if !st.phase.CanTransitionTo(phase) {
		o.logger.Error("invalid phase transition", "roomCode", code, "from", st.phase, "to", phase)
		return
	}

	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}

	st.phase = phase
	st.startedAt = time.Now()

	payload.Phase = phase
	payload.Duration = duration.Milliseconds()
	payload.StartsAt = st.startedAt.UnixMilli()

	o.broadcaster.SendToLobby(code, domain.NewEvent(domain.EventPhaseStarted, payload))

	st.timer = time.AfterFunc(duration, onExpiry)

	o.logger.Info("phase started", "roomCode", code, "phase", phase, "duration", duration)
}
