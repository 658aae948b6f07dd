package domain

// Phase represents the current phase of a game round
type Phase string

const (
	PhaseNone    Phase = ""
	PhaseReading Phase = "reading"
	PhaseCoding  Phase = "coding"
	PhaseVoting  Phase = "voting"
	PhaseResults Phase = "results"
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo checks if a transition from current phase to target phase is valid.
// The round sequence is strictly forward; each lobby runs it exactly once.
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseNone:    {PhaseReading},
		PhaseReading: {PhaseCoding},
		PhaseCoding:  {PhaseVoting},
		PhaseVoting:  {PhaseResults},
		PhaseResults: {},
	}

	allowed, ok := validTransitions[p]
	if !ok {
		return false
	}

	for _, phase := range allowed {
		if phase == target {
			return true
		}
	}
	return false
}
