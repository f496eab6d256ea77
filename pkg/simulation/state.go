package simulation

// State is a phase of the orchestrator's lifecycle.
type State int

// States in the order a run passes through them. Failed replaces Flushing
// and Terminated when workers miss the shutdown timeout.
const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateFlushing
	StateTerminated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateDraining:
		return "Draining"
	case StateFlushing:
		return "Flushing"
	case StateTerminated:
		return "Terminated"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Final reports whether no further transition can happen.
func (s State) Final() bool {
	return s == StateTerminated || s == StateFailed
}

// canTransition reports whether from -> to is a legal step.
func canTransition(from, to State) bool {
	switch to {
	case StateRunning:
		return from == StateIdle
	case StateDraining:
		return from == StateRunning
	case StateFlushing:
		return from == StateDraining
	case StateTerminated:
		return from == StateFlushing
	case StateFailed:
		return !from.Final()
	default:
		return false
	}
}
