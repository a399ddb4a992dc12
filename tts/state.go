package tts

// State is the sequencer's drain state.
type State int

const (
	// StateIdle means no drain loop is running.
	StateIdle State = iota
	// StateDraining means a drain loop is popping and executing tasks.
	StateDraining
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraining:
		return "draining"
	default:
		return "unknown"
	}
}
