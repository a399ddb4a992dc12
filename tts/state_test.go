package tts

import "testing"

// TestStateString tests the String() method for State.
func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateIdle, "idle"},
		{StateDraining, "draining"},
		{State(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("State.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestTaskKindString tests the String() method for TaskKind.
func TestTaskKindString(t *testing.T) {
	tests := []struct {
		kind     TaskKind
		expected string
	}{
		{TaskSpeak, "speak"},
		{TaskWait, "wait"},
		{TaskKind(7), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("TaskKind.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}
