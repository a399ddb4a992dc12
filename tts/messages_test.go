package tts

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TestEventToMsg tests event to message conversion.
func TestEventToMsg(t *testing.T) {
	task := SpeakTask("cat", DefaultVoice)
	id := NewUtteranceID()

	if msg, ok := (Event{Type: EventTaskStarted, Task: task, Utterance: id}).ToMsg().(SpeakingMsg); !ok || msg.Utterance != id {
		t.Errorf("started event should become SpeakingMsg, got %#v", msg)
	}
	if _, ok := (Event{Type: EventTaskFinished, Task: task}).ToMsg().(SpokenMsg); !ok {
		t.Error("finished event should become SpokenMsg")
	}
	if msg, ok := (Event{Type: EventBoundary, Task: task, Utterance: id, CharIndex: 2}).ToMsg().(WordMsg); !ok || msg.Text != "cat" || msg.CharIndex != 2 {
		t.Errorf("boundary event should become WordMsg, got %#v", msg)
	}
	if msg, ok := (Event{Type: EventIdle}).ToMsg().(IdleMsg); !ok || msg.Canceled {
		t.Errorf("idle event should become IdleMsg{Canceled: false}, got %#v", msg)
	}
	if msg, ok := (Event{Type: EventCanceled}).ToMsg().(IdleMsg); !ok || !msg.Canceled {
		t.Errorf("canceled event should become IdleMsg{Canceled: true}, got %#v", msg)
	}
	if msg := (Event{Type: EventTaskSkipped}).ToMsg(); msg != nil {
		t.Errorf("skipped event should have no message, got %#v", msg)
	}
}

// TestEventToMsgError tests recoverability propagation.
func TestEventToMsgError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		recoverable bool
	}{
		{"utterance", ErrUtterance, true},
		{"unavailable", NewSpeechError(ErrEngineUnavailable, "sequencer", "start"), false},
		{"other", errors.New("x"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := (Event{Type: EventTaskFailed, Err: tt.err}).ToMsg().(SpeechErrorMsg)
			if !ok {
				t.Fatal("failed event should become SpeechErrorMsg")
			}
			if msg.Recoverable != tt.recoverable {
				t.Errorf("Recoverable = %v, want %v", msg.Recoverable, tt.recoverable)
			}
			if !errors.Is(msg.Err, tt.err) {
				t.Errorf("Err = %v, want %v", msg.Err, tt.err)
			}
		})
	}
}

// TestEventTypeString tests event type names.
func TestEventTypeString(t *testing.T) {
	names := map[EventType]string{
		EventTaskStarted:  "started",
		EventTaskFinished: "finished",
		EventTaskFailed:   "failed",
		EventTaskSkipped:  "skipped",
		EventBoundary:     "boundary",
		EventIdle:         "idle",
		EventCanceled:     "canceled",
		EventType(99):     "unknown",
	}
	for typ, want := range names {
		if got := typ.String(); got != want {
			t.Errorf("EventType(%d).String() = %q, want %q", typ, got, want)
		}
	}
}

// TestListenCmd tests the Bubble Tea command wrapper.
func TestListenCmd(t *testing.T) {
	ch := make(chan tea.Msg, 1)
	ch <- IdleMsg{}
	cmd := ListenCmd(ch)
	if _, ok := cmd().(IdleMsg); !ok {
		t.Error("ListenCmd should return the next message")
	}
}

func TestEventChannelCancelDoesNotBlock(t *testing.T) {
	s := NewSequencer(quietEngine{}, SequencerConfig{})
	ch := EventChannel(s, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 3 {
			s.CancelAll()
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("CancelAll blocked on a full event channel")
	}

	if len(ch) != 1 {
		t.Fatalf("buffered messages = %d, want 1", len(ch))
	}
	if msg, ok := (<-ch).(IdleMsg); !ok || !msg.Canceled {
		t.Errorf("message = %#v, want canceled IdleMsg", msg)
	}
}
