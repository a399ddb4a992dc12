package tts

import (
	tea "github.com/charmbracelet/bubbletea"
)

// EventType identifies what happened in the sequencer.
type EventType int

const (
	// EventTaskStarted is emitted when a task begins (after the engine
	// accepted a speak task, or when a wait begins).
	EventTaskStarted EventType = iota
	// EventTaskFinished is emitted when a task completes normally.
	EventTaskFinished
	// EventTaskFailed is emitted when the engine reports an error.
	EventTaskFailed
	// EventTaskSkipped is emitted for blank speak tasks.
	EventTaskSkipped
	// EventBoundary reports word progress inside the current utterance.
	EventBoundary
	// EventIdle is emitted when the queue has been fully drained.
	EventIdle
	// EventCanceled is emitted after CancelAll.
	EventCanceled
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventTaskStarted:
		return "started"
	case EventTaskFinished:
		return "finished"
	case EventTaskFailed:
		return "failed"
	case EventTaskSkipped:
		return "skipped"
	case EventBoundary:
		return "boundary"
	case EventIdle:
		return "idle"
	case EventCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Event describes a sequencer state change.
type Event struct {
	Type      EventType
	Task      Task
	Utterance UtteranceID // empty for wait and skipped tasks
	CharIndex int         // EventBoundary only
	Dropped   int         // EventCanceled only
	Err       error       // EventTaskFailed only
}

// Messages for Bubble Tea communication between the sequencer and a UI.

// SpeakingMsg indicates an utterance or pause has started.
type SpeakingMsg struct {
	Task      Task
	Utterance UtteranceID
}

// SpokenMsg indicates an utterance or pause has completed.
type SpokenMsg struct {
	Task Task
}

// WordMsg reports the character offset being spoken.
type WordMsg struct {
	Utterance UtteranceID
	Text      string
	CharIndex int
}

// SpeechErrorMsg indicates an utterance failed. The queue keeps going.
type SpeechErrorMsg struct {
	Err         error
	Recoverable bool
}

// IdleMsg indicates the sequencer has nothing left to say.
type IdleMsg struct {
	Canceled bool
}

// ToMsg converts an event into its Bubble Tea message. Skipped tasks have
// no message.
func (e Event) ToMsg() tea.Msg {
	switch e.Type {
	case EventTaskStarted:
		return SpeakingMsg{Task: e.Task, Utterance: e.Utterance}
	case EventTaskFinished:
		return SpokenMsg{Task: e.Task}
	case EventTaskFailed:
		return SpeechErrorMsg{Err: e.Err, Recoverable: IsRecoverableError(e.Err)}
	case EventBoundary:
		return WordMsg{Utterance: e.Utterance, Text: e.Task.Text, CharIndex: e.CharIndex}
	case EventIdle:
		return IdleMsg{}
	case EventCanceled:
		return IdleMsg{Canceled: true}
	default:
		return nil
	}
}

// EventChannel subscribes to s and returns a buffered channel of Bubble Tea
// messages. When the buffer is full, boundary and cancel messages are
// dropped rather than block the sequencer; task messages keep their order.
// CancelAll emits on its caller's goroutine, which is usually the one that
// drains ch.
func EventChannel(s *Sequencer, size int) <-chan tea.Msg {
	ch := make(chan tea.Msg, size)
	s.OnEvent(func(e Event) {
		msg := e.ToMsg()
		if msg == nil {
			return
		}
		if e.Type == EventBoundary || e.Type == EventCanceled {
			select {
			case ch <- msg:
			default:
			}
			return
		}
		ch <- msg
	})
	return ch
}

// ListenCmd waits for the next message on ch.
func ListenCmd(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}
