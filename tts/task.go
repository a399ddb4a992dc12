package tts

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskKind distinguishes spoken tasks from pauses.
type TaskKind int

const (
	// TaskSpeak speaks Text with Voice.
	TaskSpeak TaskKind = iota
	// TaskWait pauses the queue for Delay.
	TaskWait
)

// String returns the string representation of the task kind.
func (k TaskKind) String() string {
	switch k {
	case TaskSpeak:
		return "speak"
	case TaskWait:
		return "wait"
	default:
		return "unknown"
	}
}

// VoiceParams are the per-utterance voice settings.
type VoiceParams struct {
	Lang  string  // BCP 47 language tag (e.g., "en-US")
	Pitch float64 // 1.0 = engine default
	Rate  float64 // 1.0 = normal speed
}

// DefaultVoice is the voice used when a task does not specify one.
var DefaultVoice = VoiceParams{Lang: "en-US", Pitch: 1, Rate: 1}

// normalized fills zero fields with DefaultVoice values.
func (v VoiceParams) normalized() VoiceParams {
	if v.Lang == "" {
		v.Lang = DefaultVoice.Lang
	}
	if v.Pitch == 0 {
		v.Pitch = DefaultVoice.Pitch
	}
	if v.Rate == 0 {
		v.Rate = DefaultVoice.Rate
	}
	return v
}

// String renders the voice as lang/pitch/rate.
func (v VoiceParams) String() string {
	return fmt.Sprintf("%s/p%.2f/r%.2f", v.Lang, v.Pitch, v.Rate)
}

// Task is one unit of work for the sequencer: speak some text or wait.
type Task struct {
	Kind  TaskKind
	Text  string
	Voice VoiceParams
	Delay time.Duration
}

// SpeakTask returns a task that speaks text with the given voice.
func SpeakTask(text string, voice VoiceParams) Task {
	return Task{Kind: TaskSpeak, Text: text, Voice: voice.normalized()}
}

// WaitTask returns a task that pauses the queue for d.
func WaitTask(d time.Duration) Task {
	return Task{Kind: TaskWait, Delay: d}
}

// Blank reports whether a speak task has nothing to say.
func (t Task) Blank() bool {
	return t.Kind == TaskSpeak && strings.TrimSpace(t.Text) == ""
}

// Validate checks that the task is a well-formed speak or wait instruction.
// Blank text is valid: the sequencer skips it.
func (t Task) Validate() error {
	switch t.Kind {
	case TaskSpeak:
		if t.Voice.Rate < 0 || t.Voice.Pitch < 0 {
			return fmt.Errorf("%w: negative voice parameter %s", ErrInvalidTask, t.Voice)
		}
		return nil
	case TaskWait:
		if t.Delay < 0 {
			return fmt.Errorf("%w: negative wait %v", ErrInvalidTask, t.Delay)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidTask, int(t.Kind))
	}
}

// String returns a short description for logs.
func (t Task) String() string {
	if t.Kind == TaskWait {
		return fmt.Sprintf("wait(%v)", t.Delay)
	}
	return fmt.Sprintf("speak(%q %s)", t.Text, t.Voice)
}

// UtteranceID identifies one accepted utterance across engine callbacks.
type UtteranceID string

// NewUtteranceID returns a fresh random utterance id.
func NewUtteranceID() UtteranceID {
	return UtteranceID(uuid.NewString())
}

// Utterance is what the sequencer hands to an Engine.
type Utterance struct {
	ID    UtteranceID
	Text  string
	Voice VoiceParams
}
