package tts

import "context"

// Engine is the single shared speech output. It accepts one utterance at a
// time and reports its outcome through the Listener.
type Engine interface {
	// Name returns the human-readable engine name.
	Name() string

	// Available reports whether the engine can speak in this environment.
	Available() bool

	// Speak accepts an utterance for playback and returns without waiting for
	// it to finish. Every accepted utterance eventually produces exactly one
	// UtteranceEnded or UtteranceFailed call. A non-nil error means the
	// utterance was not accepted and no callback will follow.
	Speak(u Utterance) error

	// Stop halts whatever is currently being spoken. Best effort.
	Stop()

	// SetListener registers the receiver of utterance callbacks.
	SetListener(l Listener)
}

// Listener receives utterance callbacks from an Engine. Implementations must
// tolerate calls from any goroutine, including synchronously from inside
// Speak or Stop.
type Listener interface {
	UtteranceEnded(id UtteranceID)
	UtteranceFailed(id UtteranceID, reason error)
	UtteranceBoundary(id UtteranceID, charIndex int)
}

// Synthesizer converts text into raw 16-bit little-endian mono PCM.
type Synthesizer interface {
	// Name returns the synthesizer name, used in cache keys and logs.
	Name() string

	// Synthesize renders text with the given voice.
	Synthesize(ctx context.Context, text string, voice VoiceParams) ([]byte, error)

	// Available checks that the backing binary or service can be reached.
	Available() bool
}

// Speaker is the caller-facing side of the sequencer. Trainers and UIs
// depend on it rather than on *Sequencer so they can be tested in isolation.
type Speaker interface {
	Enqueue(t Task) error
	Start() error
	CancelAll()
}
