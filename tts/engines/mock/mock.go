// Package mock provides a scriptable speech engine for tests and demos.
package mock

import (
	"strings"
	"sync"
	"time"

	"github.com/learnlink/learnlink/tts"
)

// Engine implements tts.Engine without producing any sound.
//
// In manual mode (New) utterances stay outstanding until the test calls
// Finish or Fail. In auto mode (NewAuto) each utterance ends after a
// duration estimated from its word count.
type Engine struct {
	mu       sync.Mutex
	listener tts.Listener

	// Control for testing
	available  bool
	speakErr   error
	failTexts  map[string]error
	fireOnStop bool

	// Auto mode
	auto           bool
	wordsPerMinute int
	timers         map[tts.UtteranceID]*time.Timer

	// State
	calls       []tts.Utterance
	outstanding map[tts.UtteranceID]tts.Utterance
	stopped     map[tts.UtteranceID]tts.Utterance
	stops       int
	overlaps    int
	spoken      chan tts.Utterance
}

var _ tts.Engine = (*Engine)(nil)

// New creates a manual mock engine.
func New() *Engine {
	return &Engine{
		available:   true,
		failTexts:   make(map[string]error),
		timers:      make(map[tts.UtteranceID]*time.Timer),
		outstanding: make(map[tts.UtteranceID]tts.Utterance),
		stopped:     make(map[tts.UtteranceID]tts.Utterance),
		spoken:      make(chan tts.Utterance, 256),
	}
}

// NewAuto creates a mock engine that finishes utterances on its own.
func NewAuto(wordsPerMinute int) *Engine {
	e := New()
	e.auto = true
	if wordsPerMinute <= 0 {
		wordsPerMinute = 150
	}
	e.wordsPerMinute = wordsPerMinute
	return e
}

// Name returns the engine name.
func (e *Engine) Name() string {
	return "mock"
}

// Available reports whether the engine is available.
func (e *Engine) Available() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available
}

// SetAvailable toggles availability.
func (e *Engine) SetAvailable(available bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.available = available
}

// SetSpeakError makes Speak reject every utterance with err. Pass nil to
// accept again.
func (e *Engine) SetSpeakError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speakErr = err
}

// FailText makes auto mode report err instead of finishing when text is spoken.
func (e *Engine) FailText(text string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failTexts[text] = err
}

// SetFireOnStop makes Stop report tts.ErrInterrupted for every outstanding
// utterance synchronously, before Stop returns.
func (e *Engine) SetFireOnStop(fire bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fireOnStop = fire
}

// SetListener registers the callback receiver.
func (e *Engine) SetListener(l tts.Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = l
}

// Speak accepts an utterance.
func (e *Engine) Speak(u tts.Utterance) error {
	e.mu.Lock()
	if e.speakErr != nil {
		err := e.speakErr
		e.calls = append(e.calls, u)
		e.mu.Unlock()
		return err
	}
	if len(e.outstanding) > 0 {
		e.overlaps++
	}
	e.calls = append(e.calls, u)
	e.outstanding[u.ID] = u
	if e.auto {
		e.schedule(u)
	}
	e.mu.Unlock()

	select {
	case e.spoken <- u:
	default:
	}
	return nil
}

// schedule arranges the auto-mode outcome. Callers must hold mu.
func (e *Engine) schedule(u tts.Utterance) {
	d := e.estimate(u)
	failErr, fail := e.failTexts[u.Text]
	e.timers[u.ID] = time.AfterFunc(d, func() {
		if fail {
			e.Fail(u.ID, failErr)
			return
		}
		e.Finish(u.ID)
	})
}

// estimate returns how long auto mode takes to "say" u.
func (e *Engine) estimate(u tts.Utterance) time.Duration {
	words := len(strings.Fields(u.Text))
	if words == 0 {
		words = 1
	}
	rate := u.Voice.Rate
	if rate <= 0 {
		rate = 1
	}
	perWord := time.Minute / time.Duration(e.wordsPerMinute)
	return time.Duration(float64(time.Duration(words)*perWord) / rate)
}

// Stop halts all outstanding utterances.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stops++
	var interrupted []tts.UtteranceID
	for id, u := range e.outstanding {
		if t, ok := e.timers[id]; ok {
			t.Stop()
			delete(e.timers, id)
		}
		delete(e.outstanding, id)
		e.stopped[id] = u
		interrupted = append(interrupted, id)
	}
	fire := e.fireOnStop
	l := e.listener
	e.mu.Unlock()

	if fire && l != nil {
		for _, id := range interrupted {
			l.UtteranceFailed(id, tts.ErrInterrupted)
		}
	}
}

// Finish fires the end callback for id, even if id was stopped earlier.
// This is how tests deliver late callbacks.
func (e *Engine) Finish(id tts.UtteranceID) {
	if l := e.take(id); l != nil {
		l.UtteranceEnded(id)
	}
}

// Fail fires the error callback for id.
func (e *Engine) Fail(id tts.UtteranceID, err error) {
	if l := e.take(id); l != nil {
		l.UtteranceFailed(id, err)
	}
}

// Boundary fires a word boundary callback for id.
func (e *Engine) Boundary(id tts.UtteranceID, charIndex int) {
	e.mu.Lock()
	l := e.listener
	e.mu.Unlock()
	if l != nil {
		l.UtteranceBoundary(id, charIndex)
	}
}

func (e *Engine) take(id tts.UtteranceID) tts.Listener {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, out := e.outstanding[id]
	_, stopped := e.stopped[id]
	if !out && !stopped {
		return nil
	}
	if t, ok := e.timers[id]; ok {
		t.Stop()
		delete(e.timers, id)
	}
	delete(e.outstanding, id)
	delete(e.stopped, id)
	return e.listener
}

// NextSpoken waits up to timeout for the next accepted utterance.
func (e *Engine) NextSpoken(timeout time.Duration) (tts.Utterance, bool) {
	select {
	case u := <-e.spoken:
		return u, true
	case <-time.After(timeout):
		return tts.Utterance{}, false
	}
}

// Calls returns every utterance passed to Speak, in order.
func (e *Engine) Calls() []tts.Utterance {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]tts.Utterance, len(e.calls))
	copy(out, e.calls)
	return out
}

// Texts returns the text of every Speak call, in order.
func (e *Engine) Texts() []string {
	calls := e.Calls()
	texts := make([]string, len(calls))
	for i, c := range calls {
		texts[i] = c.Text
	}
	return texts
}

// Outstanding returns the number of accepted utterances without an outcome.
func (e *Engine) Outstanding() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.outstanding)
}

// Stops returns how many times Stop was called.
func (e *Engine) Stops() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stops
}

// Overlaps returns how many times Speak was called while another utterance
// was still outstanding.
func (e *Engine) Overlaps() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.overlaps
}
