package mock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/learnlink/learnlink/tts"
)

type outcome struct {
	id  tts.UtteranceID
	err error
	end bool
}

type listener struct {
	mu         sync.Mutex
	outcomes   []outcome
	boundaries []int
	ch         chan outcome
}

func newListener() *listener {
	return &listener{ch: make(chan outcome, 16)}
}

func (l *listener) UtteranceEnded(id tts.UtteranceID) {
	l.record(outcome{id: id, end: true})
}

func (l *listener) UtteranceFailed(id tts.UtteranceID, reason error) {
	l.record(outcome{id: id, err: reason})
}

func (l *listener) UtteranceBoundary(_ tts.UtteranceID, charIndex int) {
	l.mu.Lock()
	l.boundaries = append(l.boundaries, charIndex)
	l.mu.Unlock()
}

func (l *listener) record(o outcome) {
	l.mu.Lock()
	l.outcomes = append(l.outcomes, o)
	l.mu.Unlock()
	l.ch <- o
}

func (l *listener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.outcomes)
}

func utterance(text string) tts.Utterance {
	return tts.Utterance{ID: tts.NewUtteranceID(), Text: text, Voice: tts.DefaultVoice}
}

// TestNewMockEngine tests mock engine creation.
func TestNewMockEngine(t *testing.T) {
	engine := New()
	if !engine.Available() {
		t.Error("Mock engine should be available by default")
	}
	if engine.Name() != "mock" {
		t.Errorf("Name() = %q, want mock", engine.Name())
	}

	engine.SetAvailable(false)
	if engine.Available() {
		t.Error("SetAvailable(false) had no effect")
	}
}

// TestManualFinish tests that manual mode waits for Finish.
func TestManualFinish(t *testing.T) {
	engine := New()
	l := newListener()
	engine.SetListener(l)

	u := utterance("hello")
	if err := engine.Speak(u); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if engine.Outstanding() != 1 {
		t.Fatalf("Outstanding() = %d, want 1", engine.Outstanding())
	}
	got, ok := engine.NextSpoken(time.Second)
	if !ok || got.ID != u.ID {
		t.Fatal("NextSpoken did not return the accepted utterance")
	}

	engine.Finish(u.ID)
	engine.Finish(u.ID)

	if l.count() != 1 {
		t.Errorf("listener saw %d outcomes, want exactly 1", l.count())
	}
	if engine.Outstanding() != 0 {
		t.Errorf("Outstanding() = %d after Finish", engine.Outstanding())
	}
}

// TestSpeakError tests rejection.
func TestSpeakError(t *testing.T) {
	engine := New()
	l := newListener()
	engine.SetListener(l)
	engine.SetSpeakError(tts.ErrEngineBusy)

	if err := engine.Speak(utterance("x")); !errors.Is(err, tts.ErrEngineBusy) {
		t.Fatalf("Speak() = %v, want ErrEngineBusy", err)
	}
	if engine.Outstanding() != 0 {
		t.Error("rejected utterance should not be outstanding")
	}
	if len(engine.Texts()) != 1 {
		t.Error("rejected call should still be recorded")
	}
}

// TestOverlapCounting tests the overlap detector.
func TestOverlapCounting(t *testing.T) {
	engine := New()
	engine.SetListener(newListener())
	a := utterance("a")
	_ = engine.Speak(a)
	_ = engine.Speak(utterance("b"))

	if engine.Overlaps() != 1 {
		t.Errorf("Overlaps() = %d, want 1", engine.Overlaps())
	}
}

// TestStopThenLateFinish tests that a stopped utterance can still deliver
// one late callback.
func TestStopThenLateFinish(t *testing.T) {
	engine := New()
	l := newListener()
	engine.SetListener(l)
	u := utterance("x")
	_ = engine.Speak(u)

	engine.Stop()
	if engine.Stops() != 1 {
		t.Errorf("Stops() = %d, want 1", engine.Stops())
	}
	if l.count() != 0 {
		t.Fatal("Stop without fire-on-stop should not call back")
	}

	engine.Finish(u.ID)
	if l.count() != 1 {
		t.Errorf("late Finish delivered %d callbacks, want 1", l.count())
	}
}

// TestFireOnStop tests synchronous error delivery from Stop.
func TestFireOnStop(t *testing.T) {
	engine := New()
	l := newListener()
	engine.SetListener(l)
	engine.SetFireOnStop(true)
	u := utterance("x")
	_ = engine.Speak(u)

	engine.Stop()

	if l.count() != 1 {
		t.Fatalf("outcomes = %d, want 1", l.count())
	}
	o := <-l.ch
	if o.id != u.ID || !errors.Is(o.err, tts.ErrInterrupted) {
		t.Errorf("outcome = %+v, want ErrInterrupted for %s", o, u.ID)
	}
}

// TestAutoMode tests self-finishing utterances.
func TestAutoMode(t *testing.T) {
	engine := NewAuto(60000)
	l := newListener()
	engine.SetListener(l)
	engine.FailText("bad", errors.New("nope"))

	_ = engine.Speak(utterance("good words"))
	select {
	case o := <-l.ch:
		if !o.end {
			t.Errorf("expected end, got %+v", o)
		}
	case <-time.After(time.Second):
		t.Fatal("auto mode did not finish")
	}

	_ = engine.Speak(utterance("bad"))
	select {
	case o := <-l.ch:
		if o.err == nil {
			t.Errorf("expected failure, got %+v", o)
		}
	case <-time.After(time.Second):
		t.Fatal("auto mode did not fail")
	}
}

// TestAutoModeStopCancelsTimer tests that Stop prevents the scheduled end.
func TestAutoModeStopCancelsTimer(t *testing.T) {
	engine := NewAuto(60)
	l := newListener()
	engine.SetListener(l)
	_ = engine.Speak(utterance("one"))
	engine.Stop()

	time.Sleep(20 * time.Millisecond)
	if l.count() != 0 {
		t.Errorf("stopped utterance produced %d callbacks", l.count())
	}
}

// TestEstimate tests the auto-mode duration estimate.
func TestEstimate(t *testing.T) {
	engine := NewAuto(0)
	tests := []struct {
		name string
		u    tts.Utterance
		want time.Duration
	}{
		{"one word", tts.Utterance{Text: "cat", Voice: tts.DefaultVoice}, 400 * time.Millisecond},
		{"three words", tts.Utterance{Text: "the black cat", Voice: tts.DefaultVoice}, 1200 * time.Millisecond},
		{"double rate", tts.Utterance{Text: "cat", Voice: tts.VoiceParams{Rate: 2}}, 200 * time.Millisecond},
		{"empty", tts.Utterance{Text: ""}, 400 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.estimate(tt.u); got != tt.want {
				t.Errorf("estimate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestBoundary tests boundary forwarding.
func TestBoundary(t *testing.T) {
	engine := New()
	l := newListener()
	engine.SetListener(l)
	engine.Boundary(tts.NewUtteranceID(), 5)

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.boundaries) != 1 || l.boundaries[0] != 5 {
		t.Errorf("boundaries = %v, want [5]", l.boundaries)
	}
}
