package tts_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/learnlink/learnlink/tts"
	"github.com/learnlink/learnlink/tts/engines/mock"
)

const waitTimeout = 2 * time.Second

// recorder collects sequencer events and sleeps.
type recorder struct {
	mu     sync.Mutex
	events []tts.Event
	sleeps []time.Duration
	idle   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{idle: make(chan struct{}, 16)}
}

func (r *recorder) onEvent(e tts.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	if e.Type == tts.EventIdle {
		r.idle <- struct{}{}
	}
}

func (r *recorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.sleeps = append(r.sleeps, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recorder) types() []tts.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]tts.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recorder) count(typ tts.EventType) int {
	n := 0
	for _, t := range r.types() {
		if t == typ {
			n++
		}
	}
	return n
}

func (r *recorder) waitIdle(t *testing.T) {
	t.Helper()
	select {
	case <-r.idle:
	case <-time.After(waitTimeout):
		t.Fatal("sequencer did not become idle")
	}
}

func newTestSequencer(t *testing.T) (*tts.Sequencer, *mock.Engine, *recorder) {
	t.Helper()
	engine := mock.New()
	rec := newRecorder()
	seq := tts.NewSequencer(engine, tts.SequencerConfig{Sleeper: rec.sleep})
	seq.OnEvent(rec.onEvent)
	return seq, engine, rec
}

func nextSpoken(t *testing.T, e *mock.Engine) tts.Utterance {
	t.Helper()
	u, ok := e.NextSpoken(waitTimeout)
	if !ok {
		t.Fatal("engine was not asked to speak")
	}
	return u
}

func mustEnqueue(t *testing.T, s *tts.Sequencer, tasks ...tts.Task) {
	t.Helper()
	for _, task := range tasks {
		if err := s.Enqueue(task); err != nil {
			t.Fatalf("Enqueue(%v) failed: %v", task, err)
		}
	}
}

// TestSequencerSpeaksInOrderWithoutOverlap checks FIFO order and that no
// utterance starts before the previous one ended.
func TestSequencerSpeaksInOrderWithoutOverlap(t *testing.T) {
	seq, engine, rec := newTestSequencer(t)
	words := []string{"one", "two", "three", "four", "five"}
	for _, w := range words {
		mustEnqueue(t, seq, tts.SpeakTask(w, tts.DefaultVoice))
	}

	if err := seq.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for i, w := range words {
		u := nextSpoken(t, engine)
		if u.Text != w {
			t.Fatalf("utterance %d = %q, want %q", i, u.Text, w)
		}
		if _, ok := engine.NextSpoken(20 * time.Millisecond); ok {
			t.Fatalf("engine received a second utterance while %q was in flight", w)
		}
		engine.Finish(u.ID)
	}

	rec.waitIdle(t)
	if engine.Overlaps() != 0 {
		t.Errorf("Overlaps() = %d, want 0", engine.Overlaps())
	}
	if seq.State() != tts.StateIdle {
		t.Errorf("State() = %v, want idle", seq.State())
	}
	if got := rec.count(tts.EventTaskFinished); got != len(words) {
		t.Errorf("finished events = %d, want %d", got, len(words))
	}
}

// TestSequencerEnqueueDoesNotStart checks that enqueueing has no side effect.
func TestSequencerEnqueueDoesNotStart(t *testing.T) {
	seq, engine, _ := newTestSequencer(t)
	mustEnqueue(t, seq, tts.SpeakTask("hello", tts.DefaultVoice))

	if _, ok := engine.NextSpoken(50 * time.Millisecond); ok {
		t.Fatal("Enqueue started playback")
	}
	if seq.State() != tts.StateIdle {
		t.Errorf("State() = %v, want idle", seq.State())
	}
	if seq.Len() != 1 {
		t.Errorf("Len() = %d, want 1", seq.Len())
	}
}

// TestSequencerStartIdempotent checks that a second Start while draining
// does not create another drain loop.
func TestSequencerStartIdempotent(t *testing.T) {
	seq, engine, rec := newTestSequencer(t)
	mustEnqueue(t, seq,
		tts.SpeakTask("a", tts.DefaultVoice),
		tts.SpeakTask("b", tts.DefaultVoice),
	)

	if err := seq.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := seq.Start(); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}

	first := nextSpoken(t, engine)
	if _, ok := engine.NextSpoken(50 * time.Millisecond); ok {
		t.Fatal("two drain loops are speaking at once")
	}
	engine.Finish(first.ID)
	second := nextSpoken(t, engine)
	engine.Finish(second.ID)
	rec.waitIdle(t)

	if got := engine.Texts(); len(got) != 2 {
		t.Fatalf("engine saw %v, want exactly [a b]", got)
	}
	if engine.Overlaps() != 0 {
		t.Errorf("Overlaps() = %d, want 0", engine.Overlaps())
	}
}

// TestSequencerStartEmptyQueue checks that Start on an empty queue stays idle.
func TestSequencerStartEmptyQueue(t *testing.T) {
	seq, _, rec := newTestSequencer(t)
	if err := seq.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if seq.State() != tts.StateIdle {
		t.Errorf("State() = %v, want idle", seq.State())
	}
	if len(rec.types()) != 0 {
		t.Errorf("unexpected events: %v", rec.types())
	}
}

// TestSequencerLetterSequence walks the "name, pause, sound" example.
func TestSequencerLetterSequence(t *testing.T) {
	seq, engine, rec := newTestSequencer(t)
	voice1 := tts.VoiceParams{Lang: "en-US", Pitch: 1.2, Rate: 0.9}
	voice2 := tts.VoiceParams{Lang: "en-US", Pitch: 1, Rate: 1.1}

	mustEnqueue(t, seq,
		tts.SpeakTask("Ay", voice1),
		tts.WaitTask(150*time.Millisecond),
		tts.SpeakTask("ah", voice2),
	)
	if err := seq.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	u := nextSpoken(t, engine)
	if u.Text != "Ay" || u.Voice != voice1 {
		t.Fatalf("first utterance = %q %v, want Ay %v", u.Text, u.Voice, voice1)
	}
	engine.Finish(u.ID)

	u = nextSpoken(t, engine)
	if u.Text != "ah" || u.Voice != voice2 {
		t.Fatalf("second utterance = %q %v, want ah %v", u.Text, u.Voice, voice2)
	}

	rec.mu.Lock()
	sleeps := append([]time.Duration(nil), rec.sleeps...)
	rec.mu.Unlock()
	if len(sleeps) != 1 || sleeps[0] != 150*time.Millisecond {
		t.Fatalf("sleeps = %v, want [150ms] before the second utterance", sleeps)
	}

	engine.Finish(u.ID)
	rec.waitIdle(t)
	if seq.State() != tts.StateIdle {
		t.Errorf("State() = %v, want idle", seq.State())
	}
}

// TestSequencerSkipsBlankText checks that blank tasks never reach the engine
// and do not stall the queue.
func TestSequencerSkipsBlankText(t *testing.T) {
	seq, engine, rec := newTestSequencer(t)
	mustEnqueue(t, seq,
		tts.SpeakTask("cat", tts.DefaultVoice),
		tts.SpeakTask("", tts.DefaultVoice),
		tts.SpeakTask("   \t", tts.DefaultVoice),
		tts.SpeakTask("dog", tts.DefaultVoice),
	)
	if err := seq.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	engine.Finish(nextSpoken(t, engine).ID)
	engine.Finish(nextSpoken(t, engine).ID)
	rec.waitIdle(t)

	got := engine.Texts()
	if len(got) != 2 || got[0] != "cat" || got[1] != "dog" {
		t.Errorf("engine saw %q, want [cat dog]", got)
	}
	if n := rec.count(tts.EventTaskSkipped); n != 2 {
		t.Errorf("skipped events = %d, want 2", n)
	}
}

// TestSequencerCancelIgnoresLateCallback checks stale-callback immunity.
func TestSequencerCancelIgnoresLateCallback(t *testing.T) {
	seq, engine, rec := newTestSequencer(t)
	mustEnqueue(t, seq,
		tts.SpeakTask("X", tts.DefaultVoice),
		tts.SpeakTask("Y", tts.DefaultVoice),
	)
	if err := seq.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	x := nextSpoken(t, engine)

	seq.CancelAll()

	if engine.Stops() != 1 {
		t.Errorf("Stops() = %d, want 1", engine.Stops())
	}
	if seq.Len() != 0 {
		t.Errorf("Len() = %d, want 0", seq.Len())
	}
	if seq.State() != tts.StateIdle {
		t.Errorf("State() = %v, want idle", seq.State())
	}

	// The first utterance ends late.
	engine.Finish(x.ID)

	if u, ok := engine.NextSpoken(100 * time.Millisecond); ok {
		t.Fatalf("late callback resumed draining: engine asked to speak %q", u.Text)
	}
	if seq.State() != tts.StateIdle {
		t.Errorf("State() after late callback = %v, want idle", seq.State())
	}
	if rec.count(tts.EventTaskFinished) != 0 {
		t.Error("late callback produced a finished event")
	}
	if rec.count(tts.EventCanceled) != 1 {
		t.Error("expected one canceled event")
	}
}

// TestSequencerCancelWithSynchronousStopCallback covers engines that fire
// their error callback from inside Stop.
func TestSequencerCancelWithSynchronousStopCallback(t *testing.T) {
	seq, engine, _ := newTestSequencer(t)
	engine.SetFireOnStop(true)
	mustEnqueue(t, seq, tts.SpeakTask("X", tts.DefaultVoice), tts.SpeakTask("Y", tts.DefaultVoice))
	if err := seq.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	nextSpoken(t, engine)

	done := make(chan struct{})
	go func() {
		seq.CancelAll()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("CancelAll deadlocked on a synchronous stop callback")
	}

	if u, ok := engine.NextSpoken(100 * time.Millisecond); ok {
		t.Fatalf("synchronous stop callback resumed draining with %q", u.Text)
	}
	if seq.State() != tts.StateIdle {
		t.Errorf("State() = %v, want idle", seq.State())
	}
}

// TestSequencerRestartAfterCancel checks cancel-then-batch-enqueue-then-start.
func TestSequencerRestartAfterCancel(t *testing.T) {
	seq, engine, rec := newTestSequencer(t)
	mustEnqueue(t, seq, tts.SpeakTask("old", tts.DefaultVoice), tts.SpeakTask("older", tts.DefaultVoice))
	if err := seq.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	old := nextSpoken(t, engine)

	seq.CancelAll()
	mustEnqueue(t, seq, tts.SpeakTask("new", tts.DefaultVoice))
	if err := seq.Start(); err != nil {
		t.Fatalf("Start after cancel failed: %v", err)
	}

	u := nextSpoken(t, engine)
	if u.Text != "new" {
		t.Fatalf("after restart engine spoke %q, want new", u.Text)
	}

	// A late end for the superseded utterance must not finish "new".
	engine.Finish(old.ID)
	if _, ok := seq.InFlight(); !ok {
		t.Fatal("stale callback cleared the new in-flight utterance")
	}

	engine.Finish(u.ID)
	rec.waitIdle(t)
	for _, text := range engine.Texts() {
		if text == "older" {
			t.Error("canceled task was spoken")
		}
	}
}

// TestSequencerErrorDoesNotHaltQueue checks that a failing utterance is
// reported and the next task still plays.
func TestSequencerErrorDoesNotHaltQueue(t *testing.T) {
	seq, engine, rec := newTestSequencer(t)
	mustEnqueue(t, seq, tts.SpeakTask("bad", tts.DefaultVoice), tts.SpeakTask("good", tts.DefaultVoice))
	if err := seq.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	boom := errors.New("synthesis-failed")
	engine.Fail(nextSpoken(t, engine).ID, boom)
	good := nextSpoken(t, engine)
	if good.Text != "good" {
		t.Fatalf("engine spoke %q after failure, want good", good.Text)
	}
	engine.Finish(good.ID)
	rec.waitIdle(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	var failed *tts.Event
	for i := range rec.events {
		if rec.events[i].Type == tts.EventTaskFailed {
			failed = &rec.events[i]
		}
	}
	if failed == nil {
		t.Fatal("no failed event")
	}
	if !errors.Is(failed.Err, boom) || !errors.Is(failed.Err, tts.ErrUtterance) {
		t.Errorf("failed event error = %v, want it to wrap both the engine error and ErrUtterance", failed.Err)
	}
	if failed.Task.Text != "bad" {
		t.Errorf("failed event task = %q, want bad", failed.Task.Text)
	}
}

// TestSequencerSpeakRejected checks that a synchronous Speak error counts
// as a processed task.
func TestSequencerSpeakRejected(t *testing.T) {
	seq, engine, rec := newTestSequencer(t)
	engine.SetSpeakError(errors.New("device busy"))
	mustEnqueue(t, seq, tts.SpeakTask("a", tts.DefaultVoice), tts.SpeakTask("b", tts.DefaultVoice))
	if err := seq.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	rec.waitIdle(t)

	if got := rec.count(tts.EventTaskFailed); got != 2 {
		t.Errorf("failed events = %d, want 2", got)
	}
	if got := len(engine.Texts()); got != 2 {
		t.Errorf("Speak calls = %d, want 2", got)
	}
}

// TestSequencerEngineUnavailable checks that Start refuses and keeps the queue.
func TestSequencerEngineUnavailable(t *testing.T) {
	seq, engine, _ := newTestSequencer(t)
	engine.SetAvailable(false)
	mustEnqueue(t, seq, tts.SpeakTask("hello", tts.DefaultVoice))

	err := seq.Start()
	if !errors.Is(err, tts.ErrEngineUnavailable) {
		t.Fatalf("Start() error = %v, want ErrEngineUnavailable", err)
	}
	if seq.State() != tts.StateIdle {
		t.Errorf("State() = %v, want idle", seq.State())
	}
	if seq.Len() != 1 {
		t.Errorf("Len() = %d, want 1", seq.Len())
	}
	if len(engine.Texts()) != 0 {
		t.Error("unavailable engine was asked to speak")
	}
}

// TestSequencerEnqueueRejectsInvalidTask checks task validation.
func TestSequencerEnqueueRejectsInvalidTask(t *testing.T) {
	seq, _, _ := newTestSequencer(t)
	tests := []struct {
		name string
		task tts.Task
	}{
		{"negative wait", tts.WaitTask(-time.Second)},
		{"unknown kind", tts.Task{Kind: tts.TaskKind(42)}},
		{"negative rate", tts.Task{Kind: tts.TaskSpeak, Text: "x", Voice: tts.VoiceParams{Rate: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := seq.Enqueue(tt.task); !errors.Is(err, tts.ErrInvalidTask) {
				t.Errorf("Enqueue() error = %v, want ErrInvalidTask", err)
			}
		})
	}
	if seq.Len() != 0 {
		t.Errorf("Len() = %d, want 0", seq.Len())
	}
}

// TestSequencerBoundaryEvents checks that only current boundaries are forwarded.
func TestSequencerBoundaryEvents(t *testing.T) {
	seq, engine, rec := newTestSequencer(t)
	mustEnqueue(t, seq, tts.SpeakTask("The black cat", tts.DefaultVoice))
	if err := seq.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	u := nextSpoken(t, engine)

	engine.Boundary(u.ID, 4)
	engine.Boundary(tts.NewUtteranceID(), 0)
	engine.Finish(u.ID)
	rec.waitIdle(t)
	engine.Boundary(u.ID, 10)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	var boundaries []int
	for _, e := range rec.events {
		if e.Type == tts.EventBoundary {
			boundaries = append(boundaries, e.CharIndex)
		}
	}
	if len(boundaries) != 1 || boundaries[0] != 4 {
		t.Errorf("boundaries = %v, want [4]", boundaries)
	}
}

// TestSequencerWaitIdle checks WaitIdle with and without playback.
func TestSequencerWaitIdle(t *testing.T) {
	seq, engine, _ := newTestSequencer(t)

	if err := seq.WaitIdle(context.Background()); err != nil {
		t.Fatalf("WaitIdle on idle sequencer = %v", err)
	}

	mustEnqueue(t, seq, tts.SpeakTask("hello", tts.DefaultVoice))
	if err := seq.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	u := nextSpoken(t, engine)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := seq.WaitIdle(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitIdle while speaking = %v, want deadline exceeded", err)
	}

	engine.Finish(u.ID)
	ctx2, cancel2 := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel2()
	if err := seq.WaitIdle(ctx2); err != nil {
		t.Fatalf("WaitIdle after finish = %v", err)
	}
}

// TestSequencerCancelDuringWait checks that cancel aborts a pause.
func TestSequencerCancelDuringWait(t *testing.T) {
	engine := mock.New()
	seq := tts.NewSequencer(engine, tts.DefaultSequencerConfig())
	mustEnqueue(t, seq, tts.WaitTask(time.Hour), tts.SpeakTask("after", tts.DefaultVoice))
	if err := seq.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	seq.CancelAll()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if err := seq.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle = %v", err)
	}
	if _, ok := engine.NextSpoken(50 * time.Millisecond); ok {
		t.Error("task after a canceled wait was spoken")
	}
}

// TestSequencerAutoEngine runs the sequencer against the self-finishing mock.
func TestSequencerAutoEngine(t *testing.T) {
	engine := mock.NewAuto(6000)
	engine.FailText("oops", errors.New("bad voice"))
	seq := tts.NewSequencer(engine, tts.DefaultSequencerConfig())
	rec := newRecorder()
	seq.OnEvent(rec.onEvent)

	mustEnqueue(t, seq,
		tts.SpeakTask("hello there", tts.DefaultVoice),
		tts.WaitTask(time.Millisecond),
		tts.SpeakTask("oops", tts.DefaultVoice),
		tts.SpeakTask("bye", tts.DefaultVoice),
	)
	if err := seq.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	rec.waitIdle(t)

	got := engine.Texts()
	want := []string{"hello there", "oops", "bye"}
	if len(got) != len(want) {
		t.Fatalf("engine saw %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("utterance %d = %q, want %q", i, got[i], want[i])
		}
	}
	if rec.count(tts.EventTaskFailed) != 1 {
		t.Errorf("failed events = %d, want 1", rec.count(tts.EventTaskFailed))
	}
	if engine.Overlaps() != 0 {
		t.Errorf("Overlaps() = %d, want 0", engine.Overlaps())
	}
}

// TestEventChannel checks the Bubble Tea bridge delivers ordered messages.
func TestEventChannel(t *testing.T) {
	engine := mock.New()
	seq := tts.NewSequencer(engine, tts.DefaultSequencerConfig())
	ch := tts.EventChannel(seq, 16)

	mustEnqueue(t, seq, tts.SpeakTask("hi", tts.DefaultVoice))
	if err := seq.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	u := nextSpoken(t, engine)
	engine.Boundary(u.ID, 0)
	engine.Finish(u.ID)

	var got []string
	for len(got) < 4 {
		select {
		case msg := <-ch:
			switch msg.(type) {
			case tts.SpeakingMsg:
				got = append(got, "speaking")
			case tts.WordMsg:
				got = append(got, "word")
			case tts.SpokenMsg:
				got = append(got, "spoken")
			case tts.IdleMsg:
				got = append(got, "idle")
			}
		case <-time.After(waitTimeout):
			t.Fatalf("timed out, got %v", got)
		}
	}
	want := []string{"speaking", "word", "spoken", "idle"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("messages = %v, want %v", got, want)
		}
	}
}
