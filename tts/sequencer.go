// Package tts sequences text-to-speech utterances for LearnLink.
//
// A Sequencer owns the single shared speech Engine and plays queued tasks
// one at a time, in submission order. CancelAll supersedes everything that
// was queued or playing; completion signals that arrive for a superseded
// utterance are ignored.
package tts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SequencerConfig holds configuration for a Sequencer.
type SequencerConfig struct {
	Logger  *log.Logger // defaults to the package logger with a "speech" prefix
	Sleeper Sleeper     // defaults to a timer-based sleep
}

// DefaultSequencerConfig returns the default configuration.
func DefaultSequencerConfig() SequencerConfig {
	return SequencerConfig{
		Logger:  log.Default().WithPrefix("speech"),
		Sleeper: sleepContext,
	}
}

// Sequencer serializes speech tasks onto a single Engine.
type Sequencer struct {
	engine Engine
	queue  *PlaybackQueue
	sleep  Sleeper
	logger *log.Logger

	// engineMu is held across "check generation, dequeue, Speak" and around
	// Stop, so a canceled drain loop can never hand the engine a stale task.
	// Lock order: engineMu before mu.
	engineMu sync.Mutex

	mu       sync.Mutex
	state    State
	gen      uint64
	cancel   context.CancelFunc
	inflight *flight
	idle     chan struct{} // closed whenever state is StateIdle
	onEvent  func(Event)
}

// flight is the one utterance currently handed to the engine.
type flight struct {
	id   UtteranceID
	task Task
	gen  uint64
	done chan error // receives exactly one outcome
}

var _ Listener = (*Sequencer)(nil)

// NewSequencer creates a sequencer that owns engine and registers itself as
// the engine's listener.
func NewSequencer(engine Engine, cfg SequencerConfig) *Sequencer {
	def := DefaultSequencerConfig()
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	if cfg.Sleeper == nil {
		cfg.Sleeper = def.Sleeper
	}

	idle := make(chan struct{})
	close(idle)

	s := &Sequencer{
		engine: engine,
		queue:  NewPlaybackQueue(),
		sleep:  cfg.Sleeper,
		logger: cfg.Logger,
		state:  StateIdle,
		idle:   idle,
	}
	engine.SetListener(s)
	return s
}

// OnEvent registers a callback for sequencer events. Task events come from
// the drain goroutine in order; boundary events come from the engine.
// The callback runs without any sequencer lock held.
func (s *Sequencer) OnEvent(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvent = fn
}

// Engine returns the engine owned by the sequencer.
func (s *Sequencer) Engine() Engine {
	return s.engine
}

// Enqueue validates t and appends it to the queue. It does not start playback.
func (s *Sequencer) Enqueue(t Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.queue.Enqueue(t)
	return nil
}

// Speak enqueues a speak task.
func (s *Sequencer) Speak(text string, voice VoiceParams) error {
	return s.Enqueue(SpeakTask(text, voice))
}

// Pause enqueues a wait task.
func (s *Sequencer) Pause(d time.Duration) error {
	return s.Enqueue(WaitTask(d))
}

// Start begins draining the queue. It is a no-op while already draining or
// when the queue is empty. If the engine is unavailable the queue is left
// untouched and an error wrapping ErrEngineUnavailable is returned.
func (s *Sequencer) Start() error {
	if !s.engine.Available() {
		s.logger.Warn("Speech engine unavailable", "engine", s.engine.Name())
		return NewSpeechError(ErrEngineUnavailable, "sequencer", "start").
			WithContext("engine", s.engine.Name())
	}

	s.mu.Lock()
	if s.state == StateDraining || s.queue.Len() == 0 {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.state = StateDraining
	s.idle = make(chan struct{})
	s.mu.Unlock()

	s.logger.Debug("Drain loop started", "generation", gen)
	go s.drain(ctx, gen)
	return nil
}

// CancelAll stops the engine, clears the queue and returns to idle. The
// utterance in flight, if any, is invalidated first so its late callbacks
// are ignored; Stop is called without the state lock so engines that fire
// callbacks synchronously from Stop are safe.
func (s *Sequencer) CancelAll() {
	s.mu.Lock()
	s.gen++
	dropped := s.queue.Clear()
	hadFlight := s.inflight != nil
	s.inflight = nil
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.state == StateDraining {
		s.state = StateIdle
		close(s.idle)
	}
	s.mu.Unlock()

	s.engineMu.Lock()
	s.engine.Stop()
	s.engineMu.Unlock()

	s.logger.Debug("Speech canceled", "dropped", dropped, "inFlight", hadFlight)
	s.emit(Event{Type: EventCanceled, Dropped: dropped})
}

// State returns the current drain state.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Len returns the number of pending tasks.
func (s *Sequencer) Len() int {
	return s.queue.Len()
}

// QueueStats returns statistics of the underlying queue.
func (s *Sequencer) QueueStats() QueueStats {
	return s.queue.Stats()
}

// InFlight returns the utterance currently handed to the engine.
func (s *Sequencer) InFlight() (Utterance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight == nil {
		return Utterance{}, false
	}
	return Utterance{ID: s.inflight.id, Text: s.inflight.task.Text, Voice: s.inflight.task.Voice}, true
}

// WaitIdle blocks until the sequencer is idle or ctx is done.
func (s *Sequencer) WaitIdle(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UtteranceEnded implements Listener.
func (s *Sequencer) UtteranceEnded(id UtteranceID) {
	s.resolve(id, nil)
}

// UtteranceFailed implements Listener.
func (s *Sequencer) UtteranceFailed(id UtteranceID, reason error) {
	if reason == nil {
		reason = ErrUtterance
	}
	s.resolve(id, reason)
}

// UtteranceBoundary implements Listener.
func (s *Sequencer) UtteranceBoundary(id UtteranceID, charIndex int) {
	s.mu.Lock()
	fl := s.current(id)
	s.mu.Unlock()
	if fl == nil {
		return
	}
	s.emit(Event{Type: EventBoundary, Task: fl.task, Utterance: id, CharIndex: charIndex})
}

// current returns the in-flight utterance if id still refers to it.
// Callers must hold mu.
func (s *Sequencer) current(id UtteranceID) *flight {
	fl := s.inflight
	if fl == nil || fl.id != id || fl.gen != s.gen {
		return nil
	}
	return fl
}

func (s *Sequencer) resolve(id UtteranceID, err error) {
	s.mu.Lock()
	fl := s.current(id)
	if fl == nil {
		s.mu.Unlock()
		s.logger.Debug("Ignoring stale utterance callback", "id", id, "error", err)
		return
	}
	s.inflight = nil
	s.mu.Unlock()

	fl.done <- err
}

func (s *Sequencer) drain(ctx context.Context, gen uint64) {
	for {
		s.engineMu.Lock()
		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			s.engineMu.Unlock()
			return
		}

		task, ok := s.queue.DequeueNext()
		if !ok {
			s.state = StateIdle
			close(s.idle)
			s.cancel()
			s.cancel = nil
			s.mu.Unlock()
			s.engineMu.Unlock()

			s.logger.Debug("Drain loop finished", "generation", gen)
			s.emitIdle(gen)
			return
		}

		if task.Kind == TaskWait || task.Blank() {
			s.mu.Unlock()
			s.engineMu.Unlock()
			if !s.runLocal(ctx, task) {
				return
			}
			continue
		}

		fl := &flight{id: NewUtteranceID(), task: task, gen: gen, done: make(chan error, 1)}
		s.inflight = fl
		s.mu.Unlock()

		err := s.engine.Speak(Utterance{ID: fl.id, Text: task.Text, Voice: task.Voice})
		s.engineMu.Unlock()

		if err != nil {
			s.mu.Lock()
			if s.inflight == fl {
				s.inflight = nil
			}
			s.mu.Unlock()
			if ctx.Err() != nil {
				return
			}
			s.report(task, fl.id, err)
			continue
		}

		s.emit(Event{Type: EventTaskStarted, Task: task, Utterance: fl.id})

		select {
		case err := <-fl.done:
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				s.report(task, fl.id, err)
				continue
			}
			s.emit(Event{Type: EventTaskFinished, Task: task, Utterance: fl.id})
		case <-ctx.Done():
			return
		}
	}
}

// runLocal executes tasks that never reach the engine. It returns false if
// the loop was canceled meanwhile.
func (s *Sequencer) runLocal(ctx context.Context, task Task) bool {
	if task.Kind == TaskSpeak {
		s.logger.Debug("Skipping blank speech task")
		s.emit(Event{Type: EventTaskSkipped, Task: task})
		return ctx.Err() == nil
	}

	s.emit(Event{Type: EventTaskStarted, Task: task})
	if err := s.sleep(ctx, task.Delay); err != nil {
		return false
	}
	if ctx.Err() != nil {
		return false
	}
	s.emit(Event{Type: EventTaskFinished, Task: task})
	return true
}

// report logs an utterance failure and forwards it to the observer. The
// queue keeps going.
func (s *Sequencer) report(task Task, id UtteranceID, err error) {
	if !errors.Is(err, ErrUtterance) {
		err = fmt.Errorf("%w: %w", ErrUtterance, err)
	}
	serr := NewSpeechError(err, "sequencer", "speak").
		WithSeverity(SeverityWarning).
		WithContext("text", task.Text)
	s.logger.Warn("Utterance failed", "text", task.Text, "id", id, "error", err)
	s.emit(Event{Type: EventTaskFailed, Task: task, Utterance: id, Err: serr})
}

func (s *Sequencer) emit(ev Event) {
	s.mu.Lock()
	fn := s.onEvent
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// emitIdle reports the end of batch gen unless a newer batch has started
// since, in which case observers would read it as the end of that one.
func (s *Sequencer) emitIdle(gen uint64) {
	s.mu.Lock()
	fn := s.onEvent
	stale := s.gen != gen
	s.mu.Unlock()
	if stale {
		s.logger.Debug("Dropping idle of an earlier batch", "generation", gen)
		return
	}
	if fn != nil {
		fn(Event{Type: EventIdle})
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
