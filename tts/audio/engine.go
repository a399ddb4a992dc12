package audio

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/learnlink/learnlink/tts"
)

// EngineConfig holds configuration for the audio engine.
type EngineConfig struct {
	Volume       float64       // 0.0 to 1.0, zero means full volume
	PollInterval time.Duration // how often playback progress is checked
	Logger       *log.Logger
}

// DefaultEngineConfig returns the default configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Volume:       1,
		PollInterval: 20 * time.Millisecond,
		Logger:       log.Default().WithPrefix("audio"),
	}
}

// Engine implements tts.Engine by synthesizing each utterance to PCM and
// playing it on an Output. Word boundaries are estimated from playback
// progress.
type Engine struct {
	synth  tts.Synthesizer
	out    Output
	config EngineConfig

	mu       sync.Mutex
	listener tts.Listener
	current  *playback
	wg       sync.WaitGroup
}

var _ tts.Engine = (*Engine)(nil)

// playback is one accepted utterance.
type playback struct {
	u      tts.Utterance
	cancel context.CancelFunc
	once   sync.Once // guards the outcome callback

	mu     sync.Mutex
	player Player
	closed bool
}

// NewEngine creates an engine that speaks through synth and out.
func NewEngine(synth tts.Synthesizer, out Output, config EngineConfig) *Engine {
	def := DefaultEngineConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.Volume <= 0 || config.Volume > 1 {
		config.Volume = def.Volume
	}
	if config.Logger == nil {
		config.Logger = def.Logger
	}
	return &Engine{synth: synth, out: out, config: config}
}

// Name returns the synthesizer name.
func (e *Engine) Name() string {
	return e.synth.Name()
}

// Available reports whether the synthesizer can run and an output exists.
func (e *Engine) Available() bool {
	return e.out != nil && e.synth.Available()
}

// SetListener implements tts.Engine.
func (e *Engine) SetListener(l tts.Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = l
}

// Speak accepts u and returns immediately. Only one utterance may be
// outstanding; a second Speak before the first ends fails with
// tts.ErrEngineBusy.
func (e *Engine) Speak(u tts.Utterance) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		return tts.ErrEngineBusy
	}

	ctx, cancel := context.WithCancel(context.Background())
	pb := &playback{u: u, cancel: cancel}
	e.current = pb

	e.wg.Add(1)
	go e.run(ctx, pb)
	return nil
}

// Stop cancels synthesis and closes the player of the current utterance.
// The utterance then reports tts.ErrInterrupted from its own goroutine.
func (e *Engine) Stop() {
	e.mu.Lock()
	pb := e.current
	e.current = nil
	e.mu.Unlock()

	if pb == nil {
		return
	}
	pb.cancel()
	pb.close()
}

// Close stops playback, waits for background work and releases the output.
func (e *Engine) Close() error {
	e.Stop()
	e.wg.Wait()
	return e.out.Close()
}

func (e *Engine) run(ctx context.Context, pb *playback) {
	defer e.wg.Done()
	defer pb.cancel()
	logger := e.config.Logger.With("id", pb.u.ID)

	start := time.Now()
	pcm, err := e.synth.Synthesize(ctx, pb.u.Text, pb.u.Voice)
	if ctx.Err() != nil {
		e.finish(pb, tts.ErrInterrupted)
		return
	}
	if err != nil {
		e.finish(pb, fmt.Errorf("%s: synthesize: %w", e.synth.Name(), err))
		return
	}

	format := e.out.Format()
	if err := format.Validate(pcm); err != nil {
		e.finish(pb, err)
		return
	}
	logger.Debug("Synthesized utterance", "bytes", len(pcm), "took", time.Since(start))

	player, err := e.out.NewPlayer(bytes.NewReader(pcm))
	if err != nil {
		e.finish(pb, fmt.Errorf("audio player: %w", err))
		return
	}
	if !pb.attach(player) {
		// Stopped between synthesis and playback.
		e.finish(pb, tts.ErrInterrupted)
		return
	}
	player.SetVolume(e.config.Volume)
	player.Play()

	duration := format.Duration(len(pcm))
	spans := tts.WordSpans(pb.u.Text)
	next := 0
	playStart := time.Now()

	ticker := time.NewTicker(e.config.PollInterval)
	defer ticker.Stop()

	for {
		next = e.boundaries(pb, spans, next, time.Since(playStart), duration)

		select {
		case <-ctx.Done():
			e.finish(pb, tts.ErrInterrupted)
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				continue
			}
			if !player.IsPlaying() {
				pb.close()
				logger.Debug("Utterance played", "duration", duration)
				e.finish(pb, nil)
				return
			}
		}
	}
}

// boundaries emits a boundary for every word whose estimated start has
// been reached and returns the index of the next pending word.
func (e *Engine) boundaries(pb *playback, spans []tts.Span, next int, elapsed, duration time.Duration) int {
	if next >= len(spans) {
		return next
	}
	pos := len(pb.u.Text)
	if duration > 0 && elapsed < duration {
		pos = int(float64(len(pb.u.Text)) * float64(elapsed) / float64(duration))
	}
	for next < len(spans) && spans[next].Start <= pos {
		if l := e.getListener(); l != nil {
			l.UtteranceBoundary(pb.u.ID, spans[next].Start)
		}
		next++
	}
	return next
}

func (e *Engine) finish(pb *playback, err error) {
	pb.once.Do(func() {
		e.mu.Lock()
		if e.current == pb {
			e.current = nil
		}
		l := e.listener
		e.mu.Unlock()

		if l == nil {
			return
		}
		if err != nil {
			l.UtteranceFailed(pb.u.ID, err)
			return
		}
		l.UtteranceEnded(pb.u.ID)
	})
}

func (e *Engine) getListener() tts.Listener {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listener
}

// attach records the player unless the playback was already closed.
func (pb *playback) attach(p Player) bool {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	if pb.closed {
		_ = p.Close()
		return false
	}
	pb.player = p
	return true
}

func (pb *playback) close() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	if pb.closed {
		return
	}
	pb.closed = true
	if pb.player != nil {
		_ = pb.player.Close()
	}
}
