package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"

	"github.com/learnlink/learnlink/internal/cache"
	"github.com/learnlink/learnlink/tts"
	"github.com/learnlink/learnlink/tts/engines"
)

// session is one engine plus the sequencer that drives it.
type session struct {
	config tts.Config
	engine tts.Engine
	seq    *tts.Sequencer
	cache  *cache.Manager
}

func loadSpeechConfig() (tts.Config, error) {
	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return cfg, err
	}
	log.Debug("Speech configuration", "engine", cfg.Engine, "fallback", cfg.Fallback, "lang", cfg.Lang)
	return cfg, nil
}

// openCache opens the audio cache, or returns nil when caching is off or
// pointless for the configured engine.
func openCache(cfg tts.Config) *cache.Manager {
	if !cfg.Cache.Enabled || cfg.Engine == tts.EngineMock {
		return nil
	}
	m, err := cache.NewManager(cfg.Cache, log.Default().WithPrefix("cache"))
	if err != nil {
		log.Warn("Audio cache disabled", "error", err)
		return nil
	}
	return m
}

func openSession() (*session, error) {
	cfg, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	cm := openCache(cfg)
	engine, err := engines.New(cfg, engines.Options{Cache: cm, Logger: log.Default()})
	if err != nil {
		if cm != nil {
			_ = cm.Close()
		}
		return nil, err
	}

	return &session{
		config: cfg,
		engine: engine,
		seq:    tts.NewSequencer(engine, tts.DefaultSequencerConfig()),
		cache:  cm,
	}, nil
}

// Close stops speech and releases the engine and cache.
func (s *session) Close() error {
	s.seq.CancelAll()
	var errs []error
	if c, ok := s.engine.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	return errors.Join(errs...)
}

// play runs action, which enqueues a batch and starts it, then waits for
// the sequencer to go idle. Ctrl-C cancels all speech.
func (s *session) play(ctx context.Context, action func(tts.Speaker) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if err := action(s.seq); err != nil {
		if errors.Is(err, tts.ErrEngineUnavailable) {
			if hint := engines.Guidance(ctx, s.config, s.config.Engine); hint != "" {
				fmt.Fprintln(os.Stderr, hint)
			}
			return fmt.Errorf("%w: run %s for details, or try --engine mock", err, keyword("learnlink check"))
		}
		return err
	}

	if err := s.seq.WaitIdle(ctx); err != nil {
		s.seq.CancelAll()
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, dimStyle.Render("stopped"))
			return nil
		}
		return err
	}
	return nil
}

// reportFailures prints failed utterances to stderr as they happen.
func (s *session) reportFailures() {
	s.seq.OnEvent(func(e tts.Event) {
		if e.Type == tts.EventTaskFailed {
			fmt.Fprintln(os.Stderr, dimStyle.Render(fmt.Sprintf("could not say %q: %v", e.Task.Text, e.Err)))
		}
	})
}

// withSession opens a session for the duration of fn.
func withSession(fn func(*session) error) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warn("Failed to close speech session", "error", err)
		}
	}()
	return fn(s)
}
