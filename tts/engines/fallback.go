// Package engines builds the configured speech engine.
package engines

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/learnlink/learnlink/tts"
)

// DefaultMaxFailures is how many consecutive primary failures switch a
// FallbackSynthesizer over for good.
const DefaultMaxFailures = 3

// FallbackSynthesizer wraps a primary synthesizer with a secondary one.
// A failed primary request is retried on the fallback so the learner still
// hears it; after maxFailures consecutive failures the primary is skipped.
type FallbackSynthesizer struct {
	primary     tts.Synthesizer
	fallback    tts.Synthesizer
	maxFailures int
	logger      *log.Logger

	mu            sync.Mutex
	failures      int
	usingFallback bool
}

var _ tts.Synthesizer = (*FallbackSynthesizer)(nil)

// NewFallbackSynthesizer creates a synthesizer with automatic fallback.
func NewFallbackSynthesizer(primary, fallback tts.Synthesizer, maxFailures int, logger *log.Logger) *FallbackSynthesizer {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FallbackSynthesizer{
		primary:     primary,
		fallback:    fallback,
		maxFailures: maxFailures,
		logger:      logger,
	}
}

// Name returns the name of the synthesizer currently in use.
func (f *FallbackSynthesizer) Name() string {
	return f.active().Name()
}

// Available reports whether either synthesizer can run. An unavailable
// primary switches to the fallback.
func (f *FallbackSynthesizer) Available() bool {
	if !f.UsingFallback() && f.primary.Available() {
		return true
	}
	if !f.fallback.Available() {
		return false
	}
	f.mu.Lock()
	if !f.usingFallback {
		f.usingFallback = true
		f.logger.Warn("Primary engine not available, switching to fallback",
			"primary", f.primary.Name(), "fallback", f.fallback.Name())
	}
	f.mu.Unlock()
	return true
}

// UsingFallback reports whether the primary has been abandoned.
func (f *FallbackSynthesizer) UsingFallback() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usingFallback
}

// Synthesize renders text with the active synthesizer.
func (f *FallbackSynthesizer) Synthesize(ctx context.Context, text string, voice tts.VoiceParams) ([]byte, error) {
	if f.UsingFallback() {
		return f.fallback.Synthesize(ctx, text, voice)
	}

	pcm, err := f.primary.Synthesize(ctx, text, voice)
	if err == nil {
		f.recovered()
		return pcm, nil
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return nil, err
	}

	f.failed(err)
	pcm, fbErr := f.fallback.Synthesize(ctx, text, voice)
	if fbErr != nil {
		return nil, fmt.Errorf("both engines failed: %s: %w; %s: %w",
			f.primary.Name(), err, f.fallback.Name(), fbErr)
	}
	return pcm, nil
}

func (f *FallbackSynthesizer) active() tts.Synthesizer {
	if f.UsingFallback() {
		return f.fallback
	}
	return f.primary
}

func (f *FallbackSynthesizer) recovered() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.logger.Info("Primary engine recovered", "failures", f.failures)
		f.failures = 0
	}
}

func (f *FallbackSynthesizer) failed(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures++
	f.logger.Warn("Primary engine failed", "attempt", f.failures, "max", f.maxFailures, "error", err)
	if f.failures >= f.maxFailures && !f.usingFallback {
		f.usingFallback = true
		f.logger.Warn("Switching to fallback engine", "fallback", f.fallback.Name())
	}
}
