package cache

import (
	"context"
	"errors"

	"golang.org/x/sync/singleflight"

	"github.com/learnlink/learnlink/tts"
)

// maxSharedRetries bounds how often a caller restarts after a shared
// synthesis was canceled by someone else.
const maxSharedRetries = 3

// Synthesizer wraps another synthesizer with the cache. Concurrent requests
// for the same utterance share one synthesis.
type Synthesizer struct {
	inner tts.Synthesizer
	cache *Manager
	group singleflight.Group
}

var _ tts.Synthesizer = (*Synthesizer)(nil)

// Wrap returns a caching synthesizer around inner.
func (m *Manager) Wrap(inner tts.Synthesizer) *Synthesizer {
	return &Synthesizer{inner: inner, cache: m}
}

// Name returns the wrapped synthesizer's name so keys stay per engine.
func (s *Synthesizer) Name() string {
	return s.inner.Name()
}

// Available reports whether the wrapped synthesizer is available.
func (s *Synthesizer) Available() bool {
	return s.inner.Available()
}

// Cached reports whether text with voice is already cached.
func (s *Synthesizer) Cached(text string, voice tts.VoiceParams) bool {
	return s.cache.Contains(Key(s.inner.Name(), text, voice))
}

// Synthesize returns cached PCM or synthesizes and stores it.
//
// A shared synthesis runs with the context of the caller that started it.
// When that caller gives up, the others see context.Canceled while their
// own context is still live; they then start a synthesis of their own.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, voice tts.VoiceParams) ([]byte, error) {
	key := Key(s.inner.Name(), text, voice)
	if pcm, ok := s.cache.Get(key); ok {
		return pcm, nil
	}

	for attempt := 0; ; attempt++ {
		ch := s.group.DoChan(key, func() (any, error) {
			pcm, err := s.inner.Synthesize(ctx, text, voice)
			if err != nil {
				return nil, err
			}
			s.cache.Put(key, pcm)
			return pcm, nil
		})

		select {
		case res := <-ch:
			if res.Err == nil {
				return res.Val.([]byte), nil
			}
			if ctx.Err() == nil && errors.Is(res.Err, context.Canceled) && attempt < maxSharedRetries {
				continue
			}
			return nil, res.Err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
