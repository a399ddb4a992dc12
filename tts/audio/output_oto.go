//go:build !nocgo
// +build !nocgo

package audio

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"

	"github.com/learnlink/learnlink/tts"
)

// oto allows a single context per process.
var (
	otoOnce    sync.Once
	otoCtx     *oto.Context
	otoErr     error
	otoFormat  Format
	readyAfter = 5 * time.Second
)

// OtoOutput plays PCM through github.com/ebitengine/oto.
type OtoOutput struct {
	ctx    *oto.Context
	format Format
}

// NewOtoOutput opens the audio device. Later calls reuse the first context;
// asking for a different format than the first call is an error.
func NewOtoOutput(format Format) (*OtoOutput, error) {
	otoOnce.Do(func() {
		otoFormat = format
		otoCtx, otoErr = newOtoContext(format)
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if format != otoFormat {
		return nil, fmt.Errorf("%w: device opened at %d Hz, requested %d Hz",
			tts.ErrSampleRate, otoFormat.SampleRate, format.SampleRate)
	}
	return &OtoOutput{ctx: otoCtx, format: format}, nil
}

func newOtoContext(format Format) (*oto.Context, error) {
	options := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	switch runtime.GOOS {
	case "darwin":
		options.BufferSize = 100 * time.Millisecond
	case "windows":
		options.BufferSize = 80 * time.Millisecond
	default:
		options.BufferSize = 50 * time.Millisecond
	}

	log.Debug("Initializing audio context",
		"sample_rate", options.SampleRate,
		"channels", options.ChannelCount,
		"buffer_size", options.BufferSize)

	ctx, ready, err := oto.NewContext(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio context: %w", err)
	}

	select {
	case <-ready:
		log.Debug("Audio context ready")
		return ctx, nil
	case <-time.After(readyAfter):
		return nil, fmt.Errorf("audio context initialization timeout after %v", readyAfter)
	}
}

// NewPlayer implements Output.
func (o *OtoOutput) NewPlayer(r io.Reader) (Player, error) {
	return &otoPlayer{player: o.ctx.NewPlayer(r)}, nil
}

// Format implements Output.
func (o *OtoOutput) Format() Format {
	return o.format
}

// Close implements Output. The oto context lives until the process exits.
func (o *OtoOutput) Close() error {
	return nil
}

type otoPlayer struct {
	player *oto.Player
}

func (p *otoPlayer) Play()                    { p.player.Play() }
func (p *otoPlayer) Pause()                   { p.player.Pause() }
func (p *otoPlayer) IsPlaying() bool          { return p.player.IsPlaying() }
func (p *otoPlayer) SetVolume(volume float64) { p.player.SetVolume(volume) }
func (p *otoPlayer) Close() error             { return p.player.Close() }
