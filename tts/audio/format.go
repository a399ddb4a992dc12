// Package audio plays synthesized speech through the system audio device.
package audio

import (
	"fmt"
	"time"

	"github.com/learnlink/learnlink/tts"
)

// Audio format shared by every synthesizer and output.
const (
	// DefaultSampleRate is the sample rate in Hz used when none is configured.
	DefaultSampleRate = 22050
	// Channels is the number of audio channels (1 = mono).
	Channels = 1
	// BitDepth is the bit depth per sample.
	BitDepth = 16
	// BytesPerSample is the number of bytes per mono sample.
	BytesPerSample = BitDepth / 8
)

// Format describes raw PCM audio.
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat returns 16-bit mono PCM at DefaultSampleRate.
func DefaultFormat() Format {
	return Format{SampleRate: DefaultSampleRate, Channels: Channels}
}

// FrameSize returns the number of bytes per frame.
func (f Format) FrameSize() int {
	return BytesPerSample * f.Channels
}

// BytesPerSecond returns the data rate.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.FrameSize()
}

// Duration returns how long n bytes of PCM take to play.
func (f Format) Duration(n int) time.Duration {
	bps := f.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(float64(n) / float64(bps) * float64(time.Second))
}

// Validate checks that data is non-empty and frame aligned.
func (f Format) Validate(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty PCM data", tts.ErrInvalidAudioFormat)
	}
	if fs := f.FrameSize(); fs > 0 && len(data)%fs != 0 {
		return fmt.Errorf("%w: PCM data length %d is not aligned to %d-byte frames",
			tts.ErrInvalidAudioFormat, len(data), fs)
	}
	return nil
}

// Silence returns d worth of silent PCM.
func (f Format) Silence(d time.Duration) []byte {
	frames := int(d.Seconds() * float64(f.SampleRate))
	return make([]byte, frames*f.FrameSize())
}
