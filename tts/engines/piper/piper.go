// Package piper synthesizes speech with the Piper neural TTS binary.
package piper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/learnlink/learnlink/internal/subprocess"
	"github.com/learnlink/learnlink/tts"
)

// Synthesizer runs a fresh piper process per utterance and reads raw
// 16-bit mono PCM from its stdout. Piper voices have a fixed pitch, so
// VoiceParams.Pitch is ignored; Rate maps to --length_scale.
type Synthesizer struct {
	config tts.PiperConfig
	runner subprocess.Runner
	binary string
}

var _ tts.Synthesizer = (*Synthesizer)(nil)

// New creates a Piper synthesizer. A nil runner uses a subprocess.Manager
// with the configured timeout.
func New(config tts.PiperConfig, runner subprocess.Runner) *Synthesizer {
	if runner == nil {
		runner = subprocess.NewManager(config.Timeout)
	}
	return &Synthesizer{config: config, runner: runner}
}

// Name implements tts.Synthesizer.
func (s *Synthesizer) Name() string {
	return tts.EnginePiper
}

// Available reports whether the binary and the voice model exist.
func (s *Synthesizer) Available() bool {
	if _, err := s.resolve(); err != nil {
		log.Debug("Piper unavailable", "error", err)
		return false
	}
	if _, err := os.Stat(s.config.Model); err != nil {
		log.Debug("Piper model missing", "model", s.config.Model, "error", err)
		return false
	}
	return true
}

// Synthesize implements tts.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, voice tts.VoiceParams) ([]byte, error) {
	binary, err := s.resolve()
	if err != nil {
		return nil, err
	}

	out, err := s.runner.Run(ctx, text+"\n", binary, s.args(voice)...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("piper produced no audio")
	}
	// Drop a dangling byte so the stream stays sample aligned.
	if len(out)%2 != 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (s *Synthesizer) args(voice tts.VoiceParams) []string {
	args := []string{
		"--model", s.config.Model,
		"--output-raw",
		"--length_scale", strconv.FormatFloat(LengthScale(voice.Rate), 'f', 3, 64),
	}
	if s.config.Speaker > 0 {
		args = append(args, "--speaker", strconv.Itoa(s.config.Speaker))
	}
	return args
}

func (s *Synthesizer) resolve() (string, error) {
	if s.binary != "" {
		return s.binary, nil
	}
	path, err := subprocess.Find(append([]string{s.config.Binary}, subprocess.UserBinCandidates("piper")...)...)
	if err != nil {
		return "", fmt.Errorf("piper: %w", err)
	}
	s.binary = path
	return path, nil
}

// LengthScale converts a speaking rate (1.0 = normal) into Piper's
// phoneme length multiplier, clamped to [0.25, 4].
func LengthScale(rate float64) float64 {
	if rate <= 0 {
		return 1
	}
	ls := 1 / rate
	switch {
	case ls < 0.25:
		return 0.25
	case ls > 4:
		return 4
	}
	return ls
}
