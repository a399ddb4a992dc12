// Package espeak synthesizes speech with eSpeak NG.
package espeak

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/learnlink/learnlink/internal/subprocess"
	"github.com/learnlink/learnlink/tts"
	"github.com/learnlink/learnlink/tts/audio"
)

// eSpeak NG parameter ranges.
const (
	defaultWPM   = 175
	minWPM       = 80
	maxWPM       = 450
	defaultPitch = 50
	maxPitch     = 99
)

// Synthesizer runs espeak-ng per utterance and decodes its WAV output.
// eSpeak NG always renders at 22050 Hz, so the output format must match.
type Synthesizer struct {
	config tts.EspeakConfig
	format audio.Format
	runner subprocess.Runner
	binary string
}

var _ tts.Synthesizer = (*Synthesizer)(nil)

// New creates an eSpeak NG synthesizer. A nil runner uses a
// subprocess.Manager with the configured timeout.
func New(config tts.EspeakConfig, format audio.Format, runner subprocess.Runner) *Synthesizer {
	if runner == nil {
		runner = subprocess.NewManager(config.Timeout)
	}
	return &Synthesizer{config: config, format: format, runner: runner}
}

// Name implements tts.Synthesizer.
func (s *Synthesizer) Name() string {
	return tts.EngineEspeak
}

// Available reports whether the espeak-ng binary can be found.
func (s *Synthesizer) Available() bool {
	_, err := s.resolve()
	if err != nil {
		log.Debug("eSpeak unavailable", "error", err)
	}
	return err == nil
}

// Synthesize implements tts.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, voice tts.VoiceParams) ([]byte, error) {
	binary, err := s.resolve()
	if err != nil {
		return nil, err
	}
	wav, err := s.runner.Run(ctx, text, binary, s.args(voice)...)
	if err != nil {
		return nil, err
	}
	pcm, err := audio.DecodeWAV(wav, s.format)
	if err != nil {
		return nil, fmt.Errorf("espeak output: %w", err)
	}
	return pcm, nil
}

func (s *Synthesizer) args(voice tts.VoiceParams) []string {
	name := s.config.Voice
	if name == "" {
		name = VoiceName(voice.Lang)
	}
	return []string{
		"--stdout",
		"--stdin",
		"-v", name,
		"-p", strconv.Itoa(Pitch(voice.Pitch)),
		"-s", strconv.Itoa(WordsPerMinute(voice.Rate)),
	}
}

func (s *Synthesizer) resolve() (string, error) {
	if s.binary != "" {
		return s.binary, nil
	}
	path, err := subprocess.Find(s.config.Binary, "espeak-ng", "espeak")
	if err != nil {
		return "", fmt.Errorf("espeak: %w", err)
	}
	s.binary = path
	return path, nil
}

// VoiceName maps a BCP 47 tag such as "en-US" to an eSpeak voice ("en-us").
func VoiceName(lang string) string {
	if lang == "" {
		return "en-us"
	}
	return strings.ToLower(strings.ReplaceAll(lang, "_", "-"))
}

// Pitch maps a relative pitch (1.0 = default) to eSpeak's 0-99 scale.
func Pitch(p float64) int {
	if p <= 0 {
		p = 1
	}
	v := int(math.Round(defaultPitch * p))
	return min(max(v, 0), maxPitch)
}

// WordsPerMinute maps a relative rate (1.0 = normal) to eSpeak's speed.
func WordsPerMinute(rate float64) int {
	if rate <= 0 {
		rate = 1
	}
	v := int(math.Round(defaultWPM * rate))
	return min(max(v, minWPM), maxWPM)
}
