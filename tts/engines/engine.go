package engines

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/learnlink/learnlink/internal/cache"
	"github.com/learnlink/learnlink/internal/subprocess"
	"github.com/learnlink/learnlink/tts"
	"github.com/learnlink/learnlink/tts/audio"
	"github.com/learnlink/learnlink/tts/engines/espeak"
	"github.com/learnlink/learnlink/tts/engines/mock"
	"github.com/learnlink/learnlink/tts/engines/piper"
	"github.com/learnlink/learnlink/tts/engines/voicevox"
)

// Options are the collaborators New wires into the engine.
type Options struct {
	// Cache, when set, wraps every synthesizer.
	Cache *cache.Manager
	// Runner executes synthesizer subprocesses. Defaults to a
	// subprocess.Manager with the engine's timeout.
	Runner subprocess.Runner
	// Output overrides the audio output, mostly for tests.
	Output audio.Output
	Logger *log.Logger
}

// New builds the speech engine described by config. The mock engine needs
// no synthesizer; every other engine synthesizes PCM and plays it through
// the audio output.
func New(config tts.Config, opts Options) (tts.Engine, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if config.Engine == tts.EngineMock {
		return mock.NewAuto(config.Mock.WordsPerMinute), nil
	}

	synth, err := NewSynthesizer(config, opts)
	if err != nil {
		return nil, err
	}

	format := audio.Format{SampleRate: config.SampleRate, Channels: audio.Channels}
	out := opts.Output
	if out == nil {
		out = audio.NewOutput(format, config.Silent)
	}
	return audio.NewEngine(synth, out, audio.EngineConfig{
		Volume: config.Volume,
		Logger: opts.Logger.WithPrefix("audio"),
	}), nil
}

// NewSynthesizer builds the configured synthesizer, wrapped in the cache
// and, when a fallback engine is configured, in a FallbackSynthesizer.
func NewSynthesizer(config tts.Config, opts Options) (tts.Synthesizer, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	primary, err := synthesizer(config, config.Engine, opts)
	if err != nil {
		return nil, err
	}
	if config.Fallback == "" {
		return primary, nil
	}

	fallback, err := synthesizer(config, config.Fallback, opts)
	if err != nil {
		return nil, err
	}
	return NewFallbackSynthesizer(primary, fallback, DefaultMaxFailures, opts.Logger.WithPrefix("fallback")), nil
}

func synthesizer(config tts.Config, name string, opts Options) (tts.Synthesizer, error) {
	format := audio.Format{SampleRate: config.SampleRate, Channels: audio.Channels}

	var s tts.Synthesizer
	switch name {
	case tts.EnginePiper:
		s = piper.New(config.Piper, runner(opts, config.Piper.Timeout))
	case tts.EngineEspeak:
		s = espeak.New(config.Espeak, format, runner(opts, config.Espeak.Timeout))
	case tts.EngineVoicevox:
		s = voicevox.New(config.Voicevox, format)
	default:
		return nil, tts.NewSpeechError(fmt.Errorf("%w: %q", tts.ErrUnknownEngine, name), "engines", "build").
			WithSeverity(tts.SeverityError)
	}

	if opts.Cache != nil {
		return opts.Cache.Wrap(s), nil
	}
	return s, nil
}

func runner(opts Options, timeout time.Duration) subprocess.Runner {
	if opts.Runner != nil {
		return opts.Runner
	}
	return subprocess.NewManager(timeout)
}
