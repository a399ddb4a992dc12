package tts

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
)

// Engine names accepted in Config.Engine.
const (
	EngineMock     = "mock"
	EnginePiper    = "piper"
	EngineEspeak   = "espeak"
	EngineVoicevox = "voicevox"
)

// Engines lists every supported engine name.
var Engines = []string{EngineMock, EnginePiper, EngineEspeak, EngineVoicevox}

// Config contains all speech configuration options.
//
// Values come from the "speech" section of the config file and may be
// overridden by LEARNLINK_* environment variables.
type Config struct {
	Engine     string  `yaml:"engine" mapstructure:"engine" env:"LEARNLINK_ENGINE"`
	Fallback   string  `yaml:"fallback" mapstructure:"fallback" env:"LEARNLINK_FALLBACK"`
	Lang       string  `yaml:"lang" mapstructure:"lang" env:"LEARNLINK_LANG"`
	SampleRate int     `yaml:"sample_rate" mapstructure:"sample_rate" env:"LEARNLINK_SAMPLE_RATE"`
	Volume     float64 `yaml:"volume" mapstructure:"volume" env:"LEARNLINK_VOLUME"`
	Silent     bool    `yaml:"silent" mapstructure:"silent" env:"LEARNLINK_SILENT"`

	Piper    PiperConfig    `yaml:"piper" mapstructure:"piper"`
	Espeak   EspeakConfig   `yaml:"espeak" mapstructure:"espeak"`
	Voicevox VoicevoxConfig `yaml:"voicevox" mapstructure:"voicevox"`
	Mock     MockConfig     `yaml:"mock" mapstructure:"mock"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
}

// PiperConfig contains Piper engine settings.
type PiperConfig struct {
	Binary  string        `yaml:"binary" mapstructure:"binary" env:"LEARNLINK_PIPER_BINARY"`
	Model   string        `yaml:"model" mapstructure:"model" env:"LEARNLINK_PIPER_MODEL"`
	Speaker int           `yaml:"speaker" mapstructure:"speaker" env:"LEARNLINK_PIPER_SPEAKER"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" env:"LEARNLINK_PIPER_TIMEOUT"`
}

// EspeakConfig contains eSpeak NG engine settings.
type EspeakConfig struct {
	Binary  string        `yaml:"binary" mapstructure:"binary" env:"LEARNLINK_ESPEAK_BINARY"`
	Voice   string        `yaml:"voice" mapstructure:"voice" env:"LEARNLINK_ESPEAK_VOICE"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" env:"LEARNLINK_ESPEAK_TIMEOUT"`
}

// VoicevoxConfig contains VOICEVOX engine settings.
type VoicevoxConfig struct {
	URL               string        `yaml:"url" mapstructure:"url" env:"LEARNLINK_VOICEVOX_URL"`
	Speaker           int           `yaml:"speaker" mapstructure:"speaker" env:"LEARNLINK_VOICEVOX_SPEAKER"`
	RequestsPerMinute int           `yaml:"requests_per_minute" mapstructure:"requests_per_minute" env:"LEARNLINK_VOICEVOX_RPM"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout" env:"LEARNLINK_VOICEVOX_TIMEOUT"`
}

// MockConfig contains settings of the silent mock engine.
type MockConfig struct {
	WordsPerMinute int `yaml:"words_per_minute" mapstructure:"words_per_minute" env:"LEARNLINK_MOCK_WPM"`
}

// CacheConfig controls the synthesized audio cache.
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled" mapstructure:"enabled" env:"LEARNLINK_CACHE_ENABLED"`
	Dir           string        `yaml:"dir" mapstructure:"dir" env:"LEARNLINK_CACHE_DIR"`
	MemoryEntries int           `yaml:"memory_entries" mapstructure:"memory_entries" env:"LEARNLINK_CACHE_MEMORY_ENTRIES"`
	MaxDiskSize   int64         `yaml:"max_disk_size" mapstructure:"max_disk_size" env:"LEARNLINK_CACHE_MAX_DISK_SIZE"`
	TTL           time.Duration `yaml:"ttl" mapstructure:"ttl" env:"LEARNLINK_CACHE_TTL"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:     EngineMock,
		Lang:       DefaultVoice.Lang,
		SampleRate: 22050,
		Volume:     1.0,
		Piper: PiperConfig{
			Binary:  "piper",
			Model:   "~/.local/share/piper/en_US-lessac-medium.onnx",
			Timeout: 30 * time.Second,
		},
		Espeak: EspeakConfig{
			Binary:  "espeak-ng",
			Timeout: 10 * time.Second,
		},
		Voicevox: VoicevoxConfig{
			URL:               "http://127.0.0.1:50021",
			Speaker:           1,
			RequestsPerMinute: 120,
			Timeout:           30 * time.Second,
		},
		Mock: MockConfig{WordsPerMinute: 150},
		Cache: CacheConfig{
			Enabled:       true,
			MemoryEntries: 256,
			MaxDiskSize:   100 << 20,
			TTL:           30 * 24 * time.Hour,
		},
	}
}

// Validate checks the configuration and normalizes engine names.
func (c *Config) Validate() error {
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	if !slices.Contains(Engines, c.Engine) {
		return fmt.Errorf("%w: unknown engine %q, must be one of %v", ErrInvalidConfig, c.Engine, Engines)
	}

	c.Fallback = strings.ToLower(strings.TrimSpace(c.Fallback))
	if c.Fallback != "" {
		if !slices.Contains(Engines, c.Fallback) || c.Fallback == EngineMock {
			return fmt.Errorf("%w: fallback %q must be piper, espeak or voicevox", ErrInvalidConfig, c.Fallback)
		}
		if c.Fallback == c.Engine {
			return fmt.Errorf("%w: fallback must differ from engine %q", ErrInvalidConfig, c.Engine)
		}
	}

	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("%w: volume must be between 0.0 and 1.0, got %v", ErrInvalidConfig, c.Volume)
	}

	validSampleRates := []int{8000, 16000, 22050, 24000, 44100, 48000}
	if !slices.Contains(validSampleRates, c.SampleRate) {
		return fmt.Errorf("%w: invalid sample rate %d, must be one of %v", ErrInvalidConfig, c.SampleRate, validSampleRates)
	}

	uses := func(name string) bool { return c.Engine == name || c.Fallback == name }
	if uses(EnginePiper) && (c.Piper.Binary == "" || c.Piper.Model == "") {
		return fmt.Errorf("%w: piper binary and model are required", ErrInvalidConfig)
	}
	if uses(EngineVoicevox) {
		if c.Voicevox.URL == "" {
			return fmt.Errorf("%w: voicevox url is required", ErrInvalidConfig)
		}
		if c.Voicevox.RequestsPerMinute < 0 {
			return fmt.Errorf("%w: voicevox requests_per_minute cannot be negative", ErrInvalidConfig)
		}
	}

	if c.Mock.WordsPerMinute < 0 {
		return fmt.Errorf("%w: mock words_per_minute cannot be negative", ErrInvalidConfig)
	}
	if c.Cache.MemoryEntries < 0 || c.Cache.MaxDiskSize < 0 {
		return fmt.Errorf("%w: cache sizes cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// ExpandPaths resolves "~" in every path setting.
func (c *Config) ExpandPaths() error {
	for _, p := range []*string{&c.Piper.Binary, &c.Piper.Model, &c.Espeak.Binary, &c.Cache.Dir} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		*p = expanded
	}
	return nil
}

// Voice returns the default voice for this configuration.
func (c Config) Voice() VoiceParams {
	v := DefaultVoice
	if c.Lang != "" {
		v.Lang = c.Lang
	}
	return v
}
