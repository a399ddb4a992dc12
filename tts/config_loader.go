package tts

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// configKey is the config file section holding speech settings.
const configKey = "speech"

// LoadConfigFromViper decodes the speech section of the config file on top
// of DefaultConfig, applies environment overrides and validates the result.
func LoadConfigFromViper() (Config, error) {
	return LoadConfig(viper.GetViper())
}

// LoadConfig is LoadConfigFromViper for a specific Viper instance.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	if v.IsSet(configKey) {
		if err := v.UnmarshalKey(configKey, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: environment: %w", ErrInvalidConfig, err)
	}

	if err := cfg.ExpandPaths(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid speech configuration: %w", err)
	}
	return cfg, nil
}

// SetDefaults registers speech defaults with Viper so they show up in
// `learnlink config` output and flag bindings.
func SetDefaults() {
	d := DefaultConfig()

	viper.SetDefault("speech.engine", d.Engine)
	viper.SetDefault("speech.lang", d.Lang)
	viper.SetDefault("speech.sample_rate", d.SampleRate)
	viper.SetDefault("speech.volume", d.Volume)

	viper.SetDefault("speech.piper.binary", d.Piper.Binary)
	viper.SetDefault("speech.piper.model", d.Piper.Model)
	viper.SetDefault("speech.piper.timeout", d.Piper.Timeout.String())

	viper.SetDefault("speech.espeak.binary", d.Espeak.Binary)
	viper.SetDefault("speech.espeak.timeout", d.Espeak.Timeout.String())

	viper.SetDefault("speech.voicevox.url", d.Voicevox.URL)
	viper.SetDefault("speech.voicevox.speaker", d.Voicevox.Speaker)
	viper.SetDefault("speech.voicevox.requests_per_minute", d.Voicevox.RequestsPerMinute)
	viper.SetDefault("speech.voicevox.timeout", d.Voicevox.Timeout.String())

	viper.SetDefault("speech.mock.words_per_minute", d.Mock.WordsPerMinute)

	viper.SetDefault("speech.cache.enabled", d.Cache.Enabled)
	viper.SetDefault("speech.cache.memory_entries", d.Cache.MemoryEntries)
	viper.SetDefault("speech.cache.max_disk_size", d.Cache.MaxDiskSize)
	viper.SetDefault("speech.cache.ttl", d.Cache.TTL.String())
}
