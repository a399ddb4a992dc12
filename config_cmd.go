package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/learnlink/learnlink/tts"
)

const defaultConfig = `# Speech settings. Every key can also be set with a LEARNLINK_* variable,
# e.g. LEARNLINK_ENGINE=espeak.
speech:
  # engine: mock, piper, espeak or voicevox
  engine: "mock"
  # engine to switch to when the first one keeps failing (optional)
  fallback: ""
  # default voice language
  lang: "en-US"
  # sample rate of the synthesized audio
  sample_rate: 22050
  # volume level (0.0 to 1.0)
  volume: 1.0
  # synthesize but play nothing
  silent: false

  piper:
    binary: "piper"
    model: "~/.local/share/piper/en_US-lessac-medium.onnx"
    speaker: 0
    timeout: "30s"

  espeak:
    binary: "espeak-ng"
    # voice name, defaults to the language of each utterance
    # voice: "en-us"
    timeout: "10s"

  voicevox:
    url: "http://127.0.0.1:50021"
    speaker: 1
    requests_per_minute: 120
    timeout: "30s"

  # the silent engine used for demos and tests
  mock:
    words_per_minute: 150

  # synthesized clips are kept in memory and on disk
  cache:
    enabled: true
    # dir: "~/.cache/learnlink/audio"
    memory_entries: 256
    max_disk_size: 104857600
    ttl: "720h"

trainer:
  # YAML vocabulary deck, reloaded when it changes (built-in deck if empty)
  deck: ""
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the LearnLink config file",
	Long:    paragraph(fmt.Sprintf("\n%s the LearnLink config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("learnlink config\nlearnlink config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("LearnLink", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		if err := checkConfigFile(configFile); err != nil {
			fmt.Fprintln(os.Stderr, dimStyle.Render("warning: "+err.Error()))
		}
		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

// checkConfigFile loads path into a fresh Viper and validates its speech
// section.
func checkConfigFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("unable to read config file: %w", err)
	}
	if _, err := tts.LoadConfig(v); err != nil {
		return err
	}
	return nil
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
