package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/learnlink/learnlink/internal/trainer"
	"github.com/learnlink/learnlink/tts"
	"github.com/learnlink/learnlink/tts/audio"
	"github.com/learnlink/learnlink/tts/engines"
)

var (
	sayLang  string
	sayPitch float64
	sayRate  float64
	sayOut   string

	sayCmd = &cobra.Command{
		Use:   "say TEXT...",
		Short: "Say a phrase out loud",
		Long: paragraph(fmt.Sprintf("\nSay a phrase. With %s the audio is written to a WAV file instead of being played.",
			keyword("--out"))),
		Example: paragraph("learnlink say \"Where is the toilet?\"\nlearnlink say --rate 0.8 --out hello.wav hello"),
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				return trainer.ErrEmptySentence
			}
			if sayOut != "" {
				return sayToFile(cmd, text)
			}
			return withSession(func(s *session) error {
				s.reportFailures()
				voice := sayVoice(s.config)
				return s.play(cmd.Context(), func(sp tts.Speaker) error {
					return trainer.Play(sp, tts.SpeakTask(text, voice))
				})
			})
		},
	}
)

// sayVoice applies the voice flags on top of the configured language.
func sayVoice(cfg tts.Config) tts.VoiceParams {
	v := cfg.Voice()
	if sayLang != "" {
		v.Lang = sayLang
	}
	v.Pitch = sayPitch
	v.Rate = sayRate
	return v
}

func sayToFile(cmd *cobra.Command, text string) error {
	if ext := strings.ToLower(filepath.Ext(sayOut)); ext != ".wav" {
		return fmt.Errorf("'%s' is not a supported output type: use '%s'", ext, ".wav")
	}

	cfg, err := loadSpeechConfig()
	if err != nil {
		return err
	}
	if cfg.Engine == tts.EngineMock {
		return errors.New("the mock engine produces no audio: choose another one with --engine")
	}

	cm := openCache(cfg)
	if cm != nil {
		defer func() { _ = cm.Close() }()
	}
	synth, err := engines.NewSynthesizer(cfg, engines.Options{Cache: cm, Logger: log.Default()})
	if err != nil {
		return err
	}

	pcm, err := synth.Synthesize(cmd.Context(), text, sayVoice(cfg))
	if err != nil {
		return fmt.Errorf("%s: %w", synth.Name(), err)
	}
	format := audio.Format{SampleRate: cfg.SampleRate, Channels: audio.Channels}
	data := audio.EncodeWAV(pcm, format)
	if err := os.WriteFile(sayOut, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("unable to write audio: %w", err)
	}

	fmt.Printf("Wrote %s (%s, %s) to %s\n",
		humanize.Bytes(uint64(len(data))), format.Duration(len(pcm)).Round(10*time.Millisecond), synth.Name(), sayOut)
	return nil
}

func init() {
	sayCmd.Flags().StringVarP(&sayLang, "lang", "l", "", "voice language, e.g. en-GB")
	sayCmd.Flags().Float64VarP(&sayPitch, "pitch", "p", tts.DefaultVoice.Pitch, "voice pitch, 1 is normal")
	sayCmd.Flags().Float64VarP(&sayRate, "rate", "r", tts.DefaultVoice.Rate, "speaking rate, 1 is normal")
	sayCmd.Flags().StringVarP(&sayOut, "out", "o", "", "write a WAV file instead of playing")
}
