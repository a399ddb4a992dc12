package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/learnlink/learnlink/internal/trainer"
	"github.com/learnlink/learnlink/tts"
	"github.com/learnlink/learnlink/ui"
)

var (
	deckPath string

	trainerCmd = &cobra.Command{
		Use:   "trainer",
		Short: "Start the interactive trainer",
		Long: paragraph(fmt.Sprintf("\nPractise the alphabet, spelling, sounds and vocabulary in the terminal. Press %s to stop speaking.",
			keyword("esc"))),
		Example: paragraph("learnlink trainer\nlearnlink trainer --deck words.yml"),
		Args:    cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return runTrainer()
		},
	}
)

func runTrainer() error {
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}
	cfg.DeckPath = viper.GetString("trainer.deck")

	deck := trainer.DefaultDeck()
	if cfg.DeckPath != "" {
		deck, err = trainer.LoadDeck(cfg.DeckPath)
		if err != nil {
			return err
		}
	}

	return withSession(func(s *session) error {
		p := ui.NewProgram(cfg, s.seq, deck)
		_, err := p.Run()

		// Nobody reads the program's events anymore.
		s.seq.OnEvent(nil)
		log.Debug("Trainer closed", "pending", s.seq.Len(), "state", s.seq.State())
		if s.seq.State() != tts.StateIdle {
			s.seq.CancelAll()
		}
		if err != nil {
			return fmt.Errorf("unable to run tui program: %w", err)
		}
		return nil
	})
}

func init() {
	trainerCmd.Flags().StringVarP(&deckPath, "deck", "d", "", "vocabulary deck in YAML (reloaded on change)")
	_ = viper.BindPFlag("trainer.deck", trainerCmd.Flags().Lookup("deck"))
}
