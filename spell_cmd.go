package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/learnlink/learnlink/internal/trainer"
	"github.com/learnlink/learnlink/tts"
)

var (
	spellCmd = &cobra.Command{
		Use:     "spell WORD",
		Short:   "Spell a word letter by letter, then say it",
		Example: paragraph("learnlink spell cat\nlearnlink spell --engine espeak elephant"),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			word := args[0]
			if _, err := trainer.WordTasks(word); err != nil {
				return fmt.Errorf("%q: %w", word, err)
			}
			return withSession(func(s *session) error {
				s.reportFailures()
				fmt.Println(spelling(word))
				return s.play(cmd.Context(), func(sp tts.Speaker) error {
					return trainer.PronounceWord(sp, word)
				})
			})
		},
	}

	letterCmd = &cobra.Command{
		Use:     "letter LETTER",
		Short:   "Say the name and the sound of a letter",
		Example: paragraph("learnlink letter a"),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := trainer.ParseLetter(args[0])
			if err != nil {
				return err
			}
			return withSession(func(s *session) error {
				s.reportFailures()
				fmt.Printf("%s  %s %s\n", keyword(string(l.Letter)), l.Name, dimStyle.Render("/"+l.Sound+"/"))
				return s.play(cmd.Context(), func(sp tts.Speaker) error {
					return trainer.SpellLetter(sp, l)
				})
			})
		},
	}
)

// spelling renders the letters of word that will be spoken, such as
// "C-A-T  cat".
func spelling(word string) string {
	var letters []string
	for _, l := range trainer.Letters(word) {
		letters = append(letters, string(l.Letter))
	}
	return keyword(strings.Join(letters, "-")) + "  " + word
}
