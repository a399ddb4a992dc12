package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/learnlink/learnlink/internal/trainer"
	"github.com/learnlink/learnlink/tts"
)

var (
	readList bool

	readCmd = &cobra.Command{
		Use:   "read FILE",
		Short: "Read a markdown lesson out loud, one sentence at a time",
		Long: paragraph(fmt.Sprintf("\nRead the sentences of a markdown lesson. Code blocks and links are skipped. Use %s to read from stdin.",
			keyword("-"))),
		Example: paragraph("learnlink read lesson.md\nlearnlink read --list lesson.md"),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readSource(args[0])
			if err != nil {
				return err
			}
			lesson := trainer.ParseLesson(data)
			if len(lesson.Sentences) == 0 {
				return fmt.Errorf("%s: %w", args[0], trainer.ErrEmptySentence)
			}

			if lesson.Title != "" {
				fmt.Println(keyword(lesson.Title))
			}
			if readList {
				for i, s := range lesson.Sentences {
					fmt.Printf("%s %s\n", dimStyle.Render(fmt.Sprintf("%3d", i+1)), s)
				}
				return nil
			}

			return withSession(func(s *session) error {
				s.seq.OnEvent(func(e tts.Event) {
					switch e.Type {
					case tts.EventTaskStarted:
						if e.Task.Kind == tts.TaskSpeak {
							fmt.Println(e.Task.Text)
						}
					case tts.EventTaskFailed:
						fmt.Fprintln(os.Stderr, dimStyle.Render(fmt.Sprintf("could not say %q: %v", e.Task.Text, e.Err)))
					}
				})
				return s.play(cmd.Context(), func(sp tts.Speaker) error {
					return trainer.ReadLesson(sp, lesson)
				})
			})
		},
	}
)

func readSource(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read lesson: %w", err)
	}
	return data, nil
}

func init() {
	readCmd.Flags().BoolVarP(&readList, "list", "l", false, "print the sentences without speaking")
}
