package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/learnlink/learnlink/internal/trainer"
	"github.com/learnlink/learnlink/tts"
)

var soundsCmd = &cobra.Command{
	Use:   "sounds [N]",
	Short: "List common English sounds, or practise one",
	Long: paragraph(fmt.Sprintf("\nWithout arguments, list the pronunciation catalogue. With %s, say the example sentence of sound N and highlight each word as it is spoken.",
		keyword("N"))),
	Example: paragraph("learnlink sounds\nlearnlink sounds 4"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			fmt.Println(soundsTable())
			return nil
		}

		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > len(trainer.Sounds) {
			return fmt.Errorf("no sound %q: pick a number from 1 to %d", args[0], len(trainer.Sounds))
		}
		sound := trainer.Sounds[n-1]
		fmt.Printf("%s %s  %s\n", keyword(sound.Name), sound.Symbol, dimStyle.Render(sound.Description))

		return withSession(func(s *session) error {
			h := newHighlighter(sound.ExampleSentence, term.IsTerminal(int(os.Stdout.Fd()))) //nolint:gosec
			s.seq.OnEvent(h.handle)
			err := s.play(cmd.Context(), func(sp tts.Speaker) error {
				return trainer.SpeakSentence(sp, sound.ExampleSentence)
			})
			h.done()
			return err
		})
	},
}

func soundsTable() string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("#", "Sound", "IPA", "Word", "Example").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for i, s := range trainer.Sounds {
		t.Row(strconv.Itoa(i+1), s.Name, s.Symbol, s.ExampleWord, s.ExampleSentence)
	}
	return t.Render()
}

// highlighter redraws a sentence on one terminal line, marking the word
// the engine reports as being spoken.
type highlighter struct {
	mu       sync.Mutex
	sentence string
	bounds   []trainer.Boundary
	live     bool
	current  int
	failed   error
}

func newHighlighter(sentence string, live bool) *highlighter {
	h := &highlighter{
		sentence: sentence,
		bounds:   trainer.WordBoundaries(sentence),
		live:     live,
		current:  -1,
	}
	if live {
		h.draw()
	}
	return h
}

func (h *highlighter) handle(e tts.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch e.Type {
	case tts.EventBoundary:
		i := trainer.WordAt(h.bounds, e.CharIndex)
		if i < 0 || i == h.current {
			return
		}
		h.current = i
		if h.live {
			h.draw()
		}
	case tts.EventTaskFailed:
		h.failed = e.Err
	}
}

// done ends the line and reports a failed utterance.
func (h *highlighter) done() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.current = -1
	if h.live {
		h.draw()
		fmt.Println()
	} else {
		fmt.Println(h.sentence)
	}
	if h.failed != nil {
		fmt.Fprintln(os.Stderr, dimStyle.Render(fmt.Sprintf("could not say %q: %v", h.sentence, h.failed)))
	}
}

func (h *highlighter) draw() {
	fmt.Print("\r" + highlight(h.sentence, h.bounds, h.current))
}

// highlight renders sentence with the word at index i marked.
func highlight(sentence string, bounds []trainer.Boundary, i int) string {
	if i < 0 || i >= len(bounds) {
		return sentence
	}
	b := bounds[i]
	var sb strings.Builder
	sb.WriteString(sentence[:b.Start])
	sb.WriteString(wordStyle.Render(b.Word))
	sb.WriteString(sentence[b.End:])
	return sb.String()
}
