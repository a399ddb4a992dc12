package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/learnlink/learnlink/internal/trainer"
)

// highlightStyle marks what is being spoken. newModel recolors it from
// Config.HighlightColor.
var highlightStyle = newHighlightStyle("226")

func newHighlightStyle(color string) lipgloss.Style {
	if color == "" {
		color = "226"
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(color)).
		Foreground(lipgloss.Color("0")).
		Bold(true)
}

// highlightWord renders sentence with the word at index i marked. An index
// outside bounds leaves the sentence untouched.
func highlightWord(sentence string, bounds []trainer.Boundary, i int) string {
	if i < 0 || i >= len(bounds) {
		return sentence
	}
	b := bounds[i]
	var sb strings.Builder
	sb.WriteString(sentence[:b.Start])
	sb.WriteString(highlightStyle.Render(b.Word))
	sb.WriteString(sentence[b.End:])
	return sb.String()
}

// spoken follows word boundaries of one sentence.
type spoken struct {
	text   string
	bounds []trainer.Boundary
	word   int
}

func newSpoken(text string) spoken {
	return spoken{text: text, bounds: trainer.WordBoundaries(text), word: -1}
}

// boundary moves the highlight if the message belongs to this sentence.
// Offsets between words keep the previous word lit.
func (s *spoken) boundary(text string, charIndex int) {
	if text != s.text {
		return
	}
	if i := trainer.WordAt(s.bounds, charIndex); i >= 0 {
		s.word = i
	}
}

func (s *spoken) reset() {
	s.word = -1
}

func (s spoken) view() string {
	return highlightWord(s.text, s.bounds, s.word)
}
