package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/learnlink/learnlink/internal/trainer"
	"github.com/learnlink/learnlink/tts"
)

var (
	sayWord        = key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "say the word"))
	soundItemStyle = lipgloss.NewStyle().PaddingLeft(2)
	soundSelStyle  = lipgloss.NewStyle().PaddingLeft(1).Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#F25D94"))
)

// soundsPage lists common English sounds. The example sentence is read
// with the spoken word highlighted.
type soundsPage struct {
	common   *commonModel
	cursor   int
	sentence spoken
}

func newSoundsPage(common *commonModel) *soundsPage {
	return &soundsPage{common: common, sentence: newSpoken("")}
}

func (p *soundsPage) title() string { return "Sounds" }

func (p *soundsPage) typing() bool { return false }

func (p *soundsPage) selection() string {
	return trainer.Sounds[p.cursor].ExampleWord
}

func (p *soundsPage) stop() {
	p.sentence.reset()
}

func (p *soundsPage) help() []key.Binding {
	return []key.Binding{keys.Speak, sayWord, keys.Up, keys.Down}
}

func (p *soundsPage) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, keys.Down):
			if p.cursor < len(trainer.Sounds)-1 {
				p.cursor++
			}
		case key.Matches(msg, keys.Speak):
			s := trainer.Sounds[p.cursor]
			p.sentence = newSpoken(s.ExampleSentence)
			return p.common.speak(func(sp tts.Speaker) error {
				return trainer.SpeakSentence(sp, s.ExampleSentence)
			})
		case key.Matches(msg, sayWord):
			word := trainer.Sounds[p.cursor].ExampleWord
			return p.common.speak(func(sp tts.Speaker) error {
				return trainer.Play(sp, tts.SpeakTask(word, trainer.WordVoice))
			})
		}

	case tts.WordMsg:
		p.sentence.boundary(msg.Text, msg.CharIndex)

	case tts.IdleMsg:
		p.sentence.reset()
	}
	return nil
}

func (p *soundsPage) view(width, _ int) string {
	var b strings.Builder
	for i, s := range trainer.Sounds {
		line := fmt.Sprintf("%-26s %s", s.Name, dimStyle.Render(s.Symbol))
		if i == p.cursor {
			b.WriteString(soundSelStyle.Render(keywordStyle.Render(line)))
		} else {
			b.WriteString(soundItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	s := trainer.Sounds[p.cursor]
	sentence := s.ExampleSentence
	if p.sentence.text == sentence {
		sentence = p.sentence.view()
	}
	fmt.Fprintf(&b, "\n %s %s\n", dimStyle.Render("Example:"), s.ExampleWord)
	fmt.Fprintf(&b, " %s\n", sentence)
	fmt.Fprintf(&b, " %s", dimStyle.Render(truncate.StringWithTail(s.Description, uint(max(width-1, 0)), ellipsis))) //nolint:gosec
	return b.String()
}
