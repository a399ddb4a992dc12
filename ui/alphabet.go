package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/learnlink/learnlink/internal/trainer"
	"github.com/learnlink/learnlink/tts"
)

const alphabetColumns = 7

var (
	letterStyle = lipgloss.NewStyle().
			Width(5).
			Align(lipgloss.Center).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#C2B8C2", Dark: "#4D4D4D"})
	selectedLetterStyle = letterStyle.BorderForeground(lipgloss.Color("#F25D94")).Bold(true)
	detailStyle         = lipgloss.NewStyle().Padding(1, 0, 0, 1)
)

// alphabetPage is the A to Z grid. Picking a letter says its name and
// then its sound.
type alphabetPage struct {
	common *commonModel
	cursor int
	batch  *batch
	spoken int // index into Alphabet of the letter being spelled, -1 if none
}

func newAlphabetPage(common *commonModel) *alphabetPage {
	return &alphabetPage{common: common, spoken: -1}
}

func (p *alphabetPage) title() string { return "Alphabet" }

func (p *alphabetPage) typing() bool { return false }

func (p *alphabetPage) selection() string {
	return trainer.Alphabet[p.cursor].String()
}

func (p *alphabetPage) stop() {
	p.batch = nil
	p.spoken = -1
}

func (p *alphabetPage) help() []key.Binding {
	return []key.Binding{keys.Speak, keys.Left, keys.Right, keys.Up, keys.Down}
}

func (p *alphabetPage) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			p.move(-1)
		case key.Matches(msg, keys.Right):
			p.move(1)
		case key.Matches(msg, keys.Up):
			p.move(-alphabetColumns)
		case key.Matches(msg, keys.Down):
			p.move(alphabetColumns)
		case key.Matches(msg, keys.Speak):
			return p.spell()
		}

	case tts.SpeakingMsg:
		if p.batch.started(msg.Task) {
			p.spoken = p.cursorOf(p.batch)
		}

	case tts.IdleMsg:
		p.stop()
	}
	return nil
}

func (p *alphabetPage) move(delta int) {
	n := p.cursor + delta
	if n < 0 || n >= len(trainer.Alphabet) {
		return
	}
	p.cursor = n
}

func (p *alphabetPage) spell() tea.Cmd {
	l := trainer.Alphabet[p.cursor]
	p.batch = newBatch(trainer.LetterTasks(l))
	p.spoken = -1
	return p.common.speak(func(s tts.Speaker) error {
		return trainer.SpellLetter(s, l)
	})
}

// cursorOf maps a letter batch back to the grid position of its letter.
func (p *alphabetPage) cursorOf(b *batch) int {
	if len(b.tasks) == 0 {
		return -1
	}
	name := b.tasks[0].Text
	for i, l := range trainer.Alphabet {
		if l.Name == name {
			return i
		}
	}
	return -1
}

func (p *alphabetPage) view(width, _ int) string {
	var rows []string
	var row []string
	for i, l := range trainer.Alphabet {
		style := letterStyle
		if i == p.cursor {
			style = selectedLetterStyle
		}
		text := string(l.Letter)
		if i == p.spoken {
			text = highlightStyle.Render(text)
		}
		row = append(row, style.Render(text))
		if len(row) == alphabetColumns || i == len(trainer.Alphabet)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	grid := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return lipgloss.NewStyle().MaxWidth(width).Render(grid + "\n" + p.detail())
}

// detail describes the selected letter, lighting the part being spoken.
func (p *alphabetPage) detail() string {
	l := trainer.Alphabet[p.cursor]
	name, sound := l.Name, "/"+l.Sound+"/"
	if p.spoken == p.cursor {
		switch p.batch.at() {
		case 0:
			name = highlightStyle.Render(name)
		case 2:
			sound = highlightStyle.Render(sound)
		}
	}
	var b strings.Builder
	b.WriteString(keywordStyle.Render(string(l.Letter)))
	b.WriteString("  ")
	b.WriteString(name)
	b.WriteString("  ")
	b.WriteString(sound)
	return detailStyle.Render(b.String())
}
