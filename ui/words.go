package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/learnlink/learnlink/internal/trainer"
	"github.com/learnlink/learnlink/tts"
)

var (
	spellingStyle = lipgloss.NewStyle().Padding(1, 0, 0, 1)
	edit          = key.NewBinding(key.WithKeys("i", "/"), key.WithHelp("i", "type a word"))
)

// wordsPage spells a typed word letter by letter and then says it.
type wordsPage struct {
	common  *commonModel
	input   textinput.Model
	word    string
	letters []trainer.Letter
	batch   *batch
}

func newWordsPage(common *commonModel) *wordsPage {
	ti := textinput.New()
	ti.Placeholder = "Type a word"
	ti.Prompt = "› "
	ti.CharLimit = 32
	ti.Focus()
	return &wordsPage{common: common, input: ti}
}

func (p *wordsPage) title() string { return "Words" }

func (p *wordsPage) typing() bool { return p.input.Focused() }

func (p *wordsPage) selection() string {
	if p.word != "" {
		return p.word
	}
	return strings.TrimSpace(p.input.Value())
}

func (p *wordsPage) stop() {
	p.batch = nil
	p.input.Blur()
}

func (p *wordsPage) help() []key.Binding {
	return []key.Binding{keys.Speak, edit}
}

func (p *wordsPage) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if p.input.Focused() {
			if msg.Type == tea.KeyEnter {
				return p.pronounce()
			}
			var cmd tea.Cmd
			p.input, cmd = p.input.Update(msg)
			return cmd
		}
		switch {
		case key.Matches(msg, edit):
			return p.input.Focus()
		case key.Matches(msg, keys.Speak):
			return p.pronounce()
		}

	case tts.SpeakingMsg:
		p.batch.started(msg.Task)

	case tts.IdleMsg:
		p.batch = nil
	}
	return nil
}

func (p *wordsPage) pronounce() tea.Cmd {
	word := strings.TrimSpace(p.input.Value())
	tasks, err := trainer.WordTasks(word)
	if err != nil {
		return reportErr(err)
	}
	p.word = word
	p.letters = trainer.Letters(word)
	p.batch = newBatch(tasks)
	p.input.Blur()
	return p.common.speak(func(s tts.Speaker) error {
		return trainer.PronounceWord(s, word)
	})
}

// progress returns the index of the letter being named, or len(letters)
// while the whole word is spoken. It is -1 otherwise.
func (p *wordsPage) progress() int {
	i := p.batch.at()
	switch {
	case i < 0:
		return -1
	case i == len(p.batch.tasks)-1:
		return len(p.letters)
	case i < 2*len(p.letters):
		return i / 2
	}
	return -1
}

func (p *wordsPage) view(width, _ int) string {
	var b strings.Builder
	b.WriteString(p.input.View())
	b.WriteString("\n")

	if p.word != "" {
		at := p.progress()
		parts := make([]string, len(p.letters))
		for i, l := range p.letters {
			parts[i] = string(l.Letter)
			if i == at {
				parts[i] = highlightStyle.Render(parts[i])
			}
		}
		word := p.word
		if at == len(p.letters) {
			word = highlightStyle.Render(word)
		}
		b.WriteString(spellingStyle.Render(strings.Join(parts, dimStyle.Render("-")) + "   " + word))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(b.String())
}
