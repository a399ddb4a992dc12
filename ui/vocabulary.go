package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"github.com/learnlink/learnlink/internal/trainer"
	"github.com/learnlink/learnlink/tts"
)

var (
	filterKey      = key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter"))
	translationKey = key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "translation"))

	categoryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7571F9")).Bold(true)
	translationStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8E8E8E", Dark: "#A0A0A0"}).Italic(true)
)

// deckLoadedMsg carries a reloaded vocabulary deck.
type deckLoadedMsg struct {
	deck *trainer.Deck
	err  error
}

// vocabularyPage lists the phrases of the deck. Typing after "/" narrows
// the list with a fuzzy match on the phrase and its translation.
type vocabularyPage struct {
	common       *commonModel
	deck         *trainer.Deck
	filter       textinput.Model
	phrases      []trainer.Phrase
	cursor       int
	translations bool
	phrase       spoken
}

func newVocabularyPage(common *commonModel, deck *trainer.Deck) *vocabularyPage {
	ti := textinput.New()
	ti.Prompt = "Find: "
	ti.Placeholder = "elephant, toilet…"
	ti.CharLimit = 64

	p := &vocabularyPage{
		common:       common,
		filter:       ti,
		translations: common.cfg.ShowTranslations,
		phrase:       newSpoken(""),
	}
	p.setDeck(deck)
	return p
}

func (p *vocabularyPage) title() string { return "Vocabulary" }

func (p *vocabularyPage) typing() bool { return p.filter.Focused() }

func (p *vocabularyPage) selection() string {
	if ph, ok := p.selected(); ok {
		return ph.English
	}
	return ""
}

func (p *vocabularyPage) stop() {
	p.filter.Blur()
	p.phrase.reset()
}

func (p *vocabularyPage) help() []key.Binding {
	return []key.Binding{keys.Speak, filterKey, translationKey, keys.Up, keys.Down}
}

func (p *vocabularyPage) setDeck(deck *trainer.Deck) {
	p.deck = deck
	p.applyFilter()
}

func (p *vocabularyPage) applyFilter() {
	if p.deck == nil {
		p.phrases = nil
	} else {
		p.phrases = p.deck.Filter(p.filter.Value())
	}
	if p.cursor >= len(p.phrases) {
		p.cursor = max(len(p.phrases)-1, 0)
	}
}

func (p *vocabularyPage) selected() (trainer.Phrase, bool) {
	if p.cursor < 0 || p.cursor >= len(p.phrases) {
		return trainer.Phrase{}, false
	}
	return p.phrases[p.cursor], true
}

func (p *vocabularyPage) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if p.filter.Focused() {
			switch msg.Type { //nolint:exhaustive
			case tea.KeyEnter:
				p.filter.Blur()
				return nil
			case tea.KeyUp, tea.KeyDown:
				p.moveKey(msg)
				return nil
			}
			var cmd tea.Cmd
			p.filter, cmd = p.filter.Update(msg)
			p.applyFilter()
			return cmd
		}
		switch {
		case key.Matches(msg, filterKey):
			return p.filter.Focus()
		case key.Matches(msg, translationKey):
			p.translations = !p.translations
		case key.Matches(msg, keys.Up), key.Matches(msg, keys.Down):
			p.moveKey(msg)
		case key.Matches(msg, keys.Speak):
			ph, ok := p.selected()
			if !ok {
				return nil
			}
			p.phrase = newSpoken(ph.English)
			return p.common.speak(func(s tts.Speaker) error {
				return trainer.SpeakPhrase(s, ph)
			})
		}

	case deckLoadedMsg:
		if msg.err != nil {
			return reportErr(fmt.Errorf("vocabulary deck: %w", msg.err))
		}
		p.setDeck(msg.deck)
		return statusNote(fmt.Sprintf("Reloaded %d phrases", len(msg.deck.Phrases())))

	case tts.WordMsg:
		p.phrase.boundary(msg.Text, msg.CharIndex)

	case tts.IdleMsg:
		p.phrase.reset()
	}
	return nil
}

func (p *vocabularyPage) moveKey(msg tea.KeyMsg) {
	if msg.Type == tea.KeyUp || key.Matches(msg, keys.Up) {
		if p.cursor > 0 {
			p.cursor--
		}
		return
	}
	if p.cursor < len(p.phrases)-1 {
		p.cursor++
	}
}

func (p *vocabularyPage) view(width, height int) string {
	var b strings.Builder
	b.WriteString(p.filter.View())
	b.WriteString("\n\n")

	if len(p.phrases) == 0 {
		b.WriteString(dimStyle.Render("  Nothing found."))
		return b.String()
	}

	// Keep the cursor in view.
	rows := max(height-3, 1)
	start := 0
	if p.cursor >= rows {
		start = p.cursor - rows + 1
	}
	end := min(start+rows, len(p.phrases))

	// Translations line up after the widest visible phrase. Widths are in
	// terminal cells since decks may hold wide characters.
	column := 0
	for _, ph := range p.phrases[start:end] {
		column = max(column, runewidth.StringWidth(ph.English))
	}
	column = min(column, width/2)

	category := ""
	for i := start; i < end; i++ {
		ph := p.phrases[i]
		if ph.Category != category && p.filter.Value() == "" {
			category = ph.Category
			b.WriteString(categoryStyle.Render(category))
			b.WriteString("\n")
		}

		text := ph.English
		if p.phrase.text == ph.English {
			text = p.phrase.view()
		}
		if p.translations && ph.Translation != "" {
			pad := max(column-runewidth.StringWidth(ph.English), 0)
			text += strings.Repeat(" ", pad) + "  " + translationStyle.Render(ph.Translation)
		}
		text = truncate.StringWithTail(text, uint(max(width-3, 0)), ellipsis) //nolint:gosec

		if i == p.cursor {
			b.WriteString(soundSelStyle.Render(keywordStyle.Render(text)))
		} else {
			b.WriteString(soundItemStyle.Render(text))
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// watchDeck reloads the deck at path whenever it changes and delivers the
// result on ch until ctx is done.
func watchDeck(ctx context.Context, path string, ch chan<- tea.Msg) {
	go func() {
		err := trainer.WatchDeck(ctx, path, func(deck *trainer.Deck, err error) {
			select {
			case ch <- deckLoadedMsg{deck: deck, err: err}:
			case <-ctx.Done():
			}
		})
		if err != nil {
			log.Warn("Unable to watch vocabulary deck", "path", path, "error", err)
		}
	}()
}
