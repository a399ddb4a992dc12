// Package ui provides the interactive trainer.
package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/learnlink/learnlink/internal/trainer"
	"github.com/learnlink/learnlink/tts"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "copied!"
	ellipsis             = "…"
	eventBuffer          = 256
)

var (
	keywordStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"})
	logoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#ECFD65")).Background(lipgloss.Color("#7D56F4")).Bold(true).Padding(0, 1)
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"})
	activeTabStyle = tabStyle.Foreground(lipgloss.Color("#F25D94")).Bold(true).Underline(true)
	pageStyle      = lipgloss.NewStyle().Padding(1, 1, 0, 1)

	// writeClipboard is replaced in tests.
	writeClipboard = copyText
)

// NewProgram returns a new Tea program for the trainer. seq must be the
// only user of its engine; the program registers itself as its observer.
func NewProgram(cfg Config, seq *tts.Sequencer, deck *trainer.Deck) *tea.Program {
	log.Debug("Starting trainer", "engine", seq.Engine().Name(), "deck", cfg.DeckPath)

	m := newModel(cfg, seq, deck)
	m.common.engine = seq.Engine().Name()
	m.status = newSpeechStatus(m.common.engine)
	m.events = tts.EventChannel(seq, eventBuffer)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	return tea.NewProgram(m, opts...)
}

type (
	speakErrMsg             struct{ err error }
	statusNoteMsg           string
	statusMessageTimeoutMsg int
)

func reportErr(err error) tea.Cmd {
	return func() tea.Msg { return speakErrMsg{err} }
}

func statusNote(s string) tea.Cmd {
	return func() tea.Msg { return statusNoteMsg(s) }
}

// Common stuff we'll need to access in all pages.
type commonModel struct {
	cfg     Config
	speaker tts.Speaker
	engine  string
	width   int
	height  int
}

// speak runs fn against the speaker inline. Engines accept an utterance
// without waiting for playback.
func (c *commonModel) speak(fn func(tts.Speaker) error) tea.Cmd {
	if err := fn(c.speaker); err != nil {
		return reportErr(err)
	}
	return nil
}

// page is one tab of the trainer.
type page interface {
	title() string
	update(tea.Msg) tea.Cmd
	view(width, height int) string
	// typing reports whether a text input has focus, in which case keys
	// go to the page first.
	typing() bool
	// selection is what "y" copies.
	selection() string
	// stop drops speech highlights and leaves text entry.
	stop()
	help() []key.Binding
}

type model struct {
	common *commonModel
	pages  []page
	active int
	vocab  *vocabularyPage

	status speechStatus
	help   help.Model

	statusMessage string
	statusSeq     int

	events    <-chan tea.Msg
	deckMsgs  chan tea.Msg
	stopWatch context.CancelFunc
}

func newModel(cfg Config, speaker tts.Speaker, deck *trainer.Deck) model {
	highlightStyle = newHighlightStyle(cfg.HighlightColor)
	if deck == nil {
		deck = trainer.DefaultDeck()
	}

	common := &commonModel{cfg: cfg, speaker: speaker}
	vocab := newVocabularyPage(common, deck)
	return model{
		common: common,
		pages: []page{
			newAlphabetPage(common),
			newWordsPage(common),
			newSoundsPage(common),
			vocab,
		},
		vocab:  vocab,
		status: newSpeechStatus(""),
		help:   help.New(),
	}
}

func (m model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.events != nil {
		cmds = append(cmds, tts.ListenCmd(m.events))
	}
	if m.common.cfg.DeckPath != "" {
		cmds = append(cmds, func() tea.Msg { return startWatchMsg{} })
	}
	return tea.Batch(cmds...)
}

type startWatchMsg struct{}

func (m model) page() page {
	return m.pages[m.active]
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.ForceQuit):
			return m, m.quit()

		case key.Matches(msg, keys.Stop):
			m.common.speaker.CancelAll()
			for _, p := range m.pages {
				p.stop()
			}
			return m, nil

		case key.Matches(msg, keys.NextPage):
			m.switchPage(1)
			return m, nil

		case key.Matches(msg, keys.PrevPage):
			m.switchPage(-1)
			return m, nil
		}

		// pass through all keys if we're editing text
		if m.page().typing() {
			return m, m.page().update(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return m, m.quit()

		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil

		case key.Matches(msg, keys.Copy):
			return m, m.copySelection()
		}
		if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= len(m.pages) {
			m.page().stop()
			m.active = n - 1
			return m, nil
		}
		return m, m.page().update(msg)

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.help.Width = msg.Width

	case tts.SpeakingMsg, tts.SpokenMsg, tts.WordMsg, tts.SpeechErrorMsg, tts.IdleMsg:
		cmds = append(cmds, m.status.update(msg))
		for _, p := range m.pages {
			cmds = append(cmds, p.update(msg))
		}
		if m.events != nil {
			cmds = append(cmds, tts.ListenCmd(m.events))
		}

	case spinner.TickMsg:
		cmds = append(cmds, m.status.update(msg))

	case speakErrMsg:
		log.Debug("Speech request failed", "error", msg.err)
		m.status.fail(msg.err)

	case statusNoteMsg:
		cmds = append(cmds, m.showStatusMessage(string(msg)))

	case statusMessageTimeoutMsg:
		if int(msg) == m.statusSeq {
			m.statusMessage = ""
		}

	case startWatchMsg:
		ctx, cancel := context.WithCancel(context.Background())
		m.stopWatch = cancel
		m.deckMsgs = make(chan tea.Msg)
		watchDeck(ctx, m.common.cfg.DeckPath, m.deckMsgs)
		cmds = append(cmds, listen(m.deckMsgs))

	case deckLoadedMsg:
		cmds = append(cmds, m.vocab.update(msg))
		if m.deckMsgs != nil {
			cmds = append(cmds, listen(m.deckMsgs))
		}
	}

	return m, tea.Batch(cmds...)
}

func listen(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func (m *model) switchPage(delta int) {
	m.page().stop()
	m.active = (m.active + delta + len(m.pages)) % len(m.pages)
}

func (m *model) quit() tea.Cmd {
	m.common.speaker.CancelAll()
	if m.stopWatch != nil {
		m.stopWatch()
	}
	return tea.Quit
}

func (m *model) copySelection() tea.Cmd {
	text := m.page().selection()
	if text == "" {
		return nil
	}
	if err := writeClipboard(text); err != nil {
		return reportErr(fmt.Errorf("copy: %w", err))
	}
	return m.showStatusMessage(fmt.Sprintf("Copied %q", text))
}

// copyText copies s using OSC 52, which works over SSH, and the native
// clipboard when there is one.
func copyText(s string) error {
	termenv.Copy(s)
	if clipboard.Unsupported {
		return nil
	}
	return clipboard.WriteAll(s)
}

func (m *model) showStatusMessage(s string) tea.Cmd {
	m.statusSeq++
	m.statusMessage = s
	seq := m.statusSeq
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg(seq)
	})
}

func (m model) View() string {
	width, height := m.common.width, m.common.height
	if width == 0 {
		width = 80
	}

	var tabs []string
	for i, p := range m.pages {
		style := tabStyle
		if i == m.active {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(fmt.Sprintf("%d %s", i+1, p.title())))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, append([]string{logoStyle.Render("LearnLink")}, tabs...)...)

	statusBar := m.status.view(width)
	if m.statusMessage != "" {
		statusBar = statusNoteStyle.Render(m.statusMessage)
	}
	helpView := m.help.View(helpKeys{page: m.page().help()})

	// Whatever is left goes to the page.
	bodyHeight := height - lipgloss.Height(header) - lipgloss.Height(helpView) - 3
	if height == 0 {
		bodyHeight = 20
	}
	body := pageStyle.Render(m.page().view(width-2, max(bodyHeight, 1)))

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n\n")
	b.WriteString(statusBar)
	b.WriteString("\n")
	b.WriteString(helpView)
	return b.String()
}
