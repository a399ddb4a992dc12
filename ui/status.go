package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/learnlink/learnlink/tts"
)

var (
	statusBarStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"})
	speakingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	statusErrStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	statusNoteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AAFF"))
)

// speechStatus is what the status bar knows about the sequencer.
type speechStatus struct {
	engine   string
	speaking bool
	text     string // last spoken text
	lastErr  error
	spinner  spinner.Model
}

func newSpeechStatus(engine string) speechStatus {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = speakingStyle
	return speechStatus{engine: engine, spinner: sp}
}

// update applies a sequencer message. It returns a spinner tick when
// speech begins.
func (s *speechStatus) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tts.SpeakingMsg:
		was := s.speaking
		s.speaking = true
		if msg.Task.Kind == tts.TaskSpeak {
			s.text = msg.Task.Text
			s.lastErr = nil
		}
		if !was {
			return s.spinner.Tick
		}
	case tts.SpeechErrorMsg:
		s.lastErr = msg.Err
	case tts.IdleMsg:
		s.speaking = false
		if msg.Canceled {
			s.text = ""
		}
	case spinner.TickMsg:
		if !s.speaking {
			return nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return cmd
	}
	return nil
}

// fail records an error that did not come from the sequencer, such as a
// rejected Start.
func (s *speechStatus) fail(err error) {
	s.speaking = false
	s.lastErr = err
}

func (s speechStatus) view(width int) string {
	var left string
	switch {
	case s.lastErr != nil:
		left = statusErrStyle.Render("✗ " + describeError(s.lastErr))
	case s.speaking && s.text != "":
		left = s.spinner.View() + " " + speakingStyle.Render(fmt.Sprintf("“%s”", s.text))
	case s.speaking:
		left = s.spinner.View()
	default:
		left = "■"
	}
	right := " " + s.engine

	avail := width - lipgloss.Width(right)
	if avail < 1 {
		return truncate.StringWithTail(left, uint(max(width, 0)), ellipsis) //nolint:gosec
	}
	left = truncate.StringWithTail(left, uint(avail), ellipsis) //nolint:gosec
	gap := max(avail-lipgloss.Width(left), 0)
	return left + fmt.Sprintf("%*s", gap, "") + statusBarStyle.Render(right)
}

// describeError shortens speech errors for the status bar.
func describeError(err error) string {
	switch {
	case errors.Is(err, tts.ErrEngineUnavailable):
		return "speech engine unavailable"
	case errors.Is(err, tts.ErrUtterance):
		var serr *tts.SpeechError
		if errors.As(err, &serr) && serr.Err != nil {
			return serr.Err.Error()
		}
	}
	return err.Error()
}
