package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

//go:embed guide.md
var guide string

var (
	guideStyle string
	guideWidth uint

	guideCmd = &cobra.Command{
		Use:   "guide",
		Short: "Show how to use LearnLink",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			out, err := renderGuide(guideStyle, guideWidth)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
)

// renderGuide renders the guide for the terminal. A zero width means the
// terminal width, capped at 120 columns.
func renderGuide(style string, width uint) (string, error) {
	isTerminal := term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec
	if width == 0 {
		width = 80
		if isTerminal {
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil { //nolint:gosec
				width = uint(min(w, 120)) //nolint:gosec
			}
		}
	}

	opts := []glamour.TermRendererOption{
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithWordWrap(int(width)), //nolint:gosec
		glamour.WithEmoji(),
	}
	switch {
	case style == styles.AutoStyle && !isTerminal:
		opts = append(opts, glamour.WithStandardStyle(styles.NoTTYStyle))
	case style == styles.AutoStyle:
		opts = append(opts, glamour.WithAutoStyle())
	case styles.DefaultStyles[style] != nil:
		opts = append(opts, glamour.WithStandardStyle(style))
	default:
		path, err := homedir.Expand(style)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return "", fmt.Errorf("unable to stat file: %w", err)
		}
		opts = append(opts, glamour.WithStylePath(path))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(guide)
	if err != nil {
		return "", fmt.Errorf("unable to render guide: %w", err)
	}
	return out, nil
}

func init() {
	guideCmd.Flags().StringVarP(&guideStyle, "style", "s", styles.AutoStyle, "style name or JSON path")
	guideCmd.Flags().UintVarP(&guideWidth, "width", "w", 0, "word-wrap at width (0 to use the terminal width)")
}
