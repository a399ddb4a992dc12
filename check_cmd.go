package main

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/learnlink/learnlink/tts/engines"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))

	// Guidance holds commands and URLs that must not be wrapped.
	guidanceStyle = lipgloss.NewStyle().PaddingLeft(2)

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Check that the configured speech engines are ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadSpeechConfig()
			if err != nil {
				return err
			}

			ready := true
			for _, r := range engines.CheckAll(cmd.Context(), cfg) {
				printCheck(r)
				ready = ready && r.Available
			}
			if !ready {
				return errors.New("some speech engines are not ready")
			}
			return nil
		},
	}
)

func printCheck(r *engines.CheckResult) {
	mark := okStyle.Render("✓")
	if !r.Available {
		mark = failStyle.Render("✗")
	}
	fmt.Printf("%s %s\n", mark, keyword(r.Engine))

	for _, k := range slices.Sorted(maps.Keys(r.Details)) {
		fmt.Printf("  %s %s\n", dimStyle.Render(k+":"), r.Details[k])
	}
	if r.Err != nil {
		fmt.Printf("  %s %v\n", failStyle.Render("error:"), r.Err)
	}
	if r.Guidance != "" {
		fmt.Println()
		fmt.Println(guidanceStyle.Render(r.Guidance))
	}
	fmt.Println()
}
