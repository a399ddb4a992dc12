package main

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
)

func getLogFilePath() (string, error) {
	dir, err := gap.NewScope(gap.User, "learnlink").CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "learnlink.log"), nil
}

// setupLog sends log output to a file in the user cache directory so it
// never mixes with command output or the TUI. Warnings and errors are
// recorded by default; --debug lowers the level.
func setupLog() (func() error, error) {
	logFile, err := getLogFilePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		// log disabled
		log.SetOutput(os.Stderr)
		log.SetLevel(log.ErrorLevel)
		return func() error { return nil }, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.ErrorLevel)
		return func() error { return nil }, nil
	}
	log.SetOutput(f)
	log.SetReportTimestamp(true)
	log.SetLevel(log.WarnLevel)
	return f.Close, nil
}
