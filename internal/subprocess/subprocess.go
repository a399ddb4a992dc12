// Package subprocess runs speech synthesizer binaries.
package subprocess

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
)

// ErrNotFound is returned when a binary cannot be located.
var ErrNotFound = errors.New("binary not found")

// Runner executes a command with text on stdin and returns its stdout.
type Runner interface {
	Run(ctx context.Context, input string, name string, args ...string) ([]byte, error)
}

// Manager handles subprocess execution for synthesizers.
// Stdin is attached before the process starts.
type Manager struct {
	defaultTimeout time.Duration
}

var _ Runner = (*Manager)(nil)

// NewManager creates a new subprocess manager.
func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Manager{defaultTimeout: timeout}
}

// Run executes name with input on stdin. A timeout is applied unless ctx
// already carries a deadline.
func (m *Manager) Run(ctx context.Context, input string, name string, args ...string) ([]byte, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.defaultTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", filepath.Base(name), err)
	}
	err := cmd.Wait()

	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s timed out: %w", filepath.Base(name), ctx.Err())
		}
		return nil, fmt.Errorf("%s cancelled: %w", filepath.Base(name), ctx.Err())
	}

	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s failed: %w\nstderr: %s", filepath.Base(name), err, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", filepath.Base(name), err)
	}

	return stdout.Bytes(), nil
}

// Find returns the first candidate that resolves to an executable. A
// candidate may be a bare name looked up in PATH, or a path starting
// with "~".
func Find(candidates ...string) (string, error) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		expanded, err := homedir.Expand(c)
		if err != nil {
			continue
		}
		if path, err := exec.LookPath(expanded); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrNotFound, strings.Join(candidates, ", "))
}

// UserBinCandidates returns the usual per-user install locations of name.
func UserBinCandidates(name string) []string {
	out := []string{name, "./" + name, "/usr/local/bin/" + name, "/usr/bin/" + name}
	if home, err := os.UserHomeDir(); err == nil {
		out = append(out,
			filepath.Join(home, ".local", "bin", name),
			filepath.Join(home, "bin", name),
		)
	}
	return out
}
