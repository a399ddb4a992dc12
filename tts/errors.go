package tts

import (
	"errors"
	"time"
)

// Common errors for the speech system.
var (
	// Engine errors
	ErrEngineUnavailable = errors.New("speech engine is not available")
	ErrUtterance         = errors.New("utterance failed")
	ErrInterrupted       = errors.New("utterance interrupted")
	ErrEngineBusy        = errors.New("speech engine is already speaking")
	ErrUnknownEngine     = errors.New("unknown speech engine")

	// Task errors
	ErrInvalidTask = errors.New("invalid speech task")
	ErrQueueEmpty  = errors.New("playback queue is empty")

	// Audio errors
	ErrInvalidAudioFormat = errors.New("invalid audio format")
	ErrSampleRate         = errors.New("sample rate mismatch")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// IsRecoverableError checks if an error is recoverable.
// Only a missing engine or a broken configuration stops the caller; everything
// else affects a single task.
func IsRecoverableError(err error) bool {
	if err == nil {
		return true
	}
	switch {
	case errors.Is(err, ErrEngineUnavailable),
		errors.Is(err, ErrUnknownEngine),
		errors.Is(err, ErrInvalidConfig):
		return false
	}
	return true
}

// ErrorSeverity represents the severity of an error.
type ErrorSeverity int

const (
	// SeverityInfo is for informational messages.
	SeverityInfo ErrorSeverity = iota
	// SeverityWarning is for warnings that don't prevent operation.
	SeverityWarning
	// SeverityError is for errors that prevent normal operation.
	SeverityError
)

// String returns the string representation of the severity.
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// SpeechError provides detailed error information.
type SpeechError struct {
	Err       error                  // The underlying error
	Component string                 // Component that generated the error
	Action    string                 // Action being performed when error occurred
	Severity  ErrorSeverity          // Severity of the error
	Timestamp time.Time              // When the error occurred
	Context   map[string]interface{} // Additional context
}

// Error implements the error interface.
func (e *SpeechError) Error() string {
	if e.Err == nil {
		return "unknown speech error"
	}
	if e.Component == "" {
		return e.Err.Error()
	}
	return e.Component + ": " + e.Action + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *SpeechError) Unwrap() error {
	return e.Err
}

// IsRecoverable checks if the error is recoverable.
func (e *SpeechError) IsRecoverable() bool {
	return IsRecoverableError(e.Err)
}

// NewSpeechError creates a new speech error with context.
func NewSpeechError(err error, component, action string) *SpeechError {
	return &SpeechError{
		Err:       err,
		Component: component,
		Action:    action,
		Severity:  SeverityError,
		Timestamp: time.Now(),
		Context:   make(map[string]interface{}),
	}
}

// WithSeverity sets the error severity.
func (e *SpeechError) WithSeverity(severity ErrorSeverity) *SpeechError {
	e.Severity = severity
	return e
}

// WithContext adds context to the error.
func (e *SpeechError) WithContext(key string, value interface{}) *SpeechError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}
