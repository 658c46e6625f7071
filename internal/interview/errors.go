package interview

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat is returned by SubmitAnswer for an extension outside
	// the allow-list. It is checked before any I/O.
	ErrInvalidFormat = errors.New("invalid audio format")

	// ErrInvalidInput is returned by Start for a blank role or non-positive duration.
	ErrInvalidInput = errors.New("invalid interview parameters")
)

// ProviderError reports a failed completion or speech synthesis call.
// Provider failures are never retried.
type ProviderError struct {
	Provider string // "completion" or "tts"
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider failed during %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
