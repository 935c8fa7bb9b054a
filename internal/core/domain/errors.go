package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrEmptyInput  = errors.New("empty input")
	ErrEmptyPrompt = errors.New("prompt is empty")
	ErrInvalidRow  = errors.New("invalid catalog row")
	ErrTransient   = errors.New("transient backend failure")
	ErrUnavailable = errors.New("retrieval source unavailable")
)

// ValidationError reports a catalog row that cannot be turned into a song.
type ValidationError struct {
	Row    int
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidRow
}

// EncodingError reports text that normalizes to nothing.
type EncodingError struct {
	Text string
}

func (e EncodingError) Error() string {
	return fmt.Sprintf("cannot encode %q: %s", e.Text, ErrEmptyInput)
}

func (e EncodingError) Is(target error) bool {
	return target == ErrEmptyInput
}

// BackendErrorKind classifies a retryable backend failure.
type BackendErrorKind int

const (
	KindUnavailable BackendErrorKind = iota
	KindRateLimited
	KindModelLoading
)

func (k BackendErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindModelLoading:
		return "model_loading"
	default:
		return "unavailable"
	}
}

// TransientBackendError wraps a failure that may succeed on a later attempt.
type TransientBackendError struct {
	Kind BackendErrorKind
	Err  error
}

func (e *TransientBackendError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("transient backend failure (%s)", e.Kind)
	}
	return fmt.Sprintf("transient backend failure (%s): %v", e.Kind, e.Err)
}

func (e *TransientBackendError) Unwrap() error { return e.Err }

func (e *TransientBackendError) Is(target error) bool {
	return target == ErrTransient
}

// RetrievalUnavailableError reports that a retrieval source could not answer.
type RetrievalUnavailableError struct {
	Source Source
	Err    error
}

func (e *RetrievalUnavailableError) Error() string {
	return fmt.Sprintf("%s retrieval unavailable: %v", e.Source, e.Err)
}

func (e *RetrievalUnavailableError) Unwrap() error { return e.Err }

func (e *RetrievalUnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}
