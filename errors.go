package polyglot

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSessionNotStarted is returned when a job is submitted before a session exists.
	ErrSessionNotStarted = errors.New("session not started")

	// ErrEmptyInput is returned when the input text is blank.
	ErrEmptyInput = errors.New("please enter some text")

	// ErrNoTargets is returned when a translation has no target languages.
	ErrNoTargets = errors.New("please select at least one target language")

	// ErrNoSelection is returned when an analysis is requested without a selection.
	ErrNoSelection = errors.New("please select some text to analyze")

	// ErrNotConfirmed is returned when the user declines the validation warnings.
	ErrNotConfirmed = errors.New("cancelled by user")

	// ErrClientClosed is returned when a closed client is asked to submit.
	ErrClientClosed = errors.New("client closed")
)

// ValidationError blocks a submission. Field names the offending input.
type ValidationError struct {
	Field    string
	Warnings []string
	Cause    error
}

func (e *ValidationError) Error() string {
	msg := "invalid " + e.Field
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if len(e.Warnings) > 0 {
		msg += ": " + strings.Join(e.Warnings, " ")
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// SubmissionError indicates a job could not be submitted, either because the
// request failed or because the server reported an error.
type SubmissionError struct {
	Kind    JobKind
	Message string
	Cause   error
}

func (e *SubmissionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s submission failed: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s submission failed: %s", e.Kind, e.Message)
}

func (e *SubmissionError) Unwrap() error {
	return e.Cause
}

// JobError is a server-reported failure of an accepted job ({success:false}).
type JobError struct {
	Kind      JobKind
	RequestID string
	Message   string
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Kind, e.Message)
}

// PollTimeoutError indicates the attempt budget ran out, or the result
// endpoint answered with a shape the poller does not recognize.
type PollTimeoutError struct {
	Kind         JobKind
	RequestID    string
	Attempts     int
	Unrecognized bool
}

func (e *PollTimeoutError) Error() string {
	if e.Unrecognized {
		return fmt.Sprintf("%s timeout or error: unrecognized result after %d attempts", e.Kind, e.Attempts)
	}
	return fmt.Sprintf("%s timeout or error: no result after %d attempts", e.Kind, e.Attempts)
}

// PollNetworkError indicates the result endpoint kept failing until the
// attempt budget ran out.
type PollNetworkError struct {
	Kind      JobKind
	RequestID string
	Attempts  int
	Cause     error
}

func (e *PollNetworkError) Error() string {
	return fmt.Sprintf("%s polling error after %d attempts: %v", e.Kind, e.Attempts, e.Cause)
}

func (e *PollNetworkError) Unwrap() error {
	return e.Cause
}

// PlaybackError reports an audio failure after a successful speech job.
// It never changes the job outcome.
type PlaybackError struct {
	URL   string
	Cause error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("error playing audio: %v", e.Cause)
}

func (e *PlaybackError) Unwrap() error {
	return e.Cause
}

// CacheError indicates a result cache operation failure.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// SessionError indicates the backend did not issue a session.
type SessionError struct {
	Message string
	Cause   error
}

func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to start session: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to start session: %s", e.Message)
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

// RenderError indicates a result payload could not be rendered.
type RenderError struct {
	Message     string
	Cause       error
	ContentType string // The payload being rendered
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error (%s): %s: %v", e.ContentType, e.Message, e.Cause)
	}
	return fmt.Sprintf("render error (%s): %s", e.ContentType, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
