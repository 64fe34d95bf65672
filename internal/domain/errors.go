package domain

import (
	"errors"
	"fmt"
)

// Failure categories of the intake and chat pipeline.
var (
	ErrDecode                = errors.New("document could not be decoded")
	ErrUnsupportedFormat     = errors.New("unsupported document format")
	ErrComposition           = errors.New("no page could be rasterized")
	ErrEmptyResponse         = errors.New("extraction returned no content")
	ErrMalformedExtraction   = errors.New("extraction response is not a valid care plan")
	ErrNormalization         = errors.New("care plan violates the extraction contract")
	ErrCapabilityUnavailable = errors.New("extraction capability unavailable")
	ErrChatUnavailable       = errors.New("assistant is unavailable")
	ErrTimeout               = errors.New("operation timed out")
)

// Request and session errors.
var (
	ErrFileTooLarge          = errors.New("file exceeds maximum allowed size")
	ErrEmptyDocument         = errors.New("document is empty")
	ErrInvalidConversation   = errors.New("invalid conversation history")
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionBusy           = errors.New("session has a request in flight")
	ErrTooManySessions       = errors.New("session limit reached")
	ErrNoCarePlan            = errors.New("session has no care plan yet")
	ErrInvalidCheckIn        = errors.New("invalid adherence check-in")
	ErrEventQueueFull        = errors.New("session event queue is full")
	ErrUnsupportedExportType = errors.New("unsupported export format")
)

// PipelineError carries a failure category together with context about the
// failing step. Raw holds the model's unparseable text for malformed
// extractions; it is diagnostic only.
type PipelineError struct {
	Kind    error
	Message string
	Raw     string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes both the category and the cause to errors.Is / errors.As.
func (e *PipelineError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newPipelineError(kind error, msg string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Message: msg, Err: err}
}

func DecodeError(msg string, err error) *PipelineError {
	return newPipelineError(ErrDecode, msg, err)
}

func UnsupportedFormatError(mediaType string) *PipelineError {
	return newPipelineError(ErrUnsupportedFormat, "detected "+mediaType, nil)
}

func CompositionError(msg string, err error) *PipelineError {
	return newPipelineError(ErrComposition, msg, err)
}

func EmptyResponseError(msg string) *PipelineError {
	return newPipelineError(ErrEmptyResponse, msg, nil)
}

// MalformedExtractionError keeps the raw response for diagnosis.
func MalformedExtractionError(raw string, err error) *PipelineError {
	e := newPipelineError(ErrMalformedExtraction, "response is not a JSON care plan", err)
	e.Raw = raw
	return e
}

func NormalizationError(msg string) *PipelineError {
	return newPipelineError(ErrNormalization, msg, nil)
}

func CapabilityUnavailableError(msg string, err error) *PipelineError {
	return newPipelineError(ErrCapabilityUnavailable, msg, err)
}

func ChatUnavailableError(msg string, err error) *PipelineError {
	return newPipelineError(ErrChatUnavailable, msg, err)
}

func TimeoutError(msg string, err error) *PipelineError {
	return newPipelineError(ErrTimeout, msg, err)
}

// RawResponse returns the raw model text attached to err, if any.
func RawResponse(err error) (string, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) && pe.Raw != "" {
		return pe.Raw, true
	}
	return "", false
}
