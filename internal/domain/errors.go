package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrCancelled     = errors.New("conversion cancelled")
	ErrNoArtifact    = errors.New("no artifact available")
	ErrUnknownTool   = errors.New("unknown tool")
	ErrInvalidFile   = errors.New("invalid file")
	ErrNoRunningJob  = errors.New("no running job")
	ErrEmptyDocument = errors.New("document has no pages")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// ParseError reports a malformed or unsupported PDF.
type ParseError struct {
	File string
	Page int
	Err  error
}

func (e *ParseError) Error() string {
	switch {
	case e.File != "" && e.Page > 0:
		return fmt.Sprintf("failed to parse %s (page %d): %v", e.File, e.Page, e.Err)
	case e.File != "":
		return fmt.Sprintf("failed to parse %s: %v", e.File, e.Err)
	case e.Page > 0:
		return fmt.Sprintf("failed to parse page %d: %v", e.Page, e.Err)
	default:
		return fmt.Sprintf("failed to parse PDF: %v", e.Err)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// EncodingError reports a failure in a downstream encoder.
type EncodingError struct {
	Stage string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// IsCancelled reports whether err is a user-initiated cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
