package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySession is returned when saving a session with no messages.
	ErrEmptySession = errors.New("session has no messages")

	// ErrNotFound is returned when a saved conversation does not exist.
	ErrNotFound = errors.New("conversation not found")

	// ErrParse is returned when a saved conversation cannot be decoded.
	ErrParse = errors.New("conversation record is not valid")

	ErrMissingAttachment = errors.New("no image uploaded")
	ErrEmptyAttachment   = errors.New("no image selected")
)

// GenerationError wraps any failure from the generation client: network,
// quota, or a malformed reply. The user's message stays in the transcript
// so the turn can be retried or edited.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
