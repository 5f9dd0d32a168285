package editor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSubmitInProgress = errors.New("a submit is already in progress")
	ErrSessionClosed    = errors.New("editor session is closed")
	ErrNoAllocator      = errors.New("no image allocator configured")
	ErrImageNotInserted = errors.New("image cannot be placed at the selection")
)

// ContentTooShortError rejects a submit before anything is sent.
type ContentTooShortError struct {
	Length int
	Min    int
}

func (e *ContentTooShortError) Error() string {
	return fmt.Sprintf("content is too short: %d characters, at least %d required", e.Length, e.Min)
}

// UploadFailureError means the media upload failed. Nothing else was sent and
// the pending images are kept for the next attempt.
type UploadFailureError struct {
	Paths []string
	Err   error
}

func (e *UploadFailureError) Error() string {
	return fmt.Sprintf("upload of %s failed: %v", strings.Join(e.Paths, ", "), e.Err)
}

func (e *UploadFailureError) Unwrap() error {
	return e.Err
}

// SaveFailureError means the document itself could not be stored.
type SaveFailureError struct {
	Err error
}

func (e *SaveFailureError) Error() string {
	return fmt.Sprintf("save failed: %v", e.Err)
}

func (e *SaveFailureError) Unwrap() error {
	return e.Err
}
