package autosave

import (
	"errors"
	"fmt"
)

// ErrWriteFailed matches every *WriteError.
var ErrWriteFailed = errors.New("autosave: write failed")

// WriteError reports a flush the persistence service rejected. It carries
// the payload so callers can retry a note that is no longer active.
type WriteError struct {
	NoteID  int64
	Title   string
	Content string
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("autosave: write note %d: %v", e.NoteID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool { return target == ErrWriteFailed }
