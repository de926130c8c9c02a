package session

import (
	"errors"
	"fmt"

	"hubview/internal/classify"
)

var (
	// ErrSuperseded marks a fetch result that lost the race against a
	// newer selection. The session state was not touched.
	ErrSuperseded = errors.New("fetch result superseded by a newer selection")

	ErrNoSelection    = errors.New("no file selected")
	ErrNotEditing     = errors.New("no edit session in progress")
	ErrEmptyMessage   = errors.New("commit message must not be empty")
	ErrNoBaseRevision = errors.New("commit requires a revision token from an edit fetch")
)

// FetchError wraps an upstream read failure. The underlying error
// carries the upstream body verbatim when it is an API error.
type FetchError struct {
	Path string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Path, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NotEditableError signals an edit attempt on content that is not
// text. The session stays in preview mode.
type NotEditableError struct {
	Path string
	Kind classify.Kind
}

func (e *NotEditableError) Error() string {
	return fmt.Sprintf("%s is %s content and cannot be edited", e.Path, e.Kind)
}

// CommitError wraps a rejected write. The edit state is preserved so
// the caller can retry with the draft intact.
type CommitError struct {
	Path string
	Err  error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("failed to commit %s: %v", e.Path, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
