package walker

import (
	"errors"
	"fmt"
	"io/fs"
)

type ErrorKind string

const (
	NotFound         ErrorKind = "not_found"
	PermissionDenied ErrorKind = "permission_denied"
	MutationFailed   ErrorKind = "mutation_failed"
	IOError          ErrorKind = "io_error"
)

// ErrNotDirectory is wrapped when a root path exists but is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// EntryError ties a filesystem failure to the path that produced it.
type EntryError struct {
	Path string
	Kind ErrorKind
	Err  error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Classify maps a filesystem error onto the error taxonomy. Errors that are
// neither missing paths nor permission problems are reported as io_error.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, ErrNotDirectory):
		return NotFound
	case errors.Is(err, fs.ErrPermission):
		return PermissionDenied
	default:
		return IOError
	}
}

func newEntryError(path string, err error) *EntryError {
	return &EntryError{Path: path, Kind: Classify(err), Err: err}
}
