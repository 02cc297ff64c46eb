package s25

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by this package matches exactly one of
// these with errors.Is; detail is attached by wrapping.
var (
	// ErrFileIO is returned when the archive file could not be read. The
	// error also matches the underlying os error (fs.ErrNotExist etc).
	ErrFileIO = errors.New("s25: file i/o error")

	// ErrInvalidArchive is returned when the header, directory or an
	// entry's encoded data is structurally inconsistent.
	ErrInvalidArchive = errors.New("s25: invalid archive")

	// ErrUnsupportedFileFormat is returned for data that is recognized but
	// not handled, such as incrementally encoded entries.
	ErrUnsupportedFileFormat = errors.New("s25: unsupported file format")

	// ErrNoEntry is returned when an entry index is outside
	// [0, TotalEntries()).
	ErrNoEntry = errors.New("s25: no such entry")

	// ErrAbsentEntry is returned for an in-range entry whose directory slot
	// is empty. Archives routinely leave variant slots unused.
	ErrAbsentEntry = errors.New("s25: entry absent from archive")

	// ErrClosed is returned when an archive is used after Close.
	ErrClosed = errors.New("s25: archive closed")
)

// fileError carries an os-level failure while still matching ErrFileIO.
type fileError struct {
	path string
	err  error
}

func (e *fileError) Error() string {
	return fmt.Sprintf("s25: could not read %q: %v", e.path, e.err)
}

func (e *fileError) Unwrap() error { return e.err }

func (e *fileError) Is(target error) bool { return target == ErrFileIO }
