package ingest

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the ingestor. Callers can test for them
// with errors.Is.
var (
	// ErrUnsupportedFormat means the file extension is not one of the
	// supported set.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyFile means the file has no content to read.
	ErrEmptyFile = errors.New("file is empty")
)

// ParseError wraps a failure while parsing file content. Read errors
// and malformed spreadsheet structures surface through it so callers
// can distinguish parse failures from lookup failures.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
