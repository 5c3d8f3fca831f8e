package dataset

import (
	"errors"
	"fmt"
)

// Sentinel causes wrapped by LoadError.
var (
	ErrNotArray     = errors.New("dataset is not a JSON array")
	ErrMissingField = errors.New("missing required field")
	ErrOutOfRange   = errors.New("value out of range")
)

// LoadError reports why a dataset source could not be loaded.
type LoadError struct {
	Op    string // open | read | decode | validate
	Path  string // empty when loading from a reader
	Index int    // record index, meaningful for Op == "validate"
	Err   error
}

func (e *LoadError) Error() string {
	src := e.Path
	if src == "" {
		src = "<reader>"
	}
	if e.Op == "validate" {
		return fmt.Sprintf("dataset: %s %s: record %d: %v", e.Op, src, e.Index, e.Err)
	}
	return fmt.Sprintf("dataset: %s %s: %v", e.Op, src, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
