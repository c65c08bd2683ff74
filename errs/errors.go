// Package errs defines the error taxonomy shared by the conversion pipeline.
//
// Every typed error matches its sentinel through errors.Is and unwraps to
// the underlying cause when one exists, so callers can test either the
// category or the root failure.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for each failure category.
var (
	// ErrSchema indicates the spreadsheet lacks the required columns.
	ErrSchema = errors.New("schema error")
	// ErrEmptyMapping indicates the spreadsheet produced no usable pairs.
	ErrEmptyMapping = errors.New("empty mapping")
	// ErrLoad indicates an input file is missing or corrupt.
	ErrLoad = errors.New("load error")
	// ErrImageInsert indicates a single image could not be placed.
	ErrImageInsert = errors.New("image insert error")
	// ErrSerialize indicates the output document could not be written.
	ErrSerialize = errors.New("serialize error")
	// ErrLimit indicates a configured usage limit was exceeded.
	ErrLimit = errors.New("limit exceeded")
)

// SchemaError reports the required columns that could not be found.
type SchemaError struct {
	Missing []string // Required column descriptions that were absent
	Columns []string // Normalized column names that were present
}

func (e *SchemaError) Error() string {
	msg := "spreadsheet must contain 'Start Word' and 'End Word' columns"
	if len(e.Missing) > 0 {
		msg += fmt.Sprintf(" (missing: %s)", strings.Join(e.Missing, ", "))
	}
	if len(e.Columns) > 0 {
		msg += fmt.Sprintf("; found columns: %s", strings.Join(e.Columns, ", "))
	}
	return msg
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// EmptyMappingError reports a source that yielded zero valid pairs.
type EmptyMappingError struct {
	Source string // Path of the spreadsheet
}

func (e *EmptyMappingError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("no valid replacement pairs found in %s", e.Source)
	}
	return "no valid replacement pairs found"
}

func (e *EmptyMappingError) Unwrap() error { return ErrEmptyMapping }

// LoadError reports an input that could not be opened or parsed.
type LoadError struct {
	Kind string // "template", "spreadsheet", "image", "presentation"
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "file"
	}
	if e.Err != nil {
		return fmt.Sprintf("failed to load %s %s: %v", kind, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to load %s %s", kind, e.Path)
}

func (e *LoadError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrLoad
}

// Is reports whether target is the load sentinel.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// ImageInsertError reports a marker whose image could not be placed.
type ImageInsertError struct {
	Marker string
	Path   string
	Err    error
}

func (e *ImageInsertError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to insert image %s for marker %q: %v", e.Path, e.Marker, e.Err)
	}
	return fmt.Sprintf("failed to insert image %s for marker %q", e.Path, e.Marker)
}

func (e *ImageInsertError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrImageInsert
}

// Is reports whether target is the image insert sentinel.
func (e *ImageInsertError) Is(target error) bool { return target == ErrImageInsert }

// SerializeError reports an output document that could not be written.
type SerializeError struct {
	Path string
	Err  error
}

func (e *SerializeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to write %s", e.Path)
}

func (e *SerializeError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrSerialize
}

// Is reports whether target is the serialize sentinel.
func (e *SerializeError) Is(target error) bool { return target == ErrSerialize }

// LimitError reports a count that exceeds a configured maximum.
type LimitError struct {
	Limit  string // "pairs" or "slides"
	Max    int
	Actual int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s limit exceeded: %d > %d", e.Limit, e.Actual, e.Max)
}

func (e *LimitError) Unwrap() error { return ErrLimit }

// Load wraps err as a LoadError of the given kind.
func Load(kind, path string, err error) error {
	return &LoadError{Kind: kind, Path: path, Err: err}
}

// Serialize wraps err as a SerializeError.
func Serialize(path string, err error) error {
	return &SerializeError{Path: path, Err: err}
}

// ImageInsert wraps err as an ImageInsertError.
func ImageInsert(marker, path string, err error) error {
	return &ImageInsertError{Marker: marker, Path: path, Err: err}
}
