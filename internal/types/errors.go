package types

import (
	"fmt"
	"strings"
)

// OutOfBoundsError is returned when attempting to read beyond source bounds.
type OutOfBoundsError struct {
	Path   string
	What   string
	Offset int64
	Length int
	Size   int64
}

func (e *OutOfBoundsError) Error() string {
	if e.Offset >= e.Size {
		return fmt.Sprintf("%s: offset %d out of bounds (size: %d) while reading %s",
			e.Path, e.Offset, e.Size, e.What)
	}
	return fmt.Sprintf("%s: read of %d bytes at offset %d would exceed size %d while reading %s",
		e.Path, e.Length, e.Offset, e.Size, e.What)
}

// UnsupportedFormatError is returned when the source matches none of the known signatures.
type UnsupportedFormatError struct {
	Path   string
	Reason string
	Prefix []byte // first bytes of the source, for diagnostics
}

func (e *UnsupportedFormatError) Error() string {
	if len(e.Prefix) > 0 {
		return fmt.Sprintf("%s: unsupported format: %s (initial bytes % x)", e.Path, e.Reason, e.Prefix)
	}
	return fmt.Sprintf("%s: unsupported format: %s", e.Path, e.Reason)
}

// CorruptedFileError is returned when file structure is invalid.
type CorruptedFileError struct {
	Path   string
	Reason string
	Offset int64
}

func (e *CorruptedFileError) Error() string {
	return fmt.Sprintf("%s: corrupted file at offset %d: %s", e.Path, e.Offset, e.Reason)
}

// InvalidSectionError is returned when a result is narrowed to an unknown section.
type InvalidSectionError struct {
	Section string
}

func (e *InvalidSectionError) Error() string {
	names := make([]string, len(Sections))
	for i, s := range Sections {
		names[i] = string(s)
	}
	return fmt.Sprintf("invalid section %q, available sections are: %s", e.Section, strings.Join(names, ", "))
}

// FetchError is returned when a remote range request fails.
type FetchError struct {
	URL        string
	Offset     int64
	Length     int64
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s [%d+%d]: %v", e.URL, e.Offset, e.Length, e.Err)
	}
	return fmt.Sprintf("fetch %s [%d+%d]: unexpected status %d", e.URL, e.Offset, e.Length, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Warning represents a non-fatal issue encountered during parsing.
//
// Warnings indicate problems that don't prevent metadata extraction but
// may indicate truncated or unusual data. Examples include:
//   - A box whose declared size exceeds its parent
//   - A codec configuration record that ends mid-field
//   - A text frame with an invalid encoding byte
//
// Warnings are collected in Result.Warnings during parsing.
type Warning struct {
	// Stage where the warning occurred
	Stage string // "container", "metadata", "audio", "video", "subtitle", "artwork"

	// Warning message
	Message string

	// Source offset where the issue occurred (0 if not applicable)
	Offset int64
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d): %s", w.Stage, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}
