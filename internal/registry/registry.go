// Package registry maps container formats to their parsers.
package registry

import (
	"context"
	"io"
	"log/slog"

	"github.com/simonhull/metaspector/internal/types"
)

// Options carries per-call settings from the public API down to a parser.
type Options struct {
	// Logger receives debug records for swallowed box/block/frame failures.
	Logger *slog.Logger

	// DetectAtmos reads the first E-AC-3 sample to look for the Atmos marker.
	DetectAtmos bool

	// ScanSEI reads the first video sample for HDR SEI messages when
	// the sample entry carries no colour information.
	ScanSEI bool
}

// Log returns the configured logger, or a discarding one.
func (o Options) Log() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// FormatParser is the interface all format parsers implement.
type FormatParser interface {
	// Parse extracts metadata and tracks from a source.
	Parse(ctx context.Context, r io.ReaderAt, size int64, path string, opts Options) (*types.Result, error)
}

// CoverArtExtractor is an optional interface for parsers that can return embedded artwork.
type CoverArtExtractor interface {
	// CoverArt returns the raw image bytes, or nil when the source has none.
	CoverArt(ctx context.Context, r io.ReaderAt, size int64, path string, opts Options) ([]byte, error)
}

// parsers maps formats to their parsers.
var parsers = make(map[types.Format]FormatParser)

// Register registers a parser for a format.
// This is called by format packages during initialization (init functions).
func Register(format types.Format, parser FormatParser) {
	parsers[format] = parser
}

// Get returns the parser for a given format.
// Returns nil if no parser is registered for the format.
func Get(format types.Format) FormatParser {
	return parsers[format]
}
