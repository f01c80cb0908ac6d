package metaspector

import (
	"github.com/simonhull/metaspector/internal/source"
	"github.com/simonhull/metaspector/internal/types"
)

// OutOfBoundsError reports a read past the end of a source.
type OutOfBoundsError = types.OutOfBoundsError

// UnsupportedFormatError reports a source that is not MP4, FLAC or MP3.
type UnsupportedFormatError = types.UnsupportedFormatError

// CorruptedFileError reports a source whose format was recognised but whose
// structure cannot be parsed at all.
type CorruptedFileError = types.CorruptedFileError

// InvalidSectionError reports an unknown output section name.
type InvalidSectionError = types.InvalidSectionError

// FetchError reports a failed range request against a remote source.
type FetchError = types.FetchError

// Warning is a non-fatal issue recorded while parsing.
type Warning = types.Warning

// ErrFetchLimit is wrapped by the FetchError returned once a remote source
// has used its request budget. See WithMaxRemoteFetches.
var ErrFetchLimit = source.ErrFetchLimit
