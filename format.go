package metaspector

import (
	"io"

	"github.com/simonhull/metaspector/internal/types"
)

// Format identifies a container format.
type Format = types.Format

// Supported formats.
const (
	FormatUnknown = types.FormatUnknown
	FormatMP4     = types.FormatMP4
	FormatFLAC    = types.FormatFLAC
	FormatMP3     = types.FormatMP3
)

// DetectFormat identifies the container of r from its leading bytes.
// path is used in error messages only.
func DetectFormat(r io.ReaderAt, size int64, path string) (Format, error) {
	return types.DetectFormat(r, size, path)
}
