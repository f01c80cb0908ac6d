package types

import (
	"bytes"
	"io"

	"github.com/simonhull/metaspector/internal/binary"
)

// Format represents the detected container format.
type Format int

const (
	// FormatUnknown represents an unknown or unsupported format.
	FormatUnknown Format = iota
	// FormatMP4 represents ISO base media files (MP4, M4A, M4V, MOV).
	FormatMP4
	// FormatFLAC represents native FLAC streams.
	FormatFLAC
	// FormatMP3 represents MPEG audio, with or without an ID3v2 tag.
	FormatMP3
)

func (f Format) String() string {
	switch f {
	case FormatMP4:
		return "MP4"
	case FormatFLAC:
		return "FLAC"
	case FormatMP3:
		return "MP3"
	default:
		return "Unknown"
	}
}

// Extensions returns common file extensions for this format.
func (f Format) Extensions() []string {
	switch f {
	case FormatMP4:
		return []string{".mp4", ".m4a", ".m4v", ".m4b", ".mov"}
	case FormatFLAC:
		return []string{".flac"}
	case FormatMP3:
		return []string{".mp3"}
	default:
		return nil
	}
}

// sniffLen is how much of the source the sniffer inspects.
const sniffLen = 1024

// DetectFormat determines the container format by examining the signature prefix.
//
// Detection order: ID3v2 tag, MPEG frame sync, fLaC magic, then an ftyp box
// anywhere in the first 100 bytes (or moov/free/mdat/wide as the first box).
// Detection does not validate the rest of the structure.
func DetectFormat(r io.ReaderAt, size int64, path string) (Format, error) {
	if size < 4 {
		return FormatUnknown, &UnsupportedFormatError{
			Path:   path,
			Reason: "file too small",
		}
	}

	n := min(size, sniffLen)
	sr := binary.NewSafeReader(r, size, path)
	prefix, err := sr.Slice(0, n, "signature prefix")
	if err != nil {
		return FormatUnknown, &UnsupportedFormatError{
			Path:   path,
			Reason: "failed to read file header",
		}
	}

	if f := Sniff(prefix); f != FormatUnknown {
		return f, nil
	}

	return FormatUnknown, &UnsupportedFormatError{
		Path:   path,
		Reason: "no known media format signature",
		Prefix: prefix[:min(len(prefix), 20)],
	}
}

// Sniff classifies a signature prefix. It never fails; unknown input is FormatUnknown.
func Sniff(prefix []byte) Format {
	if len(prefix) < 4 {
		return FormatUnknown
	}

	switch {
	case bytes.HasPrefix(prefix, []byte("ID3")):
		return FormatMP3
	case prefix[0] == 0xFF && prefix[1]&0xE0 == 0xE0:
		return FormatMP3
	case bytes.HasPrefix(prefix, []byte("fLaC")):
		return FormatFLAC
	}

	if len(prefix) >= 8 {
		switch string(prefix[4:8]) {
		case "ftyp", "moov", "free", "mdat", "wide":
			return FormatMP4
		}
	}

	window := prefix[:min(len(prefix), 100)]
	if i := bytes.Index(window, []byte("ftyp")); i >= 4 {
		return FormatMP4
	}

	return FormatUnknown
}
