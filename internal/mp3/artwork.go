package mp3

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/imaging"
)

var (
	errAPICTooShort    = errors.New("APIC frame too short")
	errAPICNoMIMETerm  = errors.New("APIC MIME type not null-terminated")
	errAPICTruncated   = errors.New("APIC frame truncated after MIME type")
	errAPICNoImageData = errors.New("APIC frame has no image data")
)

// scanChunkSize is the read size of the embedded image scan.
const scanChunkSize = 64 * 1024

// apic is a decoded attached picture.
type apic struct {
	mime        string
	pictureType byte
	description string
	data        []byte
}

// parseAPIC parses an attached picture frame.
// Format:
//
//	[1 byte]              Text encoding
//	[null-terminated]     MIME type (v2.2: 3-byte image format)
//	[1 byte]              Picture type
//	[null-terminated]     Description
//	[remaining]           Picture data
func parseAPIC(data []byte, v22 bool) (*apic, error) {
	if len(data) < 4 {
		return nil, errAPICTooShort
	}

	enc := data[0]
	pos := 1
	pic := &apic{}

	if v22 {
		pic.mime = legacyMIME(string(data[1:4]))
		pos = 4
	} else {
		// MIME type is always ISO-8859-1
		mimeEnd := bytes.IndexByte(data[pos:], 0)
		if mimeEnd < 0 {
			return nil, errAPICNoMIMETerm
		}
		pic.mime = legacyMIME(latin1(data[pos : pos+mimeEnd]))
		pos += mimeEnd + 1
	}

	if pos >= len(data) {
		return nil, errAPICTruncated
	}
	pic.pictureType = data[pos]
	pos++

	// Some encoders leave the description unterminated; the rest is then image data.
	if desc, rest, ok := splitTerminated(data[pos:], enc); ok {
		pic.description = decodeText(desc, enc)
		pos = len(data) - len(rest)
	}
	if pos >= len(data) {
		return nil, errAPICNoImageData
	}
	pic.data = data[pos:]

	if pic.mime == "" || pic.mime == "-->" {
		pic.mime = imaging.DetectMIME(pic.data)
	}
	return pic, nil
}

// legacyMIME expands bare image formats ("JPG", "png") to MIME types.
func legacyMIME(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	}
	return s
}

// scanForImage searches [start, end) for a JPEG SOI or PNG signature and
// returns its offset, or -1. Chunks overlap so that a signature spanning a
// chunk boundary is found.
func scanForImage(ctx context.Context, sr *binary.SafeReader, start, end int64) (int64, error) {
	const overlap = 7 // len(PNG signature) - 1
	for pos := start; pos < end; pos += scanChunkSize - overlap {
		if err := ctx.Err(); err != nil {
			return -1, err
		}
		n := min(int64(scanChunkSize), end-pos)
		chunk, err := sr.Slice(pos, n, "image scan")
		if err != nil {
			return -1, err
		}
		if i := imaging.FindStart(chunk); i >= 0 {
			return pos + int64(i), nil
		}
		if pos+n >= end {
			break
		}
	}
	return -1, nil
}
