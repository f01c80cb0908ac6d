// Package imaging sniffs embedded cover-art images: format, MIME type and pixel dimensions.
package imaging

import (
	"bytes"
	"fmt"
)

var (
	jpegSOI = []byte{0xFF, 0xD8, 0xFF}
	jpegEOI = []byte{0xFF, 0xD9}
	pngSig  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	pngIEND = []byte("IEND")
)

// DetectMIME detects the image MIME type from magic bytes.
// Returns "" when the data is not a recognized image.
func DetectMIME(data []byte) string {
	if len(data) < 4 {
		return ""
	}

	switch {
	case bytes.HasPrefix(data, jpegSOI):
		return "image/jpeg"
	case bytes.HasPrefix(data, pngSig[:4]):
		return "image/png"
	case bytes.HasPrefix(data, []byte("GIF")):
		return "image/gif"
	case data[0] == 'B' && data[1] == 'M':
		return "image/bmp"
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp"
	}
	return ""
}

// Extension returns the file extension for an image, based on its magic bytes.
func Extension(data []byte) string {
	switch DetectMIME(data) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/bmp":
		return ".bmp"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// Dimensions extracts width and height from JPEG or PNG data.
func Dimensions(data []byte) (width, height int, ok bool) {
	switch DetectMIME(data) {
	case "image/jpeg":
		return jpegDimensions(data)
	case "image/png":
		return pngDimensions(data)
	}
	return 0, 0, false
}

// FormatDimensions renders dimensions as "WxH", or "" when unknown.
func FormatDimensions(data []byte) string {
	w, h, ok := Dimensions(data)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%dx%d", w, h)
}

// jpegDimensions walks JPEG markers to the first SOF0-SOF3 segment.
func jpegDimensions(data []byte) (int, int, bool) {
	for i := 2; i+9 <= len(data); {
		if data[i] != 0xFF {
			i++
			continue
		}
		marker := data[i+1]
		switch {
		case marker >= 0xC0 && marker <= 0xC3:
			// FF Cn [2 length] [1 precision] [2 height] [2 width]
			height := int(data[i+5])<<8 | int(data[i+6])
			width := int(data[i+7])<<8 | int(data[i+8])
			return width, height, true
		case marker == 0xFF || marker == 0x00 || (marker >= 0xD0 && marker <= 0xD9):
			i++
		default:
			segLen := int(data[i+2])<<8 | int(data[i+3])
			if segLen < 2 {
				return 0, 0, false
			}
			i += 2 + segLen
		}
	}
	return 0, 0, false
}

// pngDimensions reads the IHDR chunk: [8 signature] [4 len] [4 "IHDR"] [4 width] [4 height].
func pngDimensions(data []byte) (int, int, bool) {
	if len(data) < 24 || !bytes.HasPrefix(data, pngSig) || string(data[12:16]) != "IHDR" {
		return 0, 0, false
	}
	width := int(data[16])<<24 | int(data[17])<<16 | int(data[18])<<8 | int(data[19])
	height := int(data[20])<<24 | int(data[21])<<16 | int(data[22])<<8 | int(data[23])
	return width, height, true
}

// FindStart returns the index of the first JPEG SOI or PNG signature in data, or -1.
func FindStart(data []byte) int {
	j := bytes.Index(data, jpegSOI)
	p := bytes.Index(data, pngSig)
	switch {
	case j < 0:
		return p
	case p < 0:
		return j
	case p < j:
		return p
	default:
		return j
	}
}

// Trim cuts data that starts with an image at the end of that image
// (first JPEG EOI or the PNG IEND chunk). Data without a terminator is returned as is.
func Trim(data []byte) []byte {
	switch DetectMIME(data) {
	case "image/jpeg":
		if end := bytes.Index(data[2:], jpegEOI); end >= 0 {
			return data[:end+2+len(jpegEOI)]
		}
	case "image/png":
		// IEND is followed by its 4-byte CRC.
		if end := bytes.Index(data, pngIEND); end > 0 && end+8 <= len(data) {
			return data[:end+8]
		}
	}
	return data
}
