package mp3

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// ID3v2 text encodings
const (
	encodingLatin1  = 0
	encodingUTF16   = 1 // with BOM
	encodingUTF16BE = 2
	encodingUTF8    = 3
)

var (
	utf16BOM = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	utf16BE  = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
)

// decoderFor returns the decoder for an encoding byte, or nil for UTF-8.
func decoderFor(enc byte) encoding.Encoding {
	switch enc {
	case encodingLatin1:
		return charmap.ISO8859_1
	case encodingUTF16:
		return utf16BOM
	case encodingUTF16BE:
		return utf16BE
	}
	return nil
}

// decodeText decodes an ID3v2 string. NULs and byte order marks are removed
// and surrounding whitespace trimmed. Unknown encodings are read as UTF-8.
func decodeText(data []byte, enc byte) string {
	if len(data) == 0 {
		return ""
	}

	var s string
	if dec := decoderFor(enc); dec != nil {
		if enc == encodingUTF16 || enc == encodingUTF16BE {
			data = data[:len(data)&^1]
		}
		out, err := dec.NewDecoder().Bytes(data)
		if err != nil {
			// Fall back to Latin-1, which cannot fail.
			out, _ = charmap.ISO8859_1.NewDecoder().Bytes(data)
		}
		s = string(out)
	} else {
		s = strings.ToValidUTF8(string(data), "�")
	}

	s = strings.NewReplacer("\x00", "", "\uFEFF", "").Replace(s)
	return strings.TrimSpace(s)
}

// terminatorSize returns the width of the string terminator for an encoding.
func terminatorSize(enc byte) int {
	if enc == encodingUTF16 || enc == encodingUTF16BE {
		return 2
	}
	return 1
}

// splitTerminated splits data at the first terminator for the encoding.
// UTF-16 terminators are only matched on even offsets. ok is false when
// there is no terminator.
func splitTerminated(data []byte, enc byte) (head, rest []byte, ok bool) {
	if terminatorSize(enc) == 1 {
		i := bytes.IndexByte(data, 0)
		if i < 0 {
			return data, nil, false
		}
		return data[:i], data[i+1:], true
	}
	for i := 0; i+1 < len(data); i += 2 {
		if data[i] == 0 && data[i+1] == 0 {
			return data[:i], data[i+2:], true
		}
	}
	return data, nil, false
}

// latin1 decodes an ISO-8859-1 string without trimming.
func latin1(data []byte) string {
	out, _ := charmap.ISO8859_1.NewDecoder().Bytes(data)
	return string(out)
}
