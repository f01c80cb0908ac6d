package mp3

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/tags"
	"github.com/simonhull/metaspector/internal/types"
)

// Tag header flags
const (
	flagUnsynchronisation = 0x80
	flagExtendedHeader    = 0x40
	flagFooter            = 0x10
)

// v2.4 frame format flags
const (
	frameFlagUnsynchronisation = 0x0002
	frameFlagDataLength        = 0x0001
)

// maxFrameSize caps a single frame read.
const maxFrameSize = 64 << 20

// id3Header is an ID3v2 tag header.
type id3Header struct {
	version byte // major version: 2, 3 or 4
	flags   byte
	size    int64 // tag body size, excluding header and footer
}

// tagSize is the full size of the tag on disk.
func (h id3Header) tagSize() int64 {
	n := 10 + h.size
	if h.version == 4 && h.flags&flagFooter != 0 {
		n += 10
	}
	return n
}

// frame is one decoded frame, with its id normalized to the v2.3/v2.4 form.
type frame struct {
	id     string
	offset int64
	data   []byte
}

// v22Frames maps v2.2 three-character ids to their v2.3 equivalents.
var v22Frames = map[string]string{
	"TT1": "TIT1", "TT2": "TIT2", "TT3": "TIT3",
	"TP1": "TPE1", "TP2": "TPE2", "TP3": "TPE3", "TP4": "TPE4",
	"TAL": "TALB", "TCO": "TCON", "TCM": "TCOM", "TYE": "TYER",
	"TDA": "TDAT", "TOR": "TORY", "TRK": "TRCK", "TPA": "TPOS",
	"TEN": "TENC", "TCR": "TCOP", "TPB": "TPUB", "TBP": "TBPM",
	"TRC": "TSRC", "TSS": "TSSE", "TLE": "TLEN", "TLA": "TLAN",
	"TXX": "TXXX", "COM": "COMM", "ULT": "USLT", "PIC": "APIC",
	"UFI": "UFID",
}

// decodeSynchsafe decodes a synchsafe integer (7 bits per byte).
func decodeSynchsafe(b []byte) uint32 {
	var n uint32
	for _, c := range b {
		n = n<<7 | uint32(c&0x7F)
	}
	return n
}

// readHeader reads the tag header at offset 0. ok is false when the file
// does not start with an ID3v2 tag.
func readHeader(sr *binary.SafeReader) (id3Header, bool) {
	buf := make([]byte, 10)
	if err := sr.ReadAt(buf, 0, "ID3v2 header"); err != nil {
		return id3Header{}, false
	}
	if string(buf[0:3]) != "ID3" || buf[3] < 2 || buf[3] > 4 {
		return id3Header{}, false
	}
	return id3Header{
		version: buf[3],
		flags:   buf[5],
		size:    int64(decodeSynchsafe(buf[6:10])),
	}, true
}

// frames calls fn for every frame of the tag until fn returns false.
//
// A zero frame id ends the loop, as does a frame that would run past the tag
// end. The returned error describes why the loop stopped early, if it did.
func frames(sr *binary.SafeReader, h id3Header, fn func(frame) bool) error {
	tagEnd := min(10+h.size, sr.Size())
	offset := int64(10)

	if h.flags&flagExtendedHeader != 0 && h.version >= 3 {
		raw, err := sr.Slice(offset, 4, "extended header size")
		if err != nil {
			return err
		}
		// v2.3 excludes the size field itself; v2.4 is synchsafe and inclusive.
		ext := int64(decodeSynchsafe(raw))
		if h.version == 3 {
			ext = int64(uint32(raw[0])<<24|uint32(raw[1])<<16|uint32(raw[2])<<8|uint32(raw[3])) + 4
		}
		if ext < 4 || offset+ext > tagEnd {
			return fmt.Errorf("malformed extended header size %d", ext)
		}
		offset += ext
	}

	idLen, headerLen := int64(4), int64(10)
	if h.version == 2 {
		idLen, headerLen = 3, 6
	}

	for offset+headerLen <= tagEnd {
		hdr, err := sr.Slice(offset, headerLen, "frame header")
		if err != nil {
			return err
		}
		if hdr[0] == 0 {
			return nil // padding
		}

		id := string(hdr[:idLen])
		var size int64
		var flags uint16
		switch h.version {
		case 2:
			size = int64(hdr[3])<<16 | int64(hdr[4])<<8 | int64(hdr[5])
			if mapped, ok := v22Frames[id]; ok {
				id = mapped
			}
		case 3:
			size = int64(uint32(hdr[4])<<24 | uint32(hdr[5])<<16 | uint32(hdr[6])<<8 | uint32(hdr[7]))
			flags = uint16(hdr[8])<<8 | uint16(hdr[9])
		default:
			size = int64(decodeSynchsafe(hdr[4:8]))
			flags = uint16(hdr[8])<<8 | uint16(hdr[9])
		}

		body := offset + headerLen
		if size <= 0 || size > maxFrameSize || body+size > tagEnd {
			return fmt.Errorf("frame %q at offset %d: size %d exceeds tag", id, offset, size)
		}
		data, err := sr.Slice(body, size, "frame "+id)
		if err != nil {
			return err
		}

		if h.version == 3 && h.flags&flagUnsynchronisation != 0 {
			data = resync(data)
		}
		if h.version == 4 {
			if flags&frameFlagDataLength != 0 && len(data) >= 4 {
				data = data[4:]
			}
			if flags&frameFlagUnsynchronisation != 0 || h.flags&flagUnsynchronisation != 0 {
				data = resync(data)
			}
		}

		if !fn(frame{id: id, offset: offset, data: data}) {
			return nil
		}
		offset = body + size
	}
	return nil
}

// resync reverses unsynchronisation: every FF 00 becomes FF.
func resync(data []byte) []byte {
	if !bytes.Contains(data, []byte{0xFF, 0x00}) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		out = append(out, data[i])
		if data[i] == 0xFF && i+1 < len(data) && data[i+1] == 0x00 {
			i++
		}
	}
	return out
}

// textKeys maps text frame ids to output keys. Other text frames are stored
// under their lowercased id.
var textKeys = map[string]string{
	"TIT2": "title",
	"TPE1": "artist",
	"TALB": "album",
	"TCOM": "composer",
	"TCON": "genre",
	"TDRC": "release_date",
	"TYER": "release_date",
	"TRCK": "track_number",
	"TPOS": "disc_number",
	"TPE2": "album_artist",
	"TENC": "encoder",
	"TSSE": "encoder",
	"TCOP": "copyright",
	"TPUB": "publisher",
	"TSOP": "performer",
	"TBPM": "tempo",
	"TMPO": "tempo",
	"TSRC": "isrc",
	"TLAN": "language",
	"TLEN": "length",
}

// userTextKeys maps uppercased TXXX descriptions to output keys. Other
// descriptions are stored lowercased.
var userTextKeys = map[string]string{
	"REPLAYGAIN_TRACK_GAIN": "replaygain_track_gain",
	"REPLAYGAIN_TRACK_PEAK": "replaygain_track_peak",
	"REPLAYGAIN_ALBUM_GAIN": "replaygain_album_gain",
	"REPLAYGAIN_ALBUM_PEAK": "replaygain_album_peak",
	"CUSTOM_TRACKTOTAL":     "track_total",
	"CUSTOM_DISCTOTAL":      "disc_total",
	"CUSTOM_BPM":            "tempo",
	"CUSTOM_ISRC":           "isrc",
	"CUSTOM_BARCODE":        "barcode",
	"CUSTOM_ITUNESADVISORY": "itunesadvisory",
	"ITUNESADVISORY":        "itunesadvisory",
	"ORGANIZATION":          "record_company",
	"UPC":                   "upc",
	"MEDIA":                 "media_type",
	"DESCRIPTION":           "description",
	"COMMENT":               "comment",
	"DATE":                  "release_date",
	"PERFORMER":             "performer",
	"CM/REPUBLIC":           "publisher",
	"TSSE":                  "encoder",
	"TRACKTOTAL":            "track_total",
	"DISCTOTAL":             "disc_total",
	"BARCODE":               "barcode",
}

// iTunesUFIDOwner marks UFID frames that carry an ISRC or barcode.
const iTunesUFIDOwner = "http://www.id3.org/uslt/iTunes"

// tagReader accumulates tag fields from frames.
type tagReader struct {
	fields  *types.Fields
	version byte
	cover   *apic
	warn    func(offset int64, format string, args ...any)

	commentSet bool
}

// apply decodes one frame into the fields.
func (t *tagReader) apply(f frame) {
	switch {
	case f.id == "TXXX":
		t.userText(f)
	case strings.HasPrefix(f.id, "T") && f.id != "TFLT":
		if len(f.data) == 0 {
			return
		}
		key, ok := textKeys[f.id]
		if !ok {
			key = strings.ToLower(f.id)
		}
		t.set(key, decodeText(f.data[1:], f.data[0]))
	case f.id == "COMM":
		t.comment(f)
	case f.id == "USLT":
		t.lyrics(f)
	case f.id == "APIC":
		if t.cover != nil {
			return
		}
		pic, err := parseAPIC(f.data, t.version == 2)
		if err != nil {
			t.warn(f.offset, "APIC: %v", err)
			return
		}
		t.cover = pic
	case f.id == "UFID":
		t.uniqueID(f)
	}
}

// set stores a decoded value, applying the per-key conversions.
func (t *tagReader) set(key, value string) {
	switch key {
	case "track_number":
		tags.SetNumberPair(t.fields, key, "track_total", value)
	case "disc_number":
		tags.SetNumberPair(t.fields, key, "disc_total", value)
	case "tempo":
		if n, ok := tags.Tempo(value); ok {
			t.fields.Set(key, n)
			return
		}
		t.fields.Set(key, value)
	case "itunesadvisory":
		t.fields.Set(key, tags.Advisory(value))
	default:
		t.fields.Set(key, value)
	}
}

// userText decodes a TXXX frame: [encoding] [description] 0 [value].
func (t *tagReader) userText(f frame) {
	if len(f.data) < 2 {
		return
	}
	enc := f.data[0]
	desc, value, ok := splitTerminated(f.data[1:], enc)
	if !ok {
		t.warn(f.offset, "TXXX: missing description terminator")
		return
	}
	name := decodeText(desc, enc)
	key, known := userTextKeys[strings.ToUpper(name)]
	if !known {
		key = strings.ToLower(name)
	}
	if key == "" {
		return
	}
	t.set(key, decodeText(value, enc))
}

// comment decodes a COMM frame: [encoding] [language(3)] [description] 0 [text].
// A comment without a description takes precedence over described ones.
func (t *tagReader) comment(f frame) {
	if len(f.data) < 5 {
		return
	}
	enc := f.data[0]
	desc, text, ok := splitTerminated(f.data[4:], enc)
	if !ok {
		text, desc = desc, nil
	}
	if t.commentSet && len(desc) > 0 {
		return
	}
	if s := decodeText(text, enc); s != "" {
		t.fields.Set("comment", s)
		t.commentSet = len(desc) == 0
	}
}

// lyrics decodes a USLT frame: [encoding] [language(3)] [description] 0 [lyrics].
func (t *tagReader) lyrics(f frame) {
	if len(f.data) < 7 {
		return
	}
	enc := f.data[0]
	lang := strings.Trim(string(f.data[1:4]), "\x00 ")
	_, text, ok := splitTerminated(f.data[4:], enc)
	if !ok {
		text = f.data[4:]
	}
	lyrics := decodeText(text, enc)
	lyrics = strings.ReplaceAll(lyrics, "\r\n", "\n")
	lyrics = strings.ReplaceAll(lyrics, "\r", "\n")
	t.fields.Set("lyrics", strings.TrimSpace(lyrics))
	if lang != "" && !t.fields.Has("language") {
		t.fields.Set("language", lang)
	}
}

// uniqueID decodes an iTunes UFID frame: [owner] 0 ["isrc"|"barcode"] [value].
func (t *tagReader) uniqueID(f frame) {
	owner, id, ok := splitTerminated(f.data, encodingLatin1)
	if !ok || strings.TrimSpace(latin1(owner)) != iTunesUFIDOwner {
		return
	}
	switch {
	case bytes.HasPrefix(id, []byte("isrc")):
		t.fields.Set("isrc", strings.Trim(latin1(id[4:]), "\x00"))
	case bytes.HasPrefix(id, []byte("barcode")):
		t.fields.Set("barcode", strings.Trim(latin1(id[7:]), "\x00"))
	}
}
