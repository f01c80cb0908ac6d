package mp4

import (
	"bytes"
	"strings"
	"unicode/utf8"

	codec "github.com/yapingcat/gomedia/go-codec"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/lookup"
	"github.com/simonhull/metaspector/internal/types"
)

// characteristics are the Apple tagc track flags.
type characteristics struct {
	mainProgram       bool
	auxiliary         bool
	original          bool
	describesVideo    bool
	enhancesSpeech    bool
	dubbed            bool
	voiceOver         bool
	translation       bool
	forcedOnly        bool
	describesMusic    bool
	transcribesSpoken bool
	easyToRead        bool
}

// apply sets the flag matching one tagc payload.
func (ch *characteristics) apply(value string) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "public.main-program-content":
		ch.mainProgram = true
	case "public.auxiliary-content":
		ch.auxiliary = true
	case "public.original-content":
		ch.original = true
	case "public.accessibility.describes-video":
		ch.describesVideo = true
	case "public.accessibility.enhances-speech-intelligibility":
		ch.enhancesSpeech = true
	case "public.translation.dubbed":
		ch.dubbed = true
	case "public.translation.voice-over":
		ch.voiceOver = true
	case "public.translation":
		ch.translation = true
	case "public.subtitles.forced-only":
		ch.forcedOnly = true
	case "public.accessibility.describes-music-and-sound":
		ch.describesMusic = true
	case "public.accessibility.transcribes-spoken-dialog":
		ch.transcribesSpoken = true
	case "public.easy-to-read":
		ch.easyToRead = true
	}
}

// trackInfo accumulates one trak before it is emitted as a Fields record.
type trackInfo struct {
	index int

	handlerType string
	handlerName string
	name        string // descriptive name from udta or mdia/meta

	language  string
	elng      string
	timescale uint64
	duration  uint64

	chars characteristics

	stsd    Box
	hasStsd bool

	sampleCount      int64
	hasSampleCount   bool
	totalSampleBytes int64
	firstSampleSize  int64
	firstChunkOffset int64
	hasChunkOffset   bool
}

// seconds returns the media duration, or 0 when unknown.
func (t *trackInfo) seconds() float64 {
	if t.timescale == 0 || t.duration == 0 {
		return 0
	}
	return float64(t.duration) / float64(t.timescale)
}

// parseTrak walks one trak box and appends the resulting track.
func (s *state) parseTrak(trak Box) {
	t := &trackInfo{language: "und"}

	s.walk("container", trak.DataOffset(), trak.End, func(b Box) bool {
		switch b.Type {
		case "tkhd":
			s.parseTkhd(b, t)
		case "udta":
			s.parseTrackUdta(b, t)
		case "mdia":
			s.parseMdia(b, t)
		}
		return true
	})

	switch t.handlerType {
	case "soun":
		s.emitAudio(t)
	case "vide":
		s.emitVideo(t)
	case "sbtl", "subt", "clcp", "text":
		s.emitSubtitle(t)
	}
}

// parseTkhd reads the track id; the output index is id - 1.
func (s *state) parseTkhd(b Box, t *trackInfo) {
	c := s.cursorAt(b)
	version, ok := c.U8()
	if !ok {
		return
	}
	c.Skip(3) // Skip flags
	switch version {
	case 0:
		c.Skip(8) // creation + modification time
	case 1:
		c.Skip(16)
	default:
		return
	}
	if id, ok := c.U32(); ok && id > 0 {
		t.index = int(id) - 1
	}
}

func (s *state) parseMdia(mdia Box, t *trackInfo) {
	s.walk("container", mdia.DataOffset(), mdia.End, func(b Box) bool {
		switch b.Type {
		case "mdhd":
			s.parseMdhd(b, t)
		case "hdlr":
			t.handlerType, t.handlerName = s.parseHdlr(b)
		case "elng":
			s.parseElng(b, t)
		case "minf":
			if stbl, ok := find(s.c, b.DataOffset(), b.End, "stbl"); ok {
				s.parseStbl(stbl, t)
			}
		case "meta":
			if name := s.metaTrackName(b); name != "" {
				t.name = name
			}
		}
		return true
	})
}

// parseMdhd reads the media timescale, duration and packed language.
func (s *state) parseMdhd(b Box, t *trackInfo) {
	ts, dur, ok := readTimes(s.c, b)
	if !ok {
		s.warn("container", "truncated mdhd", b.Start)
		return
	}
	t.timescale, t.duration = ts, dur

	lc := s.c.Limit(b.End)
	if raw, ok := lc.Bytes(2); ok {
		t.language = decodeLanguage(raw)
	}
}

// decodeLanguage unpacks an ISO-639-2/T code stored as three 5-bit letters
// offset by 0x60, after a pad bit.
func decodeLanguage(raw []byte) string {
	bs := codec.NewBitStream(raw)
	bs.GetBit() // pad
	var letters [3]byte
	for i := range letters {
		v := bs.Uint8(5)
		if v == 0 || v > 26 {
			return "und"
		}
		letters[i] = v + 0x60
	}
	return string(letters[:])
}

// parseHdlr returns the handler type and name.
//
// Structure after the box header:
//
//	[1 byte] version, [3 bytes] flags
//	[4 bytes] pre_defined
//	[4 bytes] handler_type
//	[12 bytes] reserved
//	[N bytes] name (NUL-terminated or Pascal string)
func (s *state) parseHdlr(b Box) (handlerType, name string) {
	data, ok := payload(s.c, b, 0)
	if !ok || len(data) < 12 {
		return "", ""
	}
	handlerType = string(data[8:12])
	if len(data) > 24 {
		name = cleanString(data[24:])
	}
	return handlerType, name
}

// parseElng reads the extended (BCP-47) language tag.
func (s *state) parseElng(b Box, t *trackInfo) {
	data, ok := payload(s.c, b, 0)
	if !ok || len(data) <= 4 {
		return
	}
	t.elng = cutString(data[4:])
}

// parseStbl collects sample counts, sizes and the first chunk offset.
func (s *state) parseStbl(stbl Box, t *trackInfo) {
	s.walk("container", stbl.DataOffset(), stbl.End, func(b Box) bool {
		switch b.Type {
		case "stsd":
			t.stsd, t.hasStsd = b, true
		case "stsz":
			s.parseStsz(b, t)
		case "stco", "co64":
			if t.hasChunkOffset {
				break
			}
			c := s.cursorAt(b)
			c.Skip(4) // Skip version + flags
			count, ok := c.U32()
			if !ok || count == 0 {
				break
			}
			if b.Type == "stco" {
				if off, ok := c.U32(); ok {
					t.firstChunkOffset, t.hasChunkOffset = int64(off), true
				}
			} else if off, ok := c.U64(); ok {
				t.firstChunkOffset, t.hasChunkOffset = int64(off), true
			}
		}
		return true
	})
}

// parseStsz reads either a uniform sample size or the per-sample size table.
//
// Structure after version + flags:
//
//	[4 bytes] sample_size (0 = table follows)
//	[4 bytes] sample_count
//	[4 bytes × sample_count] entry_size
func (s *state) parseStsz(b Box, t *trackInfo) {
	c := s.cursorAt(b)
	c.Skip(4)
	uniform, ok1 := c.U32()
	count, ok2 := c.U32()
	if !ok1 || !ok2 {
		s.warn("container", "truncated stsz", b.Start)
		return
	}
	t.sampleCount, t.hasSampleCount = int64(count), true

	if uniform != 0 {
		t.firstSampleSize = int64(uniform)
		t.totalSampleBytes = int64(uniform) * int64(count)
		return
	}

	table, ok := c.Bytes(int64(count) * 4)
	if !ok {
		s.warn("container", "truncated stsz sample table", b.Start)
		return
	}
	var total int64
	for i := 0; i+4 <= len(table); i += 4 {
		total += int64(be32(table[i:]))
	}
	t.totalSampleBytes = total
	if count > 0 {
		t.firstSampleSize = int64(be32(table))
	}
}

// parseTrackUdta reads tagc characteristics and a name atom.
func (s *state) parseTrackUdta(udta Box, t *trackInfo) {
	var name string
	s.walk("container", udta.DataOffset(), udta.End, func(b Box) bool {
		switch b.Type {
		case "tagc":
			if data, ok := payload(s.c, b, 0); ok {
				t.chars.apply(string(data))
			}
		case "\xa9nam", "name", "titl":
			if name == "" {
				name = s.qtString(b)
			}
		}
		return true
	})
	if name != "" && t.name == "" {
		t.name = name
	}
}

// metaTrackName returns the ©nam value of a track-level meta/ilst.
func (s *state) metaTrackName(meta Box) string {
	if meta.DataSize() < 4 {
		return ""
	}
	ilst, ok := find(s.c, meta.DataOffset()+4, meta.End, "ilst")
	if !ok {
		return ""
	}
	item, ok := find(s.c, ilst.DataOffset(), ilst.End, "\xa9nam")
	if !ok {
		return ""
	}
	data, ok := find(s.c, item.DataOffset(), item.End, "data")
	if !ok || data.DataSize() < 8 {
		return ""
	}
	raw, ok := payload(s.c, data, 0)
	if !ok {
		return ""
	}
	return qtString(raw[8:])
}

// qtString reads a QuickTime-style string atom payload.
func (s *state) qtString(b Box) string {
	data, ok := payload(s.c, b, 0)
	if !ok {
		return ""
	}
	return qtString(data)
}

// qtString decodes a string atom: an optional 4-byte header starting with a
// zero byte, then UTF-8 up to the first NUL.
func qtString(data []byte) string {
	if len(data) >= 4 && data[0] == 0 {
		data = data[4:]
	}
	return cutString(data)
}

// cutString decodes UTF-8 up to the first NUL and trims spaces.
func cutString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return strings.TrimSpace(toValidUTF8(data))
}

// cleanString decodes UTF-8, dropping trailing NULs and surrounding spaces.
func cleanString(data []byte) string {
	return strings.TrimSpace(strings.TrimRight(toValidUTF8(data), "\x00"))
}

func toValidUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func be16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

// cursorAt returns a cursor over a box payload.
func (s *state) cursorAt(b Box) *binary.Cursor {
	s.c.Seek(b.DataOffset())
	return s.c.Limit(b.End)
}

// common builds the leading fields shared by all track kinds.
func (t *trackInfo) common() *types.Fields {
	f := types.NewFields()
	f.Set("index", t.index)

	name := t.name
	if name == "" {
		name = t.handlerName
	}
	f.Set("handler_name", name)
	f.Set("language", t.language)

	if t.elng != "" {
		f.Set("internationalized_language", t.elng)
	} else {
		f.Set("internationalized_language", nil)
	}

	code := t.elng
	if code == "" {
		code = t.language
	}
	if long := lookup.LanguageName(code); long != "" {
		f.Set("internationalized_language_long", long)
	} else {
		f.Set("internationalized_language_long", nil)
	}
	return f
}
