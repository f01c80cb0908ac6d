package mp4

import (
	"bytes"
	"fmt"
	"math"

	codec "github.com/yapingcat/gomedia/go-codec"
)

// audioCodecs maps sample entry fourccs to codec names.
var audioCodecs = map[string]string{
	"mp4a": "aac",
	"ac-3": "ac3",
	"ec-3": "eac3",
	"ac-4": "ac4",
	"alac": "alac",
	"fLaC": "flac",
	"Opus": "opus",
	".mp3": "mp3",
	"lpcm": "pcm",
	"sowt": "pcm_s16le",
	"twos": "pcm_s16be",
	"in24": "pcm_s24be",
	"in32": "pcm_s32be",
	"fl32": "pcm_f32be",
	"fl64": "pcm_f64be",
	"dtsc": "dts",
	"dtsh": "dts",
	"dtsl": "dts",
	"dtse": "dts",
	"mha1": "mpegh",
	"mhm1": "mpegh",
	"samr": "amr_nb",
	"sawb": "amr_wb",
}

// aacChannels maps AudioSpecificConfig channel_configuration to a count and layout.
var aacChannels = map[int]struct {
	count  int
	layout string
}{
	1: {1, "1.0"},
	2: {2, "2.0"},
	3: {3, "3.0"},
	4: {4, "4.0"},
	5: {5, "5.0"},
	6: {6, "5.1"},
	7: {8, "7.1"},
}

// acmodChannels maps the AC-3 audio coding mode to the number of main channels.
var acmodChannels = map[int]int{0: 2, 1: 1, 2: 2, 3: 3, 4: 3, 5: 4, 6: 4, 7: 5}

// atmosMarker appears in E-AC-3 frames carrying Joint Object Coding.
var atmosMarker = []byte{0x03, 0xBB, 0xBB, 0x81}

// maxAtmosProbe caps how much of the first sample is read for the marker.
const maxAtmosProbe = 1 << 20

type audioEntry struct {
	codec      string
	tag        string
	channels   int
	sampleRate int
	bits       int
	hasBits    bool
	layout     string
}

// parseAudioEntry reads the first sample entry of an audio stsd.
//
// Sample entry structure after the 8-byte box header:
//
//	[6 bytes] reserved, [2 bytes] data_reference_index
//	[2 bytes] version, [6 bytes] revision + vendor
//	[2 bytes] channel count
//	[2 bytes] sample size
//	[4 bytes] compression id + packet size
//	[4 bytes] sample rate (16.16 fixed point)
//
// QuickTime version 1 adds 16 bytes and version 2 adds 36 before the child boxes.
func (s *state) parseAudioEntry(t *trackInfo) audioEntry {
	e := audioEntry{codec: "unknown", tag: "unknown"}
	entry, ok := s.firstEntry(t)
	if !ok {
		return e
	}
	e.tag = entry.Type
	e.codec = lookupCodec(audioCodecs, entry.Type)

	c := s.cursorAt(entry)
	c.Skip(8)
	version, _ := c.U16()
	c.Skip(6)
	if ch, ok := c.U16(); ok {
		e.channels = int(ch)
	}
	if bits, ok := c.U16(); ok {
		e.bits, e.hasBits = int(bits), true
	}
	c.Skip(4)
	if sr, ok := c.U32(); ok {
		e.sampleRate = int(sr >> 16)
	}

	childStart := entry.DataOffset() + 28
	switch version {
	case 1:
		childStart += 16
	case 2:
		// [4] struct size, [8] float64 sample rate, [4] channel count
		c.Skip(4)
		if sr, ok := c.U64(); ok {
			e.sampleRate = int(math.Float64frombits(sr))
		}
		if ch, ok := c.U32(); ok {
			e.channels = int(ch)
		}
		childStart += 36
	}

	s.walk("audio", childStart, entry.End, func(b Box) bool {
		switch b.Type {
		case "esds":
			if data, ok := payload(s.c, b, 0); ok && len(data) > 4 {
				if count, layout, ok := parseESDS(data[4:]); ok {
					e.channels, e.layout = count, layout
				}
			}
			return false
		case "dac3":
			if data, ok := payload(s.c, b, 0); ok && len(data) >= 2 {
				e.channels, e.layout = parseDAC3(data)
			}
			return false
		case "dec3":
			if e.channels == 8 {
				e.layout = "7.1"
				return false
			}
			if data, ok := payload(s.c, b, 0); ok && len(data) >= 4 {
				e.channels, e.layout = parseDEC3(data)
			}
			return false
		}
		return true
	})
	return e
}

// descriptor is an MPEG-4 systems descriptor header: tag and expandable size.
type descriptor struct {
	tag  uint8
	size uint32
}

// decode reads the tag and the size (7 bits per byte, high bit continues,
// at most four bytes) and returns the stream positioned at the body.
func (d *descriptor) decode(data []byte) *codec.BitStream {
	bs := codec.NewBitStream(data)
	d.tag = bs.Uint8(8)
	for i := 0; i < 4; i++ {
		more := bs.GetBit()
		d.size = d.size<<7 | bs.Uint32(7)
		if more == 0 {
			break
		}
	}
	return bs
}

// parseESDS walks ES_Descriptor > DecoderConfigDescriptor > DecoderSpecificInfo
// and reads the AAC channel configuration.
func parseESDS(data []byte) (channels int, layout string, ok bool) {
	defer func() {
		if recover() != nil {
			channels, layout, ok = 0, "", false
		}
	}()

	for len(data) > 0 {
		var d descriptor
		bs := d.decode(data)
		switch d.tag {
		case 0x03: // ES_Descriptor
			bs.SkipBits(16) // ES_ID
			dependsOn := bs.GetBit()
			hasURL := bs.GetBit()
			hasOCR := bs.GetBit()
			bs.SkipBits(5) // streamPriority
			if dependsOn == 1 {
				bs.SkipBits(16)
			}
			if hasURL == 1 {
				n := bs.Uint8(8)
				bs.SkipBits(int(n) * 8)
			}
			if hasOCR == 1 {
				bs.SkipBits(16)
			}
		case 0x04: // DecoderConfigDescriptor
			bs.SkipBits(8)  // objectTypeIndication
			bs.SkipBits(32) // streamType, upStream, reserved, bufferSizeDB
			bs.SkipBits(32) // maxBitrate
			bs.SkipBits(32) // avgBitrate
		case 0x05: // DecoderSpecificInfo
			return ascChannels(bs.GetBytes(int(d.size)))
		default:
			bs.SkipBits(int(d.size) * 8)
		}
		data = bs.RemainData()
	}
	return 0, "", false
}

// ascChannels reads channel_configuration from an AudioSpecificConfig.
func ascChannels(asc []byte) (int, string, bool) {
	if len(asc) < 2 {
		return 0, "", false
	}
	bs := codec.NewBitStream(asc)
	if bs.Uint8(5) == 31 { // audioObjectTypeExt
		bs.SkipBits(6)
	}
	if bs.Uint8(4) == 0x0F { // explicit samplingFrequency
		bs.SkipBits(24)
	}
	ch, ok := aacChannels[int(bs.Uint8(4))]
	if !ok {
		return 0, "", false
	}
	return ch.count, ch.layout, true
}

// parseDAC3 reads acmod and lfeon from an AC3SpecificBox.
//
//	fscod(2) bsid(5) bsmod(3) acmod(3) lfeon(1) bit_rate_code(5) reserved(5)
func parseDAC3(data []byte) (int, string) {
	bs := codec.NewBitStream(data)
	bs.SkipBits(10)
	acmod := int(bs.Uint8(3))
	lfe := int(bs.Uint8(1))
	return acChannels(acmod, lfe)
}

// parseDEC3 reads acmod and lfeon of the first independent substream of an
// EC3SpecificBox.
//
//	data_rate(13) num_ind_sub(3)
//	fscod(2) bsid(5) reserved(1) asvc(1) bsmod(3) acmod(3) lfeon(1) ...
func parseDEC3(data []byte) (int, string) {
	bs := codec.NewBitStream(data)
	bs.SkipBits(16)
	bs.SkipBits(12)
	acmod := int(bs.Uint8(3))
	lfe := int(bs.Uint8(1))
	return acChannels(acmod, lfe)
}

func acChannels(acmod, lfe int) (int, string) {
	main := acmodChannels[acmod]
	if acmod == 0 {
		return main + lfe, "1+1"
	}
	return main + lfe, fmt.Sprintf("%d.%d", main, lfe)
}

// detectAtmos looks for the JOC marker in the first E-AC-3 sample.
func (s *state) detectAtmos(t *trackInfo) bool {
	if !t.hasChunkOffset || t.firstSampleSize <= 0 {
		return false
	}
	n := min(t.firstSampleSize, maxAtmosProbe)
	s.c.Seek(t.firstChunkOffset)
	sample, ok := s.c.Bytes(n)
	if !ok {
		s.warn("audio", "first E-AC-3 sample out of range", t.firstChunkOffset)
		return false
	}
	return bytes.Contains(sample, atmosMarker)
}

// emitAudio appends an audio track record.
func (s *state) emitAudio(t *trackInfo) {
	e := s.parseAudioEntry(t)

	f := t.common()
	f.Set("codec", e.codec)
	f.Set("codec_tag_string", e.tag)
	f.Set("channels", e.channels)
	f.Set("sample_rate", e.sampleRate)
	if e.hasBits {
		f.Set("bits_per_sample", e.bits)
	}
	if e.layout != "" {
		f.Set("channel_layout", e.layout)
	}
	if e.tag == "ec-3" && s.opts.DetectAtmos {
		f.Set("dolby_atmos", s.detectAtmos(t))
	}

	if secs := t.seconds(); secs > 0 && t.totalSampleBytes > 0 {
		f.Set("bitrate", int(float64(t.totalSampleBytes*8)/secs))
	}
	if t.hasSampleCount {
		f.Set("total_samples", int(t.sampleCount))
	}

	f.Set("main_program_content", t.chars.mainProgram)
	f.Set("original_content", t.chars.original)
	f.Set("dubbed_translation", t.chars.dubbed)
	f.Set("voice_over_translation", t.chars.voiceOver)
	f.Set("language_translation", t.chars.translation)
	f.Set("describes_video_for_accessibility", t.chars.describesVideo)
	f.Set("enhances_speech_intelligibility", t.chars.enhancesSpeech)
	f.Set("auxiliary_content", t.chars.auxiliary)

	s.res.Audio = append(s.res.Audio, f)
}

// firstEntry returns the first sample entry of the track's stsd.
//
// stsd structure: [1] version [3] flags [4] entry_count, then the entries.
func (s *state) firstEntry(t *trackInfo) (Box, bool) {
	if !t.hasStsd || t.stsd.DataSize() < 8 {
		return Box{}, false
	}
	entry, ok := readBox(s.c, t.stsd.DataOffset()+8, t.stsd.End)
	if !ok || entry.End > t.stsd.End {
		s.warn("container", "malformed sample entry", t.stsd.DataOffset()+8)
		return Box{}, false
	}
	return entry, true
}

// lookupCodec maps a fourcc, falling back to the fourcc itself.
func lookupCodec(table map[string]string, fourcc string) string {
	if name, ok := table[fourcc]; ok {
		return name
	}
	return fourcc
}
