package mp4

import (
	"fmt"
	"math"

	"github.com/simonhull/metaspector/internal/bitstream"
)

// videoCodecs maps sample entry fourccs to codec names.
var videoCodecs = map[string]string{
	"avc1": "h264",
	"avc3": "h264",
	"dva1": "h264",
	"dvav": "h264",
	"hvc1": "hevc",
	"hev1": "hevc",
	"dvh1": "hevc",
	"dvhe": "hevc",
	"av01": "av1",
	"vp09": "vp9",
	"vp08": "vp8",
	"mp4v": "mpeg4",
	"s263": "h263",
	"jpeg": "mjpeg",
	"mjpa": "mjpeg",
	"ap4h": "prores",
	"ap4x": "prores",
	"apch": "prores",
	"apcn": "prores",
	"apcs": "prores",
	"apco": "prores",
}

const (
	unknownColour = "Unknown"
	transferPQ    = "smpte2084"
	transferHLG   = "arib-std-b67"

	// maxSEIProbe caps how much of the first video sample is read for SEI hints.
	maxSEIProbe = 4 << 20

	// unspecified is the H.273 code for an unspecified colour property.
	unspecified = 2
)

// configKind tells which decoder configuration a video entry carried.
type configKind int

const (
	configNone configKind = iota
	configAVC
	configHEVC
	configAV1
	configVP9
)

// videoInfo accumulates one video sample entry.
type videoInfo struct {
	codec  string
	tag    string
	width  int
	height int

	params    bitstream.Params
	hasParams bool
	config    configKind

	primaries string
	transfer  string
	matrix    string
	colrRange string
	hasColr   bool

	hasMDCV bool
	hints   bitstream.Hints

	dolbyVision bool
	dvProfile   int
	dvLevel     int
	hasDVConfig bool

	hdrFormat     string
	sdrCompatible bool
}

// parseVideoEntry reads the first sample entry of a video stsd.
//
// Visual sample entry structure after the 8-byte box header:
//
//	[6 bytes] reserved, [2 bytes] data_reference_index
//	[16 bytes] pre_defined + reserved
//	[2 bytes] width, [2 bytes] height
//	[50 bytes] resolution, frame count, compressor name, depth
//
// Child boxes start 78 bytes into the payload.
func (s *state) parseVideoEntry(t *trackInfo) *videoInfo {
	v := &videoInfo{
		codec:     "unknown",
		tag:       "unknown",
		primaries: unknownColour,
		transfer:  unknownColour,
		matrix:    unknownColour,
		hdrFormat: "SDR",
	}
	v.params = bitstream.Params{ChromaFormat: -1}

	entry, ok := s.firstEntry(t)
	if !ok {
		return v
	}
	v.tag = entry.Type
	v.codec = lookupCodec(videoCodecs, entry.Type)

	c := s.cursorAt(entry)
	c.Skip(24)
	if w, ok := c.U16(); ok {
		v.width = int(w)
	}
	if h, ok := c.U16(); ok {
		v.height = int(h)
	}

	s.walk("video", entry.DataOffset()+78, entry.End, func(b Box) bool {
		switch b.Type {
		case "avcC":
			s.codecConfig(b, v, configAVC, bitstream.ParseAVCC)
		case "hvcC":
			s.codecConfig(b, v, configHEVC, bitstream.ParseHVCC)
		case "av1C":
			s.codecConfig(b, v, configAV1, bitstream.ParseAV1C)
		case "vpcC":
			s.codecConfig(b, v, configVP9, bitstream.ParseVPCC)
		case "dvcC", "dvvC", "dvwC":
			v.dolbyVision = true
			// [1] dv_version_major [1] dv_version_minor
			// profile(7) level(6) rpu(1) el(1) bl(1)
			if data, ok := payload(s.c, b, 4); ok && len(data) >= 4 {
				packed := be16(data[2:])
				v.dvProfile = int(packed>>9) & 0x7F
				v.dvLevel = int(packed>>3) & 0x3F
				v.hasDVConfig = true
			}
		case "colr":
			s.parseColr(b, v)
		case "mdcv":
			v.hasMDCV = true
		}
		return true
	})

	if s.opts.ScanSEI && !v.hasColr && !v.hasMDCV {
		s.scanHints(t, v)
	}
	v.resolve()
	return v
}

// codecConfig parses a decoder configuration record, keeping partial results.
func (s *state) codecConfig(b Box, v *videoInfo, kind configKind, parse func([]byte) (bitstream.Params, error)) {
	data, ok := payload(s.c, b, 0)
	if !ok {
		s.warn("video", "truncated "+b.Type, b.Start)
		return
	}
	p, err := parse(data)
	if err != nil {
		s.warn("video", fmt.Sprintf("%s: %v", b.Type, err), b.Start)
	}
	v.params, v.hasParams, v.config = p, true, kind
}

// parseColr reads an nclx/nclc colour box.
//
//	[4 bytes] colour_type
//	[2 bytes] colour_primaries
//	[2 bytes] transfer_characteristics
//	[2 bytes] matrix_coefficients
//	[1 byte]  full_range_flag(1) reserved(7), nclx only
func (s *state) parseColr(b Box, v *videoInfo) {
	data, ok := payload(s.c, b, 11)
	if !ok || len(data) < 10 {
		return
	}
	kind := string(data[0:4])
	if kind != "nclx" && kind != "nclc" {
		return
	}
	v.hasColr = true
	v.primaries = bitstream.PrimariesName(int(be16(data[4:])))
	v.transfer = bitstream.TransferName(int(be16(data[6:])))
	v.matrix = bitstream.MatrixName(int(be16(data[8:])))
	if kind == "nclx" && len(data) >= 11 {
		v.colrRange = "tv"
		if data[10]&0x80 != 0 {
			v.colrRange = "full"
		}
	}
}

// scanHints reads the first sample and looks for HDR SEI messages or AV1
// metadata OBUs.
func (s *state) scanHints(t *trackInfo, v *videoInfo) {
	if !t.hasChunkOffset || t.firstSampleSize <= 0 {
		return
	}
	if v.config != configAVC && v.config != configHEVC && v.config != configAV1 {
		return
	}

	s.c.Seek(t.firstChunkOffset)
	sample, ok := s.c.Bytes(min(t.firstSampleSize, maxSEIProbe))
	if !ok {
		s.warn("video", "first video sample out of range", t.firstChunkOffset)
		return
	}

	switch v.config {
	case configAV1:
		v.hints = bitstream.ScanAV1Metadata(sample)
	default:
		v.hints = bitstream.ScanSEI(sample, v.params.NALLengthSize, v.config == configHEVC)
	}

	if v.hints.MasteringDisplay {
		v.hasMDCV = true
	}
}

// resolve merges codec-derived colour, SEI hints and Dolby Vision into the
// final colour fields and HDR format.
func (v *videoInfo) resolve() {
	if !v.hasColr && v.params.Colour != nil {
		col := v.params.Colour
		if col.Primaries != unspecified {
			v.primaries = bitstream.PrimariesName(col.Primaries)
		}
		if col.Transfer != unspecified {
			v.transfer = bitstream.TransferName(col.Transfer)
		}
		if col.Matrix != unspecified {
			v.matrix = bitstream.MatrixName(col.Matrix)
		}
		if col.HasRange && col.FullRange {
			v.colrRange = "full"
		}
	}

	if v.hints.AlternativeTransfer == 18 {
		v.transfer = transferHLG
	}
	if v.hints.MasteringDisplay {
		if v.transfer == unknownColour {
			v.transfer = transferPQ
		}
		if v.primaries == unknownColour || v.primaries == "bt709" {
			v.primaries = "bt2020"
		}
	}

	// A 10-bit VP9 stream can be signalled as 8-bit in a legacy vpcC.
	if v.config == configVP9 && (v.transfer == transferPQ || v.transfer == transferHLG) && v.params.BitDepth < 10 {
		v.params.BitDepth = 10
		if v.params.ChromaFormat >= 0 {
			v.params.PixelFormat = bitstream.PixelFormat(v.params.ChromaFormat, v.params.BitDepth)
		}
	}

	switch {
	case v.dolbyVision:
		if v.primaries == unknownColour {
			v.primaries = "bt2020"
		}
		if v.transfer == unknownColour {
			v.transfer = transferPQ
		}
		if v.matrix == unknownColour {
			v.matrix = "bt2020nc"
		}
		v.hdrFormat = "Dolby Vision"
		if v.transfer == transferPQ && v.hasMDCV {
			v.hdrFormat = "HDR10, Dolby Vision"
		}
		if (v.dvProfile == 8 || v.dvProfile == 10) && (v.tag == "hvc1" || v.tag == "av01") {
			v.sdrCompatible = true
		}
	case v.transfer == transferHLG:
		v.hdrFormat = "HLG"
	case v.transfer == transferPQ:
		v.hdrFormat = "HDR (PQ)"
		if v.hasMDCV {
			v.hdrFormat = "HDR10"
		}
	}
}

// emitVideo appends a video track record.
func (s *state) emitVideo(t *trackInfo) {
	v := s.parseVideoEntry(t)
	p := v.params

	f := t.common()
	f.Set("codec", v.codec)
	f.Set("codec_tag_string", v.tag)

	width, height := v.width, v.height
	if width == 0 && height == 0 {
		width, height = p.Width, p.Height
	}
	f.Set("width", width)
	f.Set("height", height)

	f.Set("pixel_format", nilIfEmpty(p.PixelFormat))
	f.Set("profile", nilIfEmpty(p.Profile))
	if p.ProfileLevel != "" {
		f.Set("profile_level", p.ProfileLevel)
	}
	f.Set("chroma_location", nilIfEmpty(p.ChromaLocation))
	f.Set("hdr_format", v.hdrFormat)

	if v.hdrFormat != "SDR" {
		f.Set("color_primaries", v.primaries)
		f.Set("transfer_characteristics", v.transfer)
		f.Set("matrix_coefficients", v.matrix)
		if v.matrix != unknownColour {
			f.Set("color_space", v.matrix)
		}
		if v.transfer != unknownColour {
			f.Set("color_transfer", v.transfer)
		}
	}
	colorRange := v.colrRange
	if colorRange == "" {
		colorRange = "tv"
	}
	f.Set("color_range", colorRange)

	if v.hints.LightLevel {
		f.Set("max_content_light_level", v.hints.MaxCLL)
		f.Set("max_frame_average_light_level", v.hints.MaxFALL)
	}

	if v.dolbyVision {
		f.Set("dolby_vision", true)
		if v.hasDVConfig {
			f.Set("dolby_vision_profile", v.dvProfile)
			f.Set("dolby_vision_level", v.dvLevel)
		} else {
			f.Set("dolby_vision_profile", nil)
			f.Set("dolby_vision_level", nil)
		}
		f.Set("dolby_vision_sdr_compatible", v.sdrCompatible)
	}

	if secs := t.seconds(); secs > 0 {
		if t.totalSampleBytes > 0 {
			f.Set("bitrate", int(float64(t.totalSampleBytes*8)/secs))
		}
		if t.sampleCount > 0 {
			f.Set("frame_rate", round3(float64(t.sampleCount)/secs))
		}
	}
	if t.hasSampleCount {
		f.Set("total_samples", int(t.sampleCount))
	}

	f.Set("main_program_content", t.chars.mainProgram)
	f.Set("original_content", t.chars.original)
	f.Set("auxiliary_content", t.chars.auxiliary)

	s.res.Video = append(s.res.Video, f)
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// round3 rounds to three decimal places.
func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
