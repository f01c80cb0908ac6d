package mp3

import (
	"context"
	"fmt"

	"github.com/simonhull/metaspector/internal/binary"
)

// MPEG version ids from the frame header.
const (
	mpeg25 = 0
	mpeg2  = 2
	mpeg1  = 3
)

// Layer ids from the frame header.
const (
	layer3 = 1
	layer2 = 2
	layer1 = 3
)

// bitrateTables holds kbps by [MPEG-1?][layer id][bitrate index].
// MPEG-2 and 2.5 share one set.
var bitrateTables = [2][4][16]int{
	{ // MPEG-2 / 2.5
		layer3: {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
		layer2: {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
		layer1: {0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0},
	},
	{ // MPEG-1
		layer3: {0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0},
		layer2: {0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0},
		layer1: {0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0},
	},
}

// sampleRates holds Hz by [version id][sample rate index].
var sampleRates = [4][3]int{
	mpeg25: {11025, 12000, 8000},
	mpeg2:  {22050, 24000, 16000},
	mpeg1:  {44100, 48000, 32000},
}

var layerNames = [4]string{
	layer3: "MPEG Audio Layer III",
	layer2: "MPEG Audio Layer II",
	layer1: "MPEG Audio Layer I",
}

var layerCodecs = [4]string{
	layer3: "mp3",
	layer2: "mp2",
	layer1: "mp1",
}

// frameHeader is a decoded MPEG audio frame header.
type frameHeader struct {
	version    int
	layer      int
	bitrate    int // kbps
	sampleRate int
	padding    int
	channels   int
}

// parseFrameHeader decodes a 4-byte frame header, rejecting reserved
// version, layer, bitrate and sample rate indices.
func parseFrameHeader(h uint32) (frameHeader, bool) {
	if h&0xFFE00000 != 0xFFE00000 {
		return frameHeader{}, false
	}
	version := int(h>>19) & 0x3
	layer := int(h>>17) & 0x3
	bitrateIdx := int(h>>12) & 0xF
	rateIdx := int(h>>10) & 0x3
	if version == 1 || layer == 0 || bitrateIdx == 0 || bitrateIdx == 0xF || rateIdx == 3 {
		return frameHeader{}, false
	}

	v1 := 0
	if version == mpeg1 {
		v1 = 1
	}
	fh := frameHeader{
		version:    version,
		layer:      layer,
		bitrate:    bitrateTables[v1][layer][bitrateIdx],
		sampleRate: sampleRates[version][rateIdx],
		padding:    int(h>>9) & 0x1,
		channels:   2,
	}
	if (h>>6)&0x3 == 3 {
		fh.channels = 1
	}
	return fh, true
}

// samplesPerFrame returns the PCM samples carried by one frame.
func (fh frameHeader) samplesPerFrame() int {
	switch {
	case fh.layer == layer1:
		return 384
	case fh.layer == layer3 && fh.version != mpeg1:
		return 576
	}
	return 1152
}

// length returns the frame length in bytes, header included.
func (fh frameHeader) length() int {
	bps := fh.bitrate * 1000
	if fh.layer == layer1 {
		return (12*bps/fh.sampleRate + fh.padding) * 4
	}
	// MPEG-2/2.5 Layer III frames carry half the samples.
	coeff := 144
	if fh.layer == layer3 && fh.version != mpeg1 {
		coeff = 72
	}
	return coeff*bps/fh.sampleRate + fh.padding
}

// sideInfoSize is the Layer III side information size, which precedes a Xing header.
func (fh frameHeader) sideInfoSize() int64 {
	switch {
	case fh.version == mpeg1 && fh.channels == 1:
		return 17
	case fh.version == mpeg1:
		return 32
	case fh.channels == 1:
		return 9
	}
	return 17
}

// audioInfo is the stream description found by frame sync.
type audioInfo struct {
	header     frameHeader
	offset     int64 // first frame
	frameCount int64 // from a Xing/Info or VBRI header, 0 if absent
}

// syncWindow bounds how far past the tag frame sync searches.
const syncWindow = 1 << 20

// findAudio scans from start for the first frame whose successor also
// carries a sync word.
func findAudio(ctx context.Context, sr *binary.SafeReader, start int64) (*audioInfo, error) {
	end := min(sr.Size(), start+syncWindow)
	for pos := start; pos+4 <= end; pos += scanChunkSize - 3 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := min(int64(scanChunkSize), end-pos)
		chunk, err := sr.Slice(pos, n, "frame sync")
		if err != nil {
			return nil, err
		}
		for i := 0; i+4 <= len(chunk); i++ {
			if chunk[i] != 0xFF || chunk[i+1]&0xE0 != 0xE0 {
				continue
			}
			h := uint32(chunk[i])<<24 | uint32(chunk[i+1])<<16 | uint32(chunk[i+2])<<8 | uint32(chunk[i+3])
			fh, ok := parseFrameHeader(h)
			if !ok {
				continue
			}
			offset := pos + int64(i)
			if !confirmNext(sr, offset+int64(fh.length())) {
				continue
			}
			info := &audioInfo{header: fh, offset: offset}
			info.frameCount = vbrFrames(sr, offset, fh)
			return info, nil
		}
		if pos+n >= end {
			break
		}
	}
	return nil, fmt.Errorf("no MPEG audio frame found after offset %d", start)
}

// confirmNext reports whether a frame sync word starts at offset.
func confirmNext(sr *binary.SafeReader, offset int64) bool {
	if offset+4 > sr.Size() {
		return false
	}
	b, err := sr.Slice(offset, 2, "next frame sync")
	return err == nil && b[0] == 0xFF && b[1]&0xE0 == 0xE0
}

// vbrFrames reads the frame count of a Xing/Info header inside the first
// frame, or of a VBRI header 32 bytes after the frame header. Returns 0 when
// neither is present.
//
// Xing: "Xing"|"Info" [4 flags] [4 frames if flags&1] ...
// VBRI: "VBRI" [2 version] [2 delay] [2 quality] [4 bytes] [4 frames] ...
func vbrFrames(sr *binary.SafeReader, frameOffset int64, fh frameHeader) int64 {
	if fh.layer == layer3 {
		xing := frameOffset + 4 + fh.sideInfoSize()
		if tag, err := sr.Slice(xing, 12, "Xing header"); err == nil {
			if id := string(tag[:4]); id == "Xing" || id == "Info" {
				flags := uint32(tag[4])<<24 | uint32(tag[5])<<16 | uint32(tag[6])<<8 | uint32(tag[7])
				if flags&0x1 != 0 {
					return int64(uint32(tag[8])<<24 | uint32(tag[9])<<16 | uint32(tag[10])<<8 | uint32(tag[11]))
				}
				return 0
			}
		}
	}

	if frames, err := binary.Read[uint32](sr, frameOffset+4+32+14, "VBRI frame count"); err == nil {
		if id, err := sr.Slice(frameOffset+4+32, 4, "VBRI header"); err == nil && string(id) == "VBRI" {
			return int64(frames)
		}
	}
	return 0
}

// totalSamples returns the exact sample count from a VBR header, or an
// estimate from the first frame length and the remaining file size.
func (a *audioInfo) totalSamples(fileSize int64) int64 {
	spf := int64(a.header.samplesPerFrame())
	if a.frameCount > 0 {
		return a.frameCount * spf
	}
	frameLen := int64(a.header.length())
	if frameLen <= 0 || fileSize <= a.offset {
		return 0
	}
	return (fileSize - a.offset) * spf / frameLen
}
