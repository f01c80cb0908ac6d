package bitstream

import (
	"fmt"

	"github.com/bluenviron/mediacommon/pkg/codecs/av1"

	bin "github.com/simonhull/metaspector/internal/binary"
)

const av1OBUMetadata = 5

// AV1 metadata_type values.
const (
	av1MetadataHDRCLL  = 1
	av1MetadataHDRMDCV = 2
)

// ParseAV1C parses an AV1CodecConfigurationRecord (the av1C payload).
//
// Profile, level, bit depth and chroma come from the fixed four-byte header.
// When the trailing configOBUs hold a sequence header, it also supplies the
// maximum frame size and the colour description.
func ParseAV1C(payload []byte) (Params, error) {
	p := newParams()
	if len(payload) < 4 {
		return p, bin.ErrOutOfData
	}

	r := newReader(payload)
	r.skip(1) // marker
	r.skip(7) // version
	seqProfile := int(r.bits(3))
	seqLevelIdx := int(r.bits(5))
	seqTier := r.bits(1)
	highBitdepth := r.flag()
	twelveBit := r.flag()
	monochrome := r.flag()
	subX := r.bits(1)
	subY := r.bits(1)
	samplePosition := int(r.bits(2))
	if r.err != nil {
		return p, r.err
	}

	p.Profile = lookup(av1Profiles, seqProfile)
	p.ProfileLevel = fmt.Sprintf("%d.%d", (seqLevelIdx>>2)+2, seqLevelIdx&3)
	if seqTier == 1 {
		p.ProfileLevel += " (High)"
	}

	p.BitDepth = 8
	if highBitdepth {
		p.BitDepth = 10
		if twelveBit {
			p.BitDepth = 12
		}
	}

	switch {
	case monochrome:
		p.ChromaFormat = 0
	case subX == 1 && subY == 1:
		p.ChromaFormat = 1
	case subX == 1 && subY == 0:
		p.ChromaFormat = 2
	case subX == 0 && subY == 0:
		p.ChromaFormat = 3
	}
	if p.ChromaFormat >= 0 {
		p.PixelFormat = PixelFormat(p.ChromaFormat, p.BitDepth)
	}

	p.ChromaLocation = "unspecified"
	if name, ok := av1ChromaLocations[samplePosition]; ok {
		p.ChromaLocation = name
	}

	if len(payload) > 4 {
		applySequenceHeader(payload[4:], &p)
	}
	return p, nil
}

func applySequenceHeader(obu []byte, p *Params) {
	var header av1.OBUHeader
	if err := header.Unmarshal(obu); err != nil || header.Type != av1.OBUTypeSequenceHeader {
		return
	}

	var seq av1.SequenceHeader
	if err := seq.Unmarshal(obu); err != nil {
		return
	}
	p.Width = seq.Width()
	p.Height = seq.Height()

	cc := seq.ColorConfig
	if cc.ColorDescriptionPresentFlag {
		p.Colour = &Colour{
			Primaries: int(cc.ColorPrimaries),
			Transfer:  int(cc.TransferCharacteristics),
			Matrix:    int(cc.MatrixCoefficients),
			FullRange: cc.ColorRange,
			HasRange:  true,
		}
	}
}

// ScanAV1Metadata walks the OBUs of an AV1 sample looking for HDR metadata OBUs.
func ScanAV1Metadata(sample []byte) Hints {
	var h Hints
	pos := 0
	for pos < len(sample) {
		b := sample[pos]
		if b&0x80 != 0 { // forbidden bit
			break
		}
		var header av1.OBUHeader
		// Unmarshal rejects extension headers but still sets the type.
		_ = header.Unmarshal([]byte{b})
		hasExtension := b&0x04 != 0
		hasSize := b&0x02 != 0

		pos++
		if hasExtension {
			pos++
		}
		if pos > len(sample) {
			break
		}

		size := len(sample) - pos
		if hasSize {
			n, read, err := av1.LEB128Unmarshal(sample[pos:])
			if err != nil {
				break
			}
			pos += read
			size = int(n)
		}
		if size < 0 || pos+size > len(sample) {
			break
		}

		if header.Type == av1.OBUType(av1OBUMetadata) {
			parseAV1Metadata(sample[pos:pos+size], &h)
		}
		pos += size
	}
	return h
}

func parseAV1Metadata(obu []byte, h *Hints) {
	metadataType, read, err := av1.LEB128Unmarshal(obu)
	if err != nil {
		return
	}
	body := obu[read:]
	switch metadataType {
	case av1MetadataHDRCLL:
		if len(body) >= 4 {
			h.LightLevel = true
			h.MaxCLL = int(body[0])<<8 | int(body[1])
			h.MaxFALL = int(body[2])<<8 | int(body[3])
		}
	case av1MetadataHDRMDCV:
		if len(body) >= 24 {
			h.MasteringDisplay = true
		}
	}
}
