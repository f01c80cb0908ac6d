package bitstream

import (
	"fmt"

	bin "github.com/simonhull/metaspector/internal/binary"
)

// ParseVPCC parses a VPCodecConfigurationRecord (the vpcC payload, including
// its four bytes of version and flags).
//
// The full record carries level, bit depth, chroma subsampling, range and
// colour codes. A short record with only a profile is treated as 8-bit 4:2:0,
// or 10-bit for profile 2.
func ParseVPCC(payload []byte) (Params, error) {
	p := newParams()
	if len(payload) < 5 {
		return p, bin.ErrOutOfData
	}
	body := payload[4:]

	profile := int(body[0])
	p.Profile = lookup(vp9Profiles, profile)

	chroma := 0
	if len(body) >= 6 {
		p.ProfileLevel = fmt.Sprintf("%.1f", float64(body[1])/10)
		p.BitDepth = int(body[2] >> 4)
		chroma = int(body[2]>>1) & 0x07
		p.Colour = &Colour{
			Primaries: int(body[3]),
			Transfer:  int(body[4]),
			Matrix:    int(body[5]),
			FullRange: body[2]&0x01 == 1,
			HasRange:  true,
		}
	} else {
		p.BitDepth = 8
		if profile == 2 {
			p.BitDepth = 10
		}
	}

	// vpcC chroma subsampling: 0 4:2:0 vertical, 1 4:2:0 colocated, 2 4:2:2, 3 4:4:4
	switch chroma {
	case 0:
		p.ChromaFormat = 1
		p.ChromaLocation = "left"
	case 1:
		p.ChromaFormat = 1
		p.ChromaLocation = "topleft"
	case 2:
		p.ChromaFormat = 2
		p.ChromaLocation = "unspecified"
	case 3:
		p.ChromaFormat = 3
		p.ChromaLocation = "unspecified"
	}
	p.PixelFormat = PixelFormat(p.ChromaFormat, p.BitDepth)
	return p, nil
}
