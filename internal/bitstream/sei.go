package bitstream

import (
	bin "github.com/simonhull/metaspector/internal/binary"
)

// SEI payload types carrying HDR signalling.
const (
	seiMasteringDisplay     = 137
	seiContentLightLevel    = 144
	seiAlternativeTransfer  = 147
	hevcNALPrefixSEI        = 39
	hevcNALSuffixSEI        = 40
	h264NALSEI              = 6
	masteringDisplayMinSize = 24
)

// Hints are HDR indications found in coded samples.
type Hints struct {
	// MasteringDisplay is set by a mastering display colour volume message.
	MasteringDisplay bool

	// LightLevel is set when MaxCLL and MaxFALL were found.
	LightLevel bool
	MaxCLL     int
	MaxFALL    int

	// AlternativeTransfer is preferred_transfer_characteristics, 0 when absent.
	AlternativeTransfer int
}

// Found reports whether any hint was seen.
func (h Hints) Found() bool {
	return h.MasteringDisplay || h.LightLevel || h.AlternativeTransfer != 0
}

// ScanSEI looks through the NAL units of one sample for HDR SEI messages.
//
// lengthSize is the NAL length prefix size from the configuration record;
// 0 means the sample uses Annex-B start codes.
func ScanSEI(sample []byte, lengthSize int, hevc bool) Hints {
	var nalus [][]byte
	if lengthSize == 0 {
		nalus = SplitAnnexB(sample)
	} else {
		nalus = SplitLengthPrefixed(sample, lengthSize)
	}

	var h Hints
	for _, nal := range nalus {
		if len(nal) == 0 {
			continue
		}
		var payload []byte
		if hevc {
			t := (nal[0] >> 1) & 0x3F
			if (t != hevcNALPrefixSEI && t != hevcNALSuffixSEI) || len(nal) < 2 {
				continue
			}
			payload = nal[2:]
		} else {
			if nal[0]&0x1F != h264NALSEI {
				continue
			}
			payload = nal[1:]
		}
		parseSEIMessages(bin.Unescape(payload), &h)
	}
	return h
}

func parseSEIMessages(data []byte, h *Hints) {
	pos := 0
	// A lone 0x80 byte is the RBSP trailing bits.
	for pos < len(data) && !(len(data)-pos == 1 && data[pos] == 0x80) {
		payloadType := 0
		for pos < len(data) && data[pos] == 0xFF {
			payloadType += 255
			pos++
		}
		if pos >= len(data) {
			return
		}
		payloadType += int(data[pos])
		pos++

		payloadSize := 0
		for pos < len(data) && data[pos] == 0xFF {
			payloadSize += 255
			pos++
		}
		if pos >= len(data) {
			return
		}
		payloadSize += int(data[pos])
		pos++

		if pos+payloadSize > len(data) {
			return
		}
		body := data[pos : pos+payloadSize]

		switch payloadType {
		case seiMasteringDisplay:
			if len(body) >= masteringDisplayMinSize {
				h.MasteringDisplay = true
			}
		case seiContentLightLevel:
			if len(body) >= 4 {
				h.LightLevel = true
				h.MaxCLL = int(body[0])<<8 | int(body[1])
				h.MaxFALL = int(body[2])<<8 | int(body[3])
			}
		case seiAlternativeTransfer:
			if len(body) >= 1 {
				h.AlternativeTransfer = int(body[0])
			}
		}
		pos += payloadSize
	}
}

// SplitLengthPrefixed splits a sample into NAL units using big-endian length prefixes.
// A truncated trailing unit is dropped.
func SplitLengthPrefixed(sample []byte, lengthSize int) [][]byte {
	var nalus [][]byte
	pos := 0
	for pos+lengthSize <= len(sample) {
		n := 0
		for i := 0; i < lengthSize; i++ {
			n = n<<8 | int(sample[pos+i])
		}
		pos += lengthSize
		if n <= 0 || pos+n > len(sample) {
			break
		}
		nalus = append(nalus, sample[pos:pos+n])
		pos += n
	}
	return nalus
}

// SplitAnnexB splits a byte stream on 00 00 01 and 00 00 00 01 start codes.
func SplitAnnexB(data []byte) [][]byte {
	var nalus [][]byte
	start := -1
	i := 0
	for i+3 <= len(data) {
		if data[i] == 0 && data[i+1] == 0 && data[i+2] == 1 {
			if start >= 0 {
				end := i
				if end > start && data[end-1] == 0 {
					end--
				}
				nalus = append(nalus, data[start:end])
			}
			i += 3
			start = i
			continue
		}
		i++
	}
	if start >= 0 && start < len(data) {
		nalus = append(nalus, data[start:])
	}
	return nalus
}
