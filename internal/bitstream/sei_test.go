package bitstream

import (
	"bytes"
	"testing"
)

func lengthPrefixed(nalus ...[]byte) []byte {
	var out []byte
	for _, n := range nalus {
		out = append(out, byte(len(n)>>24), byte(len(n)>>16), byte(len(n)>>8), byte(len(n)))
		out = append(out, n...)
	}
	return out
}

func hevcSEINAL() []byte {
	nal := []byte{0x4E, 0x01} // prefix SEI

	nal = append(nal, seiMasteringDisplay, masteringDisplayMinSize)
	nal = append(nal, bytes.Repeat([]byte{0x11}, masteringDisplayMinSize)...)

	nal = append(nal, seiContentLightLevel, 4, 0x03, 0xE8, 0x01, 0x90)
	return append(nal, 0x80)
}

func TestScanSEI_HEVC(t *testing.T) {
	sample := lengthPrefixed(
		[]byte{0x40, 0x01, 0x0C}, // VPS, ignored
		hevcSEINAL(),
	)

	h := ScanSEI(sample, 4, true)
	if !h.MasteringDisplay {
		t.Error("MasteringDisplay = false, want true")
	}
	if !h.LightLevel || h.MaxCLL != 1000 || h.MaxFALL != 400 {
		t.Errorf("light level = %v %d/%d, want true 1000/400", h.LightLevel, h.MaxCLL, h.MaxFALL)
	}
	if !h.Found() {
		t.Error("Found() = false")
	}
}

func TestScanSEI_H264AnnexB(t *testing.T) {
	sei := []byte{0x06, seiAlternativeTransfer, 1, 18, 0x80}
	stream := append([]byte{0, 0, 0, 1, 0x09, 0xF0}, 0, 0, 1)
	stream = append(stream, sei...)

	h := ScanSEI(stream, 0, false)
	if h.AlternativeTransfer != 18 {
		t.Errorf("AlternativeTransfer = %d, want 18", h.AlternativeTransfer)
	}
	if h.MasteringDisplay || h.LightLevel {
		t.Errorf("unexpected hints: %+v", h)
	}
}

func TestScanSEI_ShortMasteringDisplayIgnored(t *testing.T) {
	nal := []byte{0x4E, 0x01, seiMasteringDisplay, 4, 1, 2, 3, 4, 0x80}
	h := ScanSEI(lengthPrefixed(nal), 4, true)
	if h.Found() {
		t.Errorf("Found() = true for short payload: %+v", h)
	}
}

func TestSplitLengthPrefixed(t *testing.T) {
	sample := lengthPrefixed([]byte{1, 2}, []byte{3})
	sample = append(sample, 0, 0, 0, 9, 4) // truncated

	nalus := SplitLengthPrefixed(sample, 4)
	if len(nalus) != 2 {
		t.Fatalf("got %d NAL units, want 2", len(nalus))
	}
	if !bytes.Equal(nalus[0], []byte{1, 2}) || !bytes.Equal(nalus[1], []byte{3}) {
		t.Errorf("nalus = %v", nalus)
	}
}

func TestSplitAnnexB(t *testing.T) {
	data := []byte{0, 0, 0, 1, 0x67, 0x42, 0, 0, 1, 0x68, 0xCE, 0, 0, 0, 1, 0x65}
	nalus := SplitAnnexB(data)

	want := [][]byte{{0x67, 0x42}, {0x68, 0xCE}, {0x65}}
	if len(nalus) != len(want) {
		t.Fatalf("got %d NAL units, want %d", len(nalus), len(want))
	}
	for i := range want {
		if !bytes.Equal(nalus[i], want[i]) {
			t.Errorf("nalu[%d] = %x, want %x", i, nalus[i], want[i])
		}
	}
}

func TestScanAV1Metadata(t *testing.T) {
	var sample []byte
	sample = append(sample, 0x12, 0x00) // temporal delimiter

	// metadata OBU, HDR CLL
	sample = append(sample, 0x2A, 5, av1MetadataHDRCLL, 0x03, 0xE8, 0x01, 0x90)

	// metadata OBU, HDR MDCV
	mdcv := append([]byte{av1MetadataHDRMDCV}, bytes.Repeat([]byte{0x22}, 24)...)
	sample = append(sample, 0x2A, byte(len(mdcv)))
	sample = append(sample, mdcv...)

	h := ScanAV1Metadata(sample)
	if !h.MasteringDisplay {
		t.Error("MasteringDisplay = false, want true")
	}
	if h.MaxCLL != 1000 || h.MaxFALL != 400 {
		t.Errorf("MaxCLL/MaxFALL = %d/%d, want 1000/400", h.MaxCLL, h.MaxFALL)
	}
}

func TestScanAV1Metadata_ForbiddenBit(t *testing.T) {
	h := ScanAV1Metadata([]byte{0xAA, 0x05, 1, 0, 1, 0, 1})
	if h.Found() {
		t.Errorf("Found() = true: %+v", h)
	}
}
