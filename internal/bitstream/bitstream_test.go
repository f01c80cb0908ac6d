package bitstream

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseAVCC(t *testing.T) {
	p, err := ParseAVCC(avcC(h264SPS()))
	if err != nil {
		t.Fatalf("ParseAVCC failed: %v", err)
	}

	if p.Profile != "Baseline" {
		t.Errorf("Profile = %q, want Baseline", p.Profile)
	}
	if p.ProfileLevel != "3.0" {
		t.Errorf("ProfileLevel = %q, want 3.0", p.ProfileLevel)
	}
	if p.PixelFormat != "yuv420p" {
		t.Errorf("PixelFormat = %q, want yuv420p", p.PixelFormat)
	}
	if p.ChromaLocation != "left" {
		t.Errorf("ChromaLocation = %q, want left", p.ChromaLocation)
	}
	if p.NALLengthSize != 4 {
		t.Errorf("NALLengthSize = %d, want 4", p.NALLengthSize)
	}

	want := &Colour{Primaries: 1, Transfer: 1, Matrix: 1, HasRange: true}
	if diff := cmp.Diff(want, p.Colour); diff != "" {
		t.Errorf("Colour mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAVCC_TruncatedSPSKeepsProfile(t *testing.T) {
	sps := h264SPS()[:6]
	p, err := ParseAVCC(avcC(sps))
	if err == nil {
		t.Fatal("expected error for truncated SPS")
	}
	if p.Profile != "Baseline" {
		t.Errorf("Profile = %q, want Baseline", p.Profile)
	}
	if p.PixelFormat != "yuv420p" {
		t.Errorf("PixelFormat = %q, want yuv420p", p.PixelFormat)
	}
}

func TestParseAVCC_NoSPS(t *testing.T) {
	_, err := ParseAVCC([]byte{1, 66, 0, 30, 0xFF, 0xE0, 0, 0})
	if !errors.Is(err, ErrNoParameterSet) {
		t.Errorf("err = %v, want ErrNoParameterSet", err)
	}
}

func TestParseHVCC(t *testing.T) {
	p, err := ParseHVCC(hvcC(hevcSPSBits(false)))
	if err != nil {
		t.Fatalf("ParseHVCC failed: %v", err)
	}

	if p.Profile != "Main 10" {
		t.Errorf("Profile = %q, want Main 10", p.Profile)
	}
	if p.ProfileLevel != "4.0" {
		t.Errorf("ProfileLevel = %q, want 4.0", p.ProfileLevel)
	}
	if p.PixelFormat != "yuv420p10le" {
		t.Errorf("PixelFormat = %q, want yuv420p10le", p.PixelFormat)
	}
	if p.NALLengthSize != 4 {
		t.Errorf("NALLengthSize = %d, want 4", p.NALLengthSize)
	}

	want := &Colour{Primaries: 9, Transfer: 16, Matrix: 9, HasRange: true}
	if diff := cmp.Diff(want, p.Colour); diff != "" {
		t.Errorf("Colour mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHVCC_InterRefPicSet(t *testing.T) {
	p, err := ParseHVCC(hvcC(hevcSPSBits(true)))
	if !errors.Is(err, ErrUnsupportedRefPicSet) {
		t.Fatalf("err = %v, want ErrUnsupportedRefPicSet", err)
	}

	// Fields before the reference picture sets survive.
	if p.Profile != "Main 10" {
		t.Errorf("Profile = %q, want Main 10", p.Profile)
	}
	if p.PixelFormat != "yuv420p10le" {
		t.Errorf("PixelFormat = %q, want yuv420p10le", p.PixelFormat)
	}
	if p.Colour != nil {
		t.Errorf("Colour = %+v, want nil", p.Colour)
	}
}

func TestParseAV1C(t *testing.T) {
	// Main profile, level index 8, 10-bit 4:2:0
	p, err := ParseAV1C([]byte{0x81, 0x08, 0x4C, 0x00})
	if err != nil {
		t.Fatalf("ParseAV1C failed: %v", err)
	}

	if p.Profile != "Main" {
		t.Errorf("Profile = %q, want Main", p.Profile)
	}
	if p.ProfileLevel != "4.0" {
		t.Errorf("ProfileLevel = %q, want 4.0", p.ProfileLevel)
	}
	if p.PixelFormat != "yuv420p10le" {
		t.Errorf("PixelFormat = %q, want yuv420p10le", p.PixelFormat)
	}
	if p.ChromaLocation != "unspecified" {
		t.Errorf("ChromaLocation = %q, want unspecified", p.ChromaLocation)
	}
}

func TestParseAV1C_HighTier(t *testing.T) {
	// level index 13 with seq_tier_0 set, 8-bit 4:4:4
	p, err := ParseAV1C([]byte{0x81, 0x2D, 0x80, 0x00})
	if err != nil {
		t.Fatalf("ParseAV1C failed: %v", err)
	}
	if p.Profile != "High" {
		t.Errorf("Profile = %q, want High", p.Profile)
	}
	if p.ProfileLevel != "5.1 (High)" {
		t.Errorf("ProfileLevel = %q, want 5.1 (High)", p.ProfileLevel)
	}
	if p.PixelFormat != "yuv444p" {
		t.Errorf("PixelFormat = %q, want yuv444p", p.PixelFormat)
	}
}

func TestParseVPCC(t *testing.T) {
	tests := []struct {
		name       string
		payload    []byte
		profile    string
		level      string
		pixFmt     string
		wantColour *Colour
	}{
		{
			name:    "full record",
			payload: []byte{1, 0, 0, 0, 2, 31, 0xA0, 9, 16, 9, 0, 0},
			profile: "Profile 2",
			level:   "3.1",
			pixFmt:  "yuv420p10le",
			wantColour: &Colour{
				Primaries: 9, Transfer: 16, Matrix: 9, HasRange: true,
			},
		},
		{
			name:    "profile only",
			payload: []byte{1, 0, 0, 0, 2},
			profile: "Profile 2",
			pixFmt:  "yuv420p10le",
		},
		{
			name:    "8-bit 4:4:4 full range",
			payload: []byte{1, 0, 0, 0, 1, 40, 0x87, 1, 1, 1},
			profile: "Profile 1",
			level:   "4.0",
			pixFmt:  "yuv444p",
			wantColour: &Colour{
				Primaries: 1, Transfer: 1, Matrix: 1, FullRange: true, HasRange: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseVPCC(tt.payload)
			if err != nil {
				t.Fatalf("ParseVPCC failed: %v", err)
			}
			if p.Profile != tt.profile {
				t.Errorf("Profile = %q, want %q", p.Profile, tt.profile)
			}
			if p.ProfileLevel != tt.level {
				t.Errorf("ProfileLevel = %q, want %q", p.ProfileLevel, tt.level)
			}
			if p.PixelFormat != tt.pixFmt {
				t.Errorf("PixelFormat = %q, want %q", p.PixelFormat, tt.pixFmt)
			}
			if diff := cmp.Diff(tt.wantColour, p.Colour); diff != "" {
				t.Errorf("Colour mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseVPCC_TooShort(t *testing.T) {
	if _, err := ParseVPCC([]byte{1, 0, 0, 0}); err == nil {
		t.Error("expected error for record without profile")
	}
}

func TestPixelFormat(t *testing.T) {
	tests := []struct {
		chroma, depth int
		want          string
	}{
		{0, 8, "gray"},
		{1, 8, "yuv420p"},
		{1, 10, "yuv420p10le"},
		{2, 12, "yuv422p12le"},
		{3, 8, "yuv444p"},
		{7, 8, ""},
	}
	for _, tt := range tests {
		if got := PixelFormat(tt.chroma, tt.depth); got != tt.want {
			t.Errorf("PixelFormat(%d, %d) = %q, want %q", tt.chroma, tt.depth, got, tt.want)
		}
	}
}

func TestColourNames(t *testing.T) {
	if got := TransferName(16); got != "smpte2084" {
		t.Errorf("TransferName(16) = %q", got)
	}
	if got := PrimariesName(9); got != "bt2020" {
		t.Errorf("PrimariesName(9) = %q", got)
	}
	if got := MatrixName(200); got != "200" {
		t.Errorf("MatrixName(200) = %q, want decimal fallback", got)
	}
}
