package metaspector

import "testing"

func TestID3Size(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want int64
	}{
		{"synchsafe", []byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0x02, 0x01}, 257 + 10},
		{"no tag", []byte("fLaC\x00\x00\x00\x22\x10\x00"), 0},
		{"short", []byte("ID3"), 0},
	}
	for _, tt := range tests {
		if got := id3Size(tt.head); got != tt.want {
			t.Errorf("%s: id3Size = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestDefaultOptions(t *testing.T) {
	o := applyOptions(nil)
	ro := o.registryOptions()
	if !ro.DetectAtmos || !ro.ScanSEI {
		t.Errorf("expected Atmos detection and SEI scan on by default, got %+v", ro)
	}
	if ro.Logger == nil || o.remote.Logger == nil {
		t.Error("expected a default logger")
	}

	o = applyOptions([]Option{WithAtmosDetection(false), WithSEIScan(false), WithSection(SectionVideo)})
	ro = o.registryOptions()
	if ro.DetectAtmos || ro.ScanSEI {
		t.Errorf("expected both probes off, got %+v", ro)
	}
	if o.section != SectionVideo || o.sectionErr != nil {
		t.Errorf("section = %q, err = %v", o.section, o.sectionErr)
	}
}
