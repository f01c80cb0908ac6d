package imaging

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// createJPEG builds a minimal JPEG: SOI, APP0, SOF0 with dimensions, EOI.
func createJPEG(width, height uint16) []byte {
	buf := &bytes.Buffer{}
	buf.Write([]byte{0xFF, 0xD8})
	buf.Write([]byte{0xFF, 0xE0, 0x00, 0x04, 0x00, 0x00})
	buf.Write([]byte{0xFF, 0xC0, 0x00, 0x11, 0x08})
	binary.Write(buf, binary.BigEndian, height)
	binary.Write(buf, binary.BigEndian, width)
	buf.Write(make([]byte, 10))
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}

// createPNG builds a PNG signature, IHDR chunk and IEND chunk.
func createPNG(width, height uint32) []byte {
	buf := &bytes.Buffer{}
	buf.Write(pngSig)
	binary.Write(buf, binary.BigEndian, uint32(13))
	buf.WriteString("IHDR")
	binary.Write(buf, binary.BigEndian, width)
	binary.Write(buf, binary.BigEndian, height)
	buf.Write([]byte{8, 6, 0, 0, 0})
	buf.Write(make([]byte, 4)) // CRC
	binary.Write(buf, binary.BigEndian, uint32(0))
	buf.WriteString("IEND")
	buf.Write(make([]byte, 4))
	return buf.Bytes()
}

func TestDimensions(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		mime   string
		width  int
		height int
	}{
		{"jpeg", createJPEG(320, 240), "image/jpeg", 320, 240},
		{"png", createPNG(600, 400), "image/png", 600, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectMIME(tt.data); got != tt.mime {
				t.Errorf("expected MIME %s, got %s", tt.mime, got)
			}
			w, h, ok := Dimensions(tt.data)
			if !ok {
				t.Fatal("expected dimensions")
			}
			if w != tt.width || h != tt.height {
				t.Errorf("expected %dx%d, got %dx%d", tt.width, tt.height, w, h)
			}
		})
	}
}

func TestFormatDimensions_Unknown(t *testing.T) {
	if got := FormatDimensions([]byte("not an image")); got != "" {
		t.Errorf("expected empty dimensions, got %q", got)
	}
}

func TestFindStartAndTrim(t *testing.T) {
	img := createPNG(16, 16)
	data := append(append([]byte("audio frames..."), img...), []byte("trailing")...)

	start := FindStart(data)
	if start != len("audio frames...") {
		t.Fatalf("expected start %d, got %d", len("audio frames..."), start)
	}
	if got := Trim(data[start:]); !bytes.Equal(got, img) {
		t.Errorf("expected trimmed image of %d bytes, got %d", len(img), len(got))
	}

	jpeg := createJPEG(8, 8)
	if got := Trim(append(append([]byte{}, jpeg...), 0x01, 0x02)); !bytes.Equal(got, jpeg) {
		t.Errorf("expected JPEG trimmed at EOI, got %d bytes", len(got))
	}

	if FindStart([]byte("nothing here")) != -1 {
		t.Error("expected -1 when no image is present")
	}
}

func TestExtension(t *testing.T) {
	if got := Extension(createPNG(1, 1)); got != ".png" {
		t.Errorf("expected .png, got %s", got)
	}
	if got := Extension(createJPEG(1, 1)); got != ".jpg" {
		t.Errorf("expected .jpg, got %s", got)
	}
}
