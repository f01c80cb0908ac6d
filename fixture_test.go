package metaspector_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func box(typ string, payloads ...[]byte) []byte {
	buf := &bytes.Buffer{}
	size := uint32(8)
	for _, p := range payloads {
		size += uint32(len(p))
	}
	binary.Write(buf, binary.BigEndian, size)
	buf.WriteString(typ)
	for _, p := range payloads {
		buf.Write(p)
	}
	return buf.Bytes()
}

func u32(v uint32) []byte { return binary.BigEndian.AppendUint32(nil, v) }

// pngHeader is the start of a 2x3 PNG.
func pngHeader() []byte {
	return bytes.Join([][]byte{
		{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A},
		u32(13), []byte("IHDR"), u32(2), u32(3), {8, 2, 0, 0, 0}, make([]byte, 4),
	}, nil)
}

// createMP4 builds ftyp + moov with a movie header and ilst items.
func createMP4(items ...[]byte) []byte {
	ftyp := box("ftyp", []byte("isom"), u32(0x200), []byte("isommp41"))
	mvhd := box("mvhd", []byte{0, 0, 0, 0}, make([]byte, 8), u32(1000), u32(2000), make([]byte, 80))
	hdlr := box("hdlr", []byte{0, 0, 0, 0}, make([]byte, 4), []byte("mdir"), make([]byte, 12), []byte{0})
	meta := box("meta", []byte{0, 0, 0, 0}, hdlr, box("ilst", items...))
	return append(ftyp, box("moov", mvhd, box("udta", meta))...)
}

// dataAtom builds an ilst data atom of the given well-known type.
func dataAtom(typ uint32, value []byte) []byte {
	return box("data", u32(typ), make([]byte, 4), value)
}

// createFLAC builds a STREAMINFO-only FLAC: 1 second at 44.1kHz, stereo, 16-bit.
func createFLAC(audioBytes int) []byte {
	buf := &bytes.Buffer{}
	buf.WriteString("fLaC")
	buf.Write([]byte{0x80, 0, 0, 34})
	binary.Write(buf, binary.BigEndian, uint16(4096))
	binary.Write(buf, binary.BigEndian, uint16(4096))
	buf.Write(make([]byte, 6))
	packed := uint64(44100)<<44 | uint64(1)<<41 | uint64(15)<<36 | 44100
	binary.Write(buf, binary.BigEndian, packed)
	buf.Write(make([]byte, 16))
	buf.Write(make([]byte, audioBytes))
	return buf.Bytes()
}

// mp3Frame is a 417-byte MPEG-1 Layer III frame: 128 kbps, 44.1kHz, stereo.
func mp3Frame() []byte {
	f := make([]byte, 417)
	copy(f, []byte{0xFF, 0xFB, 0x90, 0x00})
	return f
}

// createMP3 builds an ID3v2.3 tag with a Latin-1 TIT2 frame followed by
// the given number of audio frames.
func createMP3(title string, frames int) []byte {
	body := append([]byte{0}, title...)
	frame := bytes.Join([][]byte{[]byte("TIT2"), u32(uint32(len(body))), {0, 0}, body}, nil)

	buf := &bytes.Buffer{}
	buf.WriteString("ID3")
	buf.Write([]byte{3, 0, 0})
	n := len(frame)
	buf.Write([]byte{byte(n >> 21 & 0x7F), byte(n >> 14 & 0x7F), byte(n >> 7 & 0x7F), byte(n & 0x7F)})
	buf.Write(frame)
	for range frames {
		buf.Write(mp3Frame())
	}
	return buf.Bytes()
}

// writeTemp writes data to a file in a per-test directory.
func writeTemp(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
