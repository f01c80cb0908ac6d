package mp4

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/simonhull/metaspector/internal/registry"
	"github.com/simonhull/metaspector/internal/types"
)

// box builds a box with a compact header around the concatenated payloads.
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

// fullBox builds a box whose payload starts with version and flags.
func fullBox(typ string, version byte, payloads ...[]byte) []byte {
	return box(typ, append([][]byte{{version, 0, 0, 0}}, payloads...)...)
}

func u16(v uint16) []byte { return binary.BigEndian.AppendUint16(nil, v) }
func u32(v uint32) []byte { return binary.BigEndian.AppendUint32(nil, v) }

func zeros(n int) []byte { return make([]byte, n) }

func cat(parts ...[]byte) []byte { return bytes.Join(parts, nil) }

func ftyp() []byte {
	return box("ftyp", []byte("isom"), u32(0x200), []byte("isommp41"))
}

func mvhd(timescale, duration uint32) []byte {
	return fullBox("mvhd", 0, zeros(8), u32(timescale), u32(duration), zeros(80))
}

func tkhd(id uint32) []byte {
	return fullBox("tkhd", 0, zeros(8), u32(id), zeros(68))
}

// packLanguage packs a three-letter code as 5-bit letters.
func packLanguage(code string) uint16 {
	return uint16(code[0]-0x60)<<10 | uint16(code[1]-0x60)<<5 | uint16(code[2]-0x60)
}

func mdhd(timescale, duration uint32, lang string) []byte {
	return fullBox("mdhd", 0, zeros(8), u32(timescale), u32(duration), u16(packLanguage(lang)), zeros(2))
}

func hdlr(handler, name string) []byte {
	return fullBox("hdlr", 0, zeros(4), []byte(handler), zeros(12), []byte(name), []byte{0})
}

// stbl wraps a sample entry with an stsd and optional sample tables.
func stbl(entry []byte, tables ...[]byte) []byte {
	stsd := fullBox("stsd", 0, u32(1), entry)
	return box("stbl", append([][]byte{stsd}, tables...)...)
}

// stsz builds a per-sample size table.
func stsz(sizes ...uint32) []byte {
	parts := [][]byte{u32(0), u32(uint32(len(sizes)))}
	for _, s := range sizes {
		parts = append(parts, u32(s))
	}
	return fullBox("stsz", 0, parts...)
}

func stco(offsets ...uint32) []byte {
	parts := [][]byte{u32(uint32(len(offsets)))}
	for _, o := range offsets {
		parts = append(parts, u32(o))
	}
	return fullBox("stco", 0, parts...)
}

// trak assembles a track from its header boxes and an stbl.
func trak(id uint32, handler string, timescale, duration uint32, lang string, stblBox []byte, extra ...[]byte) []byte {
	mdia := box("mdia",
		mdhd(timescale, duration, lang),
		hdlr(handler, "Core Media "+handler),
		box("minf", stblBox),
	)
	return box("trak", append([][]byte{tkhd(id), mdia}, extra...)...)
}

// soundEntry builds a version 0 sound sample entry.
func soundEntry(fourcc string, channels, bits uint16, rate uint32, children ...[]byte) []byte {
	return box(fourcc, append([][]byte{
		zeros(6), u16(1), // reserved, data_reference_index
		u16(0), zeros(6), // version, revision + vendor
		u16(channels), u16(bits),
		zeros(4),
		u32(rate << 16),
	}, children...)...)
}

// visualEntry builds a visual sample entry.
func visualEntry(fourcc string, width, height uint16, children ...[]byte) []byte {
	return box(fourcc, append([][]byte{
		zeros(6), u16(1),
		zeros(16),
		u16(width), u16(height),
		zeros(50),
	}, children...)...)
}

// colrNCLX builds an nclx colour box.
func colrNCLX(primaries, transfer, matrix uint16, full bool) []byte {
	flag := byte(0)
	if full {
		flag = 0x80
	}
	return box("colr", []byte("nclx"), u16(primaries), u16(transfer), u16(matrix), []byte{flag})
}

// dataAtom builds an ilst data atom of the given well-known type.
func dataAtom(typ uint32, value []byte) []byte {
	return box("data", u32(typ), zeros(4), value)
}

// ilstMeta wraps items in udta/meta/ilst.
func ilstMeta(items ...[]byte) []byte {
	return box("udta", fullBox("meta", 0,
		hdlr("mdir", ""),
		box("ilst", items...),
	))
}

// pngHeader is the start of a 2x3 PNG.
func pngHeader() []byte {
	return cat(
		[]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A},
		u32(13), []byte("IHDR"), u32(2), u32(3), []byte{8, 2, 0, 0, 0}, zeros(4),
	)
}

// parse runs the MP4 parser over an in-memory file.
func parse(t *testing.T, data []byte) *types.Result {
	t.Helper()
	p := &parser{}
	res, err := p.Parse(context.Background(), bytes.NewReader(data), int64(len(data)), "test.mp4", registry.Options{DetectAtmos: true, ScanSEI: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return res
}

// field returns a field or fails the test.
func field(t *testing.T, f *types.Fields, key string) any {
	t.Helper()
	v, ok := f.Get(key)
	if !ok {
		t.Fatalf("missing field %q in %v", key, f.Keys())
	}
	return v
}
