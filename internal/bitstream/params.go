// Package bitstream parses codec configuration records (avcC, hvcC, av1C, vpcC)
// and scans coded samples for HDR signalling.
//
// Every parser returns whatever it derived before running out of data, together
// with the error that stopped it. Callers merge the partial Params and move on.
package bitstream

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/simonhull/metaspector/internal/binary"
)

// ErrUnsupportedRefPicSet stops an HEVC SPS parse at an inter-predicted
// short-term reference picture set. Fields read before it are kept.
var ErrUnsupportedRefPicSet = errors.New("bitstream: inter_ref_pic_set_prediction not supported")

// ErrNoParameterSet is returned when a configuration record carries no SPS.
var ErrNoParameterSet = errors.New("bitstream: no sequence parameter set")

// Colour holds ITU-T H.273 colour description codes.
type Colour struct {
	Primaries int
	Transfer  int
	Matrix    int

	FullRange bool
	HasRange  bool
}

// Params is the set of fields a codec configuration record yields.
type Params struct {
	Profile        string
	ProfileLevel   string
	PixelFormat    string
	ChromaLocation string

	// ChromaFormat is chroma_format_idc (0 gray, 1 4:2:0, 2 4:2:2, 3 4:4:4), -1 when unknown.
	ChromaFormat int
	BitDepth     int

	// Colour is set when the bitstream carries a colour description.
	Colour *Colour

	// Coded dimensions, when the record allows computing them.
	Width  int
	Height int

	// NALLengthSize is the size of the length prefix of each NAL unit in a sample.
	NALLengthSize int
}

func newParams() Params {
	return Params{ChromaFormat: -1}
}

// finish derives pixel_format and the default chroma location.
func (p *Params) finish() {
	if p.ChromaFormat < 0 || p.BitDepth == 0 {
		return
	}
	p.PixelFormat = PixelFormat(p.ChromaFormat, p.BitDepth)
	if p.ChromaLocation == "" && p.ChromaFormat == 1 {
		p.ChromaLocation = "left"
	}
}

// PixelFormat returns an ffmpeg-style pixel format name, or "" for an unknown chroma format.
func PixelFormat(chromaFormat, bitDepth int) string {
	base, ok := pixelBases[chromaFormat]
	if !ok {
		return ""
	}
	if bitDepth > 8 {
		return fmt.Sprintf("%s%dle", base, bitDepth)
	}
	return base
}

var pixelBases = map[int]string{
	0: "gray",
	1: "yuv420p",
	2: "yuv422p",
	3: "yuv444p",
}

// reader chains bit reads and keeps the first error.
type reader struct {
	br  *binary.BitReader
	err error
}

func newReader(data []byte) *reader {
	return &reader{br: binary.NewBitReader(data)}
}

func (r *reader) bits(n int) uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.br.ReadBits(n)
	if err != nil {
		r.err = err
	}
	return v
}

func (r *reader) flag() bool {
	return r.bits(1) == 1
}

func (r *reader) skip(n int) {
	if r.err != nil {
		return
	}
	if err := r.br.SkipBits(n); err != nil {
		r.err = err
	}
}

func (r *reader) ue() uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.br.ReadUE()
	if err != nil {
		r.err = err
	}
	return v
}

func (r *reader) se() int64 {
	if r.err != nil {
		return 0
	}
	v, err := r.br.ReadSE()
	if err != nil {
		r.err = err
	}
	return v
}

// lookup returns the table entry for code, or code in decimal.
func lookup(table map[int]string, code int) string {
	if name, ok := table[code]; ok {
		return name
	}
	return strconv.Itoa(code)
}
