package binary

import "errors"

// ErrOutOfData is returned when a bit read runs past the end of the buffer.
var ErrOutOfData = errors.New("bitstream: out of data")

// BitReader reads MSB-first bit fields from a byte slice.
type BitReader struct {
	data []byte
	pos  int // bit position
}

// NewBitReader creates a BitReader over data.
func NewBitReader(data []byte) *BitReader {
	return &BitReader{data: data}
}

// ReadBit reads a single bit.
func (br *BitReader) ReadBit() (uint, error) {
	if br.pos >= len(br.data)*8 {
		return 0, ErrOutOfData
	}
	b := br.data[br.pos>>3]
	bit := (b >> (7 - uint(br.pos&7))) & 1
	br.pos++
	return uint(bit), nil
}

// ReadFlag reads a single bit as a bool.
func (br *BitReader) ReadFlag() (bool, error) {
	bit, err := br.ReadBit()
	return bit == 1, err
}

// ReadBits reads n bits (n <= 64) as an unsigned value.
func (br *BitReader) ReadBits(n int) (uint64, error) {
	if n < 0 || n > 64 {
		return 0, ErrOutOfData
	}
	if br.BitsLeft() < n {
		br.pos = len(br.data) * 8
		return 0, ErrOutOfData
	}
	var v uint64
	for i := 0; i < n; i++ {
		bit, _ := br.ReadBit()
		v = v<<1 | uint64(bit)
	}
	return v, nil
}

// SkipBits advances n bits.
func (br *BitReader) SkipBits(n int) error {
	if br.BitsLeft() < n {
		br.pos = len(br.data) * 8
		return ErrOutOfData
	}
	br.pos += n
	return nil
}

// ReadUE reads an unsigned Exp-Golomb code.
func (br *BitReader) ReadUE() (uint64, error) {
	zeros := 0
	for {
		bit, err := br.ReadBit()
		if err != nil {
			return 0, err
		}
		if bit == 1 {
			break
		}
		zeros++
		if zeros > 31 {
			return 0, ErrOutOfData
		}
	}
	if zeros == 0 {
		return 0, nil
	}
	rest, err := br.ReadBits(zeros)
	if err != nil {
		return 0, err
	}
	return (1<<uint(zeros) - 1) + rest, nil
}

// ReadSE reads a signed Exp-Golomb code.
func (br *BitReader) ReadSE() (int64, error) {
	v, err := br.ReadUE()
	if err != nil {
		return 0, err
	}
	if v&1 == 1 {
		return int64((v + 1) / 2), nil
	}
	return -int64(v / 2), nil
}

// ByteAligned reports whether the position is on a byte boundary.
func (br *BitReader) ByteAligned() bool {
	return br.pos&7 == 0
}

// SkipToNextByte advances to the next byte boundary.
func (br *BitReader) SkipToNextByte() {
	if !br.ByteAligned() {
		br.pos += 8 - br.pos&7
	}
}

// BitsLeft returns the number of unread bits.
func (br *BitReader) BitsLeft() int {
	left := len(br.data)*8 - br.pos
	if left < 0 {
		return 0
	}
	return left
}

// BytePos returns the index of the byte holding the next unread bit.
func (br *BitReader) BytePos() int {
	return br.pos >> 3
}

// Unescape removes emulation prevention bytes (00 00 03 -> 00 00) from a NAL unit.
func Unescape(nal []byte) []byte {
	out := make([]byte, 0, len(nal))
	zeros := 0
	for _, b := range nal {
		if zeros >= 2 && b == 0x03 {
			zeros = 0
			continue
		}
		out = append(out, b)
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return out
}
