package binary

import (
	"bytes"
	"errors"
	"testing"
)

func TestBitReader_ReadBits(t *testing.T) {
	br := NewBitReader([]byte{0b10110010, 0xFF})

	bit, err := br.ReadBit()
	if err != nil || bit != 1 {
		t.Fatalf("expected bit 1, got %d (%v)", bit, err)
	}
	v, err := br.ReadBits(3)
	if err != nil || v != 0b011 {
		t.Errorf("expected 0b011, got %b (%v)", v, err)
	}
	if br.ByteAligned() {
		t.Error("should not be byte aligned after 4 bits")
	}
	br.SkipToNextByte()
	if !br.ByteAligned() || br.BitsLeft() != 8 {
		t.Errorf("expected aligned with 8 bits left, got %d", br.BitsLeft())
	}
}

func TestBitReader_ExpGolomb(t *testing.T) {
	// ue: 1 -> 0, 010 -> 1, 011 -> 2, 00100 -> 3
	// se: 010 -> +1, 011 -> -1
	br := NewBitReader([]byte{0b10100110, 0b01000100, 0b11000000})

	for i, want := range []uint64{0, 1, 2, 3} {
		got, err := br.ReadUE()
		if err != nil {
			t.Fatalf("ue %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("ue %d: expected %d, got %d", i, want, got)
		}
	}

	se1, err := br.ReadSE()
	if err != nil || se1 != 1 {
		t.Errorf("expected se +1, got %d (%v)", se1, err)
	}
	se2, err := br.ReadSE()
	if err != nil || se2 != -1 {
		t.Errorf("expected se -1, got %d (%v)", se2, err)
	}
}

func TestBitReader_OutOfData(t *testing.T) {
	br := NewBitReader([]byte{0x00})

	if _, err := br.ReadUE(); !errors.Is(err, ErrOutOfData) {
		t.Errorf("expected ErrOutOfData, got %v", err)
	}
	if _, err := br.ReadBit(); !errors.Is(err, ErrOutOfData) {
		t.Errorf("expected ErrOutOfData after exhaustion, got %v", err)
	}

	br = NewBitReader([]byte{0xFF})
	if _, err := br.ReadBits(9); !errors.Is(err, ErrOutOfData) {
		t.Errorf("expected ErrOutOfData for 9 bits of 8, got %v", err)
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"no escapes", []byte{0x67, 0x42, 0x00, 0x1E}, []byte{0x67, 0x42, 0x00, 0x1E}},
		{"single escape", []byte{0x00, 0x00, 0x03, 0x01}, []byte{0x00, 0x00, 0x01}},
		{"double escape", []byte{0x00, 0x00, 0x03, 0x00, 0x00, 0x03}, []byte{0x00, 0x00, 0x00, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Unescape(tt.in)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("expected % x, got % x", tt.want, got)
			}
		})
	}
}
