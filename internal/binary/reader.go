// Package binary provides bounds-checked byte and bit reading primitives
package binary

import (
	"encoding/binary"
	"fmt"
	"io"
)

// SafeReader wraps io.ReaderAt with bounds checking and helpful error messages.
type SafeReader struct {
	r    io.ReaderAt
	path string
	size int64
}

// NewSafeReader creates a new SafeReader.
func NewSafeReader(r io.ReaderAt, size int64, path string) *SafeReader {
	return &SafeReader{
		r:    r,
		size: size,
		path: path,
	}
}

// Path returns the source path associated with this reader.
func (sr *SafeReader) Path() string {
	return sr.path
}

// Size returns the total size of the source.
func (sr *SafeReader) Size() int64 {
	return sr.size
}

// ReadAt reads bytes at the given offset with context for error messages.
func (sr *SafeReader) ReadAt(b []byte, off int64, what string) error {
	if off < 0 || off >= sr.size {
		return fmt.Errorf("%s: offset %d out of bounds (size: %d) while reading %s",
			sr.path, off, sr.size, what)
	}

	if off+int64(len(b)) > sr.size {
		return fmt.Errorf("%s: read of %d bytes at offset %d would exceed size %d while reading %s",
			sr.path, len(b), off, sr.size, what)
	}

	n, err := sr.r.ReadAt(b, off)
	if err != nil && err != io.EOF {
		return fmt.Errorf("%s: failed to read %s at offset %d: %w", sr.path, what, off, err)
	}

	if n < len(b) {
		return fmt.Errorf("%s: short read for %s at offset %d: got %d bytes, expected %d",
			sr.path, what, off, n, len(b))
	}

	return nil
}

// Slice reads length bytes at off into a fresh buffer.
func (sr *SafeReader) Slice(off, length int64, what string) ([]byte, error) {
	if length < 0 {
		return nil, fmt.Errorf("%s: negative length %d while reading %s", sr.path, length, what)
	}
	buf := make([]byte, length)
	if length == 0 {
		return buf, nil
	}
	if err := sr.ReadAt(buf, off, what); err != nil {
		return nil, err
	}
	return buf, nil
}

// Read reads a big-endian value of type T from the given offset.
func Read[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string) (T, error) {
	return ReadEndian[T](sr, off, what, BigEndian)
}

func sizeOf[T uint8 | uint16 | uint32 | uint64]() int {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

func decode[T uint8 | uint16 | uint32 | uint64](buf []byte, order binary.ByteOrder) T {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return T(buf[0])
	case uint16:
		return T(order.Uint16(buf))
	case uint32:
		return T(order.Uint32(buf))
	default:
		return T(order.Uint64(buf))
	}
}

// Cursor is a seekable position over a SafeReader that never reads past its limit.
//
// Short reads report ok=false instead of an error, so box and frame loops can
// stop on truncated input without unwinding.
type Cursor struct {
	sr    *SafeReader
	pos   int64
	limit int64
}

// NewCursor creates a Cursor positioned at offset and limited to the end of the source.
func NewCursor(sr *SafeReader, offset int64) *Cursor {
	return &Cursor{sr: sr, pos: offset, limit: sr.size}
}

// Source returns the underlying SafeReader.
func (c *Cursor) Source() *SafeReader {
	return c.sr
}

// Limit returns a copy of the cursor that cannot read at or beyond end.
// The new limit never exceeds the current one.
func (c *Cursor) Limit(end int64) *Cursor {
	if end > c.limit {
		end = c.limit
	}
	return &Cursor{sr: c.sr, pos: c.pos, limit: end}
}

// End returns the read boundary.
func (c *Cursor) End() int64 {
	return c.limit
}

// Seek moves the cursor to an absolute position.
func (c *Cursor) Seek(pos int64) {
	c.pos = pos
}

// Tell returns the current position.
func (c *Cursor) Tell() int64 {
	return c.pos
}

// Skip advances the position by n bytes.
func (c *Cursor) Skip(n int64) {
	c.pos += n
}

// Remaining returns the number of bytes between the position and the limit.
func (c *Cursor) Remaining() int64 {
	if c.pos >= c.limit {
		return 0
	}
	return c.limit - c.pos
}

// Bytes reads n bytes and advances.
func (c *Cursor) Bytes(n int64) ([]byte, bool) {
	if n < 0 || c.pos < 0 || c.pos+n > c.limit {
		return nil, false
	}
	buf, err := c.sr.Slice(c.pos, n, "cursor bytes")
	if err != nil {
		return nil, false
	}
	c.pos += n
	return buf, true
}

// String reads n bytes as a string and advances.
func (c *Cursor) String(n int64) (string, bool) {
	b, ok := c.Bytes(n)
	if !ok {
		return "", false
	}
	return string(b), true
}

// Next reads a big-endian value of type T and advances.
func Next[T uint8 | uint16 | uint32 | uint64](c *Cursor) (T, bool) {
	var zero T
	b, ok := c.Bytes(int64(sizeOf[T]()))
	if !ok {
		return zero, false
	}
	return decode[T](b, binary.BigEndian), true
}

// U8 reads one byte.
func (c *Cursor) U8() (uint8, bool) { return Next[uint8](c) }

// U16 reads a big-endian uint16.
func (c *Cursor) U16() (uint16, bool) { return Next[uint16](c) }

// U32 reads a big-endian uint32.
func (c *Cursor) U32() (uint32, bool) { return Next[uint32](c) }

// U64 reads a big-endian uint64.
func (c *Cursor) U64() (uint64, bool) { return Next[uint64](c) }

// U24 reads a big-endian 24-bit value.
func (c *Cursor) U24() (uint32, bool) {
	b, ok := c.Bytes(3)
	if !ok {
		return 0, false
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), true
}
