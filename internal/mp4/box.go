// Package mp4 parses ISO base media files (MP4, M4A, M4V, MOV)
package mp4

import (
	"github.com/simonhull/metaspector/internal/binary"
)

// Box describes one ISO-BMFF box (atom).
type Box struct {
	Type       string // 4-character type code
	Size       int64  // Total size including header
	Start      int64  // Position of the size field
	End        int64  // Start + Size, or the enclosing limit for size 0
	HeaderSize int64  // 8, or 16 with a 64-bit extended size
}

// DataOffset returns the position of the box payload.
func (b Box) DataOffset() int64 {
	return b.Start + b.HeaderSize
}

// DataSize returns the payload size.
func (b Box) DataSize() int64 {
	if b.End < b.DataOffset() {
		return 0
	}
	return b.End - b.DataOffset()
}

// minBoxHeader is the size of a compact box header.
const minBoxHeader = 8

// readBox reads a box header at pos.
//
// A size of 1 means a 64-bit size follows the type; a size of 0 means the box
// runs to limit. Returns false on a short read or a size below 8.
func readBox(c *binary.Cursor, pos, limit int64) (Box, bool) {
	c.Seek(pos)

	size32, ok := c.U32()
	if !ok {
		return Box{}, false
	}
	typ, ok := c.String(4)
	if !ok {
		return Box{}, false
	}

	box := Box{Type: typ, Start: pos, HeaderSize: minBoxHeader}

	switch size32 {
	case 0:
		box.Size = limit - pos
		box.End = limit
		if box.Size < minBoxHeader {
			return Box{}, false
		}
		return box, true
	case 1:
		size64, ok := c.U64()
		if !ok {
			return Box{}, false
		}
		box.Size = int64(size64)
		box.HeaderSize = 16
	default:
		box.Size = int64(size32)
	}

	// Validate box size
	if box.Size < minBoxHeader || box.Size < box.HeaderSize {
		return Box{}, false
	}
	box.End = pos + box.Size
	return box, true
}

// children calls fn for each child box in [start, end) until fn returns false.
//
// No child is trusted beyond its parent: the walk stops at the first header
// that cannot be read or whose end exceeds end. The returned offset is where
// such a child starts, or -1 when the walk finished cleanly.
func children(c *binary.Cursor, start, end int64, fn func(Box) bool) int64 {
	pos := start
	for pos < end {
		// Trailing padding shorter than a header (e.g. a udta terminator)
		if end-pos < minBoxHeader {
			return -1
		}
		box, ok := readBox(c, pos, end)
		if !ok || box.End > end {
			return pos
		}
		if !fn(box) {
			return -1
		}
		pos = box.End
	}
	return -1
}

// find returns the first child of type typ in [start, end).
func find(c *binary.Cursor, start, end int64, typ string) (Box, bool) {
	var found Box
	var ok bool
	children(c, start, end, func(b Box) bool {
		if b.Type == typ {
			found, ok = b, true
			return false
		}
		return true
	})
	return found, ok
}

// payload reads a box's payload, capped at limit bytes when limit > 0.
func payload(c *binary.Cursor, b Box, limit int64) ([]byte, bool) {
	n := b.DataSize()
	if limit > 0 && n > limit {
		n = limit
	}
	c.Seek(b.DataOffset())
	return c.Bytes(n)
}
