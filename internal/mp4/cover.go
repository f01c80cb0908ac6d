package mp4

import "github.com/simonhull/metaspector/internal/binary"

// coverContainers are searched recursively for a covr item.
var coverContainers = map[string]bool{
	"moov": true, "udta": true, "meta": true, "ilst": true,
	"\xa9nam": true, "name": true, "titl": true,
}

// findCoverArt returns the payload of the first covr/data atom in [start, end),
// or nil.
func findCoverArt(c *binary.Cursor, start, end int64) []byte {
	var image []byte
	children(c, start, end, func(b Box) bool {
		switch {
		case coverContainers[b.Type]:
			from := b.DataOffset()
			if b.Type == "meta" {
				from += 4 // version + flags
			}
			image = findCoverArt(c, from, b.End)
		case b.Type == "covr":
			image = coverData(c, b)
		}
		return image == nil
	})
	return image
}

// coverData reads the image bytes of the first data child, after its
// [4] type and [4] locale fields.
func coverData(c *binary.Cursor, covr Box) []byte {
	data, ok := find(c, covr.DataOffset(), covr.End, "data")
	if !ok || data.DataSize() < 8 {
		return nil
	}
	raw, ok := payload(c, data, 0)
	if !ok || len(raw) == 8 {
		return nil
	}
	return raw[8:]
}
