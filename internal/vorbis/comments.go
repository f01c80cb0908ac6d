// Package vorbis provides shared Vorbis comment parsing utilities.
//
// Vorbis comments are UTF-8 strings in "KEY=VALUE" format, prefixed by
// little-endian lengths. FLAC carries them in its VORBIS_COMMENT block.
package vorbis

import (
	"fmt"
	"strings"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/tags"
	"github.com/simonhull/metaspector/internal/types"
)

// PictureKey holds a base64-encoded FLAC PICTURE structure.
const PictureKey = "METADATA_BLOCK_PICTURE"

// keyMap maps lowercased comment names to output keys. Other names are kept
// lowercased.
var keyMap = map[string]string{
	"title":                 "title",
	"artist":                "artist",
	"album":                 "album",
	"albumartist":           "album_artist",
	"album artist":          "album_artist",
	"date":                  "release_date",
	"genre":                 "genre",
	"tracknumber":           "track_number",
	"discnumber":            "disc_number",
	"tracktotal":            "track_total",
	"totaltracks":           "track_total",
	"disctotal":             "disc_total",
	"totaldiscs":            "disc_total",
	"comment":               "comment",
	"composer":              "composer",
	"lyrics":                "lyrics",
	"unsyncedlyrics":        "lyrics",
	"performer":             "performer",
	"description":           "description",
	"organization":          "record_company",
	"label":                 "record_company",
	"isrc":                  "isrc",
	"barcode":               "barcode",
	"upc":                   "upc",
	"media":                 "media_type",
	"encoder":               "encoder",
	"language":              "language",
	"bpm":                   "tempo",
	"copyright":             "copyright",
	"publisher":             "publisher",
	"itunesadvisory":        "itunesadvisory",
	"replaygain_track_gain": "replaygain_track_gain",
	"replaygain_track_peak": "replaygain_track_peak",
	"replaygain_album_gain": "replaygain_album_gain",
	"replaygain_album_peak": "replaygain_album_peak",
}

// Comment is one "KEY=VALUE" pair.
type Comment struct {
	Key   string
	Value string
}

// ParseComment splits a comment in "KEY=VALUE" format.
//
// Returns an error if the comment has no '='.
func ParseComment(comment string) (Comment, error) {
	key, value, ok := strings.Cut(comment, "=")
	if !ok {
		return Comment{}, fmt.Errorf("missing '=' in comment: %s", comment)
	}
	return Comment{Key: key, Value: value}, nil
}

// Block is a decoded VORBIS_COMMENT block.
type Block struct {
	Vendor   string
	Comments []Comment

	// Invalid counts entries without '='.
	Invalid int
}

// ReadBlock reads a comment block in [offset, end).
//
// Structure (lengths little-endian):
//
//	[4 bytes] vendor length, [N bytes] vendor string
//	[4 bytes] comment count
//	repeated: [4 bytes] length, [N bytes] "KEY=VALUE"
//
// A comment that would run past end stops the loop; the comments read so far
// are returned with the error.
func ReadBlock(sr *binary.SafeReader, offset, end int64) (*Block, error) {
	block := &Block{}
	pos := offset

	vendorLength, err := binary.ReadLE[uint32](sr, pos, "vendor string length")
	if err != nil {
		return block, err
	}
	pos += 4
	if pos+int64(vendorLength) > end {
		return block, fmt.Errorf("vendor string exceeds block")
	}
	vendor, err := sr.Slice(pos, int64(vendorLength), "vendor string")
	if err != nil {
		return block, err
	}
	block.Vendor = strings.ToValidUTF8(string(vendor), "�")
	pos += int64(vendorLength)

	count, err := binary.ReadLE[uint32](sr, pos, "number of comments")
	if err != nil {
		return block, err
	}
	pos += 4

	for i := uint32(0); i < count; i++ {
		if pos+4 > end {
			return block, fmt.Errorf("comment %d header exceeds block", i)
		}
		length, err := binary.ReadLE[uint32](sr, pos, "comment length")
		if err != nil {
			return block, fmt.Errorf("read comment %d length: %w", i, err)
		}
		pos += 4
		if pos+int64(length) > end {
			return block, fmt.Errorf("comment %d exceeds block", i)
		}
		data, err := sr.Slice(pos, int64(length), fmt.Sprintf("comment %d", i))
		if err != nil {
			return block, fmt.Errorf("read comment %d: %w", i, err)
		}
		pos += int64(length)

		c, err := ParseComment(strings.ToValidUTF8(string(data), "�"))
		if err != nil {
			block.Invalid++
			continue
		}
		block.Comments = append(block.Comments, c)
	}
	return block, nil
}

// Apply stores one comment under its output key.
//
// A composite "N/M" track or disc number is split into an int number and a
// total. Tempo, track and disc numbers that parse as integers become ints.
// The picture comment only flags cover art.
func Apply(f *types.Fields, c Comment) {
	if strings.EqualFold(c.Key, PictureKey) {
		f.Set("has_cover_art", true)
		return
	}

	name := strings.ToLower(c.Key)
	key, ok := keyMap[name]
	if !ok {
		key = name
	}

	switch key {
	case "track_number", "disc_number":
		if strings.Contains(c.Value, "/") {
			tags.SetNumberPair(f, key, strings.Replace(key, "_number", "_total", 1), c.Value)
			return
		}
		setInt(f, key, c.Value)
	case "track_total", "disc_total":
		f.Set(key, strings.TrimSpace(c.Value))
	case "tempo":
		if n, ok := tags.Tempo(c.Value); ok {
			f.Set(key, n)
			return
		}
		f.Set(key, c.Value)
	default:
		f.Set(key, c.Value)
	}
}

// setInt stores value as an int when it parses as one.
func setInt(f *types.Fields, key, value string) {
	if n, ok := tags.ToInt(value); ok {
		f.Set(key, n)
		return
	}
	f.Set(key, value)
}
