package vorbis

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"

	audiobinary "github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/types"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		key     string
		want    any
	}{
		{"title", "TITLE=Test Song", "title", "Test Song"},
		{"artist", "ARTIST=Test Artist", "artist", "Test Artist"},
		{"album artist", "ALBUMARTIST=Various Artists", "album_artist", "Various Artists"},
		{"date", "DATE=2024-05-15", "release_date", "2024-05-15"},
		{"lowercase key", "album=Test Album", "album", "Test Album"},
		{"track number", "TRACKNUMBER=5", "track_number", 5},
		{"track total", "TRACKTOTAL=12", "track_total", "12"},
		{"totaltracks", "TOTALTRACKS=15", "track_total", "15"},
		{"disc number", "DISCNUMBER=2", "disc_number", 2},
		{"totaldiscs", "TOTALDISCS=4", "disc_total", "4"},
		{"bpm", "BPM=119.6", "tempo", 119},
		{"organization", "ORGANIZATION=Sony Music", "record_company", "Sony Music"},
		{"media", "MEDIA=CD", "media_type", "CD"},
		{"replaygain", "REPLAYGAIN_TRACK_GAIN=-6.50 dB", "replaygain_track_gain", "-6.50 dB"},
		{"value with equals", "COMMENT=x=y=z", "comment", "x=y=z"},
		{"unknown key", "CUSTOMTAG=CustomValue", "customtag", "CustomValue"},
		{"invalid track number", "TRACKNUMBER=abc", "track_number", "abc"},
		{"picture flags cover art", "METADATA_BLOCK_PICTURE=AAAA", "has_cover_art", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := ParseComment(tc.comment)
			if err != nil {
				t.Fatalf("ParseComment() error = %v", err)
			}
			f := types.NewFields()
			Apply(f, c)

			got, ok := f.Get(tc.key)
			if !ok {
				t.Fatalf("key %q not set, got %v", tc.key, f.Keys())
			}
			if got != tc.want {
				t.Errorf("%s = %#v, want %#v", tc.key, got, tc.want)
			}
		})
	}
}

func TestApply_CompositeTrackNumber(t *testing.T) {
	f := types.NewFields()
	Apply(f, Comment{Key: "TRACKNUMBER", Value: "3/12"})

	want := map[string]any{"track_number": 3, "track_total": "12"}
	if diff := cmp.Diff(want, f.Map()); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_PictureIsNotStored(t *testing.T) {
	f := types.NewFields()
	Apply(f, Comment{Key: "metadata_block_picture", Value: "AAAA"})

	if diff := cmp.Diff([]string{"has_cover_art"}, f.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestParseComment_InvalidFormat(t *testing.T) {
	if _, err := ParseComment("NOEQUALSIGN"); err == nil {
		t.Error("ParseComment() should return error for comment without '='")
	}
}

func TestParseComment_EmptyValue(t *testing.T) {
	c, err := ParseComment("TITLE=")
	if err != nil {
		t.Fatalf("ParseComment() error = %v, want nil for empty value", err)
	}
	if c.Key != "TITLE" || c.Value != "" {
		t.Errorf("ParseComment() = %+v, want TITLE with empty value", c)
	}
}

// commentBlock builds a VORBIS_COMMENT body.
func commentBlock(vendor string, comments ...string) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, uint32(len(vendor)))
	buf.WriteString(vendor)
	binary.Write(buf, binary.LittleEndian, uint32(len(comments)))
	for _, c := range comments {
		binary.Write(buf, binary.LittleEndian, uint32(len(c)))
		buf.WriteString(c)
	}
	return buf.Bytes()
}

func TestReadBlock(t *testing.T) {
	data := commentBlock("reference libFLAC 1.4.3", "TITLE=Song", "BROKEN", "ARTIST=Band")
	sr := audiobinary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.flac")

	block, err := ReadBlock(sr, 0, int64(len(data)))
	if err != nil {
		t.Fatalf("ReadBlock() error = %v", err)
	}
	if block.Vendor != "reference libFLAC 1.4.3" {
		t.Errorf("Vendor = %q", block.Vendor)
	}
	want := []Comment{{"TITLE", "Song"}, {"ARTIST", "Band"}}
	if diff := cmp.Diff(want, block.Comments); diff != "" {
		t.Errorf("comments mismatch (-want +got):\n%s", diff)
	}
	if block.Invalid != 1 {
		t.Errorf("Invalid = %d, want 1", block.Invalid)
	}
}

func TestReadBlock_CommentPastEnd(t *testing.T) {
	data := commentBlock("v", "TITLE=Song", "ARTIST=Band")
	sr := audiobinary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.flac")

	// Cut the block in the middle of the second comment.
	block, err := ReadBlock(sr, 0, int64(len(data)-3))
	if err == nil {
		t.Fatal("expected an error for a comment past the block end")
	}
	if len(block.Comments) != 1 || block.Comments[0].Value != "Song" {
		t.Errorf("expected the first comment to survive, got %+v", block.Comments)
	}
}
