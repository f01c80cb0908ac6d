package flac

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/simonhull/metaspector/internal/registry"
	"github.com/simonhull/metaspector/internal/types"
)

// metadataBlock builds a block header plus body.
func metadataBlock(typ byte, last bool, body []byte) []byte {
	buf := &bytes.Buffer{}
	// Header: [is_last(1) | block_type(7)] [length(24)]
	if last {
		typ |= 0x80
	}
	buf.WriteByte(typ)
	n := len(body)
	buf.Write([]byte{byte(n >> 16), byte(n >> 8), byte(n)})
	buf.Write(body)
	return buf.Bytes()
}

// streamInfoBody builds a 34-byte STREAMINFO body.
func streamInfoBody(sampleRate, channels, bitsPerSample, totalSamples uint64) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.BigEndian, uint16(4096)) // min block size
	binary.Write(buf, binary.BigEndian, uint16(4096)) // max block size
	buf.Write(make([]byte, 6))                        // min/max frame size

	// [sample_rate(20)] [channels-1(3)] [bits-1(5)] [total_samples(36)]
	packed := (sampleRate << 44) | ((channels - 1) << 41) | ((bitsPerSample - 1) << 36) | totalSamples
	binary.Write(buf, binary.BigEndian, packed)

	buf.Write(make([]byte, 16)) // MD5
	return buf.Bytes()
}

// commentBody builds a VORBIS_COMMENT body.
func commentBody(comments ...string) []byte {
	buf := &bytes.Buffer{}
	vendor := "reference libFLAC 1.4.3"
	binary.Write(buf, binary.LittleEndian, uint32(len(vendor)))
	buf.WriteString(vendor)
	binary.Write(buf, binary.LittleEndian, uint32(len(comments)))
	for _, c := range comments {
		binary.Write(buf, binary.LittleEndian, uint32(len(c)))
		buf.WriteString(c)
	}
	return buf.Bytes()
}

// pictureBody builds a PICTURE structure.
func pictureBody(mime, desc string, width, height uint32, data []byte) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.BigEndian, uint32(3)) // front cover
	binary.Write(buf, binary.BigEndian, uint32(len(mime)))
	buf.WriteString(mime)
	binary.Write(buf, binary.BigEndian, uint32(len(desc)))
	buf.WriteString(desc)
	binary.Write(buf, binary.BigEndian, width)
	binary.Write(buf, binary.BigEndian, height)
	binary.Write(buf, binary.BigEndian, uint32(24)) // colour depth
	binary.Write(buf, binary.BigEndian, uint32(0))  // indexed colours
	binary.Write(buf, binary.BigEndian, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

// createMinimalFLAC creates a FLAC file with STREAMINFO, the given blocks and
// audioBytes of frame data.
func createMinimalFLAC(audioBytes int, blocks ...[]byte) []byte {
	buf := &bytes.Buffer{}
	buf.WriteString("fLaC")
	// 1 second at 44.1kHz, stereo, 16-bit
	buf.Write(metadataBlock(blockTypeStreamInfo, len(blocks) == 0, streamInfoBody(44100, 2, 16, 44100)))
	for _, b := range blocks {
		buf.Write(b)
	}
	buf.Write(make([]byte, audioBytes))
	return buf.Bytes()
}

func parse(t *testing.T, data []byte) *types.Result {
	t.Helper()
	p := &parser{}
	res, err := p.Parse(context.Background(), bytes.NewReader(data), int64(len(data)), "test.flac", registry.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return res
}

func TestParse_StreamInfoOnly(t *testing.T) {
	data := createMinimalFLAC(1000)
	res := parse(t, data)

	if diff := cmp.Diff(map[string]any{"has_cover_art": false}, res.Metadata.Map()); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
	if len(res.Audio) != 1 {
		t.Fatalf("expected 1 audio track, got %d", len(res.Audio))
	}

	want := map[string]any{
		"index":            0,
		"handler_name":     "Audio",
		"language":         "und",
		"codec":            "flac",
		"codec_tag_string": "FLAC (Free Lossless Audio Codec)",
		"channels":         2,
		"channel_layout":   "2.0",
		"sample_rate":      44100,
		"bits_per_sample":  16,
		"bitrate":          8000,
		"duration_seconds": 1.0,
		"total_samples":    int64(44100),
	}
	if diff := cmp.Diff(want, res.Audio[0].Map()); diff != "" {
		t.Errorf("track mismatch (-want +got):\n%s", diff)
	}
	if len(res.Video) != 0 || len(res.Subtitle) != 0 {
		t.Errorf("expected no video or subtitle tracks")
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestParse_Success(t *testing.T) {
	data := createMinimalFLAC(0,
		metadataBlock(blockTypeVorbisComment, true, commentBody(
			"TITLE=Test Song",
			"ARTIST=Test Artist",
			"ALBUM=Test Album",
			"TRACKNUMBER=3/12",
			"DATE=2024",
			"ITUNESADVISORY=2",
		)),
	)
	res := parse(t, data)

	want := map[string]any{
		"title":          "Test Song",
		"artist":         "Test Artist",
		"album":          "Test Album",
		"release_date":   "2024",
		"track_number":   3,
		"track_total":    "12",
		"itunesadvisory": "0",
		"has_cover_art":  false,
	}
	if diff := cmp.Diff(want, res.Metadata.Map()); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
	if res.Format != types.FormatFLAC {
		t.Errorf("expected FLAC format, got %v", res.Format)
	}
}

func TestParse_EmptyTags(t *testing.T) {
	data := createMinimalFLAC(0, metadataBlock(blockTypeVorbisComment, true, commentBody()))
	res := parse(t, data)

	if res.Metadata.Len() != 1 {
		t.Errorf("expected only has_cover_art, got %v", res.Metadata.Keys())
	}
}

func TestParse_Picture(t *testing.T) {
	image := []byte("\x89PNG\r\n\x1a\nfake")
	data := createMinimalFLAC(0,
		metadataBlock(blockTypePadding, false, make([]byte, 16)),
		metadataBlock(blockTypePicture, true, pictureBody("image/png", "Front", 600, 400, image)),
	)
	res := parse(t, data)

	tests := map[string]any{
		"has_cover_art":         true,
		"cover_art_mime":        "image/png",
		"cover_art_dimensions":  "600x400",
		"cover_art_description": "Front",
	}
	for key, want := range tests {
		if got, _ := res.Metadata.Get(key); got != want {
			t.Errorf("%s = %#v, want %#v", key, got, want)
		}
	}
}

func TestParse_PictureWithoutDescription(t *testing.T) {
	data := createMinimalFLAC(0,
		metadataBlock(blockTypePicture, true, pictureBody("image/jpeg", "", 1, 1, []byte{0xFF, 0xD8})),
	)
	res := parse(t, data)

	if res.Metadata.Has("cover_art_description") {
		t.Error("expected no cover_art_description for an empty description")
	}
}

func TestParse_InvalidMagic(t *testing.T) {
	data := []byte("NOTFLAC")
	p := &parser{}

	_, err := p.Parse(context.Background(), bytes.NewReader(data), int64(len(data)), "test.flac", registry.Options{})
	if err == nil {
		t.Fatal("expected error for invalid magic")
	}
	var corrupted *types.CorruptedFileError
	if !errors.As(err, &corrupted) {
		t.Errorf("expected CorruptedFileError, got %T", err)
	}
}

func TestParse_BlockPastEndOfFile(t *testing.T) {
	data := createMinimalFLAC(0, metadataBlock(blockTypeVorbisComment, true, commentBody("TITLE=Song")))
	data = data[:len(data)-4]

	res := parse(t, data)
	if len(res.Audio) != 1 {
		t.Errorf("expected STREAMINFO to survive, got %d tracks", len(res.Audio))
	}
	if res.Metadata.Has("title") {
		t.Error("expected the truncated comment block to be skipped")
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a warning for the truncated block")
	}
}

func TestParse_Cancelled(t *testing.T) {
	data := createMinimalFLAC(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &parser{}
	_, err := p.Parse(ctx, bytes.NewReader(data), int64(len(data)), "test.flac", registry.Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCoverArt_Picture(t *testing.T) {
	image := []byte("\x89PNG\r\n\x1a\nfirst")
	data := createMinimalFLAC(0,
		metadataBlock(blockTypePicture, false, pictureBody("image/png", "", 1, 1, image)),
		metadataBlock(blockTypePicture, true, pictureBody("image/png", "", 1, 1, []byte("second"))),
	)

	p := &parser{}
	got, err := p.CoverArt(context.Background(), bytes.NewReader(data), int64(len(data)), "test.flac", registry.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, image) {
		t.Errorf("expected first picture, got %q", got)
	}
}

func TestCoverArt_CommentPicture(t *testing.T) {
	image := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}
	encoded := base64.StdEncoding.EncodeToString(pictureBody("image/jpeg", "", 1, 1, image))
	data := createMinimalFLAC(0,
		metadataBlock(blockTypeVorbisComment, true, commentBody("TITLE=Song", "METADATA_BLOCK_PICTURE="+encoded)),
	)

	p := &parser{}
	got, err := p.CoverArt(context.Background(), bytes.NewReader(data), int64(len(data)), "test.flac", registry.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, image) {
		t.Errorf("expected decoded image, got %x", got)
	}

	res := parse(t, data)
	if v, _ := res.Metadata.Get("has_cover_art"); v != true {
		t.Error("expected has_cover_art from the picture comment")
	}
}

func TestCoverArt_NoPictures(t *testing.T) {
	data := createMinimalFLAC(0, metadataBlock(blockTypeVorbisComment, true, commentBody("TITLE=Song")))

	p := &parser{}
	got, err := p.CoverArt(context.Background(), bytes.NewReader(data), int64(len(data)), "test.flac", registry.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %d bytes", len(got))
	}
}

func BenchmarkParse(b *testing.B) {
	data := createMinimalFLAC(4096,
		metadataBlock(blockTypeVorbisComment, true, commentBody("TITLE=Song", "ARTIST=Band", "ALBUM=Record")),
	)
	p := &parser{}

	b.ResetTimer()
	for b.Loop() {
		if _, err := p.Parse(context.Background(), bytes.NewReader(data), int64(len(data)), "test.flac", registry.Options{}); err != nil {
			b.Fatal(err)
		}
	}
}
