// Package flac parses FLAC metadata blocks: STREAMINFO, VORBIS_COMMENT and PICTURE.
package flac

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/registry"
	"github.com/simonhull/metaspector/internal/tags"
	"github.com/simonhull/metaspector/internal/types"
	"github.com/simonhull/metaspector/internal/vorbis"
)

// Metadata block types
const (
	blockTypeStreamInfo    = 0
	blockTypePadding       = 1
	blockTypeApplication   = 2
	blockTypeSeekTable     = 3
	blockTypeVorbisComment = 4
	blockTypeCueSheet      = 5
	blockTypePicture       = 6
)

const streamInfoSize = 34

// channelLayouts maps the STREAMINFO channel count to a layout name.
var channelLayouts = map[int]string{
	1: "1.0", 2: "2.0", 3: "3.0", 4: "4.0",
	5: "5.0", 6: "5.1", 7: "6.1", 8: "7.1",
}

// parser implements registry.FormatParser and registry.CoverArtExtractor
type parser struct{}

// block is one metadata block header.
type block struct {
	isLast bool
	typ    uint8
	offset int64 // start of the block body
	length int64
}

// blocks calls fn for each metadata block after the magic until fn returns
// false, the last block is reached, or a header cannot be read. A block whose
// body would run past the end of the file ends the loop.
func blocks(sr *binary.SafeReader, fn func(block) bool) error {
	offset := int64(4) // After "fLaC"
	for offset < sr.Size() {
		// Header: [is_last(1) | block_type(7)] [length(24)]
		header, err := binary.Read[uint32](sr, offset, "metadata block header")
		if err != nil {
			return err
		}
		b := block{
			isLast: header>>31 == 1,
			typ:    uint8((header >> 24) & 0x7F),
			offset: offset + 4,
			length: int64(header & 0x00FFFFFF),
		}
		if b.offset+b.length > sr.Size() {
			return fmt.Errorf("block type %d at offset %d exceeds file size", b.typ, offset)
		}
		if !fn(b) || b.isLast {
			return nil
		}
		offset = b.offset + b.length
	}
	return nil
}

// checkMagic verifies the "fLaC" marker.
func checkMagic(sr *binary.SafeReader, path string) error {
	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "FLAC magic bytes"); err != nil {
		return fmt.Errorf("read FLAC magic: %w", err)
	}
	if string(magic) != "fLaC" {
		return &types.CorruptedFileError{
			Path:   path,
			Offset: 0,
			Reason: "invalid FLAC magic bytes",
		}
	}
	return nil
}

// streamInfo holds the STREAMINFO fields the output needs.
type streamInfo struct {
	sampleRate    int
	channels      int
	bitsPerSample int
	totalSamples  int64
}

// Parse parses a FLAC file and extracts metadata and its single audio track
func (p *parser) Parse(ctx context.Context, r io.ReaderAt, size int64, path string, opts registry.Options) (*types.Result, error) {
	sr := binary.NewSafeReader(r, size, path)
	if err := checkMagic(sr, path); err != nil {
		return nil, err
	}

	log := opts.Log().With(slog.String("path", path))
	res := types.NewResult(types.FormatFLAC)
	warn := func(stage, message string, offset int64) {
		res.Warn(stage, message, offset)
		log.Debug(message, slog.String("stage", stage), slog.Int64("offset", offset))
	}

	md := types.NewFields()
	md.Set("has_cover_art", false)

	var info *streamInfo
	metadataBytes := int64(4)

	err := blocks(sr, func(b block) bool {
		if ctx.Err() != nil {
			return false
		}
		metadataBytes += 4 + b.length

		switch b.typ {
		case blockTypeStreamInfo:
			si, err := parseStreamInfo(sr, b)
			if err != nil {
				warn("metadata", fmt.Sprintf("failed to parse STREAMINFO: %v", err), b.offset)
				break
			}
			info = si

		case blockTypeVorbisComment:
			vc, err := vorbis.ReadBlock(sr, b.offset, b.offset+b.length)
			if err != nil {
				warn("metadata", fmt.Sprintf("failed to parse Vorbis comments: %v", err), b.offset)
			}
			if vc.Invalid > 0 {
				warn("metadata", fmt.Sprintf("%d invalid Vorbis comments", vc.Invalid), b.offset)
			}
			for _, c := range vc.Comments {
				vorbis.Apply(md, c)
			}

		case blockTypePicture:
			pic, err := parsePicture(sr, b, false)
			if err != nil {
				warn("artwork", fmt.Sprintf("failed to parse PICTURE: %v", err), b.offset)
				break
			}
			md.Set("has_cover_art", true)
			md.Set("cover_art_mime", pic.mime)
			md.Set("cover_art_dimensions", fmt.Sprintf("%dx%d", pic.width, pic.height))
			if pic.description != "" {
				md.Set("cover_art_description", pic.description)
			}

		case blockTypePadding, blockTypeApplication, blockTypeSeekTable, blockTypeCueSheet:
			// Not needed for metadata extraction
		}
		return true
	})
	if err != nil {
		warn("metadata", err.Error(), 0)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if info != nil {
		res.Audio = append(res.Audio, info.track(size, metadataBytes))
	}

	md = tags.Order(md, tags.FLACMetadata)
	tags.CoerceTotals(md, tags.TotalsAsString)
	if v, ok := md.Get("itunesadvisory"); ok {
		md.Set("itunesadvisory", tags.Advisory(v))
	}
	res.Metadata = md
	return res, nil
}

// parseStreamInfo extracts audio info from the STREAMINFO block.
//
// Bytes 10-17 pack sample rate (20 bits), channels - 1 (3 bits),
// bits per sample - 1 (5 bits) and total samples (36 bits).
func parseStreamInfo(sr *binary.SafeReader, b block) (*streamInfo, error) {
	if b.length < streamInfoSize {
		return nil, fmt.Errorf("invalid STREAMINFO size: %d (expected %d)", b.length, streamInfoSize)
	}

	packed, err := binary.Read[uint64](sr, b.offset+10, "STREAMINFO packed fields")
	if err != nil {
		return nil, err
	}

	return &streamInfo{
		sampleRate:    int((packed >> 44) & 0xFFFFF),
		channels:      int((packed>>41)&0x7) + 1,
		bitsPerSample: int((packed>>36)&0x1F) + 1,
		totalSamples:  int64(packed & 0xFFFFFFFFF),
	}, nil
}

// track builds the audio track. The bitrate covers the audio frames only.
func (si *streamInfo) track(fileSize, metadataBytes int64) *types.Fields {
	f := types.NewFields()
	f.Set("index", 0)
	f.Set("handler_name", "Audio")
	f.Set("language", "und")
	f.Set("codec", "flac")
	f.Set("codec_tag_string", "FLAC (Free Lossless Audio Codec)")
	f.Set("channels", si.channels)
	if layout, ok := channelLayouts[si.channels]; ok {
		f.Set("channel_layout", layout)
	} else {
		f.Set("channel_layout", nil)
	}
	f.Set("sample_rate", si.sampleRate)
	f.Set("bits_per_sample", si.bitsPerSample)

	duration := 0.0
	if si.sampleRate > 0 {
		duration = float64(si.totalSamples) / float64(si.sampleRate)
	}
	if audioBytes := fileSize - metadataBytes; duration > 0 && audioBytes > 0 {
		f.Set("bitrate", int(float64(audioBytes*8)/duration))
	}
	f.Set("duration_seconds", duration)
	f.Set("total_samples", si.totalSamples)
	return tags.Order(f, tags.AudioTrack)
}

// picture is a decoded PICTURE structure.
type picture struct {
	typ         uint32
	mime        string
	description string
	width       int
	height      int
	data        []byte
}

// parsePicture reads a PICTURE block, including the image bytes when withData is set.
func parsePicture(sr *binary.SafeReader, b block, withData bool) (*picture, error) {
	c := binary.NewCursor(sr, b.offset).Limit(b.offset + b.length)
	return readPicture(c, withData)
}

// readPicture decodes the PICTURE structure, which is also the payload of a
// base64 METADATA_BLOCK_PICTURE comment.
//
// All integers are 32-bit big-endian:
//
//	[4] picture type
//	[4] MIME length, [N] MIME type
//	[4] description length, [N] description (UTF-8)
//	[4] width, [4] height, [4] colour depth, [4] indexed colours
//	[4] data length, [N] data
func readPicture(c *binary.Cursor, withData bool) (*picture, error) {
	pic := &picture{}
	var ok bool

	if pic.typ, ok = c.U32(); !ok {
		return nil, fmt.Errorf("truncated picture type")
	}
	mimeLength, ok := c.U32()
	if !ok {
		return nil, fmt.Errorf("truncated MIME length")
	}
	if pic.mime, ok = c.String(int64(mimeLength)); !ok {
		return nil, fmt.Errorf("truncated MIME type")
	}
	descLength, ok := c.U32()
	if !ok {
		return nil, fmt.Errorf("truncated description length")
	}
	desc, ok := c.Bytes(int64(descLength))
	if !ok {
		return nil, fmt.Errorf("truncated description")
	}
	pic.description = strings.ToValidUTF8(string(desc), "�")

	width, ok1 := c.U32()
	height, ok2 := c.U32()
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("truncated dimensions")
	}
	pic.width, pic.height = int(width), int(height)
	c.Skip(8) // colour depth + indexed colours

	if !withData {
		return pic, nil
	}
	dataLength, ok := c.U32()
	if !ok {
		return nil, fmt.Errorf("truncated picture data length")
	}
	if pic.data, ok = c.Bytes(int64(dataLength)); !ok {
		return nil, fmt.Errorf("truncated picture data")
	}
	return pic, nil
}

// CoverArt returns the first PICTURE image, or the first base64
// METADATA_BLOCK_PICTURE comment that precedes it.
func (p *parser) CoverArt(ctx context.Context, r io.ReaderAt, size int64, path string, opts registry.Options) ([]byte, error) {
	sr := binary.NewSafeReader(r, size, path)
	if err := checkMagic(sr, path); err != nil {
		return nil, err
	}
	log := opts.Log().With(slog.String("path", path))

	var image []byte
	err := blocks(sr, func(b block) bool {
		if ctx.Err() != nil {
			return false
		}
		switch b.typ {
		case blockTypePicture:
			pic, err := parsePicture(sr, b, true)
			if err != nil {
				log.Debug("skipping PICTURE", slog.Int64("offset", b.offset), slog.Any("error", err))
				break
			}
			image = pic.data
		case blockTypeVorbisComment:
			image = commentPicture(sr, b, log)
		}
		return len(image) == 0
	})
	if err != nil {
		log.Debug("metadata block walk stopped", slog.Any("error", err))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, nil
	}
	return image, nil
}

// commentPicture decodes the first METADATA_BLOCK_PICTURE comment of a block.
func commentPicture(sr *binary.SafeReader, b block, log *slog.Logger) []byte {
	vc, err := vorbis.ReadBlock(sr, b.offset, b.offset+b.length)
	if err != nil {
		log.Debug("partial Vorbis comment block", slog.Any("error", err))
	}
	for _, c := range vc.Comments {
		if !strings.EqualFold(c.Key, vorbis.PictureKey) {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(c.Value))
		if err != nil {
			log.Debug("invalid base64 picture comment", slog.Any("error", err))
			continue
		}
		// A bare image is accepted as well as a PICTURE structure.
		inner := binary.NewSafeReader(bytes.NewReader(raw), int64(len(raw)), sr.Path())
		if pic, err := readPicture(binary.NewCursor(inner, 0), true); err == nil && len(pic.data) > 0 {
			return pic.data
		}
		return raw
	}
	return nil
}

// init registers the FLAC parser
func init() {
	registry.Register(types.FormatFLAC, &parser{})
}
