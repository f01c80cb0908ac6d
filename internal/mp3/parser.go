// Package mp3 parses MPEG audio files: the leading ID3v2 tag and the first
// audio frame.
package mp3

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/imaging"
	"github.com/simonhull/metaspector/internal/registry"
	"github.com/simonhull/metaspector/internal/tags"
	"github.com/simonhull/metaspector/internal/types"
)

// parser implements registry.FormatParser and registry.CoverArtExtractor
type parser struct{}

// Parse parses a single MP3 file and extracts metadata
func (p *parser) Parse(ctx context.Context, r io.ReaderAt, size int64, path string, opts registry.Options) (*types.Result, error) {
	sr := binary.NewSafeReader(r, size, path)
	log := opts.Log().With(slog.String("path", path))

	res := types.NewResult(types.FormatMP3)
	warn := func(stage string, offset int64, format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		res.Warn(stage, msg, offset)
		log.Debug(msg, slog.String("stage", stage), slog.Int64("offset", offset))
	}

	md := types.NewFields()
	md.Set("has_cover_art", false)

	// Parse ID3v2 tag (if present)
	var tagSize int64
	if h, ok := readHeader(sr); ok {
		tagSize = min(h.tagSize(), size)
		tr := &tagReader{
			fields:  md,
			version: h.version,
			warn: func(offset int64, format string, args ...any) {
				warn("metadata", offset, format, args...)
			},
		}
		err := frames(sr, h, func(f frame) bool {
			if ctx.Err() != nil {
				return false
			}
			tr.apply(f)
			return true
		})
		if err != nil {
			warn("metadata", 10, "ID3v2 frames: %v", err)
		}
		if tr.cover != nil {
			setCover(md, tr.cover.mime, tr.cover.data)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Without a picture frame, look for an image stored in the audio region.
	if v, _ := md.Get("has_cover_art"); v == false {
		off, err := scanForImage(ctx, sr, tagSize, size)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Debug("image scan stopped", slog.Any("error", err))
		}
		if off >= 0 {
			head, err := sr.Slice(off, min(int64(scanChunkSize), size-off), "embedded image")
			if err == nil {
				setCover(md, imaging.DetectMIME(head), head)
			}
		}
	}

	// Parse MPEG frame headers for technical info (bitrate, duration, etc.)
	info, err := findAudio(ctx, sr, tagSize)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		warn("technical", tagSize, "%v", err)
	} else {
		res.Audio = append(res.Audio, audioTrack(info, md, size, tagSize))
	}

	md = tags.Order(md, tags.MP3Metadata)
	tags.CoerceTotals(md, tags.TotalsAsString)
	tags.DropEmpty(md, tags.MP3Metadata...)
	res.Metadata = md
	return res, nil
}

// setCover records the cover art fields for an image.
func setCover(md *types.Fields, mime string, data []byte) {
	md.Set("has_cover_art", true)
	md.Set("cover_art_mime", mime)
	if dims := imaging.FormatDimensions(data); dims != "" {
		md.Set("cover_art_dimensions", dims)
	} else {
		md.Set("cover_art_dimensions", nil)
	}
}

// audioTrack builds the single audio track.
//
// Duration comes from TLEN when present, else from the sample count. The
// bitrate is the average over everything after the tag, falling back to the
// first frame's nominal rate when the duration is unknown.
func audioTrack(info *audioInfo, md *types.Fields, fileSize, tagSize int64) *types.Fields {
	fh := info.header
	total := info.totalSamples(fileSize)

	duration := 0.0
	if ms, ok := lengthMillis(md); ok {
		duration = ms / 1000
	} else if total > 0 {
		duration = float64(total) / float64(fh.sampleRate)
	}

	bitrate := fh.bitrate * 1000
	if audioBytes := fileSize - tagSize; duration > 0 && audioBytes > 0 {
		bitrate = int(math.Round(float64(audioBytes*8) / duration))
	}

	language := "und"
	if v, ok := md.Get("language"); ok {
		if s := tags.ToString(v); s != "" {
			language = s
		}
	}

	f := types.NewFields()
	f.Set("index", 0)
	f.Set("handler_name", "Audio")
	f.Set("language", language)
	f.Set("codec", layerCodecs[fh.layer])
	f.Set("codec_tag_string", layerNames[fh.layer])
	f.Set("channels", fh.channels)
	if fh.channels == 1 {
		f.Set("channel_layout", "1.0")
	} else {
		f.Set("channel_layout", "2.0")
	}
	f.Set("sample_rate", fh.sampleRate)
	f.Set("bits_per_sample", 16)
	f.Set("bitrate", bitrate)
	if duration > 0 {
		f.Set("duration_seconds", duration)
	} else {
		f.Set("duration_seconds", nil)
	}
	f.Set("total_samples", total)
	return tags.Order(f, tags.AudioTrack)
}

// lengthMillis returns the TLEN value in milliseconds.
func lengthMillis(md *types.Fields) (float64, bool) {
	v, ok := md.Get("length")
	if !ok {
		return 0, false
	}
	ms, err := strconv.ParseFloat(strings.TrimSpace(tags.ToString(v)), 64)
	if err != nil || ms <= 0 {
		return 0, false
	}
	return ms, true
}

// CoverArt returns the first attached picture, or an image found in the
// audio region, cut at its end marker.
func (p *parser) CoverArt(ctx context.Context, r io.ReaderAt, size int64, path string, opts registry.Options) ([]byte, error) {
	sr := binary.NewSafeReader(r, size, path)
	log := opts.Log().With(slog.String("path", path))

	var tagSize int64
	if h, ok := readHeader(sr); ok {
		tagSize = min(h.tagSize(), size)
		var pic *apic
		err := frames(sr, h, func(f frame) bool {
			if ctx.Err() != nil || f.id != "APIC" {
				return ctx.Err() == nil
			}
			parsed, err := parseAPIC(f.data, h.version == 2)
			if err != nil {
				log.Debug("skipping APIC", slog.Int64("offset", f.offset), slog.Any("error", err))
				return true
			}
			pic = parsed
			return false
		})
		if err != nil {
			log.Debug("ID3v2 frame walk stopped", slog.Any("error", err))
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if pic != nil {
			return pic.data, nil
		}
	}

	off, err := scanForImage(ctx, sr, tagSize, size)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Debug("image scan stopped", slog.Any("error", err))
	}
	if off < 0 {
		return nil, nil
	}
	data, err := sr.Slice(off, size-off, "embedded image")
	if err != nil {
		return nil, fmt.Errorf("read embedded image: %w", err)
	}
	return imaging.Trim(data), nil
}

// init registers the MP3 parser
func init() {
	registry.Register(types.FormatMP3, &parser{})
}
