package mp4

import (
	"context"
	"io"
	"log/slog"

	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/registry"
	"github.com/simonhull/metaspector/internal/tags"
	"github.com/simonhull/metaspector/internal/types"
)

// parser implements registry.FormatParser and registry.CoverArtExtractor
type parser struct{}

// state holds everything one Parse call accumulates.
type state struct {
	ctx  context.Context
	c    *binary.Cursor
	opts registry.Options
	log  *slog.Logger
	res  *types.Result

	// tags collects file-level ilst items before ordering
	tags *types.Fields

	movieTimescale uint64
	movieDuration  uint64
}

func newState(ctx context.Context, sr *binary.SafeReader, opts registry.Options) *state {
	return &state{
		ctx:  ctx,
		c:    binary.NewCursor(sr, 0),
		opts: opts,
		log:  opts.Log().With(slog.String("path", sr.Path())),
		res:  types.NewResult(types.FormatMP4),
		tags: types.NewFields(),
	}
}

// warn records a non-fatal issue and logs it at debug level.
func (s *state) warn(stage, message string, offset int64) {
	s.res.Warn(stage, message, offset)
	s.log.Debug(message, slog.String("stage", stage), slog.Int64("offset", offset))
}

// walk iterates the children of [start, end), recording a warning when a
// malformed child cuts the walk short.
func (s *state) walk(stage string, start, end int64, fn func(Box) bool) {
	if off := children(s.c, start, end, fn); off >= 0 {
		s.warn(stage, "malformed or oversized box", off)
	}
}

// Parse parses an MP4 file and extracts metadata and tracks
func (p *parser) Parse(ctx context.Context, r io.ReaderAt, size int64, path string, opts registry.Options) (*types.Result, error) {
	sr := binary.NewSafeReader(r, size, path)
	s := newState(ctx, sr, opts)

	// Top-level loop. A moov that runs past the end of the source is still
	// parsed up to the last complete child.
	pos := int64(0)
	for pos < size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		box, ok := readBox(s.c, pos, size)
		if !ok {
			if size-pos >= minBoxHeader {
				s.warn("container", "malformed top-level box", pos)
			}
			break
		}
		if box.End > size {
			s.warn("container", "box '"+box.Type+"' truncated", box.Start)
			box.End = size
		}

		if box.Type == "moov" {
			s.parseMoov(box)
			break
		}
		if box.Type == "meta" {
			s.parseMeta(box, s.tags)
		}
		pos = box.End
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.finish()
	return s.res, nil
}

// parseMoov walks the movie box: movie header, tracks and file-level tags.
func (s *state) parseMoov(moov Box) {
	s.walk("container", moov.DataOffset(), moov.End, func(b Box) bool {
		switch b.Type {
		case "mvhd":
			s.parseMvhd(b)
		case "trak":
			s.parseTrak(b)
		case "udta":
			if meta, ok := find(s.c, b.DataOffset(), b.End, "meta"); ok {
				s.parseMeta(meta, s.tags)
			}
		case "meta":
			s.parseMeta(b, s.tags)
		}
		return s.ctx.Err() == nil
	})
}

// parseMvhd reads the movie timescale and duration.
//
// Structure after version + flags:
//
//	v0: [4] creation [4] modification [4] timescale [4] duration
//	v1: [8] creation [8] modification [4] timescale [8] duration
func (s *state) parseMvhd(b Box) {
	ts, dur, ok := readTimes(s.c, b)
	if !ok {
		s.warn("container", "truncated mvhd", b.Start)
		return
	}
	s.movieTimescale, s.movieDuration = ts, dur
}

// readTimes reads the timescale and duration shared by mvhd and mdhd,
// leaving the cursor just after the duration.
func readTimes(c *binary.Cursor, b Box) (timescale, duration uint64, ok bool) {
	c.Seek(b.DataOffset())
	lc := c.Limit(b.End)
	version, ok := lc.U8()
	if !ok {
		return 0, 0, false
	}
	lc.Skip(3) // Skip flags

	switch version {
	case 0:
		lc.Skip(8)
		ts, ok1 := lc.U32()
		d, ok2 := lc.U32()
		if !ok1 || !ok2 {
			return 0, 0, false
		}
		c.Seek(lc.Tell())
		return uint64(ts), uint64(d), true
	case 1:
		lc.Skip(16)
		ts, ok1 := lc.U32()
		d, ok2 := lc.U64()
		if !ok1 || !ok2 {
			return 0, 0, false
		}
		c.Seek(lc.Tell())
		return uint64(ts), d, true
	}
	return 0, 0, false
}

// parseMeta reads a meta box: version + flags, an optional hdlr, then ilst.
func (s *state) parseMeta(b Box, into *types.Fields) {
	if b.DataSize() < 4 {
		return
	}
	s.walk("metadata", b.DataOffset()+4, b.End, func(child Box) bool {
		if child.Type == "ilst" {
			s.parseIlst(child, into)
		}
		return true
	})
}

// finish applies movie-level duration, sums the bitrate and orders all output.
func (s *state) finish() {
	if s.movieTimescale > 0 && s.movieDuration > 0 {
		seconds := float64(s.movieDuration) / float64(s.movieTimescale)
		s.tags.Set("duration_seconds", seconds)
		for _, t := range s.res.Audio {
			t.Set("duration_seconds", seconds)
		}
		for _, t := range s.res.Video {
			t.Set("duration_seconds", seconds)
		}
	}

	for i, t := range s.res.Audio {
		s.res.Audio[i] = tags.Order(t, tags.MP4Audio)
	}
	for i, t := range s.res.Video {
		s.res.Video[i] = tags.Order(t, tags.MP4Video)
	}
	for i, t := range s.res.Subtitle {
		s.res.Subtitle[i] = tags.Order(t, tags.MP4Subtitle)
	}

	total := 0
	for _, list := range [][]*types.Fields{s.res.Video, s.res.Audio} {
		for _, t := range list {
			if n, ok := t.Int("bitrate"); ok {
				total += int(n)
			}
		}
	}
	if total > 0 {
		s.tags.Set("bitrate", total)
	}

	md := tags.Order(s.tags, tags.MP4Metadata)
	applySongRules(md)
	tags.CoerceTotals(md, tags.TotalsAsInt)
	if v, ok := md.Get("itunesadvisory"); ok {
		if n, ok := tags.ToInt(v); ok {
			md.Set("itunesadvisory", n)
		}
	}
	s.res.Metadata = md
}

// CoverArt returns the first covr image found under moov.
func (p *parser) CoverArt(ctx context.Context, r io.ReaderAt, size int64, path string, opts registry.Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sr := binary.NewSafeReader(r, size, path)
	return findCoverArt(binary.NewCursor(sr, 0), 0, size), nil
}

// init registers the MP4 parser
func init() {
	registry.Register(types.FormatMP4, &parser{})
}
