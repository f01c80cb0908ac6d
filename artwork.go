package metaspector

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/simonhull/metaspector/internal/registry"
	"github.com/simonhull/metaspector/internal/source"
	"github.com/simonhull/metaspector/internal/types"
)

// ErrCoverArtTooLarge is returned when embedded artwork exceeds the limit
// set by WithMaxCoverArtSize.
var ErrCoverArtTooLarge = errors.New("cover art exceeds size limit")

// CoverArt returns the raw bytes of the embedded cover image in r: the MP4
// covr atom, the first FLAC picture, or the first ID3v2 APIC frame.
//
// It returns nil, nil when the source carries no cover art.
//
// Example:
//
//	data, err := metaspector.CoverArtFile(ctx, "song.flac")
//	if err != nil {
//		return err
//	}
//	if data != nil {
//		os.WriteFile("cover.jpg", data, 0o644)
//	}
func CoverArt(ctx context.Context, r io.ReaderAt, size int64, opts ...Option) ([]byte, error) {
	return coverArt(ctx, r, size, "", applyOptions(opts))
}

// CoverArtFile returns the cover art of a local file.
func CoverArtFile(ctx context.Context, path string, opts ...Option) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := source.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return coverArt(ctx, f, f.Size(), path, applyOptions(opts))
}

// CoverArtURL returns the cover art of a remote resource.
func CoverArtURL(ctx context.Context, url string, opts ...Option) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	src, err := openRemote(ctx, url, o)
	if err != nil {
		return nil, err
	}
	return coverArt(ctx, src, src.Size(), url, o)
}

func coverArt(ctx context.Context, r io.ReaderAt, size int64, path string, o *inspectOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := types.DetectFormat(r, size, path)
	if err != nil {
		return nil, err
	}

	extractor, ok := registry.Get(format).(registry.CoverArtExtractor)
	if !ok {
		// Format doesn't support artwork
		return nil, nil
	}

	data, err := extractor.CoverArt(ctx, r, size, path, o.registryOptions())
	if err != nil {
		return nil, fmt.Errorf("extract cover art: %w", err)
	}
	if o.maxCoverArt > 0 && len(data) > o.maxCoverArt {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrCoverArtTooLarge, len(data), o.maxCoverArt)
	}
	return data, nil
}
