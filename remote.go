package metaspector

import (
	"context"
	"log/slog"

	"github.com/simonhull/metaspector/internal/source"
	"github.com/simonhull/metaspector/internal/types"
)

// Prefetch windows for remote sources whose metadata sits at the front.
const (
	flacPrefetch = 1 << 20   // metadata blocks, pictures included
	mp3Slack     = 128 << 10 // first frames after the ID3v2 tag
)

// openRemote opens url and, for FLAC and MP3, loads the metadata region
// with one request so the parsers' small reads hit the cache.
//
// MP4 is left to on-demand fetching: moov may sit at either end.
func openRemote(ctx context.Context, url string, o *inspectOptions) (*source.HTTP, error) {
	src, err := source.OpenHTTP(ctx, url, o.remote)
	if err != nil {
		return nil, err
	}

	head := make([]byte, 10)
	n, _ := src.ReadAt(head, 0)
	head = head[:n]

	var window int64
	switch types.Sniff(head) {
	case types.FormatFLAC:
		window = flacPrefetch
	case types.FormatMP3:
		window = id3Size(head) + mp3Slack
	}
	if window > 0 {
		if err := src.Prefetch(window); err != nil {
			return nil, err
		}
	}

	o.logger.Debug("remote source opened",
		slog.String("url", url),
		slog.Int64("size", src.Size()),
		slog.Int64("prefetch", window),
	)
	return src, nil
}

// id3Size returns the size of a leading ID3v2 tag, header included, or 0.
func id3Size(head []byte) int64 {
	if len(head) < 10 || string(head[:3]) != "ID3" {
		return 0
	}
	var size int64
	for _, b := range head[6:10] {
		size = size<<7 | int64(b&0x7F)
	}
	return size + 10
}
