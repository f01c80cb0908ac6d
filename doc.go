// Package metaspector extracts structural and descriptive metadata from
// MP4/ISO-BMFF, FLAC and MP3 files without decoding any audio or video.
//
// # Quick Start
//
// Inspecting a local file:
//
//	res, err := metaspector.InspectFile(ctx, "movie.mp4")
//	if err != nil {
//		log.Fatal(err)
//	}
//	out, _ := json.MarshalIndent(res, "", "  ")
//	fmt.Println(string(out))
//
// The result has four sections, emitted in this order:
//
//	metadata  tags and file-level facts (title, artist, has_cover_art, ...)
//	video     one entry per video track (codec, profile, dimensions, HDR format, ...)
//	audio     one entry per audio track (codec, channels, sample rate, bitrate, ...)
//	subtitle  one entry per subtitle track
//
// Every section is an ordered list of keys, so the JSON output is stable.
//
// # Supported Formats
//
//   - MP4, M4A, M4V, MOV: iTunes ilst tags, AVC/HEVC/AV1/VP9 video with
//     HDR detection, AAC/AC-3/E-AC-3/ALAC/Opus/FLAC audio, text subtitles
//   - FLAC: STREAMINFO, Vorbis comments and PICTURE blocks
//   - MP3: ID3v2.2 to ID3v2.4 tags and the first MPEG audio frame
//
// # Remote Sources
//
// InspectURL reads a resource over HTTP range requests, fetching only the
// regions the parsers touch:
//
//	res, err := metaspector.InspectURL(ctx, "https://example.com/a.m4a",
//	    metaspector.WithMaxRemoteFetches(50),
//	)
//
// # Error Handling
//
// Fatal errors stop the call: an unknown format (*UnsupportedFormatError),
// a source that cannot be parsed at all (*CorruptedFileError), a failed
// remote read (*FetchError) or a cancelled context.
//
// Everything else degrades. A damaged box, block or frame is skipped and
// recorded in Result.Warnings, and parsing continues with what was read:
//
//	for _, w := range res.Warnings {
//		log.Printf("warning: %s", w)
//	}
//
// WithLogger receives the same events as debug records.
//
// # Concurrency
//
// Each call is independent and holds no shared state. InspectMany parses
// many sources in parallel and returns results in input order.
package metaspector
