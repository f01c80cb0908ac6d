package metaspector_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/simonhull/metaspector"
)

// BenchmarkInspectFile measures inspecting a single file from disk.
func BenchmarkInspectFile(b *testing.B) {
	path := writeTemp(b, "bench.mp3", createMP3("Song", 8))
	ctx := context.Background()

	b.ReportAllocs()
	for b.Loop() {
		if _, err := metaspector.InspectFile(ctx, path); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkInspectMany measures batch inspection.
func BenchmarkInspectMany(b *testing.B) {
	paths := make([]string, 32)
	for i := range paths {
		paths[i] = writeTemp(b, "bench.flac", createFLAC(4096))
	}
	ctx := context.Background()

	b.ReportAllocs()
	for b.Loop() {
		if _, err := metaspector.InspectMany(ctx, paths); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDetectFormat measures signature sniffing.
func BenchmarkDetectFormat(b *testing.B) {
	data := createMP4()
	r := bytes.NewReader(data)

	b.ReportAllocs()
	for b.Loop() {
		if _, err := metaspector.DetectFormat(r, int64(len(data)), "bench.mp4"); err != nil {
			b.Fatal(err)
		}
	}
}
