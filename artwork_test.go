package metaspector_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/simonhull/metaspector"
)

func TestCoverArt_MP4(t *testing.T) {
	image := pngHeader()
	data := createMP4(box("covr", dataAtom(14, image)))

	got, err := metaspector.CoverArt(context.Background(), bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, image) {
		t.Errorf("CoverArt returned %d bytes, want %d", len(got), len(image))
	}
}

func TestCoverArt_Absent(t *testing.T) {
	tests := map[string][]byte{
		"mp4":  createMP4(),
		"flac": createFLAC(100),
		"mp3":  createMP3("Song", 3),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := metaspector.CoverArt(context.Background(), bytes.NewReader(data), int64(len(data)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != nil {
				t.Errorf("expected nil, got %d bytes", len(got))
			}
		})
	}
}

func TestCoverArt_MaxSize(t *testing.T) {
	data := createMP4(box("covr", dataAtom(14, pngHeader())))

	_, err := metaspector.CoverArt(context.Background(), bytes.NewReader(data), int64(len(data)),
		metaspector.WithMaxCoverArtSize(8),
	)
	if !errors.Is(err, metaspector.ErrCoverArtTooLarge) {
		t.Errorf("expected ErrCoverArtTooLarge, got %v", err)
	}
}

func TestCoverArtFile(t *testing.T) {
	image := pngHeader()
	path := writeTemp(t, "movie.m4v", createMP4(box("covr", dataAtom(14, image))))

	got, err := metaspector.CoverArtFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, image) {
		t.Error("CoverArtFile returned wrong bytes")
	}
}

func TestCoverArtURL(t *testing.T) {
	image := pngHeader()
	data := createMP4(box("covr", dataAtom(14, image)))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "a.m4a", time.Time{}, bytes.NewReader(data))
	}))
	defer srv.Close()

	got, err := metaspector.CoverArtURL(context.Background(), srv.URL+"/a.m4a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, image) {
		t.Error("CoverArtURL returned wrong bytes")
	}
}
