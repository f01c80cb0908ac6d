package metaspector

// Parsers register themselves with the registry on import.
import (
	_ "github.com/simonhull/metaspector/internal/flac"
	_ "github.com/simonhull/metaspector/internal/mp3"
	_ "github.com/simonhull/metaspector/internal/mp4"
)
