package source

import (
	"fmt"
	"os"
)

// File is a local file opened for random access.
type File struct {
	*os.File
	size int64
}

// OpenFile opens path and records its size. Errors wrap the os error, so
// errors.Is(err, fs.ErrNotExist) holds for a missing file.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if stat.IsDir() {
		f.Close()
		return nil, fmt.Errorf("open file: %s is a directory", path)
	}
	return &File{File: f, size: stat.Size()}, nil
}

// Size returns the file size in bytes.
func (f *File) Size() int64 {
	return f.size
}
