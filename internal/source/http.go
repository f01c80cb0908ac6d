// Package source provides the byte sources inspections read from: local
// files and an io.ReaderAt backed by HTTP range requests.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/simonhull/metaspector/internal/types"
)

// Defaults for remote reads.
const (
	DefaultChunkSize  = 32 * 1024
	DefaultMaxFetches = 100
)

// ErrFetchLimit is wrapped in the FetchError returned once a source has used
// its request budget.
var ErrFetchLimit = errors.New("remote fetch limit reached")

// Config configures an HTTP source.
type Config struct {
	Client     *http.Client
	ChunkSize  int64
	MaxFetches int
	Logger     *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Client == nil {
		c.Client = http.DefaultClient
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.MaxFetches <= 0 {
		c.MaxFetches = DefaultMaxFetches
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// HTTP reads a remote resource in fixed-size chunks using range requests.
// Fetched chunks are cached, so repeated reads of the same region cost one
// request. It is safe for concurrent use.
type HTTP struct {
	ctx context.Context
	url string
	cfg Config

	mu      sync.Mutex
	size    int64
	chunks  map[int64][]byte
	fetches int
}

// OpenHTTP fetches the first chunk of url and learns its size from the
// Content-Range header. The context bounds every later fetch as well.
//
// A server that ignores the Range header and answers 200 has its whole
// body read into memory.
func OpenHTTP(ctx context.Context, url string, cfg Config) (*HTTP, error) {
	h := &HTTP{
		ctx:    ctx,
		url:    url,
		cfg:    cfg.withDefaults(),
		chunks: make(map[int64][]byte),
		size:   -1,
	}
	if err := h.fetch(0, h.cfg.ChunkSize); err != nil {
		return nil, err
	}
	return h, nil
}

// Size returns the resource size in bytes.
func (h *HTTP) Size() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

// URL returns the resource URL.
func (h *HTTP) URL() string {
	return h.url
}

// Fetches returns the number of requests made so far.
func (h *HTTP) Fetches() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fetches
}

// Prefetch loads [0, n) with at most one request.
func (h *HTTP) Prefetch(n int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n = min(n, h.size)
	return h.ensure(0, n)
}

// ReadAt implements io.ReaderAt.
func (h *HTTP) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if off >= h.size {
		return 0, io.EOF
	}
	end := min(off+int64(len(p)), h.size)
	if err := h.ensure(off, end); err != nil {
		return 0, err
	}

	n := 0
	for pos := off; pos < end; {
		idx := pos / h.cfg.ChunkSize
		chunk := h.chunks[idx]
		within := pos - idx*h.cfg.ChunkSize
		c := copy(p[n:], chunk[within:])
		if c == 0 {
			return n, io.ErrUnexpectedEOF
		}
		n += c
		pos += int64(c)
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// ensure fetches every missing chunk overlapping [start, end), one request
// per contiguous run. Callers hold mu.
func (h *HTTP) ensure(start, end int64) error {
	if start >= end {
		return nil
	}
	first := start / h.cfg.ChunkSize
	last := (end - 1) / h.cfg.ChunkSize

	for idx := first; idx <= last; idx++ {
		if _, ok := h.chunks[idx]; ok {
			continue
		}
		run := idx
		for run+1 <= last {
			if _, ok := h.chunks[run+1]; ok {
				break
			}
			run++
		}
		offset := idx * h.cfg.ChunkSize
		length := (run - idx + 1) * h.cfg.ChunkSize
		if err := h.fetch(offset, length); err != nil {
			return err
		}
		idx = run
	}
	return nil
}

// fetch requests [offset, offset+length) and stores it as chunks.
// Callers hold mu, except OpenHTTP.
func (h *HTTP) fetch(offset, length int64) error {
	fail := func(status int, err error) error {
		return &types.FetchError{URL: h.url, Offset: offset, Length: length, StatusCode: status, Err: err}
	}

	if err := h.ctx.Err(); err != nil {
		return fail(0, err)
	}
	if h.fetches >= h.cfg.MaxFetches {
		return fail(0, ErrFetchLimit)
	}
	h.fetches++

	req, err := http.NewRequestWithContext(h.ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return fail(0, err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))

	h.cfg.Logger.Debug("range request",
		slog.String("url", h.url),
		slog.Int64("offset", offset),
		slog.Int64("length", length),
		slog.Int("fetch", h.fetches),
	)

	resp, err := h.cfg.Client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		if total, ok := parseContentRange(resp.Header.Get("Content-Range")); ok {
			h.size = total
		} else if h.size < 0 {
			return fail(resp.StatusCode, errors.New("missing Content-Range total"))
		}
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fail(resp.StatusCode, err)
		}
		h.size = int64(len(body))
		h.store(0, body)
		return nil
	case http.StatusRequestedRangeNotSatisfiable:
		if h.size < 0 {
			// Empty resource.
			h.size = 0
			return nil
		}
		return fail(resp.StatusCode, nil)
	default:
		return fail(resp.StatusCode, nil)
	}

	want := min(length, h.size-offset)
	body, err := io.ReadAll(io.LimitReader(resp.Body, want))
	if err != nil {
		return fail(resp.StatusCode, err)
	}
	if int64(len(body)) < want {
		return fail(resp.StatusCode, io.ErrUnexpectedEOF)
	}
	h.store(offset, body)
	return nil
}

// store splits data starting at a chunk boundary into cached chunks.
func (h *HTTP) store(offset int64, data []byte) {
	size := h.cfg.ChunkSize
	for i := int64(0); i < int64(len(data)); i += size {
		h.chunks[(offset+i)/size] = data[i:min(i+size, int64(len(data)))]
	}
}

// parseContentRange returns the total of "bytes 0-99/1234".
func parseContentRange(v string) (int64, bool) {
	_, total, ok := strings.Cut(v, "/")
	if !ok || total == "*" {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(total), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
