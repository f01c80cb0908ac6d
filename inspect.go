package metaspector

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/metaspector/internal/registry"
	"github.com/simonhull/metaspector/internal/source"
	"github.com/simonhull/metaspector/internal/types"
)

// Inspect reads the container in r and returns its metadata, tracks and
// warnings.
//
// Damaged boxes, blocks and frames are skipped and recorded in
// Result.Warnings. The call fails only when the format is not recognised,
// the structure cannot be parsed at all, or ctx is done.
//
// Example:
//
//	f, _ := os.Open("movie.mp4")
//	stat, _ := f.Stat()
//	res, err := metaspector.Inspect(ctx, f, stat.Size())
//	if err != nil {
//		return err
//	}
//	out, _ := json.Marshal(res)
func Inspect(ctx context.Context, r io.ReaderAt, size int64, opts ...Option) (*Result, error) {
	return inspect(ctx, r, size, "", applyOptions(opts))
}

// InspectFile inspects a local file. A missing file yields an error
// wrapping fs.ErrNotExist.
func InspectFile(ctx context.Context, path string, opts ...Option) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	if o.sectionErr != nil {
		return nil, o.sectionErr
	}

	f, err := source.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return inspect(ctx, f, f.Size(), path, o)
}

// InspectURL inspects a remote resource over HTTP range requests.
//
// The resource is read in chunks (WithRemoteChunkSize) and the number of
// requests is bounded (WithMaxRemoteFetches). Exceeding the bound fails
// the call with a *FetchError wrapping ErrFetchLimit.
func InspectURL(ctx context.Context, url string, opts ...Option) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	if o.sectionErr != nil {
		return nil, o.sectionErr
	}

	src, err := openRemote(ctx, url, o)
	if err != nil {
		return nil, err
	}
	return inspect(ctx, src, src.Size(), url, o)
}

// InspectMany inspects several files or URLs concurrently.
//
// Sources are inspected in parallel using up to runtime.NumCPU()
// goroutines. Results are returned in the same order as the input. The
// first failure cancels the remaining work and is returned.
//
// Example:
//
//	results, err := metaspector.InspectMany(ctx, []string{"a.flac", "b.mp3"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	for i, res := range results {
//		fmt.Println(paths[i], res.Metadata.String("title"))
//	}
func InspectMany(ctx context.Context, paths []string, opts ...Option) ([]*Result, error) {
	return InspectManyLimit(ctx, paths, runtime.NumCPU(), opts...)
}

// InspectManyLimit is InspectMany with an explicit concurrency limit.
// A limit below 1 means runtime.NumCPU().
func InspectManyLimit(ctx context.Context, paths []string, limit int, opts ...Option) ([]*Result, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if limit < 1 {
		limit = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	results := make([]*Result, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := inspectPath(ctx, path, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// inspectPath dispatches on the shape of path.
func inspectPath(ctx context.Context, path string, opts ...Option) (*Result, error) {
	if IsRemote(path) {
		return InspectURL(ctx, path, opts...)
	}
	return InspectFile(ctx, path, opts...)
}

// IsRemote reports whether path is an http or https URL.
func IsRemote(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// inspect detects the format, runs its parser and applies the result options.
func inspect(ctx context.Context, r io.ReaderAt, size int64, path string, o *inspectOptions) (*Result, error) {
	if o.sectionErr != nil {
		return nil, o.sectionErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := types.DetectFormat(r, size, path)
	if err != nil {
		return nil, err
	}

	parser := registry.Get(format)
	if parser == nil {
		return nil, &UnsupportedFormatError{
			Path:   path,
			Reason: fmt.Sprintf("no parser available for format %s", format),
		}
	}

	res, err := parser.Parse(ctx, r, size, path, o.registryOptions())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", format, err)
	}

	if o.strictParsing && len(res.Warnings) > 0 {
		return nil, fmt.Errorf("strict parsing failed: %s", res.Warnings[0])
	}
	if o.ignoreWarnings {
		res.Warnings = nil
	}
	res.Only = o.section
	return res, nil
}
