package metaspector

import (
	"log/slog"
	"net/http"

	"github.com/simonhull/metaspector/internal/registry"
	"github.com/simonhull/metaspector/internal/source"
	"github.com/simonhull/metaspector/internal/types"
)

// Option configures an inspection.
//
// Example:
//
//	res, err := metaspector.InspectFile(ctx, "movie.mp4",
//	    metaspector.WithSection(metaspector.SectionVideo),
//	    metaspector.WithLogger(logger),
//	)
type Option func(*inspectOptions)

// inspectOptions holds the settings for one call.
type inspectOptions struct {
	section        Section
	sectionErr     error
	logger         *slog.Logger
	strictParsing  bool // fail on any warning
	ignoreWarnings bool // drop warnings from the result
	maxCoverArt    int  // 0 = no limit
	detectAtmos    bool
	scanSEI        bool
	remote         source.Config
}

// defaultOptions returns the default configuration.
func defaultOptions() *inspectOptions {
	return &inspectOptions{
		logger:      slog.New(slog.DiscardHandler),
		detectAtmos: true,
		scanSEI:     true,
	}
}

func applyOptions(opts []Option) *inspectOptions {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	o.remote.Logger = o.logger
	return o
}

// registryOptions converts the public options into what parsers see.
func (o *inspectOptions) registryOptions() registry.Options {
	return registry.Options{
		Logger:      o.logger,
		DetectAtmos: o.detectAtmos,
		ScanSEI:     o.scanSEI,
	}
}

// WithSection narrows the result to one section. Result.MarshalJSON then
// emits only that section's value.
//
// A section outside SectionMetadata, SectionVideo, SectionAudio and
// SectionSubtitle makes the call fail with an *InvalidSectionError.
func WithSection(s Section) Option {
	return func(o *inspectOptions) {
		parsed, err := types.ParseSection(string(s))
		if err != nil {
			o.sectionErr = err
			return
		}
		o.section = parsed
	}
}

// WithLogger sets the logger that receives debug records for damaged boxes,
// blocks and frames that were skipped. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *inspectOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStrictParsing treats any warning as a fatal error.
//
// By default a damaged unit is skipped and recorded in Result.Warnings.
func WithStrictParsing() Option {
	return func(o *inspectOptions) {
		o.strictParsing = true
	}
}

// WithIgnoreWarnings drops Result.Warnings.
func WithIgnoreWarnings() Option {
	return func(o *inspectOptions) {
		o.ignoreWarnings = true
	}
}

// WithMaxCoverArtSize makes the CoverArt functions fail with
// ErrCoverArtTooLarge when the embedded image exceeds n bytes.
// Default is 0 (no limit).
func WithMaxCoverArtSize(n int) Option {
	return func(o *inspectOptions) {
		o.maxCoverArt = n
	}
}

// WithHTTPClient sets the client used for remote sources.
// Default is http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(o *inspectOptions) {
		o.remote.Client = c
	}
}

// WithRemoteChunkSize sets the granularity of range requests.
// Default is 32 KiB.
func WithRemoteChunkSize(n int64) Option {
	return func(o *inspectOptions) {
		o.remote.ChunkSize = n
	}
}

// WithMaxRemoteFetches bounds the number of range requests one remote
// inspection may make. Default is 100.
func WithMaxRemoteFetches(n int) Option {
	return func(o *inspectOptions) {
		o.remote.MaxFetches = n
	}
}

// WithAtmosDetection controls whether the first E-AC-3 sample is read to
// detect Dolby Atmos. Enabled by default.
func WithAtmosDetection(enabled bool) Option {
	return func(o *inspectOptions) {
		o.detectAtmos = enabled
	}
}

// WithSEIScan controls whether the first H.264/HEVC sample is scanned for
// HDR SEI messages when the sample entry has no colour boxes. Enabled by
// default.
func WithSEIScan(enabled bool) Option {
	return func(o *inspectOptions) {
		o.scanSEI = enabled
	}
}
