package sources

import (
	"context"
	"io"
	"strings"
)

// Fetcher opens a remote resource for reading.
type Fetcher interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// IsURL reports whether s names an http or https resource.
func IsURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// NewNDJSONURL creates a producer that fetches url at Produce time.
func NewNDJSONURL(url string, f Fetcher, opts ...Option) *NDJSON {
	o := defaultOptions().apply(opts...)
	if o.name == "" {
		o.name = url
	}
	return &NDJSON{
		path: url,
		open: func(ctx context.Context) (io.ReadCloser, error) { return f.Open(ctx, url) },
		opts: o,
	}
}

// NewCSVURL creates a producer that fetches url at Produce time.
func NewCSVURL(url string, f Fetcher, opts ...Option) *CSV {
	o := defaultOptions().apply(opts...)
	if o.name == "" {
		o.name = url
	}
	return &CSV{
		path: url,
		open: func(ctx context.Context) (io.ReadCloser, error) { return f.Open(ctx, url) },
		opts: o,
	}
}
