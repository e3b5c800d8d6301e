package sources

import (
	"time"

	"github.com/agentstation/parcelmap/pkg/records"
)

// Option configures a file producer.
type Option func(*options)

type options struct {
	origin    records.Origin
	fetchedAt time.Time
	name      string
}

func defaultOptions() *options {
	return &options{}
}

func (o *options) apply(opts ...Option) *options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithOrigin sets the origin for rows that do not carry one.
func WithOrigin(origin records.Origin) Option {
	return func(o *options) {
		o.origin = origin
	}
}

// WithFetchedAt sets the fetch time for rows that do not carry one.
func WithFetchedAt(t time.Time) Option {
	return func(o *options) {
		o.fetchedAt = t
	}
}

// WithName overrides the producer name, which defaults to the file path.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}
