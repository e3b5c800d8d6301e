package matcher

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/similarity"
)

// Option configures a Matcher
type Option func(*options) error

type options struct {
	scorer similarity.Scorer
	logger *zerolog.Logger
}

func defaultOptions() *options {
	return &options{}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithSimilarity sets the similarity scorer, typically a shared similarity.Cache.
func WithSimilarity(s similarity.Scorer) Option {
	return func(o *options) error {
		if s == nil {
			return errors.NewValidationError("similarity", nil, "scorer cannot be nil")
		}
		o.scorer = s
		return nil
	}
}

// WithLogger sets the logger used for tie warnings.
func WithLogger(l *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = l
		return nil
	}
}
