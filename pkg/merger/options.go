package merger

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/parcelmap/pkg/authority"
	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/provenance"
	"github.com/agentstation/parcelmap/pkg/similarity"
)

// Option configures a Merger
type Option func(*options) error

type options struct {
	scorer    similarity.Scorer
	authority authority.Authority
	tracker   provenance.Tracker
	logger    *zerolog.Logger
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

// WithSimilarity sets the scorer used for owner name conflict detection.
func WithSimilarity(s similarity.Scorer) Option {
	return func(o *options) error {
		if s == nil {
			return errors.NewValidationError("similarity", nil, "scorer cannot be nil")
		}
		o.scorer = s
		return nil
	}
}

// WithAuthority overrides the field authorities taken from the rules.
func WithAuthority(a authority.Authority) Option {
	return func(o *options) error {
		if a == nil {
			return errors.NewValidationError("authority", nil, "authority cannot be nil")
		}
		o.authority = a
		return nil
	}
}

// WithProvenance records the origin of every merged field in tracker.
func WithProvenance(tracker provenance.Tracker) Option {
	return func(o *options) error {
		o.tracker = tracker
		return nil
	}
}

// WithLogger sets the logger used for conflict warnings.
func WithLogger(l *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = l
		return nil
	}
}
