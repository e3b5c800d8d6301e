package reconciler

import (
	"github.com/agentstation/parcelmap/internal/metrics"
	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/rules"
	"github.com/agentstation/parcelmap/pkg/similarity"
)

// Options configures a reconciler.
type options struct {
	rules    *rules.Config
	tracking bool
	metrics  *metrics.Metrics
	scorer   similarity.Scorer
	runID    string
}

func defaultOptions() *options {
	return &options{
		tracking: true,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithRules sets the rule set. Rules are validated when the reconciler is built.
func WithRules(cfg *rules.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return &errors.ValidationError{
				Field:   "rules",
				Message: "cannot be nil",
			}
		}
		o.rules = cfg
		return nil
	}
}

// WithProvenance enables field-level tracking.
func WithProvenance(enabled bool) Option {
	return func(o *options) error {
		o.tracking = enabled
		return nil
	}
}

// WithMetrics records pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) error {
		o.metrics = m
		return nil
	}
}

// WithSimilarity replaces the default cached edit-distance scorer.
func WithSimilarity(s similarity.Scorer) Option {
	return func(o *options) error {
		if s == nil {
			return &errors.ValidationError{
				Field:   "similarity",
				Message: "cannot be nil",
			}
		}
		o.scorer = s
		return nil
	}
}

// WithRunID fixes the run id instead of generating one per run.
func WithRunID(id string) Option {
	return func(o *options) error {
		o.runID = id
		return nil
	}
}
