package parcelmap

import (
	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/reconciler"
	"github.com/agentstation/parcelmap/pkg/rules"
	"github.com/agentstation/parcelmap/pkg/save"
	"github.com/agentstation/parcelmap/pkg/similarity"
)

// Option is a function that configures a Client
type Option func(*config) error

// config holds the client configuration
type config struct {
	rules      *rules.Config
	provenance bool
	similarity similarity.Scorer
	consumer   save.Consumer
}

func defaultConfig() *config {
	return &config{provenance: true}
}

func (c *config) reconcilerOptions() []reconciler.Option {
	opts := []reconciler.Option{reconciler.WithProvenance(c.provenance)}
	if c.rules != nil {
		opts = append(opts, reconciler.WithRules(c.rules))
	}
	if c.similarity != nil {
		opts = append(opts, reconciler.WithSimilarity(c.similarity))
	}
	return opts
}

// WithRules configures the rule set. Defaults to rules.Default().
func WithRules(cfg *rules.Config) Option {
	return func(c *config) error {
		if cfg == nil {
			return errors.NewValidationError("rules", nil, "rules cannot be nil")
		}
		c.rules = cfg
		return nil
	}
}

// WithProvenance configures whether merged fields record their provenance
func WithProvenance(enabled bool) Option {
	return func(c *config) error {
		c.provenance = enabled
		return nil
	}
}

// WithSimilarity configures the string similarity scorer used for matching
func WithSimilarity(s similarity.Scorer) Option {
	return func(c *config) error {
		if s == nil {
			return errors.NewValidationError("similarity", nil, "scorer cannot be nil")
		}
		c.similarity = s
		return nil
	}
}

// WithConsumer configures where the final records and report are delivered
func WithConsumer(consumer save.Consumer) Option {
	return func(c *config) error {
		c.consumer = consumer
		return nil
	}
}
