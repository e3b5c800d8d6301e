// Package app provides the application context and dependency management
// for the parcelmap CLI. It centralizes configuration, logging, the rule set
// and metrics so commands receive them through one interface.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/parcelmap/internal/config"
	"github.com/agentstation/parcelmap/internal/metrics"
	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/reconciler"
	"github.com/agentstation/parcelmap/pkg/rules"
)

// App represents the parcelmap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Rules and metrics (lazy-initialized, singleton)
	mu      sync.RWMutex
	rules   *rules.Config
	metrics *metrics.Metrics
}

// New creates a new App instance with the given version information.
// The app is initialized with configuration loaded from the environment
// that can be customized using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	cfg, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "failed to load config", err)
	}
	app.config = cfg

	logger := NewLogger(cfg)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Output
}

// Rules returns the rule set, loading it on first use. Each caller gets its
// own copy so commands cannot affect one another.
func (a *App) Rules() (*rules.Config, error) {
	a.mu.RLock()
	if a.rules != nil {
		r := a.rules.Clone()
		a.mu.RUnlock()
		return r, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.rules != nil {
		return a.rules.Clone(), nil
	}

	r, err := config.LoadRules(a.config.RulesFile)
	if err != nil {
		return nil, err
	}
	a.rules = r
	return r.Clone(), nil
}

// Metrics returns the metrics registry, creating it on first use.
func (a *App) Metrics() *metrics.Metrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.metrics == nil {
		a.metrics = metrics.NewPrivate()
	}
	return a.metrics
}

// Reconciler builds a reconciler on the application rules and metrics.
func (a *App) Reconciler(opts ...reconciler.Option) (reconciler.Reconciler, error) {
	r, err := a.Rules()
	if err != nil {
		return nil, err
	}
	base := []reconciler.Option{
		reconciler.WithRules(r),
		reconciler.WithMetrics(a.Metrics()),
	}
	return reconciler.New(append(base, opts...)...)
}

// Shutdown performs graceful shutdown of the application.
func (a *App) Shutdown(_ context.Context) error {
	a.logger.Debug().Msg("Shutting down")
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithRules sets a custom rule set (useful for testing).
func WithRules(r *rules.Config) Option {
	return func(a *App) error {
		if err := r.Validate(); err != nil {
			return err
		}
		a.rules = r
		return nil
	}
}
