// Package application provides the application interface for parcelmap commands.
//
// The Application interface defines the contract between the application layer and
// command implementations, enabling dependency injection and testability.
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            r, err := app.Reconciler()
//	            if err != nil {
//	                return err
//	            }
//	            result, err := r.Run(cmd.Context(), raws)
//	            // ... render result
//	        },
//	    }
//	}
//
// Testing with Mocks:
//
//	mock := &application.Mock{
//	    RulesFunc: func() (*rules.Config, error) {
//	        return rules.Default(), nil
//	    },
//	}
//	cmd := NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/parcelmap/internal/metrics"
	"github.com/agentstation/parcelmap/pkg/reconciler"
	"github.com/agentstation/parcelmap/pkg/rules"
)

// Application provides the application interface that commands need.
// The App struct from cmd/parcelmap/app implements this interface.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Rules returns the validated rule set, loaded once from the configured
	// rules file with environment overrides applied.
	Rules() (*rules.Config, error)

	// Reconciler builds a reconciler on the application rules and metrics.
	// Options are applied after the defaults.
	Reconciler(opts ...reconciler.Option) (reconciler.Reconciler, error)

	// Metrics returns the application metrics registry.
	Metrics() *metrics.Metrics

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
