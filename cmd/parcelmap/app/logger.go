package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/parcelmap/pkg/logging"
)

// NewLogger creates a configured logger and installs it as the package
// default so library code logging through logging.Default follows the CLI
// flags. Level precedence (highest to lowest):
//  1. --log-level flag or LOG_LEVEL
//  2. -q/--quiet (warn) when combined with -v
//  3. -v/--verbose (debug)
//  4. -q/--quiet (warn)
//  5. info
func NewLogger(config *Config) zerolog.Logger {
	level := determineLogLevel(config)

	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.NoColor = cfg.NoColor || config.NoColor
	cfg.AddCaller = level == "debug" || level == "trace"
	if config.LogFormat != "" {
		cfg.Format = config.LogFormat
	}
	if config.LogOutput != "" {
		cfg.Output = config.LogOutput
	}

	logging.Configure(cfg)
	return *logging.Default()
}

func determineLogLevel(config *Config) string {
	if config.LogLevel != "" {
		level, ok := validateLogLevel(config.LogLevel)
		if !ok {
			fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using %q\n", config.LogLevel, level)
		}
		return level
	}

	switch {
	case config.Verbose && config.Quiet:
		fmt.Fprintf(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet\n")
		return "warn"
	case config.Verbose:
		return "debug"
	case config.Quiet:
		return "warn"
	}
	return "info"
}

// validateLogLevel accepts any level zerolog knows, case-insensitively, and
// falls back to info.
func validateLogLevel(level string) (string, bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" || lvl == zerolog.NoLevel {
		return "info", false
	}
	return lvl.String(), true
}
