package app

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/agentstation/parcelmap/pkg/logging"
)

// TestDetermineLogLevel tests the log level precedence logic.
func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{
			name:     "default level when no flags set",
			config:   &Config{},
			expected: "info",
		},
		{
			name:     "verbose flag sets debug",
			config:   &Config{Verbose: true},
			expected: "debug",
		},
		{
			name:     "quiet flag sets warn",
			config:   &Config{Quiet: true},
			expected: "warn",
		},
		{
			name:     "explicit log-level overrides verbose",
			config:   &Config{LogLevel: "error", Verbose: true},
			expected: "error",
		},
		{
			name:     "explicit log-level overrides both flags",
			config:   &Config{LogLevel: "trace", Verbose: true, Quiet: true},
			expected: "trace",
		},
		{
			name:     "both verbose and quiet prefers quiet",
			config:   &Config{Verbose: true, Quiet: true},
			expected: "warn",
		},
		{
			name:     "invalid log level falls back to info",
			config:   &Config{LogLevel: "loud"},
			expected: "info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := determineLogLevel(tt.config)
			if result != tt.expected {
				t.Errorf("determineLogLevel() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

// TestValidateLogLevel tests log level validation.
func TestValidateLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected string
		ok       bool
	}{
		{"trace", "trace", true},
		{"debug", "debug", true},
		{"DEBUG", "debug", true},
		{"Warn", "warn", true},
		{"error", "error", true},
		{"invalid", "info", false},
		{"", "info", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			result, ok := validateLogLevel(tt.level)
			if result != tt.expected || ok != tt.ok {
				t.Errorf("validateLogLevel(%q) = %q, %v, expected %q, %v", tt.level, result, ok, tt.expected, tt.ok)
			}
		})
	}
}

// TestNewLogger verifies logger creation with various configs.
func TestNewLogger(t *testing.T) {
	for _, config := range []*Config{
		{LogFormat: "auto", LogOutput: "stderr"},
		{LogFormat: "json", LogOutput: "discard", Verbose: true},
		{LogFormat: "console", LogOutput: "discard", LogLevel: "trace"},
	} {
		logger := NewLogger(config)
		if logger.GetLevel().String() != determineLogLevel(config) {
			t.Errorf("logger level = %s, want %s", logger.GetLevel(), determineLogLevel(config))
		}
	}
}

// TestNewLoggerInstallsDefault tests that the CLI logger becomes the library default.
func TestNewLoggerInstallsDefault(t *testing.T) {
	original := *logging.Default()
	oldLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		logging.SetDefault(original)
		zerolog.SetGlobalLevel(oldLevel)
	})

	logger := NewLogger(&Config{LogLevel: "warn", LogFormat: "json", LogOutput: "discard"})

	if logger.GetLevel() != zerolog.WarnLevel {
		t.Errorf("NewLogger() level = %v, expected warn", logger.GetLevel())
	}
	if logging.Default().GetLevel() != zerolog.WarnLevel {
		t.Errorf("default logger level = %v, expected warn", logging.Default().GetLevel())
	}
}
