package logging_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/agentstation/parcelmap/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	logging.SetDefault(logger)

	logging.Default().Info().Msg("info message")
	logging.Default().Warn().Msg("warning message")

	output := buf.String()
	if !strings.Contains(output, "info message") {
		t.Errorf("Expected info message in output, got: %s", output)
	}
	if !strings.Contains(output, `"level":"warn"`) {
		t.Errorf("Expected warn level in output, got: %s", output)
	}
}

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithRunID(ctx, "run-42")
	ctx = logging.WithStage(ctx, "merge")
	ctx = logging.WithParcel(ctx, "00123")
	ctx = logging.WithOrigin(ctx, "SCRAPE")

	logging.FromContext(ctx).Info().Msg("linked pair")

	testLogger.AssertContains(t, `"run_id":"run-42"`)
	testLogger.AssertContains(t, `"stage":"merge"`)
	testLogger.AssertContains(t, `"parcel_id":"00123"`)
	testLogger.AssertContains(t, `"origin":"SCRAPE"`)
	testLogger.AssertContains(t, "linked pair")
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	//nolint:staticcheck // nil context is handled explicitly
	assert.Same(t, logging.Default(), logging.FromContext(nil))
}

func TestWithFieldTypes(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)

	ctx = logging.WithField(ctx, "records", 12)
	ctx = logging.WithField(ctx, "ratio", 0.5)
	ctx = logging.WithField(ctx, "dry_run", true)
	logging.FromContext(ctx).Debug().Msg("fields")

	assert.True(t, testLogger.ContainsAll(`"records":12`, `"ratio":0.5`, `"dry_run":true`))
}

func TestConfiguration(t *testing.T) {
	configs := []struct {
		name   string
		config *logging.Config
		check  func(t *testing.T, output string)
	}{
		{
			name:   "debug level",
			config: &logging.Config{Level: "debug", Format: "json"},
			check: func(t *testing.T, output string) {
				if !strings.Contains(output, `"level":"debug"`) {
					t.Errorf("Expected debug level in output")
				}
			},
		},
		{
			name:   "error level only",
			config: &logging.Config{Level: "error", Format: "json"},
			check: func(t *testing.T, output string) {
				if strings.Contains(output, `"level":"info"`) {
					t.Errorf("Should not contain info level when set to error")
				}
				if !strings.Contains(output, `"level":"error"`) {
					t.Errorf("Expected error level in output")
				}
			},
		},
	}

	for _, tc := range configs {
		t.Run(tc.name, func(t *testing.T) {
			oldLevel := zerolog.GlobalLevel()
			t.Cleanup(func() { zerolog.SetGlobalLevel(oldLevel) })

			buf := &bytes.Buffer{}
			logger := logging.NewLoggerFromConfig(tc.config).Output(buf)

			logger.Debug().Msg("debug")
			logger.Info().Msg("info")
			logger.Error().Msg("error")

			tc.check(t, buf.String())
		})
	}
}

func TestCaptureLoggingForTest(t *testing.T) {
	captured := logging.CaptureLoggingForTest(t)
	logging.Default().Warn().Str("parcel_id", "P-9").Msg("cluster tie")

	captured.AssertContains(t, "cluster tie")
	captured.AssertNotContains(t, "merge conflict")
	assert.Equal(t, 1, captured.Count())
}
