package rules

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/parcelmap/internal/cmd/application"
	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/rules"
)

func run(t *testing.T, app *application.Mock, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestShow(t *testing.T) {
	t.Run("yaml round trips", func(t *testing.T) {
		out, err := run(t, &application.Mock{}, "show")
		require.NoError(t, err)

		cfg, err := rules.Parse([]byte(out))
		require.NoError(t, err)
		assert.Equal(t, rules.Default().Thresholds, cfg.Thresholds)
	})

	t.Run("json", func(t *testing.T) {
		app := &application.Mock{OutputFormatFunc: func() string { return "json" }}
		out, err := run(t, app, "show")
		require.NoError(t, err)

		var cfg rules.Config
		require.NoError(t, json.Unmarshal([]byte(out), &cfg))
		assert.Equal(t, rules.Default().Workers, cfg.Workers)
	})
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(good, []byte("thresholds:\n  name: 85\n"), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte("thresholds:\n  name: 185\n"), 0o600))

	out, err := run(t, &application.Mock{}, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid (name 85")

	_, err = run(t, &application.Mock{}, "validate", bad)
	assert.True(t, errors.IsValidationError(err), "got %v", err)

	_, err = run(t, &application.Mock{}, "validate", filepath.Join(dir, "missing.yaml"))
	var ioErr *errors.IOError
	assert.True(t, errors.As(err, &ioErr), "got %v", err)
}
