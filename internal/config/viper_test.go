package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/rules"
)

func TestLoadRulesDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, rules.Default().Thresholds, cfg.Thresholds)
}

func TestLoadRulesOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("thresholds:\n  name: 85\n"), 0o600))

	viper.Set(KeyAddressThreshold, 97)
	viper.Set(KeyWorkers, 2)

	cfg, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, 85.0, cfg.Thresholds.Name)
	assert.Equal(t, 97.0, cfg.Thresholds.Address)
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoadRulesFromViperKey(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scoring:\n  low_score: 50\n"), 0o600))
	viper.Set(KeyRules, path)

	cfg, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Scoring.LowScore)
}

func TestLoadRulesInvalidOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set(KeyNameThreshold, 150)
	_, err := LoadRules("")
	assert.True(t, errors.IsValidationError(err))
}

func TestGetString(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("API_TOKEN", "from-env")
	assert.Equal(t, "from-env", GetString(KeyAPIToken))

	viper.Set(KeyAPIToken, "from-viper")
	assert.Equal(t, "from-viper", GetString(KeyAPIToken))

	assert.Empty(t, GetString(KeyAPIAuth))
}
