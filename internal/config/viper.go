// Package config applies environment and config file overrides to rule sets.
package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/agentstation/parcelmap/pkg/constants"
	"github.com/agentstation/parcelmap/pkg/rules"
)

// Override keys read from viper (env vars, .parcelmap.yaml).
const (
	KeyRules            = "rules"
	KeyNameThreshold    = "name_threshold"
	KeyAddressThreshold = "address_threshold"
	KeyConflict         = "conflict_threshold"
	KeyWorkers          = "workers"

	// Remote input authentication (PARCELMAP_API_TOKEN style env vars map here)
	KeyAPIToken = "api_token"
	KeyAPIAuth  = "api_auth"
)

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables (upper-cased key) and Viper configuration.
func GetString(key string) string {
	osValue := os.Getenv(strings.ToUpper(key))
	viperValue := viper.GetString(key)

	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}

// LoadRules reads the rules file at path, falling back to the rules key and
// then to constants.DefaultRulesPath when present, applies
// viper overrides and validates the result.
func LoadRules(path string) (*rules.Config, error) {
	if path == "" {
		path = GetString(KeyRules)
	}
	if path == "" {
		if _, err := os.Stat(constants.DefaultRulesPath); err == nil {
			path = constants.DefaultRulesPath
		}
	}

	var (
		cfg *rules.Config
		err error
	)
	if path == "" {
		cfg = rules.Default()
	} else if cfg, err = rules.Load(path); err != nil {
		return nil, err
	}

	ApplyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides copies any set override keys onto cfg.
func ApplyOverrides(cfg *rules.Config) {
	if viper.IsSet(KeyNameThreshold) {
		cfg.Thresholds.Name = viper.GetFloat64(KeyNameThreshold)
	}
	if viper.IsSet(KeyAddressThreshold) {
		cfg.Thresholds.Address = viper.GetFloat64(KeyAddressThreshold)
	}
	if viper.IsSet(KeyConflict) {
		cfg.Thresholds.Conflict = viper.GetFloat64(KeyConflict)
	}
	if viper.IsSet(KeyWorkers) {
		cfg.Workers = viper.GetInt(KeyWorkers)
	}
}
