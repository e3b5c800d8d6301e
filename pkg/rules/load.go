package rules

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/records"
)

// Load reads a YAML rules file and overlays it on the defaults. Sections
// absent from the file keep their default values; present tables replace the
// default table wholesale.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.File = path
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML rules over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, errors.WrapParse("yaml", "", err)
	}

	cfg := Default()
	cfg.overlay(&override)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders the rules as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.MarshalWithOptions(c, yaml.Indent(2), yaml.IndentSequence(false))
}

func (c *Config) overlay(o *Config) {
	if o.Thresholds.Name != 0 {
		c.Thresholds.Name = o.Thresholds.Name
	}
	if o.Thresholds.Address != 0 {
		c.Thresholds.Address = o.Thresholds.Address
	}
	if o.Thresholds.Conflict != 0 {
		c.Thresholds.Conflict = o.Thresholds.Conflict
	}
	if o.Thresholds.ReviewBand != 0 {
		c.Thresholds.ReviewBand = o.Thresholds.ReviewBand
	}

	// Weights overlay per field so a file can tune one weight.
	for field, w := range o.Scoring.Weights {
		c.Scoring.Weights[field] = w
	}
	overlayInt(&c.Scoring.MergedBonus, o.Scoring.MergedBonus)
	overlayInt(&c.Scoring.ValidatedBonus, o.Scoring.ValidatedBonus)
	overlayInt(&c.Scoring.EnhancedCutoff, o.Scoring.EnhancedCutoff)
	overlayInt(&c.Scoring.CompleteCutoff, o.Scoring.CompleteCutoff)
	overlayInt(&c.Scoring.LowScore, o.Scoring.LowScore)
	overlayInt(&c.Scoring.MaxScore, o.Scoring.MaxScore)

	if len(o.EntitySuffixes) > 0 {
		c.EntitySuffixes = o.EntitySuffixes
	}
	if len(o.EntityTokens) > 0 {
		c.EntityTokens = o.EntityTokens
	}
	if len(o.StreetSuffixes) > 0 {
		c.StreetSuffixes = o.StreetSuffixes
	}
	if len(o.Directionals) > 0 {
		c.Directionals = o.Directionals
	}
	if len(o.UnitDesignators) > 0 {
		c.UnitDesignators = o.UnitDesignators
	}
	if o.POBoxPattern != "" {
		c.POBoxPattern = o.POBoxPattern
	}
	for origin, width := range o.ParcelWidths {
		if canon, ok := records.ParseOrigin(string(origin)); ok {
			origin = canon
		}
		c.ParcelWidths[origin] = width
	}
	for name, code := range o.States {
		c.States[name] = code
	}
	if len(o.Placeholders) > 0 {
		c.Placeholders = o.Placeholders
	}
	for alias, field := range o.FieldAliases {
		c.FieldAliases[alias] = field
	}
	if len(o.FieldAuthorities) > 0 {
		c.FieldAuthorities = o.FieldAuthorities
	}
	for field, sels := range o.HTMLSelectors {
		c.HTMLSelectors[field] = sels
	}
	overlayInt(&c.Workers, o.Workers)
}

func overlayInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
