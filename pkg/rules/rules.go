// Package rules holds the immutable configuration every reconciliation stage is
// built from: similarity thresholds, score weights, canonicalization tables and
// field authorities. A Config is constructed once, validated, and passed to each
// component at construction; nothing reads ambient global state.
package rules

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"

	"github.com/agentstation/parcelmap/pkg/authority"
	"github.com/agentstation/parcelmap/pkg/constants"
	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/records"
)

// Mapping rewrites a variant spelling to its canonical form.
type Mapping struct {
	Variant   string `json:"variant" yaml:"variant"`
	Canonical string `json:"canonical" yaml:"canonical"`
}

// Thresholds are similarity cut-offs on the 0-100 scale.
type Thresholds struct {
	Name       float64 `json:"name" yaml:"name"`
	Address    float64 `json:"address" yaml:"address"`
	Conflict   float64 `json:"conflict" yaml:"conflict"`
	ReviewBand float64 `json:"review_band" yaml:"review_band"`
}

// Scoring configures the completeness score and tiers.
type Scoring struct {
	Weights        map[string]int `json:"weights" yaml:"weights"`
	MergedBonus    int            `json:"merged_bonus" yaml:"merged_bonus"`
	ValidatedBonus int            `json:"validated_bonus" yaml:"validated_bonus"`
	EnhancedCutoff int            `json:"enhanced_cutoff" yaml:"enhanced_cutoff"`
	CompleteCutoff int            `json:"complete_cutoff" yaml:"complete_cutoff"`
	LowScore       int            `json:"low_score" yaml:"low_score"`
	MaxScore       int            `json:"max_score" yaml:"max_score"`
}

// Config is the full rule set.
type Config struct {
	Thresholds Thresholds `json:"thresholds" yaml:"thresholds"`
	Scoring    Scoring    `json:"scoring" yaml:"scoring"`

	EntitySuffixes  []Mapping `json:"entity_suffixes" yaml:"entity_suffixes"`
	EntityTokens    []string  `json:"entity_tokens" yaml:"entity_tokens"`
	StreetSuffixes  []Mapping `json:"street_suffixes" yaml:"street_suffixes"`
	Directionals    []Mapping `json:"directionals" yaml:"directionals"`
	UnitDesignators []string  `json:"unit_designators" yaml:"unit_designators"`
	POBoxPattern    string    `json:"po_box_pattern" yaml:"po_box_pattern"`

	// ParcelWidths is the standard parcel id width per origin; origins
	// without an entry are never padded.
	ParcelWidths map[records.Origin]int `json:"parcel_widths,omitempty" yaml:"parcel_widths,omitempty"`

	// States maps full state names to USPS codes.
	States       map[string]string `json:"states" yaml:"states"`
	Placeholders []string          `json:"placeholders" yaml:"placeholders"`

	// FieldAliases maps alternative raw field keys to canonical keys.
	FieldAliases     map[string]string   `json:"field_aliases" yaml:"field_aliases"`
	FieldAuthorities []authority.Field   `json:"field_authorities" yaml:"field_authorities"`
	HTMLSelectors    map[string][]string `json:"html_selectors" yaml:"html_selectors"`

	Workers int `json:"workers" yaml:"workers"`
}

// Default returns the documented default rule set.
func Default() *Config {
	return &Config{
		Thresholds: Thresholds{Name: 90, Address: 95, Conflict: 90, ReviewBand: 5},
		Scoring: Scoring{
			Weights: map[string]int{
				records.FieldOwnerName:       15,
				records.FieldPropertyAddress: 15,
				records.FieldParcelID:        10,
				records.FieldCity:            5,
				records.FieldState:           2,
				records.FieldZip:             3,
				records.FieldAssessedValue:   8,
				records.FieldSalePrice:       7,
				records.FieldSaleDate:        5,
				records.FieldSquareFootage:   6,
				records.FieldYearBuilt:       6,
				records.FieldBedrooms:        4,
				records.FieldBathrooms:       4,
				records.FieldDeedBook:        3,
				records.FieldDeedPage:        2,
			},
			MergedBonus:    10,
			ValidatedBonus: 5,
			EnhancedCutoff: 70,
			CompleteCutoff: 90,
			LowScore:       60,
			MaxScore:       100,
		},
		EntitySuffixes:   defaultEntitySuffixes(),
		EntityTokens:     []string{"LLC", "CORP", "TRUST", "LP", "LLP", "PARTNERSHIP"},
		StreetSuffixes:   defaultStreetSuffixes(),
		Directionals:     defaultDirectionals(),
		UnitDesignators:  []string{"APT", "APARTMENT", "UNIT", "STE", "SUITE", "#"},
		POBoxPattern:     `(?i)\bP\.?\s*O\.?\s*BOX\b`,
		ParcelWidths:     map[records.Origin]int{},
		States:           defaultStates(),
		Placeholders:     []string{"N/A", "NA", "NONE", "UNKNOWN", "-", "NULL"},
		FieldAliases:     defaultAliases(),
		FieldAuthorities: authority.Defaults(),
		HTMLSelectors:    defaultSelectors(),
		Workers:          min(runtime.NumCPU(), constants.MaxWorkers),
	}
}

// Validate checks internal consistency of the rule set.
func (c *Config) Validate() error {
	for name, v := range map[string]float64{
		"thresholds.name":     c.Thresholds.Name,
		"thresholds.address":  c.Thresholds.Address,
		"thresholds.conflict": c.Thresholds.Conflict,
	} {
		if v < 0 || v > 100 {
			return errors.NewValidationError(name, v, "must be between 0 and 100")
		}
	}
	if c.Thresholds.ReviewBand < 0 {
		return errors.NewValidationError("thresholds.review_band", c.Thresholds.ReviewBand, "must not be negative")
	}

	s := c.Scoring
	if len(s.Weights) == 0 {
		return errors.NewValidationError("scoring.weights", nil, "no field weights configured")
	}
	for field, w := range s.Weights {
		if _, ok := records.Lookup(field); !ok {
			return errors.NewValidationError("scoring.weights", field, "unknown field")
		}
		if w < 0 {
			return errors.NewValidationError("scoring.weights", w, fmt.Sprintf("weight for %s must not be negative", field))
		}
	}
	if s.MaxScore <= 0 {
		return errors.NewValidationError("scoring.max_score", s.MaxScore, "must be positive")
	}
	if s.EnhancedCutoff <= 0 || s.EnhancedCutoff > s.CompleteCutoff || s.CompleteCutoff > s.MaxScore {
		return errors.NewValidationError("scoring", []int{s.EnhancedCutoff, s.CompleteCutoff},
			"tier cutoffs must satisfy 0 < enhanced <= complete <= max_score")
	}

	if len(c.EntitySuffixes) == 0 {
		return errors.NewValidationError("entity_suffixes", nil, "table is empty")
	}
	for _, table := range [][]Mapping{c.EntitySuffixes, c.StreetSuffixes, c.Directionals} {
		for _, m := range table {
			if strings.TrimSpace(m.Variant) == "" || strings.TrimSpace(m.Canonical) == "" {
				return errors.NewValidationError("mapping", m, "variant and canonical must be non-empty")
			}
		}
	}
	if len(c.UnitDesignators) == 0 {
		return errors.NewValidationError("unit_designators", nil, "set is empty")
	}

	if _, err := c.CompilePOBox(); err != nil {
		return errors.NewConfigError("rules", "invalid po_box_pattern", err)
	}

	for origin, width := range c.ParcelWidths {
		if _, ok := records.ParseOrigin(string(origin)); !ok {
			return errors.NewValidationError("parcel_widths", origin, "unknown origin")
		}
		if width <= 0 {
			return errors.NewValidationError("parcel_widths", width, "width must be positive")
		}
	}

	for _, f := range c.FieldAuthorities {
		if _, ok := records.ParseOrigin(string(f.Origin)); !ok {
			return errors.NewValidationError("field_authorities", f.Origin, "unknown origin")
		}
		switch f.Path {
		case records.FieldOwnerName, records.FieldPropertyAddress, records.FieldParcelID:
			if f.Origin != records.OriginAPI {
				return errors.NewValidationError("field_authorities", f.Path, "identity fields are always taken from the API record")
			}
		}
	}

	if c.Workers < 1 || c.Workers > constants.MaxWorkers {
		return errors.NewValidationError("workers", c.Workers, fmt.Sprintf("must be between 1 and %d", constants.MaxWorkers))
	}
	return nil
}

// CompilePOBox compiles the PO-box pattern.
func (c *Config) CompilePOBox() (*regexp.Regexp, error) {
	return regexp.Compile(c.POBoxPattern)
}

// Clone returns a deep copy so callers can derive variants without touching the original.
func (c *Config) Clone() *Config {
	out := *c
	out.Scoring.Weights = cloneMap(c.Scoring.Weights)
	out.EntitySuffixes = append([]Mapping(nil), c.EntitySuffixes...)
	out.EntityTokens = append([]string(nil), c.EntityTokens...)
	out.StreetSuffixes = append([]Mapping(nil), c.StreetSuffixes...)
	out.Directionals = append([]Mapping(nil), c.Directionals...)
	out.UnitDesignators = append([]string(nil), c.UnitDesignators...)
	out.ParcelWidths = cloneMap(c.ParcelWidths)
	out.States = cloneMap(c.States)
	out.Placeholders = append([]string(nil), c.Placeholders...)
	out.FieldAliases = cloneMap(c.FieldAliases)
	out.FieldAuthorities = append([]authority.Field(nil), c.FieldAuthorities...)
	out.HTMLSelectors = make(map[string][]string, len(c.HTMLSelectors))
	for k, v := range c.HTMLSelectors {
		out.HTMLSelectors[k] = append([]string(nil), v...)
	}
	return &out
}

// CanonicalField resolves a raw field key through the alias table.
func (c *Config) CanonicalField(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.NewReplacer(" ", "_", "-", "_").Replace(k)
	if canon, ok := c.FieldAliases[k]; ok {
		return canon
	}
	return k
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
