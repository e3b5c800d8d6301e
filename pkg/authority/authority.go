// Package authority decides which origin is authoritative for each record field
// when a linked API/scraped pair is merged.
package authority

import (
	"path/filepath"

	"github.com/agentstation/parcelmap/pkg/records"
)

// Authority determines which origin is authoritative for each field
type Authority interface {
	// Find returns the authority configuration for a specific field
	Find(field string) *Field

	// List returns all configured authorities
	List() []Field
}

// Field defines origin priority for a specific field
type Field struct {
	Path     string         `json:"path" yaml:"path"`         // e.g., "owner_name", "sale_*"
	Origin   records.Origin `json:"origin" yaml:"origin"`     // Which origin is authoritative
	Priority int            `json:"priority" yaml:"priority"` // Priority (higher = more authoritative)
}

type authorities struct {
	fields []Field
}

// New creates an Authority over the given fields, falling back to Defaults when empty.
func New(fields []Field) Authority {
	if len(fields) == 0 {
		fields = Defaults()
	}
	return &authorities{fields: fields}
}

// Find returns the authority configuration for a specific field
func (a *authorities) Find(field string) *Field {
	return ByField(field, a.fields)
}

// List returns all configured authorities
func (a *authorities) List() []Field {
	return a.fields
}

// OriginFor returns the authoritative origin for field, or fallback when no
// authority matches.
func OriginFor(a Authority, field string, fallback records.Origin) records.Origin {
	if f := a.Find(field); f != nil {
		return f.Origin
	}
	return fallback
}

// ByField returns the highest priority authority for a given field path
func ByField(fieldPath string, authorities []Field) *Field {
	var bestMatch *Field
	var bestPriority int
	var bestMatchLength int

	for i, auth := range authorities {
		if MatchesPattern(fieldPath, auth.Path) {
			// Prioritize by: 1) priority, 2) pattern specificity (length), 3) order
			patternLength := len(auth.Path)
			if bestMatch == nil || auth.Priority > bestPriority ||
				(auth.Priority == bestPriority && patternLength > bestMatchLength) {
				bestMatch = &authorities[i]
				bestPriority = auth.Priority
				bestMatchLength = patternLength
			}
		}
	}

	return bestMatch
}

// MatchesPattern checks if a field path matches a pattern (supports * wildcards)
func MatchesPattern(fieldPath, pattern string) bool {
	if fieldPath == pattern {
		return true
	}

	if len(pattern) > 0 && pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(fieldPath) >= len(prefix) && fieldPath[:len(prefix)] == prefix
	}

	matched, err := filepath.Match(pattern, fieldPath)
	if err != nil {
		return false
	}
	return matched
}

// FilterByOrigin returns only the authorities for a specific origin
func FilterByOrigin(authorities []Field, origin records.Origin) []Field {
	var filtered []Field
	for _, auth := range authorities {
		if auth.Origin == origin {
			filtered = append(filtered, auth)
		}
	}
	return filtered
}

// Defaults returns the standard field authorities. The county API owns identity
// and location; the scraped detail page owns building and transaction details.
func Defaults() []Field {
	return []Field{
		{Path: records.FieldOwnerName, Origin: records.OriginAPI, Priority: 100},
		{Path: records.FieldPropertyAddress, Origin: records.OriginAPI, Priority: 100},
		{Path: records.FieldParcelID, Origin: records.OriginAPI, Priority: 100},
		{Path: records.FieldUnitNumber, Origin: records.OriginAPI, Priority: 90},
		{Path: records.FieldCity, Origin: records.OriginAPI, Priority: 90},
		{Path: records.FieldState, Origin: records.OriginAPI, Priority: 90},
		{Path: records.FieldZip, Origin: records.OriginAPI, Priority: 90},
		{Path: records.FieldAssessedValue, Origin: records.OriginAPI, Priority: 90},

		{Path: records.FieldSquareFootage, Origin: records.OriginScrape, Priority: 90},
		{Path: records.FieldYearBuilt, Origin: records.OriginScrape, Priority: 90},
		{Path: records.FieldBedrooms, Origin: records.OriginScrape, Priority: 90},
		{Path: records.FieldBathrooms, Origin: records.OriginScrape, Priority: 90},
		{Path: "sale_*", Origin: records.OriginScrape, Priority: 90},
		{Path: "deed_*", Origin: records.OriginScrape, Priority: 90},
	}
}
