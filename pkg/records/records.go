// Package records defines the data model shared by every reconciliation stage:
// raw records as acquired, canonical records as normalized, and the transient
// cluster and link assignments produced by the matcher.
package records

import (
	"slices"
	"strings"
	"time"
)

// Origin tags where a record came from.
type Origin string

// Origins.
const (
	OriginAPI    Origin = "API"
	OriginScrape Origin = "SCRAPE"
)

// ParseOrigin parses an origin tag case-insensitively.
func ParseOrigin(s string) (Origin, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "API":
		return OriginAPI, true
	case "SCRAPE", "SCRAPED", "WEB":
		return OriginScrape, true
	}
	return "", false
}

// String returns the origin tag.
func (o Origin) String() string { return string(o) }

// DataSource describes how a canonical record was produced.
type DataSource string

// Data sources.
const (
	SourceAPIOnly     DataSource = "api_only"
	SourceScrapedOnly DataSource = "scraped_only"
	SourceMerged      DataSource = "merged"
)

// SourceFor returns the single-origin data source for o.
func SourceFor(o Origin) DataSource {
	if o == OriginScrape {
		return SourceScrapedOnly
	}
	return SourceAPIOnly
}

// DedupReason is the closed set of reasons a record joined a duplicate cluster.
type DedupReason string

// Dedup reasons, in the order the matcher applies them.
const (
	ReasonExactParcel  DedupReason = "exact_parcel_match"
	ReasonExactAddress DedupReason = "exact_address_match"
	ReasonFuzzy        DedupReason = "fuzzy_match"
)

// OwnerType classifies the owner.
type OwnerType string

// Owner types.
const (
	OwnerIndividual OwnerType = "individual"
	OwnerEntity     OwnerType = "entity"
)

// EnrichmentLevel is the completeness tier derived from the quality score.
type EnrichmentLevel string

// Enrichment levels.
const (
	LevelBasic    EnrichmentLevel = "basic"
	LevelEnhanced EnrichmentLevel = "enhanced"
	LevelComplete EnrichmentLevel = "complete"
)

// Generated notes.
const (
	NotePOBox             = "PO Box address"
	NoteEnriched          = "Enriched with scraped data"
	NoteMissingSale       = "Missing sale data"
	NotePossibleDuplicate = "Possible duplicate - manually review"
	NoteOwnerConflict     = "Conflict detected: owner names differ"
	NoteAddressConflict   = "Conflict detected: addresses differ"
	NoteLowQuality        = "Low quality score - missing fields"
)

// RawRecord is a record exactly as acquired from one origin.
type RawRecord struct {
	Origin     Origin            `json:"origin" yaml:"origin"`
	Fields     map[string]string `json:"fields" yaml:"fields"`
	FetchedAt  time.Time         `json:"fetched_at,omitzero" yaml:"fetched_at,omitempty"`
	FetchError string            `json:"fetch_error,omitempty" yaml:"fetch_error,omitempty"`
}

// Conflict records a disagreement between the two halves of a merge.
type Conflict struct {
	Field       string  `json:"field" yaml:"field"`
	APIValue    string  `json:"api_value" yaml:"api_value"`
	ScrapeValue string  `json:"scrape_value" yaml:"scrape_value"`
	Similarity  float64 `json:"similarity" yaml:"similarity"`
}

// CanonicalRecord is the working unit of the matcher, merger and scorer.
// Optional attributes are pointers so that absence is distinguishable from zero.
type CanonicalRecord struct {
	ID          string `json:"id" yaml:"id"`
	ParcelID    string `json:"parcel_id" yaml:"parcel_id"`
	ParcelIDRaw string `json:"parcel_id_raw,omitempty" yaml:"parcel_id_raw,omitempty"`

	OwnerNameRaw  string `json:"owner_name_raw" yaml:"owner_name_raw"`
	OwnerNameNorm string `json:"owner_name_norm" yaml:"owner_name_norm"`
	AddressRaw    string `json:"address_raw" yaml:"address_raw"`
	AddressNorm   string `json:"address_norm" yaml:"address_norm"`
	UnitNumber    string `json:"unit_number,omitempty" yaml:"unit_number,omitempty"`
	City          string `json:"city,omitempty" yaml:"city,omitempty"`
	State         string `json:"state,omitempty" yaml:"state,omitempty"`
	Zip           string `json:"zip,omitempty" yaml:"zip,omitempty"`

	AssessedValue *float64 `json:"assessed_value,omitempty" yaml:"assessed_value,omitempty"`
	SalePrice     *float64 `json:"sale_price,omitempty" yaml:"sale_price,omitempty"`
	SaleDate      *string  `json:"sale_date,omitempty" yaml:"sale_date,omitempty"`
	SquareFootage *int     `json:"square_footage,omitempty" yaml:"square_footage,omitempty"`
	YearBuilt     *int     `json:"year_built,omitempty" yaml:"year_built,omitempty"`
	Bedrooms      *int     `json:"bedrooms,omitempty" yaml:"bedrooms,omitempty"`
	Bathrooms     *float64 `json:"bathrooms,omitempty" yaml:"bathrooms,omitempty"`
	DeedBook      *string  `json:"deed_book,omitempty" yaml:"deed_book,omitempty"`
	DeedPage      *string  `json:"deed_page,omitempty" yaml:"deed_page,omitempty"`

	Origin       Origin            `json:"origin" yaml:"origin"`
	DataSource   DataSource        `json:"data_source" yaml:"data_source"`
	FieldOrigins map[string]Origin `json:"field_origins,omitempty" yaml:"field_origins,omitempty"`
	MergedFrom   []string          `json:"merged_from,omitempty" yaml:"merged_from,omitempty"`

	OwnerType       OwnerType       `json:"owner_type" yaml:"owner_type"`
	QualityScore    int             `json:"quality_score" yaml:"quality_score"`
	EnrichmentLevel EnrichmentLevel `json:"enrichment_level" yaml:"enrichment_level"`

	Validated bool     `json:"validated" yaml:"validated"`
	Flags     []string `json:"flags,omitempty" yaml:"flags,omitempty"`

	IsDuplicate        bool        `json:"is_duplicate" yaml:"is_duplicate"`
	DuplicateOf        string      `json:"duplicate_of,omitempty" yaml:"duplicate_of,omitempty"`
	DedupReason        DedupReason `json:"dedup_reason,omitempty" yaml:"dedup_reason,omitempty"`
	PossibleDuplicates []string    `json:"possible_duplicates,omitempty" yaml:"possible_duplicates,omitempty"`

	Conflicts []Conflict `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`

	FetchedAt time.Time `json:"fetched_at,omitzero" yaml:"fetched_at,omitempty"`
	Notes     []string  `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Clone returns a deep copy of the record.
func (r *CanonicalRecord) Clone() *CanonicalRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.AssessedValue = clonePtr(r.AssessedValue)
	c.SalePrice = clonePtr(r.SalePrice)
	c.SaleDate = clonePtr(r.SaleDate)
	c.SquareFootage = clonePtr(r.SquareFootage)
	c.YearBuilt = clonePtr(r.YearBuilt)
	c.Bedrooms = clonePtr(r.Bedrooms)
	c.Bathrooms = clonePtr(r.Bathrooms)
	c.DeedBook = clonePtr(r.DeedBook)
	c.DeedPage = clonePtr(r.DeedPage)
	if r.FieldOrigins != nil {
		c.FieldOrigins = make(map[string]Origin, len(r.FieldOrigins))
		for k, v := range r.FieldOrigins {
			c.FieldOrigins[k] = v
		}
	}
	c.MergedFrom = slices.Clone(r.MergedFrom)
	c.Flags = slices.Clone(r.Flags)
	c.PossibleDuplicates = slices.Clone(r.PossibleDuplicates)
	c.Conflicts = slices.Clone(r.Conflicts)
	c.Notes = slices.Clone(r.Notes)
	return &c
}

// AddNote appends a note unless it is already present.
func (r *CanonicalRecord) AddNote(note string) {
	if note == "" || slices.Contains(r.Notes, note) {
		return
	}
	r.Notes = append(r.Notes, note)
}

// AddFlag appends a validation flag unless it is already present.
func (r *CanonicalRecord) AddFlag(flag string) {
	if flag == "" || slices.Contains(r.Flags, flag) {
		return
	}
	r.Flags = append(r.Flags, flag)
}

// HasConflict reports whether the merger recorded a conflict on field.
func (r *CanonicalRecord) HasConflict(field string) bool {
	for _, c := range r.Conflicts {
		if c.Field == field {
			return true
		}
	}
	return false
}

// Zip5 returns the five-digit prefix of the zip code.
func (r *CanonicalRecord) Zip5() string {
	if len(r.Zip) >= 5 {
		return r.Zip[:5]
	}
	return r.Zip
}

// DuplicateCluster is a set of record ids believed to describe one property.
type DuplicateCluster struct {
	Members []string    `json:"members" yaml:"members"`
	Reason  DedupReason `json:"reason" yaml:"reason"`
	Kept    string      `json:"kept" yaml:"kept"`
}

// MergeLink pairs one API record with one scraped record sharing a parcel id.
type MergeLink struct {
	ParcelID string `json:"parcel_id" yaml:"parcel_id"`
	API      string `json:"api" yaml:"api"`
	Scrape   string `json:"scrape" yaml:"scrape"`
}

// Rejection is a record excluded during normalization along with its cause.
// Record holds whatever could be normalized before the failure.
type Rejection struct {
	Record *CanonicalRecord
	Err    error
}

// Index maps record ids to records.
func Index(recs []*CanonicalRecord) map[string]*CanonicalRecord {
	idx := make(map[string]*CanonicalRecord, len(recs))
	for _, r := range recs {
		idx[r.ID] = r
	}
	return idx
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
