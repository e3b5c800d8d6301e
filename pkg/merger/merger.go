// Package merger combines each linked API/scraped pair into one merged record.
// The API record is the base; field authorities decide which origin wins for
// every other field, and the choice is recorded per field.
package merger

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/parcelmap/pkg/authority"
	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/logging"
	"github.com/agentstation/parcelmap/pkg/provenance"
	"github.com/agentstation/parcelmap/pkg/records"
	"github.com/agentstation/parcelmap/pkg/rules"
	"github.com/agentstation/parcelmap/pkg/similarity"
)

// MergedIDPrefix prefixes the id of every merged record.
const MergedIDPrefix = "merged-"

// identityFields always come from the API record.
var identityFields = map[string]bool{
	records.FieldOwnerName:       true,
	records.FieldPropertyAddress: true,
	records.FieldParcelID:        true,
}

// Merger merges linked pairs.
type Merger struct {
	cfg     *rules.Config
	auth    authority.Authority
	sim     similarity.Scorer
	tracker provenance.Tracker
	logger  *zerolog.Logger
}

// Conflict is a merge conflict tied to the merged record that carries it.
type Conflict struct {
	RecordID string `json:"record_id" yaml:"record_id"`
	ParcelID string `json:"parcel_id" yaml:"parcel_id"`
	records.Conflict
}

// Stats counts output records by data source.
type Stats struct {
	Merged      int `json:"merged" yaml:"merged"`
	APIOnly     int `json:"api_only" yaml:"api_only"`
	ScrapedOnly int `json:"scraped_only" yaml:"scraped_only"`
}

// Result is the record set after merging.
type Result struct {
	Records   []*records.CanonicalRecord
	Conflicts []Conflict
	Stats     Stats
}

// New creates a Merger.
func New(cfg *rules.Config, opts ...Option) (*Merger, error) {
	if cfg == nil {
		return nil, errors.NewConfigError("merger", "rules are required", nil)
	}
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	if o.scorer == nil {
		o.scorer = similarity.ScorerFunc(similarity.Ratio)
	}
	if o.authority == nil {
		o.authority = authority.New(cfg.FieldAuthorities)
	}
	if o.logger == nil {
		o.logger = logging.Default()
	}
	return &Merger{
		cfg:     cfg,
		auth:    o.authority,
		sim:     o.scorer,
		tracker: o.tracker,
		logger:  o.logger,
	}, nil
}

// Merge replaces each linked pair with one merged record placed where the
// API record was. Every other record passes through as the same pointer.
// Inputs are never modified.
func (m *Merger) Merge(ctx context.Context, recs []*records.CanonicalRecord, links []records.MergeLink) (*Result, error) {
	idx := records.Index(recs)
	byAPI := make(map[string]records.MergeLink, len(links))
	retired := make(map[string]bool, len(links))
	for _, l := range links {
		api, scrape := idx[l.API], idx[l.Scrape]
		if api == nil || scrape == nil {
			return nil, errors.NewValidationError("links", l, "link references an unknown record")
		}
		if api.Origin != records.OriginAPI || scrape.Origin != records.OriginScrape {
			return nil, errors.NewValidationError("links", l, "link must pair an API record with a scraped record")
		}
		if retired[l.API] || retired[l.Scrape] {
			return nil, errors.NewValidationError("links", l, "record appears in more than one link")
		}
		byAPI[l.API] = l
		retired[l.API], retired[l.Scrape] = true, true
	}

	result := &Result{Records: make([]*records.CanonicalRecord, 0, len(recs)-len(links))}
	for _, r := range recs {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapCanceled(err)
		}
		l, linked := byAPI[r.ID]
		switch {
		case linked:
			log := logging.FromContext(logging.WithParcel(logging.WithLogger(ctx, m.logger), l.ParcelID))
			merged, conflicts := m.pair(log, idx[l.API], idx[l.Scrape])
			result.Records = append(result.Records, merged)
			result.Conflicts = append(result.Conflicts, conflicts...)
		case retired[r.ID]:
			continue
		default:
			result.Records = append(result.Records, r)
		}
	}

	for _, r := range result.Records {
		switch r.DataSource {
		case records.SourceMerged:
			result.Stats.Merged++
		case records.SourceScrapedOnly:
			result.Stats.ScrapedOnly++
		default:
			result.Stats.APIOnly++
		}
	}
	return result, nil
}

// Pair merges one API record with one scraped record sharing its parcel id.
func (m *Merger) Pair(api, scrape *records.CanonicalRecord) (*records.CanonicalRecord, []Conflict) {
	return m.pair(m.logger, api, scrape)
}

func (m *Merger) pair(log *zerolog.Logger, api, scrape *records.CanonicalRecord) (*records.CanonicalRecord, []Conflict) {
	out := api.Clone()
	out.ID = MergedIDPrefix + api.ParcelID
	out.Origin = records.OriginAPI
	out.DataSource = records.SourceMerged
	out.MergedFrom = []string{api.ID, scrape.ID}
	out.FieldOrigins = make(map[string]records.Origin)
	out.Validated = api.Validated && scrape.Validated
	if scrape.FetchedAt.After(api.FetchedAt) {
		out.FetchedAt = scrape.FetchedAt
	}
	for _, f := range scrape.Flags {
		out.AddFlag(f)
	}
	for _, n := range scrape.Notes {
		out.AddNote(n)
	}

	for _, spec := range records.Fields() {
		m.field(out, api, scrape, spec)
	}

	return out, m.conflicts(log, out, api, scrape)
}

// field selects one field for out. The authoritative origin wins whenever it
// holds a value; otherwise the other origin fills the gap.
func (m *Merger) field(out, api, scrape *records.CanonicalRecord, spec records.FieldSpec) {
	placeholders := m.cfg.Placeholders
	apiValue, scrapeValue := spec.Value(api), spec.Value(scrape)

	primary, secondary := api, scrape
	reason, priority := provenance.ReasonAuthority, 0
	if identityFields[spec.Name] {
		reason = provenance.ReasonIdentity
	} else if f := m.auth.Find(spec.Name); f != nil {
		priority = f.Priority
		if f.Origin == records.OriginScrape {
			primary, secondary = scrape, api
		}
	}

	var from *records.CanonicalRecord
	switch {
	case records.IsValue(spec.Value(primary), placeholders):
		from = primary
	case identityFields[spec.Name]:
		// identity fields are never filled from the scraped side
		return
	case records.IsValue(spec.Value(secondary), placeholders):
		from, reason = secondary, provenance.ReasonGapFill
	default:
		return
	}

	spec.Copy(out, from)
	out.FieldOrigins[spec.Name] = from.Origin

	if m.tracker == nil {
		return
	}
	prov := provenance.Provenance{
		Origin:   from.Origin,
		Field:    spec.Name,
		Value:    spec.Value(from),
		Priority: priority,
		Reason:   reason,
	}
	if from == scrape && apiValue != "" && apiValue != scrapeValue {
		prov.PreviousValue = apiValue
	} else if from == api && scrapeValue != "" && scrapeValue != apiValue {
		prov.PreviousValue = scrapeValue
	}
	m.tracker.Track(out.ID, spec.Name, prov)
}

// conflicts annotates owner name and address disagreements on out.
func (m *Merger) conflicts(log *zerolog.Logger, out, api, scrape *records.CanonicalRecord) []Conflict {
	var found []Conflict

	nameScore := m.sim.Ratio(api.OwnerNameNorm, scrape.OwnerNameNorm)
	if nameScore < m.cfg.Thresholds.Conflict {
		out.AddNote(records.NoteOwnerConflict)
		found = append(found, m.conflict(log, out, records.Conflict{
			Field:       records.FieldOwnerName,
			APIValue:    api.OwnerNameNorm,
			ScrapeValue: scrape.OwnerNameNorm,
			Similarity:  nameScore,
		}))
	}

	if api.AddressNorm != scrape.AddressNorm {
		out.AddNote(records.NoteAddressConflict)
		found = append(found, m.conflict(log, out, records.Conflict{
			Field:       records.FieldPropertyAddress,
			APIValue:    api.AddressNorm,
			ScrapeValue: scrape.AddressNorm,
			Similarity:  m.sim.Ratio(api.AddressNorm, scrape.AddressNorm),
		}))
	}
	return found
}

func (m *Merger) conflict(log *zerolog.Logger, out *records.CanonicalRecord, c records.Conflict) Conflict {
	out.Conflicts = append(out.Conflicts, c)
	log.Warn().
		Err(errors.NewConflictError(out.ParcelID, c.Field, c.APIValue, c.ScrapeValue)).
		Str("record_id", out.ID).
		Float64("similarity", c.Similarity).
		Msg("Merge conflict")

	return Conflict{RecordID: out.ID, ParcelID: out.ParcelID, Conflict: c}
}
