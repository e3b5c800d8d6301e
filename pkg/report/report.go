// Package report builds the quality report that accompanies the final record
// set: every duplicate, low-scoring, conflicting or rejected record with a
// severity and the reasons it was listed.
package report

import (
	"sort"
	"time"

	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/records"
)

// Severity of a report entry.
type Severity string

// Severities, most severe first.
const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

func (s Severity) rank() int {
	if s == SeverityCritical {
		return 0
	}
	return 1
}

// Reason explains why a record is listed.
type Reason string

// Reasons.
const (
	ReasonMissingField    Reason = "missing_required_field"
	ReasonFetchFailed     Reason = "fetch_failed"
	ReasonRejected        Reason = "rejected"
	ReasonDuplicate       Reason = "duplicate"
	ReasonLowScore        Reason = "low_score"
	ReasonOwnerConflict   Reason = "owner_conflict"
	ReasonAddressConflict Reason = "address_conflict"
)

// Entry is one listed record.
type Entry struct {
	RecordID    string              `json:"record_id" yaml:"record_id"`
	ParcelID    string              `json:"parcel_id,omitempty" yaml:"parcel_id,omitempty"`
	OwnerName   string              `json:"owner_name,omitempty" yaml:"owner_name,omitempty"`
	Address     string              `json:"address,omitempty" yaml:"address,omitempty"`
	Origin      records.Origin      `json:"origin,omitempty" yaml:"origin,omitempty"`
	Severity    Severity            `json:"severity" yaml:"severity"`
	Score       int                 `json:"quality_score" yaml:"quality_score"`
	Reasons     []Reason            `json:"reasons" yaml:"reasons"`
	DuplicateOf string              `json:"duplicate_of,omitempty" yaml:"duplicate_of,omitempty"`
	DedupReason records.DedupReason `json:"dedup_reason,omitempty" yaml:"dedup_reason,omitempty"`
	Error       string              `json:"error,omitempty" yaml:"error,omitempty"`
	Notes       []string            `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Summary counts entries and describes the output record set.
type Summary struct {
	Total      int                 `json:"total" yaml:"total"`
	BySeverity map[Severity]int    `json:"by_severity" yaml:"by_severity"`
	ByReason   map[Reason]int      `json:"by_reason" yaml:"by_reason"`
	Quality    Quality             `json:"quality" yaml:"quality"`
	Coverage   map[string]Coverage `json:"coverage,omitempty" yaml:"coverage,omitempty"`
}

// Report is the quality report for one run.
type Report struct {
	RunID       string    `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Entries     []Entry   `json:"entries" yaml:"entries"`
	Summary     Summary   `json:"summary" yaml:"summary"`
}

// Builder collects entries for a report.
type Builder struct {
	lowScore int
	entries  []Entry

	weights      map[string]int
	placeholders []string
	stats        stats
}

// NewBuilder creates a Builder listing records scoring below lowScore.
func NewBuilder(lowScore int, opts ...BuilderOption) *Builder {
	b := &Builder{lowScore: lowScore}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddRecord lists r if it is a duplicate, scores below the cutoff or carries
// a merge conflict, and reports whether it was listed.
func (b *Builder) AddRecord(r *records.CanonicalRecord) bool {
	var reasons []Reason
	if r.IsDuplicate {
		reasons = append(reasons, ReasonDuplicate)
	}
	if r.QualityScore < b.lowScore {
		reasons = append(reasons, ReasonLowScore)
	}
	if r.HasConflict(records.FieldOwnerName) {
		reasons = append(reasons, ReasonOwnerConflict)
	}
	if r.HasConflict(records.FieldPropertyAddress) {
		reasons = append(reasons, ReasonAddressConflict)
	}
	if len(reasons) == 0 {
		return false
	}

	e := entryFor(r)
	e.Severity = SeverityWarning
	e.Reasons = reasons
	b.entries = append(b.entries, e)
	return true
}

// AddRejection lists a record excluded during normalization. Rejections are
// always critical.
func (b *Builder) AddRejection(rej records.Rejection) {
	var e Entry
	if rej.Record != nil {
		e = entryFor(rej.Record)
	}
	e.Severity = SeverityCritical
	switch {
	case errors.IsMissingField(rej.Err):
		e.Reasons = []Reason{ReasonMissingField}
	case errors.IsFetchFailure(rej.Err):
		e.Reasons = []Reason{ReasonFetchFailed}
	default:
		e.Reasons = []Reason{ReasonRejected}
	}
	if rej.Err != nil {
		e.Error = rej.Err.Error()
	}
	b.entries = append(b.entries, e)
}

// Build sorts the collected entries and summarizes them.
func (b *Builder) Build(runID string) *Report {
	entries := append([]Entry(nil), b.entries...)
	Sort(entries)

	summary := Summary{
		Total:      len(entries),
		BySeverity: make(map[Severity]int),
		ByReason:   make(map[Reason]int),
		Quality:    b.quality(),
		Coverage:   b.coverage(),
	}
	for _, e := range entries {
		summary.BySeverity[e.Severity]++
		for _, r := range e.Reasons {
			summary.ByReason[r]++
		}
	}

	return &Report{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Entries:     entries,
		Summary:     summary,
	}
}

// Sort orders entries critical first, then by ascending score, parcel id and
// record id.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Severity.rank() != b.Severity.rank() {
			return a.Severity.rank() < b.Severity.rank()
		}
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		if a.ParcelID != b.ParcelID {
			return a.ParcelID < b.ParcelID
		}
		return a.RecordID < b.RecordID
	})
}

// Critical returns the critical entries.
func (r *Report) Critical() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Severity == SeverityCritical {
			out = append(out, e)
		}
	}
	return out
}

func entryFor(r *records.CanonicalRecord) Entry {
	return Entry{
		RecordID:    r.ID,
		ParcelID:    r.ParcelID,
		OwnerName:   r.OwnerNameNorm,
		Address:     r.AddressNorm,
		Origin:      r.Origin,
		Score:       r.QualityScore,
		DuplicateOf: r.DuplicateOf,
		DedupReason: r.DedupReason,
		Notes:       append([]string(nil), r.Notes...),
	}
}
