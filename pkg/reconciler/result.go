package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/parcelmap/pkg/matcher"
	"github.com/agentstation/parcelmap/pkg/merger"
	"github.com/agentstation/parcelmap/pkg/provenance"
	"github.com/agentstation/parcelmap/pkg/records"
	"github.com/agentstation/parcelmap/pkg/report"
)

// Result represents the outcome of a reconciliation run.
type Result struct {
	// Records is the final output with duplicates excluded.
	Records []*records.CanonicalRecord

	// Duplicates are the records excluded from output, kept for review.
	Duplicates []*records.CanonicalRecord

	// Report lists every record that needs review.
	Report *report.Report

	// Assignments
	Links      []records.MergeLink
	Clusters   []records.DuplicateCluster
	NearMisses []matcher.NearMiss

	// Issues
	Conflicts  []merger.Conflict
	Rejections []records.Rejection

	// Provenance tracking
	Provenance provenance.Map

	// Metadata
	Metadata ResultMetadata
}

// ResultMetadata contains metadata about the reconciliation run.
type ResultMetadata struct {
	// RunID tags every log line of the run
	RunID string

	// StartTime when reconciliation started
	StartTime time.Time

	// EndTime when reconciliation completed
	EndTime time.Time

	// Duration of the reconciliation
	Duration time.Duration

	// Sources that produced the input
	Sources []string

	// Statistics about the reconciliation
	Stats ResultStatistics
}

// ResultStatistics contains statistics about the reconciliation.
type ResultStatistics struct {
	Ingested    map[records.Origin]int
	Normalized  int
	Rejected    int
	Merge       merger.Stats
	Dedup       matcher.Stats
	Output      int
	ByLevel     map[records.EnrichmentLevel]int
	Scores      report.Quality
	Coverage    map[string]report.Coverage
	StageTimes  map[string]time.Duration
	TotalTimeMs int64
}

// NewResult creates a new result with defaults.
func NewResult(runID string) *Result {
	return &Result{
		Provenance: make(provenance.Map),
		Metadata: ResultMetadata{
			RunID:     runID,
			StartTime: time.Now(),
			Sources:   []string{},
			Stats: ResultStatistics{
				Ingested:   make(map[records.Origin]int),
				ByLevel:    make(map[records.EnrichmentLevel]int),
				StageTimes: make(map[string]time.Duration),
			},
		},
	}
}

// IsSuccess reports whether no record was rejected.
func (r *Result) IsSuccess() bool {
	return len(r.Rejections) == 0
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	s := r.Metadata.Stats
	flagged := 0
	if r.Report != nil {
		flagged = len(r.Report.Entries)
	}
	return fmt.Sprintf(
		"Reconciled %d records into %d (%d merged, %d duplicates, %d rejected, %d flagged for review)",
		s.Normalized+s.Rejected, s.Output, s.Merge.Merged, s.Dedup.Duplicates, s.Rejected, flagged,
	)
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
	r.Metadata.Stats.TotalTimeMs = r.Metadata.Duration.Milliseconds()
}
