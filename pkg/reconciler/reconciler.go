// Package reconciler runs the full reconciliation pipeline: normalize, link,
// merge, cluster, score and report. Stages hand new record versions forward;
// no stage modifies a record produced by an earlier one.
package reconciler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/parcelmap/internal/metrics"
	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/logging"
	"github.com/agentstation/parcelmap/pkg/matcher"
	"github.com/agentstation/parcelmap/pkg/merger"
	"github.com/agentstation/parcelmap/pkg/normalize"
	"github.com/agentstation/parcelmap/pkg/provenance"
	"github.com/agentstation/parcelmap/pkg/records"
	"github.com/agentstation/parcelmap/pkg/report"
	"github.com/agentstation/parcelmap/pkg/rules"
	"github.com/agentstation/parcelmap/pkg/scorer"
	"github.com/agentstation/parcelmap/pkg/similarity"
	"github.com/agentstation/parcelmap/pkg/sources"
)

// Stage names used in logs and metrics.
const (
	StageNormalize = "normalize"
	StageLink      = "link"
	StageMerge     = "merge"
	StageCluster   = "cluster"
	StageScore     = "score"
	StageReport    = "report"
)

// Reconciler is the main interface for reconciling property records.
type Reconciler interface {
	// Run reconciles one batch of raw records
	Run(ctx context.Context, raws []records.RawRecord) (*Result, error)

	// Producers acquires records from every producer and reconciles them
	Producers(ctx context.Context, ps ...sources.Producer) (*Result, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	rules      *rules.Config
	tracking   bool
	metrics    *metrics.Metrics
	similarity similarity.Scorer
	runID      string

	normalizer *normalize.Normalizer
	scorer     *scorer.Scorer
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	if options.rules == nil {
		options.rules = rules.Default()
	}
	if err := options.rules.Validate(); err != nil {
		return nil, err
	}
	if options.scorer == nil {
		options.scorer = similarity.NewCache(similarity.ScorerFunc(similarity.Ratio))
	}

	n, err := normalize.New(options.rules)
	if err != nil {
		return nil, err
	}
	s, err := scorer.New(options.rules)
	if err != nil {
		return nil, err
	}

	return &reconciler{
		rules:      options.rules,
		tracking:   options.tracking,
		metrics:    options.metrics,
		similarity: options.scorer,
		runID:      options.runID,
		normalizer: n,
		scorer:     s,
	}, nil
}

// Producers acquires every producer's records and runs them as one batch.
func (r *reconciler) Producers(ctx context.Context, ps ...sources.Producer) (*Result, error) {
	raws, err := sources.NewMulti(ps...).Produce(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name()
	}
	result, err := r.Run(ctx, raws)
	if err != nil {
		return nil, err
	}
	result.Metadata.Sources = names
	return result, nil
}

// Run performs reconciliation with a clean step-by-step flow.
func (r *reconciler) Run(ctx context.Context, raws []records.RawRecord) (*Result, error) {
	if len(raws) == 0 {
		return nil, errors.ErrEmptyInput
	}

	runID := r.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.FromContext(ctx)
	result := NewResult(runID)

	for origin, n := range sources.Counts(raws) {
		result.Metadata.Stats.Ingested[origin] = n
		if r.metrics != nil {
			r.metrics.RecordIngested(string(origin), n)
		}
	}
	logger.Info().Int("records", len(raws)).Msg("Starting reconciliation")

	// Step 1: Normalize
	var kept []*records.CanonicalRecord
	err := r.stage(ctx, result, StageNormalize, func(ctx context.Context) error {
		var err error
		kept, result.Rejections, err = r.normalizer.NormalizeAll(ctx, raws)
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Metadata.Stats.Normalized = len(kept)
	result.Metadata.Stats.Rejected = len(result.Rejections)

	// Step 2: Link records sharing a parcel id across origins
	m, err := matcher.New(r.rules, matcher.WithSimilarity(r.similarity), matcher.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	err = r.stage(ctx, result, StageLink, func(context.Context) error {
		result.Links = m.Link(kept)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Step 3: Merge linked pairs
	tracker := provenance.NewTracker(r.tracking)
	mg, err := merger.New(r.rules,
		merger.WithSimilarity(r.similarity),
		merger.WithProvenance(tracker),
		merger.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	var merged *merger.Result
	err = r.stage(ctx, result, StageMerge, func(ctx context.Context) error {
		var err error
		merged, err = mg.Merge(ctx, kept, result.Links)
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Conflicts = merged.Conflicts
	result.Metadata.Stats.Merge = merged.Stats
	result.Provenance = tracker.Map()

	// Step 4: Cluster duplicates over the merged set
	var marked []*records.CanonicalRecord
	err = r.stage(ctx, result, StageCluster, func(context.Context) error {
		assignment := m.Cluster(merged.Records)
		marked = m.Apply(merged.Records, assignment)
		result.Clusters = assignment.Clusters
		result.NearMisses = assignment.NearMisses
		result.Metadata.Stats.Dedup = assignment.Stats
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Step 5: Score every record, rejected partials included
	var scored []*records.CanonicalRecord
	err = r.stage(ctx, result, StageScore, func(context.Context) error {
		scored = r.scorer.ApplyAll(marked)
		for i, rej := range result.Rejections {
			if rej.Record != nil {
				result.Rejections[i].Record = r.scorer.Apply(rej.Record)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Step 6: Split output and build the report
	err = r.stage(ctx, result, StageReport, func(ctx context.Context) error {
		b := report.NewBuilder(r.rules.Scoring.LowScore,
			report.WithCoverage(r.rules.Scoring.Weights, r.rules.Placeholders))
		for _, rec := range scored {
			b.AddRecord(rec)
			if rec.IsDuplicate {
				result.Duplicates = append(result.Duplicates, rec)
				continue
			}
			b.AddOutput(rec)
			result.Records = append(result.Records, rec)
			result.Metadata.Stats.ByLevel[rec.EnrichmentLevel]++
		}
		for _, rej := range result.Rejections {
			b.AddRejection(rej)
		}
		result.Report = b.Build(runID)
		result.Metadata.Stats.Scores = result.Report.Summary.Quality
		result.Metadata.Stats.Coverage = result.Report.Summary.Coverage

		log := logging.FromContext(ctx)
		for _, e := range result.Report.Critical() {
			log.Error().
				Str("record_id", e.RecordID).
				Str("parcel_id", e.ParcelID).
				Str("origin", string(e.Origin)).
				Str("cause", e.Error).
				Msg("Record excluded from reconciliation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Metadata.Stats.Output = len(result.Records)

	if err := checkOutput(result.Records); err != nil {
		return nil, err
	}

	r.record(result)
	result.Finalize()
	logger.Info().
		Int("output", result.Metadata.Stats.Output).
		Int("merged", result.Metadata.Stats.Merge.Merged).
		Int("duplicates", result.Metadata.Stats.Dedup.Duplicates).
		Int("rejected", result.Metadata.Stats.Rejected).
		Int("report_entries", len(result.Report.Entries)).
		Float64("average_score", result.Metadata.Stats.Scores.Average).
		Dur("duration", result.Metadata.Duration).
		Msg("Reconciliation complete")
	return result, nil
}

// stage runs fn after checking for cancellation and records its duration.
func (r *reconciler) stage(ctx context.Context, result *Result, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return errors.WrapCanceled(err)
	}
	ctx = logging.WithStage(ctx, name)
	start := time.Now()
	if err := fn(ctx); err != nil {
		logging.FromContext(ctx).Error().Err(err).Msg("Stage failed")
		return err
	}
	elapsed := time.Since(start)
	result.Metadata.Stats.StageTimes[name] = elapsed
	if r.metrics != nil {
		r.metrics.ObserveStage(name, elapsed)
	}
	logging.FromContext(ctx).Debug().Dur("duration", elapsed).Msg("Stage complete")
	return nil
}

func (r *reconciler) record(result *Result) {
	if r.metrics == nil {
		return
	}
	for _, rej := range result.Rejections {
		r.metrics.RecordRejected(string(rejectionReason(rej.Err)))
	}
	r.metrics.RecordMerges(result.Metadata.Stats.Merge.Merged)
	for _, c := range result.Conflicts {
		r.metrics.RecordConflict(c.Field)
	}
	for reason, n := range result.Metadata.Stats.Dedup.ByReason {
		r.metrics.RecordDuplicates(string(reason), n)
	}
	for _, rec := range result.Records {
		r.metrics.RecordTier(string(rec.EnrichmentLevel))
	}
}

func rejectionReason(err error) report.Reason {
	switch {
	case errors.IsMissingField(err):
		return report.ReasonMissingField
	case errors.IsFetchFailure(err):
		return report.ReasonFetchFailed
	}
	return report.ReasonRejected
}

// checkOutput verifies that no parcel id maps to more than one kept record.
func checkOutput(out []*records.CanonicalRecord) error {
	seen := make(map[string]string, len(out))
	for _, rec := range out {
		if prev, dup := seen[rec.ParcelID]; dup {
			return errors.NewValidationError("parcel_id", rec.ParcelID,
				"kept by both "+prev+" and "+rec.ID)
		}
		seen[rec.ParcelID] = rec.ID
	}
	return nil
}
