// Package scorer assigns each record a completeness score, an enrichment tier,
// an owner type and the rule-driven notes.
package scorer

import (
	"strings"

	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/records"
	"github.com/agentstation/parcelmap/pkg/rules"
)

// Scorer scores records against one rule set.
type Scorer struct {
	scoring      rules.Scoring
	placeholders []string
	entityTokens map[string]bool
}

// Outcome is the scoring result for one record.
type Outcome struct {
	Score     int
	Level     records.EnrichmentLevel
	OwnerType records.OwnerType
	Notes     []string
}

// New creates a Scorer.
func New(cfg *rules.Config) (*Scorer, error) {
	if cfg == nil {
		return nil, errors.NewConfigError("scorer", "rules are required", nil)
	}
	tokens := make(map[string]bool, len(cfg.EntityTokens))
	for _, t := range cfg.EntityTokens {
		tokens[strings.ToUpper(strings.TrimSpace(t))] = true
	}
	return &Scorer{
		scoring:      cfg.Scoring,
		placeholders: cfg.Placeholders,
		entityTokens: tokens,
	}, nil
}

// Score computes the outcome for r without modifying it.
func (s *Scorer) Score(r *records.CanonicalRecord) Outcome {
	score := 0
	for field, w := range s.scoring.Weights {
		if records.Populated(r, field, s.placeholders) {
			score += w
		}
	}
	if r.DataSource == records.SourceMerged {
		score += s.scoring.MergedBonus
	}
	if r.Validated && len(r.Flags) == 0 {
		score += s.scoring.ValidatedBonus
	}
	score = min(score, s.scoring.MaxScore)

	return Outcome{
		Score:     score,
		Level:     s.Level(score),
		OwnerType: s.OwnerType(r.OwnerNameNorm),
		Notes:     s.notes(r, score),
	}
}

// Apply returns a new version of r carrying its score, tier, owner type and
// notes. Notes already present are kept.
func (s *Scorer) Apply(r *records.CanonicalRecord) *records.CanonicalRecord {
	o := s.Score(r)
	out := r.Clone()
	out.QualityScore = o.Score
	out.EnrichmentLevel = o.Level
	out.OwnerType = o.OwnerType
	for _, n := range o.Notes {
		out.AddNote(n)
	}
	return out
}

// ApplyAll applies the scorer to every record.
func (s *Scorer) ApplyAll(recs []*records.CanonicalRecord) []*records.CanonicalRecord {
	out := make([]*records.CanonicalRecord, len(recs))
	for i, r := range recs {
		out[i] = s.Apply(r)
	}
	return out
}

// Level maps a score to its enrichment tier.
func (s *Scorer) Level(score int) records.EnrichmentLevel {
	switch {
	case score >= s.scoring.CompleteCutoff:
		return records.LevelComplete
	case score >= s.scoring.EnhancedCutoff:
		return records.LevelEnhanced
	default:
		return records.LevelBasic
	}
}

// OwnerType reports entity when any whole token of the normalized name is an
// entity token.
func (s *Scorer) OwnerType(name string) records.OwnerType {
	for _, tok := range strings.Fields(name) {
		if s.entityTokens[strings.Trim(tok, ".,")] {
			return records.OwnerEntity
		}
	}
	return records.OwnerIndividual
}

func (s *Scorer) notes(r *records.CanonicalRecord, score int) []string {
	var notes []string
	if r.DataSource == records.SourceMerged {
		notes = append(notes, records.NoteEnriched)
	}
	if !records.Populated(r, records.FieldSalePrice, s.placeholders) &&
		!records.Populated(r, records.FieldSaleDate, s.placeholders) {
		notes = append(notes, records.NoteMissingSale)
	}
	if len(r.PossibleDuplicates) > 0 && !r.IsDuplicate {
		notes = append(notes, records.NotePossibleDuplicate)
	}
	if r.HasConflict(records.FieldOwnerName) {
		notes = append(notes, records.NoteOwnerConflict)
	}
	if score < s.scoring.LowScore {
		notes = append(notes, records.NoteLowQuality)
	}
	return notes
}
