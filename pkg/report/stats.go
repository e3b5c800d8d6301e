package report

import (
	"math"
	"sort"

	"github.com/agentstation/parcelmap/pkg/records"
)

// Coverage counts how many output records populate one weighted field.
type Coverage struct {
	Filled  int     `json:"filled" yaml:"filled"`
	Missing int     `json:"missing" yaml:"missing"`
	Percent float64 `json:"percent" yaml:"percent"`
	Weight  int     `json:"weight" yaml:"weight"`
}

// Quality is the score distribution of the output records.
type Quality struct {
	Records int                             `json:"records" yaml:"records"`
	Average float64                         `json:"average_score" yaml:"average_score"`
	Min     int                             `json:"min_score" yaml:"min_score"`
	Max     int                             `json:"max_score" yaml:"max_score"`
	ByLevel map[records.EnrichmentLevel]int `json:"by_level" yaml:"by_level"`
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithCoverage measures field coverage over the weighted fields. Values in
// placeholders count as missing.
func WithCoverage(weights map[string]int, placeholders []string) BuilderOption {
	return func(b *Builder) {
		b.weights = weights
		b.placeholders = placeholders
	}
}

// stats accumulates output measurements between AddOutput and Build.
type stats struct {
	records int
	total   int
	min     int
	max     int
	byLevel map[records.EnrichmentLevel]int
	filled  map[string]int
}

// AddOutput measures r as part of the final record set. Duplicates and
// rejections are not output and should not be passed here.
func (b *Builder) AddOutput(r *records.CanonicalRecord) {
	s := &b.stats
	if s.records == 0 || r.QualityScore < s.min {
		s.min = r.QualityScore
	}
	if s.records == 0 || r.QualityScore > s.max {
		s.max = r.QualityScore
	}
	s.records++
	s.total += r.QualityScore

	if s.byLevel == nil {
		s.byLevel = make(map[records.EnrichmentLevel]int)
	}
	s.byLevel[r.EnrichmentLevel]++

	if s.filled == nil {
		s.filled = make(map[string]int, len(b.weights))
	}
	for field := range b.weights {
		if records.Populated(r, field, b.placeholders) {
			s.filled[field]++
		}
	}
}

func (b *Builder) quality() Quality {
	s := b.stats
	q := Quality{
		Records: s.records,
		Min:     s.min,
		Max:     s.max,
		ByLevel: make(map[records.EnrichmentLevel]int, len(s.byLevel)),
	}
	for level, n := range s.byLevel {
		q.ByLevel[level] = n
	}
	if s.records > 0 {
		q.Average = round2(float64(s.total) / float64(s.records))
	}
	return q
}

func (b *Builder) coverage() map[string]Coverage {
	if len(b.weights) == 0 {
		return nil
	}
	n := b.stats.records
	out := make(map[string]Coverage, len(b.weights))
	for field, w := range b.weights {
		filled := b.stats.filled[field]
		c := Coverage{Filled: filled, Missing: n - filled, Weight: w}
		if n > 0 {
			c.Percent = round2(float64(filled) * 100 / float64(n))
		}
		out[field] = c
	}
	return out
}

// CoverageFields returns the fields of a coverage map ordered by weight, then
// name.
func CoverageFields(c map[string]Coverage) []string {
	fields := make([]string, 0, len(c))
	for f := range c {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool {
		if c[fields[i]].Weight != c[fields[j]].Weight {
			return c[fields[i]].Weight > c[fields[j]].Weight
		}
		return fields[i] < fields[j]
	})
	return fields
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
