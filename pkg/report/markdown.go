package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	md "github.com/nao1215/markdown"

	"github.com/agentstation/parcelmap/pkg/records"
)

// Header is the column header shared by the table renderings.
var Header = []string{"Severity", "Score", "Parcel", "Record", "Reasons", "Detail"}

// Rows renders the entries as table rows matching Header.
func (r *Report) Rows() [][]string {
	rows := make([][]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		rows = append(rows, []string{
			string(e.Severity),
			strconv.Itoa(e.Score),
			e.ParcelID,
			e.RecordID,
			joinReasons(e.Reasons),
			detail(e),
		})
	}
	return rows
}

// WriteMarkdown renders the report as a markdown document.
func (r *Report) WriteMarkdown(w io.Writer) error {
	doc := md.NewMarkdown(w).
		H1("Quality Report").
		PlainTextf("Generated %s", r.GeneratedAt.Format("2006-01-02 15:04:05 MST")).
		LF()
	if r.RunID != "" {
		doc.PlainText(md.Code(r.RunID)).LF()
	}

	doc.H2("Summary")
	summary := [][]string{
		{"total", strconv.Itoa(r.Summary.Total)},
		{"critical", strconv.Itoa(r.Summary.BySeverity[SeverityCritical])},
		{"warning", strconv.Itoa(r.Summary.BySeverity[SeverityWarning])},
	}
	reasons := make([]string, 0, len(r.Summary.ByReason))
	for reason := range r.Summary.ByReason {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		summary = append(summary, []string{reason, strconv.Itoa(r.Summary.ByReason[Reason(reason)])})
	}
	doc.Table(md.TableSet{Header: []string{"Count", "Value"}, Rows: summary})

	q := r.Summary.Quality
	if q.Records > 0 {
		doc.H2("Quality Distribution")
		doc.Table(md.TableSet{Header: []string{"Metric", "Value"}, Rows: [][]string{
			{"records", strconv.Itoa(q.Records)},
			{"average score", strconv.FormatFloat(q.Average, 'f', 2, 64)},
			{"min score", strconv.Itoa(q.Min)},
			{"max score", strconv.Itoa(q.Max)},
			{string(records.LevelComplete), strconv.Itoa(q.ByLevel[records.LevelComplete])},
			{string(records.LevelEnhanced), strconv.Itoa(q.ByLevel[records.LevelEnhanced])},
			{string(records.LevelBasic), strconv.Itoa(q.ByLevel[records.LevelBasic])},
		}})
	}

	if len(r.Summary.Coverage) > 0 {
		doc.H2("Field Coverage")
		rows := make([][]string, 0, len(r.Summary.Coverage))
		for _, field := range CoverageFields(r.Summary.Coverage) {
			c := r.Summary.Coverage[field]
			rows = append(rows, []string{
				field,
				strconv.Itoa(c.Weight),
				strconv.Itoa(c.Filled),
				strconv.Itoa(c.Missing),
				strconv.FormatFloat(c.Percent, 'f', 2, 64) + "%",
			})
		}
		doc.Table(md.TableSet{Header: []string{"Field", "Weight", "Filled", "Missing", "Coverage"}, Rows: rows})
	}

	doc.H2("Entries")
	if len(r.Entries) == 0 {
		doc.PlainText("No records need review.")
	} else {
		doc.Table(md.TableSet{Header: Header, Rows: r.Rows()})
	}
	return doc.Build()
}

func joinReasons(reasons []Reason) string {
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

func detail(e Entry) string {
	switch {
	case e.Error != "":
		return e.Error
	case e.DuplicateOf != "":
		return fmt.Sprintf("duplicate of %s (%s)", e.DuplicateOf, e.DedupReason)
	case len(e.Notes) > 0:
		return strings.Join(e.Notes, "; ")
	}
	return ""
}
