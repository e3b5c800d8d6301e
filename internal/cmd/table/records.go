package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/parcelmap/pkg/records"
	"github.com/agentstation/parcelmap/pkg/report"
)

// RecordsToTableData converts reconciled records to table format.
func RecordsToTableData(recs []*records.CanonicalRecord, showDetails bool) Data {
	headers := []string{"Parcel", "Owner", "Address", "City", "Score", "Level", "Source"}
	if showDetails {
		headers = append(headers, "Owner Type", "Notes")
	}

	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		row := []string{
			r.ParcelID,
			r.OwnerNameNorm,
			addressCell(r),
			dash(r.City),
			strconv.Itoa(r.QualityScore),
			string(r.EnrichmentLevel),
			string(r.DataSource),
		}
		if showDetails {
			row = append(row, string(r.OwnerType), dash(strings.Join(r.Notes, "; ")))
		}
		rows = append(rows, row)
	}

	align := []Align{AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignLeft}
	if showDetails {
		align = append(align, AlignLeft, AlignLeft)
	}
	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// ReportToTableData converts the quality report entries to table format.
func ReportToTableData(rep *report.Report) Data {
	return Data{
		Headers: report.Header,
		Rows:    rep.Rows(),
		ColumnAlignment: []Align{
			AlignLeft,  // Severity
			AlignRight, // Score
			AlignLeft,  // Parcel
			AlignLeft,  // Record
			AlignLeft,  // Reasons
			AlignLeft,  // Detail
		},
	}
}

// SummaryToTableData converts report summary counts to a key-value table.
func SummaryToTableData(s report.Summary) Data {
	caser := cases.Title(language.English)
	rows := [][]string{{"Total", strconv.Itoa(s.Total)}}

	for _, sev := range []report.Severity{report.SeverityCritical, report.SeverityWarning} {
		rows = append(rows, []string{caser.String(strings.ToLower(string(sev))), strconv.Itoa(s.BySeverity[sev])})
	}

	reasons := make([]string, 0, len(s.ByReason))
	for r := range s.ByReason {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		label := caser.String(strings.ReplaceAll(r, "_", " "))
		rows = append(rows, []string{label, strconv.Itoa(s.ByReason[report.Reason(r)])})
	}

	if q := s.Quality; q.Records > 0 {
		rows = append(rows,
			[]string{"Average Score", strconv.FormatFloat(q.Average, 'f', 2, 64)},
			[]string{"Min Score", strconv.Itoa(q.Min)},
			[]string{"Max Score", strconv.Itoa(q.Max)},
		)
	}

	return Data{
		Headers:         []string{"Count", "Value"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

func addressCell(r *records.CanonicalRecord) string {
	if r.UnitNumber == "" {
		return r.AddressNorm
	}
	return fmt.Sprintf("%s #%s", r.AddressNorm, r.UnitNumber)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// CoverageToTableData lists field coverage, heaviest fields first.
func CoverageToTableData(c map[string]report.Coverage) Data {
	rows := make([][]string, 0, len(c))
	for _, field := range report.CoverageFields(c) {
		cov := c[field]
		rows = append(rows, []string{
			field,
			strconv.Itoa(cov.Weight),
			strconv.Itoa(cov.Filled),
			strconv.Itoa(cov.Missing),
			strconv.FormatFloat(cov.Percent, 'f', 1, 64) + "%",
		})
	}
	return Data{
		Headers:         []string{"Field", "Weight", "Filled", "Missing", "Coverage"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight},
	}
}
