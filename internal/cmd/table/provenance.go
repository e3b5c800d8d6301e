package table

import (
	"sort"
	"strconv"
	"time"

	"github.com/agentstation/parcelmap/internal/pattern"
	"github.com/agentstation/parcelmap/pkg/provenance"
)

// ProvenanceToTableData converts a provenance map to table format, one row
// per history entry, grouped by record then field. Only fields accepted by
// fields are included; a nil matcher accepts every field.
func ProvenanceToTableData(m provenance.Map, fields pattern.Matcher) Data {
	if fields == nil {
		fields = pattern.Set(nil)
	}
	report := provenance.GenerateReport(m)

	ids := make([]string, 0, len(report.Records))
	for id := range report.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var rows [][]string
	for _, id := range ids {
		first := true
		rec := report.Records[id]

		names := make([]string, 0, len(rec.Fields))
		for f := range rec.Fields {
			if fields.Match(f) {
				names = append(names, f)
			}
		}
		sort.Strings(names)

		for _, field := range names {
			history := rec.Fields[field].History
			for i, entry := range history {
				recordCell, fieldCell, current := "", "", ""
				if first {
					recordCell = id
					first = false
				}
				if i == 0 {
					fieldCell = field
					current = "→"
				}
				rows = append(rows, []string{
					recordCell,
					fieldCell,
					current,
					formatValue(entry.Value),
					string(entry.Origin),
					formatPriority(entry.Priority),
					formatTimestamp(entry.Timestamp),
					entry.Reason,
				})
			}
		}
	}

	return Data{
		Headers: []string{"Record", "Field", "Curr", "Value", "Origin", "Priority", "When", "Reason"},
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignLeft,   // Record
			AlignLeft,   // Field
			AlignCenter, // Curr
			AlignLeft,   // Value
			AlignLeft,   // Origin
			AlignRight,  // Priority
			AlignLeft,   // When
			AlignLeft,   // Reason
		},
	}
}

func formatValue(v string) string {
	if v == "" {
		return "<empty>"
	}
	return v
}

func formatPriority(p int) string {
	if p == 0 {
		return "-"
	}
	return strconv.Itoa(p)
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return strconv.Itoa(int(diff.Minutes())) + "m ago"
	case diff < 24*time.Hour:
		return strconv.Itoa(int(diff.Hours())) + "h ago"
	}
	return t.Format("2006-01-02 15:04")
}
