package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/parcelmap/internal/pattern"
	"github.com/agentstation/parcelmap/pkg/provenance"
	"github.com/agentstation/parcelmap/pkg/records"
	"github.com/agentstation/parcelmap/pkg/report"
)

func TestRecordsToTableData(t *testing.T) {
	recs := []*records.CanonicalRecord{{
		ParcelID:        "12345",
		OwnerNameNorm:   "JOHN SMITH",
		AddressNorm:     "456 OAK AVE",
		UnitNumber:      "2",
		QualityScore:    73,
		EnrichmentLevel: records.LevelEnhanced,
		DataSource:      records.SourceMerged,
		OwnerType:       records.OwnerIndividual,
	}}

	data := RecordsToTableData(recs, false)
	require.Len(t, data.Rows, 1)
	assert.Len(t, data.Headers, len(data.Rows[0]))
	assert.Equal(t, []string{"12345", "JOHN SMITH", "456 OAK AVE #2", "-", "73", "enhanced", string(records.SourceMerged)}, data.Rows[0])

	wide := RecordsToTableData(recs, true)
	assert.Len(t, wide.Headers, len(wide.Rows[0]))
	assert.Len(t, wide.ColumnAlignment, len(wide.Headers))
	assert.Equal(t, "-", wide.Rows[0][len(wide.Rows[0])-1])
}

func TestSummaryToTableData(t *testing.T) {
	s := report.Summary{
		Total:      3,
		BySeverity: map[report.Severity]int{report.SeverityCritical: 1, report.SeverityWarning: 2},
		ByReason:   map[report.Reason]int{report.ReasonLowScore: 2, report.ReasonFetchFailed: 1},
	}

	data := SummaryToTableData(s)
	assert.Equal(t, [][]string{
		{"Total", "3"},
		{"Critical", "1"},
		{"Warning", "2"},
		{"Fetch Failed", "1"},
		{"Low Score", "2"},
	}, data.Rows)
}

func TestSummaryToTableDataScores(t *testing.T) {
	s := report.Summary{Quality: report.Quality{Records: 2, Average: 71.5, Min: 58, Max: 85}}

	data := SummaryToTableData(s)
	assert.Equal(t, []string{"Average Score", "71.50"}, data.Rows[len(data.Rows)-3])
	assert.Equal(t, []string{"Min Score", "58"}, data.Rows[len(data.Rows)-2])
	assert.Equal(t, []string{"Max Score", "85"}, data.Rows[len(data.Rows)-1])
}

func TestCoverageToTableData(t *testing.T) {
	data := CoverageToTableData(map[string]report.Coverage{
		records.FieldSalePrice: {Filled: 1, Missing: 1, Percent: 50, Weight: 7},
		records.FieldOwnerName: {Filled: 2, Percent: 100, Weight: 15},
	})

	assert.Len(t, data.ColumnAlignment, len(data.Headers))
	assert.Equal(t, [][]string{
		{"owner_name", "15", "2", "0", "100.0%"},
		{"sale_price", "7", "1", "1", "50.0%"},
	}, data.Rows)
}

func TestProvenanceToTableData(t *testing.T) {
	now := time.Now()
	m := provenance.Map{
		"merged-1:square_footage": {
			{Origin: records.OriginAPI, Value: "1500", Timestamp: now.Add(-time.Second)},
			{Origin: records.OriginScrape, Value: "1850", Timestamp: now, Priority: 90, Reason: provenance.ReasonAuthority},
		},
		"merged-1:city": {
			{Origin: records.OriginAPI, Value: "SPRINGFIELD", Timestamp: now},
		},
	}

	data := ProvenanceToTableData(m, nil)
	require.Len(t, data.Rows, 3)
	assert.Equal(t, []string{"merged-1", "city", "→", "SPRINGFIELD", "API", "-", "just now", ""}, data.Rows[0])
	assert.Equal(t, "", data.Rows[1][0])
	assert.Equal(t, "square_footage", data.Rows[1][1])
	assert.Equal(t, "1850", data.Rows[1][3])
	assert.Equal(t, "90", data.Rows[1][5])
	assert.Equal(t, "", data.Rows[2][2])

	set, err := pattern.NewSet([]string{"SQUARE_*"}, pattern.Auto, pattern.Options{CaseInsensitive: true})
	require.NoError(t, err)
	filtered := ProvenanceToTableData(m, set)
	assert.Len(t, filtered.Rows, 2)
}
