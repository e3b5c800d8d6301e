package merger

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/logging"
	"github.com/agentstation/parcelmap/pkg/provenance"
	"github.com/agentstation/parcelmap/pkg/records"
	"github.com/agentstation/parcelmap/pkg/rules"
)

func apiRecord() *records.CanonicalRecord {
	return &records.CanonicalRecord{
		ID:            "api-0",
		ParcelID:      "P1",
		OwnerNameRaw:  "Smith, John",
		OwnerNameNorm: "JOHN SMITH",
		AddressRaw:    "12 Main Street",
		AddressNorm:   "12 MAIN ST",
		City:          "ORLANDO",
		State:         "FL",
		Zip:           "32801",
		AssessedValue: records.Ptr(250000.0),
		SquareFootage: records.Ptr(1500),
		Origin:        records.OriginAPI,
		DataSource:    records.SourceAPIOnly,
		Validated:     true,
		FetchedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func scrapeRecord() *records.CanonicalRecord {
	return &records.CanonicalRecord{
		ID:            "scrape-0",
		ParcelID:      "P1",
		OwnerNameRaw:  "JOHN SMITH",
		OwnerNameNorm: "JOHN SMITH",
		AddressRaw:    "12 MAIN ST",
		AddressNorm:   "12 MAIN ST",
		City:          "ORLANDO CITY",
		SquareFootage: records.Ptr(1850),
		YearBuilt:     records.Ptr(1994),
		SalePrice:     records.Ptr(310000.0),
		Origin:        records.OriginScrape,
		DataSource:    records.SourceScrapedOnly,
		Validated:     true,
		FetchedAt:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newMerger(t *testing.T, opts ...Option) *Merger {
	t.Helper()
	logging.DisableLoggingForTest(t)
	m, err := New(rules.Default(), opts...)
	require.NoError(t, err)
	return m
}

func TestMergeFieldAuthority(t *testing.T) {
	tracker := provenance.NewTracker(true)
	m := newMerger(t, WithProvenance(tracker))

	api, scrape := apiRecord(), scrapeRecord()
	scrape.OwnerNameNorm = "JOHN SMITHE"
	scrape.OwnerNameRaw = "John Smithe"

	res, err := m.Merge(context.Background(), []*records.CanonicalRecord{api, scrape},
		[]records.MergeLink{{ParcelID: "P1", API: "api-0", Scrape: "scrape-0"}})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	got := res.Records[0]
	assert.Equal(t, "merged-P1", got.ID)
	assert.Equal(t, records.SourceMerged, got.DataSource)
	assert.Equal(t, []string{"api-0", "scrape-0"}, got.MergedFrom)

	// identity fields stay with the API record
	assert.Equal(t, "JOHN SMITH", got.OwnerNameNorm)
	assert.Equal(t, "Smith, John", got.OwnerNameRaw)
	assert.Equal(t, "12 Main Street", got.AddressRaw)

	// scraped detail fields override even when the API had a value
	require.NotNil(t, got.SquareFootage)
	assert.Equal(t, 1850, *got.SquareFootage)
	assert.Equal(t, records.OriginScrape, got.FieldOrigins[records.FieldSquareFootage])

	// location stays with the API record
	assert.Equal(t, "ORLANDO", got.City)
	assert.Equal(t, records.OriginAPI, got.FieldOrigins[records.FieldCity])

	// gaps are filled from whichever side has a value
	require.NotNil(t, got.AssessedValue)
	assert.Equal(t, 250000.0, *got.AssessedValue)
	require.NotNil(t, got.YearBuilt)
	assert.Equal(t, 1994, *got.YearBuilt)
	assert.Equal(t, records.OriginScrape, got.FieldOrigins[records.FieldYearBuilt])
	assert.NotContains(t, got.FieldOrigins, records.FieldBedrooms)

	assert.Equal(t, scrape.FetchedAt, got.FetchedAt)
	assert.True(t, got.Validated)

	sqft := tracker.FindByField("merged-P1", records.FieldSquareFootage)
	require.Len(t, sqft, 1)
	assert.Equal(t, "1850", sqft[0].Value)
	assert.Equal(t, "1500", sqft[0].PreviousValue)
	assert.Equal(t, provenance.ReasonAuthority, sqft[0].Reason)

	owner := tracker.FindByField("merged-P1", records.FieldOwnerName)
	require.Len(t, owner, 1)
	assert.Equal(t, provenance.ReasonIdentity, owner[0].Reason)

	year := tracker.FindByField("merged-P1", records.FieldYearBuilt)
	require.Len(t, year, 1)
	assert.Equal(t, provenance.ReasonAuthority, year[0].Reason)

	assessed := tracker.FindByField("merged-P1", records.FieldAssessedValue)
	require.Len(t, assessed, 1)
	assert.Equal(t, provenance.ReasonAuthority, assessed[0].Reason)
}

func TestMergeGapFill(t *testing.T) {
	tracker := provenance.NewTracker(true)
	m := newMerger(t, WithProvenance(tracker))

	api, scrape := apiRecord(), scrapeRecord()
	api.City = ""
	scrape.SquareFootage = nil

	merged, _ := m.Pair(api, scrape)
	assert.Equal(t, "ORLANDO CITY", merged.City)
	assert.Equal(t, records.OriginScrape, merged.FieldOrigins[records.FieldCity])
	require.NotNil(t, merged.SquareFootage)
	assert.Equal(t, 1500, *merged.SquareFootage)
	assert.Equal(t, records.OriginAPI, merged.FieldOrigins[records.FieldSquareFootage])

	city := tracker.FindByField(merged.ID, records.FieldCity)
	require.Len(t, city, 1)
	assert.Equal(t, provenance.ReasonGapFill, city[0].Reason)
}

func TestMergeConflicts(t *testing.T) {
	tests := []struct {
		name      string
		owner     string
		address   string
		wantNotes []string
		wantField []string
	}{
		{
			name:    "agreeing pair",
			owner:   "JOHN SMITH",
			address: "12 MAIN ST",
		},
		{
			name:      "owner differs",
			owner:     "ACME HOLDINGS LLC",
			address:   "12 MAIN ST",
			wantNotes: []string{records.NoteOwnerConflict},
			wantField: []string{records.FieldOwnerName},
		},
		{
			name:      "address differs",
			owner:     "JOHN SMITH",
			address:   "14 MAIN ST",
			wantNotes: []string{records.NoteAddressConflict},
			wantField: []string{records.FieldPropertyAddress},
		},
		{
			name:      "both differ",
			owner:     "ACME HOLDINGS LLC",
			address:   "99 OAK AVE",
			wantNotes: []string{records.NoteOwnerConflict, records.NoteAddressConflict},
			wantField: []string{records.FieldOwnerName, records.FieldPropertyAddress},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMerger(t)
			api, scrape := apiRecord(), scrapeRecord()
			scrape.OwnerNameNorm = tt.owner
			scrape.AddressNorm = tt.address

			res, err := m.Merge(context.Background(), []*records.CanonicalRecord{api, scrape},
				[]records.MergeLink{{ParcelID: "P1", API: "api-0", Scrape: "scrape-0"}})
			require.NoError(t, err)
			got := res.Records[0]

			var notes []string
			for _, n := range got.Notes {
				if n == records.NoteOwnerConflict || n == records.NoteAddressConflict {
					notes = append(notes, n)
				}
			}
			assert.Equal(t, tt.wantNotes, notes)

			var fields []string
			for _, c := range res.Conflicts {
				fields = append(fields, c.Field)
				assert.Equal(t, "merged-P1", c.RecordID)
				assert.Equal(t, "P1", c.ParcelID)
			}
			assert.Equal(t, tt.wantField, fields)
			assert.Len(t, got.Conflicts, len(tt.wantField))

			// the merge proceeds with the API identity regardless
			assert.Equal(t, "JOHN SMITH", got.OwnerNameNorm)
			assert.Equal(t, "12 MAIN ST", got.AddressNorm)
		})
	}
}

func TestMergeConflictLogged(t *testing.T) {
	tl := logging.NewTestLogger(t)
	m, err := New(rules.Default(), WithLogger(tl.Logger))
	require.NoError(t, err)

	api, scrape := apiRecord(), scrapeRecord()
	scrape.OwnerNameNorm = "ACME HOLDINGS LLC"
	m.Pair(api, scrape)

	tl.AssertContains(t, `"level":"warn"`)
	tl.AssertContains(t, "Merge conflict")
	tl.AssertContains(t, "parcel P1: owner_name differs")
}

func TestMergeConflictLogCarriesParcel(t *testing.T) {
	tl := logging.NewTestLogger(t)
	m, err := New(rules.Default(), WithLogger(tl.Logger))
	require.NoError(t, err)

	api, scrape := apiRecord(), scrapeRecord()
	scrape.OwnerNameNorm = "ACME HOLDINGS LLC"
	_, err = m.Merge(context.Background(), []*records.CanonicalRecord{api, scrape},
		[]records.MergeLink{{ParcelID: api.ParcelID, API: api.ID, Scrape: scrape.ID}})
	require.NoError(t, err)

	tl.AssertContains(t, "Merge conflict")
	tl.AssertContains(t, `"parcel_id":"P1"`)
}

func TestMergePassThrough(t *testing.T) {
	m := newMerger(t)

	lone := &records.CanonicalRecord{ID: "api-1", ParcelID: "P2", Origin: records.OriginAPI, DataSource: records.SourceAPIOnly}
	stray := &records.CanonicalRecord{ID: "scrape-1", ParcelID: "P3", Origin: records.OriginScrape, DataSource: records.SourceScrapedOnly}
	api, scrape := apiRecord(), scrapeRecord()

	in := []*records.CanonicalRecord{lone, scrape, api, stray}
	res, err := m.Merge(context.Background(), in,
		[]records.MergeLink{{ParcelID: "P1", API: "api-0", Scrape: "scrape-0"}})
	require.NoError(t, err)

	require.Len(t, res.Records, 3)
	assert.Same(t, lone, res.Records[0])
	assert.Equal(t, "merged-P1", res.Records[1].ID)
	assert.Same(t, stray, res.Records[2])
	assert.Equal(t, Stats{Merged: 1, APIOnly: 1, ScrapedOnly: 1}, res.Stats)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	m := newMerger(t)
	api, scrape := apiRecord(), scrapeRecord()
	scrape.OwnerNameNorm = "ACME HOLDINGS LLC"
	apiBefore, scrapeBefore := api.Clone(), scrape.Clone()

	_, err := m.Merge(context.Background(), []*records.CanonicalRecord{api, scrape},
		[]records.MergeLink{{ParcelID: "P1", API: "api-0", Scrape: "scrape-0"}})
	require.NoError(t, err)

	if diff := cmp.Diff(apiBefore, api); diff != "" {
		t.Errorf("api record mutated (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(scrapeBefore, scrape); diff != "" {
		t.Errorf("scraped record mutated (-want +got):\n%s", diff)
	}
}

func TestMergeUnionsNotesAndFlags(t *testing.T) {
	m := newMerger(t)
	api, scrape := apiRecord(), scrapeRecord()
	api.Notes = []string{"api note"}
	api.Flags = []string{"invalid_zip"}
	scrape.Notes = []string{records.NotePOBox, "api note"}
	scrape.Flags = []string{"po_box", "invalid_zip"}
	scrape.Validated = false

	merged, _ := m.Pair(api, scrape)
	assert.Equal(t, []string{"api note", records.NotePOBox}, merged.Notes)
	assert.Equal(t, []string{"invalid_zip", "po_box"}, merged.Flags)
	assert.False(t, merged.Validated)
}

func TestMergeInvalidLinks(t *testing.T) {
	m := newMerger(t)
	api, scrape := apiRecord(), scrapeRecord()
	recs := []*records.CanonicalRecord{api, scrape}

	tests := []struct {
		name  string
		links []records.MergeLink
	}{
		{"unknown record", []records.MergeLink{{ParcelID: "P1", API: "api-9", Scrape: "scrape-0"}}},
		{"swapped origins", []records.MergeLink{{ParcelID: "P1", API: "scrape-0", Scrape: "api-0"}}},
		{"reused record", []records.MergeLink{
			{ParcelID: "P1", API: "api-0", Scrape: "scrape-0"},
			{ParcelID: "P1", API: "api-0", Scrape: "scrape-0"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Merge(context.Background(), recs, tt.links)
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestMergeCanceled(t *testing.T) {
	m := newMerger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Merge(ctx, []*records.CanonicalRecord{apiRecord()}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCanceled(err))
}

func TestNewRequiresRules(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(rules.Default(), WithSimilarity(nil))
	assert.Error(t, err)
}
