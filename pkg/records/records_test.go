package records_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/parcelmap/pkg/records"
)

func TestClone(t *testing.T) {
	orig := &records.CanonicalRecord{
		ID:            "api-0",
		ParcelID:      "00123",
		SquareFootage: records.Ptr(1800),
		FieldOrigins:  map[string]records.Origin{records.FieldOwnerName: records.OriginAPI},
		Notes:         []string{records.NotePOBox},
		Conflicts:     []records.Conflict{{Field: records.FieldOwnerName}},
	}

	c := orig.Clone()
	*c.SquareFootage = 2000
	c.FieldOrigins[records.FieldOwnerName] = records.OriginScrape
	c.Notes[0] = "changed"
	c.Conflicts[0].Field = "changed"

	assert.Equal(t, 1800, *orig.SquareFootage)
	assert.Equal(t, records.OriginAPI, orig.FieldOrigins[records.FieldOwnerName])
	assert.Equal(t, records.NotePOBox, orig.Notes[0])
	assert.Equal(t, records.FieldOwnerName, orig.Conflicts[0].Field)

	var nilRec *records.CanonicalRecord
	assert.Nil(t, nilRec.Clone())
}

func TestAddNote(t *testing.T) {
	r := &records.CanonicalRecord{}
	r.AddNote(records.NoteEnriched)
	r.AddNote(records.NoteMissingSale)
	r.AddNote(records.NoteEnriched)
	r.AddNote("")

	assert.Equal(t, []string{records.NoteEnriched, records.NoteMissingSale}, r.Notes)
}

func TestPopulated(t *testing.T) {
	placeholders := []string{"N/A", "NONE"}
	r := &records.CanonicalRecord{
		OwnerNameNorm: "JOHN SMITH",
		City:          "n/a",
		Bathrooms:     records.Ptr(0.0),
		DeedBook:      records.Ptr(""),
	}

	tests := []struct {
		field string
		want  bool
	}{
		{records.FieldOwnerName, true},
		{records.FieldCity, false},
		{records.FieldBathrooms, true}, // zero is a value, absence is not
		{records.FieldBedrooms, false},
		{records.FieldDeedBook, false},
		{"unknown_field", false},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if got := records.Populated(r, tt.field, placeholders); got != tt.want {
				t.Errorf("Populated(%s) = %v, want %v", tt.field, got, tt.want)
			}
		})
	}

	assert.Equal(t, 1, r.PopulatedOptional(placeholders))
}

func TestZip5(t *testing.T) {
	assert.Equal(t, "32801", (&records.CanonicalRecord{Zip: "32801-1234"}).Zip5())
	assert.Equal(t, "328", (&records.CanonicalRecord{Zip: "328"}).Zip5())
}

func TestParseOrigin(t *testing.T) {
	o, ok := records.ParseOrigin(" scrape ")
	require.True(t, ok)
	assert.Equal(t, records.OriginScrape, o)

	o, ok = records.ParseOrigin("api")
	require.True(t, ok)
	assert.Equal(t, records.OriginAPI, o)

	_, ok = records.ParseOrigin("ftp")
	assert.False(t, ok)

	assert.Equal(t, records.SourceScrapedOnly, records.SourceFor(records.OriginScrape))
	assert.Equal(t, records.SourceAPIOnly, records.SourceFor(records.OriginAPI))
}

func TestFieldCopy(t *testing.T) {
	src := &records.CanonicalRecord{SalePrice: records.Ptr(250000.0), FetchedAt: time.Now()}
	dst := &records.CanonicalRecord{}

	spec, ok := records.Lookup(records.FieldSalePrice)
	require.True(t, ok)
	spec.Copy(dst, src)

	require.NotNil(t, dst.SalePrice)
	assert.Equal(t, "250000", spec.Value(dst))
	assert.NotSame(t, src.SalePrice, dst.SalePrice)
}
