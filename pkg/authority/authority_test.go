package authority

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/parcelmap/pkg/records"
)

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		field   string
		pattern string
		want    bool
	}{
		{"owner_name", "owner_name", true},
		{"sale_price", "sale_*", true},
		{"sale_date", "sale_*", true},
		{"deed_book", "deed_?ook", true},
		{"square_footage", "sale_*", false},
		{"city", "[", false},
	}

	for _, tt := range tests {
		t.Run(tt.field+"/"+tt.pattern, func(t *testing.T) {
			if got := MatchesPattern(tt.field, tt.pattern); got != tt.want {
				t.Errorf("MatchesPattern(%q, %q) = %v, want %v", tt.field, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	a := New(nil)

	tests := []struct {
		field string
		want  records.Origin
	}{
		{records.FieldOwnerName, records.OriginAPI},
		{records.FieldPropertyAddress, records.OriginAPI},
		{records.FieldAssessedValue, records.OriginAPI},
		{records.FieldSquareFootage, records.OriginScrape},
		{records.FieldSalePrice, records.OriginScrape},
		{records.FieldSaleDate, records.OriginScrape},
		{records.FieldDeedPage, records.OriginScrape},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, OriginFor(a, tt.field, records.OriginAPI))
		})
	}

	assert.Equal(t, records.OriginScrape, OriginFor(a, "mailing_address", records.OriginScrape))
}

func TestByFieldPrefersPriorityThenSpecificity(t *testing.T) {
	fields := []Field{
		{Path: "sale_*", Origin: records.OriginScrape, Priority: 90},
		{Path: "sale_price", Origin: records.OriginAPI, Priority: 90},
		{Path: "sale_date", Origin: records.OriginAPI, Priority: 10},
	}

	assert.Equal(t, records.OriginAPI, ByField("sale_price", fields).Origin)
	assert.Equal(t, records.OriginScrape, ByField("sale_date", fields).Origin)
	assert.Nil(t, ByField("city", fields))

	assert.Len(t, FilterByOrigin(fields, records.OriginAPI), 2)
	assert.Len(t, New(fields).List(), 3)
}
