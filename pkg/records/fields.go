package records

import (
	"strconv"
	"strings"
)

// Field keys used in raw records, weights, authorities and provenance.
const (
	FieldOwnerName       = "owner_name"
	FieldPropertyAddress = "property_address"
	FieldParcelID        = "parcel_id"
	FieldUnitNumber      = "unit_number"
	FieldCity            = "city"
	FieldState           = "state"
	FieldZip             = "zip"
	FieldAssessedValue   = "assessed_value"
	FieldSalePrice       = "sale_price"
	FieldSaleDate        = "sale_date"
	FieldSquareFootage   = "square_footage"
	FieldYearBuilt       = "year_built"
	FieldBedrooms        = "bedrooms"
	FieldBathrooms       = "bathrooms"
	FieldDeedBook        = "deed_book"
	FieldDeedPage        = "deed_page"
)

// RequiredFields must be present for a record to enter reconciliation.
var RequiredFields = []string{FieldOwnerName, FieldPropertyAddress, FieldParcelID}

// FieldSpec describes how one logical field is read from and copied between records.
type FieldSpec struct {
	Name     string
	Optional bool

	// Value renders the field for display and comparison; "" means absent.
	Value func(r *CanonicalRecord) string

	// Copy sets dst's field from src.
	Copy func(dst, src *CanonicalRecord)
}

var fieldSpecs = []FieldSpec{
	{
		Name:  FieldOwnerName,
		Value: func(r *CanonicalRecord) string { return r.OwnerNameNorm },
		Copy: func(dst, src *CanonicalRecord) {
			dst.OwnerNameNorm, dst.OwnerNameRaw = src.OwnerNameNorm, src.OwnerNameRaw
		},
	},
	{
		Name:  FieldPropertyAddress,
		Value: func(r *CanonicalRecord) string { return r.AddressNorm },
		Copy: func(dst, src *CanonicalRecord) {
			dst.AddressNorm, dst.AddressRaw = src.AddressNorm, src.AddressRaw
		},
	},
	{
		Name:  FieldParcelID,
		Value: func(r *CanonicalRecord) string { return r.ParcelID },
		Copy: func(dst, src *CanonicalRecord) {
			dst.ParcelID, dst.ParcelIDRaw = src.ParcelID, src.ParcelIDRaw
		},
	},
	{
		Name:     FieldUnitNumber,
		Optional: true,
		Value:    func(r *CanonicalRecord) string { return r.UnitNumber },
		Copy:     func(dst, src *CanonicalRecord) { dst.UnitNumber = src.UnitNumber },
	},
	{
		Name:     FieldCity,
		Optional: true,
		Value:    func(r *CanonicalRecord) string { return r.City },
		Copy:     func(dst, src *CanonicalRecord) { dst.City = src.City },
	},
	{
		Name:     FieldState,
		Optional: true,
		Value:    func(r *CanonicalRecord) string { return r.State },
		Copy:     func(dst, src *CanonicalRecord) { dst.State = src.State },
	},
	{
		Name:     FieldZip,
		Optional: true,
		Value:    func(r *CanonicalRecord) string { return r.Zip },
		Copy:     func(dst, src *CanonicalRecord) { dst.Zip = src.Zip },
	},
	{
		Name:     FieldAssessedValue,
		Optional: true,
		Value:    func(r *CanonicalRecord) string { return formatFloat(r.AssessedValue) },
		Copy:     func(dst, src *CanonicalRecord) { dst.AssessedValue = clonePtr(src.AssessedValue) },
	},
	{
		Name:     FieldSalePrice,
		Optional: true,
		Value:    func(r *CanonicalRecord) string { return formatFloat(r.SalePrice) },
		Copy:     func(dst, src *CanonicalRecord) { dst.SalePrice = clonePtr(src.SalePrice) },
	},
	{
		Name:     FieldSaleDate,
		Optional: true,
		Value:    func(r *CanonicalRecord) string { return formatString(r.SaleDate) },
		Copy:     func(dst, src *CanonicalRecord) { dst.SaleDate = clonePtr(src.SaleDate) },
	},
	{
		Name:     FieldSquareFootage,
		Optional: true,
		Value:    func(r *CanonicalRecord) string { return formatInt(r.SquareFootage) },
		Copy:     func(dst, src *CanonicalRecord) { dst.SquareFootage = clonePtr(src.SquareFootage) },
	},
	{
		Name:     FieldYearBuilt,
		Optional: true,
		Value:    func(r *CanonicalRecord) string { return formatInt(r.YearBuilt) },
		Copy:     func(dst, src *CanonicalRecord) { dst.YearBuilt = clonePtr(src.YearBuilt) },
	},
	{
		Name:     FieldBedrooms,
		Optional: true,
		Value:    func(r *CanonicalRecord) string { return formatInt(r.Bedrooms) },
		Copy:     func(dst, src *CanonicalRecord) { dst.Bedrooms = clonePtr(src.Bedrooms) },
	},
	{
		Name:     FieldBathrooms,
		Optional: true,
		Value:    func(r *CanonicalRecord) string { return formatFloat(r.Bathrooms) },
		Copy:     func(dst, src *CanonicalRecord) { dst.Bathrooms = clonePtr(src.Bathrooms) },
	},
	{
		Name:     FieldDeedBook,
		Optional: true,
		Value:    func(r *CanonicalRecord) string { return formatString(r.DeedBook) },
		Copy:     func(dst, src *CanonicalRecord) { dst.DeedBook = clonePtr(src.DeedBook) },
	},
	{
		Name:     FieldDeedPage,
		Optional: true,
		Value:    func(r *CanonicalRecord) string { return formatString(r.DeedPage) },
		Copy:     func(dst, src *CanonicalRecord) { dst.DeedPage = clonePtr(src.DeedPage) },
	},
}

// Fields returns the field table in canonical order.
func Fields() []FieldSpec {
	return fieldSpecs
}

// Lookup returns the spec for a field key.
func Lookup(name string) (FieldSpec, bool) {
	for _, f := range fieldSpecs {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Populated reports whether the field holds a value that is neither empty nor
// one of the placeholders. Placeholders are compared case-insensitively.
func Populated(r *CanonicalRecord, field string, placeholders []string) bool {
	spec, ok := Lookup(field)
	if !ok {
		return false
	}
	return IsValue(spec.Value(r), placeholders)
}

// IsValue reports whether s is a real value rather than empty or a placeholder.
func IsValue(s string, placeholders []string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, p := range placeholders {
		if strings.EqualFold(s, p) {
			return false
		}
	}
	return true
}

// PopulatedOptional counts optional fields holding a real value.
func (r *CanonicalRecord) PopulatedOptional(placeholders []string) int {
	n := 0
	for _, f := range fieldSpecs {
		if f.Optional && IsValue(f.Value(r), placeholders) {
			n++
		}
	}
	return n
}

func formatFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func formatInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func formatString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
