package rules

import "github.com/agentstation/parcelmap/pkg/records"

// defaultEntitySuffixes is ordered; among variants of equal length the earlier
// entry wins.
func defaultEntitySuffixes() []Mapping {
	return []Mapping{
		{Variant: "LIMITED LIABILITY COMPANY", Canonical: "LLC"},
		{Variant: "L.L.C.", Canonical: "LLC"},
		{Variant: "L L C", Canonical: "LLC"},
		{Variant: "LLC", Canonical: "LLC"},
		{Variant: "LIMITED PARTNERSHIP", Canonical: "LP"},
		{Variant: "L.L.P.", Canonical: "LLP"},
		{Variant: "LLP", Canonical: "LLP"},
		{Variant: "L.P.", Canonical: "LP"},
		{Variant: "LP", Canonical: "LP"},
		{Variant: "INCORPORATED", Canonical: "CORP"},
		{Variant: "CORPORATION", Canonical: "CORP"},
		{Variant: "CORP.", Canonical: "CORP"},
		{Variant: "INC.", Canonical: "CORP"},
		{Variant: "INC", Canonical: "CORP"},
		{Variant: "REVOCABLE LIVING TRUST", Canonical: "TRUST"},
		{Variant: "REVOCABLE TRUST", Canonical: "TRUST"},
		{Variant: "LIVING TRUST", Canonical: "TRUST"},
		{Variant: "FAMILY TRUST", Canonical: "TRUST"},
		{Variant: "TRUSTEES", Canonical: "TRUST"},
		{Variant: "TRUSTEE", Canonical: "TRUST"},
		{Variant: "TRUST", Canonical: "TRUST"},
		{Variant: "PARTNERSHIP", Canonical: "PARTNERSHIP"},
	}
}

func defaultStreetSuffixes() []Mapping {
	return []Mapping{
		{Variant: "STREET", Canonical: "ST"},
		{Variant: "STR", Canonical: "ST"},
		{Variant: "ST.", Canonical: "ST"},
		{Variant: "AVENUE", Canonical: "AVE"},
		{Variant: "AV", Canonical: "AVE"},
		{Variant: "AVE.", Canonical: "AVE"},
		{Variant: "ROAD", Canonical: "RD"},
		{Variant: "RD.", Canonical: "RD"},
		{Variant: "DRIVE", Canonical: "DR"},
		{Variant: "DR.", Canonical: "DR"},
		{Variant: "BOULEVARD", Canonical: "BLVD"},
		{Variant: "BLVD.", Canonical: "BLVD"},
		{Variant: "LANE", Canonical: "LN"},
		{Variant: "LN.", Canonical: "LN"},
		{Variant: "COURT", Canonical: "CT"},
		{Variant: "CT.", Canonical: "CT"},
		{Variant: "CIRCLE", Canonical: "CIR"},
		{Variant: "CIR.", Canonical: "CIR"},
		{Variant: "PLACE", Canonical: "PL"},
		{Variant: "PARKWAY", Canonical: "PKWY"},
		{Variant: "HIGHWAY", Canonical: "HWY"},
		{Variant: "TERRACE", Canonical: "TER"},
		{Variant: "TRAIL", Canonical: "TRL"},
	}
}

func defaultDirectionals() []Mapping {
	return []Mapping{
		{Variant: "NORTH", Canonical: "N"},
		{Variant: "N.", Canonical: "N"},
		{Variant: "SOUTH", Canonical: "S"},
		{Variant: "S.", Canonical: "S"},
		{Variant: "EAST", Canonical: "E"},
		{Variant: "E.", Canonical: "E"},
		{Variant: "WEST", Canonical: "W"},
		{Variant: "W.", Canonical: "W"},
		{Variant: "NORTHEAST", Canonical: "NE"},
		{Variant: "N.E.", Canonical: "NE"},
		{Variant: "NORTHWEST", Canonical: "NW"},
		{Variant: "N.W.", Canonical: "NW"},
		{Variant: "SOUTHEAST", Canonical: "SE"},
		{Variant: "S.E.", Canonical: "SE"},
		{Variant: "SOUTHWEST", Canonical: "SW"},
		{Variant: "S.W.", Canonical: "SW"},
	}
}

func defaultStates() map[string]string {
	return map[string]string{
		"ALABAMA": "AL", "ALASKA": "AK", "ARIZONA": "AZ", "ARKANSAS": "AR",
		"CALIFORNIA": "CA", "COLORADO": "CO", "CONNECTICUT": "CT", "DELAWARE": "DE",
		"DISTRICT OF COLUMBIA": "DC", "FLORIDA": "FL", "GEORGIA": "GA", "HAWAII": "HI",
		"IDAHO": "ID", "ILLINOIS": "IL", "INDIANA": "IN", "IOWA": "IA",
		"KANSAS": "KS", "KENTUCKY": "KY", "LOUISIANA": "LA", "MAINE": "ME",
		"MARYLAND": "MD", "MASSACHUSETTS": "MA", "MICHIGAN": "MI", "MINNESOTA": "MN",
		"MISSISSIPPI": "MS", "MISSOURI": "MO", "MONTANA": "MT", "NEBRASKA": "NE",
		"NEVADA": "NV", "NEW HAMPSHIRE": "NH", "NEW JERSEY": "NJ", "NEW MEXICO": "NM",
		"NEW YORK": "NY", "NORTH CAROLINA": "NC", "NORTH DAKOTA": "ND", "OHIO": "OH",
		"OKLAHOMA": "OK", "OREGON": "OR", "PENNSYLVANIA": "PA", "RHODE ISLAND": "RI",
		"SOUTH CAROLINA": "SC", "SOUTH DAKOTA": "SD", "TENNESSEE": "TN", "TEXAS": "TX",
		"UTAH": "UT", "VERMONT": "VT", "VIRGINIA": "VA", "WASHINGTON": "WA",
		"WEST VIRGINIA": "WV", "WISCONSIN": "WI", "WYOMING": "WY",
	}
}

func defaultAliases() map[string]string {
	return map[string]string{
		"owner":             records.FieldOwnerName,
		"owner_name_1":      records.FieldOwnerName,
		"address":           records.FieldPropertyAddress,
		"situs_address":     records.FieldPropertyAddress,
		"property_location": records.FieldPropertyAddress,
		"parcel":            records.FieldParcelID,
		"pin":               records.FieldParcelID,
		"account_number":    records.FieldParcelID,
		"unit":              records.FieldUnitNumber,
		"zip_code":          records.FieldZip,
		"zipcode":           records.FieldZip,
		"postal_code":       records.FieldZip,
		"total_value":       records.FieldAssessedValue,
		"price":             records.FieldSalePrice,
		"last_sale_price":   records.FieldSalePrice,
		"last_sale_date":    records.FieldSaleDate,
		"sqft":              records.FieldSquareFootage,
		"living_area":       records.FieldSquareFootage,
		"beds":              records.FieldBedrooms,
		"baths":             records.FieldBathrooms,
	}
}

func defaultSelectors() map[string][]string {
	return map[string][]string{
		records.FieldOwnerName: {
			"div.owner-info h3",
			"span.owner-name",
			"td:contains('Owner Name') + td",
		},
		records.FieldParcelID: {
			"span.parcel-id",
			"div.parcel-number",
			"td:contains('Parcel ID') + td",
		},
		records.FieldPropertyAddress: {
			"div.property-address",
			"span.address",
			"td:contains('Property Address') + td",
		},
		records.FieldCity: {
			"span.city",
			"td:contains('City') + td",
		},
		records.FieldState: {
			"span.state",
			"td:contains('State') + td",
		},
		records.FieldZip: {
			"span.zip",
			"span.zipcode",
			"td:contains('Zip Code') + td",
			"td:contains('ZIP') + td",
		},
		records.FieldAssessedValue: {
			"span.assessed-value",
			"td:contains('Assessed Value') + td",
			"td:contains('Total Value') + td",
		},
		records.FieldSaleDate: {
			"span.sale-date",
			"td:contains('Last Sale Date') + td",
			"td:contains('Sale Date') + td",
		},
		records.FieldSalePrice: {
			"span.sale-price",
			"td:contains('Last Sale Price') + td",
			"td:contains('Sale Price') + td",
		},
		records.FieldSquareFootage: {
			"span.living-area",
			"td:contains('Living Area') + td",
		},
		records.FieldYearBuilt: {
			"span.year-built",
			"td:contains('Year Built') + td",
		},
		records.FieldBedrooms: {
			"span.bedrooms",
			"td:contains('Bedrooms') + td",
		},
		records.FieldBathrooms: {
			"span.bathrooms",
			"td:contains('Bathrooms') + td",
		},
		records.FieldDeedBook: {
			"span.deed-book",
			"td:contains('Deed Book') + td",
		},
		records.FieldDeedPage: {
			"span.deed-page",
			"td:contains('Deed Page') + td",
		},
	}
}
