package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/agentstation/parcelmap/pkg/constants"
)

// Validation flags attached to records.
const (
	FlagAmbiguousName = "ambiguous_owner_name"
	FlagPOBox         = "po_box"
	FlagInvalidState  = "invalid_state"
	FlagInvalidZip    = "invalid_zip"
	FlagInvalidDate   = "invalid_date"
	flagInvalidNumber = "invalid_number:"
)

// FlagInvalidNumber returns the flag for an unparseable numeric field.
func FlagInvalidNumber(field string) string {
	return flagInvalidNumber + field
}

var dateLayouts = []string{
	constants.DateLayout,
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

// City uppercases and collapses whitespace.
func City(s string) string {
	return collapseSpace(foldDiacritics(strings.ToUpper(s)))
}

// State returns the USPS code for a state name or code. ok is false when the
// value is neither a known name nor a two-letter code.
func (n *Normalizer) State(s string) (string, bool) {
	s = collapseSpace(strings.ToUpper(strings.ReplaceAll(s, ".", "")))
	if s == "" {
		return "", true
	}
	if code, ok := n.cfg.States[s]; ok {
		return code, true
	}
	if len(s) == 2 && isLetters(s) {
		return s, true
	}
	return s, false
}

// Zip returns a five-digit or ZIP+4 ("12345-6789") code. Short numeric codes
// are left-padded, which restores leading zeros lost by spreadsheet exports.
func Zip(s string) (string, bool) {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case d == "":
		return "", strings.TrimSpace(s) == ""
	case len(d) == 9:
		return d[:5] + "-" + d[5:], true
	case len(d) <= 5:
		return strings.Repeat("0", 5-len(d)) + d, true
	default:
		return "", false
	}
}

// Number parses a currency or count value, ignoring "$", "," and spaces.
func Number(s string) (float64, bool) {
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// Integer parses a whole-number value such as square footage or bedrooms.
func Integer(s string) (int, bool) {
	v, ok := Number(s)
	if !ok || v != math.Trunc(v) || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

// Year parses a construction year.
func Year(s string) (int, bool) {
	y, ok := Integer(s)
	if !ok || y < 1600 || y > 2200 {
		return 0, false
	}
	return y, true
}

// Date parses the accepted sale-date layouts into ISO form.
func Date(s string) (string, bool) {
	s = collapseSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(constants.DateLayout), true
		}
	}
	return "", false
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
