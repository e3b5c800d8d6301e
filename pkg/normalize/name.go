package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/agentstation/parcelmap/pkg/rules"
)

// suffixVariant is one entity-suffix variant split into comparison tokens.
type suffixVariant struct {
	tokens    []string
	canonical string
	length    int
	order     int
}

// OwnerName returns the canonical owner name. ok is false when a comma
// pattern could not be resolved; the returned value then carries only the
// minimal case, whitespace and charset normalization.
func (n *Normalizer) OwnerName(s string) (name string, ok bool) {
	s = keepNameChars(foldDiacritics(strings.ToUpper(s)), ".,")
	if s == "" {
		return "", true
	}

	ok = true
	if strings.Contains(s, ",") {
		var swapped bool
		s, swapped = n.swapComma(s)
		if !swapped {
			ok = false
			return stripName(s), ok
		}
	}

	s = stripName(n.canonicalSuffixes(s))
	// Replacements can line up into a longer variant ("LIVING TRUSTEE"
	// becomes "LIVING TRUST"); repeat until nothing changes.
	for i := len(s); i > 0; i-- {
		next := n.collapseSuffixRuns(n.canonicalSuffixes(s))
		if next == s {
			break
		}
		s = next
	}
	return s, ok
}

// swapComma rewrites "LAST, FIRST[, MIDDLE...]" as "FIRST [MIDDLE...] LAST".
// A trailing segment made only of entity suffixes ("ACME, INC") is not a name
// swap; the comma is dropped. Returns false when either side of the first
// comma is empty.
func (n *Normalizer) swapComma(s string) (string, bool) {
	parts := strings.SplitN(s, ",", 2)
	last := strings.TrimSpace(parts[0])
	rest := collapseSpace(strings.ReplaceAll(parts[1], ",", " "))

	if last == "" || rest == "" {
		return strings.ReplaceAll(s, ",", " "), false
	}
	if n.onlySuffixes(rest) {
		return last + " " + rest, true
	}
	return rest + " " + last, true
}

func (n *Normalizer) onlySuffixes(s string) bool {
	tokens := strings.Fields(s)
	for i := 0; i < len(tokens); {
		v := n.matchSuffix(tokens, i)
		if v == nil {
			return false
		}
		i += len(v.tokens)
	}
	return len(tokens) > 0
}

// canonicalSuffixes replaces entity-suffix variants on token boundaries,
// trying the longest variant first at each position.
func (n *Normalizer) canonicalSuffixes(s string) string {
	tokens := strings.Fields(s)
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if v := n.matchSuffix(tokens, i); v != nil {
			out = append(out, v.canonical)
			i += len(v.tokens)
			continue
		}
		out = append(out, tokens[i])
		i++
	}
	return strings.Join(out, " ")
}

func (n *Normalizer) matchSuffix(tokens []string, at int) *suffixVariant {
	for i := range n.suffixes {
		v := &n.suffixes[i]
		if at+len(v.tokens) > len(tokens) {
			continue
		}
		match := true
		for j, t := range v.tokens {
			if suffixToken(tokens[at+j]) != t {
				match = false
				break
			}
		}
		if match {
			return v
		}
	}
	return nil
}

// collapseSuffixRuns removes a canonical suffix repeated back to back, which
// happens when two variants of one suffix follow each other ("CORPORATION INC").
func (n *Normalizer) collapseSuffixRuns(s string) string {
	tokens := strings.Fields(s)
	out := make([]string, 0, len(tokens))
	for i, t := range tokens {
		if i > 0 && t == tokens[i-1] && n.canonical[t] {
			continue
		}
		out = append(out, t)
	}
	return strings.Join(out, " ")
}

func buildSuffixes(table []rules.Mapping) ([]suffixVariant, map[string]bool) {
	variants := make([]suffixVariant, 0, len(table))
	canonical := make(map[string]bool, len(table))
	for i, m := range table {
		var toks []string
		for _, t := range strings.Fields(strings.ToUpper(m.Variant)) {
			toks = append(toks, suffixToken(t))
		}
		canon := strings.ToUpper(strings.TrimSpace(m.Canonical))
		variants = append(variants, suffixVariant{
			tokens:    toks,
			canonical: canon,
			length:    len(m.Variant),
			order:     i,
		})
		canonical[canon] = true
	}
	sortLongestFirst(variants)
	return variants, canonical
}

func sortLongestFirst(vs []suffixVariant) {
	// insertion sort keeps table order among equal lengths
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0 && vs[j].length > vs[j-1].length; j-- {
			vs[j], vs[j-1] = vs[j-1], vs[j]
		}
	}
}

var suffixPunct = strings.NewReplacer(".", "", ",", "")

// suffixToken is the comparison form of a token: periods and commas dropped,
// so "L.L.C." and "LLC" compare equal before and after stripName.
func suffixToken(t string) string {
	return suffixPunct.Replace(t)
}

// stripName keeps [A-Z0-9 &-]. Apostrophes are dropped along with the rest of
// the punctuation so "O'BRIEN" and "OBRIEN" compare equal.
func stripName(s string) string {
	return keepNameChars(s, "")
}

// keepNameChars keeps [A-Z0-9 &-] plus the runes in extra and collapses
// whitespace. Anything else is dropped without leaving a space.
func keepNameChars(s, extra string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '&', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case strings.ContainsRune(extra, r):
			b.WriteRune(r)
		}
	}
	return collapseSpace(b.String())
}

// foldDiacritics maps accented letters to their base letter ("JOSÉ" → "JOSE").
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
