package normalize

import (
	"strings"
	"unicode"

	"github.com/agentstation/parcelmap/pkg/records"
	"github.com/agentstation/parcelmap/pkg/rules"
)

// Address returns the canonical address body, the extracted unit number and
// whether the address looks like a PO box.
func (n *Normalizer) Address(s string) (addr, unit string, poBox bool) {
	s = foldDiacritics(strings.ToUpper(s))
	poBox = n.poBox.MatchString(s)

	tokens := strings.Fields(strings.ReplaceAll(s, ",", " "))
	tokens, unit = n.extractUnit(tokens)

	for i, t := range tokens {
		tokens[i] = n.canonicalToken(t)
	}
	return collapseSpace(strings.Join(tokens, " ")), unit, poBox
}

// extractUnit removes the first unit designator and its value. Both the
// spaced form ("APT 2", "# 2") and the glued form ("#2") are recognized.
func (n *Normalizer) extractUnit(tokens []string) ([]string, string) {
	for i, t := range tokens {
		if len(t) > 1 && strings.HasPrefix(t, "#") && n.units["#"] {
			if v := unitValue(t[1:]); v != "" {
				return remove(tokens, i, 1), v
			}
		}
		if !n.units[strings.TrimRight(t, ".")] || i+1 >= len(tokens) {
			continue
		}
		if v := unitValue(strings.TrimLeft(tokens[i+1], "#")); v != "" {
			return remove(tokens, i, 2), v
		}
	}
	return tokens, ""
}

// canonicalToken maps a street-suffix or directional variant to its
// canonical form; other tokens lose their periods ("P.O." → "PO").
func (n *Normalizer) canonicalToken(t string) string {
	if c, ok := n.tokens[t]; ok {
		return c
	}
	t = strings.ReplaceAll(t, ".", "")
	if c, ok := n.tokens[t]; ok {
		return c
	}
	return t
}

// ParcelID strips dashes and spaces, uppercases, and left-pads with zeros to
// the origin's configured width when one is known.
func (n *Normalizer) ParcelID(s string, origin records.Origin) string {
	s = strings.ToUpper(strings.NewReplacer("-", "", " ", "", "\t", "").Replace(s))
	if s == "" {
		return ""
	}
	if width, ok := n.cfg.ParcelWidths[origin]; ok && len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}

func buildTokenTable(tables ...[]rules.Mapping) map[string]string {
	out := make(map[string]string)
	for _, table := range tables {
		for _, m := range table {
			v := strings.ToUpper(strings.TrimSpace(m.Variant))
			c := strings.ToUpper(strings.TrimSpace(m.Canonical))
			out[v] = c
			if trimmed := strings.TrimRight(v, "."); trimmed != "" {
				if _, exists := out[trimmed]; !exists {
					out[trimmed] = c
				}
			}
		}
	}
	return out
}

func unitValue(t string) string {
	t = strings.TrimRight(t, ".")
	if t == "" {
		return ""
	}
	hasAlnum := false
	for _, r := range t {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			hasAlnum = true
		case r == '-':
		default:
			return ""
		}
	}
	if !hasAlnum {
		return ""
	}
	return t
}

func remove(tokens []string, at, count int) []string {
	out := make([]string, 0, len(tokens)-count)
	out = append(out, tokens[:at]...)
	return append(out, tokens[at+count:]...)
}
