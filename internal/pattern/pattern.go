// Package pattern matches field names against glob and regex patterns.
package pattern

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Type represents the kind of pattern.
type Type int

const (
	// Glob uses shell-style glob patterns (*, ?, []).
	Glob Type = iota
	// Regex uses regular expressions.
	Regex
	// Auto detects the pattern type from its metacharacters.
	Auto
)

// String returns a string representation of the Type.
func (t Type) String() string {
	switch t {
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	case Auto:
		return "auto"
	default:
		return "unknown"
	}
}

// Matcher reports whether an input matches.
type Matcher interface {
	Match(input string) bool
}

// Options configures matching.
type Options struct {
	// CaseInsensitive makes matching case-insensitive
	CaseInsensitive bool
	// Anchored adds ^ and $ to regex patterns if not present
	Anchored bool
}

type matcher struct {
	typ      Type
	glob     string
	compiled *regexp.Regexp
	fold     bool
}

// New compiles one pattern.
func New(typ Type, p string, opts Options) (Matcher, error) {
	if typ == Auto {
		typ = Detect(p)
	}
	m := &matcher{typ: typ, fold: opts.CaseInsensitive}

	switch typ {
	case Glob:
		m.glob = p
		if opts.CaseInsensitive {
			m.glob = strings.ToLower(p)
		}
		if _, err := filepath.Match(m.glob, ""); err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", p, err)
		}
	case Regex:
		expr := p
		if opts.Anchored {
			if !strings.HasPrefix(expr, "^") {
				expr = "^" + expr
			}
			if !strings.HasSuffix(expr, "$") {
				expr += "$"
			}
		}
		if opts.CaseInsensitive && !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", p, err)
		}
		m.compiled = re
	default:
		return nil, fmt.Errorf("unsupported pattern type: %v", typ)
	}
	return m, nil
}

func (m *matcher) Match(input string) bool {
	if m.typ == Regex {
		return m.compiled.MatchString(input)
	}
	if m.fold {
		input = strings.ToLower(input)
	}
	ok, _ := filepath.Match(m.glob, input)
	return ok
}

// Set matches when any of its patterns matches. An empty Set matches everything.
type Set []Matcher

// NewSet compiles every pattern.
func NewSet(patterns []string, typ Type, opts Options) (Set, error) {
	set := make(Set, 0, len(patterns))
	for _, p := range patterns {
		m, err := New(typ, p, opts)
		if err != nil {
			return nil, err
		}
		set = append(set, m)
	}
	return set, nil
}

// Match implements Matcher.
func (s Set) Match(input string) bool {
	if len(s) == 0 {
		return true
	}
	for _, m := range s {
		if m.Match(input) {
			return true
		}
	}
	return false
}

// Filter returns the inputs that match, in order.
func (s Set) Filter(inputs ...string) []string {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if s.Match(in) {
			out = append(out, in)
		}
	}
	return out
}

// Detect guesses whether p is a regex or a glob.
func Detect(p string) Type {
	for _, indicator := range []string{
		"^", "$", `\d`, `\w`, `\s`, `\D`, `\W`, `\S`,
		"(?:", "(?i)", "{", "}", "+", "|", "(", ")",
	} {
		if strings.Contains(p, indicator) {
			return Regex
		}
	}
	return Glob
}
