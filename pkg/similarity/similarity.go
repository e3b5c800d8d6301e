// Package similarity scores string similarity on a 0-100 scale from the
// Levenshtein edit distance, with an optional memo shared across stages.
package similarity

import (
	"strconv"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	gocache "github.com/patrickmn/go-cache"
)

// Scorer computes similarity between two normalized strings.
type Scorer interface {
	Ratio(a, b string) float64
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(a, b string) float64

// Ratio calls f(a, b).
func (f ScorerFunc) Ratio(a, b string) float64 { return f(a, b) }

// Ratio returns 100*(1 - distance/maxLen) over runes. Identical strings score
// 100, and a pair with an empty side scores 0.
func Ratio(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 100
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(max(la, lb)))
}

// MaxRatio is the best score two strings of the given rune lengths can reach;
// the distance is at least the length difference.
func MaxRatio(la, lb int) float64 {
	if la == 0 || lb == 0 {
		return 0
	}
	return 100 * float64(min(la, lb)) / float64(max(la, lb))
}

// Cache memoizes Ratio results. The key is order-insensitive since the
// distance is symmetric. Safe for concurrent use.
type Cache struct {
	store *gocache.Cache
	next  Scorer
}

// NewCache wraps next (Ratio when nil) with a memo. Entries never expire; the
// memo lives as long as one reconciliation run.
func NewCache(next Scorer) *Cache {
	if next == nil {
		next = ScorerFunc(Ratio)
	}
	return &Cache{
		store: gocache.New(gocache.NoExpiration, 0),
		next:  next,
	}
}

// Ratio returns the memoized similarity of a and b.
func (c *Cache) Ratio(a, b string) float64 {
	key := cacheKey(a, b)
	if v, ok := c.store.Get(key); ok {
		return v.(float64)
	}
	r := c.next.Ratio(a, b)
	c.store.Set(key, r, gocache.NoExpiration)
	return r
}

// ItemCount returns the number of memoized pairs.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}

// Clear drops every memoized pair.
func (c *Cache) Clear() {
	c.store.Flush()
}

func cacheKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return strconv.Itoa(len(a)) + ":" + a + "\x00" + b
}
