// Package matcher finds cross-source links and duplicate clusters among
// canonical records. It never modifies its inputs: Link and Cluster return
// assignments, and Apply returns new record versions carrying the markers.
//
// Complexity: parcel and exact-key grouping are linear; fuzzy comparison is
// O(sum of b²) over blocking buckets of size b (zip5, else city); union-find
// is near-linear.
package matcher

import (
	"slices"
	"sort"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/logging"
	"github.com/agentstation/parcelmap/pkg/records"
	"github.com/agentstation/parcelmap/pkg/rules"
	"github.com/agentstation/parcelmap/pkg/similarity"
)

// Matcher holds the rules and similarity scorer for one run.
type Matcher struct {
	cfg    *rules.Config
	sim    similarity.Scorer
	logger *zerolog.Logger
}

// NearMiss is a pair inside the review band of both fuzzy thresholds that
// was not clustered.
type NearMiss struct {
	A            string  `json:"a" yaml:"a"`
	B            string  `json:"b" yaml:"b"`
	ParcelA      string  `json:"parcel_a" yaml:"parcel_a"`
	ParcelB      string  `json:"parcel_b" yaml:"parcel_b"`
	NameScore    float64 `json:"name_score" yaml:"name_score"`
	AddressScore float64 `json:"address_score" yaml:"address_score"`

	ai, bi int
}

// Stats summarizes a clustering pass.
type Stats struct {
	Groups      int                         `json:"groups" yaml:"groups"`
	Duplicates  int                         `json:"duplicates" yaml:"duplicates"`
	MaxSize     int                         `json:"max_size" yaml:"max_size"`
	AvgSize     float64                     `json:"avg_size" yaml:"avg_size"`
	Ties        int                         `json:"ties" yaml:"ties"`
	Comparisons int                         `json:"comparisons" yaml:"comparisons"`
	ByReason    map[records.DedupReason]int `json:"by_reason" yaml:"by_reason"`
}

// Assignment is the outcome of Cluster. Maps are keyed by record id.
type Assignment struct {
	Clusters    []records.DuplicateCluster
	Reasons     map[string]records.DedupReason
	DuplicateOf map[string]string
	NearMisses  []NearMiss
	Stats       Stats
}

// New creates a Matcher.
func New(cfg *rules.Config, opts ...Option) (*Matcher, error) {
	if cfg == nil {
		return nil, errors.NewConfigError("matcher", "rules are required", nil)
	}
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	if o.scorer == nil {
		o.scorer = similarity.ScorerFunc(similarity.Ratio)
	}
	if o.logger == nil {
		o.logger = logging.Default()
	}
	return &Matcher{cfg: cfg, sim: o.scorer, logger: o.logger}, nil
}

// Link pairs API and scraped records sharing a parcel id. When one origin
// holds several records for a parcel, the best representative by election
// order is linked and the rest are left for duplicate clustering.
func (m *Matcher) Link(recs []*records.CanonicalRecord) []records.MergeLink {
	type sides struct{ api, scrape []*records.CanonicalRecord }
	byParcel := make(map[string]*sides)
	for _, r := range recs {
		if r.ParcelID == "" || r.DataSource == records.SourceMerged {
			continue
		}
		s := byParcel[r.ParcelID]
		if s == nil {
			s = &sides{}
			byParcel[r.ParcelID] = s
		}
		switch r.Origin {
		case records.OriginAPI:
			s.api = append(s.api, r)
		case records.OriginScrape:
			s.scrape = append(s.scrape, r)
		}
	}

	var links []records.MergeLink
	for parcel, s := range byParcel {
		if len(s.api) == 0 || len(s.scrape) == 0 {
			continue
		}
		links = append(links, records.MergeLink{
			ParcelID: parcel,
			API:      m.rank(s.api)[0].ID,
			Scrape:   m.rank(s.scrape)[0].ID,
		})
	}
	sort.Slice(links, func(i, j int) bool { return links[i].ParcelID < links[j].ParcelID })
	return links
}

// Cluster groups duplicates by parcel id, then exact address key, then fuzzy
// similarity, and elects one kept record per cluster.
func (m *Matcher) Cluster(recs []*records.CanonicalRecord) *Assignment {
	c := &clustering{
		m:      m,
		recs:   recs,
		uf:     newUnionFind(len(recs)),
		reason: make([]records.DedupReason, len(recs)),
		seq:    make([]int, len(recs)),
	}

	c.groupBy(records.ReasonExactParcel, func(r *records.CanonicalRecord) string { return r.ParcelID })
	c.groupBy(records.ReasonExactAddress, exactKey)
	c.fuzzy()

	return c.assign()
}

// Apply returns new record versions with dedup markers and near-miss parcel
// ids set. Inputs are not modified.
func (m *Matcher) Apply(recs []*records.CanonicalRecord, a *Assignment) []*records.CanonicalRecord {
	byID := records.Index(recs)
	possible := make(map[string][]string)
	for _, nm := range a.NearMisses {
		possible[nm.A] = append(possible[nm.A], byID[nm.B].ParcelID)
		possible[nm.B] = append(possible[nm.B], byID[nm.A].ParcelID)
	}

	out := make([]*records.CanonicalRecord, len(recs))
	for i, r := range recs {
		c := r.Clone()
		if kept, ok := a.DuplicateOf[r.ID]; ok {
			c.IsDuplicate = true
			c.DuplicateOf = kept
			c.DedupReason = a.Reasons[r.ID]
		} else if p := possible[r.ID]; len(p) > 0 {
			for _, id := range p {
				if !slices.Contains(c.PossibleDuplicates, id) {
					c.PossibleDuplicates = append(c.PossibleDuplicates, id)
				}
			}
		}
		out[i] = c
	}
	return out
}

// exactKey is (address, city, zip5), or "" when any part is missing.
func exactKey(r *records.CanonicalRecord) string {
	zip := r.Zip5()
	if r.AddressNorm == "" || r.City == "" || zip == "" {
		return ""
	}
	return r.AddressNorm + "|" + r.City + "|" + zip
}

// blockKey partitions fuzzy comparison: zip5 when known, otherwise city.
// Records with neither share one unkeyed bucket.
func blockKey(r *records.CanonicalRecord) string {
	if z := r.Zip5(); z != "" {
		return "zip:" + z
	}
	if r.City != "" {
		return "city:" + r.City
	}
	return ""
}

type clustering struct {
	m      *Matcher
	recs   []*records.CanonicalRecord
	uf     *unionFind
	reason []records.DedupReason
	seq    []int
	next   int
	near   []NearMiss
	stats  Stats
}

func (c *clustering) join(i, j int, reason records.DedupReason) {
	if !c.uf.union(i, j) {
		return
	}
	c.next++
	for _, k := range []int{i, j} {
		if c.reason[k] == "" {
			c.reason[k] = reason
			c.seq[k] = c.next
		}
	}
}

func (c *clustering) groupBy(reason records.DedupReason, key func(*records.CanonicalRecord) string) {
	first := make(map[string]int)
	for i, r := range c.recs {
		k := key(r)
		if k == "" {
			continue
		}
		j, seen := first[k]
		if !seen {
			first[k] = i
			continue
		}
		// exact keys embed city and zip, so equality here confirms both
		if reason == records.ReasonExactAddress && (r.City != c.recs[j].City || r.Zip5() != c.recs[j].Zip5()) {
			continue
		}
		c.join(j, i, reason)
	}
}

func (c *clustering) fuzzy() {
	t := c.m.cfg.Thresholds
	nameFloor, addrFloor := t.Name-t.ReviewBand, t.Address-t.ReviewBand

	buckets := make(map[string][]int)
	for i, r := range c.recs {
		if r.OwnerNameNorm == "" || r.AddressNorm == "" {
			continue
		}
		k := blockKey(r)
		buckets[k] = append(buckets[k], i)
	}
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		idx := buckets[k]
		for x := 0; x < len(idx); x++ {
			for y := x + 1; y < len(idx); y++ {
				i, j := idx[x], idx[y]
				if c.uf.find(i) == c.uf.find(j) {
					continue
				}
				a, b := c.recs[i], c.recs[j]
				if similarity.MaxRatio(runeLen(a.OwnerNameNorm), runeLen(b.OwnerNameNorm)) < nameFloor ||
					similarity.MaxRatio(runeLen(a.AddressNorm), runeLen(b.AddressNorm)) < addrFloor {
					continue
				}
				c.stats.Comparisons++
				ns := c.m.sim.Ratio(a.OwnerNameNorm, b.OwnerNameNorm)
				if ns < nameFloor {
					continue
				}
				as := c.m.sim.Ratio(a.AddressNorm, b.AddressNorm)
				switch {
				case ns >= t.Name && as >= t.Address:
					c.join(i, j, records.ReasonFuzzy)
				case as >= addrFloor:
					c.near = append(c.near, NearMiss{
						A: a.ID, B: b.ID, ParcelA: a.ParcelID, ParcelB: b.ParcelID,
						NameScore: ns, AddressScore: as,
						ai: i, bi: j,
					})
				}
			}
		}
	}
}

func (c *clustering) assign() *Assignment {
	a := &Assignment{
		Reasons:     make(map[string]records.DedupReason),
		DuplicateOf: make(map[string]string),
	}
	c.stats.ByReason = make(map[records.DedupReason]int)

	groups := c.uf.groups()
	roots := make([]int, 0, len(groups))
	for r := range groups {
		roots = append(roots, r)
	}
	sort.Slice(roots, func(i, j int) bool { return groups[roots[i]][0] < groups[roots[j]][0] })

	totalSize := 0
	for _, root := range roots {
		members := groups[root]
		recs := make([]*records.CanonicalRecord, len(members))
		for i, idx := range members {
			recs[i] = c.recs[idx]
		}
		kept := c.m.elect(recs, &c.stats)

		cluster := records.DuplicateCluster{Kept: kept.ID}
		firstSeq := 0
		for _, idx := range members {
			r := c.recs[idx]
			cluster.Members = append(cluster.Members, r.ID)
			if firstSeq == 0 || c.seq[idx] < firstSeq {
				firstSeq = c.seq[idx]
				cluster.Reason = c.reason[idx]
			}
			if r.ID == kept.ID {
				continue
			}
			a.DuplicateOf[r.ID] = kept.ParcelID
			a.Reasons[r.ID] = c.reason[idx]
			c.stats.ByReason[c.reason[idx]]++
		}
		a.Clusters = append(a.Clusters, cluster)

		totalSize += len(members)
		c.stats.MaxSize = max(c.stats.MaxSize, len(members))
	}

	c.stats.Groups = len(a.Clusters)
	c.stats.Duplicates = len(a.DuplicateOf)
	if c.stats.Groups > 0 {
		c.stats.AvgSize = float64(totalSize) / float64(c.stats.Groups)
	}

	for _, nm := range c.near {
		if c.uf.find(nm.ai) != c.uf.find(nm.bi) {
			a.NearMisses = append(a.NearMisses, nm)
		}
	}
	a.Stats = c.stats
	return a
}

// elect picks the kept record: most populated optional fields, then most
// recent fetch time, then an already merged record. Anything still tied is
// settled by the smaller parcel id (then record id) and logged.
func (m *Matcher) elect(recs []*records.CanonicalRecord, stats *Stats) *records.CanonicalRecord {
	ranked := m.rank(recs)
	if len(ranked) > 1 && m.compare(ranked[0], ranked[1]) == 0 {
		var candidates []string
		for _, r := range ranked {
			if m.compare(ranked[0], r) != 0 {
				break
			}
			candidates = append(candidates, r.ParcelID)
		}
		stats.Ties++
		m.logger.Warn().
			Err(errors.NewTieError(ranked[0].ParcelID, candidates)).
			Str("kept_id", ranked[0].ID).
			Msg("Cluster tie settled by parcel id order")
	}
	return ranked[0]
}

// rank orders records best-first by election order including the
// parcel id and record id fallbacks.
func (m *Matcher) rank(recs []*records.CanonicalRecord) []*records.CanonicalRecord {
	out := append([]*records.CanonicalRecord(nil), recs...)
	sort.SliceStable(out, func(i, j int) bool {
		if c := m.compare(out[i], out[j]); c != 0 {
			return c < 0
		}
		if out[i].ParcelID != out[j].ParcelID {
			return out[i].ParcelID < out[j].ParcelID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// compare returns a negative number when a should be kept over b, positive
// when b should, and zero when the election rules cannot decide.
func (m *Matcher) compare(a, b *records.CanonicalRecord) int {
	pa, pb := a.PopulatedOptional(m.cfg.Placeholders), b.PopulatedOptional(m.cfg.Placeholders)
	if pa != pb {
		return pb - pa
	}
	if !a.FetchedAt.IsZero() && !b.FetchedAt.IsZero() && !a.FetchedAt.Equal(b.FetchedAt) {
		if a.FetchedAt.After(b.FetchedAt) {
			return -1
		}
		return 1
	}
	am, bm := a.DataSource == records.SourceMerged, b.DataSource == records.SourceMerged
	if am != bm {
		if am {
			return -1
		}
		return 1
	}
	return 0
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
