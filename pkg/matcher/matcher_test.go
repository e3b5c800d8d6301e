package matcher

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/parcelmap/pkg/logging"
	"github.com/agentstation/parcelmap/pkg/records"
	"github.com/agentstation/parcelmap/pkg/rules"
	"github.com/agentstation/parcelmap/pkg/similarity"
)

// stubScores returns fixed scores for listed pairs and falls back to Ratio.
type stubScores map[[2]string]float64

func (s stubScores) Ratio(a, b string) float64 {
	if v, ok := s[[2]string{a, b}]; ok {
		return v
	}
	if v, ok := s[[2]string{b, a}]; ok {
		return v
	}
	return similarity.Ratio(a, b)
}

func rec(id, parcel, name, addr, city, zip string) *records.CanonicalRecord {
	origin := records.OriginAPI
	if len(id) > 6 && id[:6] == "scrape" {
		origin = records.OriginScrape
	}
	return &records.CanonicalRecord{
		ID:            id,
		ParcelID:      parcel,
		OwnerNameNorm: name,
		AddressNorm:   addr,
		City:          city,
		Zip:           zip,
		Origin:        origin,
		DataSource:    records.SourceFor(origin),
	}
}

func newMatcher(t *testing.T, opts ...Option) *Matcher {
	t.Helper()
	m, err := New(rules.Default(), opts...)
	require.NoError(t, err)
	return m
}

func TestExactAddressDedup(t *testing.T) {
	m := newMatcher(t)

	t.Run("same key clusters", func(t *testing.T) {
		recs := []*records.CanonicalRecord{
			rec("api-0", "P1", "JOHN SMITH", "12 MAIN ST", "ORLANDO", "32801"),
			rec("api-1", "P2", "ACME LLC", "12 MAIN ST", "ORLANDO", "32801-0001"),
		}
		a := m.Cluster(recs)
		require.Len(t, a.Clusters, 1)
		assert.Equal(t, records.ReasonExactAddress, a.Clusters[0].Reason)
		assert.Equal(t, "P1", a.DuplicateOf["api-1"])
		assert.Equal(t, records.ReasonExactAddress, a.Reasons["api-1"])
	})

	t.Run("different zip does not cluster", func(t *testing.T) {
		recs := []*records.CanonicalRecord{
			rec("api-0", "P1", "JOHN SMITH", "12 MAIN ST", "ORLANDO", "32801"),
			rec("api-1", "P2", "JOHN SMITH", "12 MAIN ST", "ORLANDO", "32803"),
		}
		a := m.Cluster(recs)
		assert.Empty(t, a.Clusters)
		assert.Empty(t, a.DuplicateOf)
	})

	t.Run("missing city never forms an exact key", func(t *testing.T) {
		recs := []*records.CanonicalRecord{
			rec("api-0", "P1", "JOHN SMITH", "12 MAIN ST", "", "32801"),
			rec("api-1", "P2", "ACME LLC", "12 MAIN ST", "", "32801"),
		}
		assert.Empty(t, m.Cluster(recs).Clusters)
	})
}

func TestFuzzyRuleIsConjunctive(t *testing.T) {
	scores := stubScores{
		{"JOHN SMITH", "JOHN SMYTH"}: 92,
		{"12 MAIN ST", "12 MAIN SX"}: 96,
		{"40 OAK AVE", "40 OAK AVX"}: 80,
	}
	m := newMatcher(t, WithSimilarity(scores))

	t.Run("92 and 96 is a duplicate", func(t *testing.T) {
		a := m.Cluster([]*records.CanonicalRecord{
			rec("api-0", "P1", "JOHN SMITH", "12 MAIN ST", "ORLANDO", "32801"),
			rec("api-1", "P2", "JOHN SMYTH", "12 MAIN SX", "ORLANDO", "32801"),
		})
		require.Len(t, a.Clusters, 1)
		assert.Equal(t, records.ReasonFuzzy, a.Clusters[0].Reason)
		assert.Equal(t, 1, a.Stats.Duplicates)
	})

	t.Run("92 and 80 is not", func(t *testing.T) {
		a := m.Cluster([]*records.CanonicalRecord{
			rec("api-0", "P1", "JOHN SMITH", "40 OAK AVE", "ORLANDO", "32801"),
			rec("api-1", "P2", "JOHN SMYTH", "40 OAK AVX", "ORLANDO", "32801"),
		})
		assert.Empty(t, a.Clusters)
		assert.Empty(t, a.NearMisses)
	})

	t.Run("different blocking buckets are never compared", func(t *testing.T) {
		a := m.Cluster([]*records.CanonicalRecord{
			rec("api-0", "P1", "JOHN SMITH", "12 MAIN ST", "ORLANDO", "32801"),
			rec("api-1", "P2", "JOHN SMYTH", "12 MAIN SX", "ORLANDO", "32806"),
		})
		assert.Empty(t, a.Clusters)
		assert.Zero(t, a.Stats.Comparisons)
	})
}

func TestClusterIsTransitive(t *testing.T) {
	scores := stubScores{
		{"JOHN SMITH", "JOHN SMYTH"}: 95,
		{"JOHN SMYTH", "JON SMYTHE"}: 95,
		{"JOHN SMITH", "JON SMYTHE"}: 70,
		{"12 MAIN ST", "12 MAIN SX"}: 99,
		{"12 MAIN SX", "12 MAIN SZ"}: 99,
		{"12 MAIN ST", "12 MAIN SZ"}: 99,
	}
	m := newMatcher(t, WithSimilarity(scores))

	a := m.Cluster([]*records.CanonicalRecord{
		rec("api-0", "P1", "JOHN SMITH", "12 MAIN ST", "ORLANDO", "32801"),
		rec("api-1", "P2", "JOHN SMYTH", "12 MAIN SX", "ORLANDO", "32801"),
		rec("api-2", "P3", "JON SMYTHE", "12 MAIN SZ", "ORLANDO", "32801"),
	})
	require.Len(t, a.Clusters, 1)
	assert.ElementsMatch(t, []string{"api-0", "api-1", "api-2"}, a.Clusters[0].Members)
	assert.Equal(t, 3, a.Stats.MaxSize)
	assert.Equal(t, 2, a.Stats.Duplicates)
}

func TestMemberReasonIsFirstJoin(t *testing.T) {
	scores := stubScores{
		{"JOHN SMITH", "JOHN SMYTH"}: 95,
		{"12 MAIN ST", "12 MAIN SX"}: 99,
	}
	m := newMatcher(t, WithSimilarity(scores))

	a := m.Cluster([]*records.CanonicalRecord{
		rec("api-0", "P1", "JOHN SMITH", "12 MAIN ST", "ORLANDO", "32801"),
		rec("api-1", "P1", "JOHN SMITH", "12 MAIN ST", "ORLANDO", "32801"),
		rec("api-2", "P2", "JOHN SMYTH", "12 MAIN SX", "ORLANDO", "32801"),
	})
	require.Len(t, a.Clusters, 1)
	assert.Equal(t, records.ReasonExactParcel, a.Clusters[0].Reason)
	assert.Equal(t, records.ReasonFuzzy, a.Reasons["api-2"])
	assert.Equal(t, 1, a.Stats.ByReason[records.ReasonExactParcel])
	assert.Equal(t, 1, a.Stats.ByReason[records.ReasonFuzzy])
}

func TestElection(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("most populated optional fields", func(t *testing.T) {
		m := newMatcher(t)
		rich := rec("api-1", "P9", "A", "1 ELM ST", "ORLANDO", "32801")
		rich.SquareFootage = records.Ptr(1200)
		a := m.Cluster([]*records.CanonicalRecord{
			rec("api-0", "P1", "B", "1 ELM ST", "ORLANDO", "32801"),
			rich,
		})
		assert.Equal(t, "api-1", a.Clusters[0].Kept)
		assert.Equal(t, "P9", a.DuplicateOf["api-0"])
	})

	t.Run("most recent fetch", func(t *testing.T) {
		m := newMatcher(t)
		older := rec("api-0", "P1", "A", "1 ELM ST", "ORLANDO", "32801")
		older.FetchedAt = now.Add(-time.Hour)
		newer := rec("api-1", "P2", "B", "1 ELM ST", "ORLANDO", "32801")
		newer.FetchedAt = now
		a := m.Cluster([]*records.CanonicalRecord{older, newer})
		assert.Equal(t, "api-1", a.Clusters[0].Kept)
	})

	t.Run("merged preferred", func(t *testing.T) {
		m := newMatcher(t)
		merged := rec("api-1", "P2", "B", "1 ELM ST", "ORLANDO", "32801")
		merged.DataSource = records.SourceMerged
		a := m.Cluster([]*records.CanonicalRecord{
			rec("api-0", "P1", "A", "1 ELM ST", "ORLANDO", "32801"),
			merged,
		})
		assert.Equal(t, "api-1", a.Clusters[0].Kept)
		assert.Zero(t, a.Stats.Ties)
	})

	t.Run("tie falls back to smaller parcel id", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		m := newMatcher(t, WithLogger(tl.Logger))
		a := m.Cluster([]*records.CanonicalRecord{
			rec("api-0", "P7", "A", "1 ELM ST", "ORLANDO", "32801"),
			rec("api-1", "P3", "B", "1 ELM ST", "ORLANDO", "32801"),
		})
		assert.Equal(t, "api-1", a.Clusters[0].Kept)
		assert.Equal(t, "P3", a.DuplicateOf["api-0"])
		assert.Equal(t, 1, a.Stats.Ties)
		tl.AssertContains(t, "Cluster tie settled by parcel id order")
		tl.AssertContains(t, `"level":"warn"`)
	})
}

func TestNearMiss(t *testing.T) {
	scores := stubScores{
		{"JOHN SMITH", "JOHN SMYTH"}: 87,
		{"12 MAIN ST", "12 MAIN SX"}: 96,
	}
	m := newMatcher(t, WithSimilarity(scores))
	recs := []*records.CanonicalRecord{
		rec("api-0", "P1", "JOHN SMITH", "12 MAIN ST", "ORLANDO", "32801"),
		rec("api-1", "P2", "JOHN SMYTH", "12 MAIN SX", "ORLANDO", "32801"),
	}

	a := m.Cluster(recs)
	assert.Empty(t, a.Clusters)
	require.Len(t, a.NearMisses, 1)
	assert.Equal(t, 87.0, a.NearMisses[0].NameScore)

	out := m.Apply(recs, a)
	assert.Equal(t, []string{"P2"}, out[0].PossibleDuplicates)
	assert.Equal(t, []string{"P1"}, out[1].PossibleDuplicates)
	assert.False(t, out[0].IsDuplicate)
}

func TestApplyDoesNotMutateInputs(t *testing.T) {
	m := newMatcher(t)
	recs := []*records.CanonicalRecord{
		rec("api-0", "P1", "A", "1 ELM ST", "ORLANDO", "32801"),
		rec("api-1", "P2", "B", "1 ELM ST", "ORLANDO", "32801"),
	}
	before := []records.CanonicalRecord{*recs[0].Clone(), *recs[1].Clone()}

	out := m.Apply(recs, m.Cluster(recs))

	if diff := cmp.Diff(before, []records.CanonicalRecord{*recs[0], *recs[1]}); diff != "" {
		t.Errorf("inputs modified (-before +after):\n%s", diff)
	}
	assert.True(t, out[1].IsDuplicate)
	assert.Equal(t, "P1", out[1].DuplicateOf)
	assert.Equal(t, records.ReasonExactAddress, out[1].DedupReason)
	assert.NotSame(t, recs[0], out[0])
}

func TestLink(t *testing.T) {
	m := newMatcher(t)

	richAPI := rec("api-2", "P1", "JOHN SMITH", "12 MAIN ST", "ORLANDO", "32801")
	richAPI.AssessedValue = records.Ptr(100000.0)

	links := m.Link([]*records.CanonicalRecord{
		rec("api-0", "P1", "JOHN SMITH", "12 MAIN ST", "ORLANDO", "32801"),
		rec("scrape-1", "P1", "J SMITH", "12 MAIN ST", "ORLANDO", "32801"),
		richAPI,
		rec("api-3", "P2", "ACME LLC", "5 OAK AVE", "ORLANDO", "32801"),
		rec("scrape-4", "P3", "JANE DOE", "9 PINE RD", "ORLANDO", "32801"),
	})

	assert.Equal(t, []records.MergeLink{{ParcelID: "P1", API: "api-2", Scrape: "scrape-1"}}, links)
}

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(5)
	assert.True(t, uf.union(0, 1))
	assert.True(t, uf.union(3, 4))
	assert.True(t, uf.union(1, 4))
	assert.False(t, uf.union(0, 3))

	assert.Equal(t, uf.find(0), uf.find(4))
	assert.NotEqual(t, uf.find(0), uf.find(2))

	groups := uf.groups()
	require.Len(t, groups, 1)
	for _, members := range groups {
		assert.Equal(t, []int{0, 1, 3, 4}, members)
	}
}
