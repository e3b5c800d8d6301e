package matcher

// unionFind is a disjoint-set forest over record indexes with path
// compression and union by rank.
type unionFind struct {
	parent []int
	rank   []uint8
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]uint8, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	root := x
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[x] != root {
		next := uf.parent[x]
		uf.parent[x] = root
		x = next
	}
	return root
}

// union merges the sets of a and b and reports whether they were distinct.
func (uf *unionFind) union(a, b int) bool {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return false
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
	return true
}

// groups returns the members of every set with more than one element, keyed
// by root, each in ascending index order.
func (uf *unionFind) groups() map[int][]int {
	out := make(map[int][]int)
	for i := range uf.parent {
		r := uf.find(i)
		out[r] = append(out[r], i)
	}
	for r, members := range out {
		if len(members) < 2 {
			delete(out, r)
		}
	}
	return out
}
