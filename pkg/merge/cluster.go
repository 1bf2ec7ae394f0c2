package merge

import (
	"math"

	"github.com/chazu/facet/pkg/geom"
)

// unionFind is a plain union-find over face indices within one plane
// group. The touching predicate below is not transitive pairwise;
// union-find is what turns it into a true equivalence over the group.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	if u.parent[i] != i {
		u.parent[i] = u.find(u.parent[i])
	}
	return u.parent[i]
}

func (u *unionFind) union(i, j int) {
	ri, rj := u.find(i), u.find(j)
	if ri != rj {
		u.parent[rj] = ri
	}
}

// clusterByAdjacency splits a plane group into connected clusters of
// touching faces. Cost is O(F²·E²) per group, fine for the tens to
// hundreds of faces a structural export produces per plane.
func (m *Merger) clusterByAdjacency(group []geom.Face) [][]geom.Face {
	uf := newUnionFind(len(group))
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			if m.facesTouching(group[i], group[j]) {
				uf.union(i, j)
			}
		}
	}

	var order []int
	clusters := make(map[int][]geom.Face)
	for i, f := range group {
		r := uf.find(i)
		if _, seen := clusters[r]; !seen {
			order = append(order, r)
		}
		clusters[r] = append(clusters[r], f)
	}

	out := make([][]geom.Face, 0, len(order))
	for _, r := range order {
		out = append(out, clusters[r])
	}
	return out
}

// facesTouching reports whether some edge pair of the two faces is
// parallel, collinear within the point tolerance, and overlapping along
// the shared line by more than the point tolerance. A single shared
// corner point is not enough.
func (m *Merger) facesTouching(a, b geom.Face) bool {
	for _, ea := range a.Edges {
		for _, eb := range b.Edges {
			if math.Abs(ea.Dir.Dot(eb.Dir)) < 1.0-m.NormTol {
				continue
			}
			if m.edgesCollinear(ea, eb) && m.edgesOverlap(ea, eb) {
				return true
			}
		}
	}
	return false
}

// edgesCollinear checks that eb's start point lies on ea's carrier line.
func (m *Merger) edgesCollinear(ea, eb geom.Edge) bool {
	diff := eb.P1.Sub(ea.P1)
	return diff.Cross(ea.Dir).Length2() < m.PointTol*m.PointTol
}

// edgesOverlap projects eb's endpoints onto ea's direction and requires
// the 1D interval overlap to exceed the point tolerance.
func (m *Merger) edgesOverlap(ea, eb geom.Edge) bool {
	b1 := eb.P1.Sub(ea.P1).Dot(ea.Dir)
	b2 := eb.P2.Sub(ea.P1).Dot(ea.Dir)
	start := math.Max(0, math.Min(b1, b2))
	end := math.Min(ea.Length, math.Max(b1, b2))
	return end-start > m.PointTol
}
