package merge

import (
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/facet/pkg/geom"
)

// Boundary reconstruction. A cluster's merged outline is the set of edges
// that occur exactly once across its faces: interior edges are shared by
// two faces and cancel. T-junctions are spliced first so touching faces
// align vertex-for-vertex before counting.

// undirectedEdge is a canonical (sorted) key for an undirected edge.
type undirectedEdge struct {
	a, b geom.PointKey
}

func canonicalEdge(p1, p2 geom.PointKey) undirectedEdge {
	if p2.Less(p1) {
		return undirectedEdge{a: p2, b: p1}
	}
	return undirectedEdge{a: p1, b: p2}
}

// mergeCluster reconstructs the merged outline polygons of one cluster.
// It returns nil when the merge must be abandoned — no boundary edges,
// chaining failed to close, or cleanup collapsed a loop below 3 vertices —
// and the caller passes the member faces through unmerged.
func (m *Merger) mergeCluster(cluster []geom.Face) []geom.Loop {
	refined := m.resolveTJunctions(cluster)

	counts := make(map[undirectedEdge]int)
	for _, loop := range refined {
		for i := range loop {
			p1 := geom.Key(loop[i])
			p2 := geom.Key(loop[(i+1)%len(loop)])
			counts[canonicalEdge(p1, p2)]++
		}
	}

	var boundary [][2]geom.PointKey
	for _, loop := range refined {
		for i := range loop {
			p1 := geom.Key(loop[i])
			p2 := geom.Key(loop[(i+1)%len(loop)])
			if counts[canonicalEdge(p1, p2)] == 1 {
				boundary = append(boundary, [2]geom.PointKey{p1, p2})
			}
		}
	}
	if len(boundary) == 0 {
		return nil
	}

	loops := chainLoops(boundary)
	if len(loops) == 0 {
		return nil
	}

	// Orient each merged loop against the cluster's reference normal.
	ref := cluster[0].Normal
	polys := make([]geom.Loop, 0, len(loops))
	for _, keys := range loops {
		verts := make(geom.Loop, len(keys))
		for i, k := range keys {
			verts[i] = k.Vec()
		}
		verts = verts.Clean(m.PointTol)
		if len(verts) < 3 {
			return nil
		}
		if verts.Normal().Dot(ref) < 0 {
			verts.Reverse()
		}
		polys = append(polys, verts)
	}
	return polys
}

// resolveTJunctions splices every cluster vertex that lies strictly inside
// another face's edge into that edge, ordered by distance from the edge
// start. The exporter subdivides neighboring surfaces independently, so
// two touching faces rarely agree on vertices until this runs. New loops
// are built; the input faces are never mutated.
func (m *Merger) resolveTJunctions(cluster []geom.Face) []geom.Loop {
	points := make(map[geom.PointKey]struct{})
	for _, f := range cluster {
		for _, v := range f.Verts {
			points[geom.Key(v)] = struct{}{}
		}
	}

	refined := make([]geom.Loop, 0, len(cluster))
	for _, f := range cluster {
		n := len(f.Verts)
		loop := make(geom.Loop, 0, n)
		for i := 0; i < n; i++ {
			p1 := f.Verts[i]
			p2 := f.Verts[(i+1)%n]
			loop = append(loop, p1)

			seg := p2.Sub(p1)
			segLen2 := seg.Length2()
			if segLen2 < 1e-9 {
				continue
			}

			k1, k2 := geom.Key(p1), geom.Key(p2)
			var interior []geom.PointKey
			for k := range points {
				if k == k1 || k == k2 {
					continue
				}
				if m.onSegment(k.Vec(), p1, seg, segLen2) {
					interior = append(interior, k)
				}
			}
			sort.Slice(interior, func(a, b int) bool {
				return interior[a].Vec().Sub(p1).Length2() <
					interior[b].Vec().Sub(p1).Length2()
			})
			for _, k := range interior {
				loop = append(loop, k.Vec())
			}
		}
		refined = append(refined, loop)
	}
	return refined
}

// onSegment reports whether pt lies on the segment p1→p1+seg within the
// point tolerance, strictly clear of both endpoints.
func (m *Merger) onSegment(pt, p1, seg v3.Vec, segLen2 float64) bool {
	d := pt.Sub(p1)
	if d.Cross(seg).Length2() > m.PointTol*m.PointTol*segLen2 {
		return false
	}
	dot := d.Dot(seg)
	if dot < m.PointTol || dot > segLen2-m.PointTol {
		return false
	}
	return true
}

// chainLoops builds a directed successor map from the boundary edges and
// follows it, extracting every closed loop. Open chains — dead ends left
// by a splice that failed to line up — are discarded; the caller treats an
// empty result as a failed merge.
func chainLoops(edges [][2]geom.PointKey) [][]geom.PointKey {
	succ := make(map[geom.PointKey]geom.PointKey, len(edges))
	var order []geom.PointKey
	for _, e := range edges {
		if _, seen := succ[e[0]]; !seen {
			order = append(order, e[0])
		}
		succ[e[0]] = e[1]
	}

	var loops [][]geom.PointKey
	for _, start := range order {
		if _, ok := succ[start]; !ok {
			continue
		}
		var loop []geom.PointKey
		curr := start
		closed := false
		for limit := 2 * len(succ); limit > 0; limit-- {
			loop = append(loop, curr)
			next, ok := succ[curr]
			if !ok {
				break
			}
			delete(succ, curr)
			curr = next
			if curr == start {
				closed = true
				break
			}
		}
		if closed {
			loops = append(loops, loop)
		} else {
			for _, p := range loop {
				delete(succ, p)
			}
		}
	}
	return loops
}
