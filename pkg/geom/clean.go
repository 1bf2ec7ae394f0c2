package geom

// Polygon cleanup. Boundary chaining can leave artifacts behind: spikes
// where the outline doubles back on itself, near-zero edges from rounding,
// and interior vertices left over from merged collinear edges. Clean
// removes them iteratively.

// collinearThreshold is the dot product of adjacent unit edge directions
// above which the shared vertex is considered collinear.
const collinearThreshold = 0.9999

// maxCleanIterations bounds the cleanup fixed point.
const maxCleanIterations = 10

// Clean removes degenerate artifacts from the loop, applying spike
// removal, short-edge removal and collinear removal in order until the
// vertex count stops changing (at most 10 iterations). The result may end
// up with fewer than 3 vertices; callers treat that as a failed merge and
// fall back to the unmerged faces.
func (l Loop) Clean(tol float64) Loop {
	current := l.Clone()
	for i := 0; i < maxCleanIterations; i++ {
		startLen := len(current)
		if startLen < 3 {
			break
		}
		current = removeSpikes(current, tol)
		current = removeShortEdges(current, tol)
		current = removeCollinear(current)
		if len(current) == startLen {
			break
		}
	}
	return current
}

// removeSpikes drops any vertex whose neighbors coincide within tol. Such
// a vertex is the tip of a zero-width spike in the outline.
func removeSpikes(verts Loop, tol float64) Loop {
	n := len(verts)
	if n < 3 {
		return verts
	}
	tolSq := tol * tol
	out := make(Loop, 0, n)
	for i := range verts {
		prev := verts[(i-1+n)%n]
		next := verts[(i+1)%n]
		if next.Sub(prev).Length2() < tolSq {
			continue
		}
		out = append(out, verts[i])
	}
	return out
}

// removeShortEdges collapses consecutive vertices closer than tol, keeping
// the first and skipping the next.
func removeShortEdges(verts Loop, tol float64) Loop {
	n := len(verts)
	if n < 3 {
		return verts
	}
	tolSq := tol * tol
	out := make(Loop, 0, n)
	skipNext := false
	for i := range verts {
		if skipNext {
			skipNext = false
			continue
		}
		curr := verts[i]
		next := verts[(i+1)%n]
		out = append(out, curr)
		if next.Sub(curr).Length2() < tolSq && i < n-1 {
			skipNext = true
		}
	}
	return out
}

// removeCollinear drops any vertex whose adjacent edges point in the same
// direction (dot above 0.9999). Vertices with a degenerate adjacent edge
// are dropped as well.
func removeCollinear(verts Loop) Loop {
	n := len(verts)
	if n < 3 {
		return verts
	}
	out := make(Loop, 0, n)
	for i := range verts {
		prev := verts[(i-1+n)%n]
		curr := verts[i]
		next := verts[(i+1)%n]

		v1 := curr.Sub(prev)
		v2 := next.Sub(curr)
		l1 := v1.Length()
		l2 := v2.Length()
		if l1 < epsLength || l2 < epsLength {
			continue
		}
		if v1.DivScalar(l1).Dot(v2.DivScalar(l2)) > collinearThreshold {
			continue
		}
		out = append(out, curr)
	}
	return out
}
