// Package geom defines the planar-face primitives used by the merge
// engine: canonical point keys, edges with derived directions, vertex
// loops and classified faces. All types are plain values; nothing here
// holds state between calls.
package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// epsLength guards normalization of near-zero vectors.
const epsLength = 1e-9

// PointKey is the canonical identity of a 3D point: coordinates rounded
// to 3 decimals. Two points are the same vertex iff their keys are equal.
type PointKey [3]float64

// Key returns the canonical identity key of p.
func Key(p v3.Vec) PointKey {
	return PointKey{round3(p.X), round3(p.Y), round3(p.Z)}
}

// Vec converts the key back into the rounded point it represents.
func (k PointKey) Vec() v3.Vec {
	return v3.Vec{X: k[0], Y: k[1], Z: k[2]}
}

// Less orders keys lexicographically, used to canonicalize undirected edges.
func (k PointKey) Less(o PointKey) bool {
	for i := range k {
		if k[i] != o[i] {
			return k[i] < o[i]
		}
	}
	return false
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Edge is one ordered segment of a loop with its derived unit direction.
// A zero-length edge keeps a zero direction; callers exclude those.
type Edge struct {
	P1, P2 v3.Vec
	Dir    v3.Vec
	Length float64
}

// NewEdge derives direction and length from the endpoints.
func NewEdge(p1, p2 v3.Vec) Edge {
	d := p2.Sub(p1)
	l := d.Length()
	e := Edge{P1: p1, P2: p2, Length: l}
	if l >= epsLength {
		e.Dir = d.DivScalar(l)
	}
	return e
}

// Loop is an ordered, implicitly closed vertex loop.
type Loop []v3.Vec

// KeyedLoop pairs a record identifier with its vertex loop. Slices of
// KeyedLoop stand in for the exporter's JSON objects (identifier → loop)
// in a deterministic order; Go maps would randomize the seed order that
// plane grouping depends on.
type KeyedLoop struct {
	Key   string
	Verts Loop
}

// Normal computes the loop normal with Newell's method. A degenerate loop
// (accumulated magnitude under 1e-9) yields the fallback (0,1,0) so that
// downstream grouping still has a plane to work with.
func (l Loop) Normal() v3.Vec {
	var n v3.Vec
	for i, c := range l {
		nx := l[(i+1)%len(l)]
		n.X += (nx.Y - c.Y) * (c.Z + nx.Z)
		n.Y += (nx.Z - c.Z) * (c.X + nx.X)
		n.Z += (nx.X - c.X) * (c.Y + nx.Y)
	}
	m := n.Length()
	if m < epsLength {
		return v3.Vec{Y: 1}
	}
	return n.DivScalar(m)
}

// PlaneOffset returns d such that normal·p + d == 0 for points on the
// loop's plane.
func (l Loop) PlaneOffset(normal v3.Vec) float64 {
	if len(l) == 0 {
		return 0
	}
	return -normal.Dot(l[0])
}

// Edges returns the cyclic edge list of the loop.
func (l Loop) Edges() []Edge {
	edges := make([]Edge, len(l))
	for i := range l {
		edges[i] = NewEdge(l[i], l[(i+1)%len(l)])
	}
	return edges
}

// Area returns the polygon area, half the magnitude of the summed cross
// products. Valid for planar loops regardless of orientation.
func (l Loop) Area() float64 {
	if len(l) < 3 {
		return 0
	}
	var n v3.Vec
	for i, c := range l {
		n = n.Add(c.Cross(l[(i+1)%len(l)]))
	}
	return n.Length() / 2
}

// Reverse flips the winding in place.
func (l Loop) Reverse() {
	for i, j := 0, len(l)-1; i < j; i, j = i+1, j-1 {
		l[i], l[j] = l[j], l[i]
	}
}

// Clone returns an independent copy of the loop.
func (l Loop) Clone() Loop {
	out := make(Loop, len(l))
	copy(out, l)
	return out
}

// Face is a keyed loop with its derived plane classification, ready for
// grouping and clustering.
type Face struct {
	Key    string
	Verts  Loop
	Normal v3.Vec
	D      float64 // plane offset: Normal·p + D == 0 on the plane
	Edges  []Edge
}

// NewFace classifies a keyed loop. The caller guarantees at least 3
// vertices.
func NewFace(key string, verts Loop) Face {
	n := verts.Normal()
	return Face{
		Key:    key,
		Verts:  verts,
		Normal: n,
		D:      verts.PlaneOffset(n),
		Edges:  verts.Edges(),
	}
}
