// Package merge implements the planar face merge engine: tolerance-based
// plane grouping, union-find adjacency clustering, boundary reconstruction
// and the fixed two-pass merge schedule. The engine works purely on
// in-memory records; file handling and key standardization live elsewhere.
package merge

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/chazu/facet/pkg/geom"
)

// Default tolerance triple. NormTol is a cosine budget (normals agree when
// their dot exceeds 1−NormTol), DistTol a plane-offset budget, PointTol a
// linear distance budget for collinearity, adjacency and coincidence.
const (
	DefaultNormTol  = 0.01
	DefaultDistTol  = 0.01
	DefaultPointTol = 0.001
)

// relaxedPointTol is the fixed point tolerance used during pass 2 of
// MergePlanes. Pass 1 merges exact neighbors; the relaxed pass catches
// fragments the exporter left slightly out of alignment.
const relaxedPointTol = 0.05

// Merger owns the tolerance triple and sequences the merge passes.
//
// PointTol is mutated and restored inside MergePlanes, so a Merger must
// not be shared between concurrent calls; give each goroutine its own
// instance. Faces and clusters are rebuilt from scratch per call, there is
// no other cross-call state.
type Merger struct {
	NormTol  float64
	DistTol  float64
	PointTol float64

	Log zerolog.Logger
}

// New returns a Merger with the given tolerances and a no-op logger.
func New(normTol, distTol, pointTol float64) *Merger {
	return &Merger{
		NormTol:  normTol,
		DistTol:  distTol,
		PointTol: pointTol,
		Log:      zerolog.Nop(),
	}
}

// NewDefault returns a Merger with the default tolerance triple.
func NewDefault() *Merger {
	return New(DefaultNormTol, DefaultDistTol, DefaultPointTol)
}

// MergePlanes merges adjacent coplanar faces into single polygons. It runs
// a fixed two-pass schedule: pass 1 at the configured point tolerance,
// pass 2 at a relaxed 0.05 which is restored afterwards. The schedule is
// deliberately not a convergence loop; it always stops after pass 2,
// early only when pass 2 changed nothing.
//
// Output records are re-keyed Plane_NNN. Key uniqueness is the only
// naming contract; callers rename to their own policy.
func (m *Merger) MergePlanes(faces []geom.KeyedLoop) []geom.KeyedLoop {
	current := faces
	originalTol := m.PointTol

	for pass := 1; pass <= 2; pass++ {
		in := len(current)
		m.Log.Info().Int("pass", pass).Int("faces", in).Msg("merge pass started")

		if pass == 2 {
			m.PointTol = relaxedPointTol
		}
		out := m.singlePass(current)
		if pass == 2 {
			m.PointTol = originalTol
		}

		m.Log.Info().Int("pass", pass).Int("faces", len(out)).Msg("merge pass completed")

		if pass == 2 && len(out) == in {
			return out
		}
		current = out
	}
	return current
}

// singlePass runs one full group → cluster → reconstruct pass over the
// records. A cluster whose reconstruction fails degrades to passthrough of
// its member faces; no record is ever dropped silently.
func (m *Merger) singlePass(records []geom.KeyedLoop) []geom.KeyedLoop {
	faces := make([]geom.Face, 0, len(records))
	for _, r := range records {
		if len(r.Verts) < 3 {
			m.Log.Warn().Str("key", r.Key).Int("vertices", len(r.Verts)).
				Msg("skipping record with fewer than 3 vertices")
			continue
		}
		faces = append(faces, geom.NewFace(r.Key, r.Verts))
	}

	out := make([]geom.KeyedLoop, 0, len(faces))
	idx := 1
	emit := func(verts geom.Loop) {
		out = append(out, geom.KeyedLoop{
			Key:   fmt.Sprintf("Plane_%03d", idx),
			Verts: verts,
		})
		idx++
	}

	for _, group := range m.groupByPlane(faces) {
		for _, cluster := range m.clusterByAdjacency(group) {
			polys := m.mergeCluster(cluster)
			if polys == nil {
				for _, f := range cluster {
					emit(f.Verts)
				}
				continue
			}
			for _, p := range polys {
				emit(p)
			}
		}
	}
	return out
}

// groupByPlane partitions faces into plane groups with a single greedy
// pass: each unvisited face seeds a group, and every later unvisited face
// whose normal and offset agree with the seed joins it.
//
// Grouping is seed-relative, not a global equivalence: a near-miss chain
// A~B~C lands A and C in one group without A and C agreeing directly.
// That asymmetry is deliberate; do not symmetrize it.
func (m *Merger) groupByPlane(faces []geom.Face) [][]geom.Face {
	groups := make([][]geom.Face, 0, len(faces))
	visited := make([]bool, len(faces))

	for i := range faces {
		if visited[i] {
			continue
		}
		grp := []geom.Face{faces[i]}
		visited[i] = true
		for j := i + 1; j < len(faces); j++ {
			if visited[j] {
				continue
			}
			dot := faces[i].Normal.Dot(faces[j].Normal)
			if dot > 1.0-m.NormTol && math.Abs(faces[i].D-faces[j].D) < m.DistTol {
				grp = append(grp, faces[j])
				visited[j] = true
			}
		}
		groups = append(groups, grp)
	}
	return groups
}
