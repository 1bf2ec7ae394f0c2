package merge

import (
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/hull"
)

// MergeByConvexHull consolidates a bag of roughly coplanar fragments into
// a single convex polygon bounding all their vertices, via a best-fit
// plane. It is single-shot and independent of the MergePlanes schedule.
//
// Any failure — fewer than 3 vertices, a degenerate plane fit, a
// collapsed hull — passes the inputs through unchanged.
func (m *Merger) MergeByConvexHull(faces []geom.KeyedLoop) []geom.KeyedLoop {
	var points []v3.Vec
	for _, f := range faces {
		points = append(points, f.Verts...)
	}

	verts, err := hull.Consolidate(points)
	if err != nil {
		m.Log.Warn().Err(err).Msg("convex hull merge failed, keeping original faces")
		return faces
	}

	return []geom.KeyedLoop{{Key: "Merged_BackSide", Verts: verts}}
}
