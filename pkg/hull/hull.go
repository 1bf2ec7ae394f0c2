// Package hull collapses a scattered 3D point cloud onto its best-fit
// plane and returns the convex outline of the projected points, lifted
// back into 3D. It is the consolidation backend for merging fragments
// that are near-coplanar but share no edges.
package hull

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	sf "github.com/peterstace/simplefeatures/geom"
	"gonum.org/v1/gonum/mat"

	"github.com/chazu/facet/pkg/geom"
)

// ErrTooFewPoints is returned when fewer than 3 points are supplied.
var ErrTooFewPoints = errors.New("hull: need at least 3 points")

// Consolidate fits a plane to the points, projects them onto it, computes
// their 2D convex hull and lifts the hull vertices back to 3D. The hull's
// own vertex order defines the output winding; it is not normalized
// against the fitted normal.
func Consolidate(points []v3.Vec) (geom.Loop, error) {
	if len(points) < 3 {
		return nil, ErrTooFewPoints
	}

	var centroid v3.Vec
	for _, p := range points {
		centroid = centroid.Add(p)
	}
	centroid = centroid.DivScalar(float64(len(points)))

	centered := make([]v3.Vec, len(points))
	for i, p := range points {
		centered[i] = p.Sub(centroid)
	}

	normal := fitNormal(centered)
	xAxis, yAxis := planeBasis(normal)

	coords := make([]float64, 0, 2*len(centered))
	for _, p := range centered {
		coords = append(coords, p.Dot(xAxis), p.Dot(yAxis))
	}

	ring, err := convexHull2D(coords)
	if err != nil {
		return nil, err
	}

	out := make(geom.Loop, len(ring))
	for i, uv := range ring {
		out[i] = centroid.Add(xAxis.MulScalar(uv[0])).Add(yAxis.MulScalar(uv[1]))
	}
	return out, nil
}

// fitNormal computes the best-fit plane normal of a centered point set:
// the right-singular vector of the smallest singular value. Factorization
// failure falls back to (0,0,1).
func fitNormal(centered []v3.Vec) v3.Vec {
	data := make([]float64, 0, 3*len(centered))
	for _, p := range centered {
		data = append(data, p.X, p.Y, p.Z)
	}

	var svd mat.SVD
	if !svd.Factorize(mat.NewDense(len(centered), 3, data), mat.SVDThin) {
		return v3.Vec{Z: 1}
	}

	var v mat.Dense
	svd.VTo(&v)
	// Singular values come out descending, so the last column of V spans
	// the direction of least variance.
	return v3.Vec{X: v.At(0, 2), Y: v.At(1, 2), Z: v.At(2, 2)}
}

// planeBasis builds an orthonormal in-plane basis for the given unit
// normal. The arbitrary seed axis avoids near-parallelism to the normal;
// a secondary fallback covers the case where the cross product still
// comes out near zero.
func planeBasis(normal v3.Vec) (x, y v3.Vec) {
	arb := v3.Vec{X: 1}
	if math.Abs(normal.X) >= 0.9 {
		arb = v3.Vec{Y: 1}
	}

	x = normal.Cross(arb)
	if x.Length() < 1e-6 {
		if math.Abs(normal.Z) < 0.9 {
			x = v3.Vec{Y: 1}
		} else {
			x = v3.Vec{X: 1}
		}
	} else {
		x = x.Normalize()
	}
	y = normal.Cross(x)
	return x, y
}

// convexHull2D computes the convex outline of a flat (x0,y0,x1,y1,...)
// coordinate slice. A degenerate cloud — all points collinear or
// coincident — yields a non-polygon hull and is reported as an error.
func convexHull2D(coords []float64) ([][2]float64, error) {
	h := sf.NewMultiPointXY(coords...).AsGeometry().ConvexHull()
	if h.Type() != sf.TypePolygon {
		return nil, fmt.Errorf("hull: degenerate point cloud (hull is %s)", h.Type())
	}

	ring := h.MustAsPolygon().ExteriorRing().Coordinates()
	n := ring.Length()
	if n > 0 {
		n-- // the ring is closed, drop the repeated first vertex
	}
	out := make([][2]float64, n)
	for i := 0; i < n; i++ {
		xy := ring.GetXY(i)
		out[i] = [2]float64{xy.X, xy.Y}
	}
	return out, nil
}
