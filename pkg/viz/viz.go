// Package viz renders a face set as a colored SVG wireframe so merge
// results can be inspected by eye. Faces sharing an edge get distinct
// colors via greedy graph coloring.
package viz

import (
	"fmt"
	"io"
	"math"
	"sort"

	svg "github.com/ajstarks/svgo"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/facet/pkg/geom"
)

// Canvas dimensions. The projection is scaled to fit inside the margin.
const (
	canvasWidth  = 1000
	canvasHeight = 800
	canvasMargin = 40
)

// rainbowPalette is cycled through by the greedy coloring; gray is the
// overflow color when a face has neighbors of all seven.
var rainbowPalette = []string{
	"red", "orange", "yellow", "green", "blue", "indigo", "violet",
}

const overflowColor = "gray"

// isometric projection angle constants.
var (
	isoCos = math.Cos(math.Pi / 6)
	isoSin = math.Sin(math.Pi / 6)
)

// project maps a 3D point to 2D isometric coordinates.
func project(p v3.Vec) (u, v float64) {
	u = (p.X - p.Z) * isoCos
	v = p.Y + (p.X+p.Z)*isoSin
	return u, v
}

// Plot writes an SVG rendering of the faces. Faces with fewer than 3
// vertices are ignored.
func Plot(w io.Writer, faces []geom.KeyedLoop) error {
	drawable := faces[:0:0]
	for _, f := range faces {
		if len(f.Verts) >= 3 {
			drawable = append(drawable, f)
		}
	}

	canvas := svg.New(w)
	canvas.Start(canvasWidth, canvasHeight)
	defer canvas.End()

	if len(drawable) == 0 {
		return nil
	}

	minU, minV := math.Inf(1), math.Inf(1)
	maxU, maxV := math.Inf(-1), math.Inf(-1)
	for _, f := range drawable {
		for _, p := range f.Verts {
			u, v := project(p)
			minU, maxU = math.Min(minU, u), math.Max(maxU, u)
			minV, maxV = math.Min(minV, v), math.Max(maxV, v)
		}
	}

	scale := 1.0
	spanU, spanV := maxU-minU, maxV-minV
	if spanU > 0 || spanV > 0 {
		scale = math.Min(
			float64(canvasWidth-2*canvasMargin)/math.Max(spanU, 1e-12),
			float64(canvasHeight-2*canvasMargin)/math.Max(spanV, 1e-12),
		)
	}

	colors := assignColors(drawable)
	for _, f := range drawable {
		xs := make([]int, len(f.Verts))
		ys := make([]int, len(f.Verts))
		for i, p := range f.Verts {
			u, v := project(p)
			xs[i] = canvasMargin + int((u-minU)*scale)
			// SVG y grows downward.
			ys[i] = canvasHeight - canvasMargin - int((v-minV)*scale)
		}
		style := fmt.Sprintf(
			"fill:%s;fill-opacity:0.6;stroke:black;stroke-width:1",
			colors[f.Key],
		)
		canvas.Polygon(xs, ys, style)
	}
	return nil
}

// assignColors greedily colors the face adjacency graph, highest degree
// first, so that faces sharing an edge come out in different colors.
func assignColors(faces []geom.KeyedLoop) map[string]string {
	adj := adjacency(faces)

	order := make([]string, 0, len(faces))
	for _, f := range faces {
		order = append(order, f.Key)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return len(adj[order[i]]) > len(adj[order[j]])
	})

	colors := make(map[string]string, len(order))
	for _, key := range order {
		used := make(map[string]bool)
		for neighbor := range adj[key] {
			if c, ok := colors[neighbor]; ok {
				used[c] = true
			}
		}
		colors[key] = overflowColor
		for _, c := range rainbowPalette {
			if !used[c] {
				colors[key] = c
				break
			}
		}
	}
	return colors
}

// adjacency treats two faces as neighbors when they share at least two
// rounded vertices, i.e. an edge.
func adjacency(faces []geom.KeyedLoop) map[string]map[string]bool {
	sets := make([]map[geom.PointKey]bool, len(faces))
	for i, f := range faces {
		sets[i] = make(map[geom.PointKey]bool, len(f.Verts))
		for _, p := range f.Verts {
			sets[i][geom.Key(p)] = true
		}
	}

	adj := make(map[string]map[string]bool, len(faces))
	for _, f := range faces {
		adj[f.Key] = make(map[string]bool)
	}
	for i := range faces {
		for j := i + 1; j < len(faces); j++ {
			shared := 0
			for k := range sets[i] {
				if sets[j][k] {
					shared++
					if shared >= 2 {
						break
					}
				}
			}
			if shared >= 2 {
				adj[faces[i].Key][faces[j].Key] = true
				adj[faces[j].Key][faces[i].Key] = true
			}
		}
	}
	return adj
}
