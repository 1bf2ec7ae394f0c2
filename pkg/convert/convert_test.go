package convert

import (
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/require"

	"github.com/chazu/facet/pkg/geom"
)

func TestTransformVec(t *testing.T) {
	got := transformVec(v3.Vec{X: 1, Y: 2, Z: 3})
	require.Equal(t, v3.Vec{X: -2, Y: 3, Z: 1}, got)
}

// squareXY returns a square in the exporter's z=0 plane; the coordinate
// transform maps it into the renderer's y=0 plane.
func squareXY(x0, y0, size float64) geom.Loop {
	return geom.Loop{
		{X: x0, Y: y0},
		{X: x0 + size, Y: y0},
		{X: x0 + size, Y: y0 + size},
		{X: x0, Y: y0 + size},
	}
}

func container(subs ...geom.KeyedLoop) Record {
	return Record{Subs: subs}
}

func TestProcessValidLongiGroup(t *testing.T) {
	m := NewModifier(false, 0.01)
	entries := []Entry{
		{Key: "Longi_1", Rec: container(
			geom.KeyedLoop{Key: "Longi_1_Bot_1", Verts: squareXY(0, 0, 1)},
			geom.KeyedLoop{Key: "Longi_1_BackSide_1", Verts: squareXY(10, 0, 2)},
			geom.KeyedLoop{Key: "Longi_1_BackSide_2", Verts: squareXY(11, 0, 2)},
		)},
	}

	valid, deleted := m.Process(entries)
	require.Empty(t, deleted)
	require.Len(t, valid, 1)
	require.Equal(t, "Longi_001", valid[0].Key)

	// The two pure BackSide fragments are consolidated into one convex
	// polygon keyed by the group index.
	subs := valid[0].Rec.Subs
	require.Len(t, subs, 2)
	require.Equal(t, "Longi_001_Bot_001", subs[0].Key)
	require.Equal(t, "Longi_001_BackSide_001", subs[1].Key)
	require.GreaterOrEqual(t, len(subs[1].Verts), 4)
}

func TestProcessFlangeExcludedFromBackSideMerge(t *testing.T) {
	m := NewModifier(false, 0.01)
	entries := []Entry{
		{Key: "Longi_2", Rec: container(
			geom.KeyedLoop{Key: "Longi_2_Bot_1", Verts: squareXY(0, 0, 1)},
			geom.KeyedLoop{Key: "Longi_2_BackSide_1", Verts: squareXY(10, 0, 2)},
			geom.KeyedLoop{Key: "Longi_2_BackSide_1_Flange", Verts: squareXY(20, 0, 1)},
		)},
	}

	valid, deleted := m.Process(entries)
	require.Empty(t, deleted)
	require.Len(t, valid, 1)

	// Only one pure BackSide: nothing to consolidate, group unchanged.
	subs := valid[0].Rec.Subs
	require.Len(t, subs, 3)
	for _, s := range subs {
		if strings.Contains(s.Key, "Flange") {
			require.Equal(t, "Longi_002_BackSide_001_Flange", s.Key)
		}
	}
}

func TestProcessFiltersComplexShape(t *testing.T) {
	m := NewModifier(false, 0.01)
	entries := []Entry{
		{Key: "Longi_3", Rec: container(
			geom.KeyedLoop{Key: "Longi_3_Bot_1", Verts: squareXY(0, 0, 1)},
			geom.KeyedLoop{Key: "Longi_3_BackSide_1", Verts: squareXY(5, 0, 1)},
			geom.KeyedLoop{Key: "Longi_3_Right_1", Verts: squareXY(1, 0, 1)},
			geom.KeyedLoop{Key: "Longi_3_Right_2", Verts: squareXY(2, 0, 1)},
			geom.KeyedLoop{Key: "Longi_3_Right_3", Verts: squareXY(3, 0, 1)},
		)},
	}

	valid, deleted := m.Process(entries)
	require.Empty(t, valid)
	require.Len(t, deleted, 1)
	require.Equal(t, "Longi_003", deleted[0].Key)
	// The filtered group keeps all its faces for the side-channel file.
	require.Len(t, deleted[0].Rec.Subs, 5)
}

func TestProcessFiltersMissingComponents(t *testing.T) {
	m := NewModifier(false, 0.01)
	entries := []Entry{
		{Key: "Longi_4", Rec: container(
			geom.KeyedLoop{Key: "Longi_4_Bot_1", Verts: squareXY(0, 0, 1)},
			geom.KeyedLoop{Key: "Longi_4_Right_1", Verts: squareXY(1, 0, 1)},
		)},
	}

	valid, deleted := m.Process(entries)
	require.Empty(t, valid)
	require.Len(t, deleted, 1)
}

func TestProcessDuplicateSubKeys(t *testing.T) {
	m := NewModifier(false, 0.01)
	// Both raw keys standardize to Longi_005_Bot_001.
	entries := []Entry{
		{Key: "Longi_5", Rec: container(
			geom.KeyedLoop{Key: "Longi_5_Bot_1", Verts: squareXY(0, 0, 1)},
			geom.KeyedLoop{Key: "Longi_5_bot_1", Verts: squareXY(2, 0, 1)},
			geom.KeyedLoop{Key: "Longi_5_BackSide_1", Verts: squareXY(5, 0, 1)},
		)},
	}

	valid, deleted := m.Process(entries)
	require.Empty(t, deleted)
	require.Len(t, valid, 1)

	keys := make([]string, 0, 3)
	for _, s := range valid[0].Rec.Subs {
		keys = append(keys, s.Key)
	}
	require.Contains(t, keys, "Longi_005_Bot_001")
	require.Contains(t, keys, "Longi_005_Bot_001_dup_1")
}

func TestProcessRenamesPlanesWithoutMerge(t *testing.T) {
	m := NewModifier(false, 0.01)
	entries := []Entry{
		{Key: "Standard_Surface_2", Rec: Record{Verts: squareXY(0, 0, 1)}},
		{Key: "Stiffener_Surface_9", Rec: Record{Verts: squareXY(5, 0, 1)}},
	}

	valid, deleted := m.Process(entries)
	require.Empty(t, deleted)
	require.Len(t, valid, 2)
	require.Equal(t, "Plane_Standard_002", valid[0].Key)
	require.Equal(t, "Plane_Stiffener_009", valid[1].Key)

	// Coordinates are mapped into renderer space.
	require.Equal(t, v3.Vec{X: 0, Y: 0, Z: 0}, valid[0].Rec.Verts[0])
	require.Equal(t, v3.Vec{X: 0, Y: 0, Z: 1}, valid[0].Rec.Verts[1])
}

func TestProcessMergesPlanesWhenEnabled(t *testing.T) {
	m := NewModifier(true, 0.03)
	entries := []Entry{
		{Key: "Surface_1", Rec: Record{Verts: squareXY(0, 0, 1)}},
		{Key: "Surface_2", Rec: Record{Verts: squareXY(1, 0, 1)}},
	}

	valid, deleted := m.Process(entries)
	require.Empty(t, deleted)
	require.Len(t, valid, 1)
	require.Equal(t, "Plane_001", valid[0].Key)
	require.InDelta(t, 2, valid[0].Rec.Verts.Area(), 1e-9)
}

func TestProcessMergeKeepsContainerKeysUnique(t *testing.T) {
	// Two disjoint surfaces come out of the engine as Plane_001 and
	// Plane_002; the renamed container would also be Plane_002 and must be
	// suffixed instead of shadowing it.
	m := NewModifier(true, 0.03)
	entries := []Entry{
		{Key: "Surface_1", Rec: Record{Verts: squareXY(0, 0, 1)}},
		{Key: "Surface_3", Rec: Record{Verts: squareXY(5, 0, 1)}},
		{Key: "Surface_2", Rec: container(
			geom.KeyedLoop{Key: "Deck_1", Verts: squareXY(10, 0, 1)},
		)},
	}

	valid, deleted := m.Process(entries)
	require.Empty(t, deleted)
	require.Len(t, valid, 3)

	seen := make(map[string]bool)
	for _, e := range valid {
		require.False(t, seen[e.Key], "duplicate key %s", e.Key)
		seen[e.Key] = true
	}
	require.True(t, seen["Plane_001"])
	require.True(t, seen["Plane_002"])
	require.True(t, seen["Plane_002_dup_1"])
}

func TestProcessSkipsEmptyRecords(t *testing.T) {
	m := NewModifier(false, 0.01)
	valid, deleted := m.Process([]Entry{{Key: "Empty_1", Rec: Record{}}})
	require.Empty(t, valid)
	require.Empty(t, deleted)
}

func TestValidateGroupReasons(t *testing.T) {
	ok := []geom.KeyedLoop{
		{Key: "Longi_001_Bot_001"}, {Key: "Longi_001_BackSide_001"},
	}
	require.Empty(t, validateGroup(ok))

	missing := []geom.KeyedLoop{{Key: "Longi_001_Bot_001"}}
	require.Contains(t, validateGroup(missing), "BackSide")

	complexShape := []geom.KeyedLoop{
		{Key: "Longi_001_Bot_001"}, {Key: "Longi_001_BackSide_001"},
		{Key: "Longi_001_Left_001"}, {Key: "Longi_001_Left_002"}, {Key: "Longi_001_Left_003"},
	}
	require.Contains(t, validateGroup(complexShape), "complex shape")
}
