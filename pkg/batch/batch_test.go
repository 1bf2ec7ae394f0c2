package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chazu/facet/pkg/convert"
	"github.com/chazu/facet/pkg/geom"
)

// sampleInput holds a valid Longi group, one missing its BackSide, and a
// free-standing surface. Coordinates are in exporter space.
const sampleInput = `{
  "Longi_1": {
    "Longi_1_Bot_1": {
      "Vertex_001": {"x": 0, "y": 0, "z": 0},
      "Vertex_002": {"x": 1, "y": 0, "z": 0},
      "Vertex_003": {"x": 1, "y": 1, "z": 0},
      "Vertex_004": {"x": 0, "y": 1, "z": 0}
    },
    "Longi_1_BackSide_1": {
      "Vertex_001": {"x": 5, "y": 0, "z": 0},
      "Vertex_002": {"x": 6, "y": 0, "z": 0},
      "Vertex_003": {"x": 6, "y": 1, "z": 0},
      "Vertex_004": {"x": 5, "y": 1, "z": 0}
    }
  },
  "Longi_2": {
    "Longi_2_Bot_1": {
      "Vertex_001": {"x": 0, "y": 0, "z": 0},
      "Vertex_002": {"x": 1, "y": 0, "z": 0},
      "Vertex_003": {"x": 1, "y": 1, "z": 0}
    }
  },
  "Surface_1": {
    "Vertex_001": {"x": 0, "y": 0, "z": 0},
    "Vertex_002": {"x": 2, "y": 0, "z": 0},
    "Vertex_003": {"x": 2, "y": 2, "z": 0},
    "Vertex_004": {"x": 0, "y": 2, "z": 0}
  }
}`

func writeInputFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEntries(t *testing.T) {
	dir := t.TempDir()
	path := writeInputFile(t, dir, "sample.json", sampleInput)

	entries, err := LoadEntries(path)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Top-level keys come back in sorted order.
	require.Equal(t, "Longi_1", entries[0].Key)
	require.Equal(t, "Longi_2", entries[1].Key)
	require.Equal(t, "Surface_1", entries[2].Key)

	require.True(t, entries[0].Rec.IsContainer())
	require.Len(t, entries[0].Rec.Subs, 2)
	require.Len(t, entries[0].Rec.Subs[0].Verts, 4)

	require.False(t, entries[2].Rec.IsContainer())
	require.Len(t, entries[2].Rec.Verts, 4)
}

func TestLoadEntriesSkipsNonGeometry(t *testing.T) {
	dir := t.TempDir()
	path := writeInputFile(t, dir, "mixed.json", `{
  "Meta": 42,
  "Notes": {"author": "exporter"},
  "Surface_1": {
    "Vertex_001": {"x": 0, "y": 0, "z": 0},
    "Vertex_002": {"x": 1, "y": 0, "z": 0},
    "Vertex_003": {"x": 1, "y": 1, "z": 0}
  }
}`)

	entries, err := LoadEntries(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Surface_1", entries[0].Key)
}

func TestLoadEntriesRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeInputFile(t, dir, "bad.json", `{not json`)
	_, err := LoadEntries(path)
	require.Error(t, err)
}

func TestRunEndToEnd(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	writeInputFile(t, inDir, "part.json", sampleInput)

	p := NewProcessor(inDir, outDir, false, 0.03)
	p.RenderSVG = true
	require.NoError(t, p.Run())

	// Valid output: the standardized group and the renamed plane.
	outPath := filepath.Join(outDir, "part_Unity.json")
	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var doc struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Contains(t, doc.Result, "Longi_001")
	require.Contains(t, doc.Result, "Plane_001")
	require.NotContains(t, doc.Result, "Longi_002")

	var grp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc.Result["Longi_001"], &grp))
	require.Contains(t, grp, "Longi_001_Bot_001")
	require.Contains(t, grp, "Longi_001_BackSide_001")

	// The filtered group lands in the side file, not the void.
	delRaw, err := os.ReadFile(filepath.Join(outDir, "part_Unity_Deleted.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(delRaw, &doc))
	require.Contains(t, doc.Result, "Longi_002")

	svgRaw, err := os.ReadFile(filepath.Join(outDir, "part_Unity.svg"))
	require.NoError(t, err)
	require.Contains(t, string(svgRaw), "<svg")
}

func TestRunEmptyInputDir(t *testing.T) {
	p := NewProcessor(t.TempDir(), t.TempDir(), false, 0.03)
	require.NoError(t, p.Run())
}

func TestRunSkipsUnreadableFile(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	writeInputFile(t, inDir, "bad.json", `{broken`)
	writeInputFile(t, inDir, "good.json", sampleInput)

	p := NewProcessor(inDir, outDir, false, 0.03)
	require.NoError(t, p.Run())

	_, err := os.Stat(filepath.Join(outDir, "good_Unity.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "bad_Unity.json"))
	require.True(t, os.IsNotExist(err))
}

func TestWriteEntriesVertexKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	entries := []convert.Entry{
		{Key: "Plane_001", Rec: convert.Record{Verts: geom.Loop{
			{X: 0.5, Y: 1.5, Z: 2.5}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0},
		}}},
	}
	require.NoError(t, WriteEntries(path, entries))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Result map[string]map[string]vertex `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	face := doc.Result["Plane_001"]
	require.Len(t, face, 3)
	require.Equal(t, vertex{X: 0.5, Y: 1.5, Z: 2.5}, face["Vertex_001"])
}

func TestFlatten(t *testing.T) {
	entries := []convert.Entry{
		{Key: "Longi_001", Rec: convert.Record{Subs: []geom.KeyedLoop{
			{Key: "Longi_001_Bot_001", Verts: geom.Loop{{}, {X: 1}, {X: 1, Y: 1}}},
			{Key: "Longi_001_Stub", Verts: geom.Loop{{}, {X: 1}}},
		}}},
		{Key: "Plane_001", Rec: convert.Record{Verts: geom.Loop{{}, {X: 1}, {Y: 1}}}},
	}

	faces := Flatten(entries)
	require.Len(t, faces, 2)
	require.Equal(t, "Longi_001_Bot_001", faces[0].Key)
	require.Equal(t, "Plane_001", faces[1].Key)
}
