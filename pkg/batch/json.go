package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/facet/pkg/convert"
	"github.com/chazu/facet/pkg/geom"
)

// vertex is the exporter's wire form of a 3D point.
type vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// LoadEntries reads one exporter JSON file into keyed records. Top-level
// keys are taken in sorted order: plane grouping downstream is
// order-sensitive and Go maps would randomize it.
func LoadEntries(path string) ([]convert.Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	keys := sortedKeys(top)
	entries := make([]convert.Entry, 0, len(keys))
	for _, k := range keys {
		rec, ok := parseRecord(top[k])
		if !ok {
			continue
		}
		entries = append(entries, convert.Entry{Key: k, Rec: rec})
	}
	return entries, nil
}

// parseRecord decodes a top-level value. An object with Vertex_* keys is a
// face; any other object is treated as a container whose sub-objects with
// Vertex_* keys become sub-faces. Values that yield no geometry report ok
// as false.
func parseRecord(raw json.RawMessage) (convert.Record, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || len(obj) == 0 {
		return convert.Record{}, false
	}

	if hasVertexKeys(obj) {
		return convert.Record{Verts: parseLoop(obj)}, true
	}

	var subs []geom.KeyedLoop
	for _, k := range sortedKeys(obj) {
		var subObj map[string]json.RawMessage
		if err := json.Unmarshal(obj[k], &subObj); err != nil {
			continue
		}
		if !hasVertexKeys(subObj) {
			continue
		}
		subs = append(subs, geom.KeyedLoop{Key: k, Verts: parseLoop(subObj)})
	}
	if subs == nil {
		return convert.Record{}, false
	}
	return convert.Record{Subs: subs}, true
}

func hasVertexKeys(obj map[string]json.RawMessage) bool {
	for k := range obj {
		if strings.Contains(strings.ToLower(k), "vertex") {
			return true
		}
	}
	return false
}

// parseLoop extracts the vertex loop from a face object, taking the
// Vertex_* keys in sorted order. Malformed vertices are skipped.
func parseLoop(obj map[string]json.RawMessage) geom.Loop {
	var keys []string
	for k := range obj {
		if strings.Contains(strings.ToLower(k), "vertex") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	loop := make(geom.Loop, 0, len(keys))
	for _, k := range keys {
		var v vertex
		if err := json.Unmarshal(obj[k], &v); err != nil {
			continue
		}
		loop = append(loop, v3.Vec{X: v.X, Y: v.Y, Z: v.Z})
	}
	return loop
}

// WriteEntries writes processed records as renderer-ready JSON under a
// top-level "result" key.
func WriteEntries(path string, entries []convert.Entry) error {
	result := make(map[string]any, len(entries))
	for _, e := range entries {
		if e.Rec.IsContainer() {
			sub := make(map[string]any, len(e.Rec.Subs))
			for _, s := range e.Rec.Subs {
				sub[s.Key] = loopObject(s.Verts)
			}
			result[e.Key] = sub
			continue
		}
		result[e.Key] = loopObject(e.Rec.Verts)
	}

	data, err := json.MarshalIndent(map[string]any{"result": result}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func loopObject(l geom.Loop) map[string]vertex {
	out := make(map[string]vertex, len(l))
	for i, p := range l {
		out[fmt.Sprintf("Vertex_%03d", i+1)] = vertex{X: p.X, Y: p.Y, Z: p.Z}
	}
	return out
}

// Flatten collects every renderable face from the entries: top-level faces
// under their own key, container sub-faces under the sub-key. Loops with
// fewer than 3 vertices are skipped.
func Flatten(entries []convert.Entry) []geom.KeyedLoop {
	var faces []geom.KeyedLoop
	for _, e := range entries {
		if e.Rec.IsContainer() {
			for _, s := range e.Rec.Subs {
				if len(s.Verts) >= 3 {
					faces = append(faces, s)
				}
			}
			continue
		}
		if len(e.Rec.Verts) >= 3 {
			faces = append(faces, geom.KeyedLoop{Key: e.Key, Verts: e.Rec.Verts})
		}
	}
	return faces
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
