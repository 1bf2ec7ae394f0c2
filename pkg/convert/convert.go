// Package convert standardizes raw exporter records before rendering: it
// rewrites the exporter's inconsistent keys into a canonical scheme, maps
// coordinates into renderer space, filters structurally unusable groups
// and applies per-group geometry optimization via the merge engine.
package convert

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/rs/zerolog"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/merge"
)

// Record is one top-level exporter value: either a face (vertex loop) or a
// container of named sub-faces (the Longi groups).
type Record struct {
	Verts geom.Loop        // face payload, nil for containers
	Subs  []geom.KeyedLoop // container payload, nil for faces
}

// IsContainer reports whether the record holds sub-faces rather than a
// loop of its own.
func (r Record) IsContainer() bool {
	return r.Subs != nil
}

// IsEmpty reports whether the record carries no geometry at all.
func (r Record) IsEmpty() bool {
	return len(r.Verts) == 0 && len(r.Subs) == 0
}

// Entry is a keyed record, the unit of batch input and output.
type Entry struct {
	Key string
	Rec Record
}

// Modifier performs the standardization pass. EnableMerge gates the plane
// merge over free-standing surface records; BackSide consolidation inside
// Longi groups always runs.
type Modifier struct {
	EnableMerge bool
	Merger      *merge.Merger
	Log         zerolog.Logger
}

// NewModifier builds a Modifier whose merge engine uses the given
// tolerance for both the normal and offset budgets and the default point
// tolerance.
func NewModifier(enableMerge bool, tolerance float64) *Modifier {
	return &Modifier{
		EnableMerge: enableMerge,
		Merger:      merge.New(tolerance, tolerance, merge.DefaultPointTol),
		Log:         zerolog.Nop(),
	}
}

// Process standardizes the entries. Valid records come back re-keyed and
// optimized; groups that fail validation come back separately so the
// caller can write them to a side channel instead of dropping them.
func (m *Modifier) Process(entries []Entry) (valid, deleted []Entry) {
	groups, planes := m.aggregate(entries)

	for _, g := range groups {
		if reason := validateGroup(g.subs); reason != "" {
			m.Log.Info().Str("key", g.key).Str("reason", reason).Msg("filtered longi group")
			deleted = append(deleted, Entry{Key: g.key, Rec: Record{Subs: g.subs}})
			continue
		}
		valid = append(valid, Entry{
			Key: g.key,
			Rec: Record{Subs: m.optimizeBackSide(g.key, g.subs)},
		})
	}

	valid = append(valid, m.processPlanes(planes)...)
	return valid, deleted
}

// processPlanes handles the free-standing surface records: merged through
// the plane engine when enabled, renamed to the canonical scheme
// otherwise. Container records among the candidates always pass through
// renamed; they carry no loop for the engine to merge.
func (m *Modifier) processPlanes(planes []Entry) []Entry {
	if len(planes) == 0 {
		return nil
	}

	if !m.EnableMerge {
		out := make([]Entry, 0, len(planes))
		for _, p := range planes {
			out = append(out, Entry{Key: renamePlaneKey(p.Key), Rec: p.Rec})
		}
		return out
	}

	var candidates []geom.KeyedLoop
	var containers []Entry
	for _, p := range planes {
		if p.Rec.IsContainer() {
			containers = append(containers, p)
			continue
		}
		candidates = append(candidates, geom.KeyedLoop{Key: p.Key, Verts: p.Rec.Verts})
	}

	m.Log.Info().Int("count", len(candidates)).Msg("merging plane group")
	var out []Entry
	used := make(map[string]bool)
	for _, kl := range m.Merger.MergePlanes(candidates) {
		out = append(out, Entry{Key: kl.Key, Rec: Record{Verts: kl.Verts}})
		used[kl.Key] = true
	}

	// Renamed container keys can land on the engine's Plane_NNN scheme;
	// key uniqueness is the output contract, so collisions get suffixed.
	for _, c := range containers {
		key := renamePlaneKey(c.Key)
		if used[key] {
			for n := 1; ; n++ {
				cand := fmt.Sprintf("%s_dup_%d", key, n)
				if !used[cand] {
					key = cand
					break
				}
			}
		}
		used[key] = true
		out = append(out, Entry{Key: key, Rec: c.Rec})
	}
	return out
}

// group is an aggregated Longi group under its canonical main key.
type group struct {
	key  string
	subs []geom.KeyedLoop
}

// aggregate transforms coordinates, groups Longi records under canonical
// main keys with standardized sub-keys, and collects everything else as
// plane candidates. Key collisions inside a group get a _dup_N suffix so
// no face is lost.
func (m *Modifier) aggregate(entries []Entry) ([]group, []Entry) {
	var groups []group
	index := make(map[string]int)
	var planes []Entry

	addSub := func(gi int, key string, verts geom.Loop) {
		subs := groups[gi].subs
		if containsKey(subs, key) {
			for n := 1; ; n++ {
				cand := fmt.Sprintf("%s_dup_%d", key, n)
				if !containsKey(subs, cand) {
					key = cand
					break
				}
			}
		}
		groups[gi].subs = append(subs, geom.KeyedLoop{Key: key, Verts: verts})
	}

	for _, e := range entries {
		if e.Rec.IsEmpty() {
			continue
		}
		rec := transformRecord(e.Rec)

		if strings.HasPrefix(e.Key, "Longi") {
			if sm := longiIDPattern.FindStringSubmatch(e.Key); sm != nil {
				n, _ := strconv.Atoi(sm[1])
				idxStr := fmt.Sprintf("%03d", n)
				mainKey := "Longi_" + idxStr

				gi, ok := index[mainKey]
				if !ok {
					gi = len(groups)
					index[mainKey] = gi
					groups = append(groups, group{key: mainKey})
				}

				if rec.IsContainer() {
					for _, sub := range rec.Subs {
						addSub(gi, standardSubKey(sub.Key, idxStr), sub.Verts)
					}
				} else {
					addSub(gi, standardSubKey(e.Key, idxStr), rec.Verts)
				}
				continue
			}
		}
		planes = append(planes, Entry{Key: e.Key, Rec: rec})
	}
	return groups, planes
}

func containsKey(subs []geom.KeyedLoop, key string) bool {
	for _, s := range subs {
		if s.Key == key {
			return true
		}
	}
	return false
}

// validateGroup returns a human-readable reason when a Longi group is
// structurally unusable: too many side faces (complex shape the renderer
// cannot handle) or missing its Bot/BackSide components. Empty means
// valid.
func validateGroup(subs []geom.KeyedLoop) string {
	right, left := 0, 0
	hasBot, hasBackSide := false, false
	for _, s := range subs {
		if strings.Contains(s.Key, "_Right_") {
			right++
		}
		if strings.Contains(s.Key, "_Left_") {
			left++
		}
		if strings.Contains(s.Key, "_Bot_") {
			hasBot = true
		}
		if strings.Contains(s.Key, "_BackSide_") {
			hasBackSide = true
		}
	}

	if right >= 3 || left >= 3 {
		return fmt.Sprintf("complex shape (right: %d, left: %d)", right, left)
	}

	var missing []string
	if !hasBot {
		missing = append(missing, "Bot")
	}
	if !hasBackSide {
		missing = append(missing, "BackSide")
	}
	if len(missing) > 0 {
		return "missing components (" + strings.Join(missing, ", ") + ")"
	}
	return ""
}

// optimizeBackSide consolidates the pure BackSide faces of a group (no
// Flange suffix) into one convex polygon. Runs regardless of EnableMerge;
// fragmented BackSides are the renderer's worst case. Fewer than two
// candidates leaves the group untouched.
func (m *Modifier) optimizeBackSide(mainKey string, subs []geom.KeyedLoop) []geom.KeyedLoop {
	var backsides, others []geom.KeyedLoop
	for _, s := range subs {
		if strings.Contains(s.Key, "_BackSide_") && !strings.Contains(s.Key, "_Flange") {
			backsides = append(backsides, s)
		} else {
			others = append(others, s)
		}
	}
	if len(backsides) < 2 {
		return subs
	}

	merged := m.Merger.MergeByConvexHull(backsides)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Key < merged[j].Key })

	idxStr := "000"
	if sm := trailingDigitsPattern.FindStringSubmatch(mainKey); sm != nil {
		idxStr = sm[1]
	}

	out := append([]geom.KeyedLoop{}, others...)
	for i, kl := range merged {
		out = append(out, geom.KeyedLoop{
			Key:   fmt.Sprintf("Longi_%s_BackSide_%03d", idxStr, i+1),
			Verts: kl.Verts,
		})
	}
	return out
}

// transformVec maps exporter coordinates into renderer space.
func transformVec(p v3.Vec) v3.Vec {
	return v3.Vec{X: -p.Y, Y: p.Z, Z: p.X}
}

func transformLoop(l geom.Loop) geom.Loop {
	out := make(geom.Loop, len(l))
	for i, p := range l {
		out[i] = transformVec(p)
	}
	return out
}

func transformRecord(r Record) Record {
	if r.IsContainer() {
		subs := make([]geom.KeyedLoop, len(r.Subs))
		for i, s := range r.Subs {
			subs[i] = geom.KeyedLoop{Key: s.Key, Verts: transformLoop(s.Verts)}
		}
		return Record{Subs: subs}
	}
	return Record{Verts: transformLoop(r.Verts)}
}
