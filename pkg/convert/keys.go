package convert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Key standardization. The exporter emits keys like "Longi_12_Right_2",
// "Longi_7_BackSide_1_Flange_UpSide" or "Standard_Surface_3" with no
// consistent casing, zero padding or suffix placement. Everything is
// rewritten into the canonical scheme the renderer expects.

var (
	longiIDPattern  = regexp.MustCompile(`Longi_.*?(\d+)`)
	partTypePattern = regexp.MustCompile(`(?i)_(Bot|Right|Left|BackSide|Flange)(?:_|$)`)
	// subIndexPattern parses the numeric sub-index strictly: it must sit
	// directly after the part type, optionally separated by ':' or '_'.
	// Keys like "..._321_junk" must not pick up unrelated digits.
	subIndexPattern       = regexp.MustCompile(`^[:_]?(\d+)(?:_|$)`)
	trailingDigitsPattern = regexp.MustCompile(`(\d+)$`)

	standardSurfacePattern  = regexp.MustCompile(`(?i)Standard_Surface_(\d+)`)
	stiffenerSurfacePattern = regexp.MustCompile(`(?i)Stiffener_Surface_(\d+)`)
	surfacePattern          = regexp.MustCompile(`(?i)Surface_(\d+)`)
)

// standardSubKey rewrites a raw sub-face key into the canonical
// Longi_<idx>_<Type>_<subidx> form, preserving the Flange/UpSide/DownSide
// suffixes the renderer keys off of.
func standardSubKey(rawKey, parentIdx string) string {
	searchStart := 0
	if loc := longiIDPattern.FindStringIndex(rawKey); loc != nil {
		searchStart = loc[1]
	}
	target := rawKey[searchStart:]

	partType := "Part"
	subIdx := "001"
	if loc := partTypePattern.FindStringSubmatchIndex(target); loc != nil {
		partType = target[loc[2]:loc[3]]
		post := target[loc[1]:]
		if sm := subIndexPattern.FindStringSubmatch(post); sm != nil {
			n, _ := strconv.Atoi(sm[1])
			subIdx = fmt.Sprintf("%03d", n)
		}
	}

	switch strings.ToLower(partType) {
	case "right":
		partType = "Right"
	case "left":
		partType = "Left"
	case "bot":
		partType = "Bot"
	case "backside":
		partType = "BackSide"
	}

	key := fmt.Sprintf("Longi_%s_%s_%s", parentIdx, partType, subIdx)

	lower := strings.ToLower(target)
	if strings.Contains(lower, "flange") && partType != "Flange" {
		key += "_Flange"
	}
	if strings.Contains(lower, "upside") {
		key += "_UpSide"
	} else if strings.Contains(lower, "downside") {
		key += "_DownSide"
	}
	return key
}

// renamePlaneKey rewrites a free-standing surface key into the canonical
// plane scheme. The patterns are tried from most to least specific; keys
// matching none pass through unchanged.
func renamePlaneKey(key string) string {
	if sm := standardSurfacePattern.FindStringSubmatch(key); sm != nil {
		n, _ := strconv.Atoi(sm[1])
		return fmt.Sprintf("Plane_Standard_%03d", n)
	}
	if sm := stiffenerSurfacePattern.FindStringSubmatch(key); sm != nil {
		n, _ := strconv.Atoi(sm[1])
		return fmt.Sprintf("Plane_Stiffener_%03d", n)
	}
	if sm := surfacePattern.FindStringSubmatch(key); sm != nil {
		n, _ := strconv.Atoi(sm[1])
		return fmt.Sprintf("Plane_%03d", n)
	}
	return key
}
