package convert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStandardSubKey(t *testing.T) {
	tests := []struct {
		name      string
		rawKey    string
		parentIdx string
		want      string
	}{
		{"basic right", "Longi_12_Right_2", "012", "Longi_012_Right_002"},
		{"basic backside", "Longi_12_BackSide_1", "012", "Longi_012_BackSide_001"},
		{"type at end", "Longi_9_Bot", "009", "Longi_009_Bot_001"},
		{"lowercase type", "Longi_2_backside_3", "002", "Longi_002_BackSide_003"},
		{"no part type", "Longi_5_Web", "005", "Longi_005_Part_001"},
		{
			"flange and upside suffixes preserved",
			"Longi_7_BackSide_001_Flange_UpSide", "007",
			"Longi_007_BackSide_001_Flange_UpSide",
		},
		{
			"downside suffix preserved",
			"Longi_4_Bot_2_DownSide", "004",
			"Longi_004_Bot_002_DownSide",
		},
		{
			"stray trailing digits are not an index",
			"Longi_3_Left_abc_321", "003",
			"Longi_003_Left_001",
		},
		{
			"index directly after type",
			"Longi_3_Left_321_tail", "003",
			"Longi_003_Left_321",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, standardSubKey(tc.rawKey, tc.parentIdx))
		})
	}
}

func TestRenamePlaneKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"Standard_Surface_7", "Plane_Standard_007"},
		{"standard_surface_7", "Plane_Standard_007"},
		{"Stiffener_Surface_12", "Plane_Stiffener_012"},
		{"Surface_3", "Plane_003"},
		{"Hull_Surface_41", "Plane_041"},
		{"Deck_1", "Deck_1"}, // no pattern: pass through
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			require.Equal(t, tc.want, renamePlaneKey(tc.key))
		})
	}
}
