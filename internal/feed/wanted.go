package feed

import "strings"

// wantedEntity is one row of the embedded most-wanted table.
type wantedEntity struct {
	rank   int
	entity string
}

// mostWanted maps DXCC callsign prefixes to their most-wanted rank.
// The table is a static snapshot; ranks move slowly enough that a
// release-time copy is adequate for alerting bands.
var mostWanted = map[string]wantedEntity{
	"P5":    {1, "DPRK (North Korea)"},
	"3Y/B":  {2, "Bouvet Island"},
	"FT5/W": {3, "Crozet Island"},
	"BS7":   {4, "Scarborough Reef"},
	"CE0X":  {5, "San Felix Islands"},
	"BV9P":  {6, "Pratas Island"},
	"KH7K":  {7, "Kure Island"},
	"KH3":   {8, "Johnston Island"},
	"3Y/P":  {9, "Peter 1 Island"},
	"FT5/X": {10, "Kerguelen Island"},
	"FT/G":  {11, "Glorioso Island"},
	"VK0M":  {12, "Macquarie Island"},
	"YV0":   {13, "Aves Island"},
	"KH4":   {14, "Midway Island"},
	"ZS8":   {15, "Prince Edward & Marion"},
	"PY0S":  {16, "St Peter & St Paul"},
	"PY0T":  {17, "Trindade & Martim Vaz"},
	"KP5":   {18, "Desecheo Island"},
	"VP8S":  {19, "South Sandwich Islands"},
	"KH5":   {20, "Palmyra & Jarvis"},
	"E3":    {21, "Eritrea"},
	"YK":    {22, "Syria"},
	"FR/J":  {23, "Juan de Nova, Europa"},
	"T31":   {24, "Central Kiribati"},
	"FK/C":  {25, "Chesterfield Islands"},
	"EZ":    {26, "Turkmenistan"},
	"JD/M":  {27, "Minami Torishima"},
	"CY9":   {28, "St Paul Island"},
	"SV/A":  {29, "Mount Athos"},
	"FT5/Z": {30, "Amsterdam & St Paul"},
	"CY0":   {31, "Sable Island"},
	"VP8G":  {32, "South Georgia Island"},
	"KH1":   {33, "Baker & Howland Islands"},
	"5A":    {34, "Libya"},
	"T33":   {35, "Banaba Island"},
	"VK9W":  {36, "Willis Island"},
	"VU4":   {37, "Andaman & Nicobar"},
	"TN":    {38, "Congo"},
	"VK0H":  {39, "Heard Island"},
	"7O":    {40, "Yemen"},
	"KP1":   {41, "Navassa Island"},
	"VP8O":  {42, "South Orkney Islands"},
	"3X":    {43, "Guinea"},
	"TT":    {44, "Chad"},
	"3C":    {45, "Equatorial Guinea"},
	"3C0":   {46, "Annobon Island"},
	"YA":    {47, "Afghanistan"},
	"XZ":    {48, "Myanmar"},
	"D6":    {49, "Comoros"},
	"T5":    {50, "Somalia"},
}

// wantedByPrefix is mostWanted with slash notation flattened so plain
// prefix matching works ("FT5/W" matches calls starting FT5W).
var wantedByPrefix = func() map[string]wantedEntity {
	m := make(map[string]wantedEntity, len(mostWanted))
	for k, v := range mostWanted {
		m[strings.ReplaceAll(k, "/", "")] = v
	}
	return m
}()

// matchWanted resolves a callsign against the most-wanted table using
// longest-prefix match. Compound calls (P5/DL1ABC, DL1ABC/P5) are
// checked segment by segment; the best (lowest) rank wins.
func matchWanted(callsign string) (rank int, entity string, ok bool) {
	call := strings.ToUpper(strings.TrimSpace(callsign))
	if call == "" {
		return 0, "", false
	}

	for _, segment := range strings.Split(call, "/") {
		if r, e, found := matchSegment(segment); found {
			if !ok || r < rank {
				rank, entity, ok = r, e, true
			}
		}
	}
	return rank, entity, ok
}

func matchSegment(segment string) (int, string, bool) {
	bestLen := 0
	var best wantedEntity
	for prefix, w := range wantedByPrefix {
		if strings.HasPrefix(segment, prefix) && len(prefix) > bestLen {
			bestLen = len(prefix)
			best = w
		}
	}
	if bestLen == 0 {
		return 0, "", false
	}
	return best.rank, best.entity, true
}
