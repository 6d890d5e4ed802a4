package extract

import "strings"

// Aliases rewrites raw wiki strings onto canonical names. A mapping to the
// empty string means the value is absent. Every table is applied to the
// trimmed raw value by exact match.
type Aliases struct {
	// Sentinels are placeholder values meaning "absent", compared
	// case-insensitively.
	Sentinels []string `yaml:"sentinels"`

	LocationNames map[string]string `yaml:"location_names"`
	LocationPaths map[string]string `yaml:"location_paths"`

	MainGivers    map[string]string `yaml:"main_givers"`
	MainLocations map[string]string `yaml:"main_locations"`
	SideGivers    map[string]string `yaml:"side_givers"`
	SideLocations map[string]string `yaml:"side_locations"`
}

// DefaultAliases returns the alias tables matching the live wiki.
func DefaultAliases() Aliases {
	return Aliases{
		Sentinels: []string{"", "??", "n/a", "nothing", "none"},
		LocationNames: map[string]string{
			"Battle Arena (DLC)": "Battle Arena",
			"Bunker":             "The Bunker",
		},
		LocationPaths: map[string]string{
			"/Battle+Arena+(DLC)": "/Battle+Arena",
		},
		MainGivers: map[string]string{
			"Default": "",
			"Command": "Commander",
		},
		MainLocations: map[string]string{
			"Resistance Camp Inbox": "Resistance Camp",
		},
		SideGivers: map[string]string{
			"Jean-Paul":          "Sartre",
			"Operator 60":        "Operator 6O",
			"Operator 210":       "Operator 21O",
			"High-speed Machine": "High-Speed Machine",
			"Devola":             "Devola & Popola",
			"Popola":             "Devola & Popola",
		},
		SideLocations: map[string]string{
			"City Ruins (Forest Camp)": "City Ruins",
		},
	}
}

// Merge returns a copy of a with the entries of o added or overriding.
// A non-nil o.Sentinels replaces the sentinel list.
func (a Aliases) Merge(o Aliases) Aliases {
	out := Aliases{
		Sentinels:     append([]string(nil), a.Sentinels...),
		LocationNames: mergeMap(a.LocationNames, o.LocationNames),
		LocationPaths: mergeMap(a.LocationPaths, o.LocationPaths),
		MainGivers:    mergeMap(a.MainGivers, o.MainGivers),
		MainLocations: mergeMap(a.MainLocations, o.MainLocations),
		SideGivers:    mergeMap(a.SideGivers, o.SideGivers),
		SideLocations: mergeMap(a.SideLocations, o.SideLocations),
	}
	if o.Sentinels != nil {
		out.Sentinels = append([]string(nil), o.Sentinels...)
	}
	return out
}

// IsSentinel reports whether s is a placeholder for "absent".
func (a Aliases) IsSentinel(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range a.Sentinels {
		if s == strings.ToLower(strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}

// optional maps sentinels to "" and applies table. The result is "" when
// the value is absent.
func (a Aliases) optional(table map[string]string, s string) string {
	s = strings.TrimSpace(s)
	if a.IsSentinel(s) {
		return ""
	}
	if v, ok := table[s]; ok {
		return v
	}
	return s
}

// rename applies table without sentinel handling.
func rename(table map[string]string, s string) string {
	if v, ok := table[s]; ok {
		return v
	}
	return s
}

func mergeMap(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
