package store

import (
	"context"
	"fmt"
	"strings"
)

// StatKind names an aggregate over the store.
type StatKind string

const (
	QuestsPerLocation         StatKind = "quests-per-location"
	CatchableKindsPerLocation StatKind = "catchable-kinds-per-location"
	AvgPricePerLocation       StatKind = "avg-price-per-location"
	LocationsPerCatchable     StatKind = "locations-per-catchable"
	QuestsPerCharacter        StatKind = "quests-per-character"
)

// StatKinds lists the stats in menu order.
var StatKinds = []StatKind{
	QuestsPerLocation,
	CatchableKindsPerLocation,
	AvgPricePerLocation,
	LocationsPerCatchable,
	QuestsPerCharacter,
}

var statLabels = map[StatKind]string{
	QuestsPerLocation:         "Location - Number of Quests",
	CatchableKindsPerLocation: "Location - Kinds of Catchables",
	AvgPricePerLocation:       "Location - Average Catchable Price",
	LocationsPerCatchable:     "Catchable - Number of Locations",
	QuestsPerCharacter:        "Character - Number of Quests",
}

// Label is the human description of the stat.
func (k StatKind) Label() string { return statLabels[k] }

// ParseStatKind accepts a stat name or its 1-based position in StatKinds.
func ParseStatKind(s string) (StatKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, k := range StatKinds {
		if s == string(k) || s == fmt.Sprint(i+1) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: stat %q", ErrUnknownKind, s)
}

// Every query groups by id so two names differing only in case never merge.
var statQueries = map[StatKind]string{
	QuestsPerLocation: `
		SELECT l.name, COUNT(*) FROM locations l
		JOIN quests q ON q.location_id = l.id
		GROUP BY l.id ORDER BY 2 DESC, l.name`,
	CatchableKindsPerLocation: `
		SELECT l.name, COUNT(*) FROM locations l
		JOIN catchable_locations cl ON cl.location_id = l.id
		GROUP BY l.id ORDER BY 2 DESC, l.name`,
	AvgPricePerLocation: `
		SELECT l.name, AVG(c.price) FROM locations l
		JOIN catchable_locations cl ON cl.location_id = l.id
		JOIN catchables c ON c.id = cl.catchable_id
		GROUP BY l.id ORDER BY 2 DESC, l.name`,
	LocationsPerCatchable: `
		SELECT c.name, COUNT(*) FROM catchables c
		JOIN catchable_locations cl ON cl.catchable_id = c.id
		GROUP BY c.id ORDER BY 2 DESC, c.name`,
	QuestsPerCharacter: `
		SELECT ch.name, COUNT(*) FROM characters ch
		JOIN quests q ON q.giver_id = ch.id
		GROUP BY ch.id ORDER BY 2 DESC, ch.name`,
}

// StatRow is one (label, value) pair of a stat.
type StatRow struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Stat computes kind, ordered by value descending then label.
func (s *Store) Stat(ctx context.Context, kind StatKind) ([]StatRow, error) {
	q, ok := statQueries[kind]
	if !ok {
		return nil, fmt.Errorf("%w: stat %q", ErrUnknownKind, string(kind))
	}
	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: stat %s: %w", kind, err)
	}
	defer rows.Close()

	var out []StatRow
	for rows.Next() {
		var r StatRow
		if err := rows.Scan(&r.Label, &r.Value); err != nil {
			return nil, fmt.Errorf("store: stat %s: %w", kind, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
