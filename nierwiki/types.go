package nierwiki

import "github.com/hazyhaar/automata/internal/store"

// Re-exported store types so callers need not import internal packages.
type (
	CharacterFilter = store.CharacterFilter
	LocationFilter  = store.LocationFilter
	QuestFilter     = store.QuestFilter
	CatchableFilter = store.CatchableFilter

	CharacterRow = store.CharacterRow
	LocationRow  = store.LocationRow
	QuestRow     = store.QuestRow
	CatchableRow = store.CatchableRow

	StatKind = store.StatKind
	StatRow  = store.StatRow
	Kind     = store.Kind
	Image    = store.Image
	Counts   = store.Counts
	Run      = store.Run
)

// Stat kinds.
const (
	QuestsPerLocation         = store.QuestsPerLocation
	CatchableKindsPerLocation = store.CatchableKindsPerLocation
	AvgPricePerLocation       = store.AvgPricePerLocation
	LocationsPerCatchable     = store.LocationsPerCatchable
	QuestsPerCharacter        = store.QuestsPerCharacter
)

// Entity kinds.
const (
	KindCharacter = store.KindCharacter
	KindLocation  = store.KindLocation
	KindQuest     = store.KindQuest
	KindCatchable = store.KindCatchable
)

// StatKinds lists the stats in menu order.
var StatKinds = store.StatKinds

// ParseStatKind accepts a stat name or its 1-based menu position.
func ParseStatKind(s string) (StatKind, error) { return store.ParseStatKind(s) }

// ParseKind accepts an entity kind name.
func ParseKind(s string) (Kind, error) { return store.ParseKind(s) }
