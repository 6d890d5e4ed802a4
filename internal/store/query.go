package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hazyhaar/automata/internal/entity"
)

// ErrUnknownKind is returned for an entity or stat kind the store does not know.
var ErrUnknownKind = errors.New("store: unknown kind")

// Kind names one of the entity tables.
type Kind string

const (
	KindCharacter Kind = "character"
	KindLocation  Kind = "location"
	KindQuest     Kind = "quest"
	KindCatchable Kind = "catchable"
)

func (k Kind) table() (string, error) {
	switch k {
	case KindCharacter:
		return TableCharacters, nil
	case KindLocation:
		return TableLocations, nil
	case KindQuest:
		return TableQuests, nil
	case KindCatchable:
		return TableCatchables, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
}

// ParseKind accepts a kind name in any case. "npc" and "fish" are accepted
// as the names the wiki uses.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "character", "characters", "npc", "npcs":
		return KindCharacter, nil
	case "location", "locations":
		return KindLocation, nil
	case "quest", "quests":
		return KindQuest, nil
	case "catchable", "catchables", "fish", "fishes":
		return KindCatchable, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// CharacterRow is a character as returned by Characters.
type CharacterRow struct {
	Name      string        `json:"name"`
	URL       string        `json:"url,omitempty"`
	Info      string        `json:"info,omitempty"`
	Gender    entity.Gender `json:"gender,omitempty"`
	ImageName string        `json:"image_name,omitempty"`
}

// LocationRow is a location as returned by Locations.
type LocationRow struct {
	Name     string `json:"name"`
	URL      string `json:"url,omitempty"`
	Info     string `json:"info,omitempty"`
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
}

// QuestRow is a quest as returned by Quests. Location is the resolved
// location name, or the raw location text when Unresolved.
type QuestRow struct {
	Name       string          `json:"name"`
	URL        string          `json:"url,omitempty"`
	Giver      string          `json:"giver,omitempty"`
	Location   string          `json:"location"`
	Unresolved bool            `json:"unresolved,omitempty"`
	Reward     string          `json:"reward,omitempty"`
	Category   entity.Category `json:"category"`
}

// CatchableRow is a catchable as returned by Catchables.
type CatchableRow struct {
	Name      string   `json:"name"`
	URL       string   `json:"url,omitempty"`
	Location  string   `json:"location,omitempty"`
	Price     int      `json:"price"`
	ImageName string   `json:"image_name,omitempty"`
	Locations []string `json:"locations,omitempty"`
}

// CharacterFilter selects characters. Zero value selects all.
type CharacterFilter struct {
	NameLike string `json:"name_like,omitempty"`
	// QuestCategory keeps characters giving at least one quest of that category.
	QuestCategory entity.Category `json:"quest_category,omitempty"`
}

// LocationFilter selects locations. Quest and Catchable are exact names.
type LocationFilter struct {
	NameLike  string `json:"name_like,omitempty"`
	Quest     string `json:"quest,omitempty"`
	Catchable string `json:"catchable,omitempty"`
}

// QuestFilter selects quests. NoGiver and NoReward select the rows where
// the field is absent and take precedence over the matching *Like field.
type QuestFilter struct {
	NameLike     string          `json:"name_like,omitempty"`
	GiverLike    string          `json:"giver_like,omitempty"`
	NoGiver      bool            `json:"no_giver,omitempty"`
	LocationLike string          `json:"location_like,omitempty"`
	RewardLike   string          `json:"reward_like,omitempty"`
	NoReward     bool            `json:"no_reward,omitempty"`
	Category     entity.Category `json:"category,omitempty"`
}

// CatchableFilter selects catchables. MinPrice, when set, keeps prices >= it.
type CatchableFilter struct {
	NameLike     string `json:"name_like,omitempty"`
	LocationLike string `json:"location_like,omitempty"`
	MinPrice     *int   `json:"min_price,omitempty"`
}

// where accumulates AND-ed conditions and their arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// like adds a case-insensitive substring match on col.
func (w *where) like(col, s string) {
	if s = strings.TrimSpace(s); s != "" {
		w.add(col+` LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(s)+"%")
	}
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// Characters lists characters matching f in insertion order.
func (s *Store) Characters(ctx context.Context, f CharacterFilter) ([]CharacterRow, error) {
	q := `SELECT DISTINCT c.id, c.name, c.url, c.info, c.gender, c.image_name FROM characters c`
	var w where
	if f.QuestCategory != "" {
		q += ` JOIN quests q ON q.giver_id = c.id`
		w.add("q.category = ?", string(f.QuestCategory))
	}
	w.like("c.name", f.NameLike)

	rows, err := s.DB.QueryContext(ctx, q+w.String()+` ORDER BY c.id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("store: characters: %w", err)
	}
	defer rows.Close()

	var out []CharacterRow
	for rows.Next() {
		var (
			id                         int64
			r                          CharacterRow
			url, info, gender, imgName sql.NullString
		)
		if err := rows.Scan(&id, &r.Name, &url, &info, &gender, &imgName); err != nil {
			return nil, fmt.Errorf("store: characters: %w", err)
		}
		r.URL, r.Info, r.Gender, r.ImageName = url.String, info.String, entity.Gender(gender.String), imgName.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// Locations lists locations matching f in insertion order.
func (s *Store) Locations(ctx context.Context, f LocationFilter) ([]LocationRow, error) {
	q := `SELECT DISTINCT l.id, l.name, l.url, l.info, l.previous, l.next FROM locations l`
	var w where
	if f.Quest != "" {
		q += ` JOIN quests q ON q.location_id = l.id`
		w.add("q.name_key = ?", entity.Key(f.Quest))
	}
	if f.Catchable != "" {
		q += ` JOIN catchable_locations cl ON cl.location_id = l.id JOIN catchables ca ON ca.id = cl.catchable_id`
		w.add("ca.name_key = ?", entity.Key(f.Catchable))
	}
	w.like("l.name", f.NameLike)

	rows, err := s.DB.QueryContext(ctx, q+w.String()+` ORDER BY l.id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("store: locations: %w", err)
	}
	defer rows.Close()

	var out []LocationRow
	for rows.Next() {
		var (
			id                    int64
			r                     LocationRow
			url, info, prev, next sql.NullString
		)
		if err := rows.Scan(&id, &r.Name, &url, &info, &prev, &next); err != nil {
			return nil, fmt.Errorf("store: locations: %w", err)
		}
		r.URL, r.Info, r.Previous, r.Next = url.String, info.String, prev.String, next.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// Quests lists quests matching f in insertion order. Unresolved quests are
// included with their raw location text.
func (s *Store) Quests(ctx context.Context, f QuestFilter) ([]QuestRow, error) {
	const loc = `COALESCE(l.name, q.location_text)`
	q := `SELECT q.name, q.url, q.giver, ` + loc + `, q.unresolved, q.reward, q.category
		FROM quests q LEFT JOIN locations l ON l.id = q.location_id`
	var w where
	w.like("q.name", f.NameLike)
	if f.NoGiver {
		w.add("q.giver IS NULL")
	} else {
		w.like("q.giver", f.GiverLike)
	}
	w.like(loc, f.LocationLike)
	if f.NoReward {
		w.add("q.reward IS NULL")
	} else {
		w.like("q.reward", f.RewardLike)
	}
	if f.Category != "" {
		w.add("q.category = ?", string(f.Category))
	}

	rows, err := s.DB.QueryContext(ctx, q+w.String()+` ORDER BY q.id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("store: quests: %w", err)
	}
	defer rows.Close()

	var out []QuestRow
	for rows.Next() {
		var (
			r                  QuestRow
			url, giver, reward sql.NullString
			category           string
		)
		if err := rows.Scan(&r.Name, &url, &giver, &r.Location, &r.Unresolved, &reward, &category); err != nil {
			return nil, fmt.Errorf("store: quests: %w", err)
		}
		r.URL, r.Giver, r.Reward, r.Category = url.String, giver.String, reward.String, entity.Category(category)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Catchables lists catchables matching f in insertion order, each with the
// names of its linked locations.
func (s *Store) Catchables(ctx context.Context, f CatchableFilter) ([]CatchableRow, error) {
	var w where
	w.like("c.name", f.NameLike)
	w.like("c.location_text", f.LocationLike)
	if f.MinPrice != nil {
		w.add("c.price >= ?", *f.MinPrice)
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT c.id, c.name, c.url, c.location_text, c.price, c.image_name
		FROM catchables c`+w.String()+` ORDER BY c.id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("store: catchables: %w", err)
	}
	var (
		out []CatchableRow
		ids []int64
	)
	for rows.Next() {
		var (
			id                int64
			r                 CatchableRow
			url, loc, imgName sql.NullString
		)
		if err := rows.Scan(&id, &r.Name, &url, &loc, &r.Price, &imgName); err != nil {
			rows.Close()
			return nil, fmt.Errorf("store: catchables: %w", err)
		}
		r.URL, r.Location, r.ImageName = url.String, loc.String, imgName.String
		out = append(out, r)
		ids = append(ids, id)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("store: catchables: %w", err)
	}

	// One connection: the links are read once the first cursor is closed.
	links, err := s.catchableLinks(ctx)
	if err != nil {
		return nil, err
	}
	for i, id := range ids {
		out[i].Locations = links[id]
	}
	return out, nil
}

func (s *Store) catchableLinks(ctx context.Context) (map[int64][]string, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT cl.catchable_id, l.name FROM catchable_locations cl
		JOIN locations l ON l.id = cl.location_id
		ORDER BY cl.catchable_id, l.id`)
	if err != nil {
		return nil, fmt.Errorf("store: catchable links: %w", err)
	}
	defer rows.Close()

	links := make(map[int64][]string)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("store: catchable links: %w", err)
		}
		links[id] = append(links[id], name)
	}
	return links, rows.Err()
}

// Names returns every name of kind in insertion order.
func (s *Store) Names(ctx context.Context, kind Kind) ([]string, error) {
	table, err := kind.table()
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT name FROM `+table+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: names: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("store: names: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Image is a stored picture of a character or catchable.
type Image struct {
	Name   string `json:"name"`
	Handle string `json:"handle"`
	Data   []byte `json:"-"`
}

// Images returns the images of the characters or catchables whose name
// contains nameLike.
func (s *Store) Images(ctx context.Context, kind Kind, nameLike string) ([]Image, error) {
	if kind != KindCharacter && kind != KindCatchable {
		return nil, fmt.Errorf("%w: no images for %q", ErrUnknownKind, string(kind))
	}
	table, _ := kind.table()
	var w where
	w.add("image_name IS NOT NULL")
	w.like("name", nameLike)

	rows, err := s.DB.QueryContext(ctx, `SELECT name, image_name, image FROM `+table+w.String()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("store: images: %w", err)
	}
	defer rows.Close()

	var out []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.Name, &img.Handle, &img.Data); err != nil {
			return nil, fmt.Errorf("store: images: %w", err)
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// Counts is the number of rows per table.
type Counts struct {
	Characters int `json:"characters"`
	Locations  int `json:"locations"`
	Quests     int `json:"quests"`
	Catchables int `json:"catchables"`
	Links      int `json:"catchable_locations"`
	Unresolved int `json:"unresolved_quests"`
}

// Counts returns the row counts of every table.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM characters),
			(SELECT COUNT(*) FROM locations),
			(SELECT COUNT(*) FROM quests),
			(SELECT COUNT(*) FROM catchables),
			(SELECT COUNT(*) FROM catchable_locations),
			(SELECT COUNT(*) FROM quests WHERE unresolved = 1)`).Scan(
		&c.Characters, &c.Locations, &c.Quests, &c.Catchables, &c.Links, &c.Unresolved,
	)
	if err != nil {
		return Counts{}, fmt.Errorf("store: counts: %w", err)
	}
	return c, nil
}
