package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hazyhaar/automata/dbopen"
	"github.com/hazyhaar/automata/internal/assemble"
	"github.com/hazyhaar/automata/internal/entity"
)

// Table names as reported in LoadReport.
const (
	TableCharacters         = "characters"
	TableLocations          = "locations"
	TableQuests             = "quests"
	TableCatchables         = "catchables"
	TableCatchableLocations = "catchable_locations"
)

// Images reads the bytes of a materialized asset by handle.
// *asset.Materializer satisfies it.
type Images interface {
	Read(handle string) ([]byte, error)
}

// LoadReport counts, per table, the rows written and the rows skipped
// because their name or URL was already present.
type LoadReport struct {
	Inserted map[string]int `json:"inserted"`
	Skipped  map[string]int `json:"skipped"`
}

func newLoadReport() *LoadReport {
	return &LoadReport{Inserted: map[string]int{}, Skipped: map[string]int{}}
}

// TotalInserted sums Inserted over all tables.
func (r *LoadReport) TotalInserted() int { return sum(r.Inserted) }

// TotalSkipped sums Skipped over all tables.
func (r *LoadReport) TotalSkipped() int { return sum(r.Skipped) }

func sum(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

func (r *LoadReport) count(table string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		r.Inserted[table]++
	} else {
		r.Skipped[table]++
	}
	return nil
}

// Load writes an assembled result in a single transaction. Every row is
// INSERT OR IGNORE, so loading the same result twice inserts nothing the
// second time. images may be nil, in which case no image bytes are stored.
func (s *Store) Load(ctx context.Context, res *assemble.Result, images Images) (*LoadReport, error) {
	var rep *LoadReport
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		rep = newLoadReport()
		l := &loader{ctx: ctx, tx: tx, rep: rep, images: images}
		return l.run(res)
	})
	if err != nil {
		return nil, fmt.Errorf("store: load: %w", err)
	}
	return rep, nil
}

type loader struct {
	ctx    context.Context
	tx     *sql.Tx
	rep    *LoadReport
	images Images
}

func (l *loader) run(res *assemble.Result) error {
	for _, c := range res.Characters {
		img, err := l.image(c.Image)
		if err != nil {
			return err
		}
		r, err := l.tx.ExecContext(l.ctx, `
			INSERT OR IGNORE INTO characters (name, name_key, url, info, gender, image_name, image)
			VALUES (?,?,?,?,?,?,?)`,
			c.Name, entity.Key(c.Name), nullStr(c.URL), nullStr(c.Info), nullStr(string(c.Gender)), nullStr(c.Image), nullBytes(img),
		)
		if err != nil {
			return fmt.Errorf("character %q: %w", c.Name, err)
		}
		if err := l.rep.count(TableCharacters, r); err != nil {
			return err
		}
	}

	for _, loc := range res.Locations {
		r, err := l.tx.ExecContext(l.ctx, `
			INSERT OR IGNORE INTO locations (name, name_key, url, info, previous, next)
			VALUES (?,?,?,?,?,?)`,
			loc.Name, entity.Key(loc.Name), nullStr(loc.URL), nullStr(loc.Info), nullStr(loc.Previous), nullStr(loc.Next),
		)
		if err != nil {
			return fmt.Errorf("location %q: %w", loc.Name, err)
		}
		if err := l.rep.count(TableLocations, r); err != nil {
			return err
		}
	}

	for _, q := range res.Quests {
		var giverID, locID sql.NullInt64
		if q.GiverRef != "" {
			id, err := l.idOf(TableCharacters, q.GiverRef)
			if err != nil {
				return err
			}
			giverID = id
		}
		if q.Location.Resolved {
			id, err := l.idOf(TableLocations, q.Location.Name)
			if err != nil {
				return err
			}
			locID = id
		}
		unresolved := 0
		if !locID.Valid {
			unresolved = 1
		}
		r, err := l.tx.ExecContext(l.ctx, `
			INSERT OR IGNORE INTO quests (name, name_key, url, giver, giver_id, location_id, location_text, unresolved, reward, category)
			VALUES (?,?,?,?,?,?,?,?,?,?)`,
			q.Name, entity.Key(q.Name), nullStr(q.URL), nullStr(q.Giver), giverID, locID, q.LocationText, unresolved,
			nullStr(q.Reward), string(q.Category),
		)
		if err != nil {
			return fmt.Errorf("quest %q: %w", q.Name, err)
		}
		if err := l.rep.count(TableQuests, r); err != nil {
			return err
		}
	}

	for _, c := range res.Catchables {
		img, err := l.image(c.Image)
		if err != nil {
			return err
		}
		r, err := l.tx.ExecContext(l.ctx, `
			INSERT OR IGNORE INTO catchables (name, name_key, url, location_text, price, image_name, image)
			VALUES (?,?,?,?,?,?,?)`,
			c.Name, entity.Key(c.Name), nullStr(c.URL), nullStr(c.LocationText), c.Price, nullStr(c.Image), nullBytes(img),
		)
		if err != nil {
			return fmt.Errorf("catchable %q: %w", c.Name, err)
		}
		if err := l.rep.count(TableCatchables, r); err != nil {
			return err
		}
	}

	for _, c := range res.Catchables {
		if len(c.Locations) == 0 {
			continue
		}
		cid, err := l.idOf(TableCatchables, c.Name)
		if err != nil {
			return err
		}
		for _, name := range c.Locations {
			lid, err := l.idOf(TableLocations, name)
			if err != nil {
				return err
			}
			if !cid.Valid || !lid.Valid {
				continue
			}
			r, err := l.tx.ExecContext(l.ctx, `
				INSERT OR IGNORE INTO catchable_locations (catchable_id, location_id) VALUES (?,?)`,
				cid.Int64, lid.Int64,
			)
			if err != nil {
				return fmt.Errorf("link %q -> %q: %w", c.Name, name, err)
			}
			if err := l.rep.count(TableCatchableLocations, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *loader) image(handle string) ([]byte, error) {
	if handle == "" || l.images == nil {
		return nil, nil
	}
	b, err := l.images.Read(handle)
	if err != nil {
		return nil, fmt.Errorf("image %q: %w", handle, err)
	}
	return b, nil
}

// idOf finds a row id by folded name, so a name that lost a
// case-insensitive conflict resolves to the row that won it.
func (l *loader) idOf(table, name string) (sql.NullInt64, error) {
	var id sql.NullInt64
	err := l.tx.QueryRowContext(l.ctx, `SELECT id FROM `+table+` WHERE name_key = ?`, entity.Key(name)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return sql.NullInt64{}, nil
	}
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("lookup %s %q: %w", table, name, err)
	}
	return id, nil
}
