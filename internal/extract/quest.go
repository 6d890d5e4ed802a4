package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/automata/internal/entity"
	"github.com/hazyhaar/automata/internal/markup"
)

// dataRows returns the rows of table that hold td cells, with their cells.
// Header rows made only of th are skipped.
func dataRows(table *html.Node) [][]*html.Node {
	var out [][]*html.Node
	for _, tr := range markup.Select(table, "tr") {
		cells := markup.Select(tr, "td")
		if len(cells) == 0 {
			continue
		}
		out = append(out, cells)
	}
	return out
}

// nameAndURL reads the quest or item name and the href of the first link.
func nameAndURL(cell *html.Node, base *url.URL, page string) (string, string, error) {
	a := markup.First(cell, "a[href]")
	if a == nil {
		return "", "", missing(page, "a[href] in "+strings.TrimSpace(markup.Text(cell)))
	}
	return cellText(cell), resolve(base, markup.Attr(a, "href")), nil
}

// ParseMainQuests reads the main quest page. Its first two wiki tables have
// name, giver, location and reward columns; the third lists name and
// location only.
func ParseMainQuests(src string, base *url.URL, aliases Aliases) ([]entity.Quest, error) {
	doc, err := markup.Parse(src)
	if err != nil {
		return nil, err
	}
	tables := markup.Select(doc, "table.wiki_table")
	if len(tables) < 3 {
		return nil, missing("main quests", fmt.Sprintf("3 wiki tables, found %d", len(tables)))
	}

	var out []entity.Quest
	for ti, table := range tables[:2] {
		for ri, cells := range dataRows(table) {
			if len(cells) < 4 {
				return nil, fmt.Errorf("%w: main quests table %d row %d: %d cells, want 4",
					ErrMalformedCell, ti+1, ri+1, len(cells))
			}
			name, u, err := nameAndURL(cells[0], base, "main quests")
			if err != nil {
				return nil, err
			}
			reward := clean(markup.Text(cells[3]))
			if aliases.IsSentinel(reward) {
				reward = ""
			}
			out = append(out, entity.Quest{
				URL:          u,
				Name:         name,
				Giver:        aliases.optional(aliases.MainGivers, cellText(cells[1])),
				LocationText: rename(aliases.MainLocations, cellText(cells[2])),
				Reward:       reward,
				Category:     entity.Main,
			})
		}
	}

	for ri, cells := range dataRows(tables[2]) {
		if len(cells) < 2 {
			return nil, fmt.Errorf("%w: main quests table 3 row %d: %d cells, want 2",
				ErrMalformedCell, ri+1, len(cells))
		}
		name, u, err := nameAndURL(cells[0], base, "main quests")
		if err != nil {
			return nil, err
		}
		out = append(out, entity.Quest{
			URL:          u,
			Name:         name,
			LocationText: rename(aliases.MainLocations, cellText(cells[1])),
			Category:     entity.Main,
		})
	}
	return out, nil
}

// ParseSideQuests reads the sortable side quest table. Its second column
// reads "location: giver".
func ParseSideQuests(src string, base *url.URL, aliases Aliases) ([]entity.Quest, error) {
	doc, err := markup.Parse(src)
	if err != nil {
		return nil, err
	}
	table := markup.First(doc, "table.wiki_table.sortable")
	if table == nil {
		return nil, missing("side quests", "table.wiki_table.sortable")
	}

	var out []entity.Quest
	for ri, cells := range dataRows(table) {
		if len(cells) < 3 {
			return nil, fmt.Errorf("%w: side quests row %d: %d cells, want 3",
				ErrMalformedCell, ri+1, len(cells))
		}
		name, u, err := nameAndURL(cells[0], base, "side quests")
		if err != nil {
			return nil, err
		}
		where := markup.Text(cells[1])
		// The giver keeps everything after the first colon.
		loc, giver, ok := strings.Cut(where, ":")
		if !ok {
			return nil, fmt.Errorf("%w: side quest %q: %q has no \"location: giver\"",
				ErrMalformedCell, name, strings.TrimSpace(where))
		}
		reward := joinLines(markup.Text(cells[2]))
		if aliases.IsSentinel(reward) {
			reward = ""
		}
		out = append(out, entity.Quest{
			URL:          u,
			Name:         name,
			Giver:        aliases.optional(aliases.SideGivers, giver),
			LocationText: rename(aliases.SideLocations, strings.TrimSpace(loc)),
			Reward:       reward,
			Category:     entity.Side,
		})
	}
	return out, nil
}

// MainQuests extracts the main story quests.
func (e *Extractor) MainQuests(ctx context.Context) ([]entity.Quest, error) {
	src, err := e.page(ctx, e.pageURL(e.src.MainQuests))
	if err != nil {
		return nil, err
	}
	out, err := ParseMainQuests(src, e.base, e.aliases)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	e.logger.Info("extract: main quests", "count", len(out))
	return out, nil
}

// SideQuests extracts the side quests.
func (e *Extractor) SideQuests(ctx context.Context) ([]entity.Quest, error) {
	src, err := e.page(ctx, e.pageURL(e.src.SideQuests))
	if err != nil {
		return nil, err
	}
	out, err := ParseSideQuests(src, e.base, e.aliases)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	e.logger.Info("extract: side quests", "count", len(out))
	return out, nil
}
