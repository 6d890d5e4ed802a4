package extract

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hazyhaar/automata/internal/entity"
	"github.com/hazyhaar/automata/internal/markup"
)

// CatchableRow is one row of the fishing table before its image is stored.
type CatchableRow struct {
	Name         string
	URL          string
	ImageURL     string
	Price        int
	LocationText string
}

// ParseCatchables reads the first wiki table of the fishing page: image and
// links, price, locations. The name is the text of the last link in the
// first cell, the URL the href of its first link. The price is the last
// paragraph of the second cell.
func ParseCatchables(src string, base *url.URL) ([]CatchableRow, error) {
	doc, err := markup.Parse(src)
	if err != nil {
		return nil, err
	}
	table := markup.First(doc, "table.wiki_table")
	if table == nil {
		return nil, missing("catchables", "table.wiki_table")
	}

	var out []CatchableRow
	for ri, cells := range dataRows(table) {
		if len(cells) < 3 {
			return nil, fmt.Errorf("%w: catchables row %d: %d cells, want 3",
				ErrMalformedCell, ri+1, len(cells))
		}
		img := markup.First(cells[0], "img[src]")
		if img == nil {
			return nil, missing("catchables", fmt.Sprintf("row %d img[src]", ri+1))
		}
		links := markup.Select(cells[0], "a")
		if len(links) == 0 || !markup.HasAttr(links[0], "href") {
			return nil, missing("catchables", fmt.Sprintf("row %d a[href]", ri+1))
		}
		name := cellText(links[len(links)-1])

		priceNode := cells[1]
		if ps := markup.Select(cells[1], "p"); len(ps) > 0 {
			priceNode = ps[len(ps)-1]
		}
		price, err := ParsePrice(markup.Text(priceNode))
		if err != nil {
			return nil, fmt.Errorf("extract: catchable %q: %w", name, err)
		}

		out = append(out, CatchableRow{
			Name:         name,
			URL:          resolve(base, markup.Attr(links[0], "href")),
			ImageURL:     resolve(base, markup.Attr(img, "src")),
			Price:        price,
			LocationText: joinLines(markup.Text(cells[2])),
		})
	}
	return out, nil
}

// Catchables extracts every catchable and stores its image.
func (e *Extractor) Catchables(ctx context.Context) ([]entity.Catchable, error) {
	src, err := e.page(ctx, e.pageURL(e.src.Catchables))
	if err != nil {
		return nil, err
	}
	rows, err := ParseCatchables(src, e.base)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	out := make([]entity.Catchable, 0, len(rows))
	for _, r := range rows {
		h, err := e.assets.Materialize(ctx, r.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("extract: catchable %s: %w", r.Name, err)
		}
		out = append(out, entity.Catchable{
			URL:          r.URL,
			Name:         r.Name,
			LocationText: r.LocationText,
			Image:        h,
			Price:        r.Price,
		})
	}
	e.logger.Info("extract: catchables", "count", len(out))
	return out, nil
}
