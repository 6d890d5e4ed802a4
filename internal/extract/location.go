package extract

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/automata/internal/entity"
	"github.com/hazyhaar/automata/internal/markup"
)

const locationSidebar = "div.col-sm-4.col-md-3.col-md-push-9"

// ParseLocationDetail reads the description and the previous and next
// location names from a location page. The sidebar's first two list items
// read "Previous: X" and "Next: Y"; sentinel values mean absent.
func ParseLocationDetail(src string, aliases Aliases) (info, previous, next string, err error) {
	doc, err := markup.Parse(src)
	if err != nil {
		return "", "", "", err
	}
	if info, err = firstParagraph(doc, "location"); err != nil {
		return "", "", "", err
	}
	side := markup.First(doc, locationSidebar)
	if side == nil {
		return "", "", "", missing("location", locationSidebar)
	}
	items := markup.Select(side, "li")
	if len(items) < 2 {
		return "", "", "", missing("location", "sidebar li x2")
	}
	return info, afterColon(items[0], aliases), afterColon(items[1], aliases), nil
}

func afterColon(n *html.Node, aliases Aliases) string {
	t := markup.Text(n)
	if i := strings.LastIndexByte(t, ':'); i >= 0 {
		t = t[i+1:]
	}
	t = clean(t)
	if aliases.IsSentinel(t) {
		return ""
	}
	return t
}

// Locations extracts every location. Listing names and hrefs go through the
// location alias tables before detail pages are fetched.
func (e *Extractor) Locations(ctx context.Context) ([]entity.Location, error) {
	src, err := e.page(ctx, e.pageURL(e.src.Locations))
	if err != nil {
		return nil, err
	}
	entries, err := ParseListing(src, e.base,
		func(s string) string { return rename(e.aliases.LocationNames, s) },
		func(s string) string { return rename(e.aliases.LocationPaths, s) })
	if err != nil {
		return nil, fmt.Errorf("extract: locations: %w", err)
	}

	out := make([]entity.Location, 0, len(entries))
	for _, ent := range entries {
		detail, err := e.page(ctx, ent.URL)
		if err != nil {
			return nil, err
		}
		info, prev, next, err := ParseLocationDetail(detail, e.aliases)
		if err != nil {
			return nil, fmt.Errorf("extract: location %s: %w", ent.Name, err)
		}
		out = append(out, entity.Location{
			URL:      ent.URL,
			Name:     ent.Name,
			Info:     info,
			Previous: prev,
			Next:     next,
		})
	}
	e.logger.Info("extract: locations", "count", len(out))
	return out, nil
}

// firstParagraph returns the prose of the first p in the content block.
func firstParagraph(doc *html.Node, page string) (string, error) {
	block := markup.First(doc, contentBlock)
	if block == nil {
		return "", missing(page, contentBlock)
	}
	p := markup.First(block, "p")
	if p == nil {
		return "", missing(page, contentBlock+" p")
	}
	return prose(p), nil
}
