package extract

import (
	"net/url"

	"golang.org/x/net/html"

	"github.com/hazyhaar/automata/internal/markup"
)

const (
	contentBlock = "#wiki-content-block"
	listingName  = `h3[style="text-align: center;"] a`
)

// ListingEntry is one tile of a character or location gallery page.
type ListingEntry struct {
	Name     string
	URL      string
	ImageURL string // empty when the tile has no image
}

// ParseListing reads the gallery tiles of a listing page: every
// div.col-sm-4 of every div.row in the content block. Entries sharing a
// name collapse onto the first position with the last URL and image seen.
// rename and renamePath are applied to names and hrefs before resolution.
func ParseListing(src string, base *url.URL, rename func(string) string, renamePath func(string) string) ([]ListingEntry, error) {
	doc, err := markup.Parse(src)
	if err != nil {
		return nil, err
	}
	block := markup.First(doc, contentBlock)
	if block == nil {
		return nil, missing("listing", contentBlock)
	}
	rows := markup.Select(block, "div.row")
	if len(rows) == 0 {
		return nil, missing("listing", "div.row")
	}

	var entries []ListingEntry
	index := make(map[string]int)
	for _, row := range rows {
		for _, col := range markup.Select(row, "div.col-sm-4") {
			e, err := parseTile(col, base, rename, renamePath)
			if err != nil {
				return nil, err
			}
			if i, ok := index[e.Name]; ok {
				entries[i].URL = e.URL
				if e.ImageURL != "" {
					entries[i].ImageURL = e.ImageURL
				}
				continue
			}
			index[e.Name] = len(entries)
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func parseTile(col *html.Node, base *url.URL, rename, renamePath func(string) string) (ListingEntry, error) {
	link := markup.First(col, listingName)
	if link == nil {
		return ListingEntry{}, missing("listing tile", listingName)
	}
	href := markup.Attr(link, "href")
	if href == "" {
		return ListingEntry{}, missing("listing tile", "a[href]")
	}
	name := cellText(link)
	if rename != nil {
		name = rename(name)
	}
	if renamePath != nil {
		href = renamePath(href)
	}

	e := ListingEntry{Name: name, URL: resolve(base, href)}
	if img := markup.First(col, "img[src]"); img != nil {
		e.ImageURL = resolve(base, markup.Attr(img, "src"))
	}
	return e, nil
}
