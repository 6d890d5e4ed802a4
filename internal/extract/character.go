package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/hazyhaar/automata/internal/entity"
	"github.com/hazyhaar/automata/internal/markup"
)

// ParseCharacterDetail reads gender and description from a character page.
// Gender comes from the first wiki_table: "Male" wins over "Female"; neither
// means unknown.
func ParseCharacterDetail(src string) (entity.Gender, string, error) {
	doc, err := markup.Parse(src)
	if err != nil {
		return "", "", err
	}
	table := markup.First(doc, "table.wiki_table")
	if table == nil {
		return "", "", missing("character", "table.wiki_table")
	}
	gender := entity.Unknown
	switch t := markup.Text(table); {
	case strings.Contains(t, "Male"):
		gender = entity.Male
	case strings.Contains(t, "Female"):
		gender = entity.Female
	}

	info, err := firstParagraph(doc, "character")
	if err != nil {
		return "", "", err
	}
	return gender, info, nil
}

// Characters extracts every character: the listing first, so every portrait
// is stored and every detail URL known, then one detail page per character.
func (e *Extractor) Characters(ctx context.Context) ([]entity.Character, error) {
	src, err := e.page(ctx, e.pageURL(e.src.Characters))
	if err != nil {
		return nil, err
	}
	entries, err := ParseListing(src, e.base, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("extract: characters: %w", err)
	}

	images := make(map[string]string, len(entries))
	for _, ent := range entries {
		if ent.ImageURL == "" {
			return nil, fmt.Errorf("extract: characters: %w", missing(ent.Name, "img[src]"))
		}
		h, err := e.assets.Materialize(ctx, ent.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("extract: characters: %s: %w", ent.Name, err)
		}
		images[ent.Name] = h
	}

	out := make([]entity.Character, 0, len(entries))
	for _, ent := range entries {
		detail, err := e.page(ctx, ent.URL)
		if err != nil {
			return nil, err
		}
		gender, info, err := ParseCharacterDetail(detail)
		if err != nil {
			return nil, fmt.Errorf("extract: character %s: %w", ent.Name, err)
		}
		out = append(out, entity.Character{
			URL:    ent.URL,
			Name:   ent.Name,
			Info:   info,
			Gender: gender,
			Image:  images[ent.Name],
		})
	}
	e.logger.Info("extract: characters", "count", len(out))
	return out, nil
}
