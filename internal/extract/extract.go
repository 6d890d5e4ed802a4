// Package extract turns wiki pages into entity records.
//
// Pure Parse functions read raw HTML and return records; Extractor drives
// them over the listing and detail pages, reading pages through a cache and
// storing images through an asset materializer. A page that lacks an
// expected element fails the whole extraction: the wiki layout changed and
// continuing would load partial data.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/hazyhaar/automata/internal/entity"
)

var (
	// ErrMissingElement is returned when a page lacks an expected table,
	// block, column or link.
	ErrMissingElement = errors.New("extract: missing element")
	// ErrMalformedCell is returned when a cell does not have the expected
	// shape, such as a side quest location without "location: giver".
	ErrMalformedCell = errors.New("extract: malformed cell")
)

func missing(page, what string) error {
	return fmt.Errorf("%w: %s: %s", ErrMissingElement, page, what)
}

// Pages returns page content by URL.
type Pages interface {
	GetOrFetch(ctx context.Context, url string) (string, error)
}

// Assets stores the image at a URL and returns its handle.
type Assets interface {
	Materialize(ctx context.Context, url string) (string, error)
}

// Source locates the listing pages on the wiki.
type Source struct {
	BaseURL    string `yaml:"base_url"`
	Characters string `yaml:"characters"`
	Locations  string `yaml:"locations"`
	MainQuests string `yaml:"main_quests"`
	SideQuests string `yaml:"side_quests"`
	Catchables string `yaml:"catchables"`
}

// DefaultSource is the public NieR:Automata wiki.
func DefaultSource() Source {
	return Source{
		BaseURL:    "https://nierautomata.wiki.fextralife.com/",
		Characters: "NPCs",
		Locations:  "Locations",
		MainQuests: "Main+Story+Quests",
		SideQuests: "Side+Quests",
		Catchables: "Fishing",
	}
}

// Harvest is the output of a full extraction.
type Harvest struct {
	Characters []entity.Character
	Locations  []entity.Location
	Quests     []entity.Quest
	Catchables []entity.Catchable
}

// Extractor runs the four entity extractors.
type Extractor struct {
	pages   Pages
	assets  Assets
	src     Source
	base    *url.URL
	aliases Aliases
	logger  *slog.Logger
}

// New creates an Extractor.
func New(pages Pages, assets Assets, src Source, aliases Aliases, logger *slog.Logger) (*Extractor, error) {
	base, err := url.Parse(src.BaseURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("extract: invalid base URL %q", src.BaseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		pages:   pages,
		assets:  assets,
		src:     src,
		base:    base,
		aliases: aliases,
		logger:  logger,
	}, nil
}

// All runs every extractor in order: characters, locations, main quests,
// side quests, catchables.
func (e *Extractor) All(ctx context.Context) (*Harvest, error) {
	var h Harvest
	var err error
	if h.Characters, err = e.Characters(ctx); err != nil {
		return nil, err
	}
	if h.Locations, err = e.Locations(ctx); err != nil {
		return nil, err
	}
	main, err := e.MainQuests(ctx)
	if err != nil {
		return nil, err
	}
	side, err := e.SideQuests(ctx)
	if err != nil {
		return nil, err
	}
	h.Quests = append(main, side...)
	if h.Catchables, err = e.Catchables(ctx); err != nil {
		return nil, err
	}
	return &h, nil
}

func (e *Extractor) pageURL(p string) string {
	return resolve(e.base, p)
}

// resolve makes href absolute against base. Unparseable hrefs are returned
// joined textually so the failure surfaces at fetch time.
func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return base.String() + href
	}
	return base.ResolveReference(ref).String()
}

func (e *Extractor) page(ctx context.Context, u string) (string, error) {
	body, err := e.pages.GetOrFetch(ctx, u)
	if err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}
	return body, nil
}
