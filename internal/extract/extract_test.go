package extract

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hazyhaar/automata/internal/entity"
	"github.com/hazyhaar/automata/internal/wikitest"
)

const testBase = "https://wiki.test/"

// mapPages serves wikitest.Pages under testBase.
type mapPages struct{ fetched []string }

func (m *mapPages) GetOrFetch(_ context.Context, u string) (string, error) {
	m.fetched = append(m.fetched, u)
	p := strings.TrimPrefix(u, strings.TrimSuffix(testBase, "/"))
	page, ok := wikitest.Pages[p]
	if !ok {
		return "", errors.New("http 404 " + u)
	}
	return page, nil
}

// handleAssets returns the last path segment without storing anything.
type handleAssets struct{ urls []string }

func (h *handleAssets) Materialize(_ context.Context, u string) (string, error) {
	h.urls = append(h.urls, u)
	return u[strings.LastIndexByte(u, '/')+1:], nil
}

func newTestExtractor(t *testing.T) (*Extractor, *mapPages, *handleAssets) {
	t.Helper()
	src := DefaultSource()
	src.BaseURL = testBase
	pages, assets := &mapPages{}, &handleAssets{}
	e, err := New(pages, assets, src, DefaultAliases(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return e, pages, assets
}

func mustBase(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse(testBase)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestCharacters(t *testing.T) {
	// WHAT: listing plus details yield ordered characters with gender, info and portrait.
	// WHY: characters are the targets of quest giver references.
	e, _, assets := newTestExtractor(t)
	got, err := e.Characters(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []entity.Character{
		{URL: testBase + "Pascal", Name: "Pascal", Info: "Pascal is a peaceful machine who leads a village.", Gender: entity.Male, Image: "pascal.png"},
		{URL: testBase + "Emil", Name: "Emil", Info: "A cheerful merchant.", Gender: entity.Unknown, Image: "emil.png"},
		{URL: testBase + "Jackass", Name: "Jackass", Info: "A reckless resistance member.", Gender: entity.Female, Image: "jackass.png"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("characters mismatch (-want +got):\n%s", diff)
	}
	if len(assets.urls) != 3 || assets.urls[0] != testBase+"file/Nier-Automata/pascal.png" {
		t.Fatalf("asset urls = %v", assets.urls)
	}
}

func TestLocations_AliasesAndSentinels(t *testing.T) {
	// WHAT: DLC suffix and Bunker renames apply; sentinel neighbours become absent.
	e, pages, _ := newTestExtractor(t)
	got, err := e.Locations(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []entity.Location{
		{URL: testBase + "City+Ruins", Name: "City Ruins", Info: "The ruins of a city.", Next: "Forest Zone"},
		{URL: testBase + "Forest+Zone", Name: "Forest Zone", Info: "A forest kingdom.", Previous: "City Ruins"},
		{URL: testBase + "Battle+Arena", Name: "Battle Arena", Info: "An arena for DLC fights."},
		{URL: testBase + "Bunker", Name: "The Bunker", Info: "Orbital base of YoRHa.", Next: "City Ruins"},
		{URL: testBase + "Resistance+Camp", Name: "Resistance Camp", Info: "Camp of the resistance.", Previous: "City Ruins", Next: "Pascals Village"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("locations mismatch (-want +got):\n%s", diff)
	}
	for _, u := range pages.fetched {
		if strings.Contains(u, "(DLC)") {
			t.Fatalf("fetched un-aliased URL %s", u)
		}
	}
}

func TestMainQuests(t *testing.T) {
	got, err := ParseMainQuests(wikitest.Pages["/Main+Story+Quests"], mustBase(t), DefaultAliases())
	if err != nil {
		t.Fatal(err)
	}
	want := []entity.Quest{
		{URL: testBase + "Investigate+City+Ruins", Name: "Investigate City Ruins", Giver: "Commander", LocationText: "City Ruins", Reward: "1,000G", Category: entity.Main},
		{URL: testBase + "Defend+the+Village", Name: "Defend the Village", Giver: "Pascal", LocationText: "Resistance Camp", Category: entity.Main},
		{URL: testBase + "Arena+Finals", Name: "Arena Finals", LocationText: "Battle Arena", Reward: "Chip x1", Category: entity.Main},
		{URL: testBase + "Return+to+Orbit", Name: "Return to Orbit", LocationText: "The Bunker", Category: entity.Main},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("main quests mismatch (-want +got):\n%s", diff)
	}
}

func TestSideQuests(t *testing.T) {
	got, err := ParseSideQuests(wikitest.Pages["/Side+Quests"], mustBase(t), DefaultAliases())
	if err != nil {
		t.Fatal(err)
	}
	want := []entity.Quest{
		{URL: testBase + "Emils+Memories", Name: "Emil's Memories", Giver: "Emil", LocationText: "City Ruins", Reward: "Memory Chip, 5000G", Category: entity.Side},
		{URL: testBase + "Philosophers+Meeting", Name: "Philosopher's Meeting", Giver: "Sartre", LocationText: "City Ruins", Category: entity.Side},
		{URL: testBase + "Lost+Child", Name: "Lost Child", Giver: "Kid", LocationText: "Nowhere Plains", Reward: "Small Recovery", Category: entity.Side},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("side quests mismatch (-want +got):\n%s", diff)
	}
}

func TestSideQuests_MalformedCell(t *testing.T) {
	src := `<table class="wiki_table sortable"><tr><td><a href="/Q">Q</a></td><td>No colon here</td><td>x</td></tr></table>`
	_, err := ParseSideQuests(src, mustBase(t), DefaultAliases())
	if !errors.Is(err, ErrMalformedCell) {
		t.Fatalf("err = %v, want ErrMalformedCell", err)
	}
}

func TestSideQuests_GiverAfterFirstColon(t *testing.T) {
	src := `<table class="wiki_table sortable"><tr><td><a href="/Q">Q</a></td><td>Flooded City: Operator 60</td><td>x</td></tr></table>`
	got, err := ParseSideQuests(src, mustBase(t), DefaultAliases())
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Giver != "Operator 6O" || got[0].LocationText != "Flooded City" {
		t.Fatalf("quest = %+v", got[0])
	}
}

func TestSideQuests_ExtraColonsStayInGiver(t *testing.T) {
	// WHAT: only the first colon splits location from giver.
	// WHY: giver names may carry their own colon and must survive intact.
	src := `<table class="wiki_table sortable"><tr><td><a href="/Q">Q</a></td><td>Desert: Camp: Boss</td><td>x</td></tr></table>`
	got, err := ParseSideQuests(src, mustBase(t), DefaultAliases())
	if err != nil {
		t.Fatal(err)
	}
	if got[0].LocationText != "Desert" || got[0].Giver != "Camp: Boss" {
		t.Fatalf("quest = %+v", got[0])
	}
}

func TestCatchables(t *testing.T) {
	e, _, _ := newTestExtractor(t)
	got, err := e.Catchables(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []entity.Catchable{
		{URL: testBase + "Mackerel", Name: "Mackerel", LocationText: "City Ruins, Forest Zone", Image: "mackerel.png", Price: 1200},
		{URL: testBase + "Broken+Battery", Name: "Broken Battery", LocationText: "Resistance Camp", Image: "battery.png", Price: 45},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("catchables mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want int
		err  bool
	}{
		{"12,345G", 12345, false},
		{"1,200G", 1200, false},
		{" 45G ", 45, false},
		{"800", 800, false},
		{"G", 0, true},
		{"", 0, true},
		{"Not for sale", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePrice(tt.in)
		if tt.err {
			if !errors.Is(err, ErrPrice) {
				t.Errorf("ParsePrice(%q) err = %v, want ErrPrice", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParsePrice(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
}

func TestAliasDeterminism(t *testing.T) {
	// WHAT: the same raw row always yields the same record.
	// WHY: reruns must produce identical keys for insert-or-ignore.
	base := mustBase(t)
	first, err := ParseSideQuests(wikitest.Pages["/Side+Quests"], base, DefaultAliases())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, _ := ParseSideQuests(wikitest.Pages["/Side+Quests"], base, DefaultAliases())
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs:\n%s", i, diff)
		}
	}
	a := DefaultAliases()
	for raw, want := range map[string]string{
		"Devola":             "Devola & Popola",
		"Popola":             "Devola & Popola",
		"Jean-Paul":          "Sartre",
		"Operator 60":        "Operator 6O",
		"Operator 210":       "Operator 21O",
		"High-speed Machine": "High-Speed Machine",
	} {
		if got := a.optional(a.SideGivers, raw); got != want {
			t.Errorf("%s -> %q, want %q", raw, got, want)
		}
	}
}

func TestAliases_MergeAndSentinels(t *testing.T) {
	a := DefaultAliases().Merge(Aliases{
		SideGivers: map[string]string{"Kid": "Lost Kid", "Jean-Paul": "Jean-Paul"},
	})
	if got := a.optional(a.SideGivers, "Kid"); got != "Lost Kid" {
		t.Errorf("added alias: %q", got)
	}
	if got := a.optional(a.SideGivers, "Jean-Paul"); got != "Jean-Paul" {
		t.Errorf("override: %q", got)
	}
	if got := a.optional(a.SideGivers, "Operator 210"); got != "Operator 21O" {
		t.Errorf("default kept: %q", got)
	}
	for _, s := range []string{"??", "N/A", "None", "NOTHING", "", "  "} {
		if !a.IsSentinel(s) {
			t.Errorf("IsSentinel(%q) = false", s)
		}
	}
	if a.IsSentinel("Pascal") {
		t.Error("IsSentinel(Pascal) = true")
	}
	if d := DefaultAliases(); d.SideGivers["Kid"] != "" {
		t.Error("Merge mutated defaults")
	}
}

func TestParseListing_MissingBlock(t *testing.T) {
	_, err := ParseListing(`<html><body><p>moved</p></body></html>`, mustBase(t), nil, nil)
	if !errors.Is(err, ErrMissingElement) {
		t.Fatalf("err = %v, want ErrMissingElement", err)
	}
}

func TestParseListing_DedupByName(t *testing.T) {
	src := `<div id="wiki-content-block"><div class="row">` +
		`<div class="col-sm-4"><h3 style="text-align: center;"><a href="/A1">A</a></h3></div>` +
		`<div class="col-sm-4"><h3 style="text-align: center;"><a href="/B">B</a></h3></div>` +
		`<div class="col-sm-4"><h3 style="text-align: center;"><a href="/A2">A</a></h3></div>` +
		`</div></div>`
	got, err := ParseListing(src, mustBase(t), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []ListingEntry{{Name: "A", URL: testBase + "A2"}, {Name: "B", URL: testBase + "B"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCharacterDetail_MissingTable(t *testing.T) {
	_, _, err := ParseCharacterDetail(`<div id="wiki-content-block"><p>x</p></div>`)
	if !errors.Is(err, ErrMissingElement) {
		t.Fatalf("err = %v, want ErrMissingElement", err)
	}
}

func TestAll_FetchFailureAborts(t *testing.T) {
	src := DefaultSource()
	src.BaseURL = testBase
	src.Characters = "Nonexistent"
	e, err := New(&mapPages{}, &handleAssets{}, src, DefaultAliases(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.All(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
}

func TestNew_InvalidBase(t *testing.T) {
	src := DefaultSource()
	src.BaseURL = "not a url"
	if _, err := New(&mapPages{}, &handleAssets{}, src, DefaultAliases(), nil); err == nil {
		t.Fatal("relative base accepted")
	}
}
