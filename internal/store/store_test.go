package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hazyhaar/automata/dbopen"
	"github.com/hazyhaar/automata/idgen"
	"github.com/hazyhaar/automata/internal/assemble"
	"github.com/hazyhaar/automata/internal/entity"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	return &Store{DB: db, NewID: idgen.Sequence("run")}
}

type mapImages map[string][]byte

func (m mapImages) Read(handle string) ([]byte, error) {
	b, ok := m[handle]
	if !ok {
		return nil, os.ErrNotExist
	}
	return b, nil
}

var images = mapImages{"pascal.png": []byte("P"), "mackerel.png": []byte("M")}

func result() *assemble.Result {
	cityRuins := assemble.LocationRef{Name: "City Ruins", URL: "u/City+Ruins", Resolved: true}
	camp := assemble.LocationRef{Name: "Resistance Camp", URL: "u/Resistance+Camp", Resolved: true}
	quests := []assemble.Quest{
		{Quest: entity.Quest{URL: "u/Q1", Name: "Investigate", Giver: "Commander", LocationText: "City Ruins", Reward: "1,000G", Category: entity.Main}, Location: cityRuins},
		{Quest: entity.Quest{URL: "u/Q2", Name: "Defend", Giver: "pascal", LocationText: "Resistance Camp", Category: entity.Main}, Location: camp, GiverRef: "Pascal"},
		{Quest: entity.Quest{URL: "u/Q3", Name: "Memories", Giver: "Emil", LocationText: "City Ruins", Reward: "Chip", Category: entity.Side}, Location: cityRuins, GiverRef: "Emil"},
		{Quest: entity.Quest{URL: "u/Q4", Name: "Lost Child", Giver: "Kid", LocationText: "Nowhere Plains", Category: entity.Side}},
	}
	return &assemble.Result{
		Characters: []entity.Character{
			{URL: "u/Pascal", Name: "Pascal", Info: "A machine.", Gender: entity.Male, Image: "pascal.png"},
			{URL: "u/Emil", Name: "Emil"},
		},
		Locations: []entity.Location{
			{URL: "u/City+Ruins", Name: "City Ruins", Info: "Ruins.", Next: "Forest Zone"},
			{URL: "u/Forest+Zone", Name: "Forest Zone", Previous: "City Ruins"},
			{URL: "u/Resistance+Camp", Name: "Resistance Camp"},
		},
		Quests:     quests,
		Unresolved: quests[3:],
		Catchables: []assemble.Catchable{
			{Catchable: entity.Catchable{URL: "u/Mackerel", Name: "Mackerel", LocationText: "City Ruins, Forest Zone", Image: "mackerel.png", Price: 1200}, Locations: []string{"City Ruins", "Forest Zone"}},
			{Catchable: entity.Catchable{URL: "u/Battery", Name: "Broken Battery", LocationText: "Resistance Camp", Price: 45}, Locations: []string{"Resistance Camp"}},
		},
	}
}

func load(t *testing.T, s *Store) *LoadReport {
	t.Helper()
	rep, err := s.Load(context.Background(), result(), images)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return rep
}

func TestLoad_Idempotent(t *testing.T) {
	// WHAT: loading the same result twice inserts nothing the second time.
	// WHY: re-ingesting unchanged content must be a no-op.
	s := testStore(t)
	ctx := context.Background()

	first := load(t, s)
	want := map[string]int{
		TableCharacters: 2, TableLocations: 3, TableQuests: 4, TableCatchables: 2, TableCatchableLocations: 3,
	}
	if diff := cmp.Diff(want, first.Inserted); diff != "" {
		t.Fatalf("first load inserted (-want +got):\n%s", diff)
	}
	if first.TotalSkipped() != 0 {
		t.Fatalf("first load skipped %v", first.Skipped)
	}
	before, _ := s.Counts(ctx)

	second := load(t, s)
	if second.TotalInserted() != 0 {
		t.Fatalf("second load inserted %v", second.Inserted)
	}
	if diff := cmp.Diff(want, second.Skipped); diff != "" {
		t.Fatalf("second load skipped (-want +got):\n%s", diff)
	}
	after, _ := s.Counts(ctx)
	if before != after {
		t.Fatalf("counts changed: %+v -> %+v", before, after)
	}
}

func TestLoad_CaseInsensitiveUniqueness(t *testing.T) {
	// WHAT: "PASCAL" is skipped when "Pascal" exists.
	s := testStore(t)
	ctx := context.Background()
	load(t, s)

	res := &assemble.Result{Characters: []entity.Character{{URL: "u/other", Name: "PASCAL"}}}
	rep, err := s.Load(ctx, res, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Skipped[TableCharacters] != 1 || rep.Inserted[TableCharacters] != 0 {
		t.Fatalf("report = %+v", rep)
	}
	names, _ := s.Names(ctx, KindCharacter)
	if diff := cmp.Diff([]string{"Pascal", "Emil"}, names); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
}

func TestLoad_URLUniqueness(t *testing.T) {
	// WHAT: a new name under an already stored URL is skipped and counted.
	// WHY: the page URL is the second natural key of every entity table.
	s := testStore(t)
	ctx := context.Background()
	load(t, s)

	res := &assemble.Result{Characters: []entity.Character{{URL: "u/Pascal", Name: "Other"}}}
	rep, err := s.Load(ctx, res, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Skipped[TableCharacters] != 1 || rep.Inserted[TableCharacters] != 0 {
		t.Fatalf("report = %+v", rep)
	}
	names, _ := s.Names(ctx, KindCharacter)
	if diff := cmp.Diff([]string{"Pascal", "Emil"}, names); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
}

func TestLoad_UnicodeFoldedNames(t *testing.T) {
	// WHAT: names that differ only in non-ASCII case collide, and references
	// in either case resolve to the stored row.
	// WHY: SQLite NOCASE folds ASCII only, so "Émile" and "émile" would both land.
	s := testStore(t)
	ctx := context.Background()

	ref := assemble.LocationRef{Name: "émile's house", URL: "u/emile2", Resolved: true}
	res := &assemble.Result{
		Locations: []entity.Location{
			{URL: "u/emile", Name: "Émile's House"},
			{URL: "u/emile2", Name: "émile's house"},
		},
		Quests: []assemble.Quest{
			{Quest: entity.Quest{URL: "u/Q9", Name: "Visit", LocationText: "émile's house", Category: entity.Side}, Location: ref},
		},
	}
	rep, err := s.Load(ctx, res, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Inserted[TableLocations] != 1 || rep.Skipped[TableLocations] != 1 {
		t.Fatalf("report = %+v", rep)
	}
	qs, err := s.Quests(ctx, QuestFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 1 || qs[0].Location != "Émile's House" || qs[0].Unresolved {
		t.Fatalf("quests = %+v", qs)
	}
	locs, _ := s.Locations(ctx, LocationFilter{Quest: "VISIT"})
	if len(locs) != 1 || locs[0].Name != "Émile's House" {
		t.Fatalf("locations by quest = %+v", locs)
	}
}

func TestLoad_UnresolvedQuest(t *testing.T) {
	// WHAT: a quest with no location match is stored with its raw text and flagged.
	s := testStore(t)
	ctx := context.Background()
	load(t, s)

	var locID any
	var unresolved int
	err := s.DB.QueryRowContext(ctx, `SELECT location_id, unresolved FROM quests WHERE name = 'Lost Child'`).Scan(&locID, &unresolved)
	if err != nil {
		t.Fatal(err)
	}
	if locID != nil || unresolved != 1 {
		t.Fatalf("location_id=%v unresolved=%d", locID, unresolved)
	}
	qs, err := s.Quests(ctx, QuestFilter{NameLike: "lost"})
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 1 || qs[0].Location != "Nowhere Plains" || !qs[0].Unresolved {
		t.Fatalf("quests = %+v", qs)
	}
	c, _ := s.Counts(ctx)
	if c.Unresolved != 1 {
		t.Fatalf("unresolved count = %d", c.Unresolved)
	}
}

func TestLoad_ImageFailureRollsBack(t *testing.T) {
	// WHAT: a missing asset aborts the load and leaves the store empty.
	s := testStore(t)
	ctx := context.Background()
	_, err := s.Load(ctx, result(), mapImages{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
	c, _ := s.Counts(ctx)
	if c != (Counts{}) {
		t.Fatalf("counts after rollback = %+v", c)
	}
}

func TestQueries(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	load(t, s)
	price := 100

	t.Run("characters by quest category", func(t *testing.T) {
		got, err := s.Characters(ctx, CharacterFilter{QuestCategory: entity.Side})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Name != "Emil" {
			t.Fatalf("got %+v", got)
		}
	})
	t.Run("characters by name", func(t *testing.T) {
		got, _ := s.Characters(ctx, CharacterFilter{NameLike: "asc"})
		want := []CharacterRow{{Name: "Pascal", URL: "u/Pascal", Info: "A machine.", Gender: entity.Male, ImageName: "pascal.png"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("(-want +got):\n%s", diff)
		}
	})
	t.Run("locations by catchable", func(t *testing.T) {
		got, _ := s.Locations(ctx, LocationFilter{Catchable: "mackerel"})
		if len(got) != 2 || got[0].Name != "City Ruins" || got[1].Name != "Forest Zone" {
			t.Fatalf("got %+v", got)
		}
	})
	t.Run("locations by quest", func(t *testing.T) {
		got, _ := s.Locations(ctx, LocationFilter{Quest: "Defend"})
		if len(got) != 1 || got[0].Name != "Resistance Camp" {
			t.Fatalf("got %+v", got)
		}
	})
	t.Run("quests without reward", func(t *testing.T) {
		got, _ := s.Quests(ctx, QuestFilter{NoReward: true})
		if len(got) != 2 || got[0].Name != "Defend" || got[1].Name != "Lost Child" {
			t.Fatalf("got %+v", got)
		}
	})
	t.Run("quests by giver and category", func(t *testing.T) {
		got, _ := s.Quests(ctx, QuestFilter{GiverLike: "PASC", Category: entity.Main})
		if len(got) != 1 || got[0].Name != "Defend" || got[0].Location != "Resistance Camp" {
			t.Fatalf("got %+v", got)
		}
	})
	t.Run("quests by location", func(t *testing.T) {
		got, _ := s.Quests(ctx, QuestFilter{LocationLike: "ruins"})
		if len(got) != 2 {
			t.Fatalf("got %+v", got)
		}
	})
	t.Run("catchables by price", func(t *testing.T) {
		got, _ := s.Catchables(ctx, CatchableFilter{MinPrice: &price})
		if len(got) != 1 || got[0].Name != "Mackerel" {
			t.Fatalf("got %+v", got)
		}
		if diff := cmp.Diff([]string{"City Ruins", "Forest Zone"}, got[0].Locations); diff != "" {
			t.Fatalf("links (-want +got):\n%s", diff)
		}
	})
	t.Run("like wildcards match literally", func(t *testing.T) {
		for _, in := range []string{"_", "%", `\`} {
			got, err := s.Characters(ctx, CharacterFilter{NameLike: in})
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 0 {
				t.Fatalf("NameLike %q matched %+v", in, got)
			}
		}
	})
	t.Run("images", func(t *testing.T) {
		got, err := s.Images(ctx, KindCatchable, "")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Handle != "mackerel.png" || string(got[0].Data) != "M" {
			t.Fatalf("got %+v", got)
		}
		if _, err := s.Images(ctx, KindQuest, ""); !errors.Is(err, ErrUnknownKind) {
			t.Fatalf("quest images err = %v", err)
		}
	})
}

func TestStat(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	load(t, s)

	cases := map[StatKind][]StatRow{
		QuestsPerLocation:         {{"City Ruins", 2}, {"Resistance Camp", 1}},
		CatchableKindsPerLocation: {{"City Ruins", 1}, {"Forest Zone", 1}, {"Resistance Camp", 1}},
		AvgPricePerLocation:       {{"City Ruins", 1200}, {"Forest Zone", 1200}, {"Resistance Camp", 45}},
		LocationsPerCatchable:     {{"Mackerel", 2}, {"Broken Battery", 1}},
		QuestsPerCharacter:        {{"Emil", 1}, {"Pascal", 1}},
	}
	for kind, want := range cases {
		got, err := s.Stat(ctx, kind)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s (-want +got):\n%s", kind, diff)
		}
	}
	if _, err := s.Stat(ctx, "nope"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("unknown stat err = %v", err)
	}
}

func TestParseKinds(t *testing.T) {
	if k, err := ParseStatKind("5"); err != nil || k != QuestsPerCharacter {
		t.Fatalf("ParseStatKind(5) = %q, %v", k, err)
	}
	if k, err := ParseStatKind("Quests-Per-Location"); err != nil || k != QuestsPerLocation {
		t.Fatalf("ParseStatKind = %q, %v", k, err)
	}
	if _, err := ParseStatKind("6"); err == nil {
		t.Fatal("ParseStatKind(6): expected error")
	}
	if k, err := ParseKind("NPC"); err != nil || k != KindCharacter {
		t.Fatalf("ParseKind(NPC) = %q, %v", k, err)
	}
	if k, err := ParseKind("fish"); err != nil || k != KindCatchable {
		t.Fatalf("ParseKind(fish) = %q, %v", k, err)
	}
}

func TestRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if r, err := s.LastRun(ctx); err != nil || r != nil {
		t.Fatalf("empty store: %+v, %v", r, err)
	}
	id, err := s.BeginRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if id != "run-1" {
		t.Fatalf("id = %q", id)
	}
	if err := s.FinishRun(ctx, id, nil, errors.New("fetch: http 404")); err != nil {
		t.Fatal(err)
	}
	if r, _ := s.LastCompletedRun(ctx); r != nil {
		t.Fatalf("failed run counted as completed: %+v", r)
	}

	id2, _ := s.BeginRun(ctx)
	rep := load(t, s)
	if err := s.FinishRun(ctx, id2, rep, nil); err != nil {
		t.Fatal(err)
	}
	r, err := s.LastCompletedRun(ctx)
	if err != nil || r == nil {
		t.Fatalf("LastCompletedRun: %+v, %v", r, err)
	}
	if r.ID != "run-2" || r.Status != RunDone || r.Inserted != 14 || r.FinishedAt == 0 {
		t.Fatalf("run = %+v", r)
	}
	if err := s.FinishRun(ctx, "missing", nil, nil); err == nil {
		t.Fatal("FinishRun(missing): expected error")
	}
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "NieR.sqlite")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	load(t, s)
	s.Close()

	s2, err := Open(path, dbopen.WithQueryOnly())
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	c, err := s2.Counts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if c.Characters != 2 || c.Links != 3 {
		t.Fatalf("counts = %+v", c)
	}
}
