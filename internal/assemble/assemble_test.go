package assemble

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hazyhaar/automata/internal/entity"
	"github.com/hazyhaar/automata/internal/extract"
)

func harvest() *extract.Harvest {
	return &extract.Harvest{
		Characters: []entity.Character{
			{Name: "Pascal", URL: "u/Pascal", Gender: entity.Male},
			{Name: "Emil", URL: "u/Emil"},
		},
		Locations: []entity.Location{
			{Name: "City Ruins", URL: "u/City+Ruins"},
			{Name: "Forest", URL: "u/Forest"},
			{Name: "Resistance Camp", URL: "u/Resistance+Camp"},
		},
		Quests: []entity.Quest{
			{Name: "Q1", LocationText: "city ruins", Giver: "pascal", Category: entity.Main},
			{Name: "Q2", LocationText: "Resistance Camp", Giver: "Commander", Category: entity.Main},
			{Name: "Q3", LocationText: "Nowhere Plains", Category: entity.Side},
		},
		Catchables: []entity.Catchable{
			{Name: "Mackerel", LocationText: "Forest Camp, City Ruins"},
			{Name: "Carp", LocationText: "Desert"},
		},
	}
}

func TestResolve_QuestReferences(t *testing.T) {
	// WHAT: locations and givers resolve case-insensitively to canonical names.
	// WHY: referential completeness of quests after assembly.
	res, err := Resolve(harvest(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	q1 := res.Quests[0]
	if q1.Location != (LocationRef{Name: "City Ruins", URL: "u/City+Ruins", Resolved: true}) {
		t.Errorf("Q1 location = %+v", q1.Location)
	}
	if q1.GiverRef != "Pascal" || q1.Giver != "pascal" {
		t.Errorf("Q1 giver = %q ref %q", q1.Giver, q1.GiverRef)
	}
	q2 := res.Quests[1]
	if q2.GiverRef != "" || q2.Giver != "Commander" {
		t.Errorf("Q2 unknown giver should stay free text: %+v", q2)
	}
}

func TestResolve_UnresolvedIsFlagged(t *testing.T) {
	// WHAT: a quest naming an unknown location is kept and flagged, never silently linked.
	res, err := Resolve(harvest(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Quests) != 3 {
		t.Fatalf("quests = %d, want 3", len(res.Quests))
	}
	if len(res.Unresolved) != 1 || res.Unresolved[0].Name != "Q3" {
		t.Fatalf("unresolved = %+v", res.Unresolved)
	}
	if res.Quests[2].Location.Resolved || res.Quests[2].Location.Name != "" {
		t.Fatalf("Q3 location = %+v", res.Quests[2].Location)
	}
}

func TestResolve_Strict(t *testing.T) {
	_, err := Resolve(harvest(), Options{Strict: true})
	if !errors.Is(err, ErrUnresolvedLocation) {
		t.Fatalf("err = %v, want ErrUnresolvedLocation", err)
	}
	if !strings.Contains(err.Error(), "Nowhere Plains") {
		t.Fatalf("error does not name the location: %v", err)
	}
}

func TestResolve_SubstringAssociation(t *testing.T) {
	// WHAT: "Forest Camp, City Ruins" links both "City Ruins" and "Forest".
	// WHY: catchable locations are linked by substring, nested names included.
	res, err := Resolve(harvest(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"City Ruins", "Forest"}, res.Catchables[0].Locations); diff != "" {
		t.Fatalf("Mackerel links (-want +got):\n%s", diff)
	}
	if len(res.Catchables[1].Locations) != 0 {
		t.Fatalf("Carp links = %v", res.Catchables[1].Locations)
	}
}

func TestLinker_NestedAndOverlapping(t *testing.T) {
	names := []string{"City", "City Ruins", "Ruins", "Ruins Forest", "Desert", "Forest"}
	l := NewLinker(names)
	text := "City Ruins Forest"
	got := l.Find(text)

	var want []string
	for _, n := range names {
		if strings.Contains(text, n) {
			want = append(want, n)
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch with strings.Contains (-want +got):\n%s", diff)
	}
}

func TestLinker_CaseSensitive(t *testing.T) {
	l := NewLinker([]string{"City Ruins"})
	if got := l.Find("city ruins"); len(got) != 0 {
		t.Fatalf("case-insensitive match: %v", got)
	}
}

func TestLinker_Empty(t *testing.T) {
	if got := NewLinker(nil).Find("anything"); got != nil {
		t.Fatalf("got %v", got)
	}
	if got := NewLinker([]string{"", "A", "A"}).Find("A"); len(got) != 1 {
		t.Fatalf("got %v", got)
	}
}
