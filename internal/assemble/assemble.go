// Package assemble resolves the name-based references between extracted
// records once every extractor has run.
//
// Quest locations and givers resolve by exact case-insensitive name match.
// Catchables link to every location whose name appears in their location
// text. Nothing here touches the network or the store.
package assemble

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hazyhaar/automata/internal/entity"
	"github.com/hazyhaar/automata/internal/extract"
)

// ErrUnresolvedLocation is returned in strict mode when a quest location
// names no known location.
var ErrUnresolvedLocation = errors.New("assemble: unresolved quest location")

// LocationRef is the resolution of a quest location. When Resolved is false
// Name and URL are empty and the quest keeps only its raw location text.
type LocationRef struct {
	Name     string `json:"name,omitempty"`
	URL      string `json:"url,omitempty"`
	Resolved bool   `json:"resolved"`
}

// Quest is a quest with resolved references. GiverRef is the canonical name
// of the giving character, empty when Giver names no known character.
type Quest struct {
	entity.Quest
	Location LocationRef `json:"location"`
	GiverRef string      `json:"giver_ref,omitempty"`
}

// Catchable is a catchable with the names of the locations it links to.
type Catchable struct {
	entity.Catchable
	Locations []string `json:"locations"`
}

// Result is the assembled, load-ready data set.
type Result struct {
	Characters []entity.Character
	Locations  []entity.Location
	Quests     []Quest
	Catchables []Catchable
	// Unresolved lists the quests whose location matched nothing.
	Unresolved []Quest
}

// Options tunes resolution.
type Options struct {
	// Strict turns an unresolved quest location into ErrUnresolvedLocation.
	Strict bool
}

// Resolve links the records of h.
func Resolve(h *extract.Harvest, opts Options) (*Result, error) {
	locs := make(map[string]entity.Location, len(h.Locations))
	names := make([]string, 0, len(h.Locations))
	for _, l := range h.Locations {
		k := entity.Key(l.Name)
		if _, dup := locs[k]; dup {
			continue
		}
		locs[k] = l
		names = append(names, l.Name)
	}
	chars := make(map[string]string, len(h.Characters))
	for _, c := range h.Characters {
		k := entity.Key(c.Name)
		if _, dup := chars[k]; !dup {
			chars[k] = c.Name
		}
	}

	res := &Result{
		Characters: h.Characters,
		Locations:  h.Locations,
		Quests:     make([]Quest, 0, len(h.Quests)),
		Catchables: make([]Catchable, 0, len(h.Catchables)),
	}

	for _, q := range h.Quests {
		rq := Quest{Quest: q}
		if l, ok := locs[entity.Key(q.LocationText)]; ok {
			rq.Location = LocationRef{Name: l.Name, URL: l.URL, Resolved: true}
		}
		if q.Giver != "" {
			rq.GiverRef = chars[entity.Key(q.Giver)]
		}
		res.Quests = append(res.Quests, rq)
		if !rq.Location.Resolved {
			res.Unresolved = append(res.Unresolved, rq)
		}
	}

	if opts.Strict && len(res.Unresolved) > 0 {
		var bad []string
		for _, q := range res.Unresolved {
			bad = append(bad, fmt.Sprintf("%s (%q)", q.Name, q.LocationText))
		}
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedLocation, strings.Join(bad, ", "))
	}

	linker := NewLinker(names)
	for _, c := range h.Catchables {
		res.Catchables = append(res.Catchables, Catchable{
			Catchable: c,
			Locations: linker.Find(c.LocationText),
		})
	}
	return res, nil
}
