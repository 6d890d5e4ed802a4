package assemble

import (
	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// Linker finds which of a fixed set of names occur as substrings of a text.
// Matching is case-sensitive and a name counts even when it lies inside or
// overlaps another name ("Forest" in "Forest Camp").
type Linker struct {
	names []string
	full  ahocorasick.AhoCorasick
}

// NewLinker builds a Linker over names. Empty and duplicate names are ignored.
func NewLinker(names []string) *Linker {
	seen := make(map[string]bool, len(names))
	var uniq []string
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		uniq = append(uniq, n)
	}
	l := &Linker{names: uniq}
	if len(uniq) > 0 {
		l.full = build(uniq)
	}
	return l
}

func build(patterns []string) ahocorasick.AhoCorasick {
	b := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: false,
		MatchOnlyWholeWords:  false,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})
	return b.Build(patterns)
}

// Find returns the names occurring in text, in the order they were given to
// NewLinker.
//
// The automaton reports non-overlapping leftmost-longest matches, which hides
// names nested in a longer match. Each round therefore drops the names
// already found and scans again with the rest, until a round finds nothing.
func (l *Linker) Find(text string) []string {
	if len(l.names) == 0 || text == "" {
		return nil
	}
	found := make(map[string]bool)
	remaining := l.names
	ac := l.full
	for len(remaining) > 0 {
		hit := false
		for _, m := range ac.FindAll(text) {
			name := remaining[m.Pattern()]
			if !found[name] {
				found[name] = true
				hit = true
			}
		}
		if !hit {
			break
		}
		var next []string
		for _, n := range remaining {
			if !found[n] {
				next = append(next, n)
			}
		}
		remaining = next
		if len(remaining) > 0 {
			ac = build(remaining)
		}
	}

	out := make([]string, 0, len(found))
	for _, n := range l.names {
		if found[n] {
			out = append(out, n)
		}
	}
	return out
}
