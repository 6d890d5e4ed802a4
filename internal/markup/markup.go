// Package markup selects elements and text from wiki HTML.
//
// It parses with golang.org/x/net/html and evaluates a small CSS selector
// subset (see selector.go). Searches cover descendants of the given node,
// never the node itself, and results come back in document order.
package markup

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse parses an HTML document.
func Parse(src string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("markup: parse: %w", err)
	}
	return doc, nil
}

// Select returns every descendant of root matching sel.
func Select(root *html.Node, sel string) []*html.Node {
	steps := parseSelector(sel)
	if root == nil || len(steps) == 0 {
		return nil
	}

	current := []*html.Node{root}
	for _, st := range steps {
		seen := make(map[*html.Node]bool)
		var next []*html.Node
		for _, scope := range current {
			collect(scope, st, func(n *html.Node) {
				if !seen[n] {
					seen[n] = true
					next = append(next, n)
				}
			})
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return inDocumentOrder(root, current)
}

// First returns the first descendant of root matching sel, or nil.
func First(root *html.Node, sel string) *html.Node {
	if m := Select(root, sel); len(m) > 0 {
		return m[0]
	}
	return nil
}

// Attr returns the value of attribute key, or "".
func Attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

// HasAttr reports whether n carries attribute key.
func HasAttr(n *html.Node, key string) bool {
	_, ok := lookupAttr(n, key)
	return ok
}

// Text concatenates every text node under n verbatim, skipping script and
// style content. Callers trim and normalise.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			case atom.Br:
				sb.WriteByte('\n')
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// Render serialises n back to HTML.
func Render(n *html.Node) string {
	var buf bytes.Buffer
	html.Render(&buf, n)
	return buf.String()
}

func collect(scope *html.Node, st step, emit func(*html.Node)) {
	if st.child {
		for c := scope.FirstChild; c != nil; c = c.NextSibling {
			if st.sel.matches(c) {
				emit(c)
			}
		}
		return
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if st.sel.matches(c) {
				emit(c)
			}
			walk(c)
		}
	}
	walk(scope)
}

func inDocumentOrder(root *html.Node, nodes []*html.Node) []*html.Node {
	if len(nodes) < 2 {
		return nodes
	}
	want := make(map[*html.Node]bool, len(nodes))
	for _, n := range nodes {
		want[n] = true
	}
	out := make([]*html.Node, 0, len(nodes))
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if want[c] {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
