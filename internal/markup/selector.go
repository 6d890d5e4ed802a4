package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Supported selector subset:
//   - tag: "table", "p"
//   - .class, repeatable: ".wiki_table", "div.col-sm-4.col-md-3"
//   - #id: "#wiki-content-block"
//   - [attr], [attr=val], [attr="quoted val"]: `h3[style="text-align: center;"]`
//   - descendant (space) and child (>) combinators

type attrCond struct {
	key    string
	val    string
	hasVal bool
}

type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrCond
}

type step struct {
	child bool // direct child of the previous step instead of any descendant
	sel   compound
}

// parseSelector splits sel into combinator steps.
func parseSelector(sel string) []step {
	var steps []step
	child := false
	for _, tok := range tokenize(sel) {
		if tok == ">" {
			child = true
			continue
		}
		steps = append(steps, step{child: child, sel: parseCompound(tok)})
		child = false
	}
	return steps
}

// tokenize splits on whitespace and '>' outside of brackets and quotes.
func tokenize(sel string) []string {
	var (
		toks  []string
		cur   strings.Builder
		depth int
		quote rune
	)
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range sel {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case depth > 0 && (r == '"' || r == '\''):
			quote = r
			cur.WriteRune(r)
		case r == '[':
			depth++
			cur.WriteRune(r)
		case r == ']':
			if depth > 0 {
				depth--
			}
			cur.WriteRune(r)
		case depth == 0 && r == '>':
			flush()
			toks = append(toks, ">")
		case depth == 0 && (r == ' ' || r == '\t' || r == '\n'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

func parseCompound(tok string) compound {
	var c compound
	i := 0
	readIdent := func() string {
		start := i
		for i < len(tok) && tok[i] != '.' && tok[i] != '#' && tok[i] != '[' {
			i++
		}
		return tok[start:i]
	}

	c.tag = strings.ToLower(readIdent())
	for i < len(tok) {
		switch tok[i] {
		case '.':
			i++
			if cls := readIdent(); cls != "" {
				c.classes = append(c.classes, cls)
			}
		case '#':
			i++
			c.id = readIdent()
		case '[':
			end := closingBracket(tok, i)
			c.attrs = append(c.attrs, parseAttr(tok[i+1:end]))
			i = end + 1
		default:
			i++
		}
	}
	return c
}

// closingBracket returns the index of the ']' that closes the '[' at open,
// skipping quoted sections. It returns len(tok) when unterminated.
func closingBracket(tok string, open int) int {
	var quote byte
	for j := open + 1; j < len(tok); j++ {
		ch := tok[j]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == ']':
			return j
		}
	}
	return len(tok)
}

func parseAttr(s string) attrCond {
	eq := strings.IndexByte(s, '=')
	if eq < 0 {
		return attrCond{key: strings.TrimSpace(s)}
	}
	val := strings.TrimSpace(s[eq+1:])
	if len(val) >= 2 && (val[0] == '"' || val[0] == '\'') && val[len(val)-1] == val[0] {
		val = val[1 : len(val)-1]
	}
	return attrCond{key: strings.TrimSpace(s[:eq]), val: val, hasVal: true}
}

func (c compound) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if c.tag != "" && c.tag != "*" && n.Data != c.tag {
		return false
	}
	if c.id != "" && Attr(n, "id") != c.id {
		return false
	}
	if len(c.classes) > 0 {
		have := strings.Fields(Attr(n, "class"))
		for _, want := range c.classes {
			if !contains(have, want) {
				return false
			}
		}
	}
	for _, a := range c.attrs {
		v, ok := lookupAttr(n, a.key)
		if !ok || (a.hasVal && v != a.val) {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
