package extract

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"

	"github.com/hazyhaar/automata/internal/markup"
)

// ErrPrice is returned by ParsePrice for strings without a number.
var ErrPrice = errors.New("extract: unparseable price")

var strict = bluemonday.StrictPolicy()

// ParsePrice reads a display price such as "12,345G".
func ParsePrice(s string) (int, error) {
	v := strings.TrimSpace(s)
	v = strings.Trim(v, "G")
	v = strings.ReplaceAll(v, ",", "")
	v = strings.TrimSpace(v)
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrPrice, s)
	}
	return n, nil
}

// clean replaces non-breaking spaces and trims.
func clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
}

// joinLines turns a multi-line cell into a comma-separated list, dropping
// blank lines.
func joinLines(s string) string {
	var parts []string
	for _, line := range strings.Split(s, "\n") {
		if line = clean(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, ", ")
}

// cellText is the trimmed text of a node.
func cellText(n *xhtml.Node) string {
	return strings.TrimSpace(markup.Text(n))
}

// prose returns the plain text of a descriptive paragraph. The paragraph is
// rendered back to HTML and passed through a strict sanitizer so no markup
// or script text survives.
func prose(n *xhtml.Node) string {
	text := html.UnescapeString(strict.Sanitize(markup.Render(n)))
	return clean(text)
}
