package markup

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"
)

const page = `<html><body>
<div id="wiki-content-block">
  <p>First <b>bold</b>&nbsp;para.</p>
  <div class="row">
    <div class="col-sm-4"><img src="/file/a.png"><h3 style="text-align: center;"><a href="/Pascal">Pascal</a></h3></div>
    <div class="col-sm-4 extra"><h3 style="text-align: left;"><a href="/Emil">Emil</a></h3></div>
  </div>
  <div class="row"><div class="col-sm-4"><h3 style="text-align: center;"><a href="/Jackass">Jackass</a></h3></div></div>
  <table class="wiki_table sortable"><tr><td>one</td></tr></table>
  <table class="wiki_table"><tr><td>two</td></tr></table>
</div>
<div class="col-sm-4 col-md-3 col-md-push-9"><ul><li>Previous: ??</li><li>Next: Bunker</li></ul></div>
<script>var x = "hidden";</script>
</body></html>`

func mustParse(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func texts(nodes []*html.Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, strings.TrimSpace(Text(n)))
	}
	return out
}

func TestSelect_QuotedAttributeWithSpaces(t *testing.T) {
	// WHAT: attribute values may be quoted and contain spaces and semicolons.
	// WHY: character names sit under h3[style="text-align: center;"].
	doc := mustParse(t, page)
	got := texts(Select(doc, `h3[style="text-align: center;"] a`))
	want := []string{"Pascal", "Jackass"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSelect_MultipleClasses(t *testing.T) {
	doc := mustParse(t, page)
	if n := Select(doc, "table.wiki_table.sortable"); len(n) != 1 {
		t.Fatalf("sortable tables = %d, want 1", len(n))
	}
	if n := Select(doc, "table.wiki_table"); len(n) != 2 {
		t.Fatalf("wiki tables = %d, want 2", len(n))
	}
	side := First(doc, "div.col-sm-4.col-md-3.col-md-push-9")
	if side == nil {
		t.Fatal("sidebar not found")
	}
	got := texts(Select(side, "li"))
	if diff := cmp.Diff([]string{"Previous: ??", "Next: Bunker"}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSelect_ScopedToFirstRow(t *testing.T) {
	// WHAT: searching from a node only sees its descendants.
	doc := mustParse(t, page)
	row := First(First(doc, "#wiki-content-block"), "div.row")
	cols := Select(row, "div.col-sm-4")
	if len(cols) != 2 {
		t.Fatalf("columns in first row = %d, want 2", len(cols))
	}
	if Select(cols[0], "div.col-sm-4") != nil {
		t.Fatal("Select matched the scope node itself")
	}
}

func TestSelect_ChildCombinator(t *testing.T) {
	doc := mustParse(t, page)
	if n := Select(doc, "#wiki-content-block > p"); len(n) != 1 {
		t.Fatalf("direct p = %d, want 1", len(n))
	}
	if n := Select(doc, "#wiki-content-block > a"); len(n) != 0 {
		t.Fatalf("direct a = %d, want 0", len(n))
	}
}

func TestSelect_DocumentOrderNoDuplicates(t *testing.T) {
	doc := mustParse(t, `<div class="x"><div class="x"><span>a</span></div><span>b</span></div>`)
	got := texts(Select(doc, "div.x span"))
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestText(t *testing.T) {
	doc := mustParse(t, page)
	p := First(First(doc, "#wiki-content-block"), "p")
	if got := Text(p); got != "First bold\u00a0para." {
		t.Fatalf("Text = %q", got)
	}
	body := First(doc, "body")
	if strings.Contains(Text(body), "hidden") {
		t.Fatal("script content leaked into Text")
	}
	br := mustParse(t, `<table><tr><td>City Ruins<br>Forest Zone</td></tr></table>`)
	if got := Text(First(br, "td")); got != "City Ruins\nForest Zone" {
		t.Fatalf("br Text = %q", got)
	}
}

func TestAttr(t *testing.T) {
	doc := mustParse(t, page)
	img := First(doc, "img")
	if Attr(img, "src") != "/file/a.png" || !HasAttr(img, "src") || HasAttr(img, "alt") {
		t.Fatalf("attrs = %+v", img.Attr)
	}
	if Attr(nil, "src") != "" {
		t.Fatal("Attr(nil) not empty")
	}
}

func TestMarkdown(t *testing.T) {
	doc := mustParse(t, `<div id="c"><h2>Pascal</h2><p>A <a href="/Village">village</a> elder.</p></div>`)
	md, err := Markdown(First(doc, "#c"), "https://nierautomata.wiki.fextralife.com")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md, "## Pascal") {
		t.Errorf("heading missing: %q", md)
	}
	if !strings.Contains(md, "(https://nierautomata.wiki.fextralife.com/Village)") {
		t.Errorf("link not absolute: %q", md)
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize(`div#a > h3[style="text-align: center;"]   a.b`)
	want := []string{"div#a", ">", `h3[style="text-align: center;"]`, "a.b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}
