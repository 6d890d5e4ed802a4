// Package wikitest serves a miniature copy of the wiki for tests: the five
// listing pages, their detail pages and the images they reference.
package wikitest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Pages maps request paths to HTML. Paths are as they appear in hrefs.
var Pages = map[string]string{
	"/NPCs":              npcs,
	"/Pascal":            detail(`<tr><td>Gender</td><td>Male</td></tr>`, `Pascal&nbsp;is a peaceful machine who leads a <a href="/Pascals+Village">village</a>.`),
	"/Emil":              detail(`<tr><td>Gender</td><td>??</td></tr>`, `A cheerful merchant.`),
	"/Jackass":           detail(`<tr><td>Gender</td><td>Female</td></tr>`, `A reckless resistance member.`),
	"/Locations":         locations,
	"/City+Ruins":        locationDetail(`The ruins of a city.`, "??", "Forest Zone"),
	"/Forest+Zone":       locationDetail(`A forest kingdom.`, "City Ruins", "None"),
	"/Battle+Arena":      locationDetail(`An arena for DLC fights.`, "N/A", "nothing"),
	"/Bunker":            locationDetail(`Orbital base of YoRHa.`, "", "City Ruins"),
	"/Resistance+Camp":   locationDetail(`Camp of the resistance.`, "City Ruins", "Pascals Village"),
	"/Main+Story+Quests": mainQuests,
	"/Side+Quests":       sideQuests,
	"/Fishing":           fishing,
}

// Images maps image paths to their bytes.
var Images = map[string][]byte{
	"/file/Nier-Automata/pascal.png":   []byte("PNG:pascal"),
	"/file/Nier-Automata/emil.png":     []byte("PNG:emil"),
	"/file/Nier-Automata/jackass.png":  []byte("PNG:jackass"),
	"/file/Nier-Automata/mackerel.png": []byte("PNG:mackerel"),
	"/file/Nier-Automata/battery.png":  []byte("PNG:battery"),
}

// Server is a running fake wiki that counts requests per path.
type Server struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

// NewServer starts the fake wiki. Call Close when done.
func NewServer() *Server {
	s := &Server{hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// BaseURL is the wiki root with a trailing slash.
func (s *Server) BaseURL() string { return s.URL + "/" }

// Hits returns how many times path was requested.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Total returns the number of requests served.
func (s *Server) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.hits {
		n += v
	}
	return n
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	p := r.URL.EscapedPath()
	s.mu.Lock()
	s.hits[p]++
	s.mu.Unlock()

	if img, ok := Images[p]; ok {
		w.Header().Set("Content-Type", "image/png")
		w.Write(img)
		return
	}
	if page, ok := Pages[p]; ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
		return
	}
	http.NotFound(w, r)
}

func tile(href, name, img string) string {
	var b strings.Builder
	b.WriteString(`<div class="col-sm-4">`)
	if img != "" {
		b.WriteString(`<a href="` + href + `"><img src="` + img + `" alt="` + name + `"></a>`)
	}
	b.WriteString(`<h3 style="text-align: center;"><a href="` + href + `">` + name + `</a></h3></div>`)
	return b.String()
}

func detail(rows, para string) string {
	return `<html><body><div id="wiki-content-block">
<table class="wiki_table"><tbody>` + rows + `</tbody></table>
<p>` + para + `</p><p>Second paragraph.</p>
</div></body></html>`
}

func locationDetail(info, prev, next string) string {
	return `<html><body><div class="row">
<div class="col-sm-4 col-md-3 col-md-push-9"><ul>
<li>Previous Location: ` + prev + `</li>
<li>Next Location: ` + next + `</li>
</ul></div>
<div id="wiki-content-block"><p>` + info + `</p></div>
</div></body></html>`
}

var npcs = `<html><body><div id="wiki-content-block">
<div class="row">` +
	tile("/Pascal", "Pascal", "/file/Nier-Automata/pascal.png") +
	tile("/Emil", "Emil", "/file/Nier-Automata/emil.png") + `
</div>
<div class="row">` +
	tile("/Jackass", "Jackass", "/file/Nier-Automata/jackass.png") + `
</div>
</div></body></html>`

var locations = `<html><body><div id="wiki-content-block">
<div class="row">` +
	tile("/City+Ruins", "City Ruins", "") +
	tile("/Forest+Zone", "Forest Zone", "") +
	tile("/Battle+Arena+(DLC)", "Battle Arena (DLC)", "") + `
</div>
<div class="row">` +
	tile("/Bunker", "Bunker", "") +
	tile("/Resistance+Camp", "Resistance Camp", "") + `
</div>
</div></body></html>`

var mainQuests = `<html><body><div id="wiki-content-block">
<table class="wiki_table"><tbody>
<tr><th>Quest</th><th>Client</th><th>Location</th><th>Reward</th></tr>
<tr><td><a href="/Investigate+City+Ruins">Investigate City Ruins</a></td><td>Command</td><td>City Ruins</td><td>1,000G</td></tr>
<tr><td><a href="/Defend+the+Village">Defend the Village</a></td><td>Pascal</td><td>Resistance Camp Inbox</td><td>none</td></tr>
</tbody></table>
<table class="wiki_table"><tbody>
<tr><th>Quest</th><th>Client</th><th>Location</th><th>Reward</th></tr>
<tr><td><a href="/Arena+Finals">Arena Finals</a></td><td>Default</td><td>Battle Arena</td><td>Chip&nbsp;x1</td></tr>
</tbody></table>
<table class="wiki_table"><tbody>
<tr><th>Quest</th><th>Location</th></tr>
<tr><td><a href="/Return+to+Orbit">Return to Orbit</a></td><td>The Bunker</td></tr>
</tbody></table>
</div></body></html>`

var sideQuests = `<html><body><div id="wiki-content-block">
<table class="wiki_table sortable"><tbody>
<tr><th>Quest</th><th>Location: Client</th><th>Reward</th></tr>
<tr><td><a href="/Emils+Memories">Emil's Memories</a></td><td>City Ruins: Emil</td><td>Memory Chip
5000G</td></tr>
<tr><td><a href="/Philosophers+Meeting">Philosopher's Meeting</a></td><td>City Ruins (Forest Camp): Jean-Paul</td><td>??</td></tr>
<tr><td><a href="/Lost+Child">Lost Child</a></td><td>Nowhere Plains: Kid</td><td>Small Recovery</td></tr>
</tbody></table>
</div></body></html>`

var fishing = `<html><body><div id="wiki-content-block">
<table class="wiki_table"><tbody>
<tr><th>Fish</th><th>Price</th><th>Location</th></tr>
<tr><td><a href="/Mackerel"><img src="/file/Nier-Automata/mackerel.png"></a><br><a href="/Mackerel">Mackerel</a></td>
<td><p>Sell</p><p>1,200G</p></td><td>City Ruins<br>Forest Zone</td></tr>
<tr><td><a href="/Broken+Battery"><img src="/file/Nier-Automata/battery.png"></a><a href="/Broken+Battery">Broken Battery</a></td>
<td><p>45G</p></td><td>Resistance Camp</td></tr>
</tbody></table>
</div></body></html>`
