package nierwiki

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func apiServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc, _ := ingested(t)
	ts := httptest.NewServer(svc.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, ts *httptest.Server, path string, wantCode int, out any) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantCode {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s: status %d, want %d (%s)", path, resp.StatusCode, wantCode, body)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("GET %s: decode: %v", path, err)
		}
	}
}

func TestHTTP_Health(t *testing.T) {
	ts := apiServer(t)
	var body map[string]string
	getJSON(t, ts, "/health", http.StatusOK, &body)
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestHTTP_Queries(t *testing.T) {
	ts := apiServer(t)

	var quests []QuestRow
	getJSON(t, ts, "/api/quests?no_reward=true&category=main", http.StatusOK, &quests)
	if len(quests) != 2 || quests[0].Name != "Defend the Village" || quests[1].Name != "Return to Orbit" {
		t.Fatalf("quests = %+v", quests)
	}

	var fish []CatchableRow
	getJSON(t, ts, "/api/catchables?min_price=100", http.StatusOK, &fish)
	if len(fish) != 1 || fish[0].Name != "Mackerel" || len(fish[0].Locations) != 2 {
		t.Fatalf("catchables = %+v", fish)
	}

	var locs []LocationRow
	getJSON(t, ts, "/api/locations?catchable=Broken%20Battery", http.StatusOK, &locs)
	if len(locs) != 1 || locs[0].Name != "Resistance Camp" {
		t.Fatalf("locations = %+v", locs)
	}

	var chars []CharacterRow
	getJSON(t, ts, "/api/characters?name=emil", http.StatusOK, &chars)
	if len(chars) != 1 || chars[0].Gender != "" {
		t.Fatalf("characters = %+v", chars)
	}

	var stat statResponse
	getJSON(t, ts, "/api/stats/1", http.StatusOK, &stat)
	if stat.Stat != QuestsPerLocation || stat.Rows[0].Label != "City Ruins" || stat.Rows[0].Value != 3 {
		t.Fatalf("stat = %+v", stat)
	}

	var counts countsResponse
	getJSON(t, ts, "/api/counts", http.StatusOK, &counts)
	if counts.Links != 3 {
		t.Fatalf("counts = %+v", counts)
	}
}

func TestHTTP_BadInput(t *testing.T) {
	// WHAT: invalid parameters are 400 with a JSON error, never 500.
	ts := apiServer(t)
	for _, path := range []string{
		"/api/catchables?min_price=cheap",
		"/api/quests?no_giver=maybe",
		"/api/quests?category=epic",
		"/api/stats/9",
		"/api/images/quest/x",
		"/api/images/planet/x",
	} {
		var body map[string]string
		getJSON(t, ts, path, http.StatusBadRequest, &body)
		if body["error"] == "" {
			t.Errorf("GET %s: no error message", path)
		}
	}
}

func TestHTTP_Image(t *testing.T) {
	ts := apiServer(t)
	resp, err := http.Get(ts.URL + "/api/images/fish/mack")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "PNG:mackerel" {
		t.Fatalf("status %d body %q", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Image-Name") != "Mackerel" {
		t.Fatalf("X-Image-Name = %q", resp.Header.Get("X-Image-Name"))
	}

	getJSON(t, ts, "/api/images/npc/nobody", http.StatusNotFound, nil)
}
