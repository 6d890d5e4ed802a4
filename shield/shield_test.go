package shield

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hazyhaar/automata/kit"
)

func chain(h http.Handler) http.Handler {
	stack := APIStack(nil)
	for i := len(stack) - 1; i >= 0; i-- {
		h = stack[i](h)
	}
	return h
}

func TestAPIStack(t *testing.T) {
	// WHAT: HEAD reaches a GET handler, headers are set, the request id is
	// visible to the handler and echoed in the response.
	var seenMethod, seenID, seenTransport string
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenMethod = r.Method
		seenID = kit.GetRequestID(r.Context())
		seenTransport = kit.GetTransport(r.Context())
		if GetLogger(r.Context()) == nil {
			t.Error("no request logger")
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/api/quests", nil))

	if seenMethod != http.MethodGet {
		t.Fatalf("method = %q", seenMethod)
	}
	if seenID == "" || rec.Header().Get("X-Request-ID") != seenID {
		t.Fatalf("request id %q, header %q", seenID, rec.Header().Get("X-Request-ID"))
	}
	if seenTransport != "http" {
		t.Fatalf("transport = %q", seenTransport)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("headers = %v", rec.Header())
	}
}

func TestReadOnly_RejectsWrites(t *testing.T) {
	called := false
	h := chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/quests", nil))
	if rec.Code != http.StatusMethodNotAllowed || called {
		t.Fatalf("code = %d, called = %v", rec.Code, called)
	}
	if rec.Header().Get("Allow") != "GET, HEAD" {
		t.Fatalf("Allow = %q", rec.Header().Get("Allow"))
	}
}
