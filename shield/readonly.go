package shield

import "net/http"

// ReadOnly admits GET and HEAD only. HEAD is rewritten to GET so routes
// registered with r.Get answer it; net/http drops the body. Anything else
// gets 405 with an Allow header.
func ReadOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
		case http.MethodHead:
			r.Method = http.MethodGet
		default:
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "read-only API", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}
