package middleware

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
}

// AllowCORS opens a route up to browser players on other origins. DELETE is
// included so the cache eviction endpoints work from web consoles too.
func AllowCORS() func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		handler := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			setCORSHeaders(w)

			next(w, r, ps)
		}
		return handler
	}
}

// Preflight answers OPTIONS requests. Wired as the router's global OPTIONS
// handler so browser preflights for DELETE succeed without a per-route
// registration.
func Preflight() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		w.WriteHeader(http.StatusNoContent)
	})
}
