package middleware

import (
	"net/http"
	"strings"
)

// CORS reflects the request origin when it is in allowed, or any origin when
// allowed is empty.
func CORS(next http.Handler, allowed ...string) http.Handler {
	set := OriginSet(allowed)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		switch {
		case origin == "" && len(set) == 0:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && OriginAllowed(origin, set):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// OriginAllowed reports whether origin passes an allow-list; an empty list
// allows everything.
func OriginAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[strings.TrimRight(origin, "/")]
	return ok
}

// OriginSet builds the lookup used by OriginAllowed.
func OriginSet(allowed []string) map[string]struct{} {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			set[o] = struct{}{}
		}
	}
	return set
}
