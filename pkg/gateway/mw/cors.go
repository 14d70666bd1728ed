package mw

import (
	"net/http"
	"strings"

	"github.com/samvaad-live/samvaad/pkg/gateway/config"
)

var corsAllowedMethods = "GET, POST, OPTIONS"

var corsAllowedHeaders = strings.Join([]string{
	"Content-Type",
	"X-Request-ID",
}, ", ")

var corsExposedHeaders = "X-Request-ID"

// allowOrigin reports whether origin may be served and the value to put in
// Access-Control-Allow-Origin. A "*" entry allows every origin.
func allowOrigin(allowed map[string]struct{}, origin string) (string, bool) {
	if origin == "" || len(allowed) == 0 {
		return "", false
	}
	if _, ok := allowed["*"]; ok {
		return "*", true
	}
	if _, ok := allowed[origin]; ok {
		return origin, true
	}
	return "", false
}

func CORS(cfg config.Config, next http.Handler) http.Handler {
	allowed := cfg.CORSAllowedOrigins
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))

		// Preflight: explicitly allow/deny so browser callers get deterministic behavior.
		if r.Method == http.MethodOptions && strings.TrimSpace(r.Header.Get("Access-Control-Request-Method")) != "" {
			value, ok := allowOrigin(allowed, origin)
			if !ok {
				http.Error(w, "cors preflight not allowed", http.StatusForbidden)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", value)
			if value != "*" {
				w.Header().Set("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", corsAllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if value, ok := allowOrigin(allowed, origin); ok {
			w.Header().Set("Access-Control-Allow-Origin", value)
			if value != "*" {
				w.Header().Set("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Expose-Headers", corsExposedHeaders)
		}

		next.ServeHTTP(w, r)
	})
}
