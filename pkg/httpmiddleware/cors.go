package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists the origins allowed to make cross-origin requests.
	// An empty list, or the entry "*", allows any origin.
	AllowOrigins []string
	// AllowMethods defaults to the methods the API actually serves.
	AllowMethods []string
	// AllowHeaders lists request headers permitted on actual requests.
	AllowHeaders []string
	// AllowCredentials echoes the concrete origin instead of "*" so browsers
	// accept credentialed requests.
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds. Zero omits the header.
	MaxAge int
}

// CORS returns a middleware that answers preflight requests and attaches
// Access-Control headers to cross-origin responses.
func CORS(cfg CORSConfig) Middleware {
	wildcard := len(cfg.AllowOrigins) == 0
	origins := make(map[string]struct{}, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			wildcard = true
		}
		origins[strings.ToLower(o)] = struct{}{}
	}
	// A credentialed wildcard is rejected by browsers, so echo the request
	// origin instead.
	echoOrigin := cfg.AllowCredentials

	methods := strings.Join(cfg.AllowMethods, ", ")
	if methods == "" {
		methods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	}
	headers := strings.Join(cfg.AllowHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			w.Header().Add("Vary", "Origin")
			if origin == "" || !originAllowed(origin, wildcard, origins) {
				next.ServeHTTP(w, r)
				return
			}

			allow := "*"
			if echoOrigin || !wildcard {
				allow = origin
			}
			w.Header().Set("Access-Control-Allow-Origin", allow)
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Add("Vary", "Access-Control-Request-Method")
				w.Header().Add("Vary", "Access-Control-Request-Headers")
				w.Header().Set("Access-Control-Allow-Methods", methods)
				if headers != "" {
					w.Header().Set("Access-Control-Allow-Headers", headers)
				} else if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
					w.Header().Set("Access-Control-Allow-Headers", req)
				}
				if cfg.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, wildcard bool, origins map[string]struct{}) bool {
	if wildcard {
		return true
	}
	_, ok := origins[strings.ToLower(origin)]
	return ok
}
