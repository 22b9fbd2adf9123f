package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSConfig controls cross-origin access to the API. Origins may be exact
// ("https://app.example.com"), "*" or a subdomain pattern ("*.example.com").
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAge         time.Duration
}

// DefaultCORSConfig allows no origins until configured.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", HeaderProfileID, HeaderRole},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         12 * time.Hour,
	}
}

type corsPolicy struct {
	any      bool
	exact    map[string]bool
	suffixes []string

	methods, headers, exposed, maxAge string
}

func newCORSPolicy(cfg CORSConfig) *corsPolicy {
	p := &corsPolicy{
		exact:   make(map[string]bool, len(cfg.AllowedOrigins)),
		methods: strings.Join(cfg.AllowedMethods, ", "),
		headers: strings.Join(cfg.AllowedHeaders, ", "),
		exposed: strings.Join(cfg.ExposedHeaders, ", "),
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(int(cfg.MaxAge.Seconds()))
	}
	for _, o := range cfg.AllowedOrigins {
		o = strings.ToLower(strings.TrimSpace(o))
		switch {
		case o == "*":
			p.any = true
		case strings.HasPrefix(o, "*."):
			p.suffixes = append(p.suffixes, o[1:])
		case o != "":
			p.exact[o] = true
		}
	}
	return p
}

func (p *corsPolicy) allows(origin string) bool {
	if p.any {
		return true
	}
	origin = strings.ToLower(origin)
	if p.exact[origin] {
		return true
	}
	for _, s := range p.suffixes {
		if strings.HasSuffix(origin, s) {
			return true
		}
	}
	return false
}

// CORS answers preflight requests and decorates responses for allowed
// origins. Credentials are never allowed: identity comes from the gateway.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	p := newCORSPolicy(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !p.allows(origin) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			if p.any {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				h.Set("Access-Control-Allow-Methods", p.methods)
				h.Set("Access-Control-Allow-Headers", p.headers)
				if p.maxAge != "" {
					h.Set("Access-Control-Max-Age", p.maxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if p.exposed != "" {
				h.Set("Access-Control-Expose-Headers", p.exposed)
			}
			next.ServeHTTP(w, r)
		})
	}
}
