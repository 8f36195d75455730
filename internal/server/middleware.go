// Package server provides the HTTP middleware shared by the check server:
// CORS, security headers, content-type checks and request timing.
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/FocuswithJustin/tcvalidate/internal/logging"
)

// CORSConfig holds CORS middleware configuration.
type CORSConfig struct {
	AllowedOrigins []string // empty = allow all (*)
}

// CORS adds CORS headers to responses. With no AllowedOrigins every origin
// is accepted; otherwise the request Origin must be listed and preflight
// requests from other origins are refused.
func CORS(cfg CORSConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowedOrigin := "*"
		if len(cfg.AllowedOrigins) > 0 {
			if !OriginListed(origin, cfg.AllowedOrigins) {
				// Without CORS headers the browser blocks the response.
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			allowedOrigin = origin
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")
		if allowedOrigin != "*" {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// OriginListed reports whether origin matches one of allowed. An entry of
// "*" matches anything and "*.example.org" matches any subdomain of
// example.org over either scheme.
func OriginListed(origin string, allowed []string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		switch {
		case a == "*" || a == origin:
			return true
		case strings.HasPrefix(a, "*."):
			host := origin
			if i := strings.Index(host, "://"); i >= 0 {
				host = host[i+3:]
			}
			if strings.HasSuffix(host, a[1:]) {
				return true
			}
		}
	}
	return false
}

// CSPConfig holds Content-Security-Policy configuration.
type CSPConfig struct {
	DefaultSrc     []string
	ConnectSrc     []string
	FrameAncestors []string
	BaseURI        []string
	FormAction     []string
}

// APICSPConfig returns a strict policy for JSON endpoints, which never
// load resources themselves.
func APICSPConfig() CSPConfig {
	return CSPConfig{
		DefaultSrc:     []string{"'none'"},
		FrameAncestors: []string{"'none'"},
		BaseURI:        []string{"'none'"},
		FormAction:     []string{"'none'"},
	}
}

// BuildCSPHeader builds a Content-Security-Policy header value.
func (cfg CSPConfig) BuildCSPHeader() string {
	var directives []string
	add := func(name string, values []string) {
		if len(values) > 0 {
			directives = append(directives, name+" "+strings.Join(values, " "))
		}
	}
	add("default-src", cfg.DefaultSrc)
	add("connect-src", cfg.ConnectSrc)
	add("frame-ancestors", cfg.FrameAncestors)
	add("base-uri", cfg.BaseURI)
	add("form-action", cfg.FormAction)
	return strings.Join(directives, "; ")
}

// SecurityHeaders adds the standard hardening headers plus the given CSP.
func SecurityHeaders(cfg CSPConfig, next http.Handler) http.Handler {
	csp := cfg.BuildCSPHeader()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if csp != "" {
			w.Header().Set("Content-Security-Policy", csp)
		}
		next.ServeHTTP(w, r)
	})
}

// ValidContentType reports whether the media type of contentType, ignoring
// parameters, is one of allowed.
func ValidContentType(contentType string, allowed ...string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.TrimSpace(mediaType)
	for _, a := range allowed {
		if strings.EqualFold(mediaType, a) {
			return true
		}
	}
	return false
}

// SlowRequestThreshold is the duration above which Timing logs a warning.
var SlowRequestThreshold = 2 * time.Second

// Timing logs requests that take longer than SlowRequestThreshold. Book
// package checks fetch many files, so the threshold is generous.
func Timing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if d := time.Since(start); d > SlowRequestThreshold {
			logging.WarnContext(r.Context(), "slow request",
				"method", r.Method,
				"path", r.URL.Path,
				"duration_ms", d.Milliseconds())
		}
	})
}
