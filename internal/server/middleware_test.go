package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSAllowAll(t *testing.T) {
	handler := CORS(CORSConfig{}, okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if resp.Header.Get("Access-Control-Allow-Credentials") != "" {
		t.Error("credentials must not be allowed with a wildcard origin")
	}
}

func TestCORSRestrictedOrigins(t *testing.T) {
	handler := CORS(CORSConfig{AllowedOrigins: []string{"https://door43.org", "*.unfoldingword.org"}}, okHandler())

	tests := []struct {
		name        string
		method      string
		origin      string
		wantStatus  int
		wantOrigin  string
		credentials bool
	}{
		{name: "listed origin", method: http.MethodGet, origin: "https://door43.org", wantStatus: http.StatusOK, wantOrigin: "https://door43.org", credentials: true},
		{name: "wildcard subdomain", method: http.MethodGet, origin: "https://qa.unfoldingword.org", wantStatus: http.StatusOK, wantOrigin: "https://qa.unfoldingword.org", credentials: true},
		{name: "unlisted origin passes without headers", method: http.MethodGet, origin: "https://evil.example", wantStatus: http.StatusOK},
		{name: "unlisted preflight refused", method: http.MethodOptions, origin: "https://evil.example", wantStatus: http.StatusForbidden},
		{name: "listed preflight", method: http.MethodOptions, origin: "https://door43.org", wantStatus: http.StatusOK, wantOrigin: "https://door43.org", credentials: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/check/file", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials") == "true"; got != tt.credentials {
				t.Errorf("credentials = %v, want %v", got, tt.credentials)
			}
		})
	}
}

func TestOriginListed(t *testing.T) {
	tests := []struct {
		origin  string
		allowed []string
		want    bool
	}{
		{origin: "", allowed: []string{"*"}, want: false},
		{origin: "http://localhost:3000", allowed: []string{"*"}, want: true},
		{origin: "http://localhost:3000", allowed: []string{"http://localhost:3000"}, want: true},
		{origin: "http://localhost:3001", allowed: []string{"http://localhost:3000"}, want: false},
		{origin: "https://git.door43.org", allowed: []string{"*.door43.org"}, want: true},
		{origin: "https://door43.org.evil.example", allowed: []string{"*.door43.org"}, want: false},
	}
	for _, tt := range tests {
		if got := OriginListed(tt.origin, tt.allowed); got != tt.want {
			t.Errorf("OriginListed(%q, %v) = %v, want %v", tt.origin, tt.allowed, got, tt.want)
		}
	}
}

func TestBuildCSPHeader(t *testing.T) {
	got := APICSPConfig().BuildCSPHeader()
	want := "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"
	if got != want {
		t.Errorf("BuildCSPHeader() = %q, want %q", got, want)
	}
	if got := (CSPConfig{}).BuildCSPHeader(); got != "" {
		t.Errorf("empty config header = %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(CSPConfig{DefaultSrc: []string{"'self'"}, ConnectSrc: []string{"'self'", "ws:"}}, okHandler())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for name, want := range headers {
		if got := w.Header().Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if csp := w.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "connect-src 'self' ws:") {
		t.Errorf("Content-Security-Policy = %q", csp)
	}
}

func TestValidContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{contentType: "application/json", want: true},
		{contentType: "application/json; charset=utf-8", want: true},
		{contentType: "Application/JSON", want: true},
		{contentType: "text/plain", want: false},
		{contentType: "", want: false},
	}
	for _, tt := range tests {
		if got := ValidContentType(tt.contentType, "application/json"); got != tt.want {
			t.Errorf("ValidContentType(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}

func TestTiming(t *testing.T) {
	old := SlowRequestThreshold
	SlowRequestThreshold = 0
	t.Cleanup(func() {
		SlowRequestThreshold = old
	})

	called := false
	handler := Timing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if !called || w.Code != http.StatusAccepted {
		t.Errorf("handler called = %v, status = %d", called, w.Code)
	}
}
