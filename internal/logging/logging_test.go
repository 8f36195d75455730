package logging

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// captureLogOutput redirects the global logger to a buffer while f runs.
func captureLogOutput(level Level, format Format, f func()) string {
	var buf bytes.Buffer
	InitLoggerTo(&buf, level, format)
	defer InitLogger(LevelInfo, FormatText)
	f()
	return buf.String()
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if got, err := ParseFormat("json"); err != nil || got != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, %v", got, err)
	}
	if got, err := ParseFormat(""); err != nil || got != FormatText {
		t.Errorf("ParseFormat(\"\") = %v, %v", got, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestInitLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		wantDebug bool
		wantInfo  bool
	}{
		{"debug", LevelDebug, true, true},
		{"info", LevelInfo, false, true},
		{"warn", LevelWarn, false, false},
		{"error", LevelError, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureLogOutput(tt.level, FormatJSON, func() {
				Debug("debug message")
				Info("info message")
			})
			if got := strings.Contains(out, "debug message"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(out, "info message"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}

func TestTimestampFormat(t *testing.T) {
	out := captureLogOutput(LevelInfo, FormatJSON, func() {
		Info("x")
	})
	// RFC3339 timestamps end with a zone designator and carry no fractional seconds.
	if !strings.Contains(out, `"time":"`) || strings.Contains(out, ".000") {
		t.Errorf("unexpected timestamp in %s", out)
	}
}

func TestContextIDs(t *testing.T) {
	ctx := WithSessionID(WithRequestID(context.Background(), "req-1"), "sess-1")
	if got := GetRequestID(ctx); got != "req-1" {
		t.Errorf("GetRequestID() = %q, want %q", got, "req-1")
	}
	if got := GetSessionID(ctx); got != "sess-1" {
		t.Errorf("GetSessionID() = %q, want %q", got, "sess-1")
	}
	if got := GetSessionID(context.Background()); got != "" {
		t.Errorf("GetSessionID() on empty context = %q", got)
	}

	out := captureLogOutput(LevelInfo, FormatJSON, func() {
		InfoContext(ctx, "with ids")
	})
	if !strings.Contains(out, `"request_id":"req-1"`) || !strings.Contains(out, `"session_id":"sess-1"`) {
		t.Errorf("context IDs missing from %s", out)
	}
}

func TestNewSessionID(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	if len(a) != 36 {
		t.Errorf("NewSessionID() length = %d, want 36", len(a))
	}
	if a == b {
		t.Error("NewSessionID() returned duplicate IDs")
	}
}

func TestEventHelpers(t *testing.T) {
	ctx := WithSessionID(context.Background(), "s")
	tests := []struct {
		name  string
		log   func()
		wants []string
	}{
		{
			name:  "check started",
			log:   func() { CheckStarted(ctx, "repo", "unfoldingWord/en_tn") },
			wants: []string{`"msg":"check_started"`, `"kind":"repo"`, `"target":"unfoldingWord/en_tn"`},
		},
		{
			name:  "check finished",
			log:   func() { CheckFinished(ctx, "file", "en_tn_GEN.tsv", 4, 1, 1500*time.Millisecond) },
			wants: []string{`"msg":"check_finished"`, `"notice_count":4`, `"file_count":1`, `"duration_ms":1500`},
		},
		{
			name:  "fetch failed",
			log:   func() { FetchFailed(ctx, "unfoldingWord", "en_ta", "translate/x/01.md", "master", errors.New("boom")) },
			wants: []string{`"msg":"fetch_failed"`, `"error":"boom"`, `"path":"translate/x/01.md"`},
		},
		{
			name:  "link checked",
			log:   func() { LinkChecked(ctx, "en_tw/bible/kt/god.md", true) },
			wants: []string{`"msg":"link_checked"`, `"cached":true`},
		},
		{
			name:  "cache cleared",
			log:   func() { CacheCleared(ctx, "checked", 12) },
			wants: []string{`"msg":"cache_cleared"`, `"entries":12`},
		},
		{
			name:  "websocket",
			log:   func() { WebSocketEvent("client_connected", 2) },
			wants: []string{`"msg":"websocket_event"`, `"client_count":2`},
		},
		{
			name:  "server startup",
			log:   func() { ServerStartup("api", "http", 8080) },
			wants: []string{`"msg":"server_startup"`, `"port":8080`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureLogOutput(LevelDebug, FormatJSON, tt.log)
			for _, want := range tt.wants {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %s: %s", want, out)
				}
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if seen == "" || rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("generated request ID not propagated: ctx=%q header=%q", seen, rec.Header().Get("X-Request-ID"))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "given")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "given" {
		t.Errorf("request ID = %q, want %q", seen, "given")
	}
}

func TestLoggingMiddleware(t *testing.T) {
	handler := CombinedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("x"))
	}))

	rec := httptest.NewRecorder()
	out := captureLogOutput(LevelInfo, FormatJSON, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/check/file", nil))
	})
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	for _, want := range []string{`"msg":"http_request"`, `"status_code":418`, `"path":"/api/check/file"`, `"request_id":`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}
