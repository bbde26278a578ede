package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestJSONLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentLedger, Output: &buf})

	logger.WithScope("hh-1", "u-1").Info("Expense created", FieldEntityID, "exp-1", FieldAmountCents, int64(1250))
	logger.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	want := map[string]any{
		FieldComponent:   ComponentLedger,
		FieldHouseholdID: "hh-1",
		FieldUserID:      "u-1",
		FieldEntityID:    "exp-1",
		FieldAmountCents: float64(1250),
	}
	for k, v := range want {
		if rec[k] != v {
			t.Fatalf("%s = %v, want %v", k, rec[k], v)
		}
	}
}

func TestMiddlewareLogsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "text", Output: &buf})

	var fromCtx *Logger
	h := Middleware(logger, func(*http.Request) string { return "req-7" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = FromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts?x=1", nil))

	if fromCtx == nil || fromCtx.Component() != ComponentHTTP {
		t.Fatalf("handler did not get the request logger: %+v", fromCtx)
	}
	out := buf.String()
	for _, want := range []string{"level=WARN", "request_id=req-7", "status_code=404", "path=/api/accounts"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output %q missing %q", out, want)
		}
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("unexpected fallback logger: %+v", l)
	}
}
