package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelOff,
		"off":   LevelOff,
		"error": LevelError,
		"info":  LevelInfo,
		"debug": LevelDebug,
		"bogus": LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q)=%d want %d", in, got, want)
		}
	}
}

func TestRequestLogLevel_QueryOverride(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/status?log=debug", nil)
	if got := requestLogLevel(req); got != LevelDebug {
		t.Fatalf("got %d", got)
	}
	req = httptest.NewRequest(http.MethodGet, "/status?log=1", nil)
	if got := requestLogLevel(req); got != LevelDebug {
		t.Fatalf("got %d", got)
	}
}

func TestRequestLogLevel_HeaderOverride(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(req); got != LevelError {
		t.Fatalf("got %d", got)
	}
}
