package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DearthMap/DM-Backend/internal/middleware"
)

// callWithOrigin wraps a 200-OK inner handler in the CORS middleware,
// issues a request with the given Origin header, and returns the recording.
func callWithOrigin(t *testing.T, method, origin string) *httptest.ResponseRecorder {
	t.Helper()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.CORSMiddleware(inner)
	req := httptest.NewRequest(method, "/api/counties", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCORSAllowsKnownOrigin(t *testing.T) {
	rec := callWithOrigin(t, http.MethodGet, "http://localhost:3000")

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q, want the known origin echoed", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestCORSIgnoresUnknownOrigin(t *testing.T) {
	rec := callWithOrigin(t, http.MethodGet, "https://evil.example.com")

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q for unknown origin, want empty", got)
	}
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	rec := callWithOrigin(t, http.MethodOptions, "http://localhost:3000")

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
}
