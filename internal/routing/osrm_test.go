package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRouteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/route/v1/driving/") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"code":"Ok","routes":[{"duration":1845.3}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	seconds, err := c.Route(context.Background(), 34.05, -118.24, 36.17, -115.14)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if seconds != 1845.3 {
		t.Errorf("duration = %f, want 1845.3", seconds)
	}
}

func TestRouteErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	if _, err := c.Route(context.Background(), 0, 0, 1, 1); err == nil {
		t.Fatal("expected error for code=NoRoute")
	}
}

func TestRouteMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	if _, err := c.Route(context.Background(), 0, 0, 1, 1); err == nil {
		t.Fatal("expected error for malformed response")
	}
}

func TestRouteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	if _, err := c.Route(context.Background(), 0, 0, 1, 1); err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestRouteRetriesTransportFailureOnce(t *testing.T) {
	calls := 0
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// Hijack and drop the connection to force a transport error.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("server does not support hijacking")
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Fatalf("hijack: %v", err)
			}
			conn.Close()
			return
		}
		w.Write([]byte(`{"code":"Ok","routes":[{"duration":300}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	seconds, err := c.Route(context.Background(), 0, 0, 1, 1)
	if err != nil {
		t.Fatalf("Route after retry: %v", err)
	}
	if seconds != 300 {
		t.Errorf("duration = %f, want 300", seconds)
	}
	if calls != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", calls)
	}
}

func TestPing(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"Ok","routes":[{"duration":60}]}`))
	}))
	defer up.Close()

	if !NewClient(up.URL, 0).Ping(context.Background()) {
		t.Error("expected Ping true for healthy server")
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	if NewClient(down.URL, 0).Ping(context.Background()) {
		t.Error("expected Ping false for unhealthy server")
	}

	unreachable := NewClient("http://127.0.0.1:1", 0)
	if unreachable.Ping(context.Background()) {
		t.Error("expected Ping false for unreachable server")
	}
}
