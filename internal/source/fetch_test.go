package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

const journeyJSON = `{"legs": [{"origin": {"id": "1", "name": "Beginn"}, "destination": {"id": "2", "name": "Ende"},
	"departure": "2021-10-16T22:00:00+02:00", "arrival": "2021-10-16T22:30:00+02:00", "mode": "train",
	"line": {"name": "RE 1", "product": "regional"}}]}`

func TestFetchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journey.json")
	if err := os.WriteFile(path, []byte(journeyJSON), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	f := NewFetcher(t.TempDir())
	j, err := f.Load(context.Background(), Source{File: path})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(j.Legs) != 1 || j.Legs[0].Origin.Name != "Beginn" {
		t.Errorf("Unexpected journey %+v", j)
	}
}

func TestFetchURLWithETagCache(t *testing.T) {
	var requests, notModified int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			atomic.AddInt32(&notModified, 1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(journeyJSON))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	src := Source{URL: srv.URL + "/journeys/abc?token=secret"}

	first, err := f.FetchOne(context.Background(), src)
	if err != nil {
		t.Fatalf("First fetch failed: %v", err)
	}
	if first.FromCache {
		t.Error("Expected first fetch from network")
	}

	second, err := f.FetchOne(context.Background(), src)
	if err != nil {
		t.Fatalf("Second fetch failed: %v", err)
	}
	if !second.FromCache || string(second.Body) != journeyJSON {
		t.Errorf("Expected cached body on 304, got fromCache=%v", second.FromCache)
	}
	if atomic.LoadInt32(&notModified) != 1 {
		t.Errorf("Expected one conditional request, got %d", notModified)
	}
}

func TestFetchURLFallsBackToCacheOnError(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "upstream down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(journeyJSON))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	src := Source{URL: srv.URL}

	if _, err := f.FetchOne(context.Background(), src); err != nil {
		t.Fatalf("Initial fetch failed: %v", err)
	}

	fail.Store(true)
	res, err := f.FetchOne(context.Background(), src)
	if err != nil {
		t.Fatalf("Expected cached fallback, got error: %v", err)
	}
	if !res.FromCache {
		t.Error("Expected FromCache on upstream error")
	}
}

func TestFetchURLErrorWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	if _, err := f.FetchOne(context.Background(), Source{URL: srv.URL}); err == nil {
		t.Error("Expected error for 404 without cache")
	}
}

func TestFetchEmptySource(t *testing.T) {
	if _, err := NewFetcher(t.TempDir()).FetchOne(context.Background(), Source{}); err == nil {
		t.Error("Expected error for empty source")
	}
}

func TestRedactURL(t *testing.T) {
	testCases := map[string]string{
		"https://v6.db.transport.rest/journeys/T%24A=1?stopovers=true": "https://v6.db.transport.rest/...(redacted)",
		"not a url":          "journey://...(redacted)",
		"":                   "journey://...(redacted)",
	}
	for in, expected := range testCases {
		if got := redactURL(in); got != expected {
			t.Errorf("redactURL(%q): expected %q, got %q", in, expected, got)
		}
	}
}
