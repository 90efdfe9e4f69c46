package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSearchParsesInstantAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "GIL python" {
			t.Errorf("query lost: %q", got)
		}
		w.Write([]byte(`{
			"Heading": "Global interpreter lock",
			"AbstractText": "A GIL is a mechanism used in interpreters.",
			"AbstractURL": "https://en.wikipedia.org/wiki/GIL",
			"RelatedTopics": [
				{"Text": "CPython", "FirstURL": "https://en.wikipedia.org/wiki/CPython"},
				{"Text": ""},
				{"Text": "Threading", "FirstURL": "https://example.com/threading"}
			]
		}`))
	}))
	defer srv.Close()

	s := NewSearcher(Config{Endpoint: srv.URL, MaxResults: 2, Timeout: time.Second})
	results, err := s.Search(context.Background(), "GIL python")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected MaxResults cap at 2, got %d", len(results))
	}
	if results[0].Title != "Global interpreter lock" || results[0].URL == "" {
		t.Fatalf("abstract lost: %+v", results[0])
	}
	if results[1].Title != "CPython" {
		t.Fatalf("related topic lost: %+v", results[1])
	}
}

func TestSearchEmptyAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Heading": "", "AbstractText": "", "RelatedTopics": []}`))
	}))
	defer srv.Close()

	s := NewSearcher(Config{Endpoint: srv.URL})
	results, err := s.Search(context.Background(), "нечто без ответа")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %+v", results)
	}
}

func TestFormatAsEvidence(t *testing.T) {
	if FormatAsEvidence(nil) != "" {
		t.Fatal("empty results must format to empty string")
	}
	out := FormatAsEvidence([]Result{
		{Title: "GIL", Snippet: "interpreter lock", URL: "https://example.com"},
		{Title: "CPython"},
	})
	if !strings.Contains(out, "1. GIL") || !strings.Contains(out, "Source: https://example.com") {
		t.Fatalf("formatting wrong:\n%s", out)
	}
	if !strings.Contains(out, "2. CPython") {
		t.Fatalf("second result missing:\n%s", out)
	}
}

func TestDefaultConfigEnv(t *testing.T) {
	t.Setenv("COACH_WEB_SEARCH_ENABLED", "1")
	t.Setenv("COACH_WEB_SEARCH_MAX_RESULTS", "5")
	cfg := DefaultConfig()
	if !cfg.Enabled || cfg.MaxResults != 5 {
		t.Fatalf("env overrides lost: %+v", cfg)
	}
}
