package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// #region types

// Result holds a single search result.
type Result struct {
	Title   string
	Snippet string
	URL     string
}

// Config holds web search parameters.
type Config struct {
	Endpoint   string
	MaxResults int
	Timeout    time.Duration
	Enabled    bool
}

// #endregion types

// #region config

const defaultEndpoint = "https://api.duckduckgo.com/"

// DefaultConfig returns default web search configuration.
// Reads from env vars: COACH_WEB_SEARCH_ENABLED, COACH_WEB_SEARCH_ENDPOINT,
// COACH_WEB_SEARCH_MAX_RESULTS, COACH_WEB_SEARCH_TIMEOUT.
func DefaultConfig() Config {
	cfg := Config{
		Endpoint:   defaultEndpoint,
		MaxResults: 3,
		Timeout:    10 * time.Second,
		Enabled:    false,
	}
	if v := os.Getenv("COACH_WEB_SEARCH_ENABLED"); v != "" {
		cfg.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("COACH_WEB_SEARCH_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("COACH_WEB_SEARCH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxResults = n
		}
	}
	if v := os.Getenv("COACH_WEB_SEARCH_TIMEOUT"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			cfg.Timeout = time.Duration(sec) * time.Second
		}
	}
	return cfg
}

// #endregion config

// #region searcher

// Searcher looks up supporting material for flagged claims through the
// DuckDuckGo instant-answer API.
type Searcher struct {
	cfg  Config
	http *http.Client
}

// NewSearcher builds a Searcher from the config.
func NewSearcher(cfg Config) *Searcher {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Searcher{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

type instantAnswer struct {
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	Heading       string `json:"Heading"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

// Search queries the instant-answer endpoint for a claim and returns up to
// MaxResults results. An empty slice is a valid outcome: many claims simply
// have no instant answer.
func (s *Searcher) Search(ctx context.Context, claim string) ([]Result, error) {
	q := url.Values{}
	q.Set("q", claim)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(s.cfg.Endpoint, "/")+"/?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search endpoint status %d", resp.StatusCode)
	}

	var ia instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&ia); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	var results []Result
	if ia.AbstractText != "" {
		results = append(results, Result{Title: ia.Heading, Snippet: ia.AbstractText, URL: ia.AbstractURL})
	}
	for _, rt := range ia.RelatedTopics {
		if len(results) >= s.cfg.MaxResults {
			break
		}
		if rt.Text == "" {
			continue
		}
		results = append(results, Result{Title: rt.Text, URL: rt.FirstURL})
	}
	return results, nil
}

// #endregion searcher

// #region format

// FormatAsEvidence converts search results to a text block suitable for
// injection into a fact-check prompt.
func FormatAsEvidence(results []Result) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("[Web Search Results]\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
		if r.URL != "" {
			fmt.Fprintf(&b, "   Source: %s\n", r.URL)
		}
	}
	return b.String()
}

// #endregion format
