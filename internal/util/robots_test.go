package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRobotsChecker_CrawlDelay(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		fetches++
		fmt.Fprint(w, "User-agent: Verifier\nCrawl-delay: 3\n\nUser-agent: *\nDisallow:\n")
	}))
	defer server.Close()

	rc := NewRobotsChecker(server.Client(), "Verifier/0.3 (+https://github.com/ppiankov/verifier)", time.Second)

	for i := 0; i < 2; i++ {
		delay, err := rc.CrawlDelay(context.Background(), server.URL+"/article/1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if delay != 3*time.Second {
			t.Errorf("expected 3s crawl delay, got %v", delay)
		}
	}
	if fetches != 1 {
		t.Errorf("expected robots.txt to be fetched once, got %d", fetches)
	}
}

func TestRobotsChecker_MissingRobots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	rc := NewRobotsChecker(server.Client(), "Verifier", time.Second)
	delay, err := rc.CrawlDelay(context.Background(), server.URL+"/x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delay != 0 {
		t.Errorf("expected no delay, got %v", delay)
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := map[string]string{
		"Verifier/0.3 (+https://x)": "Verifier",
		"curl":                      "curl",
		"":                          "",
	}
	for in, want := range tests {
		if got := NormalizeUserAgent(in); got != want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", in, got, want)
		}
	}
}
