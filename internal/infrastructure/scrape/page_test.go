package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFindImageOGMeta(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
<meta property="og:image" content="http://cdn.example.com/lead.jpg"/>
<meta name="twitter:image" content="http://cdn.example.com/tw.jpg"/>
</head><body></body></html>`))
	}))
	defer server.Close()

	s := NewPageScraper(server.Client())

	got, err := s.FindImage(context.Background(), server.URL+"/story")
	if err != nil {
		t.Fatalf("FindImage error: %v", err)
	}
	if got != "http://cdn.example.com/lead.jpg" {
		t.Fatalf("unexpected image url: %q", got)
	}
}

func TestFindImageResolvesRelative(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
<meta property="og:image" content="/uploads/lead.jpg"/>
</head></html>`))
	}))
	defer server.Close()

	s := NewPageScraper(server.Client())

	got, err := s.FindImage(context.Background(), server.URL+"/news/story")
	if err != nil {
		t.Fatalf("FindImage error: %v", err)
	}
	if got != server.URL+"/uploads/lead.jpg" {
		t.Fatalf("unexpected resolved url: %q", got)
	}
}

func TestFindImageNoMeta(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>bare</title></head></html>`))
	}))
	defer server.Close()

	s := NewPageScraper(server.Client())

	if _, err := s.FindImage(context.Background(), server.URL); err == nil {
		t.Fatal("expected error when page has no image meta")
	}
}

func TestFindImageSkipsSVG(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
<meta property="og:image" content="http://cdn.example.com/logo.svg"/>
<meta name="twitter:image" content="http://cdn.example.com/photo.jpg"/>
</head></html>`))
	}))
	defer server.Close()

	s := NewPageScraper(server.Client())

	got, err := s.FindImage(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FindImage error: %v", err)
	}
	if got != "http://cdn.example.com/photo.jpg" {
		t.Fatalf("expected svg to be skipped, got %q", got)
	}
}
