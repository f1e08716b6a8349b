package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestExtractor(maxBodyChars int) *ExtractorService {
	return NewExtractorService(&ExtractorConfig{
		Timeout:      5 * time.Second,
		MaxBodyChars: maxBodyChars,
	})
}

func TestExtract_Success(t *testing.T) {
	page := `<html><head><title>Go Concurrency Patterns</title></head><body>
		<nav>Home | About</nav>
		<article><p>Goroutines are cheap.</p><p>Channels orchestrate them.</p></article>
		<footer>copyright</footer>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	result := newTestExtractor(0).Extract(context.Background(), srv.URL)

	if !result.OK() {
		t.Fatalf("expected success, got failure: %s", result.FailureReason)
	}
	if result.SourceURL != srv.URL {
		t.Errorf("expected source URL %q, got %q", srv.URL, result.SourceURL)
	}
	if result.Title != "Go Concurrency Patterns" {
		t.Errorf("unexpected title %q", result.Title)
	}
	if !strings.Contains(result.BodyText, "Goroutines are cheap.") {
		t.Errorf("body missing article text: %q", result.BodyText)
	}
	if strings.Contains(result.BodyText, "Home | About") {
		t.Errorf("body still contains navigation text: %q", result.BodyText)
	}
	if strings.Contains(result.BodyText, "copyright") {
		t.Errorf("body still contains footer text: %q", result.BodyText)
	}
}

func TestExtract_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	result := newTestExtractor(0).Extract(context.Background(), srv.URL)

	if result.OK() {
		t.Fatal("expected failure for 404 response")
	}
	if !strings.Contains(result.FailureReason, "404") {
		t.Errorf("expected reason to mention status, got %q", result.FailureReason)
	}
}

func TestExtract_NoReadableContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Empty</title></head><body><script>var x=1;</script></body></html>`))
	}))
	defer srv.Close()

	result := newTestExtractor(0).Extract(context.Background(), srv.URL)

	if result.OK() {
		t.Fatalf("expected failure for empty page, got body %q", result.BodyText)
	}
	if result.FailureReason != "no readable content" {
		t.Errorf("unexpected reason %q", result.FailureReason)
	}
}

func TestExtract_UnreachableHost(t *testing.T) {
	svc := NewExtractorService(&ExtractorConfig{Timeout: 2 * time.Second})

	result := svc.Extract(context.Background(), "https://bad.invalid/x")

	if result.OK() {
		t.Fatal("expected failure for unreachable host")
	}
	if result.FailureReason == "" {
		t.Error("expected a diagnostic reason")
	}
	if result.SourceURL != "https://bad.invalid/x" {
		t.Errorf("failure must keep the submitted URL, got %q", result.SourceURL)
	}
}

func TestExtract_TruncatesBodyExactly(t *testing.T) {
	longWord := strings.Repeat("a", 8000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Long</title></head><body><article>` + longWord + `</article></body></html>`))
	}))
	defer srv.Close()

	result := newTestExtractor(5000).Extract(context.Background(), srv.URL)

	if !result.OK() {
		t.Fatalf("expected success, got %s", result.FailureReason)
	}
	if got := len([]rune(result.BodyText)); got != 5000 {
		t.Errorf("expected exactly 5000 characters after truncation, got %d", got)
	}
}

func TestReduceHTML_TitleFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		wantTitle string
	}{
		{
			name:      "title tag wins",
			html:      `<html><head><title>From Title</title><meta property="og:title" content="From OG"></head><body><p>x</p></body></html>`,
			wantTitle: "From Title",
		},
		{
			name:      "og title fallback",
			html:      `<html><head><meta property="og:title" content="From OG"></head><body><p>x</p></body></html>`,
			wantTitle: "From OG",
		},
		{
			name:      "h1 fallback",
			html:      `<html><body><h1>From H1</h1><p>x</p></body></html>`,
			wantTitle: "From H1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, _, err := reduceHTML(tt.html)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if title != tt.wantTitle {
				t.Errorf("expected title %q, got %q", tt.wantTitle, title)
			}
		})
	}
}

func TestReduceHTML_ParagraphFallback(t *testing.T) {
	html := `<html><body><div><p>First paragraph.</p><p>Second paragraph.</p></div></body></html>`

	_, body, err := reduceHTML(html)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "First paragraph. Second paragraph." {
		t.Errorf("unexpected body %q", body)
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "shorter than cap", in: "hello", max: 10, want: "hello"},
		{name: "exactly at cap", in: "hello", max: 5, want: "hello"},
		{name: "over cap", in: "hello world", max: 5, want: "hello"},
		{name: "multibyte counts runes", in: "héllo wörld", max: 5, want: "héllo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateRunes(tt.in, tt.max); got != tt.want {
				t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "https://example.com/a", want: "https://example.com/a"},
		{in: "http://example.com/a", want: "http://example.com/a"},
		{in: "example.com/a", want: "https://example.com/a"},
	}

	for _, tt := range tests {
		if got := normalizeURL(tt.in); got != tt.want {
			t.Errorf("normalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
