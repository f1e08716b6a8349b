package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/domain"
	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/logger"
)

// DefaultMaxBodyChars is the documented body-text cap applied when no
// explicit limit is configured. Longer bodies are truncated, not rejected.
const DefaultMaxBodyChars = 5000

var (
	wikiTitleExpr  = regexp.MustCompile(`/wiki/([^/?#]+)`)
	whitespaceExpr = regexp.MustCompile(`\s+`)
)

// noiseSelectors are stripped from fetched documents before text extraction.
var noiseSelectors = []string{
	"script", "style", "noscript", "iframe", "form",
	"nav", "header", "footer", "aside",
}

// ExtractorService reduces one URL to clean title and body text. It never
// returns an error to callers; any retrieval or reduction problem becomes
// the failure variant of ArticleExtraction.
type ExtractorService struct {
	client       *resty.Client
	maxBodyChars int
}

// ExtractorConfig holds configuration for the extractor service.
type ExtractorConfig struct {
	Timeout      time.Duration
	MaxBodyChars int
	UserAgent    string
}

// NewExtractorService creates a new extractor service.
// Parameters:
//   - cfg: extractor configuration; nil uses defaults.
// Returns:
//   - *ExtractorService: initialized extractor.
func NewExtractorService(cfg *ExtractorConfig) *ExtractorService {
	if cfg == nil {
		cfg = &ExtractorConfig{}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	maxBodyChars := cfg.MaxBodyChars
	if maxBodyChars <= 0 {
		maxBodyChars = DefaultMaxBodyChars
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/115.0 Safari/537.36"
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("Accept-Language", "en-US,en;q=0.5")

	return &ExtractorService{
		client:       client,
		maxBodyChars: maxBodyChars,
	}
}

// MaxBodyChars returns the configured body-text cap.
func (s *ExtractorService) MaxBodyChars() int {
	return s.maxBodyChars
}

// Extract fetches one URL and reduces it to title and body text. Tolerates
// any input string without panicking; failures are reported in the result.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - rawURL: URL to fetch, normally validated at the submission boundary.
// Returns:
//   - domain.ArticleExtraction: success with title/body or failure with reason.
func (s *ExtractorService) Extract(ctx context.Context, rawURL string) domain.ArticleExtraction {
	url := normalizeURL(rawURL)

	// Wikipedia pages are fetched through the REST summary API; scraping
	// their full HTML yields mostly chrome
	if strings.Contains(strings.ToLower(url), "wikipedia.org") {
		return s.extractWikipedia(ctx, rawURL, url)
	}

	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		logger.FromContext(ctx).WithField(logger.FieldURL, url).Warnf("Fetch failed: %v", err)
		return domain.ExtractionFailure(rawURL, fmt.Sprintf("fetch failed: %v", err))
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		logger.FromContext(ctx).WithField(logger.FieldURL, url).Warnf("Fetch returned HTTP %d", resp.StatusCode())
		return domain.ExtractionFailure(rawURL, fmt.Sprintf("site returned HTTP %d", resp.StatusCode()))
	}

	title, body, err := reduceHTML(resp.String())
	if err != nil {
		return domain.ExtractionFailure(rawURL, fmt.Sprintf("parse failed: %v", err))
	}
	if body == "" {
		return domain.ExtractionFailure(rawURL, "no readable content")
	}
	if title == "" {
		title = "Untitled Article"
	}

	return domain.ExtractionSuccess(rawURL, title, truncateRunes(body, s.maxBodyChars))
}

// wikiSummaryResponse is the subset of the Wikipedia REST summary payload we use.
type wikiSummaryResponse struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

func (s *ExtractorService) extractWikipedia(ctx context.Context, rawURL, url string) domain.ArticleExtraction {
	match := wikiTitleExpr.FindStringSubmatch(url)
	if match == nil {
		return domain.ExtractionFailure(rawURL, "could not determine Wikipedia page title")
	}
	apiURL := "https://en.wikipedia.org/api/rest_v1/page/summary/" + match[1]

	var summary wikiSummaryResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&summary).
		Get(apiURL)
	if err != nil {
		return domain.ExtractionFailure(rawURL, fmt.Sprintf("wikipedia api failed: %v", err))
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return domain.ExtractionFailure(rawURL, fmt.Sprintf("wikipedia api returned HTTP %d", resp.StatusCode()))
	}
	if summary.Extract == "" {
		return domain.ExtractionFailure(rawURL, "no readable content")
	}

	title := summary.Title
	if title == "" {
		title = "Wikipedia Article"
	}
	return domain.ExtractionSuccess(rawURL, title, truncateRunes(summary.Extract, s.maxBodyChars))
}

// normalizeURL defaults scheme-less strings to https. Explicit schemes are
// preserved; the submission boundary already restricts them to http(s).
func normalizeURL(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "https://" + url
}

// reduceHTML applies a readability-style reduction: strip boilerplate
// elements, pick the best title candidate, and collapse the main content
// into plain text.
func reduceHTML(html string) (title, body string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}

	doc.Find(strings.Join(noiseSelectors, ", ")).Remove()

	title = strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
			title = strings.TrimSpace(og)
		}
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	// Prefer semantic containers; fall back to paragraph aggregation, then
	// to the whole body text
	for _, sel := range []string{"article", "main"} {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			body = node.Text()
			break
		}
	}
	if strings.TrimSpace(body) == "" {
		var parts []string
		doc.Find("p").Each(func(_ int, p *goquery.Selection) {
			if text := strings.TrimSpace(p.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		body = strings.Join(parts, " ")
	}
	if strings.TrimSpace(body) == "" {
		body = doc.Find("body").Text()
	}

	body = strings.TrimSpace(whitespaceExpr.ReplaceAllString(body, " "))
	return title, body, nil
}

// truncateRunes caps s at max runes. The cap counts characters, not bytes,
// so multi-byte content truncates at the same visible length.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
