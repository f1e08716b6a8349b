package service

import (
	"context"
	"errors"
	"sync"

	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/domain"
	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/logger"
)

// ErrNoSourcesExtracted signals that every URL in a batch failed extraction,
// leaving nothing to synthesize.
var ErrNoSourcesExtracted = errors.New("all sources failed extraction")

// Extractor reduces a single URL to an ArticleExtraction. Failures are
// reported inside the result, never as an error.
type Extractor interface {
	Extract(ctx context.Context, url string) domain.ArticleExtraction
}

// FetcherService runs the extractor over a batch of URLs with bounded
// concurrency. One URL's failure never aborts the others; the batch always
// yields exactly one result per input URL.
type FetcherService struct {
	extractor Extractor
	workers   int
}

// FetcherConfig holds configuration for the fetcher service.
type FetcherConfig struct {
	Workers int
}

// NewFetcherService creates a new fetcher service.
// Parameters:
//   - extractor: per-URL extractor.
//   - cfg: fetcher configuration; nil or non-positive workers defaults to 5.
// Returns:
//   - *FetcherService: initialized fetcher.
func NewFetcherService(extractor Extractor, cfg *FetcherConfig) *FetcherService {
	workers := 0
	if cfg != nil {
		workers = cfg.Workers
	}
	if workers <= 0 {
		workers = 5
	}
	return &FetcherService{
		extractor: extractor,
		workers:   workers,
	}
}

// FetchAll extracts every URL concurrently, up to the worker bound. Excess
// URLs queue behind the bound rather than being rejected.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - urls: batch of URLs to extract.
// Returns:
//   - map[string]domain.ArticleExtraction: exactly one entry per input URL.
func (s *FetcherService) FetchAll(ctx context.Context, urls []string) map[string]domain.ArticleExtraction {
	results := make(map[string]domain.ArticleExtraction, len(urls))
	if len(urls) == 0 {
		return results
	}

	urlsChan := make(chan string, len(urls))
	resultsChan := make(chan domain.ArticleExtraction, len(urls))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for url := range urlsChan {
				select {
				case <-ctx.Done():
					resultsChan <- domain.ExtractionFailure(url, "cancelled: "+ctx.Err().Error())
					continue
				default:
				}
				resultsChan <- s.extractor.Extract(ctx, url)
			}
		}()
	}

	// Duplicate URLs collapse into one map entry; extract each distinct URL once
	seen := make(map[string]struct{}, len(urls))
	dispatched := 0
	for _, url := range urls {
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		urlsChan <- url
		dispatched++
	}
	close(urlsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	succeeded := 0
	for result := range resultsChan {
		results[result.SourceURL] = result
		if result.OK() {
			succeeded++
		}
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		"total":     dispatched,
		"succeeded": succeeded,
		"failed":    dispatched - succeeded,
	}).Info("Batch fetch completed")

	return results
}

// Successful filters the batch result down to the successful extractions,
// preserving the submitted URL order.
// Parameters:
//   - urls: original submission order.
//   - results: FetchAll output.
// Returns:
//   - []domain.ArticleExtraction: successful extractions in input order.
func Successful(urls []string, results map[string]domain.ArticleExtraction) []domain.ArticleExtraction {
	successes := make([]domain.ArticleExtraction, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, url := range urls {
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		if result, ok := results[url]; ok && result.OK() {
			successes = append(successes, result)
		}
	}
	return successes
}
