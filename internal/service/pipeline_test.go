package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/domain"
)

// fakeBriefStore mimics the conditional terminal write of the real store:
// only a processing record transitions, and only once.
type fakeBriefStore struct {
	mu          sync.Mutex
	status      domain.BriefStatus
	result      *domain.ResearchBrief
	reason      string
	transitions int
	failWrites  bool
}

func newFakeBriefStore() *fakeBriefStore {
	return &fakeBriefStore{status: domain.BriefStatusProcessing}
}

func (f *fakeBriefStore) MarkCompleted(ctx context.Context, id string, result *domain.ResearchBrief) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return false, errors.New("store unavailable")
	}
	if f.status != domain.BriefStatusProcessing {
		return false, nil
	}
	f.status = domain.BriefStatusCompleted
	f.result = result
	f.transitions++
	return true, nil
}

func (f *fakeBriefStore) MarkFailed(ctx context.Context, id string, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return false, errors.New("store unavailable")
	}
	if f.status != domain.BriefStatusProcessing {
		return false, nil
	}
	f.status = domain.BriefStatusFailed
	f.reason = reason
	f.transitions++
	return true, nil
}

func (f *fakeBriefStore) snapshot() (domain.BriefStatus, *domain.ResearchBrief, string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, f.result, f.reason, f.transitions
}

// fakeFetcher fails every URL listed in failing and succeeds on the rest.
type fakeFetcher struct {
	failing map[string]bool
}

func (f *fakeFetcher) FetchAll(ctx context.Context, urls []string) map[string]domain.ArticleExtraction {
	results := make(map[string]domain.ArticleExtraction, len(urls))
	for _, url := range urls {
		if f.failing[url] {
			results[url] = domain.ExtractionFailure(url, "fetch failed: connection refused")
		} else {
			results[url] = domain.ExtractionSuccess(url, "Title", "body of "+url)
		}
	}
	return results
}

// fakeSynthesizer records its input and answers with a fixed brief or error.
type fakeSynthesizer struct {
	mu       sync.Mutex
	received []domain.ArticleExtraction
	calls    int
	brief    *domain.ResearchBrief
	err      error
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, articles []domain.ArticleExtraction) (*domain.ResearchBrief, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.received = articles
	if f.err != nil {
		return nil, f.err
	}
	return f.brief, nil
}

func sampleBrief() *domain.ResearchBrief {
	return &domain.ResearchBrief{
		Summary: "A summary.",
		KeyPoints: []domain.KeyPoint{
			{Text: "A point.", SourceURL: "https://example.com/a"},
		},
		ConflictingClaims:     []domain.ConflictingClaim{},
		VerificationChecklist: []string{"Verify the numbers."},
	}
}

func TestRun_AllSourcesSucceed(t *testing.T) {
	store := newFakeBriefStore()
	synth := &fakeSynthesizer{brief: sampleBrief()}
	pipeline := NewPipelineService(store, &fakeFetcher{}, synth, nil)

	pipeline.Run("brief-1", []string{"https://example.com/a", "https://example.com/b"})

	status, result, _, transitions := store.snapshot()
	if status != domain.BriefStatusCompleted {
		t.Fatalf("expected completed, got %s", status)
	}
	if result == nil || result.Summary != "A summary." {
		t.Errorf("unexpected persisted result: %+v", result)
	}
	if transitions != 1 {
		t.Errorf("expected exactly one terminal transition, got %d", transitions)
	}
	if synth.calls != 1 || len(synth.received) != 2 {
		t.Errorf("synthesizer saw %d calls with %d articles", synth.calls, len(synth.received))
	}
}

func TestRun_AllSourcesFail(t *testing.T) {
	store := newFakeBriefStore()
	synth := &fakeSynthesizer{brief: sampleBrief()}
	fetcher := &fakeFetcher{failing: map[string]bool{
		"https://example.com/a": true,
		"https://example.com/b": true,
	}}
	pipeline := NewPipelineService(store, fetcher, synth, nil)

	pipeline.Run("brief-2", []string{"https://example.com/a", "https://example.com/b"})

	status, _, reason, _ := store.snapshot()
	if status != domain.BriefStatusFailed {
		t.Fatalf("expected failed, got %s", status)
	}
	if reason != ErrNoSourcesExtracted.Error() {
		t.Errorf("unexpected failure reason %q", reason)
	}
	if synth.calls != 0 {
		t.Errorf("synthesizer must not run when nothing extracted, got %d calls", synth.calls)
	}
}

func TestRun_PartialFailureStillCompletes(t *testing.T) {
	store := newFakeBriefStore()
	synth := &fakeSynthesizer{brief: sampleBrief()}
	fetcher := &fakeFetcher{failing: map[string]bool{"https://example.com/b": true}}
	pipeline := NewPipelineService(store, fetcher, synth, nil)

	pipeline.Run("brief-3", []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"})

	status, _, _, _ := store.snapshot()
	if status != domain.BriefStatusCompleted {
		t.Fatalf("expected completed despite one failed source, got %s", status)
	}
	if len(synth.received) != 2 {
		t.Fatalf("expected synthesizer to receive only the 2 successes, got %d", len(synth.received))
	}
	if synth.received[0].SourceURL != "https://example.com/a" || synth.received[1].SourceURL != "https://example.com/c" {
		t.Errorf("successes out of submission order: %+v", synth.received)
	}
}

func TestRun_SynthesisErrorFailsJob(t *testing.T) {
	store := newFakeBriefStore()
	synth := &fakeSynthesizer{err: &SynthesisError{
		Kind:   SynthesisMissingField,
		Detail: "missing required field verification_checklist",
	}}
	pipeline := NewPipelineService(store, &fakeFetcher{}, synth, nil)

	pipeline.Run("brief-4", []string{"https://example.com/a"})

	status, _, reason, _ := store.snapshot()
	if status != domain.BriefStatusFailed {
		t.Fatalf("expected failed, got %s", status)
	}
	if !strings.Contains(reason, string(SynthesisMissingField)) {
		t.Errorf("failure reason %q does not carry the error kind", reason)
	}
}

func TestRun_TerminalRecordIsNotOverwritten(t *testing.T) {
	store := newFakeBriefStore()
	store.status = domain.BriefStatusFailed
	store.reason = "earlier failure"
	synth := &fakeSynthesizer{brief: sampleBrief()}
	pipeline := NewPipelineService(store, &fakeFetcher{}, synth, nil)

	pipeline.Run("brief-5", []string{"https://example.com/a"})

	status, result, reason, transitions := store.snapshot()
	if status != domain.BriefStatusFailed || reason != "earlier failure" {
		t.Errorf("terminal record was rewritten: status=%s reason=%q", status, reason)
	}
	if result != nil {
		t.Error("discarded result must not be persisted")
	}
	if transitions != 0 {
		t.Errorf("expected no transitions, got %d", transitions)
	}
}

func TestRun_StoreErrorLeavesRecordProcessing(t *testing.T) {
	store := newFakeBriefStore()
	store.failWrites = true
	synth := &fakeSynthesizer{brief: sampleBrief()}
	pipeline := NewPipelineService(store, &fakeFetcher{}, synth, nil)

	pipeline.Run("brief-6", []string{"https://example.com/a"})

	status, _, _, transitions := store.snapshot()
	if status != domain.BriefStatusProcessing {
		t.Errorf("expected record left processing on store error, got %s", status)
	}
	if transitions != 0 {
		t.Errorf("expected no transitions, got %d", transitions)
	}
}

func TestNewPipelineService_DefaultTimeout(t *testing.T) {
	pipeline := NewPipelineService(newFakeBriefStore(), &fakeFetcher{}, &fakeSynthesizer{}, nil)
	if pipeline.jobTimeout != 5*time.Minute {
		t.Errorf("expected 5m default job timeout, got %s", pipeline.jobTimeout)
	}

	pipeline = NewPipelineService(newFakeBriefStore(), &fakeFetcher{}, &fakeSynthesizer{}, &PipelineConfig{JobTimeout: time.Minute})
	if pipeline.jobTimeout != time.Minute {
		t.Errorf("expected configured job timeout, got %s", pipeline.jobTimeout)
	}
}
