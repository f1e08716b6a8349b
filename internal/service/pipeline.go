package service

import (
	"context"
	"errors"
	"time"

	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/domain"
	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/logger"
)

// BriefStore is the durable job store consumed by the pipeline. Terminal
// writes must only transition records that are still processing and report
// whether this call performed the transition.
type BriefStore interface {
	MarkCompleted(ctx context.Context, id string, result *domain.ResearchBrief) (bool, error)
	MarkFailed(ctx context.Context, id string, reason string) (bool, error)
}

// Fetcher runs extraction over a batch of URLs.
type Fetcher interface {
	FetchAll(ctx context.Context, urls []string) map[string]domain.ArticleExtraction
}

// Synthesizer produces a validated ResearchBrief from extracted articles.
type Synthesizer interface {
	Synthesize(ctx context.Context, articles []domain.ArticleExtraction) (*domain.ResearchBrief, error)
}

// PipelineService owns the state machine for one brief: fetch the sources,
// synthesize, and perform the single terminal write. A run is detached from
// the request that created the job and carries its own store handle and
// deadline.
type PipelineService struct {
	store       BriefStore
	fetcher     Fetcher
	synthesizer Synthesizer
	jobTimeout  time.Duration
}

// PipelineConfig holds configuration for the pipeline service.
type PipelineConfig struct {
	JobTimeout time.Duration
}

// NewPipelineService creates a new pipeline service.
// Parameters:
//   - store: durable job store for terminal writes.
//   - fetcher: batch fetcher stage.
//   - synthesizer: brief synthesis stage.
//   - cfg: pipeline configuration; nil defaults the job timeout to 5 minutes.
// Returns:
//   - *PipelineService: initialized pipeline.
func NewPipelineService(store BriefStore, fetcher Fetcher, synthesizer Synthesizer, cfg *PipelineConfig) *PipelineService {
	jobTimeout := 5 * time.Minute
	if cfg != nil && cfg.JobTimeout > 0 {
		jobTimeout = cfg.JobTimeout
	}
	return &PipelineService{
		store:       store,
		fetcher:     fetcher,
		synthesizer: synthesizer,
		jobTimeout:  jobTimeout,
	}
}

// Run executes the pipeline for one brief. Intended to be launched with `go`
// after the submission handler persists the record; it derives its own
// context from context.Background() so it outlives the triggering request.
// Parameters:
//   - briefID: ID of the brief created by the submission boundary.
//   - urls: the brief's submitted URLs.
// Returns: none. Outcomes are written to the store; store failures on the
// terminal write are logged and leave the record processing.
func (s *PipelineService) Run(briefID string, urls []string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldBriefID:   briefID,
		logger.FieldComponent: "pipeline",
	})

	start := time.Now()
	logger.FromContext(ctx).WithField(logger.FieldCount, len(urls)).Info("Pipeline run started")

	results := s.fetcher.FetchAll(ctx, urls)
	successes := Successful(urls, results)
	if len(successes) == 0 {
		s.fail(ctx, briefID, ErrNoSourcesExtracted.Error())
		return
	}

	brief, err := s.synthesizer.Synthesize(ctx, successes)
	if err != nil {
		reason := "synthesis failed"
		var synthErr *SynthesisError
		if errors.As(err, &synthErr) {
			reason = synthErr.Error()
		}
		s.fail(ctx, briefID, reason)
		return
	}

	transitioned, err := s.store.MarkCompleted(ctx, briefID, brief)
	if err != nil {
		// The job stays processing; a supervisor outside this service is
		// responsible for noticing stuck jobs
		logger.FromContext(ctx).WithError(err).Error("Terminal write failed, brief left processing")
		return
	}
	if !transitioned {
		logger.CtxWarn(ctx, "Brief already reached a terminal state, result discarded")
		return
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldStatus:     string(domain.BriefStatusCompleted),
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
		"sources_used":         len(successes),
	}).Info("Pipeline run completed")
}

func (s *PipelineService) fail(ctx context.Context, briefID, reason string) {
	transitioned, err := s.store.MarkFailed(ctx, briefID, reason)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("Terminal write failed, brief left processing")
		return
	}
	if !transitioned {
		logger.CtxWarn(ctx, "Brief already reached a terminal state, failure discarded")
		return
	}
	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldStatus: string(domain.BriefStatusFailed),
		"reason":           reason,
	}).Info("Pipeline run failed")
}
