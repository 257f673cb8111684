// internal/matching/engine/engine.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"advisor-matching/internal/common/logger"
	"advisor-matching/internal/common/metrics"
	"advisor-matching/internal/common/observability"
	"advisor-matching/internal/matching"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// errBatchStopped ends the founder stream when cancellation is observed.
var errBatchStopped = errors.New("batch stopped")

type Config struct {
	TopN             int
	BatchConcurrency int
	UpsertTimeout    time.Duration
}

// Engine is the single matching entry point shared by every caller.
type Engine struct {
	config   *Config
	profiles ProfileSource
	results  ResultStore
	runs     RunTracker
	indexer  Indexer
	obs      *observability.Observability
	ranker   *matching.Ranker
	logger   logger.Logger
	newRunID func() string
	now      func() time.Time

	// batchActive allows one RunBatch at a time per process.
	batchActive atomic.Bool
}

type Option func(*Engine)

func WithRunTracker(r RunTracker) Option {
	return func(e *Engine) { e.runs = r }
}

func WithIndexer(i Indexer) Option {
	return func(e *Engine) { e.indexer = i }
}

func WithObservability(o *observability.Observability) Option {
	return func(e *Engine) { e.obs = o }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithRunIDs(gen func() string) Option {
	return func(e *Engine) { e.newRunID = gen }
}

func New(
	config *Config,
	ranker *matching.Ranker,
	profiles ProfileSource,
	results ResultStore,
	log logger.Logger,
	opts ...Option,
) *Engine {
	if config.TopN <= 0 {
		config.TopN = 20
	}
	if config.BatchConcurrency <= 0 {
		config.BatchConcurrency = 4
	}

	e := &Engine{
		config:   config,
		profiles: profiles,
		results:  results,
		ranker:   ranker,
		logger:   log.WithFields(map[string]interface{}{"component": "matching-engine"}),
		newRunID: func() string { return uuid.New().String() },
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dispatch routes a request to pair, single-founder or batch mode.
func (e *Engine) Dispatch(ctx context.Context, req Request) (*Response, error) {
	mode, err := req.Mode()
	if err != nil {
		return nil, fmt.Errorf("advisorId %q given without founderId: %w", req.AdvisorID, err)
	}

	ctx, span := e.obs.StartSpan(ctx, "matching."+string(mode),
		attribute.String("founderId", req.FounderID),
		attribute.String("advisorId", req.AdvisorID),
	)
	defer span.End()

	start := time.Now()
	resp, err := e.dispatch(ctx, mode, req)

	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
	}
	e.obs.RecordRun(ctx, string(mode), status)
	e.obs.RecordRunDuration(ctx, time.Since(start), string(mode))

	return resp, err
}

func (e *Engine) dispatch(ctx context.Context, mode Mode, req Request) (*Response, error) {
	switch mode {
	case ModePair:
		res, err := e.CalculatePair(ctx, req.FounderID, req.AdvisorID)
		if err != nil {
			return nil, err
		}
		return &Response{Mode: mode, Matches: []matching.MatchResult{res}, TotalCalculated: 1}, nil

	case ModeSingle:
		top, total, err := e.CalculateForFounder(ctx, req.FounderID)
		if err != nil {
			return nil, err
		}
		return &Response{Mode: mode, Matches: top, TotalCalculated: total}, nil

	default:
		run, err := e.RunBatch(ctx)
		if err != nil {
			return nil, err
		}
		return &Response{Mode: mode, TotalCalculated: run.ProcessedCalculations, Batch: run}, nil
	}
}

// ==========================
// Pair mode
// ==========================

// CalculatePair scores and upserts a single founder/advisor pair.
func (e *Engine) CalculatePair(ctx context.Context, founderID, advisorID string) (matching.MatchResult, error) {
	facts, err := e.loadFounder(ctx, founderID)
	if err != nil {
		return matching.MatchResult{}, err
	}

	advisor, err := e.profiles.GetAdvisor(ctx, advisorID)
	if err != nil {
		return matching.MatchResult{}, e.queryError("advisor", advisorID, err)
	}
	normalized, skipped := e.ranker.NormalizeAdvisors([]matching.AdvisorCandidate{advisor})
	if len(skipped) > 0 {
		metrics.RecordsSkipped.WithLabelValues("advisor").Inc()
		return matching.MatchResult{}, fmt.Errorf("advisor %s has no profile: %w", advisorID, ErrNoEligibleAdvisors)
	}

	results, err := e.ranker.RankFacts(founderID, facts, normalized)
	if err != nil {
		return matching.MatchResult{}, err
	}

	if err := e.persist(ctx, results); err != nil {
		return matching.MatchResult{}, err
	}
	metrics.PairsComputed.WithLabelValues(string(ModePair)).Inc()

	e.logger.Info("Pair match calculated", map[string]interface{}{
		"founderId":    founderID,
		"advisorId":    advisorID,
		"overallScore": results[0].OverallScore,
	})

	return results[0], nil
}

// ==========================
// Single-founder mode
// ==========================

// CalculateForFounder ranks every active advisor for one founder, upserts all results and
// returns the top N together with the number of pairs scored.
func (e *Engine) CalculateForFounder(ctx context.Context, founderID string) ([]matching.MatchResult, int, error) {
	start := time.Now()

	facts, err := e.loadFounder(ctx, founderID)
	if err != nil {
		return nil, 0, err
	}

	advisors, err := e.loadAdvisors(ctx)
	if err != nil {
		return nil, 0, err
	}

	results, err := e.ranker.RankFacts(founderID, facts, advisors)
	if err != nil {
		return nil, 0, err
	}

	if err := e.persist(ctx, results); err != nil {
		return nil, 0, err
	}
	metrics.PairsComputed.WithLabelValues(string(ModeSingle)).Add(float64(len(results)))

	top := matching.TopN(results, e.config.TopN)

	e.logger.Info("Founder matches calculated", map[string]interface{}{
		"founderId":       founderID,
		"totalCalculated": len(results),
		"returned":        len(top),
		"duration":        time.Since(start).String(),
	})

	return top, len(results), nil
}

// ==========================
// Batch mode
// ==========================

// RunBatch computes the full cross product of active founders and advisors. Founders are
// streamed and processed by a bounded pool; cancellation is honoured between founders and
// results already written stay written.
func (e *Engine) RunBatch(ctx context.Context) (*BatchResult, error) {
	if !e.batchActive.CompareAndSwap(false, true) {
		return nil, ErrBatchInProgress
	}
	defer e.batchActive.Store(false)

	run := &BatchResult{
		RunID:     e.newRunID(),
		StartedAt: e.now(),
	}
	log := e.logger.WithFields(map[string]interface{}{"runId": run.RunID})
	log.Info("Batch run started", map[string]interface{}{
		"concurrency": e.config.BatchConcurrency,
	})

	advisors, err := e.loadAdvisorsForBatch(ctx, run)
	if err != nil {
		return nil, err
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(e.config.BatchConcurrency)

	// In-flight founders finish even if ctx is cancelled; only new founders are refused.
	taskCtx := context.WithoutCancel(ctx)

	streamErr := e.profiles.EachActiveFounder(ctx, func(fc matching.FounderCandidate) error {
		if e.cancelRequested(ctx, run.StartedAt, log) {
			mu.Lock()
			run.Cancelled = true
			mu.Unlock()
			return errBatchStopped
		}

		facts, err := matching.NormalizeFounder(fc.Profile)
		if err != nil {
			log.Warn("Skipping founder without profile", map[string]interface{}{"founderId": fc.ID})
			metrics.RecordsSkipped.WithLabelValues("founder").Inc()
			mu.Lock()
			run.SkippedFounders++
			mu.Unlock()
			return nil
		}

		mu.Lock()
		run.TotalFounders++
		mu.Unlock()

		founderID := fc.ID
		g.Go(func() error {
			n, err := e.processFounder(taskCtx, founderID, facts, advisors)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				run.FailedFounders++
				log.Error("Founder failed in batch run", map[string]interface{}{
					"founderId": founderID,
					"error":     err.Error(),
				})
				return nil
			}
			run.ProcessedCalculations += n
			return nil
		})
		return nil
	})

	_ = g.Wait()

	run.FinishedAt = e.now()
	metrics.BatchDuration.Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())

	if streamErr != nil && !errors.Is(streamErr, errBatchStopped) {
		e.saveRun(ctx, run, log)
		return run, fmt.Errorf("%w: founder stream: %v", ErrProfileQuery, streamErr)
	}

	if run.TotalFounders == 0 && !run.Cancelled {
		e.saveRun(ctx, run, log)
		return nil, fmt.Errorf("batch run %s: %w", run.RunID, ErrNoEligibleFounders)
	}

	e.saveRun(ctx, run, log)

	log.Info("Batch run finished", map[string]interface{}{
		"processedCalculations": run.ProcessedCalculations,
		"totalFounders":         run.TotalFounders,
		"totalAdvisors":         run.TotalAdvisors,
		"skippedFounders":       run.SkippedFounders,
		"skippedAdvisors":       run.SkippedAdvisors,
		"failedFounders":        run.FailedFounders,
		"cancelled":             run.Cancelled,
		"duration":              run.FinishedAt.Sub(run.StartedAt).String(),
	})

	return run, nil
}

func (e *Engine) processFounder(ctx context.Context, founderID string, facts matching.FounderFacts, advisors []matching.NormalizedAdvisor) (int, error) {
	results, err := e.ranker.RankFacts(founderID, facts, advisors)
	if err != nil {
		return 0, err
	}
	if err := e.persist(ctx, results); err != nil {
		return 0, err
	}
	metrics.PairsComputed.WithLabelValues(string(ModeBatch)).Add(float64(len(results)))
	return len(results), nil
}

func (e *Engine) loadAdvisorsForBatch(ctx context.Context, run *BatchResult) ([]matching.NormalizedAdvisor, error) {
	candidates, err := e.profiles.ListActiveAdvisors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list advisors: %v", ErrProfileQuery, err)
	}

	advisors, skipped := e.ranker.NormalizeAdvisors(candidates)
	run.TotalAdvisors = len(advisors)
	run.SkippedAdvisors = len(skipped)
	metrics.RecordsSkipped.WithLabelValues("advisor").Add(float64(len(skipped)))

	if len(advisors) == 0 {
		return nil, fmt.Errorf("batch run %s: %w", run.RunID, ErrNoEligibleAdvisors)
	}
	return advisors, nil
}

// cancelRequested honours only cancel requests made at or after startedAt, so a flag left
// by an earlier run is ignored without anyone having to clear it.
func (e *Engine) cancelRequested(ctx context.Context, startedAt time.Time, log logger.Logger) bool {
	if ctx.Err() != nil {
		return true
	}
	if e.runs == nil {
		return false
	}
	cancelled, err := e.runs.CancelRequested(ctx, startedAt)
	if err != nil {
		log.Warn("Failed to read cancel flag", map[string]interface{}{"error": err.Error()})
		return false
	}
	return cancelled
}

func (e *Engine) saveRun(ctx context.Context, run *BatchResult, log logger.Logger) {
	if e.runs == nil {
		return
	}
	if err := e.runs.SaveRun(context.WithoutCancel(ctx), *run); err != nil {
		log.Warn("Failed to save batch run summary", map[string]interface{}{"error": err.Error()})
	}
}

// ==========================
// Shared helpers
// ==========================

func (e *Engine) loadFounder(ctx context.Context, founderID string) (matching.FounderFacts, error) {
	founder, err := e.profiles.GetFounder(ctx, founderID)
	if err != nil {
		return matching.FounderFacts{}, e.queryError("founder", founderID, err)
	}

	facts, err := matching.NormalizeFounder(founder.Profile)
	if err != nil {
		metrics.RecordsSkipped.WithLabelValues("founder").Inc()
		return matching.FounderFacts{}, fmt.Errorf("founder %s has no profile: %w", founderID, ErrNoEligibleFounders)
	}
	return facts, nil
}

func (e *Engine) loadAdvisors(ctx context.Context) ([]matching.NormalizedAdvisor, error) {
	candidates, err := e.profiles.ListActiveAdvisors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list advisors: %v", ErrProfileQuery, err)
	}

	advisors, skipped := e.ranker.NormalizeAdvisors(candidates)
	metrics.RecordsSkipped.WithLabelValues("advisor").Add(float64(len(skipped)))

	if len(advisors) == 0 {
		return nil, ErrNoEligibleAdvisors
	}
	return advisors, nil
}

func (e *Engine) queryError(kind, id string, err error) error {
	if errors.Is(err, matching.ErrProfileNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}
	return fmt.Errorf("%w: %s %s: %v", ErrProfileQuery, kind, id, err)
}

func (e *Engine) persist(ctx context.Context, results []matching.MatchResult) error {
	if len(results) == 0 {
		return nil
	}

	if e.config.UpsertTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.UpsertTimeout)
		defer cancel()
	}

	changed, err := e.results.UpsertResults(ctx, results)
	if err != nil {
		metrics.UpsertFailures.Inc()
		return fmt.Errorf("%w: %v", ErrUpsertFailed, err)
	}

	e.logger.Debug("Match results upserted", map[string]interface{}{
		"founderId": results[0].FounderID,
		"written":   len(results),
		"changed":   changed,
	})

	if e.indexer != nil {
		if err := e.indexer.IndexResults(ctx, results); err != nil {
			e.logger.Warn("Failed to index match results", map[string]interface{}{
				"founderId": results[0].FounderID,
				"error":     err.Error(),
			})
		}
	}
	return nil
}
