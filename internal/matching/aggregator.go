// internal/matching/aggregator.go
package matching

import (
	"fmt"
	"math"
	"time"

	"advisor-matching/internal/common/errors"
	"advisor-matching/internal/common/logger"
)

var (
	ErrScoringFailed = errors.Sentinel(errors.ErrCodeScoringFailed)
)

const defaultSubScore = 50

// Aggregator turns facts into a MatchResult using the configured algorithm.
type Aggregator struct {
	algorithm Algorithm
	scorers   [criterionCount]Scorer
	logger    logger.Logger
	now       func() time.Time

	// OnFallback is called every time a pair degrades to the default result.
	OnFallback func(founderID, advisorID string, cause error)
}

func NewAggregator(algorithm Algorithm, log logger.Logger) (*Aggregator, error) {
	if err := algorithm.Validate(); err != nil {
		return nil, fmt.Errorf("invalid algorithm config: %w", err)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Aggregator{
		algorithm: algorithm,
		scorers:   DefaultScorers(),
		logger:    log.WithFields(map[string]interface{}{"component": "aggregator"}),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (a *Aggregator) Algorithm() Algorithm {
	return a.algorithm
}

// WithScorer replaces the scorer at position idx. Used by tests to inject failures.
func (a *Aggregator) WithScorer(idx int, s Scorer) *Aggregator {
	a.scorers[idx] = s
	return a
}

// WithClock overrides the timestamp source.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Aggregate scores one pair. Under fail_open it never returns an error.
func (a *Aggregator) Aggregate(founderID, advisorID string, f FounderFacts, ad AdvisorFacts) (MatchResult, error) {
	var (
		sub        [criterionCount]int
		rationales = make([]string, criterionCount)
	)

	for i, scorer := range a.scorers {
		res, err := runScorer(scorer, f, ad)
		if err != nil {
			err = fmt.Errorf("%s scorer: %w", CriterionNames[i], err)
			if a.algorithm.FailurePolicy == FailFast {
				a.logger.Error("Scoring failed", map[string]interface{}{
					"founderId": founderID,
					"advisorId": advisorID,
					"error":     err.Error(),
				})
				return MatchResult{}, fmt.Errorf("%w: %v", ErrScoringFailed, err)
			}
			return a.fallback(founderID, advisorID, err), nil
		}
		sub[i] = int(math.Round(res.Score * 100))
		rationales[i] = res.Rationale
	}

	return a.build(founderID, advisorID, sub, rationales), nil
}

func (a *Aggregator) fallback(founderID, advisorID string, cause error) MatchResult {
	a.logger.Warn("Scoring failed, using default match result", map[string]interface{}{
		"founderId": founderID,
		"advisorId": advisorID,
		"error":     cause.Error(),
	})
	if a.OnFallback != nil {
		a.OnFallback(founderID, advisorID, cause)
	}

	var sub [criterionCount]int
	rationales := make([]string, criterionCount)
	for i := range sub {
		sub[i] = defaultSubScore
		rationales[i] = fmt.Sprintf("scoring unavailable: %s", CriterionNames[i])
	}
	return a.build(founderID, advisorID, sub, rationales)
}

func (a *Aggregator) build(founderID, advisorID string, sub [criterionCount]int, rationales []string) MatchResult {
	return MatchResult{
		FounderID:         founderID,
		AdvisorID:         advisorID,
		OverallScore:      a.algorithm.Weights.Overall(sub),
		SectorScore:       sub[CriterionSector],
		TimezoneScore:     sub[CriterionTimezone],
		StageScore:        sub[CriterionStage],
		AvailabilityScore: sub[CriterionAvailability],
		ExperienceScore:   sub[CriterionExperience],
		Rationales:        rationales,
		AlgorithmVersion:  a.algorithm.Version,
		CalculatedAt:      a.now(),
	}
}

func runScorer(s Scorer, f FounderFacts, a AdvisorFacts) (res CriterionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	res = s(f, a)
	if math.IsNaN(res.Score) || math.IsInf(res.Score, 0) {
		return res, fmt.Errorf("non-finite score %v", res.Score)
	}
	if res.Score < 0 || res.Score > 1 {
		return res, fmt.Errorf("score %v out of range", res.Score)
	}
	return res, nil
}
