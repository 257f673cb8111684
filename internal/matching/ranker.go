// internal/matching/ranker.go
package matching

import (
	"fmt"
	"sort"

	"advisor-matching/internal/common/logger"
)

// NormalizedAdvisor is an advisor whose profile has already been normalized, so a batch
// can reuse one advisor set across all founders.
type NormalizedAdvisor struct {
	ID    string
	Facts AdvisorFacts
}

// Ranking is the ordered result list plus the advisors that were dropped.
type Ranking struct {
	Results         []MatchResult
	SkippedAdvisors []string
}

type Ranker struct {
	aggregator *Aggregator
	logger     logger.Logger
}

func NewRanker(aggregator *Aggregator, log logger.Logger) *Ranker {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Ranker{
		aggregator: aggregator,
		logger:     log.WithFields(map[string]interface{}{"component": "ranker"}),
	}
}

// NormalizeAdvisors normalizes every candidate, returning the usable ones and the IDs of
// those without a profile.
func (r *Ranker) NormalizeAdvisors(candidates []AdvisorCandidate) ([]NormalizedAdvisor, []string) {
	out := make([]NormalizedAdvisor, 0, len(candidates))
	var skipped []string
	for _, c := range candidates {
		facts, err := NormalizeAdvisor(c.Profile)
		if err != nil {
			r.logger.Warn("Skipping advisor without profile", map[string]interface{}{
				"advisorId": c.ID,
			})
			skipped = append(skipped, c.ID)
			continue
		}
		out = append(out, NormalizedAdvisor{ID: c.ID, Facts: facts})
	}
	return out, skipped
}

// Rank scores the founder against every advisor candidate. A founder without a profile
// returns ErrProfileMissing.
func (r *Ranker) Rank(founder FounderCandidate, advisors []AdvisorCandidate) (Ranking, error) {
	facts, err := NormalizeFounder(founder.Profile)
	if err != nil {
		return Ranking{}, fmt.Errorf("founder %s: %w", founder.ID, err)
	}

	normalized, skipped := r.NormalizeAdvisors(advisors)
	results, err := r.RankFacts(founder.ID, facts, normalized)
	if err != nil {
		return Ranking{}, err
	}
	return Ranking{Results: results, SkippedAdvisors: skipped}, nil
}

// RankFacts scores pre-normalized advisors and orders them best first; ties go to the
// lexicographically smaller advisor ID.
func (r *Ranker) RankFacts(founderID string, f FounderFacts, advisors []NormalizedAdvisor) ([]MatchResult, error) {
	results := make([]MatchResult, 0, len(advisors))
	for _, a := range advisors {
		res, err := r.aggregator.Aggregate(founderID, a.ID, f, a.Facts)
		if err != nil {
			return nil, fmt.Errorf("aggregate %s/%s: %w", founderID, a.ID, err)
		}
		results = append(results, res)
	}

	SortResults(results)
	return results, nil
}

func SortResults(results []MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].OverallScore != results[j].OverallScore {
			return results[i].OverallScore > results[j].OverallScore
		}
		return results[i].AdvisorID < results[j].AdvisorID
	})
}

// TopN returns at most n leading results; n <= 0 returns all of them.
func TopN(results []MatchResult, n int) []MatchResult {
	if n <= 0 || n >= len(results) {
		return results
	}
	return results[:n]
}
