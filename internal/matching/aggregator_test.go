// internal/matching/aggregator_test.go
package matching

import (
	"math"
	"strings"
	"testing"
	"time"

	"advisor-matching/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestAggregator(t *testing.T, algo Algorithm) *Aggregator {
	agg, err := NewAggregator(algo, logger.NewTestLogger(t))
	require.NoError(t, err)
	return agg.WithClock(func() time.Time { return fixedNow })
}

func fintechFounder() FounderFacts {
	return FounderFacts{
		Sector:           "fintech",
		Stage:            StageGrowth,
		Location:         "New York, USA",
		CurrentChallenge: "struggling with fundraising and sales",
	}
}

func fintechAdvisor() AdvisorFacts {
	return AdvisorFacts{
		Expertise:           []string{"fintech", "payments"},
		ExperienceLevel:     LevelSenior,
		Timezone:            "America/New_York",
		ChallengePreference: "fundraising, sales strategy",
	}
}

// ==========================
// Algorithm config
// ==========================

func TestAlgorithm_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(a *Algorithm)
		wantErr string
	}{
		{name: "default is valid", mutate: func(a *Algorithm) {}},
		{name: "missing version", mutate: func(a *Algorithm) { a.Version = "" }, wantErr: "version"},
		{name: "weights off by a lot", mutate: func(a *Algorithm) { a.Weights.Sector = 0.5 }, wantErr: "sum to 1.0"},
		{name: "negative weight", mutate: func(a *Algorithm) { a.Weights.Sector = -0.1; a.Weights.Timezone = 0.6 }, wantErr: "non-negative"},
		{name: "unknown policy", mutate: func(a *Algorithm) { a.FailurePolicy = "retry" }, wantErr: "failure policy"},
		{name: "tiny float drift accepted", mutate: func(a *Algorithm) { a.Weights.Sector = 0.3000000001 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			algo := DefaultAlgorithm()
			tt.mutate(&algo)
			err := algo.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewAggregator_RejectsInvalidAlgorithm(t *testing.T) {
	algo := DefaultAlgorithm()
	algo.Weights.Experience = 0.5

	_, err := NewAggregator(algo, nil)
	assert.Error(t, err)
}

// ==========================
// Aggregation
// ==========================

func TestAggregate_FullProfile(t *testing.T) {
	agg := newTestAggregator(t, DefaultAlgorithm())

	res, err := agg.Aggregate("f-1", "a-1", fintechFounder(), fintechAdvisor())
	require.NoError(t, err)

	assert.Equal(t, "f-1", res.FounderID)
	assert.Equal(t, "a-1", res.AdvisorID)
	assert.Equal(t, 100, res.SectorScore)
	assert.Equal(t, 100, res.TimezoneScore)
	assert.Equal(t, 100, res.StageScore)
	assert.Equal(t, 67, res.AvailabilityScore)
	assert.Equal(t, 90, res.ExperienceScore)
	// 30 + 20 + 20 + 13.4 + 9 = 92.4
	assert.Equal(t, 92, res.OverallScore)
	assert.Len(t, res.Rationales, 5)
	assert.Equal(t, DefaultAlgorithmVersion, res.AlgorithmVersion)
	assert.Equal(t, fixedNow, res.CalculatedAt)
}

func TestAggregate_Scenarios(t *testing.T) {
	agg := newTestAggregator(t, DefaultAlgorithm())

	t.Run("fintech sector match", func(t *testing.T) {
		res, err := agg.Aggregate("f", "a",
			FounderFacts{Sector: "fintech"},
			AdvisorFacts{Expertise: []string{"fintech", "payments"}})
		require.NoError(t, err)
		assert.Equal(t, 100, res.SectorScore)
	})

	t.Run("scale founder with executive", func(t *testing.T) {
		res, err := agg.Aggregate("f", "a", FounderFacts{Stage: StageScale}, AdvisorFacts{ExperienceLevel: LevelExecutive})
		require.NoError(t, err)
		assert.Equal(t, 100, res.StageScore)
	})

	t.Run("scale founder with junior", func(t *testing.T) {
		res, err := agg.Aggregate("f", "a", FounderFacts{Stage: StageScale}, AdvisorFacts{ExperienceLevel: LevelJunior})
		require.NoError(t, err)
		assert.Equal(t, 40, res.StageScore)
	})

	t.Run("missing challenge text", func(t *testing.T) {
		res, err := agg.Aggregate("f", "a", FounderFacts{}, AdvisorFacts{ChallengePreference: "growth"})
		require.NoError(t, err)
		assert.Equal(t, 70, res.AvailabilityScore)
	})
}

func TestAggregate_MissingDataDegradesToNeutral(t *testing.T) {
	agg := newTestAggregator(t, DefaultAlgorithm())

	res, err := agg.Aggregate("f", "a", FounderFacts{}, AdvisorFacts{Expertise: []string{}})
	require.NoError(t, err)

	assert.Equal(t, 0, res.SectorScore)
	assert.Equal(t, 50, res.TimezoneScore)
	assert.Equal(t, 40, res.StageScore)
	assert.Equal(t, 70, res.AvailabilityScore)
	assert.Equal(t, 50, res.ExperienceScore)
	// 0 + 10 + 8 + 14 + 5 = 37
	assert.Equal(t, 37, res.OverallScore)
	for _, r := range res.Rationales {
		assert.NotEmpty(t, r)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	agg := newTestAggregator(t, DefaultAlgorithm())

	first, err := agg.Aggregate("f", "a", fintechFounder(), fintechAdvisor())
	require.NoError(t, err)
	second, err := agg.Aggregate("f", "a", fintechFounder(), fintechAdvisor())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAggregate_OverallReproducibleFromSubScores(t *testing.T) {
	agg := newTestAggregator(t, DefaultAlgorithm())
	w := DefaultWeights()

	founders := []FounderFacts{
		fintechFounder(),
		{},
		{Sector: "health", Stage: StageIdea, Location: "Berlin", CurrentChallenge: "tech hiring"},
		{Sector: "retail", Stage: StageMVP, Location: "Lagos", CurrentChallenge: "marketing"},
	}
	advisors := []AdvisorFacts{
		fintechAdvisor(),
		{Expertise: []string{}},
		{Expertise: []string{"healthcare"}, ExperienceLevel: LevelMid, Timezone: "Europe/Berlin", ChallengePreference: "hiring"},
		{Expertise: []string{"ecommerce"}, ExperienceLevel: LevelJunior, Timezone: "Africa/Lagos", ChallengePreference: "marketing product"},
	}

	for fi, f := range founders {
		for ai, a := range advisors {
			res, err := agg.Aggregate("f", "a", f, a)
			require.NoError(t, err)

			expected := math.Round(w.Sector*float64(res.SectorScore) +
				w.Timezone*float64(res.TimezoneScore) +
				w.Stage*float64(res.StageScore) +
				w.Availability*float64(res.AvailabilityScore) +
				w.Experience*float64(res.ExperienceScore))
			assert.InDelta(t, expected, float64(res.OverallScore), 1, "founder %d advisor %d", fi, ai)
			assert.Equal(t, w.Overall(res.SubScores()), res.OverallScore)
			assert.GreaterOrEqual(t, res.OverallScore, 0)
			assert.LessOrEqual(t, res.OverallScore, 100)
		}
	}
}

func TestWeights_OverallRoundsHalfUp(t *testing.T) {
	w := DefaultWeights()
	// 0.3*85 + 0.2*(50+50+50) + 0.1*50 = 25.5 + 30 + 5 = 60.5
	assert.Equal(t, 61, w.Overall([criterionCount]int{85, 50, 50, 50, 50}))
	assert.Equal(t, 100, w.Overall([criterionCount]int{100, 100, 100, 100, 100}))
	assert.Equal(t, 0, w.Overall([criterionCount]int{}))
}

// ==========================
// Failure policy
// ==========================

func TestAggregate_FailOpen(t *testing.T) {
	tests := []struct {
		name   string
		scorer Scorer
	}{
		{
			name:   "panicking scorer",
			scorer: func(FounderFacts, AdvisorFacts) CriterionResult { panic("boom") },
		},
		{
			name:   "nan score",
			scorer: func(FounderFacts, AdvisorFacts) CriterionResult { return CriterionResult{Score: math.NaN()} },
		},
		{
			name:   "out of range score",
			scorer: func(FounderFacts, AdvisorFacts) CriterionResult { return CriterionResult{Score: 1.5} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallbacks := 0
			agg := newTestAggregator(t, DefaultAlgorithm()).WithScorer(CriterionTimezone, tt.scorer)
			agg.OnFallback = func(string, string, error) { fallbacks++ }

			res, err := agg.Aggregate("f", "a", fintechFounder(), fintechAdvisor())
			require.NoError(t, err)

			assert.Equal(t, 1, fallbacks)
			assert.Equal(t, [criterionCount]int{50, 50, 50, 50, 50}, res.SubScores())
			assert.Equal(t, 50, res.OverallScore)
			require.Len(t, res.Rationales, 5)
			for _, r := range res.Rationales {
				assert.True(t, strings.HasPrefix(r, "scoring unavailable"), r)
			}
		})
	}
}

func TestAggregate_FailFast(t *testing.T) {
	algo := DefaultAlgorithm()
	algo.FailurePolicy = FailFast
	agg := newTestAggregator(t, algo).WithScorer(CriterionSector, func(FounderFacts, AdvisorFacts) CriterionResult {
		panic("sector table corrupted")
	})

	_, err := agg.Aggregate("f", "a", fintechFounder(), fintechAdvisor())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScoringFailed)
	assert.Contains(t, err.Error(), "sector")
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkAggregate(b *testing.B) {
	agg, _ := NewAggregator(DefaultAlgorithm(), logger.NewNoOpLogger())
	f, a := fintechFounder(), fintechAdvisor()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = agg.Aggregate("f", "a", f, a)
	}
}
