// internal/matching/scorers_test.go
package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Sector
// ==========================

func TestScoreSector(t *testing.T) {
	tests := []struct {
		name      string
		sector    string
		expertise []string
		expected  float64
		rationale string
	}{
		{name: "exact match", sector: "fintech", expertise: []string{"fintech"}, expected: 1.0},
		{name: "case insensitive", sector: "FinTech", expertise: []string{"ai", "fintech"}, expected: 1.0},
		{name: "expertise contains sector", sector: "health", expertise: []string{"healthcare"}, expected: 1.0},
		{name: "sector contains expertise", sector: "b2b saas", expertise: []string{"saas"}, expected: 1.0},
		{name: "no overlap", sector: "agritech", expertise: []string{"fintech", "ai"}, expected: 0.3},
		{name: "no sector", sector: "", expertise: []string{"fintech"}, expected: 0.0, rationale: "no sector/expertise data"},
		{name: "no expertise", sector: "fintech", expertise: []string{}, expected: 0.0, rationale: "no sector/expertise data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ScoreSector(FounderFacts{Sector: tt.sector}, AdvisorFacts{Expertise: tt.expertise})
			assert.Equal(t, tt.expected, res.Score)
			assert.NotEmpty(t, res.Rationale)
			if tt.rationale != "" {
				assert.Equal(t, tt.rationale, res.Rationale)
			}
		})
	}
}

// ==========================
// Timezone
// ==========================

func TestRegionOf(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"America/New_York", "US"},
		{"New York, USA", "US"},
		{"PST", "US"},
		{"Europe/London", "UK"},
		{"London, UK", "UK"},
		{"Europe/Berlin", "Europe"},
		{"Paris, France", "Europe"},
		{"America/Sao_Paulo", "LATAM"},
		{"Mexico City", "LATAM"},
		{"Asia/Dubai", "Middle East"},
		{"Tel Aviv", "Middle East"},
		{"Africa/Lagos", "Africa"},
		{"Nairobi, Kenya", "Africa"},
		{"Australia/Sydney", "Oceania"},
		{"Pacific/Auckland", "Oceania"},
		{"Asia/Singapore", "APAC"},
		{"Bangalore, India", "APAC"},
		{"Atlantis", ""},
		{"Austin", "US"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, regionOf(tt.input))
		})
	}
}

func TestScoreTimezone(t *testing.T) {
	tests := []struct {
		name     string
		location string
		timezone string
		expected float64
	}{
		{name: "same region", location: "New York, USA", timezone: "America/New_York", expected: 1.0},
		{name: "uk pair", location: "London", timezone: "Europe/London", expected: 1.0},
		{name: "different regions", location: "London, UK", timezone: "Europe/Berlin", expected: 0.6},
		{name: "one side unknown", location: "Atlantis", timezone: "America/New_York", expected: 0.6},
		{name: "unknown regions substring", location: "Atlantis", timezone: "Atlantis Standard", expected: 1.0},
		{name: "unknown regions no overlap", location: "Atlantis", timezone: "Lemuria", expected: 0.6},
		{name: "missing location", location: "", timezone: "America/New_York", expected: 0.5},
		{name: "missing timezone", location: "Berlin", timezone: "", expected: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ScoreTimezone(FounderFacts{Location: tt.location}, AdvisorFacts{Timezone: tt.timezone})
			assert.Equal(t, tt.expected, res.Score)
			assert.NotEmpty(t, res.Rationale)
		})
	}
}

// ==========================
// Stage fit
// ==========================

func TestScoreStage(t *testing.T) {
	tests := []struct {
		stage    Stage
		level    ExperienceLevel
		expected float64
	}{
		{StageIdea, LevelJunior, 1.0},
		{StageIdea, LevelMid, 1.0},
		{StageIdea, LevelExecutive, 0.4},
		{StageMVP, LevelSenior, 1.0},
		{StageMVP, LevelExecutive, 0.4},
		{StageEarlyStage, LevelMid, 1.0},
		{StageEarlyStage, LevelJunior, 0.4},
		{StageGrowth, LevelSenior, 1.0},
		{StageGrowth, LevelMid, 0.4},
		{StageScale, LevelExecutive, 1.0},
		{StageScale, LevelJunior, 0.4},
		{Stage(""), LevelMid, 1.0},
		{Stage(""), LevelSenior, 0.4},
		{Stage("series_b"), LevelMid, 1.0},
		{StageGrowth, ExperienceLevel(""), 0.4},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage)+"/"+string(tt.level), func(t *testing.T) {
			res := ScoreStage(FounderFacts{Stage: tt.stage}, AdvisorFacts{ExperienceLevel: tt.level})
			assert.Equal(t, tt.expected, res.Score)
		})
	}
}

// ==========================
// Challenge / availability
// ==========================

func TestScoreChallenge(t *testing.T) {
	tests := []struct {
		name       string
		challenge  string
		preference string
		expected   float64
	}{
		{name: "full overlap", challenge: "Growth and sales", preference: "sales, growth", expected: 1.0},
		{name: "partial overlap", challenge: "struggling with fundraising and sales", preference: "fundraising, sales strategy", expected: 2.0 / 3.0},
		{name: "no overlap floors", challenge: "hiring", preference: "marketing", expected: 0.3},
		{name: "no vocabulary words", challenge: "everything is on fire", preference: "calm", expected: 0.3},
		{name: "missing founder text", challenge: "", preference: "growth", expected: 0.7},
		{name: "missing advisor text", challenge: "growth", preference: "  ", expected: 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ScoreChallenge(
				FounderFacts{CurrentChallenge: tt.challenge},
				AdvisorFacts{ChallengePreference: tt.preference},
			)
			assert.InDelta(t, tt.expected, res.Score, 1e-9)
			assert.NotEmpty(t, res.Rationale)
		})
	}
}

func TestScoreChallenge_MentionsWeeklyHours(t *testing.T) {
	hours := 4.5
	res := ScoreChallenge(FounderFacts{}, AdvisorFacts{WeeklyAvailableHours: &hours})

	assert.Equal(t, 0.7, res.Score)
	assert.Contains(t, res.Rationale, "4.5 h/week")
}

// ==========================
// Experience
// ==========================

func TestScoreExperience(t *testing.T) {
	tests := []struct {
		level    ExperienceLevel
		expected float64
	}{
		{LevelExecutive, 0.9},
		{LevelSenior, 0.9},
		{LevelMid, 0.7},
		{LevelJunior, 0.5},
		{ExperienceLevel(""), 0.5},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			res := ScoreExperience(FounderFacts{}, AdvisorFacts{ExperienceLevel: tt.level})
			assert.Equal(t, tt.expected, res.Score)
		})
	}
}

// ==========================
// Range
// ==========================

func TestScorers_StayInRange(t *testing.T) {
	founders := []FounderFacts{
		{},
		{Sector: "fintech", Stage: StageScale, Location: "London", CurrentChallenge: "growth"},
		{Sector: "x", Stage: Stage("weird"), Location: "nowhere", CurrentChallenge: "tech product sales"},
	}
	advisors := []AdvisorFacts{
		{},
		{Expertise: []string{"fintech"}, ExperienceLevel: LevelExecutive, Timezone: "Europe/London", ChallengePreference: "growth"},
		{Expertise: []string{"y"}, ExperienceLevel: ExperienceLevel("guru"), Timezone: "??", ChallengePreference: "finance"},
	}

	for _, f := range founders {
		for _, a := range advisors {
			for i, s := range DefaultScorers() {
				res := s(f, a)
				assert.GreaterOrEqual(t, res.Score, 0.0, CriterionNames[i])
				assert.LessOrEqual(t, res.Score, 1.0, CriterionNames[i])
				assert.NotEmpty(t, res.Rationale, CriterionNames[i])
			}
		}
	}
}
