// internal/matching/models.go
package matching

import "time"

// Stage is the normalized founder company stage.
type Stage string

const (
	StageIdea       Stage = "idea"
	StageMVP        Stage = "mvp"
	StageEarlyStage Stage = "early_stage"
	StageGrowth     Stage = "growth"
	StageScale      Stage = "scale"
)

// ExperienceLevel is the normalized advisor seniority.
type ExperienceLevel string

const (
	LevelJunior    ExperienceLevel = "junior"
	LevelMid       ExperienceLevel = "mid"
	LevelSenior    ExperienceLevel = "senior"
	LevelExecutive ExperienceLevel = "executive"
)

// FounderProfile is the raw founder profile row. Nil pointers mean the column was NULL.
type FounderProfile struct {
	Sector           *string `json:"sector,omitempty"`
	Stage            *string `json:"stage,omitempty"`
	Location         *string `json:"location,omitempty"`
	CurrentChallenge *string `json:"currentChallenge,omitempty"`
	WinDefinition    *string `json:"winDefinition,omitempty"`
}

// AdvisorProfile is the raw advisor profile row.
type AdvisorProfile struct {
	Expertise           []string `json:"expertise,omitempty"`
	ExperienceLevel     *string  `json:"experienceLevel,omitempty"`
	Timezone            *string  `json:"timezone,omitempty"`
	ChallengePreference *string  `json:"challengePreference,omitempty"`
	Availability        []byte   `json:"availability,omitempty"`
}

// FounderFacts is the canonical founder view the scorers depend on.
type FounderFacts struct {
	Sector           string `json:"sector"`
	Stage            Stage  `json:"stage"`
	Location         string `json:"location"`
	CurrentChallenge string `json:"currentChallenge"`
	WinDefinition    string `json:"winDefinition,omitempty"`
}

// AdvisorFacts is the canonical advisor view the scorers depend on.
type AdvisorFacts struct {
	Expertise            []string        `json:"expertise"`
	ExperienceLevel      ExperienceLevel `json:"experienceLevel"`
	Timezone             string          `json:"timezone"`
	ChallengePreference  string          `json:"challengePreference,omitempty"`
	WeeklyAvailableHours *float64        `json:"weeklyAvailableHours,omitempty"`
}

// FounderCandidate pairs a founder identifier with its raw profile.
type FounderCandidate struct {
	ID      string
	Profile *FounderProfile
}

// AdvisorCandidate pairs an advisor identifier with its raw profile.
type AdvisorCandidate struct {
	ID      string
	Profile *AdvisorProfile
}

// CriterionResult is the outcome of one scorer.
type CriterionResult struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// MatchResult is the scored outcome for one founder/advisor pair.
type MatchResult struct {
	FounderID         string    `json:"founderId"`
	AdvisorID         string    `json:"advisorId"`
	OverallScore      int       `json:"overallScore"`
	SectorScore       int       `json:"sectorScore"`
	TimezoneScore     int       `json:"timezoneScore"`
	StageScore        int       `json:"stageScore"`
	AvailabilityScore int       `json:"availabilityScore"`
	ExperienceScore   int       `json:"experienceScore"`
	Rationales        []string  `json:"reasoning"`
	AlgorithmVersion  string    `json:"algorithmVersion"`
	CalculatedAt      time.Time `json:"calculatedAt"`
}

// SubScores returns the five sub-scores in criterion order.
func (m MatchResult) SubScores() [criterionCount]int {
	return [criterionCount]int{
		m.SectorScore,
		m.TimezoneScore,
		m.StageScore,
		m.AvailabilityScore,
		m.ExperienceScore,
	}
}
