// internal/workers/matching/calculate-advisor-matches/models.go
package calculateadvisormatches

import (
	"advisor-matching/internal/matching"
	"advisor-matching/internal/matching/engine"
)

type Input struct {
	FounderID string `json:"founderId,omitempty"`
	AdvisorID string `json:"advisorId,omitempty"`
	BatchMode bool   `json:"batchMode,omitempty"`
}

func (i Input) request() engine.Request {
	return engine.Request{FounderID: i.FounderID, AdvisorID: i.AdvisorID, BatchMode: i.BatchMode}
}

// Output carries matches for pair/single mode and the run counters for batch mode.
// Counters are written even when zero.
type Output struct {
	Success               bool                   `json:"success"`
	Mode                  string                 `json:"mode"`
	Matches               []matching.MatchResult `json:"matches,omitempty"`
	TotalCalculated       int                    `json:"totalCalculated"`
	RunID                 string                 `json:"runId,omitempty"`
	ProcessedCalculations int                    `json:"processedCalculations"`
	TotalFounders         int                    `json:"totalFounders"`
	TotalAdvisors         int                    `json:"totalAdvisors"`
	Cancelled             bool                   `json:"cancelled"`
}

func outputFrom(resp *engine.Response) *Output {
	out := &Output{
		Success:         true,
		Mode:            string(resp.Mode),
		Matches:         resp.Matches,
		TotalCalculated: resp.TotalCalculated,
	}
	if b := resp.Batch; b != nil {
		out.RunID = b.RunID
		out.ProcessedCalculations = b.ProcessedCalculations
		out.TotalFounders = b.TotalFounders
		out.TotalAdvisors = b.TotalAdvisors
		out.Cancelled = b.Cancelled
	}
	return out
}
