// internal/matching/engine/models.go
package engine

import (
	"context"
	"time"

	"advisor-matching/internal/common/errors"
	"advisor-matching/internal/matching"
)

var (
	ErrMissingIdentifiers = errors.Sentinel(errors.ErrCodeMissingIdentifiers)
	ErrNoEligibleFounders = errors.Sentinel(errors.ErrCodeNoEligibleFounders)
	ErrNoEligibleAdvisors = errors.Sentinel(errors.ErrCodeNoEligibleAdvisors)
	ErrUpsertFailed       = errors.Sentinel(errors.ErrCodeMatchUpsertFailed)
	ErrProfileQuery       = errors.Sentinel(errors.ErrCodeProfileQueryFailed)
	ErrBatchInProgress    = errors.Sentinel(errors.ErrCodeBatchInProgress)
)

// Mode is the dispatch mode chosen for a Request.
type Mode string

const (
	ModePair   Mode = "pair"
	ModeSingle Mode = "single"
	ModeBatch  Mode = "batch"
)

// Request is the shared entry shape for the API, the job workers and the scheduler.
type Request struct {
	FounderID string `json:"founderId,omitempty"`
	AdvisorID string `json:"advisorId,omitempty"`
	BatchMode bool   `json:"batchMode,omitempty"`
}

// Mode resolves which operation the request asks for.
func (r Request) Mode() (Mode, error) {
	switch {
	case r.BatchMode:
		return ModeBatch, nil
	case r.FounderID != "" && r.AdvisorID != "":
		return ModePair, nil
	case r.FounderID != "":
		return ModeSingle, nil
	case r.AdvisorID != "":
		return "", ErrMissingIdentifiers
	default:
		return ModeBatch, nil
	}
}

// Response is the union result of Dispatch. Matches is set for pair/single, Batch for batch.
type Response struct {
	Mode            Mode                   `json:"mode"`
	Matches         []matching.MatchResult `json:"matches,omitempty"`
	TotalCalculated int                    `json:"totalCalculated"`
	Batch           *BatchResult           `json:"batch,omitempty"`
}

// BatchResult summarizes a full batch run.
type BatchResult struct {
	RunID                 string    `json:"runId"`
	ProcessedCalculations int       `json:"processedCalculations"`
	TotalFounders         int       `json:"totalFounders"`
	TotalAdvisors         int       `json:"totalAdvisors"`
	SkippedFounders       int       `json:"skippedFounders"`
	SkippedAdvisors       int       `json:"skippedAdvisors"`
	FailedFounders        int       `json:"failedFounders"`
	Cancelled             bool      `json:"cancelled"`
	StartedAt             time.Time `json:"startedAt"`
	FinishedAt            time.Time `json:"finishedAt"`
}

// ProfileSource is the read-only view of active founders and advisors.
type ProfileSource interface {
	// GetFounder returns matching.ErrProfileNotFound when no active founder has the ID.
	// A found founder with a nil Profile has no profile row.
	GetFounder(ctx context.Context, id string) (matching.FounderCandidate, error)
	GetAdvisor(ctx context.Context, id string) (matching.AdvisorCandidate, error)
	ListActiveAdvisors(ctx context.Context) ([]matching.AdvisorCandidate, error)
	// EachActiveFounder streams founders in ID order; a non-nil error from fn stops the
	// iteration and is returned.
	EachActiveFounder(ctx context.Context, fn func(matching.FounderCandidate) error) error
}

// ResultStore persists current match results keyed by (founder, advisor).
type ResultStore interface {
	// UpsertResults writes the results and reports how many rows actually changed.
	UpsertResults(ctx context.Context, results []matching.MatchResult) (int, error)
}

// RunTracker records batch runs and exposes the operator cancel flag.
type RunTracker interface {
	// CancelRequested reports whether a cancel was requested at or after since.
	CancelRequested(ctx context.Context, since time.Time) (bool, error)
	SaveRun(ctx context.Context, run BatchResult) error
}

// Indexer mirrors results into a search index. Failures never fail a computation.
type Indexer interface {
	IndexResults(ctx context.Context, results []matching.MatchResult) error
}
