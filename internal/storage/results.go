// internal/storage/results.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"advisor-matching/internal/matching"

	"github.com/lib/pq"
)

// The WHERE clause turns a recomputation with identical output into a no-op, so
// calculated_at only moves when something the reader can see changed.
const upsertMatchResult = `
	INSERT INTO match_results (
		founder_id, advisor_id, overall_score,
		sector_score, timezone_score, stage_score, availability_score, experience_score,
		reasoning, algorithm_version, calculated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (founder_id, advisor_id) DO UPDATE SET
		overall_score      = EXCLUDED.overall_score,
		sector_score       = EXCLUDED.sector_score,
		timezone_score     = EXCLUDED.timezone_score,
		stage_score        = EXCLUDED.stage_score,
		availability_score = EXCLUDED.availability_score,
		experience_score   = EXCLUDED.experience_score,
		reasoning          = EXCLUDED.reasoning,
		algorithm_version  = EXCLUDED.algorithm_version,
		calculated_at      = EXCLUDED.calculated_at
	WHERE match_results.algorithm_version  IS DISTINCT FROM EXCLUDED.algorithm_version
	   OR match_results.overall_score      IS DISTINCT FROM EXCLUDED.overall_score
	   OR match_results.sector_score       IS DISTINCT FROM EXCLUDED.sector_score
	   OR match_results.timezone_score     IS DISTINCT FROM EXCLUDED.timezone_score
	   OR match_results.stage_score        IS DISTINCT FROM EXCLUDED.stage_score
	   OR match_results.availability_score IS DISTINCT FROM EXCLUDED.availability_score
	   OR match_results.experience_score   IS DISTINCT FROM EXCLUDED.experience_score
	   OR match_results.reasoning          IS DISTINCT FROM EXCLUDED.reasoning`

const resultColumns = `
	founder_id, advisor_id, overall_score,
	sector_score, timezone_score, stage_score, availability_score, experience_score,
	reasoning, algorithm_version, calculated_at`

// ResultStore persists current match results.
type ResultStore struct {
	db *sql.DB
}

func NewResultStore(db *sql.DB) *ResultStore {
	return &ResultStore{db: db}
}

// UpsertResults writes all results in one transaction and returns the number of rows that
// were inserted or actually changed.
func (s *ResultStore) UpsertResults(ctx context.Context, results []matching.MatchResult) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	stmt, err := tx.PrepareContext(ctx, upsertMatchResult)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	changed := 0
	for _, r := range results {
		res, err := stmt.ExecContext(ctx,
			r.FounderID,
			r.AdvisorID,
			r.OverallScore,
			r.SectorScore,
			r.TimezoneScore,
			r.StageScore,
			r.AvailabilityScore,
			r.ExperienceScore,
			pq.Array(r.Rationales),
			r.AlgorithmVersion,
			r.CalculatedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert %s/%s: %w", r.FounderID, r.AdvisorID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			changed += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit upsert: %w", err)
	}
	return changed, nil
}

// Get returns the stored result for a pair; found is false when none exists.
func (s *ResultStore) Get(ctx context.Context, founderID, advisorID string) (matching.MatchResult, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT`+resultColumns+` FROM match_results WHERE founder_id = $1 AND advisor_id = $2`,
		founderID, advisorID,
	)

	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return matching.MatchResult{}, false, nil
	}
	if err != nil {
		return matching.MatchResult{}, false, fmt.Errorf("failed to load match %s/%s: %w", founderID, advisorID, err)
	}
	return r, true, nil
}

// ListForFounder returns a founder's stored results best first.
func (s *ResultStore) ListForFounder(ctx context.Context, founderID string, limit int) ([]matching.MatchResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT`+resultColumns+` FROM match_results
		WHERE founder_id = $1
		ORDER BY overall_score DESC, advisor_id ASC
		LIMIT $2`,
		founderID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for %s: %w", founderID, err)
	}
	defer rows.Close()

	out := make([]matching.MatchResult, 0, limit)
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanResult(row rowScanner) (matching.MatchResult, error) {
	var (
		r         matching.MatchResult
		reasoning pq.StringArray
	)
	err := row.Scan(
		&r.FounderID,
		&r.AdvisorID,
		&r.OverallScore,
		&r.SectorScore,
		&r.TimezoneScore,
		&r.StageScore,
		&r.AvailabilityScore,
		&r.ExperienceScore,
		&reasoning,
		&r.AlgorithmVersion,
		&r.CalculatedAt,
	)
	r.Rationales = []string(reasoning)
	return r, err
}
