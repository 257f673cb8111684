// internal/storage/profiles.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"advisor-matching/internal/matching"

	"github.com/lib/pq"
)

// The profile tables are owned by the identity service; this is a read-only view over them.
const (
	founderSelect = `
		SELECT f.id,
		       fp.founder_id IS NOT NULL AS has_profile,
		       fp.sector, fp.stage, fp.location, fp.current_challenge, fp.win_definition
		FROM founders f
		LEFT JOIN founder_profiles fp ON fp.founder_id = f.id
		WHERE f.status = 'active' AND f.deleted_at IS NULL`

	advisorSelect = `
		SELECT a.id,
		       ap.advisor_id IS NOT NULL AS has_profile,
		       ap.expertise, ap.experience_level, ap.timezone, ap.challenge_preference, ap.availability
		FROM advisors a
		LEFT JOIN advisor_profiles ap ON ap.advisor_id = a.id
		WHERE a.status = 'active' AND a.deleted_at IS NULL`
)

// ProfileStore reads active founders and advisors from Postgres.
type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFounder(row rowScanner) (matching.FounderCandidate, error) {
	var (
		c          matching.FounderCandidate
		hasProfile bool
		sector     sql.NullString
		stage      sql.NullString
		location   sql.NullString
		challenge  sql.NullString
		win        sql.NullString
	)
	if err := row.Scan(&c.ID, &hasProfile, &sector, &stage, &location, &challenge, &win); err != nil {
		return c, err
	}
	if hasProfile {
		c.Profile = &matching.FounderProfile{
			Sector:           nullable(sector),
			Stage:            nullable(stage),
			Location:         nullable(location),
			CurrentChallenge: nullable(challenge),
			WinDefinition:    nullable(win),
		}
	}
	return c, nil
}

func scanAdvisor(row rowScanner) (matching.AdvisorCandidate, error) {
	var (
		c            matching.AdvisorCandidate
		hasProfile   bool
		expertise    pq.StringArray
		level        sql.NullString
		timezone     sql.NullString
		preference   sql.NullString
		availability []byte
	)
	if err := row.Scan(&c.ID, &hasProfile, &expertise, &level, &timezone, &preference, &availability); err != nil {
		return c, err
	}
	if hasProfile {
		c.Profile = &matching.AdvisorProfile{
			Expertise:           []string(expertise),
			ExperienceLevel:     nullable(level),
			Timezone:            nullable(timezone),
			ChallengePreference: nullable(preference),
			Availability:        availability,
		}
	}
	return c, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func (s *ProfileStore) GetFounder(ctx context.Context, id string) (matching.FounderCandidate, error) {
	c, err := scanFounder(s.db.QueryRowContext(ctx, founderSelect+` AND f.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("founder %s: %w", id, matching.ErrProfileNotFound)
	}
	if err != nil {
		return c, fmt.Errorf("failed to load founder %s: %w", id, err)
	}
	return c, nil
}

func (s *ProfileStore) GetAdvisor(ctx context.Context, id string) (matching.AdvisorCandidate, error) {
	c, err := scanAdvisor(s.db.QueryRowContext(ctx, advisorSelect+` AND a.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("advisor %s: %w", id, matching.ErrProfileNotFound)
	}
	if err != nil {
		return c, fmt.Errorf("failed to load advisor %s: %w", id, err)
	}
	return c, nil
}

func (s *ProfileStore) ListActiveAdvisors(ctx context.Context) ([]matching.AdvisorCandidate, error) {
	rows, err := s.db.QueryContext(ctx, advisorSelect+` ORDER BY a.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query advisors: %w", err)
	}
	defer rows.Close()

	var out []matching.AdvisorCandidate
	for rows.Next() {
		c, err := scanAdvisor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan advisor: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("advisor rows: %w", err)
	}
	return out, nil
}

// EachActiveFounder streams founders through fn without loading the whole table.
func (s *ProfileStore) EachActiveFounder(ctx context.Context, fn func(matching.FounderCandidate) error) error {
	rows, err := s.db.QueryContext(ctx, founderSelect+` ORDER BY f.id`)
	if err != nil {
		return fmt.Errorf("failed to query founders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanFounder(rows)
		if err != nil {
			return fmt.Errorf("failed to scan founder: %w", err)
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return rows.Err()
}
