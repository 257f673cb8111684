// internal/assignment/materializer.go
package assignment

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"advisor-matching/internal/common/errors"
	"advisor-matching/internal/common/logger"
	"advisor-matching/internal/matching"

	"github.com/google/uuid"
)

const (
	StatusActive = "active"

	EventAssignmentCreated = "assignment.created"
)

var (
	ErrDuplicateAssignment = errors.Sentinel(errors.ErrCodeDuplicateAssignment)
	ErrInsertFailed        = errors.Sentinel(errors.ErrCodeAssignmentInsertFailed)
	ErrInvalidRequest      = errors.Sentinel(errors.ErrCodeInvalidRequest)
)

// CreateRequest asks for a founder/advisor assignment. Manual assignments carry no match score.
type CreateRequest struct {
	FounderID  string `json:"founderId"`
	AdvisorID  string `json:"advisorId"`
	AssignedBy string `json:"assignedBy"`
	Manual     bool   `json:"manual,omitempty"`
}

func (r CreateRequest) validate() error {
	var missing []string
	if r.FounderID == "" {
		missing = append(missing, "founderId")
	}
	if r.AdvisorID == "" {
		missing = append(missing, "advisorId")
	}
	if r.AssignedBy == "" {
		missing = append(missing, "assignedBy")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}

type Assignment struct {
	ID         string    `json:"id"`
	FounderID  string    `json:"founderId"`
	AdvisorID  string    `json:"advisorId"`
	MatchScore int       `json:"matchScore"`
	Status     string    `json:"status"`
	AssignedBy string    `json:"assignedBy"`
	Manual     bool      `json:"manual"`
	CreatedAt  time.Time `json:"createdAt"`
}

// StoredResults reads the current persisted match for a pair.
type StoredResults interface {
	Get(ctx context.Context, founderID, advisorID string) (matching.MatchResult, bool, error)
}

// PairCalculator scores and persists a pair on demand.
type PairCalculator interface {
	CalculatePair(ctx context.Context, founderID, advisorID string) (matching.MatchResult, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) (string, error)
}

// Materializer turns a chosen match into an active advisor assignment.
type Materializer struct {
	db        *sql.DB
	results   StoredResults
	pairs     PairCalculator
	publisher EventPublisher
	logger    logger.Logger
	now       func() time.Time
	newID     func() string
}

// NewMaterializer builds a Materializer. publisher may be nil.
func NewMaterializer(db *sql.DB, results StoredResults, pairs PairCalculator, publisher EventPublisher, log logger.Logger) *Materializer {
	return &Materializer{
		db:        db,
		results:   results,
		pairs:     pairs,
		publisher: publisher,
		logger:    log.WithFields(map[string]interface{}{"component": "assignment-materializer"}),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
	}
}

func (m *Materializer) Create(ctx context.Context, req CreateRequest) (*Assignment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var exists bool
	err := m.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM advisor_assignments
			WHERE founder_id = $1 AND advisor_id = $2 AND status = 'active'
		)`, req.FounderID, req.AdvisorID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%w: duplicate check failed: %v", ErrInsertFailed, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: founder %s already has advisor %s",
			ErrDuplicateAssignment, req.FounderID, req.AdvisorID)
	}

	score, err := m.matchScore(ctx, req)
	if err != nil {
		return nil, err
	}

	a := &Assignment{
		ID:         m.newID(),
		FounderID:  req.FounderID,
		AdvisorID:  req.AdvisorID,
		MatchScore: score,
		Status:     StatusActive,
		AssignedBy: req.AssignedBy,
		Manual:     req.Manual,
		CreatedAt:  m.now(),
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO advisor_assignments (
			id, founder_id, advisor_id, match_score, status, assigned_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		a.ID, a.FounderID, a.AdvisorID, a.MatchScore, a.Status, a.AssignedBy, a.CreatedAt,
	)
	if err != nil {
		// the partial unique index catches a concurrent duplicate the EXISTS check missed
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: founder %s already has advisor %s",
				ErrDuplicateAssignment, req.FounderID, req.AdvisorID)
		}
		return nil, fmt.Errorf("%w: insert failed: %v", ErrInsertFailed, err)
	}

	m.audit(ctx, a)
	m.publish(ctx, a)

	m.logger.Info("assignment created", map[string]interface{}{
		"assignmentId": a.ID,
		"founderId":    a.FounderID,
		"advisorId":    a.AdvisorID,
		"matchScore":   a.MatchScore,
		"manual":       a.Manual,
	})
	return a, nil
}

// matchScore prefers the stored current result and only computes the pair when none exists.
func (m *Materializer) matchScore(ctx context.Context, req CreateRequest) (int, error) {
	if req.Manual {
		return 0, nil
	}

	stored, found, err := m.results.Get(ctx, req.FounderID, req.AdvisorID)
	if err != nil {
		m.logger.Warn("stored match lookup failed, recalculating", map[string]interface{}{
			"founderId": req.FounderID,
			"advisorId": req.AdvisorID,
			"error":     err,
		})
	}
	if found {
		return stored.OverallScore, nil
	}

	res, err := m.pairs.CalculatePair(ctx, req.FounderID, req.AdvisorID)
	if err != nil {
		return 0, fmt.Errorf("score pair %s/%s: %w", req.FounderID, req.AdvisorID, err)
	}
	return res.OverallScore, nil
}

func (m *Materializer) audit(ctx context.Context, a *Assignment) {
	metadata, err := json.Marshal(map[string]interface{}{
		"founderId":  a.FounderID,
		"advisorId":  a.AdvisorID,
		"matchScore": a.MatchScore,
		"manual":     a.Manual,
	})
	if err != nil {
		metadata = []byte("{}")
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO audit_log (entity_type, entity_id, action, actor, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		"advisor_assignment", a.ID, "created", a.AssignedBy, metadata, a.CreatedAt,
	)
	if err != nil {
		m.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":        err,
			"assignmentId": a.ID,
		})
	}
}

func (m *Materializer) publish(ctx context.Context, a *Assignment) {
	if m.publisher == nil {
		return
	}
	messageID, err := m.publisher.Publish(ctx, EventAssignmentCreated, a)
	if err != nil {
		m.logger.Warn("assignment event not published", map[string]interface{}{
			"error":        err,
			"assignmentId": a.ID,
		})
		return
	}
	m.logger.Debug("assignment event published", map[string]interface{}{
		"assignmentId": a.ID,
		"messageId":    messageID,
	})
}
