// internal/workers/matching/create-advisor-assignment/handler.go
package createadvisorassignment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"advisor-matching/internal/assignment"
	"advisor-matching/internal/common/errors"
	"advisor-matching/internal/common/logger"
	"advisor-matching/internal/common/metrics"
	"advisor-matching/internal/common/validation"
	"advisor-matching/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = registry.TaskCreateAssignment
)

type Creator interface {
	Create(ctx context.Context, req assignment.CreateRequest) (*assignment.Assignment, error)
}

type Handler struct {
	config     *Config
	creator    Creator
	schema     map[string]interface{}
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, creator Creator, reg *registry.ActivityRegistry, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		creator:    creator,
		schema:     reg.InputSchema(TaskType),
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	start := time.Now()
	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	res, err := validation.ValidateAgainst(h.schema, job.Variables)
	switch {
	case err != nil:
		h.fail(ctx, client, job, errors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err)))
		return
	case !res.Valid:
		h.fail(ctx, client, job, errors.NewInvalidRequestError(res.Error()))
		return
	}
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, errors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	a, err := h.creator.Create(ctx, assignment.CreateRequest{
		FounderID:  input.FounderID,
		AdvisorID:  input.AdvisorID,
		AssignedBy: input.AssignedBy,
		Manual:     input.Manual,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		AssignmentID:     a.ID,
		AssignmentStatus: a.Status,
		MatchScore:       a.MatchScore,
		CreatedAt:        a.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.FromError(err).Code)).Inc()
	h.errHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey":       job.Key,
		"assignmentId": output.AssignmentID,
	})
}
