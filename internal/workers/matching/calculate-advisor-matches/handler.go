// internal/workers/matching/calculate-advisor-matches/handler.go
package calculateadvisormatches

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"advisor-matching/internal/common/errors"
	"advisor-matching/internal/common/logger"
	"advisor-matching/internal/common/metrics"
	"advisor-matching/internal/common/validation"
	"advisor-matching/internal/matching/engine"
	"advisor-matching/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = registry.TaskCalculateMatches
)

// Dispatcher is the engine entry point used by this worker.
type Dispatcher interface {
	Dispatch(ctx context.Context, req engine.Request) (*engine.Response, error)
}

type Handler struct {
	config     *Config
	engine     Dispatcher
	schema     map[string]interface{}
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, dispatcher Dispatcher, reg *registry.ActivityRegistry, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		engine:     dispatcher,
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

	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
	start := time.Now()
	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) parseInput(variables string) (*Input, error) {
	res, err := validation.ValidateAgainst(h.schema, variables)
	if err != nil {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err))
	}
	if !res.Valid {
		return nil, errors.NewInvalidRequestError(res.Error())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

// Execute runs the engine for one job's input.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	resp, err := h.engine.Dispatch(ctx, input.request())
	if err != nil {
		return nil, err
	}
	return outputFrom(resp), nil
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
		"jobKey": job.Key,
		"mode":   output.Mode,
	})
}
