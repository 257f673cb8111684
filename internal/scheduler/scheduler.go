// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"advisor-matching/internal/common/logger"
	"advisor-matching/internal/matching/engine"

	"github.com/robfig/cron/v3"
)

// BatchRunner starts a full batch run.
type BatchRunner interface {
	RunBatch(ctx context.Context) (*engine.BatchResult, error)
}

// Scheduler triggers batch matching on a cron expression in a fixed timezone. A trigger
// that fires while a run is still in progress is skipped.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	runner   BatchRunner
	logger   logger.Logger

	mu      sync.Mutex
	entryID cron.EntryID
	started bool
	running atomic.Bool

	// ctx lives from Start to Stop; cron-fired runs use it.
	ctx    context.Context
	cancel context.CancelFunc
}

func New(timezone string, runner BatchRunner, log logger.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	log = log.WithFields(map[string]interface{}{"component": "batch-scheduler"})

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLogger{log})),
		),
		location: loc,
		runner:   runner,
		logger:   log,
	}, nil
}

// Schedule replaces any previous schedule with spec (standard 5-field cron).
func (s *Scheduler) Schedule(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}

	id, err := s.cron.AddFunc(spec, func() { s.Trigger(s.runContext()) })
	if err != nil {
		return fmt.Errorf("add cron job %q: %w", spec, err)
	}
	s.entryID = id
	return nil
}

// Next returns the next scheduled trigger time, or the zero time if nothing is scheduled.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Trigger runs one batch now unless one is already running. It reports whether it ran.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("batch still running, skipping trigger", nil)
		return false
	}
	defer s.running.Store(false)

	s.logger.Info("scheduled batch starting", nil)
	run, err := s.runner.RunBatch(ctx)
	if err != nil {
		s.logger.Error("scheduled batch failed", map[string]interface{}{"error": err})
		return true
	}

	s.logger.Info("scheduled batch finished", map[string]interface{}{
		"runId":                 run.RunID,
		"processedCalculations": run.ProcessedCalculations,
		"totalFounders":         run.TotalFounders,
		"failedFounders":        run.FailedFounders,
		"cancelled":             run.Cancelled,
	})
	return true
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.ctx, s.cancel = context.WithCancel(context.Background())
		s.cron.Start()
		s.started = true
		if s.entryID != 0 {
			s.logger.Info("scheduler started", map[string]interface{}{
				"next": s.cron.Entry(s.entryID).Next.Format(time.RFC3339),
			})
		}
	}
}

// Stop cancels a running batch and waits for it to return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out", nil)
	}
}

// runContext returns the context of the current Start/Stop cycle.
func (s *Scheduler) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// cronLogger routes cron's internal logging into the service logger.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, kvFields(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := kvFields(keysAndValues)
	fields["error"] = err
	c.l.Error(msg, fields)
}

func kvFields(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
