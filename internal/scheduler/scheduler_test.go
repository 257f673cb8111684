// internal/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"advisor-matching/internal/common/logger"
	"advisor-matching/internal/matching/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls   atomic.Int32
	block   chan struct{}
	started chan struct{}
	err     error
}

func (f *fakeRunner) RunBatch(ctx context.Context) (*engine.BatchResult, error) {
	f.calls.Add(1)
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &engine.BatchResult{RunID: "run-1", ProcessedCalculations: 6}, nil
}

func TestNew_InvalidTimezone(t *testing.T) {
	_, err := New("Mars/Olympus_Mons", &fakeRunner{}, logger.NewTestLogger(t))
	assert.Error(t, err)
}

func TestSchedule(t *testing.T) {
	s, err := New("Europe/London", &fakeRunner{}, logger.NewTestLogger(t))
	require.NoError(t, err)

	assert.True(t, s.Next().IsZero())

	assert.Error(t, s.Schedule("not a cron"))
	require.NoError(t, s.Schedule("0 3 * * *"))

	s.Start()
	defer s.Stop(context.Background())

	next := s.Next().In(s.location)
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))
}

func TestTrigger(t *testing.T) {
	runner := &fakeRunner{}
	s, err := New("UTC", runner, logger.NewTestLogger(t))
	require.NoError(t, err)

	assert.True(t, s.Trigger(context.Background()))
	assert.Equal(t, int32(1), runner.calls.Load())

	runner.err = errors.New("no eligible founders")
	assert.True(t, s.Trigger(context.Background()))
	assert.Equal(t, int32(2), runner.calls.Load())
}

func TestTrigger_SkipsOverlappingRuns(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{}), started: make(chan struct{})}
	s, err := New("UTC", runner, logger.NewTestLogger(t))
	require.NoError(t, err)

	done := make(chan bool)
	go func() { done <- s.Trigger(context.Background()) }()
	<-runner.started

	assert.False(t, s.Trigger(context.Background()))

	close(runner.block)
	assert.True(t, <-done)
	assert.Equal(t, int32(1), runner.calls.Load())
}

type ctxRunner struct {
	ctxErrs []error
}

func (c *ctxRunner) RunBatch(ctx context.Context) (*engine.BatchResult, error) {
	c.ctxErrs = append(c.ctxErrs, ctx.Err())
	return &engine.BatchResult{RunID: "run-1"}, nil
}

func TestStartAfterStop(t *testing.T) {
	runner := &ctxRunner{}
	s, err := New("UTC", runner, logger.NewTestLogger(t))
	require.NoError(t, err)
	require.NoError(t, s.Schedule("0 3 * * *"))

	fire := func() { s.cron.Entry(s.entryID).Job.Run() }

	s.Start()
	fire()
	first := s.runContext()
	s.Stop(context.Background())
	assert.ErrorIs(t, first.Err(), context.Canceled, "Stop cancels the running cycle")

	s.Start()
	defer s.Stop(context.Background())
	fire()

	require.Len(t, runner.ctxErrs, 2)
	assert.NoError(t, runner.ctxErrs[0])
	assert.NoError(t, runner.ctxErrs[1], "a restarted scheduler must not hand out the stopped context")
}

func TestKVFields(t *testing.T) {
	fields := kvFields([]interface{}{"entry", 1, "next", "03:00", "dangling"})
	assert.Equal(t, map[string]interface{}{"entry": 1, "next": "03:00"}, fields)
}
