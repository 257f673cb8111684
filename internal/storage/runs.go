// internal/storage/runs.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"advisor-matching/internal/matching/engine"

	"github.com/redis/go-redis/v9"
)

const cancelFlagTTL = 24 * time.Hour

// RunTracker keeps batch run summaries and the operator cancel flag in Redis.
type RunTracker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewRunTracker(client *redis.Client, prefix string, ttl time.Duration) *RunTracker {
	return &RunTracker{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

func (t *RunTracker) cancelKey() string { return t.prefix + ":batch:cancel" }
func (t *RunTracker) latestKey() string { return t.prefix + ":batch:latest" }

func (t *RunTracker) runKey(runID string) string {
	return fmt.Sprintf("%s:batch:runs:%s", t.prefix, runID)
}

// CancelRequested reports whether the flag was set at or after since. The flag holds the
// request time, so a request aimed at an earlier run never stops a later one.
func (t *RunTracker) CancelRequested(ctx context.Context, since time.Time) (bool, error) {
	val, err := t.client.Get(ctx, t.cancelKey()).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cancel flag: %w", err)
	}

	requestedAt, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return false, fmt.Errorf("failed to parse cancel flag %q: %w", val, err)
	}
	return !requestedAt.Before(since), nil
}

// RequestCancel asks the running batch to stop before its next founder.
func (t *RunTracker) RequestCancel(ctx context.Context) error {
	stamp := t.now().UTC().Format(time.RFC3339Nano)
	if err := t.client.Set(ctx, t.cancelKey(), stamp, cancelFlagTTL).Err(); err != nil {
		return fmt.Errorf("failed to set cancel flag: %w", err)
	}
	return nil
}

// SaveRun stores the summary under its run ID and as the latest run.
func (t *RunTracker) SaveRun(ctx context.Context, run engine.BatchResult) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	_, err = t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, t.runKey(run.RunID), data, t.ttl)
		pipe.Set(ctx, t.latestKey(), data, t.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.RunID, err)
	}
	return nil
}

// LatestRun returns the most recent summary, or nil when no run has been recorded.
func (t *RunTracker) LatestRun(ctx context.Context) (*engine.BatchResult, error) {
	return t.load(ctx, t.latestKey())
}

func (t *RunTracker) Run(ctx context.Context, runID string) (*engine.BatchResult, error) {
	return t.load(ctx, t.runKey(runID))
}

func (t *RunTracker) load(ctx context.Context, key string) (*engine.BatchResult, error) {
	data, err := t.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var run engine.BatchResult
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return &run, nil
}
