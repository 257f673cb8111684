// internal/common/observability/metrics_test.go
package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestNilObservabilityIsNoop(t *testing.T) {
	var o *Observability

	ctx, span := o.StartSpan(context.Background(), "matching.pair")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
	o.RecordRun(ctx, "pair", "ok")
	o.RecordRunDuration(ctx, time.Second, "pair")
}

func TestObservability_Lifecycle(t *testing.T) {
	o := New("advisor-matching-test")
	require.NotNil(t, o.meterProvider)

	ctx := context.Background()
	o.RecordRun(ctx, "batch", "ok")
	o.RecordRunDuration(ctx, 250*time.Millisecond, "batch")

	require.NoError(t, o.EnableTracing("http://127.0.0.1:14268/api/traces"))
	_, span := o.StartSpan(ctx, "matching.batch", attribute.String("runId", "run-1"))
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	o.Shutdown()
}
