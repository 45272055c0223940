package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"

	"adoption-review/internal/common/logger"
)

func TestStartSpan_EndsWithAndWithoutError(t *testing.T) {
	o := NewNoop()

	ctx, end := o.StartSpan(context.Background(), "adoption.submit", attribute.Int64("application.id", 1))
	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() { end(nil) })

	_, end = o.StartSpan(context.Background(), "adoption.final_decision")
	assert.NotPanics(t, func() { end(errors.New("pet not available")) })
}

func TestNilObservabilityIsSafe(t *testing.T) {
	var o *Observability
	assert.NotPanics(t, func() {
		_, end := o.StartSpan(context.Background(), "x")
		end(nil)
		o.RecordJobProcessed(context.Background(), "adoption-submit-application", "completed")
		o.RecordJobDuration(context.Background(), "adoption-submit-application", time.Second, "completed")
	})
	assert.NoError(t, o.Shutdown(context.Background()))
}

func TestNew_RecordsJobs(t *testing.T) {
	o := New("adoption-review-test", logger.NewTestLogger(t))
	assert.NotPanics(t, func() {
		o.RecordJobProcessed(context.Background(), "adoption-final-decision", "completed")
		o.RecordJobDuration(context.Background(), "adoption-final-decision", 20*time.Millisecond, "completed")
	})
	assert.NoError(t, o.Shutdown(context.Background()))
}
