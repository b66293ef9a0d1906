package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SagaFinished("success", 0.2)
	m.StepFailed("CreateEnrollment", "rejected")
	m.EventPublished("dropped")
	m.CoordinatorEvent("duplicate")
	m.PackageProcessed("payment-created", "retried")
	m.DeadLetter("payment-created", "success")
	m.DeadLetter("payment-created", "success")
	m.IdempotentSkip("enrollment")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SagaExecutions.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StepFailures.WithLabelValues("CreateEnrollment", "rejected")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsPublished.WithLabelValues("dropped")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CoordinatorEvents.WithLabelValues("duplicate")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PackagesProcessed.WithLabelValues("payment-created", "retried")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.DeadLetters.WithLabelValues("payment-created", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.IdempotentSkips.WithLabelValues("enrollment")))

	count, err := testutil.GatherAndCount(reg, "enrollsaga_saga_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	t.Run("nil metrics record nothing", func(t *testing.T) {
		var nilMetrics *Metrics
		assert.NotPanics(t, func() {
			nilMetrics.SagaFinished("failure", 1)
			nilMetrics.StepFailed("x", "y")
			nilMetrics.EventPublished("success")
			nilMetrics.CoordinatorEvent("applied")
			nilMetrics.PackageProcessed("o", "r")
			nilMetrics.DeadLetter("t", "r")
			nilMetrics.IdempotentSkip("c")
		})
	})

	t.Run("double registration panics", func(t *testing.T) {
		assert.Panics(t, func() {
			New(reg)
		})
	})
}
