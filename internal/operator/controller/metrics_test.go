package controller

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordReconcileMetric(t *testing.T) {
	// Reset metrics for testing
	reconcileTotal.Reset()
	reconcileDuration.Reset()

	recordReconcileMetric("test-cluster", "success", 1.5)

	counter, err := reconcileTotal.GetMetricWithLabelValues("test-cluster", "success")
	assert.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))

	recordReconcileMetric("test-cluster", "spec_error", 0.5)

	specCounter, err := reconcileTotal.GetMetricWithLabelValues("test-cluster", "spec_error")
	assert.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(specCounter))
	assert.Equal(t, 1, testutil.CollectAndCount(reconcileDuration))
}

func TestRecordMembersMetric(t *testing.T) {
	ensembleMembers.Reset()

	recordMembersMetric("test-cluster", "default", 2, 1, 3)

	for state, want := range map[string]float64{
		memberStateReady:    2,
		memberStateNotReady: 1,
		memberStateRetiring: 3,
	} {
		gauge, err := ensembleMembers.GetMetricWithLabelValues("test-cluster", "default", state)
		assert.NoError(t, err)
		assert.Equal(t, want, testutil.ToFloat64(gauge), state)
	}

	// Gauges are overwritten, not accumulated
	recordMembersMetric("test-cluster", "default", 3, 0, 0)
	gauge, _ := ensembleMembers.GetMetricWithLabelValues("test-cluster", "default", memberStateReady)
	assert.Equal(t, float64(3), testutil.ToFloat64(gauge))
}

func TestRecordRollingRestartMetric(t *testing.T) {
	rollingRestartsTotal.Reset()

	recordRollingRestartMetric("test-cluster", "default")
	recordRollingRestartMetric("test-cluster", "default")

	counter, err := rollingRestartsTotal.GetMetricWithLabelValues("test-cluster", "default")
	assert.NoError(t, err)
	assert.Equal(t, float64(2), testutil.ToFloat64(counter))
}

func TestMetricsDisabled(t *testing.T) {
	rollingRestartsTotal.Reset()
	r := &ZookeeperClusterReconciler{enableMetrics: false}

	r.recordRollingRestart("disabled-cluster", "default")

	assert.Equal(t, 0, testutil.CollectAndCount(rollingRestartsTotal))
}
