package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// Reconciliation metrics
	reconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zookeeper_operator",
			Subsystem: "controller",
			Name:      "reconcile_total",
			Help:      "Total number of reconciliations by result",
		},
		[]string{"cluster", "result"},
	)

	reconcileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zookeeper_operator",
			Subsystem: "controller",
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of reconciliation in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		},
		[]string{"cluster"},
	)

	// Ensemble metrics
	ensembleMembers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "zookeeper_operator",
			Subsystem: "ensemble",
			Name:      "members",
			Help:      "Number of quorum members by role group and state",
		},
		[]string{"cluster", "group", "state"},
	)

	rollingRestartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zookeeper_operator",
			Subsystem: "ensemble",
			Name:      "rolling_restarts_total",
			Help:      "Total number of member pods replaced by rolling restarts",
		},
		[]string{"cluster", "group"},
	)
)

// Member states used as the state label of ensembleMembers.
const (
	memberStateReady    = "ready"
	memberStateNotReady = "not_ready"
	memberStateRetiring = "retiring"
)

func init() {
	// Register metrics with controller-runtime's registry
	metrics.Registry.MustRegister(
		reconcileTotal,
		reconcileDuration,
		ensembleMembers,
		rollingRestartsTotal,
	)
}

// recordReconcileMetric records a reconciliation result.
func recordReconcileMetric(cluster, result string, duration float64) {
	reconcileTotal.WithLabelValues(cluster, result).Inc()
	reconcileDuration.WithLabelValues(cluster).Observe(duration)
}

// recordMembersMetric records the member counts of a role group.
func recordMembersMetric(cluster, group string, ready, notReady, retiring int) {
	ensembleMembers.WithLabelValues(cluster, group, memberStateReady).Set(float64(ready))
	ensembleMembers.WithLabelValues(cluster, group, memberStateNotReady).Set(float64(notReady))
	ensembleMembers.WithLabelValues(cluster, group, memberStateRetiring).Set(float64(retiring))
}

// recordRollingRestartMetric records one replaced pod.
func recordRollingRestartMetric(cluster, group string) {
	rollingRestartsTotal.WithLabelValues(cluster, group).Inc()
}

// Metrics helper methods that check enableMetrics before recording.

func (r *ZookeeperClusterReconciler) recordReconcile(cluster, result string, duration float64) {
	if r.enableMetrics {
		recordReconcileMetric(cluster, result, duration)
	}
}

func (r *ZookeeperClusterReconciler) recordMembers(cluster, group string, ready, notReady, retiring int) {
	if r.enableMetrics {
		recordMembersMetric(cluster, group, ready, notReady, retiring)
	}
}

func (r *ZookeeperClusterReconciler) recordRollingRestart(cluster, group string) {
	if r.enableMetrics {
		recordRollingRestartMetric(cluster, group)
	}
}
