package apply

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var applyTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "zookeeper_operator",
		Name:      "apply_total",
		Help:      "Total number of object applies by kind and result",
	},
	[]string{"kind", "result"},
)

func init() {
	metrics.Registry.MustRegister(applyTotal)
}

func recordApply(kind, result string) {
	applyTotal.WithLabelValues(kind, result).Inc()
}
