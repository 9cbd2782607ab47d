package controller

import (
	ctrl "sigs.k8s.io/controller-runtime"
)

// requeueDecision picks when the ensemble is looked at again.
//
// Failures that may heal on their own back off exponentially per ensemble.
// Failures only a spec edit can fix wait the long fixed interval. A rollout
// in flight polls at the rolling interval. Otherwise the next watch event
// triggers the next pass.
func (r *ZookeeperClusterReconciler) requeueDecision(key string, report *passReport) ctrl.Result {
	if report.retryableError() != nil {
		return ctrl.Result{RequeueAfter: r.backoff.Next(key)}
	}
	r.backoff.Reset(key)

	switch {
	case report.specError() != nil:
		return ctrl.Result{RequeueAfter: r.cfg.Requeue.InvalidSpec}
	case report.rollingPending:
		return ctrl.Result{RequeueAfter: r.cfg.Requeue.Rolling}
	default:
		return ctrl.Result{}
	}
}
