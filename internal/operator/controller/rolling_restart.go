package controller

import (
	"context"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	zookeeperv1alpha1 "github.com/imamik/zookeeper-operator/api/v1alpha1"
	"github.com/imamik/zookeeper-operator/internal/operator/diff"
	"github.com/imamik/zookeeper-operator/internal/operator/observer"
	"github.com/imamik/zookeeper-operator/internal/zookeeper"
	"github.com/imamik/zookeeper-operator/internal/zookeeper/topology"
)

type restartCandidate struct {
	member   topology.Identity
	pod      *corev1.Pod
	revision string
}

// rollingRestart replaces at most one outdated member pod per pass.
//
// A pod is outdated when its controller-revision-hash differs from its
// StatefulSet's update revision. Candidates are taken in ascending member id
// order, and a pod is only deleted while every required member is ready, so at
// most one server is down at a time. It reports whether a rollout is still in
// flight.
func (r *ZookeeperClusterReconciler) rollingRestart(ctx context.Context, zk *zookeeperv1alpha1.ZookeeperCluster, report *passReport) (bool, error) {
	logger := log.FromContext(ctx)
	plan, snap := report.plan, report.snapshot
	if plan == nil || snap == nil {
		return false, nil
	}

	for _, a := range report.actions {
		if a.Key.Kind == observer.KindStatefulSet && (a.Type == diff.ActionCreate || a.Type == diff.ActionUpdate) {
			// The StatefulSet controller publishes the new revision first
			logger.V(1).Info("statefulset changed this pass, deferring restarts", "statefulset", a.Key.Name)
			return true, nil
		}
	}

	var (
		candidates []restartCandidate
		allReady   = true
		settling   bool
	)
	for _, m := range plan.Members {
		pod, ok := snap.Pod(m.RoleGroup, m.Ordinal)
		if !ok || !isPodReady(pod) {
			allReady = false
		}
		if !ok {
			continue
		}
		if _, failed := report.failedGroups[m.RoleGroup]; failed {
			continue
		}

		sts, ok := snap.StatefulSet(m.RoleGroup)
		if !ok {
			continue
		}
		if sts.Status.ObservedGeneration < sts.Generation || sts.Status.UpdateRevision == "" {
			settling = true
			continue
		}
		if pod.Labels[appsv1.ControllerRevisionHashLabelKey] != sts.Status.UpdateRevision {
			candidates = append(candidates, restartCandidate{member: m, pod: pod, revision: sts.Status.UpdateRevision})
		}
	}

	if len(candidates) == 0 {
		return settling, nil
	}
	if !allReady {
		logger.Info("waiting for every member to be ready before the next restart",
			"outdated", len(candidates))
		return true, nil
	}

	next := candidates[0]
	logger.Info("restarting member to apply new revision",
		"member", next.member.String(),
		"pod", next.pod.Name,
		"revision", next.revision,
	)
	uid := next.pod.UID
	if err := r.Delete(ctx, next.pod, client.Preconditions{UID: &uid}); err != nil && !apierrors.IsNotFound(err) {
		return true, zookeeper.Wrap(zookeeper.KindPlatformTransient, err, "restart pod "+next.pod.Name)
	}

	r.Recorder.Eventf(zk, corev1.EventTypeNormal, EventReasonRollingRestart,
		"Restarting server %d (pod %s) to apply revision %s", next.member.ID, next.pod.Name, next.revision)
	r.recordRollingRestart(zk.Name, next.member.RoleGroup)
	return true, nil
}

// isPodReady reports whether a pod is running, ready and not terminating.
func isPodReady(pod *corev1.Pod) bool {
	if pod.DeletionTimestamp != nil {
		return false
	}
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}
