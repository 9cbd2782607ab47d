package controller

import (
	"context"
	"fmt"
	"sort"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/log"

	zookeeperv1alpha1 "github.com/imamik/zookeeper-operator/api/v1alpha1"
	"github.com/imamik/zookeeper-operator/internal/zookeeper"
)

// updateStatus writes the outcome of a pass onto zk.Status. It runs after
// every pass, including failed ones; fields the pass could not observe keep
// their previous values.
func (r *ZookeeperClusterReconciler) updateStatus(ctx context.Context, zk *zookeeperv1alpha1.ZookeeperCluster, report *passReport) {
	logger := log.FromContext(ctx)
	now := metav1.Now()
	previousPhase := zk.Status.Phase

	zk.Status.ObservedGeneration = zk.Generation
	zk.Status.LastReconcileTime = &now

	if report.plan != nil && report.snapshot != nil {
		zk.Status.Members, zk.Status.ReadyReplicas = r.memberStatuses(zk, report)
	}

	var ready int32
	for _, n := range zk.Status.ReadyReplicas {
		ready += n
	}
	desired := zk.Spec.DesiredReplicas()
	allReady := report.plan != nil && desired > 0 && ready == desired
	progressing := report.writes() > 0 || report.rollingPending

	specErr := report.specError()
	retryErr := report.retryableError()

	switch {
	case retryErr != nil:
		setCondition(zk, zookeeperv1alpha1.ConditionReconciled, false, reasonFor(retryErr), retryErr.Error())
	case specErr != nil:
		setCondition(zk, zookeeperv1alpha1.ConditionReconciled, false, reasonFor(specErr), specErr.Error())
	default:
		setCondition(zk, zookeeperv1alpha1.ConditionReconciled, true, "Applied", "All owned objects match the desired state")
	}

	setCondition(zk, zookeeperv1alpha1.ConditionReady, allReady,
		conditionReason(allReady, "AllMembersReady", "MembersNotReady"),
		fmt.Sprintf("%d/%d servers ready", ready, desired))

	progressMsg := "No changes in flight"
	switch {
	case report.rollingPending:
		progressMsg = "Rolling restart in progress"
	case progressing:
		progressMsg = fmt.Sprintf("Applied %d change(s)", report.writes())
	}
	setCondition(zk, zookeeperv1alpha1.ConditionProgressing, progressing,
		conditionReason(progressing, "ChangesApplied", "Idle"), progressMsg)

	switch {
	case specErr != nil:
		zk.Status.Phase = zookeeperv1alpha1.ClusterPhaseFailed
	case retryErr != nil:
		zk.Status.Phase = zookeeperv1alpha1.ClusterPhaseDegraded
	case allReady && !progressing:
		zk.Status.Phase = zookeeperv1alpha1.ClusterPhaseRunning
		zk.Status.LastAppliedVersion = zk.Spec.Version
	case progressing:
		zk.Status.Phase = zookeeperv1alpha1.ClusterPhaseReconciling
	case zk.Status.LastAppliedVersion == "":
		zk.Status.Phase = zookeeperv1alpha1.ClusterPhasePending
	default:
		zk.Status.Phase = zookeeperv1alpha1.ClusterPhaseDegraded
	}

	if zk.Status.Phase != previousPhase {
		logger.Info("ensemble phase changed", "from", previousPhase, "to", zk.Status.Phase)
		if zk.Status.Phase == zookeeperv1alpha1.ClusterPhaseRunning {
			r.Recorder.Eventf(zk, corev1.EventTypeNormal, EventReasonEnsembleReady,
				"All %d servers are ready on version %s", desired, zk.Spec.Version)
		}
	}
}

// memberStatuses lists the quorum membership with pod readiness and counts
// ready required members per role group.
func (r *ZookeeperClusterReconciler) memberStatuses(zk *zookeeperv1alpha1.ZookeeperCluster, report *passReport) ([]zookeeperv1alpha1.MemberStatus, map[string]int32) {
	plan, snap := report.plan, report.snapshot

	retiring := make(map[int32]bool, len(plan.Retiring))
	for _, m := range plan.Retiring {
		retiring[m.ID] = true
	}

	type counts struct{ ready, notReady, retiring int }
	perGroup := make(map[string]*counts)
	for _, g := range zk.Spec.RoleGroupNames() {
		perGroup[g] = &counts{}
	}

	members := make([]zookeeperv1alpha1.MemberStatus, 0, len(plan.Members)+len(plan.Retiring))
	readyReplicas := make(map[string]int32, len(perGroup))
	for g := range perGroup {
		readyReplicas[g] = 0
	}

	all := append(append(plan.Members[:0:0], plan.Members...), plan.Retiring...)
	for _, m := range all {
		pod, ok := snap.Pod(m.RoleGroup, m.Ordinal)
		ready := ok && isPodReady(pod)
		members = append(members, zookeeperv1alpha1.MemberStatus{
			ID:        m.ID,
			RoleGroup: m.RoleGroup,
			Ordinal:   m.Ordinal,
			Hostname:  m.Hostname,
			Ready:     ready,
			Retiring:  retiring[m.ID],
		})

		c, ok := perGroup[m.RoleGroup]
		if !ok {
			c = &counts{}
			perGroup[m.RoleGroup] = c
		}
		switch {
		case retiring[m.ID]:
			c.retiring++
		case ready:
			c.ready++
			readyReplicas[m.RoleGroup]++
		default:
			c.notReady++
		}
	}
	sortMembers(members)

	for g, c := range perGroup {
		r.recordMembers(zk.Name, g, c.ready, c.notReady, c.retiring)
	}
	return members, readyReplicas
}

func sortMembers(members []zookeeperv1alpha1.MemberStatus) {
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
}

func setCondition(zk *zookeeperv1alpha1.ZookeeperCluster, condType string, ok bool, reason, message string) {
	meta.SetStatusCondition(&zk.Status.Conditions, metav1.Condition{
		Type:               condType,
		Status:             conditionStatus(ok),
		Reason:             reason,
		Message:            message,
		ObservedGeneration: zk.Generation,
	})
}

func conditionStatus(ok bool) metav1.ConditionStatus {
	if ok {
		return metav1.ConditionTrue
	}
	return metav1.ConditionFalse
}

func conditionReason(ok bool, trueReason, falseReason string) string {
	if ok {
		return trueReason
	}
	return falseReason
}

// reasonFor turns an error kind into a condition reason.
func reasonFor(err error) string {
	if kind := zookeeper.KindOf(err); kind != "" {
		return string(kind)
	}
	return "Error"
}
