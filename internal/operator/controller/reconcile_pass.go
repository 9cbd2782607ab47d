package controller

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	zookeeperv1alpha1 "github.com/imamik/zookeeper-operator/api/v1alpha1"
	"github.com/imamik/zookeeper-operator/internal/operator/apply"
	"github.com/imamik/zookeeper-operator/internal/operator/diff"
	"github.com/imamik/zookeeper-operator/internal/operator/observer"
	"github.com/imamik/zookeeper-operator/internal/operator/resources"
	"github.com/imamik/zookeeper-operator/internal/util/labels"
	"github.com/imamik/zookeeper-operator/internal/zookeeper"
	"github.com/imamik/zookeeper-operator/internal/zookeeper/topology"
	"github.com/imamik/zookeeper-operator/internal/zookeeper/zkconfig"
)

// passReport is everything one reconcile pass learned and did.
type passReport struct {
	snapshot *observer.Snapshot
	plan     *topology.Plan

	// failedGroups are role groups whose objects were left untouched
	failedGroups map[string]error
	actions      []diff.Action
	results      map[apply.Result]int
	errs         []error
	applyFailed  bool

	rollingPending bool
}

func newPassReport() *passReport {
	return &passReport{
		failedGroups: make(map[string]error),
		results:      make(map[apply.Result]int),
	}
}

func (p *passReport) fail(err error) {
	if err != nil {
		p.errs = append(p.errs, err)
	}
}

func (p *passReport) err() error {
	return errors.Join(p.errs...)
}

// writes counts successful creates, updates and deletes.
func (p *passReport) writes() int {
	return p.results[apply.ResultCreated] + p.results[apply.ResultUpdated] + p.results[apply.ResultDeleted]
}

// specError returns the first failure only a spec change can fix.
func (p *passReport) specError() error {
	for _, err := range p.errs {
		if zookeeper.IsSpecError(err) {
			return err
		}
	}
	return nil
}

// retryableError returns the first failure a later pass may heal on its own.
func (p *passReport) retryableError() error {
	for _, err := range p.errs {
		if !zookeeper.IsSpecError(err) {
			return err
		}
	}
	return nil
}

func (p *passReport) outcome() string {
	switch {
	case p.retryableError() != nil:
		return "error"
	case p.specError() != nil:
		return "spec_error"
	case p.rollingPending:
		return "rolling"
	default:
		return "success"
	}
}

// groupBundle is the rendered state of one role group.
type groupBundle struct {
	name       string
	inSpec     bool
	spec       zookeeperv1alpha1.RoleGroupSpec
	required   []resources.GroupMember
	retiring   []resources.GroupMember
	objects    []client.Object
	configMaps []client.Object
}

// reconcilePass runs Observe, Plan, Render, Diff and Apply for one ensemble.
// Every failure is recorded on the report; independent objects are still applied.
func (r *ZookeeperClusterReconciler) reconcilePass(ctx context.Context, zk *zookeeperv1alpha1.ZookeeperCluster) *passReport {
	logger := log.FromContext(ctx)
	report := newPassReport()

	// Phase 1: Observe
	logger.V(1).Info("observing owned objects")
	snap, err := r.observer.Observe(ctx, zk)
	if err != nil {
		report.fail(err)
		return report
	}
	report.snapshot = snap

	previous, err := snap.Identities()
	if err != nil {
		report.fail(err)
		r.recordPassFailure(ctx, zk, err)
		return report
	}

	// Phase 2: Plan
	logger.V(1).Info("planning topology", "previousMembers", len(previous))
	plan, err := topology.Compute(topology.Request{
		Name:          zk.Name,
		Namespace:     zk.Namespace,
		ClusterDomain: r.clusterDomain(zk),
		Spec:          &zk.Spec,
	}, previous)
	if err != nil {
		report.fail(err)
		r.recordPassFailure(ctx, zk, err)
		return report
	}
	report.plan = plan
	logger.V(1).Info("planned topology", "plan", topology.Describe(plan))

	// Phase 3: Render
	bundles := r.renderGroups(zk, plan, report)
	for group, gerr := range report.failedGroups {
		logger.Info("skipping role group", "group", group, "reason", gerr.Error())
		r.recordPassFailure(ctx, zk, gerr)
	}

	// Phase 4: Diff
	desired := desiredObjects(zk, bundles)
	report.actions = diff.Compute(desired, snap, protectedFor(snap, report.failedGroups))
	logger.V(1).Info("computed actions", "total", len(report.actions), "pending", diff.Pending(report.actions))

	// Phase 5: Apply
	r.applyActions(ctx, report)
	if n := report.writes(); n > 0 {
		r.Recorder.Eventf(zk, corev1.EventTypeNormal, EventReasonObjectsApplied,
			"Applied %d change(s): %d created, %d updated, %d deleted", n,
			report.results[apply.ResultCreated], report.results[apply.ResultUpdated], report.results[apply.ResultDeleted])
	}

	// Phase 6: Rolling restart, only once every write of this pass landed
	if !report.applyFailed {
		pending, err := r.rollingRestart(ctx, zk, report)
		report.rollingPending = pending
		report.fail(err)
	}

	return report
}

func (r *ZookeeperClusterReconciler) clusterDomain(zk *zookeeperv1alpha1.ZookeeperCluster) string {
	if zk.Spec.ClusterDomain != "" {
		return zk.Spec.ClusterDomain
	}
	return r.cfg.ClusterDomain
}

// renderGroups renders every member and builds the objects of every role
// group, including groups that only hold retiring members. A group that fails
// is recorded in report.failedGroups and left out.
func (r *ZookeeperClusterReconciler) renderGroups(zk *zookeeperv1alpha1.ZookeeperCluster, plan *topology.Plan, report *passReport) []*groupBundle {
	groups := zk.Spec.RoleGroupNames()
	inSpec := make(map[string]bool, len(groups))
	for _, g := range groups {
		inSpec[g] = true
	}
	for _, m := range plan.Retiring {
		if !inSpec[m.RoleGroup] {
			groups = append(groups, m.RoleGroup)
			inSpec[m.RoleGroup] = false
		}
	}

	var bundles []*groupBundle
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		if seen[g] {
			continue
		}
		seen[g] = true

		b, err := r.renderGroup(zk, plan, g, inSpec[g])
		if err != nil {
			report.failedGroups[g] = err
			report.fail(err)
			continue
		}
		bundles = append(bundles, b)
	}
	return bundles
}

func (r *ZookeeperClusterReconciler) renderGroup(zk *zookeeperv1alpha1.ZookeeperCluster, plan *topology.Plan, group string, inSpec bool) (*groupBundle, error) {
	b := &groupBundle{name: group, inSpec: inSpec}
	if inSpec {
		b.spec = zk.Spec.Servers.RoleGroups[group]
	}

	render := func(m topology.Identity) (resources.GroupMember, error) {
		rendered, err := zkconfig.Render(zkconfig.Input{
			Version:    zk.Spec.Version,
			Overrides:  b.spec.Config,
			Membership: plan.Membership,
			Self:       m,
		})
		if err != nil {
			return resources.GroupMember{}, fmt.Errorf("role group %s: %w", group, err)
		}
		return resources.GroupMember{Identity: m, Rendered: rendered}, nil
	}

	for _, m := range plan.MembersOf(group) {
		gm, err := render(m)
		if err != nil {
			return nil, err
		}
		b.required = append(b.required, gm)
	}
	for _, m := range plan.RetiringOf(group) {
		gm, err := render(m)
		if err != nil {
			return nil, err
		}
		b.retiring = append(b.retiring, gm)
	}

	for _, gm := range append(append([]resources.GroupMember(nil), b.required...), b.retiring...) {
		b.configMaps = append(b.configMaps, resources.MemberConfigMap(zk, gm.Identity, gm.Rendered))
	}

	if !inSpec {
		return b, nil
	}

	sts, err := resources.StatefulSet(zk, group, b.spec, b.required, r.builderOptions())
	if err != nil {
		return nil, err
	}
	metricsPort := zkconfig.MetricsPort(zk.Spec.Version, b.spec.Config)
	b.objects = []client.Object{
		resources.HeadlessService(zk, group, metricsPort),
		sts,
		resources.PodDisruptionBudget(zk, group),
	}
	return b, nil
}

// desiredObjects orders the desired objects so dependencies come first:
// member config bundles by ascending id, the client Service, headless
// Services, StatefulSets, then PodDisruptionBudgets.
func desiredObjects(zk *zookeeperv1alpha1.ZookeeperCluster, bundles []*groupBundle) []client.Object {
	var (
		configMaps []client.Object
		headless   []client.Object
		sets       []client.Object
		budgets    []client.Object
	)
	for _, b := range bundles {
		configMaps = append(configMaps, b.configMaps...)
		if len(b.objects) == 3 {
			headless = append(headless, b.objects[0])
			sets = append(sets, b.objects[1])
			budgets = append(budgets, b.objects[2])
		}
	}
	sortByMemberID(configMaps)

	out := make([]client.Object, 0, len(configMaps)+1+len(headless)+len(sets)+len(budgets))
	out = append(out, configMaps...)
	out = append(out, resources.ClientService(zk))
	out = append(out, headless...)
	out = append(out, sets...)
	out = append(out, budgets...)
	return out
}

// protectedFor keeps every object of a failed role group out of the delete set.
func protectedFor(snap *observer.Snapshot, failed map[string]error) func(observer.ObjectKey) bool {
	if len(failed) == 0 {
		return nil
	}
	return func(key observer.ObjectKey) bool {
		obj, ok := snap.Get(key)
		if !ok {
			return false
		}
		_, hit := failed[obj.GetLabels()[labels.KeyRoleGroup]]
		return hit
	}
}

// applyActions executes every action independently and records the outcome.
func (r *ZookeeperClusterReconciler) applyActions(ctx context.Context, report *passReport) {
	logger := log.FromContext(ctx)

	for _, a := range report.actions {
		switch a.Type {
		case diff.ActionNoop:
			continue
		case diff.ActionDelete:
			if err := r.executor.Delete(ctx, a.Live); err != nil {
				logger.Error(err, "failed to delete object", "object", a.Key.String())
				report.applyFailed = true
				report.fail(err)
				continue
			}
			report.results[apply.ResultDeleted]++
		default:
			result, err := r.executor.Apply(ctx, a.Desired)
			if err != nil {
				logger.Error(err, "failed to apply object", "object", a.Key.String())
				report.applyFailed = true
				report.fail(err)
				continue
			}
			report.results[result]++
		}
	}
}

// recordPassFailure emits a warning event matching the error kind.
func (r *ZookeeperClusterReconciler) recordPassFailure(ctx context.Context, zk *zookeeperv1alpha1.ZookeeperCluster, err error) {
	reason := EventReasonApplyFailed
	switch zookeeper.KindOf(err) {
	case zookeeper.KindInvalidSpec, zookeeper.KindUnknownConfigKey:
		reason = EventReasonInvalidSpec
	case zookeeper.KindInconsistentTopology:
		reason = EventReasonTopologyError
		log.FromContext(ctx).Error(err, "inconsistent topology")
	}
	r.Recorder.Event(zk, corev1.EventTypeWarning, reason, err.Error())
}

func sortByMemberID(objs []client.Object) {
	id := func(o client.Object) int {
		n, _ := strconv.Atoi(o.GetLabels()[labels.KeyMemberID])
		return n
	}
	sort.SliceStable(objs, func(i, j int) bool { return id(objs[i]) < id(objs[j]) })
}
