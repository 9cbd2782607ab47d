package controller

import (
	"context"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	policyv1 "k8s.io/api/policy/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	zookeeperv1alpha1 "github.com/imamik/zookeeper-operator/api/v1alpha1"
	"github.com/imamik/zookeeper-operator/internal/config"
	"github.com/imamik/zookeeper-operator/internal/operator/apply"
	"github.com/imamik/zookeeper-operator/internal/operator/observer"
	"github.com/imamik/zookeeper-operator/internal/operator/resources"
	"github.com/imamik/zookeeper-operator/internal/util/labels"
	"github.com/imamik/zookeeper-operator/internal/util/retry"
)

// Event reasons emitted on ZookeeperCluster objects.
const (
	EventReasonObjectsApplied  = "ObjectsApplied"
	EventReasonApplyFailed     = "ApplyFailed"
	EventReasonInvalidSpec     = "InvalidSpec"
	EventReasonTopologyError   = "InconsistentTopology"
	EventReasonRollingRestart  = "RollingRestart"
	EventReasonEnsembleReady   = "EnsembleReady"
	EventReasonPaused          = "Paused"
	EventReasonStatusPatchFail = "StatusUpdateFailed"
)

const conditionReasonPaused = "Paused"

// ZookeeperClusterReconciler reconciles a ZookeeperCluster object.
type ZookeeperClusterReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder

	cfg           *config.Config
	enableMetrics bool
	apiReader     client.Reader

	observer *observer.Observer
	executor *apply.Executor
	backoff  *retry.Tracker
}

// Option configures a ZookeeperClusterReconciler.
type Option func(*ZookeeperClusterReconciler)

// WithConfig sets the operator configuration.
func WithConfig(cfg *config.Config) Option {
	return func(r *ZookeeperClusterReconciler) {
		if cfg != nil {
			r.cfg = cfg
		}
	}
}

// WithMetrics enables or disables Prometheus metrics recording.
func WithMetrics(enable bool) Option {
	return func(r *ZookeeperClusterReconciler) {
		r.enableMetrics = enable
	}
}

// WithAPIReader sets an uncached reader for the fresh read after a write conflict.
func WithAPIReader(reader client.Reader) Option {
	return func(r *ZookeeperClusterReconciler) {
		r.apiReader = reader
	}
}

// NewZookeeperClusterReconciler creates a new ZookeeperClusterReconciler.
func NewZookeeperClusterReconciler(c client.Client, scheme *runtime.Scheme, recorder record.EventRecorder, opts ...Option) *ZookeeperClusterReconciler {
	r := &ZookeeperClusterReconciler{
		Client:        c,
		Scheme:        scheme,
		Recorder:      recorder,
		cfg:           config.Default(),
		enableMetrics: true,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.observer = observer.New(c)
	r.executor = apply.New(c, apply.WithAPIReader(r.apiReader))
	r.backoff = retry.NewTracker(r.cfg.RetryBackoff())
	return r
}

// +kubebuilder:rbac:groups=zookeeper.imamik.io,resources=zookeeperclusters,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=zookeeper.imamik.io,resources=zookeeperclusters/status,verbs=get;update;patch
// +kubebuilder:rbac:groups="",resources=configmaps;services,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups="",resources=pods,verbs=get;list;watch;delete
// +kubebuilder:rbac:groups="",resources=events,verbs=create;patch
// +kubebuilder:rbac:groups=apps,resources=statefulsets,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=policy,resources=poddisruptionbudgets,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=coordination.k8s.io,resources=leases,verbs=get;create;update

// Reconcile handles the reconciliation loop for ZookeeperCluster resources.
//
// Failures are never returned. They end up in the status and in RequeueAfter,
// which follows the per-ensemble backoff.
func (r *ZookeeperClusterReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)
	start := time.Now()
	key := req.NamespacedName.String()

	zk := &zookeeperv1alpha1.ZookeeperCluster{}
	if err := r.Get(ctx, req.NamespacedName, zk); err != nil {
		if apierrors.IsNotFound(err) {
			// Object deleted, owned objects are garbage collected
			r.backoff.Reset(key)
			return ctrl.Result{}, nil
		}
		logger.Error(err, "unable to fetch ZookeeperCluster")
		return ctrl.Result{RequeueAfter: r.backoff.Next(key)}, nil
	}

	if zk.Spec.Paused {
		r.markPaused(ctx, zk)
		return ctrl.Result{RequeueAfter: r.cfg.Requeue.Default}, nil
	}

	base := zk.DeepCopy()
	report := r.reconcilePass(ctx, zk)

	r.updateStatus(ctx, zk, report)
	if err := r.Status().Patch(ctx, zk, client.MergeFrom(base)); err != nil {
		logger.Error(err, "failed to update status")
		r.Recorder.Eventf(zk, corev1.EventTypeWarning, EventReasonStatusPatchFail, "Failed to update status: %v", err)
		report.fail(err)
	}

	result := r.requeueDecision(key, report)
	r.recordReconcile(zk.Name, report.outcome(), time.Since(start).Seconds())

	logger.V(1).Info("reconcile pass finished",
		"outcome", report.outcome(),
		"writes", report.writes(),
		"requeueAfter", result.RequeueAfter,
	)
	return result, nil
}

// markPaused records the pause in the Progressing condition. The event is only
// emitted when the ensemble enters the paused state.
func (r *ZookeeperClusterReconciler) markPaused(ctx context.Context, zk *zookeeperv1alpha1.ZookeeperCluster) {
	logger := log.FromContext(ctx)

	cond := meta.FindStatusCondition(zk.Status.Conditions, zookeeperv1alpha1.ConditionProgressing)
	if cond != nil && cond.Reason == conditionReasonPaused && cond.ObservedGeneration == zk.Generation {
		logger.V(1).Info("ensemble is still paused")
		return
	}

	logger.Info("ensemble is paused, skipping reconciliation")
	base := zk.DeepCopy()
	setCondition(zk, zookeeperv1alpha1.ConditionProgressing, false, conditionReasonPaused, "Reconciliation is paused")
	if err := r.Status().Patch(ctx, zk, client.MergeFrom(base)); err != nil {
		logger.Error(err, "failed to record pause in status")
		return
	}
	r.Recorder.Event(zk, corev1.EventTypeNormal, EventReasonPaused, "Reconciliation is paused")
}

// SetupWithManager sets up the controller with the Manager.
func (r *ZookeeperClusterReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&zookeeperv1alpha1.ZookeeperCluster{}, builder.WithPredicates(predicate.GenerationChangedPredicate{})).
		Owns(&corev1.ConfigMap{}).
		Owns(&corev1.Service{}).
		Owns(&appsv1.StatefulSet{}).
		Owns(&policyv1.PodDisruptionBudget{}).
		// Pods are owned by StatefulSets; readiness changes drive rolling restarts
		Watches(&corev1.Pod{}, handler.EnqueueRequestsFromMapFunc(podToCluster)).
		WithOptions(controller.Options{MaxConcurrentReconciles: r.cfg.Workers}).
		Complete(r)
}

// podToCluster maps a server pod to its ensemble by label.
func podToCluster(_ context.Context, obj client.Object) []reconcile.Request {
	lbls := obj.GetLabels()
	if lbls[labels.KeyManagedBy] != labels.ManagedByOperator || lbls[labels.KeyInstance] == "" {
		return nil
	}
	return []reconcile.Request{{
		NamespacedName: types.NamespacedName{
			Namespace: obj.GetNamespace(),
			Name:      lbls[labels.KeyInstance],
		},
	}}
}

// builderOptions returns the settings the object builders need.
func (r *ZookeeperClusterReconciler) builderOptions() resources.Options {
	return resources.Options{
		ImageRepository: r.cfg.Image.Repository,
		PullPolicy:      corev1.PullPolicy(r.cfg.Image.PullPolicy),
	}
}
