package observer

import (
	"context"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	policyv1 "k8s.io/api/policy/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	zookeeperv1alpha1 "github.com/imamik/zookeeper-operator/api/v1alpha1"
	"github.com/imamik/zookeeper-operator/internal/util/async"
	"github.com/imamik/zookeeper-operator/internal/util/labels"
	"github.com/imamik/zookeeper-operator/internal/zookeeper"
)

// Observer lists the owned objects of ensembles.
type Observer struct {
	reader client.Reader
}

// New creates an observer reading through reader.
func New(reader client.Reader) *Observer {
	return &Observer{reader: reader}
}

// Observe returns the live state of an ensemble. It never writes; any list
// failure is returned as PlatformTransient.
func (o *Observer) Observe(ctx context.Context, zk *zookeeperv1alpha1.ZookeeperCluster) (*Snapshot, error) {
	opts := []client.ListOption{
		client.InNamespace(zk.Namespace),
		client.MatchingLabelsSelector{Selector: labels.SelectorForCluster(zk.Name)},
	}

	var (
		configMaps   corev1.ConfigMapList
		services     corev1.ServiceList
		statefulSets appsv1.StatefulSetList
		pdbs         policyv1.PodDisruptionBudgetList
		pods         corev1.PodList
	)

	list := func(l client.ObjectList) func(context.Context) error {
		return func(ctx context.Context) error {
			return o.reader.List(ctx, l, opts...)
		}
	}

	tasks := []async.Task{
		{Name: "configmaps", Func: list(&configMaps)},
		{Name: "services", Func: list(&services)},
		{Name: "statefulsets", Func: list(&statefulSets)},
		{Name: "poddisruptionbudgets", Func: list(&pdbs)},
		{Name: "pods", Func: list(&pods)},
	}
	if err := async.RunParallel(ctx, tasks, 0); err != nil {
		return nil, zookeeper.Wrap(zookeeper.KindPlatformTransient, err, "observe "+zk.Name)
	}

	snap := NewSnapshot(zk.Name)
	add := func(obj client.Object) {
		if metav1.IsControlledBy(obj, zk) {
			snap.Add(obj)
		}
	}
	for i := range configMaps.Items {
		add(&configMaps.Items[i])
	}
	for i := range services.Items {
		add(&services.Items[i])
	}
	for i := range statefulSets.Items {
		add(&statefulSets.Items[i])
	}
	for i := range pdbs.Items {
		add(&pdbs.Items[i])
	}
	for i := range pods.Items {
		snap.AddPod(&pods.Items[i])
	}

	return snap, nil
}
