package testing

import (
	"maps"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	zookeeperv1alpha1 "github.com/imamik/zookeeper-operator/api/v1alpha1"
	"github.com/imamik/zookeeper-operator/internal/util/labels"
	"github.com/imamik/zookeeper-operator/internal/util/naming"
)

// DefaultVersion is the ZooKeeper version of built clusters.
const DefaultVersion = "3.9.2"

// ClusterBuilder provides a fluent interface for constructing test ensembles.
// Each method returns a new builder (immutable) for chaining.
type ClusterBuilder struct {
	zk zookeeperv1alpha1.ZookeeperCluster
}

// NewClusterBuilder creates a builder for an ensemble in the default
// namespace with a UID and generation 1, as the API server would assign.
func NewClusterBuilder(name string) *ClusterBuilder {
	return &ClusterBuilder{
		zk: zookeeperv1alpha1.ZookeeperCluster{
			ObjectMeta: metav1.ObjectMeta{
				Name:       name,
				Namespace:  "default",
				UID:        types.UID("uid-" + name),
				Generation: 1,
			},
			Spec: zookeeperv1alpha1.ZookeeperClusterSpec{
				Version: DefaultVersion,
				Servers: zookeeperv1alpha1.ServersSpec{
					RoleGroups: map[string]zookeeperv1alpha1.RoleGroupSpec{},
				},
			},
		},
	}
}

// WithNamespace sets the namespace.
func (b *ClusterBuilder) WithNamespace(namespace string) *ClusterBuilder {
	newBuilder := b.clone()
	newBuilder.zk.Namespace = namespace
	return newBuilder
}

// WithVersion sets the ZooKeeper version.
func (b *ClusterBuilder) WithVersion(version string) *ClusterBuilder {
	newBuilder := b.clone()
	newBuilder.zk.Spec.Version = version
	return newBuilder
}

// WithRoleGroup adds a role group or changes its replica count.
func (b *ClusterBuilder) WithRoleGroup(name string, replicas int32) *ClusterBuilder {
	newBuilder := b.clone()
	group := newBuilder.zk.Spec.Servers.RoleGroups[name]
	group.Replicas = replicas
	newBuilder.zk.Spec.Servers.RoleGroups[name] = group
	return newBuilder
}

// WithGroupConfig sets a config override of a role group.
func (b *ClusterBuilder) WithGroupConfig(name, key, value string) *ClusterBuilder {
	newBuilder := b.clone()
	group := newBuilder.zk.Spec.Servers.RoleGroups[name]
	if group.Config == nil {
		group.Config = map[string]string{}
	}
	group.Config[key] = value
	newBuilder.zk.Spec.Servers.RoleGroups[name] = group
	return newBuilder
}

// WithGroupSelector sets the node selector of a role group.
func (b *ClusterBuilder) WithGroupSelector(name string, selector map[string]string) *ClusterBuilder {
	newBuilder := b.clone()
	group := newBuilder.zk.Spec.Servers.RoleGroups[name]
	group.Selector = maps.Clone(selector)
	newBuilder.zk.Spec.Servers.RoleGroups[name] = group
	return newBuilder
}

// Paused marks the ensemble as paused.
func (b *ClusterBuilder) Paused() *ClusterBuilder {
	newBuilder := b.clone()
	newBuilder.zk.Spec.Paused = true
	return newBuilder
}

// Build returns the constructed ensemble.
func (b *ClusterBuilder) Build() *zookeeperv1alpha1.ZookeeperCluster {
	return b.zk.DeepCopy()
}

// clone creates a deep copy of the builder for immutability.
func (b *ClusterBuilder) clone() *ClusterBuilder {
	return &ClusterBuilder{zk: *b.zk.DeepCopy()}
}

// MemberPod returns a server pod of the given role group as the StatefulSet
// controller would create it at the given revision.
func MemberPod(zk *zookeeperv1alpha1.ZookeeperCluster, group string, ordinal int32, revision string, ready bool) *corev1.Pod {
	status := corev1.ConditionFalse
	if ready {
		status = corev1.ConditionTrue
	}
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      naming.Pod(zk.Name, group, ordinal),
			Namespace: zk.Namespace,
			Labels: labels.NewLabelBuilder(zk.Name).
				WithRoleGroup(group).
				Merge(map[string]string{appsv1.ControllerRevisionHashLabelKey: revision}).
				Build(),
		},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{{Name: "zookeeper", Image: "zookeeper:" + zk.Spec.Version}},
		},
		Status: corev1.PodStatus{
			Phase:      corev1.PodRunning,
			Conditions: []corev1.PodCondition{{Type: corev1.PodReady, Status: status}},
		},
	}
}
