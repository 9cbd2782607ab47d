package resources

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	zookeeperv1alpha1 "github.com/imamik/zookeeper-operator/api/v1alpha1"
	"github.com/imamik/zookeeper-operator/internal/util/labels"
	"github.com/imamik/zookeeper-operator/internal/zookeeper"
	"github.com/imamik/zookeeper-operator/internal/zookeeper/topology"
	"github.com/imamik/zookeeper-operator/internal/zookeeper/zkconfig"
)

func testCluster(replicas int32) *zookeeperv1alpha1.ZookeeperCluster {
	return &zookeeperv1alpha1.ZookeeperCluster{
		ObjectMeta: metav1.ObjectMeta{Name: "zk", Namespace: "default", UID: types.UID("uid-1")},
		Spec: zookeeperv1alpha1.ZookeeperClusterSpec{
			Version: "3.9.2",
			Servers: zookeeperv1alpha1.ServersSpec{RoleGroups: map[string]zookeeperv1alpha1.RoleGroupSpec{
				"default": {Replicas: replicas, Selector: map[string]string{"disk": "ssd"}},
			}},
		},
	}
}

func groupMembers(t *testing.T, zk *zookeeperv1alpha1.ZookeeperCluster) []GroupMember {
	t.Helper()
	plan, err := topology.Compute(topology.Request{Name: zk.Name, Namespace: zk.Namespace, Spec: &zk.Spec}, nil)
	require.NoError(t, err)

	var out []GroupMember
	for _, m := range plan.MembersOf("default") {
		r, err := zkconfig.Render(zkconfig.Input{Version: zk.Spec.Version, Membership: plan.Membership, Self: m})
		require.NoError(t, err)
		out = append(out, GroupMember{Identity: m, Rendered: r})
	}
	return out
}

func assertOwned(t *testing.T, obj metav1.Object) {
	t.Helper()
	require.Len(t, obj.GetOwnerReferences(), 1)
	ref := obj.GetOwnerReferences()[0]
	assert.Equal(t, "ZookeeperCluster", ref.Kind)
	assert.Equal(t, "zk", ref.Name)
	assert.Equal(t, types.UID("uid-1"), ref.UID)
	require.NotNil(t, ref.Controller)
	assert.True(t, *ref.Controller)
	assert.Equal(t, "zk", obj.GetLabels()[labels.KeyInstance])
	assert.Equal(t, labels.ManagedByOperator, obj.GetLabels()[labels.KeyManagedBy])
}

func TestMemberConfigMap(t *testing.T) {
	zk := testCluster(3)
	members := groupMembers(t, zk)

	cm := MemberConfigMap(zk, members[1].Identity, members[1].Rendered)

	assert.Equal(t, "zk-server-default-1", cm.Name)
	assert.Equal(t, "default", cm.Namespace)
	assert.Equal(t, "2", cm.Labels[labels.KeyMemberID])
	assert.Equal(t, "1", cm.Labels[labels.KeyOrdinal])
	assert.Equal(t, "default", cm.Labels[labels.KeyRoleGroup])
	assert.Equal(t, members[1].Rendered.Checksum, cm.Annotations[AnnotationConfigChecksum])
	assert.Equal(t, "2\n", cm.Data[zkconfig.FileMyID])
	assertOwned(t, cm)
}

func TestServices(t *testing.T) {
	zk := testCluster(1)

	client := ClientService(zk)
	assert.Equal(t, "zk", client.Name)
	assert.Equal(t, corev1.ServiceTypeClusterIP, client.Spec.Type)
	assert.Empty(t, client.Spec.ClusterIP)
	require.Len(t, client.Spec.Ports, 1)
	assert.Equal(t, int32(2181), client.Spec.Ports[0].Port)
	assertOwned(t, client)

	headless := HeadlessService(zk, "default", 7000)
	assert.Equal(t, "zk-server-default", headless.Name)
	assert.Equal(t, corev1.ClusterIPNone, headless.Spec.ClusterIP)
	assert.True(t, headless.Spec.PublishNotReadyAddresses)
	assert.Len(t, headless.Spec.Ports, 4)
	assert.Equal(t, "default", headless.Spec.Selector[labels.KeyRoleGroup])
	assertOwned(t, headless)

	assert.Len(t, HeadlessService(zk, "default", 0).Spec.Ports, 3)
}

func TestPodDisruptionBudget(t *testing.T) {
	zk := testCluster(3)
	pdb := PodDisruptionBudget(zk, "default")

	assert.Equal(t, "zk-server-default", pdb.Name)
	require.NotNil(t, pdb.Spec.MaxUnavailable)
	assert.Equal(t, 1, pdb.Spec.MaxUnavailable.IntValue())
	assert.Equal(t, labels.SelectorLabels("zk", "default"), pdb.Spec.Selector.MatchLabels)
	assertOwned(t, pdb)
}

func TestStatefulSet(t *testing.T) {
	zk := testCluster(3)
	members := groupMembers(t, zk)

	sts, err := StatefulSet(zk, "default", zk.Spec.Servers.RoleGroups["default"], members,
		Options{ImageRepository: "zookeeper", PullPolicy: corev1.PullIfNotPresent})
	require.NoError(t, err)

	assert.Equal(t, "zk-server-default", sts.Name)
	assert.Equal(t, int32(3), *sts.Spec.Replicas)
	assert.Equal(t, "zk-server-default", sts.Spec.ServiceName)
	assert.Equal(t, appsv1.OnDeleteStatefulSetStrategyType, sts.Spec.UpdateStrategy.Type)
	assert.Equal(t, appsv1.ParallelPodManagement, sts.Spec.PodManagementPolicy)
	assertOwned(t, sts)

	pod := sts.Spec.Template
	for k, v := range sts.Spec.Selector.MatchLabels {
		assert.Equal(t, v, pod.Labels[k], "template must match selector key %s", k)
	}
	assert.NotEmpty(t, pod.Annotations[AnnotationConfigChecksum])
	assert.Equal(t, map[string]string{"disk": "ssd"}, pod.Spec.NodeSelector)

	require.Len(t, pod.Spec.Containers, 1)
	c := pod.Spec.Containers[0]
	assert.Equal(t, "zookeeper:3.9.2", c.Image)
	assert.True(t, strings.Contains(c.Command[2], "zkServer.sh start-foreground"))
	require.NotNil(t, c.ReadinessProbe)
	assert.Equal(t, int32(3), c.ReadinessProbe.FailureThreshold)

	projected := pod.Spec.Volumes[0].Projected
	require.NotNil(t, projected)
	require.Len(t, projected.Sources, 3)
	for i, src := range projected.Sources {
		require.NotNil(t, src.ConfigMap)
		assert.Equal(t, members[i].Rendered.FileNames()[0], src.ConfigMap.Items[0].Key)
		assert.True(t, strings.HasPrefix(src.ConfigMap.Items[0].Path, string(rune('0'+i))+"/"))
		assert.True(t, *src.ConfigMap.Optional)
	}

	require.Len(t, sts.Spec.VolumeClaimTemplates, 1)
	size := sts.Spec.VolumeClaimTemplates[0].Spec.Resources.Requests[corev1.ResourceStorage]
	assert.True(t, size.Equal(resource.MustParse("1Gi")))
}

func TestStatefulSet_ChecksumFollowsConfig(t *testing.T) {
	zk := testCluster(1)
	members := groupMembers(t, zk)
	opts := Options{ImageRepository: "zookeeper", PullPolicy: corev1.PullIfNotPresent}

	a, err := StatefulSet(zk, "default", zk.Spec.Servers.RoleGroups["default"], members, opts)
	require.NoError(t, err)
	b, err := StatefulSet(zk, "default", zk.Spec.Servers.RoleGroups["default"], members, opts)
	require.NoError(t, err)
	assert.Equal(t, a.Spec.Template.Annotations, b.Spec.Template.Annotations)

	changed := []GroupMember{{Identity: members[0].Identity, Rendered: &zkconfig.Rendered{
		Files:    members[0].Rendered.Files,
		Checksum: "different",
	}}}
	c, err := StatefulSet(zk, "default", zk.Spec.Servers.RoleGroups["default"], changed, opts)
	require.NoError(t, err)
	assert.NotEqual(t, a.Spec.Template.Annotations[AnnotationConfigChecksum], c.Spec.Template.Annotations[AnnotationConfigChecksum])
}

func TestStatefulSet_InvalidStorage(t *testing.T) {
	zk := testCluster(1)
	spec := zk.Spec.Servers.RoleGroups["default"]
	spec.Storage = "lots"

	_, err := StatefulSet(zk, "default", spec, groupMembers(t, zk), Options{ImageRepository: "zookeeper"})
	require.Error(t, err)
	assert.True(t, zookeeper.IsKind(err, zookeeper.KindInvalidSpec))
	assert.Contains(t, err.Error(), "storage")
}

func TestStatefulSet_Scheduling(t *testing.T) {
	zk := testCluster(3)
	members := groupMembers(t, zk)
	opts := Options{ImageRepository: "zookeeper"}

	t.Run("servers avoid sharing a node by default", func(t *testing.T) {
		sts, err := StatefulSet(zk, "default", zk.Spec.Servers.RoleGroups["default"], members, opts)
		require.NoError(t, err)

		affinity := sts.Spec.Template.Spec.Affinity
		require.NotNil(t, affinity)
		require.NotNil(t, affinity.PodAntiAffinity)
		terms := affinity.PodAntiAffinity.RequiredDuringSchedulingIgnoredDuringExecution
		require.Len(t, terms, 1)
		assert.Equal(t, TopologyKeyHostname, terms[0].TopologyKey)

		// Spans every role group of the ensemble, not only this one
		match := terms[0].LabelSelector.MatchLabels
		assert.Equal(t, labels.ClusterSelectorLabels("zk"), match)
		assert.NotContains(t, match, labels.KeyRoleGroup)
		for k, v := range match {
			assert.Equal(t, v, sts.Spec.Template.Labels[k])
		}
		assert.Empty(t, sts.Spec.Template.Spec.Tolerations)
	})

	t.Run("role group affinity replaces the default", func(t *testing.T) {
		spec := zk.Spec.Servers.RoleGroups["default"]
		spec.Affinity = &corev1.Affinity{
			PodAntiAffinity: &corev1.PodAntiAffinity{
				PreferredDuringSchedulingIgnoredDuringExecution: []corev1.WeightedPodAffinityTerm{{
					Weight: 20,
					PodAffinityTerm: corev1.PodAffinityTerm{
						LabelSelector: &metav1.LabelSelector{MatchLabels: labels.ClusterSelectorLabels("zk")},
						TopologyKey:   "topology.kubernetes.io/zone",
					},
				}},
			},
		}

		sts, err := StatefulSet(zk, "default", spec, members, opts)
		require.NoError(t, err)
		assert.Equal(t, spec.Affinity, sts.Spec.Template.Spec.Affinity)
		assert.NotSame(t, spec.Affinity, sts.Spec.Template.Spec.Affinity)
	})

	t.Run("tolerations are passed through", func(t *testing.T) {
		spec := zk.Spec.Servers.RoleGroups["default"]
		spec.Tolerations = []corev1.Toleration{
			{Key: "dedicated", Operator: corev1.TolerationOpEqual, Value: "zookeeper", Effect: corev1.TaintEffectNoSchedule},
			{Key: "node.kubernetes.io/network-unavailable", Operator: corev1.TolerationOpExists, Effect: corev1.TaintEffectNoSchedule},
		}

		sts, err := StatefulSet(zk, "default", spec, members, opts)
		require.NoError(t, err)
		assert.Equal(t, spec.Tolerations, sts.Spec.Template.Spec.Tolerations)
	})
}
