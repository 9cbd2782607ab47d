package v1alpha1

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/yaml"
)

func TestSampleManifest(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "config", "samples", "zookeeper_v1alpha1_zookeepercluster.yaml"))
	require.NoError(t, err)

	zk := &ZookeeperCluster{}
	require.NoError(t, yaml.UnmarshalStrict(data, zk))

	assert.Equal(t, "ZookeeperCluster", zk.Kind)
	assert.Equal(t, GroupVersion.String(), zk.APIVersion)
	assert.Equal(t, "3.9.2", zk.Spec.Version)
	require.Contains(t, zk.Spec.Servers.RoleGroups, "default")
	assert.Equal(t, int32(3), zk.Spec.Servers.RoleGroups["default"].Replicas)
	assert.Equal(t, "2000", zk.Spec.Servers.RoleGroups["default"].Config["tickTime"])
}

func TestRoleGroupNames(t *testing.T) {
	spec := &ZookeeperClusterSpec{
		Servers: ServersSpec{RoleGroups: map[string]RoleGroupSpec{
			"zeta":  {Replicas: 1},
			"alpha": {Replicas: 2},
			"mid":   {Replicas: 2},
		}},
	}

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, spec.RoleGroupNames())
	assert.Equal(t, int32(5), spec.DesiredReplicas())
}

func TestDeepCopy_IsIndependent(t *testing.T) {
	zk := &ZookeeperCluster{
		Spec: ZookeeperClusterSpec{
			Version: "3.9.2",
			Servers: ServersSpec{RoleGroups: map[string]RoleGroupSpec{
				"default": {Replicas: 3, Config: map[string]string{"tickTime": "2000"}},
			}},
		},
		Status: ZookeeperClusterStatus{
			ReadyReplicas: map[string]int32{"default": 3},
			Members:       []MemberStatus{{ID: 1, RoleGroup: "default"}},
		},
	}

	cp := zk.DeepCopy()
	cp.Spec.Servers.RoleGroups["default"].Config["tickTime"] = "3000"
	cp.Spec.Servers.RoleGroups["default"].Affinity.PodAntiAffinity = nil
	cp.Spec.Servers.RoleGroups["default"].Tolerations[0].Value = "other"
	cp.Status.ReadyReplicas["default"] = 0
	cp.Status.Members[0].ID = 9

	assert.Equal(t, "2000", zk.Spec.Servers.RoleGroups["default"].Config["tickTime"])
	assert.NotNil(t, zk.Spec.Servers.RoleGroups["default"].Affinity.PodAntiAffinity)
	assert.Equal(t, "zookeeper", zk.Spec.Servers.RoleGroups["default"].Tolerations[0].Value)
	assert.Equal(t, int32(3), zk.Status.ReadyReplicas["default"])
	assert.Equal(t, int32(1), zk.Status.Members[0].ID)
}

func TestStatusRoundTrip(t *testing.T) {
	in := []byte(`phase: Running
readyReplicas:
  default: 3
members:
- id: 1
  roleGroup: default
  ordinal: 0
  hostname: zk-server-default-0.zk-server-default.default.svc.cluster.local
  ready: true
- id: 4
  roleGroup: default
  ordinal: 3
  hostname: zk-server-default-3.zk-server-default.default.svc.cluster.local
  ready: false
  retiring: true
`)

	status := &ZookeeperClusterStatus{}
	require.NoError(t, yaml.UnmarshalStrict(in, status))

	assert.Equal(t, ClusterPhaseRunning, status.Phase)
	require.Len(t, status.Members, 2)
	assert.True(t, status.Members[1].Retiring)
	assert.False(t, status.Members[0].Retiring)
}
