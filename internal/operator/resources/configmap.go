package resources

import (
	corev1 "k8s.io/api/core/v1"

	zookeeperv1alpha1 "github.com/imamik/zookeeper-operator/api/v1alpha1"
	"github.com/imamik/zookeeper-operator/internal/util/labels"
	"github.com/imamik/zookeeper-operator/internal/util/naming"
	"github.com/imamik/zookeeper-operator/internal/zookeeper/topology"
	"github.com/imamik/zookeeper-operator/internal/zookeeper/zkconfig"
)

// MemberConfigMap builds the config bundle of one member. The member id and
// ordinal labels are what the observer recovers identities from.
func MemberConfigMap(zk *zookeeperv1alpha1.ZookeeperCluster, member topology.Identity, rendered *zkconfig.Rendered) *corev1.ConfigMap {
	lbls := labels.NewLabelBuilder(zk.Name).
		WithRoleGroup(member.RoleGroup).
		WithMember(member.ID, member.Ordinal).
		WithVersion(zk.Spec.Version).
		Build()

	cm := &corev1.ConfigMap{
		ObjectMeta: objectMeta(zk, naming.MemberConfig(zk.Name, member.RoleGroup, member.Ordinal), lbls),
		Data:       make(map[string]string, len(rendered.Files)),
	}
	cm.Annotations = map[string]string{AnnotationConfigChecksum: rendered.Checksum}
	for name, content := range rendered.Files {
		cm.Data[name] = content
	}
	return cm
}
