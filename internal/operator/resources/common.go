package resources

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	zookeeperv1alpha1 "github.com/imamik/zookeeper-operator/api/v1alpha1"
	"github.com/imamik/zookeeper-operator/internal/util/labels"
)

// Annotation keys written on owned objects.
const (
	// AnnotationConfigChecksum carries the group checksum on pod templates and
	// the member checksum on config bundles.
	AnnotationConfigChecksum = "zookeeper.imamik.io/config-checksum"
)

// Options are operator-wide settings the builders need.
type Options struct {
	ImageRepository string
	PullPolicy      corev1.PullPolicy
}

func objectMeta(zk *zookeeperv1alpha1.ZookeeperCluster, name string, lbls map[string]string) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:      name,
		Namespace: zk.Namespace,
		Labels:    lbls,
		OwnerReferences: []metav1.OwnerReference{
			ownerReference(zk),
		},
	}
}

func ownerReference(zk *zookeeperv1alpha1.ZookeeperCluster) metav1.OwnerReference {
	return metav1.OwnerReference{
		APIVersion:         zookeeperv1alpha1.GroupVersion.String(),
		Kind:               "ZookeeperCluster",
		Name:               zk.Name,
		UID:                zk.UID,
		Controller:         ptr.To(true),
		BlockOwnerDeletion: ptr.To(true),
	}
}

func groupLabels(zk *zookeeperv1alpha1.ZookeeperCluster, group string) map[string]string {
	return labels.NewLabelBuilder(zk.Name).
		WithRoleGroup(group).
		WithVersion(zk.Spec.Version).
		Build()
}
