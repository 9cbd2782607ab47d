package resources

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	zookeeperv1alpha1 "github.com/imamik/zookeeper-operator/api/v1alpha1"
	"github.com/imamik/zookeeper-operator/internal/util/labels"
	"github.com/imamik/zookeeper-operator/internal/util/naming"
)

// Port names shared by Services and containers.
const (
	PortNameClient  = "client"
	PortNamePeer    = "peer"
	PortNameLeader  = "leader-election"
	PortNameAdmin   = "admin"
	PortNameMetrics = "metrics"
)

func servicePort(name string, port int32) corev1.ServicePort {
	return corev1.ServicePort{
		Name:       name,
		Protocol:   corev1.ProtocolTCP,
		Port:       port,
		TargetPort: intstr.FromString(name),
	}
}

// ClientService builds the Service clients connect through. It selects ready
// servers of every role group.
func ClientService(zk *zookeeperv1alpha1.ZookeeperCluster) *corev1.Service {
	lbls := labels.NewLabelBuilder(zk.Name).WithVersion(zk.Spec.Version).Build()

	return &corev1.Service{
		ObjectMeta: objectMeta(zk, naming.ClientService(zk.Name), lbls),
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeClusterIP,
			Selector: labels.ClusterSelectorLabels(zk.Name),
			Ports: []corev1.ServicePort{
				servicePort(PortNameClient, zookeeperv1alpha1.ClientPort),
			},
		},
	}
}

// HeadlessService builds the peer Service of a role group. It publishes
// not-ready addresses so members can resolve each other while the quorum forms.
func HeadlessService(zk *zookeeperv1alpha1.ZookeeperCluster, group string, metricsPort int32) *corev1.Service {
	ports := []corev1.ServicePort{
		servicePort(PortNameClient, zookeeperv1alpha1.ClientPort),
		servicePort(PortNamePeer, zookeeperv1alpha1.PeerPort),
		servicePort(PortNameLeader, zookeeperv1alpha1.LeaderElectionPort),
	}
	if metricsPort > 0 {
		ports = append(ports, servicePort(PortNameMetrics, metricsPort))
	}

	return &corev1.Service{
		ObjectMeta: objectMeta(zk, naming.HeadlessService(zk.Name, group), groupLabels(zk, group)),
		Spec: corev1.ServiceSpec{
			Type:                     corev1.ServiceTypeClusterIP,
			ClusterIP:                corev1.ClusterIPNone,
			PublishNotReadyAddresses: true,
			Selector:                 labels.SelectorLabels(zk.Name, group),
			Ports:                    ports,
		},
	}
}
