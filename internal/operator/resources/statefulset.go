package resources

import (
	"fmt"
	"path"
	"slices"
	"sort"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	zookeeperv1alpha1 "github.com/imamik/zookeeper-operator/api/v1alpha1"
	"github.com/imamik/zookeeper-operator/internal/util/labels"
	"github.com/imamik/zookeeper-operator/internal/util/naming"
	"github.com/imamik/zookeeper-operator/internal/zookeeper"
	"github.com/imamik/zookeeper-operator/internal/zookeeper/topology"
	"github.com/imamik/zookeeper-operator/internal/zookeeper/zkconfig"
)

const (
	containerName = "zookeeper"

	volumeData    = "data"
	volumeMembers = "members"
	volumeConf    = "conf"

	mountMembers = "/members"
	mountConf    = "/conf"

	// DefaultStorage is the data volume size when a role group sets none.
	DefaultStorage = "1Gi"

	// TopologyKeyHostname spreads servers across nodes.
	TopologyKeyHostname = "kubernetes.io/hostname"
)

// startScript picks the member bundle matching the pod ordinal, copies it to
// a writable config dir and starts the server in the foreground.
const startScript = `set -e
ORD="${HOSTNAME##*-}"
SRC="` + mountMembers + `/${ORD}"
if [ ! -f "${SRC}/myid" ]; then
  echo "no config bundle for ordinal ${ORD}" >&2
  exit 1
fi
cp -L "${SRC}"/* ` + mountConf + `/
cp ` + mountConf + `/myid ` + zkconfig.DataDir + `/myid
. ` + mountConf + `/` + zkconfig.FileEnv + `
export ZOOCFGDIR=` + mountConf + `
exec zkServer.sh start-foreground
`

// GroupMember pairs a planned identity with its rendered bundle.
type GroupMember struct {
	Identity topology.Identity
	Rendered *zkconfig.Rendered
}

// StatefulSet builds the workload of a role group. Members are the group's
// required members; every bundle is projected under /members/<ordinal>.
//
// Updates use the OnDelete strategy: the reconciler replaces pods one at a
// time in member id order once the whole ensemble is ready.
func StatefulSet(zk *zookeeperv1alpha1.ZookeeperCluster, group string, spec zookeeperv1alpha1.RoleGroupSpec,
	members []GroupMember, opts Options,
) (*appsv1.StatefulSet, error) {
	storage := spec.Storage
	if storage == "" {
		storage = DefaultStorage
	}
	size, err := resource.ParseQuantity(storage)
	if err != nil {
		return nil, zookeeper.Wrap(zookeeper.KindInvalidSpec, err, fmt.Sprintf("role group %s storage %q", group, storage))
	}

	byID := append([]GroupMember(nil), members...)
	sort.Slice(byID, func(i, j int) bool { return byID[i].Identity.ID < byID[j].Identity.ID })
	checksums := make([]string, 0, len(byID))
	for _, m := range byID {
		checksums = append(checksums, m.Rendered.Checksum)
	}

	selector := labels.SelectorLabels(zk.Name, group)
	podLabels := labels.NewLabelBuilder(zk.Name).
		WithRoleGroup(group).
		WithVersion(zk.Spec.Version).
		Build()

	sts := &appsv1.StatefulSet{
		ObjectMeta: objectMeta(zk, naming.StatefulSet(zk.Name, group), groupLabels(zk, group)),
		Spec: appsv1.StatefulSetSpec{
			Replicas:            ptr.To(spec.Replicas),
			ServiceName:         naming.HeadlessService(zk.Name, group),
			PodManagementPolicy: appsv1.ParallelPodManagement,
			UpdateStrategy: appsv1.StatefulSetUpdateStrategy{
				Type: appsv1.OnDeleteStatefulSetStrategyType,
			},
			Selector: &metav1.LabelSelector{MatchLabels: selector},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: podLabels,
					Annotations: map[string]string{
						AnnotationConfigChecksum: zkconfig.GroupChecksum(checksums...),
					},
				},
				Spec: podSpec(zk, spec, members, opts),
			},
			VolumeClaimTemplates: []corev1.PersistentVolumeClaim{
				{
					ObjectMeta: metav1.ObjectMeta{
						Name:   volumeData,
						Labels: selector,
					},
					Spec: corev1.PersistentVolumeClaimSpec{
						AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
						Resources: corev1.VolumeResourceRequirements{
							Requests: corev1.ResourceList{corev1.ResourceStorage: size},
						},
					},
				},
			},
		},
	}
	return sts, nil
}

func podSpec(zk *zookeeperv1alpha1.ZookeeperCluster, spec zookeeperv1alpha1.RoleGroupSpec, members []GroupMember, opts Options) corev1.PodSpec {
	ports := []corev1.ContainerPort{
		containerPort(PortNameClient, zookeeperv1alpha1.ClientPort),
		containerPort(PortNamePeer, zookeeperv1alpha1.PeerPort),
		containerPort(PortNameLeader, zookeeperv1alpha1.LeaderElectionPort),
	}
	if p := zkconfig.AdminPort(spec.Config); p > 0 {
		ports = append(ports, containerPort(PortNameAdmin, p))
	}
	if p := zkconfig.MetricsPort(zk.Spec.Version, spec.Config); p > 0 {
		ports = append(ports, containerPort(PortNameMetrics, p))
	}

	return corev1.PodSpec{
		NodeSelector:                  spec.Selector,
		Affinity:                      podAffinity(zk, spec),
		Tolerations:                   slices.Clone(spec.Tolerations),
		TerminationGracePeriodSeconds: ptr.To[int64](30),
		Containers: []corev1.Container{
			{
				Name:            containerName,
				Image:           fmt.Sprintf("%s:%s", opts.ImageRepository, zk.Spec.Version),
				ImagePullPolicy: opts.PullPolicy,
				Command:         []string{"sh", "-c", startScript},
				Ports:           ports,
				ReadinessProbe:  tcpProbe(10, 10),
				LivenessProbe:   tcpProbe(30, 15),
				VolumeMounts: []corev1.VolumeMount{
					{Name: volumeData, MountPath: zkconfig.DataDir},
					{Name: volumeMembers, MountPath: mountMembers, ReadOnly: true},
					{Name: volumeConf, MountPath: mountConf},
				},
			},
		},
		Volumes: []corev1.Volume{
			{
				Name: volumeMembers,
				VolumeSource: corev1.VolumeSource{
					Projected: &corev1.ProjectedVolumeSource{Sources: memberProjections(zk, members)},
				},
			},
			{
				Name:         volumeConf,
				VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}},
			},
		},
	}
}

// podAffinity returns the role group's affinity, or a required pod
// anti-affinity on the node hostname across every server of the ensemble.
// A node failure then costs the quorum at most one vote.
func podAffinity(zk *zookeeperv1alpha1.ZookeeperCluster, spec zookeeperv1alpha1.RoleGroupSpec) *corev1.Affinity {
	if spec.Affinity != nil {
		return spec.Affinity.DeepCopy()
	}
	return &corev1.Affinity{
		PodAntiAffinity: &corev1.PodAntiAffinity{
			RequiredDuringSchedulingIgnoredDuringExecution: []corev1.PodAffinityTerm{
				{
					LabelSelector: &metav1.LabelSelector{MatchLabels: labels.ClusterSelectorLabels(zk.Name)},
					TopologyKey:   TopologyKeyHostname,
				},
			},
		},
	}
}

// memberProjections maps each member's bundle to <ordinal>/<file>, ordered by
// ordinal so the template is stable.
func memberProjections(zk *zookeeperv1alpha1.ZookeeperCluster, members []GroupMember) []corev1.VolumeProjection {
	byOrdinal := append([]GroupMember(nil), members...)
	sort.Slice(byOrdinal, func(i, j int) bool { return byOrdinal[i].Identity.Ordinal < byOrdinal[j].Identity.Ordinal })

	sources := make([]corev1.VolumeProjection, 0, len(byOrdinal))
	for _, m := range byOrdinal {
		dir := fmt.Sprintf("%d", m.Identity.Ordinal)
		items := make([]corev1.KeyToPath, 0, len(m.Rendered.Files))
		for _, name := range m.Rendered.FileNames() {
			items = append(items, corev1.KeyToPath{Key: name, Path: path.Join(dir, name)})
		}
		sources = append(sources, corev1.VolumeProjection{
			ConfigMap: &corev1.ConfigMapProjection{
				LocalObjectReference: corev1.LocalObjectReference{
					Name: naming.MemberConfig(zk.Name, m.Identity.RoleGroup, m.Identity.Ordinal),
				},
				Items:    items,
				Optional: ptr.To(true),
			},
		})
	}
	return sources
}

func containerPort(name string, port int32) corev1.ContainerPort {
	return corev1.ContainerPort{
		Name:          name,
		ContainerPort: port,
		Protocol:      corev1.ProtocolTCP,
	}
}

func tcpProbe(initialDelay, period int32) *corev1.Probe {
	return &corev1.Probe{
		ProbeHandler: corev1.ProbeHandler{
			TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromString(PortNameClient)},
		},
		InitialDelaySeconds: initialDelay,
		PeriodSeconds:       period,
		TimeoutSeconds:      5,
		SuccessThreshold:    1,
		FailureThreshold:    3,
	}
}
