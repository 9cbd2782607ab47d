package observer

import (
	"fmt"
	"sort"
	"strconv"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	policyv1 "k8s.io/api/policy/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/imamik/zookeeper-operator/internal/util/labels"
	"github.com/imamik/zookeeper-operator/internal/util/naming"
	"github.com/imamik/zookeeper-operator/internal/zookeeper"
	"github.com/imamik/zookeeper-operator/internal/zookeeper/topology"
)

// Kind names an owned object kind.
type Kind string

const (
	KindConfigMap           Kind = "ConfigMap"
	KindService             Kind = "Service"
	KindStatefulSet         Kind = "StatefulSet"
	KindPodDisruptionBudget Kind = "PodDisruptionBudget"
)

// KindOf returns the kind of an owned object, or the empty kind for anything else.
func KindOf(obj client.Object) Kind {
	switch obj.(type) {
	case *corev1.ConfigMap:
		return KindConfigMap
	case *corev1.Service:
		return KindService
	case *appsv1.StatefulSet:
		return KindStatefulSet
	case *policyv1.PodDisruptionBudget:
		return KindPodDisruptionBudget
	default:
		return ""
	}
}

// ObjectKey identifies an owned object within an ensemble's namespace.
type ObjectKey struct {
	Kind Kind
	Name string
}

// String implements fmt.Stringer.
func (k ObjectKey) String() string {
	return fmt.Sprintf("%s/%s", k.Kind, k.Name)
}

// KeyOf returns the key of an owned object.
func KeyOf(obj client.Object) ObjectKey {
	return ObjectKey{Kind: KindOf(obj), Name: obj.GetName()}
}

// ObservedObject is one live owned object.
type ObservedObject struct {
	Key    ObjectKey
	Object client.Object
}

// Snapshot is the observed state of one ensemble.
type Snapshot struct {
	Cluster string
	Objects map[ObjectKey]client.Object
	Pods    map[string]*corev1.Pod
}

// NewSnapshot returns an empty snapshot of the named ensemble.
func NewSnapshot(cluster string) *Snapshot {
	return &Snapshot{
		Cluster: cluster,
		Objects: make(map[ObjectKey]client.Object),
		Pods:    make(map[string]*corev1.Pod),
	}
}

// Add records an owned object.
func (s *Snapshot) Add(obj client.Object) {
	s.Objects[KeyOf(obj)] = obj
}

// AddPod records a pod.
func (s *Snapshot) AddPod(pod *corev1.Pod) {
	s.Pods[pod.Name] = pod
}

// Get returns the live object with the given key.
func (s *Snapshot) Get(key ObjectKey) (client.Object, bool) {
	obj, ok := s.Objects[key]
	return obj, ok
}

// List returns every observed object ordered by kind and name.
func (s *Snapshot) List() []ObservedObject {
	out := make([]ObservedObject, 0, len(s.Objects))
	for k, obj := range s.Objects {
		out = append(out, ObservedObject{Key: k, Object: obj})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Kind != out[j].Key.Kind {
			return out[i].Key.Kind < out[j].Key.Kind
		}
		return out[i].Key.Name < out[j].Key.Name
	})
	return out
}

// StatefulSet returns the live StatefulSet of a role group.
func (s *Snapshot) StatefulSet(group string) (*appsv1.StatefulSet, bool) {
	obj, ok := s.Objects[ObjectKey{Kind: KindStatefulSet, Name: naming.StatefulSet(s.Cluster, group)}]
	if !ok {
		return nil, false
	}
	sts, ok := obj.(*appsv1.StatefulSet)
	return sts, ok
}

// Pod returns the pod of a member.
func (s *Snapshot) Pod(group string, ordinal int32) (*corev1.Pod, bool) {
	pod, ok := s.Pods[naming.Pod(s.Cluster, group, ordinal)]
	return pod, ok
}

// Identities recovers the member identities recorded on config bundles.
// Hostnames are left empty; the planner derives them.
func (s *Snapshot) Identities() ([]topology.Previous, error) {
	var out []topology.Previous
	for key, obj := range s.Objects {
		if key.Kind != KindConfigMap {
			continue
		}
		lbls := obj.GetLabels()
		rawID, hasID := lbls[labels.KeyMemberID]
		if !hasID {
			continue
		}

		group := lbls[labels.KeyRoleGroup]
		id, err := strconv.ParseInt(rawID, 10, 32)
		if err != nil {
			return nil, zookeeper.Errorf(zookeeper.KindInconsistentTopology,
				"config bundle %s has malformed member id %q", key.Name, rawID)
		}
		ordinal, err := strconv.ParseInt(lbls[labels.KeyOrdinal], 10, 32)
		if err != nil {
			return nil, zookeeper.Errorf(zookeeper.KindInconsistentTopology,
				"config bundle %s has malformed ordinal %q", key.Name, lbls[labels.KeyOrdinal])
		}
		if want := naming.MemberConfig(s.Cluster, group, int32(ordinal)); want != key.Name {
			return nil, zookeeper.Errorf(zookeeper.KindInconsistentTopology,
				"config bundle %s is labelled as %s", key.Name, want)
		}

		_, present := s.Pod(group, int32(ordinal))
		out = append(out, topology.Previous{
			Identity: topology.Identity{
				ID:        int32(id),
				RoleGroup: group,
				Ordinal:   int32(ordinal),
			},
			Present: present,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
