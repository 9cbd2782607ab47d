package labels

import (
	"strconv"

	k8slabels "k8s.io/apimachinery/pkg/labels"
)

// Standard label keys for owned objects.
const (
	// KeyName identifies the application
	KeyName = "app.kubernetes.io/name"

	// KeyInstance identifies which ensemble an object belongs to
	KeyInstance = "app.kubernetes.io/instance"

	// KeyComponent identifies the ZooKeeper role (always "server")
	KeyComponent = "app.kubernetes.io/component"

	// KeyVersion records the ZooKeeper version the object was rendered for
	KeyVersion = "app.kubernetes.io/version"

	// KeyManagedBy identifies the management system
	KeyManagedBy = "app.kubernetes.io/managed-by"

	// KeyRoleGroup identifies the role group
	KeyRoleGroup = "zookeeper.imamik.io/role-group"

	// KeyMemberID records the server id of a member config bundle
	KeyMemberID = "zookeeper.imamik.io/member-id"

	// KeyOrdinal records the StatefulSet ordinal of a member config bundle
	KeyOrdinal = "zookeeper.imamik.io/ordinal"
)

// Label values
const (
	AppName           = "zookeeper"
	ComponentServer   = "server"
	ManagedByOperator = "zookeeper-operator"
)

// LabelBuilder provides a fluent interface for building object labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder with the ensemble name pre-set.
func NewLabelBuilder(clusterName string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyName:      AppName,
			KeyInstance:  clusterName,
			KeyComponent: ComponentServer,
			KeyManagedBy: ManagedByOperator,
		},
	}
}

// WithRoleGroup adds the role group label.
func (lb *LabelBuilder) WithRoleGroup(group string) *LabelBuilder {
	lb.labels[KeyRoleGroup] = group
	return lb
}

// WithMember adds the member id and ordinal labels.
func (lb *LabelBuilder) WithMember(id, ordinal int32) *LabelBuilder {
	lb.labels[KeyMemberID] = strconv.Itoa(int(id))
	lb.labels[KeyOrdinal] = strconv.Itoa(int(ordinal))
	return lb
}

// WithVersion adds the version label if version is non-empty.
func (lb *LabelBuilder) WithVersion(version string) *LabelBuilder {
	if version != "" {
		lb.labels[KeyVersion] = version
	}
	return lb
}

// Merge adds all labels from the provided map.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// SelectorLabels returns the immutable subset used in StatefulSet and
// PodDisruptionBudget selectors. The version label is excluded so upgrades
// never touch a selector.
func SelectorLabels(clusterName, group string) map[string]string {
	return map[string]string{
		KeyName:      AppName,
		KeyInstance:  clusterName,
		KeyComponent: ComponentServer,
		KeyRoleGroup: group,
	}
}

// ClusterSelectorLabels returns the labels shared by every server pod of an ensemble.
func ClusterSelectorLabels(clusterName string) map[string]string {
	return map[string]string{
		KeyName:      AppName,
		KeyInstance:  clusterName,
		KeyComponent: ComponentServer,
	}
}

// SelectorForCluster returns a label selector matching every object owned by an ensemble.
func SelectorForCluster(clusterName string) k8slabels.Selector {
	return k8slabels.SelectorFromSet(k8slabels.Set{
		KeyInstance:  clusterName,
		KeyManagedBy: ManagedByOperator,
	})
}
