// Package v1alpha1 contains API Schema definitions for the zookeeper.imamik.io v1alpha1 API group
// +kubebuilder:object:generate=true
// +groupName=zookeeper.imamik.io
package v1alpha1

import (
	"sort"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Well-known ZooKeeper ports. The peer and leader-election ports are part of the
// server.N lines every member renders, so they are fixed cluster-wide.
const (
	ClientPort         int32 = 2181
	PeerPort           int32 = 2888
	LeaderElectionPort int32 = 3888
	MetricsPort        int32 = 7000
	AdminServerPort    int32 = 8080
)

// ZookeeperClusterSpec defines the desired state of a ZooKeeper ensemble.
type ZookeeperClusterSpec struct {
	// Version is the ZooKeeper release to run (e.g., 3.9.2)
	// +kubebuilder:validation:MinLength=1
	Version string `json:"version"`

	// Servers describes the ZooKeeper server role and its role groups
	Servers ServersSpec `json:"servers"`

	// ClusterDomain overrides the operator-wide Kubernetes DNS domain
	// +optional
	ClusterDomain string `json:"clusterDomain,omitempty"`

	// Paused stops the operator from reconciling this ensemble
	// +optional
	Paused bool `json:"paused,omitempty"`
}

// ServersSpec holds the role groups of the server role.
type ServersSpec struct {
	// RoleGroups maps a role group name to its configuration
	// +kubebuilder:validation:MinProperties=1
	RoleGroups map[string]RoleGroupSpec `json:"roleGroups"`
}

// RoleGroupSpec defines one named subset of ensemble members.
type RoleGroupSpec struct {
	// Replicas is the number of servers in this role group
	// +kubebuilder:validation:Minimum=1
	Replicas int32 `json:"replicas"`

	// Selector constrains the nodes the group's pods are scheduled on
	// +optional
	Selector map[string]string `json:"selector,omitempty"`

	// Config holds zoo.cfg overrides applied to every member of the group
	// +optional
	Config map[string]string `json:"config,omitempty"`

	// Storage is the requested size of each member's data volume
	// +kubebuilder:default="1Gi"
	// +optional
	Storage string `json:"storage,omitempty"`

	// Affinity replaces the default scheduling constraint, which keeps two
	// servers of the ensemble off the same node
	// +optional
	Affinity *corev1.Affinity `json:"affinity,omitempty"`

	// Tolerations are passed through to the group's pods
	// +optional
	Tolerations []corev1.Toleration `json:"tolerations,omitempty"`
}

// ZookeeperClusterStatus defines the observed state of ZookeeperCluster.
type ZookeeperClusterStatus struct {
	// Phase is the overall ensemble phase
	// +kubebuilder:validation:Enum=Pending;Reconciling;Running;Degraded;Failed
	Phase ClusterPhase `json:"phase,omitempty"`

	// ReadyReplicas is the number of ready servers per role group
	// +optional
	ReadyReplicas map[string]int32 `json:"readyReplicas,omitempty"`

	// Members lists the servers of the current quorum membership
	// +optional
	Members []MemberStatus `json:"members,omitempty"`

	// LastAppliedVersion is the ZooKeeper version of the last fully applied pass
	// +optional
	LastAppliedVersion string `json:"lastAppliedVersion,omitempty"`

	// Conditions represent the latest available observations
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`

	// LastReconcileTime is when the operator last reconciled this ensemble
	// +optional
	LastReconcileTime *metav1.Time `json:"lastReconcileTime,omitempty"`

	// ObservedGeneration is the last observed generation
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`
}

// MemberStatus describes one server of the quorum membership.
type MemberStatus struct {
	// ID is the server id written to myid
	ID int32 `json:"id"`

	// RoleGroup is the group owning the server
	RoleGroup string `json:"roleGroup"`

	// Ordinal is the pod ordinal within the group's StatefulSet
	Ordinal int32 `json:"ordinal"`

	// Hostname is the stable DNS name peers use to reach the server
	Hostname string `json:"hostname"`

	// Ready reports the pod readiness of the server
	Ready bool `json:"ready"`

	// Retiring is set while a removed server is still running
	// +optional
	Retiring bool `json:"retiring,omitempty"`
}

// ClusterPhase represents the overall ensemble state.
type ClusterPhase string

const (
	// ClusterPhasePending means the ensemble has not converged yet
	ClusterPhasePending ClusterPhase = "Pending"
	// ClusterPhaseReconciling means objects are being created, scaled or rolled
	ClusterPhaseReconciling ClusterPhase = "Reconciling"
	// ClusterPhaseRunning means every desired server is ready
	ClusterPhaseRunning ClusterPhase = "Running"
	// ClusterPhaseDegraded means some servers are not ready
	ClusterPhaseDegraded ClusterPhase = "Degraded"
	// ClusterPhaseFailed means the ensemble spec cannot be applied until a human fixes it
	ClusterPhaseFailed ClusterPhase = "Failed"
)

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=zk
// +kubebuilder:printcolumn:name="Version",type=string,JSONPath=`.spec.version`
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// ZookeeperCluster is the Schema for the zookeeperclusters API.
type ZookeeperCluster struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ZookeeperClusterSpec   `json:"spec,omitempty"`
	Status ZookeeperClusterStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// ZookeeperClusterList contains a list of ZookeeperCluster.
type ZookeeperClusterList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []ZookeeperCluster `json:"items"`
}

// Condition types for ZookeeperCluster
const (
	// ConditionReady indicates every desired server is ready
	ConditionReady = "Ready"
	// ConditionReconciled indicates the last pass applied every object
	ConditionReconciled = "Reconciled"
	// ConditionProgressing indicates a scale or rolling restart is in flight
	ConditionProgressing = "Progressing"
)

// RoleGroupNames returns the role group names in sorted order.
func (s *ZookeeperClusterSpec) RoleGroupNames() []string {
	names := make([]string, 0, len(s.Servers.RoleGroups))
	for name := range s.Servers.RoleGroups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DesiredReplicas returns the total number of servers across all role groups.
func (s *ZookeeperClusterSpec) DesiredReplicas() int32 {
	var total int32
	for _, g := range s.Servers.RoleGroups {
		total += g.Replicas
	}
	return total
}
