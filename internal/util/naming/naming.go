package naming

import "fmt"

// Naming functions for ensemble objects.
// Every name is derived from the ensemble name so objects of different
// ensembles in one namespace never collide.

// ClientService is the Service clients connect through.
func ClientService(cluster string) string {
	return cluster
}

// RoleGroup is the base name shared by a role group's StatefulSet, headless
// Service and PodDisruptionBudget.
func RoleGroup(cluster, group string) string {
	return fmt.Sprintf("%s-server-%s", cluster, group)
}

func StatefulSet(cluster, group string) string {
	return RoleGroup(cluster, group)
}

func HeadlessService(cluster, group string) string {
	return RoleGroup(cluster, group)
}

func PodDisruptionBudget(cluster, group string) string {
	return RoleGroup(cluster, group)
}

// Pod is the name the StatefulSet controller gives the pod with the given ordinal.
func Pod(cluster, group string, ordinal int32) string {
	return fmt.Sprintf("%s-%d", RoleGroup(cluster, group), ordinal)
}

// MemberConfig is the ConfigMap holding the config bundle of one member.
func MemberConfig(cluster, group string, ordinal int32) string {
	return Pod(cluster, group, ordinal)
}

// Hostname is the stable peer address of a member, resolvable through the
// group's headless Service.
func Hostname(cluster, namespace, group string, ordinal int32, clusterDomain string) string {
	return fmt.Sprintf("%s.%s.%s.svc.%s",
		Pod(cluster, group, ordinal), HeadlessService(cluster, group), namespace, clusterDomain)
}
