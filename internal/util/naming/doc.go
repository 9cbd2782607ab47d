// Package naming provides consistent naming functions for the Kubernetes
// objects of an ensemble.
//
// Object names follow the pattern {cluster}-server-{group} for per-group
// objects (StatefulSets, headless Services, PodDisruptionBudgets) and
// {cluster}-server-{group}-{ordinal} for per-member objects. Member names are
// ordinal-indexed so a pod can find its own config bundle from its hostname.
package naming
