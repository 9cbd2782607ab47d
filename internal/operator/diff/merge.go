package diff

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	policyv1 "k8s.io/api/policy/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// MergeOwned copies the owned fields of desired onto a copy of live and
// returns it. The result is the patch target; fields the operator does not
// own keep their live values.
//
// Immutable StatefulSet fields are only copied when they differ, so a spec
// change that touches them surfaces as a rejected patch instead of being
// silently dropped.
func MergeOwned(live, desired client.Object) (client.Object, error) {
	merged, ok := live.DeepCopyObject().(client.Object)
	if !ok {
		return nil, fmt.Errorf("cannot copy %T", live)
	}

	merged.SetLabels(mergeStringMaps(merged.GetLabels(), desired.GetLabels()))
	merged.SetAnnotations(mergeStringMaps(merged.GetAnnotations(), desired.GetAnnotations()))
	refs := merged.GetOwnerReferences()
	for _, ref := range desired.GetOwnerReferences() {
		if !hasOwnerReference(merged, ref) {
			refs = append(refs, ref)
		}
	}
	merged.SetOwnerReferences(refs)

	switch d := desired.(type) {
	case *corev1.ConfigMap:
		m, ok := merged.(*corev1.ConfigMap)
		if !ok {
			return nil, kindMismatch(desired, live)
		}
		m.Data = d.Data
		m.BinaryData = d.BinaryData
	case *corev1.Service:
		m, ok := merged.(*corev1.Service)
		if !ok {
			return nil, kindMismatch(desired, live)
		}
		m.Spec.Type = d.Spec.Type
		m.Spec.Selector = d.Spec.Selector
		m.Spec.Ports = d.Spec.Ports
		m.Spec.PublishNotReadyAddresses = d.Spec.PublishNotReadyAddresses
		if d.Spec.ClusterIP != "" {
			m.Spec.ClusterIP = d.Spec.ClusterIP
		}
	case *appsv1.StatefulSet:
		m, ok := merged.(*appsv1.StatefulSet)
		if !ok {
			return nil, kindMismatch(desired, live)
		}
		mergeStatefulSetSpec(&m.Spec, &d.Spec)
	case *policyv1.PodDisruptionBudget:
		m, ok := merged.(*policyv1.PodDisruptionBudget)
		if !ok {
			return nil, kindMismatch(desired, live)
		}
		m.Spec.MaxUnavailable = d.Spec.MaxUnavailable
		m.Spec.MinAvailable = d.Spec.MinAvailable
		m.Spec.Selector = d.Spec.Selector
	default:
		return nil, fmt.Errorf("unsupported object type %T", desired)
	}

	return merged, nil
}

func mergeStatefulSetSpec(live, desired *appsv1.StatefulSetSpec) {
	live.Replicas = desired.Replicas
	live.Template = desired.Template
	live.UpdateStrategy = desired.UpdateStrategy

	if !equality.Semantic.DeepDerivative(desired.Selector, live.Selector) {
		live.Selector = desired.Selector
	}
	if desired.ServiceName != live.ServiceName {
		live.ServiceName = desired.ServiceName
	}
	if desired.PodManagementPolicy != live.PodManagementPolicy {
		live.PodManagementPolicy = desired.PodManagementPolicy
	}
	if !equality.Semantic.DeepDerivative(desired.VolumeClaimTemplates, live.VolumeClaimTemplates) {
		live.VolumeClaimTemplates = desired.VolumeClaimTemplates
	}
}

func mergeStringMaps(base, overlay map[string]string) map[string]string {
	if len(overlay) == 0 {
		return base
	}
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

func kindMismatch(desired, live client.Object) error {
	return fmt.Errorf("desired %T and live %T differ in kind", desired, live)
}
