package diff

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	policyv1 "k8s.io/api/policy/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Matches reports whether live already carries every owned field of desired.
// Objects of different kinds never match.
func Matches(desired, live client.Object) bool {
	if !metaMatches(desired, live) {
		return false
	}

	switch d := desired.(type) {
	case *corev1.ConfigMap:
		l, ok := live.(*corev1.ConfigMap)
		return ok && equality.Semantic.DeepEqual(d.Data, l.Data) && equality.Semantic.DeepEqual(d.BinaryData, l.BinaryData)
	case *corev1.Service:
		l, ok := live.(*corev1.Service)
		return ok && equality.Semantic.DeepDerivative(d.Spec, l.Spec)
	case *appsv1.StatefulSet:
		l, ok := live.(*appsv1.StatefulSet)
		return ok && equality.Semantic.DeepDerivative(d.Spec, l.Spec)
	case *policyv1.PodDisruptionBudget:
		l, ok := live.(*policyv1.PodDisruptionBudget)
		return ok && equality.Semantic.DeepDerivative(d.Spec, l.Spec)
	default:
		return false
	}
}

func metaMatches(desired, live client.Object) bool {
	if !equality.Semantic.DeepDerivative(desired.GetLabels(), live.GetLabels()) {
		return false
	}
	if !equality.Semantic.DeepDerivative(desired.GetAnnotations(), live.GetAnnotations()) {
		return false
	}
	for _, ref := range desired.GetOwnerReferences() {
		if !hasOwnerReference(live, ref) {
			return false
		}
	}
	return true
}

func hasOwnerReference(obj client.Object, ref metav1.OwnerReference) bool {
	for _, existing := range obj.GetOwnerReferences() {
		if existing.UID == ref.UID {
			return true
		}
	}
	return false
}
