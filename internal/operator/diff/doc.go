// Package diff compares desired ensemble objects with their live versions.
//
// Comparison is structural and limited to the fields the operator owns:
// labels and annotations the operator sets, ConfigMap data, and the relevant
// parts of Service, StatefulSet and PodDisruptionBudget specs. Fields the API
// server or other controllers fill in are ignored, so an object that was
// already applied compares as unchanged.
package diff
