// Package resources builds the desired Kubernetes objects of an ensemble.
//
// Builders are pure: they take the cluster resource, planned member
// identities and rendered config bundles and return fully specified objects
// carrying the ownership labels and a controller reference to the cluster.
// Every field the operator owns is set explicitly so a structural comparison
// against the live object is meaningful.
package resources
