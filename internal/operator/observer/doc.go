// Package observer reads the live objects of an ensemble.
//
// [Observer.Observe] lists every object kind the operator owns by the
// ensemble's ownership labels and returns a [Snapshot] keyed by (kind, name).
// Non-pod objects must also carry a controller reference to the ensemble.
// Member identities for the planner are recovered from the labels of the
// member config bundles, so the observed state alone is enough to restart
// planning after an operator crash.
package observer
