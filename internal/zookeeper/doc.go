// Package zookeeper holds the domain types shared by the ensemble planner,
// the config renderer and the operator: the error taxonomy every stage
// reports through and the classification helpers the reconciler uses to pick
// a requeue strategy.
//
// The subpackages are pure. [topology] turns a cluster spec into member
// identities and a quorum membership; [zkconfig] renders the per-member
// config bundle. Neither talks to the API server.
package zookeeper
