// Package controller implements the Kubernetes controller for ZookeeperCluster
// custom resources.
//
// Every pass is level-triggered and runs the same sequence:
// Observe -> Plan -> Render -> Diff -> Apply -> Status -> Requeue.
//
// Member ids are recovered from the config bundles observed in the cluster,
// so nothing but the backoff attempt counter survives between passes. Config
// changes reach running servers through a rolling restart that replaces one
// pod at a time, lowest member id first, and only while every member is ready.
package controller
