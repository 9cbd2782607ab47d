// Package config defines the operator's own configuration.
//
// The [Config] struct carries everything the reconciler needs that is not part
// of a ZookeeperCluster resource: the container image repository, the cluster
// DNS domain, the worker pool size and the requeue and backoff schedules. It is
// loaded from an optional YAML file on top of [Default], then adjusted from
// environment variables.
package config
