// Package testing provides builders and fixtures for unit and integration tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - ClusterBuilder: Fluent builder for ZookeeperCluster objects
//   - MemberPod: Server pods as the StatefulSet controller would create them
//   - NewScheme: Scheme with the built-in and ZookeeperCluster types
//
// Usage:
//
//	zk := testing.NewClusterBuilder("zk").
//	    WithRoleGroup("default", 3).
//	    WithGroupConfig("default", "tickTime", "3000").
//	    Build()
package testing
