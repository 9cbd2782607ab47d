// Package zkconfig renders the configuration bundle of one ZooKeeper server.
//
// A bundle holds zoo.cfg, myid, a logging configuration matching the server
// version and an environment script. Configuration is assembled from ordered
// overlays (built-in defaults, then role-group overrides) validated against a
// registry of known keys; unknown keys are rejected rather than passed through.
//
// Rendering is deterministic: the same input always yields byte-identical
// files and the same checksum, which the operator stamps on pod templates to
// detect configuration changes.
package zkconfig
