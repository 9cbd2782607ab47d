// Package topology plans the members of a ZooKeeper ensemble.
//
// [Compute] maps the role groups of a spec onto member identities (server id,
// role group, ordinal, hostname) and derives the quorum membership every
// member's configuration must agree on. Server ids are recovered from the
// identities observed on the previous pass so a member keeps its id for as
// long as it exists; nothing is cached between passes.
//
// The package is pure: no I/O, no clock, no randomness.
package topology
