// Package async provides utilities for parallel task execution.
//
// [RunParallel] runs named tasks concurrently on an errgroup and returns the
// first failure. The state observer uses it to list every owned object kind
// of an ensemble at once.
package async
