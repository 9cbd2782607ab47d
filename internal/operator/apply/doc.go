// Package apply writes desired ensemble objects to the API server.
//
// Each object is applied on its own: read, create when absent, skip when the
// owned fields already match, otherwise patch the owned fields under an
// optimistic lock. A conflict gets one immediate retry with a fresh read.
// Failures are returned as classified zookeeper errors so the reconciler can
// decide between a short backoff and a long requeue.
package apply
