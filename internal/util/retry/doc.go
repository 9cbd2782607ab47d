// Package retry provides retry helpers for transient failures.
//
// [Do] repeats an operation in-line without waiting. The apply executor uses
// it for the single immediate retry after an optimistic-lock conflict.
//
// [Backoff] and [Tracker] compute jittered requeue delays for work that is
// retried by the controller workqueue rather than in-line.
package retry
