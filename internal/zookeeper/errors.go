package zookeeper

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure by how the reconciler must react to it.
type ErrorKind string

const (
	// KindInvalidSpec means the ensemble spec cannot be realised until a human edits it.
	KindInvalidSpec ErrorKind = "InvalidSpec"
	// KindUnknownConfigKey means a config override names a key the renderer does not know.
	KindUnknownConfigKey ErrorKind = "UnknownConfigKey"
	// KindInconsistentTopology means observed member identities contradict each other.
	KindInconsistentTopology ErrorKind = "InconsistentTopology"
	// KindPlatformTransient means the API server failed in a way that may heal on its own.
	KindPlatformTransient ErrorKind = "PlatformTransient"
	// KindConflict means an optimistic-lock write lost twice in a row.
	KindConflict ErrorKind = "Conflict"
	// KindRejected means the API server refused the object as invalid or forbidden.
	KindRejected ErrorKind = "Rejected"
)

// Error is a classified failure.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a classified error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind ErrorKind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain,
// or the empty kind when err carries no classification.
func KindOf(err error) ErrorKind {
	var zkErr *Error
	if errors.As(err, &zkErr) {
		return zkErr.Kind
	}
	return ""
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// IsSpecError reports whether err can only be fixed by editing the ensemble spec.
// Such errors are retried on a fixed long interval rather than with backoff.
func IsSpecError(err error) bool {
	switch KindOf(err) {
	case KindInvalidSpec, KindUnknownConfigKey, KindRejected:
		return true
	default:
		return false
	}
}
