package apply

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	policyv1 "k8s.io/api/policy/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/zookeeper-operator/internal/operator/diff"
	"github.com/imamik/zookeeper-operator/internal/operator/observer"
	"github.com/imamik/zookeeper-operator/internal/util/retry"
	"github.com/imamik/zookeeper-operator/internal/zookeeper"
)

// Result is the outcome of a successful apply.
type Result string

const (
	ResultCreated   Result = "Created"
	ResultUpdated   Result = "Updated"
	ResultUnchanged Result = "Unchanged"
	ResultDeleted   Result = "Deleted"
)

// resultError labels failed applies in metrics.
const resultError = "Error"

// Executor applies objects through a client.
type Executor struct {
	client    client.Client
	apiReader client.Reader
}

// Option configures an Executor.
type Option func(*Executor)

// WithAPIReader sets the reader used for the fresh read before a retry. It
// should bypass the informer cache, which may still hold the stale copy that
// caused the conflict.
func WithAPIReader(r client.Reader) Option {
	return func(e *Executor) {
		if r != nil {
			e.apiReader = r
		}
	}
}

// New creates an executor writing through c. Without WithAPIReader every read
// goes through c.
func New(c client.Client, opts ...Option) *Executor {
	e := &Executor{client: c, apiReader: c}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply makes the live object match the owned fields of desired. desired is
// never modified.
func (e *Executor) Apply(ctx context.Context, desired client.Object) (Result, error) {
	logger := log.FromContext(ctx)
	key := observer.KeyOf(desired)

	var result Result
	var reader client.Reader = e.client
	err := retry.Do(ctx, func() error {
		r, err := e.applyOnce(ctx, reader, desired)
		if err != nil {
			if apierrors.IsConflict(err) || apierrors.IsAlreadyExists(err) {
				return err
			}
			return retry.Fatal(err)
		}
		result = r
		return nil
	},
		retry.WithMaxRetries(1),
		retry.WithOnRetry(func(attempt int, err error) {
			reader = e.apiReader
			logger.V(1).Info("apply conflict, retrying with fresh read", "object", key.String(), "attempt", attempt, "error", err.Error())
		}),
	)
	if err != nil {
		recordApply(string(key.Kind), resultError)
		return "", classify(err, "apply "+key.String())
	}

	recordApply(string(key.Kind), string(result))
	if result != ResultUnchanged {
		logger.V(1).Info("applied object", "object", key.String(), "result", result)
	}
	return result, nil
}

func (e *Executor) applyOnce(ctx context.Context, reader client.Reader, desired client.Object) (Result, error) {
	live, err := emptyLike(desired)
	if err != nil {
		return "", err
	}

	err = reader.Get(ctx, client.ObjectKeyFromObject(desired), live)
	if apierrors.IsNotFound(err) {
		obj, ok := desired.DeepCopyObject().(client.Object)
		if !ok {
			return "", fmt.Errorf("cannot copy %T", desired)
		}
		if err := e.client.Create(ctx, obj); err != nil {
			return "", err
		}
		return ResultCreated, nil
	}
	if err != nil {
		return "", err
	}

	if err := checkController(desired, live); err != nil {
		return "", retry.Fatal(err)
	}

	if diff.Matches(desired, live) {
		return ResultUnchanged, nil
	}

	merged, err := diff.MergeOwned(live, desired)
	if err != nil {
		return "", err
	}
	patch := client.MergeFromWithOptions(live, client.MergeFromWithOptimisticLock{})
	if err := e.client.Patch(ctx, merged, patch); err != nil {
		return "", err
	}
	return ResultUpdated, nil
}

// Delete removes a live object. An object that is already gone counts as deleted.
func (e *Executor) Delete(ctx context.Context, obj client.Object) error {
	key := observer.KeyOf(obj)

	err := e.client.Delete(ctx, obj, client.PropagationPolicy(metav1.DeletePropagationBackground))
	if err != nil && !apierrors.IsNotFound(err) {
		recordApply(string(key.Kind), resultError)
		return classify(err, "delete "+key.String())
	}

	recordApply(string(key.Kind), string(ResultDeleted))
	log.FromContext(ctx).V(1).Info("deleted object", "object", key.String())
	return nil
}

// checkController refuses to take over a live object that is not controlled by
// the owner of desired. Desired objects without a controller skip the check.
func checkController(desired, live client.Object) error {
	owner := metav1.GetControllerOf(desired)
	if owner == nil {
		return nil
	}
	current := metav1.GetControllerOf(live)
	if current == nil {
		return zookeeper.Errorf(zookeeper.KindRejected,
			"%s exists and is not controlled by %s %s", observer.KeyOf(live).String(), owner.Kind, owner.Name)
	}
	if current.UID != owner.UID {
		return zookeeper.Errorf(zookeeper.KindRejected,
			"%s is controlled by %s %s, not by %s %s", observer.KeyOf(live).String(), current.Kind, current.Name, owner.Kind, owner.Name)
	}
	return nil
}

func emptyLike(obj client.Object) (client.Object, error) {
	switch obj.(type) {
	case *corev1.ConfigMap:
		return &corev1.ConfigMap{}, nil
	case *corev1.Service:
		return &corev1.Service{}, nil
	case *appsv1.StatefulSet:
		return &appsv1.StatefulSet{}, nil
	case *policyv1.PodDisruptionBudget:
		return &policyv1.PodDisruptionBudget{}, nil
	default:
		return nil, fmt.Errorf("unsupported object type %T", obj)
	}
}

// classify maps API errors onto the zookeeper error kinds.
func classify(err error, msg string) error {
	if zookeeper.KindOf(err) != "" {
		return err
	}
	switch {
	case apierrors.IsConflict(err), apierrors.IsAlreadyExists(err):
		return zookeeper.Wrap(zookeeper.KindConflict, err, msg)
	case apierrors.IsInvalid(err), apierrors.IsForbidden(err), apierrors.IsBadRequest(err):
		return zookeeper.Wrap(zookeeper.KindRejected, err, msg)
	default:
		return zookeeper.Wrap(zookeeper.KindPlatformTransient, err, msg)
	}
}
