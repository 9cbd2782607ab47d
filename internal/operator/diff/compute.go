package diff

import (
	"sort"

	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/imamik/zookeeper-operator/internal/operator/observer"
)

// ActionType is the outcome of comparing one object.
type ActionType string

const (
	ActionCreate ActionType = "Create"
	ActionUpdate ActionType = "Update"
	ActionNoop   ActionType = "Noop"
	ActionDelete ActionType = "Delete"
)

// Action is one planned change.
type Action struct {
	Type    ActionType
	Key     observer.ObjectKey
	Desired client.Object
	Live    client.Object
}

// Compute compares desired objects, in the given order, with a snapshot.
// Create, Update and Noop actions follow the desired order; Delete actions for
// observed objects that are neither desired nor protected come last, ordered
// so dependents go before what they depend on.
func Compute(desired []client.Object, snap *observer.Snapshot, protected func(observer.ObjectKey) bool) []Action {
	actions := make([]Action, 0, len(desired))
	wanted := make(map[observer.ObjectKey]bool, len(desired))

	for _, obj := range desired {
		key := observer.KeyOf(obj)
		wanted[key] = true

		live, ok := snap.Get(key)
		switch {
		case !ok:
			actions = append(actions, Action{Type: ActionCreate, Key: key, Desired: obj})
		case Matches(obj, live):
			actions = append(actions, Action{Type: ActionNoop, Key: key, Desired: obj, Live: live})
		default:
			actions = append(actions, Action{Type: ActionUpdate, Key: key, Desired: obj, Live: live})
		}
	}

	var deletes []Action
	for _, o := range snap.List() {
		if wanted[o.Key] || (protected != nil && protected(o.Key)) {
			continue
		}
		deletes = append(deletes, Action{Type: ActionDelete, Key: o.Key, Live: o.Object})
	}
	sortDeletes(deletes)

	return append(actions, deletes...)
}

var deleteOrder = map[observer.Kind]int{
	observer.KindPodDisruptionBudget: 0,
	observer.KindStatefulSet:         1,
	observer.KindService:             2,
	observer.KindConfigMap:           3,
}

func sortDeletes(actions []Action) {
	// Stable keeps snapshot order (kind, name) within a kind.
	sort.SliceStable(actions, func(i, j int) bool {
		return deleteOrder[actions[i].Key.Kind] < deleteOrder[actions[j].Key.Kind]
	})
}

// Pending counts the actions that would write to the API server.
func Pending(actions []Action) int {
	n := 0
	for _, a := range actions {
		if a.Type != ActionNoop {
			n++
		}
	}
	return n
}
