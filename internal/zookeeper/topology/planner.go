package topology

import (
	"fmt"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/imamik/zookeeper-operator/api/v1alpha1"
	"github.com/imamik/zookeeper-operator/internal/util/naming"
	"github.com/imamik/zookeeper-operator/internal/zookeeper"
)

// DefaultClusterDomain is used when a request carries no cluster domain.
const DefaultClusterDomain = "cluster.local"

// MaxStatefulSetNameLength keeps "{statefulset}-{revision hash}" within the
// 63 character label value limit of controller-revision-hash.
const MaxStatefulSetNameLength = 52

type slot struct {
	group   string
	ordinal int32
}

// Compute plans the required members of an ensemble and its quorum membership.
//
// Members still required by the ensemble spec (same role group and ordinal) keep their
// previous id. Newly required members get the smallest ids not held by any
// previous identity, including identities dropped in this pass, assigned in
// role group name order and ascending ordinal. Dropped identities are split
// into Retiring (pod still present) and Removed (pod gone).
func Compute(req Request, previous []Previous) (*Plan, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	domain := req.ClusterDomain
	if domain == "" {
		domain = DefaultClusterDomain
	}

	bySlot, used, err := indexPrevious(previous)
	if err != nil {
		return nil, err
	}

	plan := &Plan{}
	required := make(map[slot]bool)
	next := int32(1)

	for _, group := range req.Spec.RoleGroupNames() {
		replicas := req.Spec.Servers.RoleGroups[group].Replicas
		for ordinal := int32(0); ordinal < replicas; ordinal++ {
			s := slot{group: group, ordinal: ordinal}
			required[s] = true

			host := naming.Hostname(req.Name, req.Namespace, group, ordinal, domain)

			id := int32(0)
			if prev, ok := bySlot[s]; ok {
				id = prev.ID
			} else {
				for used[next] {
					next++
				}
				id = next
				used[id] = true
			}

			plan.Members = append(plan.Members, Identity{
				ID:        id,
				RoleGroup: group,
				Ordinal:   ordinal,
				Hostname:  host,
			})
		}
	}

	for _, prev := range previous {
		if required[slot{group: prev.RoleGroup, ordinal: prev.Ordinal}] {
			continue
		}
		id := prev.Identity
		id.Hostname = naming.Hostname(req.Name, req.Namespace, id.RoleGroup, id.Ordinal, domain)
		if prev.Present {
			plan.Retiring = append(plan.Retiring, id)
		} else {
			plan.Removed = append(plan.Removed, id)
		}
	}

	sortByID(plan.Members)
	sortByID(plan.Retiring)
	sortByID(plan.Removed)
	plan.Membership = membershipOf(plan.Members, plan.Retiring)

	return plan, nil
}

func validateRequest(req Request) error {
	if req.Spec == nil {
		return zookeeper.Errorf(zookeeper.KindInvalidSpec, "spec is missing")
	}
	if len(req.Spec.Servers.RoleGroups) == 0 {
		return zookeeper.Errorf(zookeeper.KindInvalidSpec, "at least one server role group is required")
	}

	for _, group := range req.Spec.RoleGroupNames() {
		if errs := validation.IsDNS1123Label(group); len(errs) > 0 {
			return zookeeper.Errorf(zookeeper.KindInvalidSpec,
				"role group name %q is invalid: %s", group, strings.Join(errs, "; "))
		}

		replicas := req.Spec.Servers.RoleGroups[group].Replicas
		if replicas <= 0 {
			return zookeeper.Errorf(zookeeper.KindInvalidSpec,
				"role group %q must request at least one replica, got %d", group, replicas)
		}

		if sts := naming.StatefulSet(req.Name, group); len(sts) > MaxStatefulSetNameLength {
			return zookeeper.Errorf(zookeeper.KindInvalidSpec,
				"statefulset name %q of role group %q is longer than %d characters", sts, group, MaxStatefulSetNameLength)
		}

		// The highest ordinal yields the longest pod name, which must stay a DNS label.
		pod := naming.Pod(req.Name, group, replicas-1)
		if errs := validation.IsDNS1123Label(pod); len(errs) > 0 {
			return zookeeper.Errorf(zookeeper.KindInvalidSpec,
				"pod name %q of role group %q is invalid: %s", pod, group, strings.Join(errs, "; "))
		}
	}
	return nil
}

func indexPrevious(previous []Previous) (map[slot]Identity, map[int32]bool, error) {
	bySlot := make(map[slot]Identity, len(previous))
	used := make(map[int32]bool, len(previous))

	for _, prev := range previous {
		if prev.ID <= 0 {
			return nil, nil, zookeeper.Errorf(zookeeper.KindInconsistentTopology,
				"observed member %s/%d has invalid id %d", prev.RoleGroup, prev.Ordinal, prev.ID)
		}
		if used[prev.ID] {
			return nil, nil, zookeeper.Errorf(zookeeper.KindInconsistentTopology,
				"server id %d is held by more than one observed member", prev.ID)
		}
		s := slot{group: prev.RoleGroup, ordinal: prev.Ordinal}
		if other, ok := bySlot[s]; ok {
			return nil, nil, zookeeper.Errorf(zookeeper.KindInconsistentTopology,
				"role group %s ordinal %d is claimed by server ids %d and %d", s.group, s.ordinal, other.ID, prev.ID)
		}
		used[prev.ID] = true
		bySlot[s] = prev.Identity
	}
	return bySlot, used, nil
}

func membershipOf(sets ...[]Identity) Membership {
	var servers []Server
	for _, set := range sets {
		for _, id := range set {
			servers = append(servers, Server{
				ID:                 id.ID,
				Host:               id.Hostname,
				PeerPort:           v1alpha1.PeerPort,
				LeaderElectionPort: v1alpha1.LeaderElectionPort,
				ClientPort:         v1alpha1.ClientPort,
			})
		}
	}
	sort.Slice(servers, func(i, j int) bool { return servers[i].ID < servers[j].ID })
	return Membership{Servers: servers}
}

func sortByID(ids []Identity) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].ID < ids[j].ID })
}

// FromPlan converts plan members into the previous-pass shape, marking each as
// present. It is mainly useful for replaying successive passes.
func FromPlan(p *Plan) []Previous {
	out := make([]Previous, 0, len(p.Members)+len(p.Retiring))
	for _, m := range p.Members {
		out = append(out, Previous{Identity: m, Present: true})
	}
	for _, m := range p.Retiring {
		out = append(out, Previous{Identity: m, Present: true})
	}
	return out
}

// Describe renders a short human-readable summary of a plan for logs and events.
func Describe(p *Plan) string {
	return fmt.Sprintf("%d members, %d retiring, %d removed", len(p.Members), len(p.Retiring), len(p.Removed))
}
