package topology

import (
	"fmt"
	"sort"

	"github.com/imamik/zookeeper-operator/api/v1alpha1"
)

// Identity is one logical ZooKeeper server of an ensemble.
type Identity struct {
	ID        int32
	RoleGroup string
	Ordinal   int32
	Hostname  string
}

// String implements fmt.Stringer.
func (i Identity) String() string {
	return fmt.Sprintf("%d(%s/%d)", i.ID, i.RoleGroup, i.Ordinal)
}

// Previous is an identity recovered from observed state. Present reports
// whether the member's pod still exists.
type Previous struct {
	Identity
	Present bool
}

// Server is one entry of the quorum membership.
type Server struct {
	ID                 int32
	Host               string
	PeerPort           int32
	LeaderElectionPort int32
	ClientPort         int32
}

// Membership is the ordered server list every member renders.
type Membership struct {
	Servers []Server
}

// Lookup returns the server with the given id.
func (m Membership) Lookup(id int32) (Server, bool) {
	i := sort.Search(len(m.Servers), func(i int) bool { return m.Servers[i].ID >= id })
	if i < len(m.Servers) && m.Servers[i].ID == id {
		return m.Servers[i], true
	}
	return Server{}, false
}

// IDs returns the server ids in membership order.
func (m Membership) IDs() []int32 {
	ids := make([]int32, len(m.Servers))
	for i, s := range m.Servers {
		ids[i] = s.ID
	}
	return ids
}

// Len returns the number of servers.
func (m Membership) Len() int {
	return len(m.Servers)
}

// Plan is the planner's output for one pass.
type Plan struct {
	// Members are the identities the ensemble spec requires, sorted by id
	Members []Identity

	// Retiring are identities no longer required whose pods still run.
	// They stay in the membership until their pods are gone.
	Retiring []Identity

	// Removed are identities no longer required whose pods are gone.
	// Their config bundles are deletion candidates.
	Removed []Identity

	// Membership is Members and Retiring, sorted by id
	Membership Membership
}

// MembersOf returns the required identities of a role group ordered by ordinal.
func (p *Plan) MembersOf(group string) []Identity {
	var out []Identity
	for _, m := range p.Members {
		if m.RoleGroup == group {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out
}

// RetiringOf returns the retiring identities of a role group ordered by ordinal.
func (p *Plan) RetiringOf(group string) []Identity {
	var out []Identity
	for _, m := range p.Retiring {
		if m.RoleGroup == group {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out
}

// Request carries the ensemble spec and the naming context of one ensemble.
type Request struct {
	Name          string
	Namespace     string
	ClusterDomain string
	Spec          *v1alpha1.ZookeeperClusterSpec
}
