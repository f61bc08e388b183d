package socketmgr

import "github.com/coaxial/meshbus/mesh"

// ClusterOptions carries the optional node/application allow-lists that
// narrow the Cluster and Network scopes beyond their baseline rule. An
// empty list means "no restriction" for that dimension.
type ClusterOptions struct {
	Applications []string
	Nodes        []string
}

func (c ClusterOptions) allows(peer mesh.MeshContext) bool {
	if len(c.Applications) > 0 && !contains(c.Applications, peer.ApplicationName) {
		return false
	}
	if len(c.Nodes) > 0 && !contains(c.Nodes, peer.Address) {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Filter decides whether a peer belongs to a scope, given the local node's
// own MeshContext and the configured cluster options.
type Filter func(local, peer mesh.MeshContext, opts ClusterOptions) bool

// LocalFilter matches only the local node's own loopback entry: Local-scope
// commands are answered by connecting back to our own Command Server,
// never routed to the network.
func LocalFilter(local, peer mesh.MeshContext, _ ClusterOptions) bool {
	return peer.Self
}

// MachineFilter matches peers sharing this node's workstation name. A
// node's own workstation name trivially equals itself, so the local node
// is naturally included — no special-cased Self exclusion.
func MachineFilter(local, peer mesh.MeshContext, _ ClusterOptions) bool {
	return peer.WorkstationName == local.WorkstationName
}

// ClusterFilter matches peers sharing this node's cluster name, further
// narrowed by the optional application/node allow-lists. As with
// MachineFilter, the local node is naturally included by plain equality.
func ClusterFilter(local, peer mesh.MeshContext, opts ClusterOptions) bool {
	return peer.ClusterName == local.ClusterName && opts.allows(peer)
}

// NetworkFilter matches every known peer, subject only to the optional
// application/node allow-lists.
func NetworkFilter(local, peer mesh.MeshContext, opts ClusterOptions) bool {
	return opts.allows(peer)
}
