// Package mesh holds the MeshContext peer record, its derived identifier,
// and the thread-safe repository of currently-known peers.
package mesh

import (
	"strconv"
	"time"
)

// MeshContext describes one node on the mesh, either the local node itself
// or a peer learned through beacon discovery.
type MeshContext struct {
	MeshId          uint64
	ApplicationName string
	WorkstationName string
	Address         string
	RpcPort         uint16
	PubPort         uint16
	ClusterName     string
	Self            bool
	LastSeen        time.Time
}

// RpcEndpoint returns the tcp:// connect string for this peer's command server.
func (c MeshContext) RpcEndpoint() string {
	return endpoint(c.Address, c.RpcPort)
}

// PubEndpoint returns the tcp:// connect string for this peer's event
// publisher.
func (c MeshContext) PubEndpoint() string {
	return endpoint(c.Address, c.PubPort)
}

func endpoint(addr string, port uint16) string {
	return "tcp://" + addr + ":" + strconv.FormatUint(uint64(port), 10)
}
