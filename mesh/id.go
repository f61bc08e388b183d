package mesh

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ComputeMeshID derives a node's MeshId from its application name, host
// name, and process id. Two processes on the same host never collide
// because the pid is folded into the hash; the same process restarted
// later gets a different MeshId, which is what lets the repository treat a
// restarted node as a fresh join rather than a resurrection of the old one.
func ComputeMeshID(hostname, applicationName string, pid int) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(applicationName)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(hostname)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strconv.Itoa(pid))
	return h.Sum64()
}
