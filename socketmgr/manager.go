// Package socketmgr owns the per-scope pool of DEALER sockets connected to
// the peers that scope's Filter admits, keeping that pool in sync with
// mesh membership via the aggregator.
package socketmgr

import (
	"fmt"
	"sync"

	zmq "github.com/pebbe/zmq4"
	"go.uber.org/zap"

	"github.com/coaxial/meshbus/actor"
	"github.com/coaxial/meshbus/aggregator"
	"github.com/coaxial/meshbus/internal/zsock"
	"github.com/coaxial/meshbus/mesh"
	"github.com/coaxial/meshbus/wire"
)

// InboundHandler is invoked with a decoded command response. It is wired
// directly to the shared Pending-Reply registry's OnMessage method.
type InboundHandler func(correlationID uint64, payload []byte)

// LocalAccessor returns the local node's own current MeshContext, used as
// the comparison basis for Filter.
type LocalAccessor func() mesh.MeshContext

type entry struct {
	meshID uint64
	sock   *zmq.Socket
}

// Manager keeps a scope's DEALER socket set synchronized with the mesh
// repository via aggregator lifecycle events.
type Manager struct {
	scope     string
	filter    Filter
	clusterOp ClusterOptions
	scheduler *actor.Scheduler
	local     LocalAccessor
	inbound   InboundHandler
	logger    *zap.Logger

	mu      sync.RWMutex
	entries map[uint64]*entry
}

// New constructs a Manager and subscribes it to agg for lifecycle events.
func New(scope string, filter Filter, scheduler *actor.Scheduler, agg *aggregator.Aggregator, inbound InboundHandler, local LocalAccessor, clusterOp ClusterOptions, logger *zap.Logger) *Manager {
	m := &Manager{
		scope:     scope,
		filter:    filter,
		clusterOp: clusterOp,
		scheduler: scheduler,
		local:     local,
		inbound:   inbound,
		logger:    logger,
		entries:   make(map[uint64]*entry),
	}
	agg.Subscribe(m.onLifecycleEvent)
	return m
}

func (m *Manager) onLifecycleEvent(evt aggregator.Event) {
	switch e := evt.(type) {
	case aggregator.MeshJoined:
		m.onJoin(e.Peer)
	case aggregator.MeshRemoved:
		m.onRemove(e.Peer.MeshId)
	}
}

func (m *Manager) onJoin(peer mesh.MeshContext) {
	local := m.local()
	if !m.filter(local, peer, m.clusterOp) {
		return
	}

	m.scheduler.Submit(func() {
		sock, err := zmq.NewSocket(zmq.DEALER)
		if err != nil {
			m.logger.Warn("create dealer socket failed", zap.String("scope", m.scope), zap.Error(err))
			return
		}
		identity := fmt.Sprintf("%s-%d", m.scope, peer.MeshId)
		if err := sock.SetIdentity(identity); err != nil {
			m.logger.Warn("set identity failed", zap.String("scope", m.scope), zap.Error(err))
			sock.Close()
			return
		}
		if err := sock.Connect(peer.RpcEndpoint()); err != nil {
			m.logger.Warn("connect failed", zap.String("scope", m.scope), zap.String("endpoint", peer.RpcEndpoint()), zap.Error(err))
			sock.Close()
			return
		}

		e := &entry{meshID: peer.MeshId, sock: sock}
		m.mu.Lock()
		m.entries[peer.MeshId] = e
		m.mu.Unlock()

		m.scheduler.Register(sock, func(frames [][]byte) {
			corrID, payload, err := wire.DecodeCommandResponse(frames)
			if err != nil {
				m.logger.Warn("malformed command response", zap.String("scope", m.scope), zap.Error(err))
				return
			}
			m.inbound(corrID, payload)
		})
	})
}

func (m *Manager) onRemove(meshID uint64) {
	m.mu.Lock()
	e, ok := m.entries[meshID]
	if ok {
		delete(m.entries, meshID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	m.scheduler.Submit(func() {
		m.scheduler.Unregister(e.sock)
		e.sock.Close()
	})
}

// Socket is the narrow interface command.Scope needs to dispatch a request:
// a handle on the scheduler-owned DEALER socket to write to.
type Socket struct {
	MeshID    uint64
	sock      *zmq.Socket
	scheduler *actor.Scheduler
	logger    *zap.Logger
}

// Send writes frames on this socket from inside the scheduler goroutine.
func (s *Socket) Send(frames [][]byte) {
	s.scheduler.Submit(func() {
		if err := zsock.SendFrames(s.sock, frames); err != nil {
			s.logger.Warn("command send failed", zap.Uint64("meshId", s.MeshID), zap.Error(err))
		}
	})
}

// All returns a snapshot of the scope's currently connected sockets.
func (m *Manager) All() []*Socket {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Socket, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, &Socket{MeshID: e.meshID, sock: e.sock, scheduler: m.scheduler, logger: m.logger})
	}
	return out
}

// Count returns the number of currently connected sockets.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
