package event

import (
	"context"
	"sync"

	zmq "github.com/pebbe/zmq4"
	"go.uber.org/zap"

	"github.com/coaxial/meshbus/actor"
	"github.com/coaxial/meshbus/aggregator"
	"github.com/coaxial/meshbus/handler"
	"github.com/coaxial/meshbus/mesh"
	"github.com/coaxial/meshbus/wire"
)

type subscriberEntry struct {
	meshID uint64
	sock   *zmq.Socket
}

// SubscriberManager keeps one SUB socket connected to every peer's
// Publisher, including the local node's own — a node must see its own
// published events, so there is no self-exclusion here. Inbound events are
// decoded and fanned out to every handler registered for their topic.
type SubscriberManager struct {
	scheduler *actor.Scheduler
	registry  *handler.EventRegistry
	logger    *zap.Logger

	mu      sync.Mutex
	entries map[uint64]*subscriberEntry
}

// NewSubscriberManager constructs a SubscriberManager and subscribes it to
// agg for lifecycle events.
func NewSubscriberManager(scheduler *actor.Scheduler, agg *aggregator.Aggregator, registry *handler.EventRegistry, logger *zap.Logger) *SubscriberManager {
	m := &SubscriberManager{
		scheduler: scheduler,
		registry:  registry,
		logger:    logger,
		entries:   make(map[uint64]*subscriberEntry),
	}
	agg.Subscribe(m.onLifecycleEvent)
	return m
}

func (m *SubscriberManager) onLifecycleEvent(evt aggregator.Event) {
	switch e := evt.(type) {
	case aggregator.MeshJoined:
		m.add(e.Peer)
	case aggregator.MeshRemoved:
		m.remove(e.Peer.MeshId)
	}
}

func (m *SubscriberManager) add(peer mesh.MeshContext) {
	m.scheduler.Submit(func() {
		sock, err := zmq.NewSocket(zmq.SUB)
		if err != nil {
			m.logger.Warn("create subscriber socket failed", zap.Error(err))
			return
		}
		if err := sock.SetSubscribe(""); err != nil {
			m.logger.Warn("subscribe failed", zap.Error(err))
			sock.Close()
			return
		}
		endpoint := peer.PubEndpoint()
		if err := sock.Connect(endpoint); err != nil {
			m.logger.Warn("connect subscriber failed", zap.String("endpoint", endpoint), zap.Error(err))
			sock.Close()
			return
		}

		entry := &subscriberEntry{meshID: peer.MeshId, sock: sock}
		m.mu.Lock()
		m.entries[peer.MeshId] = entry
		m.mu.Unlock()

		m.scheduler.Register(sock, func(frames [][]byte) {
			topicName, payload, err := wire.DecodeEvent(frames)
			if err != nil {
				m.logger.Warn("malformed event frame", zap.Error(err))
				return
			}
			m.dispatch(topicName, payload)
		})
	})
}

func (m *SubscriberManager) remove(meshID uint64) {
	m.mu.Lock()
	entry, ok := m.entries[meshID]
	if ok {
		delete(m.entries, meshID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	m.scheduler.Submit(func() {
		m.scheduler.Unregister(entry.sock)
		entry.sock.Close()
	})
}

func (m *SubscriberManager) dispatch(topicName string, payload []byte) {
	thunks, ok := m.registry.Lookup(topicName)
	if !ok {
		m.logger.Debug("no handler registered for event topic", zap.String("topic", topicName))
		return
	}
	for _, th := range thunks {
		if err := th(context.Background(), payload); err != nil {
			m.logger.Warn("event handler failed", zap.String("topic", topicName), zap.Error(err))
		}
	}
}

// Count returns the number of peers currently subscribed to.
func (m *SubscriberManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
