// Package event implements fire-and-forget pub/sub distribution: one PUB
// socket per node (Publisher) and one SUB socket per known peer, fanning
// inbound events out to every registered handler for their topic.
package event

import (
	zmq "github.com/pebbe/zmq4"
	"go.uber.org/zap"

	"github.com/coaxial/meshbus/actor"
	"github.com/coaxial/meshbus/internal/zsock"
	"github.com/coaxial/meshbus/wire"
)

// PublisherConfig controls the Publisher's port probe range.
type PublisherConfig struct {
	BasePort    uint16
	ProbeWindow int
}

// Publisher owns this node's PUB socket and the scheduler that serializes
// every write to it.
type Publisher struct {
	sock      *zmq.Socket
	port      uint16
	scheduler *actor.Scheduler
	logger    *zap.Logger
}

// NewPublisher binds a PUB socket in [cfg.BasePort, cfg.BasePort+ProbeWindow)
// and starts its owning scheduler.
func NewPublisher(cfg PublisherConfig, logger *zap.Logger) (*Publisher, error) {
	sock, err := zmq.NewSocket(zmq.PUB)
	if err != nil {
		return nil, err
	}
	port, err := zsock.BindInRange(sock, cfg.BasePort, cfg.ProbeWindow)
	if err != nil {
		sock.Close()
		return nil, err
	}
	return &Publisher{
		sock:      sock,
		port:      port,
		scheduler: actor.New("event-publisher", logger),
		logger:    logger,
	}, nil
}

// Port returns the bound port, resolved once NewPublisher returns.
func (p *Publisher) Port() uint16 { return p.port }

// Publish schedules topic/payload to be sent on the PUB socket. Publish
// order for a single Publisher is preserved because the scheduler's action
// queue is FIFO.
func (p *Publisher) Publish(topicName string, payload []byte) {
	p.scheduler.Submit(func() {
		if err := zsock.SendFrames(p.sock, wire.EncodeEvent(topicName, payload)); err != nil {
			p.logger.Warn("event publish failed", zap.String("topic", topicName), zap.Error(err))
		}
	})
}

// Stop halts the publisher's scheduler and closes its socket.
func (p *Publisher) Stop() {
	p.scheduler.Stop()
	p.sock.Close()
}
