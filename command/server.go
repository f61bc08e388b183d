// Package command implements the Command Server (inbound request
// handling) and the four Command Scopes (outbound scatter/gather
// dispatch).
package command

import (
	"context"
	"sync"
	"time"

	zmq "github.com/pebbe/zmq4"
	"go.uber.org/zap"

	"github.com/coaxial/meshbus/handler"
	"github.com/coaxial/meshbus/internal/zsock"
	"github.com/coaxial/meshbus/wire"
)

const (
	pollTimeout          = 100 * time.Millisecond
	outboundQueueDepth   = 4096
	defaultServerLogName = "command-server"
)

// ServerConfig controls the Command Server's port probe range.
type ServerConfig struct {
	BasePort    uint16
	ProbeWindow int
}

// Server owns the ROUTER socket every peer's command scopes connect to. It
// is the sole writer of that socket: handler goroutines only ever enqueue
// onto its outbound channel, never touch the socket themselves.
type Server struct {
	router   *zmq.Socket
	port     uint16
	registry *handler.CommandRegistry
	outbound chan outboundFrame
	done     chan struct{}
	wg       sync.WaitGroup
	logger   *zap.Logger
}

type outboundFrame struct {
	identity      []byte
	correlationID uint64
	payload       []byte
}

// NewServer binds a ROUTER socket in [cfg.BasePort, cfg.BasePort+ProbeWindow)
// and starts its poll loop.
func NewServer(cfg ServerConfig, registry *handler.CommandRegistry, logger *zap.Logger) (*Server, error) {
	router, err := zmq.NewSocket(zmq.ROUTER)
	if err != nil {
		return nil, err
	}
	port, err := zsock.BindInRange(router, cfg.BasePort, cfg.ProbeWindow)
	if err != nil {
		router.Close()
		return nil, err
	}

	s := &Server{
		router:   router,
		port:     port,
		registry: registry,
		outbound: make(chan outboundFrame, outboundQueueDepth),
		done:     make(chan struct{}),
		logger:   logger,
	}
	s.wg.Add(1)
	go s.run()
	return s, nil
}

// Port returns the bound port, resolved once NewServer returns.
func (s *Server) Port() uint16 { return s.port }

func (s *Server) run() {
	defer s.wg.Done()
	poller := zmq.NewPoller()
	poller.Add(s.router, zmq.POLLIN)

	for {
		select {
		case <-s.done:
			s.drainOutbound()
			return
		case out := <-s.outbound:
			s.writeResponse(out)
			continue
		default:
		}

		polled, err := poller.Poll(pollTimeout)
		if err != nil {
			s.logger.Debug("poller error", zap.Error(err))
			continue
		}
		for _, ps := range polled {
			frames, err := ps.Socket.RecvMessageBytes(0)
			if err != nil {
				s.logger.Debug("recv error", zap.Error(err))
				continue
			}
			s.handleRequest(frames)
		}
	}
}

func (s *Server) handleRequest(frames [][]byte) {
	identity, topicID, corrID, payload, err := wire.DecodeCommandRequest(frames)
	if err != nil {
		s.logger.Warn("malformed command request", zap.Error(err))
		return
	}
	thunk, ok := s.registry.Lookup(topicID)
	if !ok {
		s.logger.Debug("no handler registered for command topic", zap.Uint64("topic", topicID), zap.Uint64("correlationId", corrID))
	}
	go s.invoke(identity, corrID, thunk, ok, payload)
}

func (s *Server) invoke(identity []byte, corrID uint64, thunk handler.CommandThunk, ok bool, payload []byte) {
	var result []byte
	if ok {
		out, err := thunk(context.Background(), payload)
		if err != nil {
			s.logger.Error("command handler failed", zap.Uint64("correlationId", corrID), zap.Error(err))
			out = nil
		}
		result = out
	}
	select {
	case s.outbound <- outboundFrame{identity: identity, correlationID: corrID, payload: result}:
	case <-s.done:
	}
}

func (s *Server) writeResponse(out outboundFrame) {
	frames := wire.EncodeCommandResponse(out.identity, out.correlationID, out.payload)
	if err := zsock.SendFrames(s.router, frames); err != nil {
		s.logger.Warn("write response failed", zap.Uint64("correlationId", out.correlationID), zap.Error(err))
	}
}

func (s *Server) drainOutbound() {
	for {
		select {
		case out := <-s.outbound:
			s.writeResponse(out)
		default:
			return
		}
	}
}

// Stop halts the poll loop, flushing any already-enqueued responses first,
// then closes the router socket.
func (s *Server) Stop() {
	close(s.done)
	s.wg.Wait()
	s.router.Close()
}
