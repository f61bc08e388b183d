// Package actor provides the dedicated-goroutine-per-scope scheduler that
// owns a ZeroMQ poller plus a socket's command queue. Every DEALER and SUB
// socket this module creates is registered with exactly one Scheduler, and
// every touch of that socket — create, connect, send, close, poller
// add/remove — happens only from inside a function submitted to that
// Scheduler. The event Publisher's PUB socket is written only through its
// own Scheduler; the command server's ROUTER socket is owned by the
// server's own loop goroutine instead. This is what
// keeps ZeroMQ sockets, which are not safe for concurrent use, safe here:
// there is never more than one goroutine anywhere near the socket.
package actor

import (
	"sync"
	"time"

	zmq "github.com/pebbe/zmq4"
	"go.uber.org/zap"
)

const pollTimeout = 100 * time.Millisecond

// ReadHandler is invoked with the multipart frames received on a registered
// socket. It runs on the Scheduler's own goroutine.
type ReadHandler func(frames [][]byte)

// Scheduler serializes all access to a set of ZeroMQ sockets behind one
// goroutine's poll loop plus a bounded action queue.
type Scheduler struct {
	name    string
	logger  *zap.Logger
	poller  *zmq.Poller
	actions chan func()
	done    chan struct{}
	wg      sync.WaitGroup

	mu       sync.Mutex
	handlers map[*zmq.Socket]ReadHandler
}

// New starts a Scheduler goroutine named for logging purposes.
func New(name string, logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		name:     name,
		logger:   logger,
		poller:   zmq.NewPoller(),
		actions:  make(chan func(), 256),
		done:     make(chan struct{}),
		handlers: make(map[*zmq.Socket]ReadHandler),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Submit enqueues fn to run on the scheduler goroutine. Submit never blocks
// the caller on socket I/O; it only blocks if the action queue itself is
// full, which indicates sustained overload.
func (s *Scheduler) Submit(fn func()) {
	select {
	case s.actions <- fn:
	case <-s.done:
	}
}

// Register adds sock to the poller and arranges for handler to be invoked
// with every multipart message it receives. Must be called from inside a
// function passed to Submit.
func (s *Scheduler) Register(sock *zmq.Socket, handler ReadHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[sock] = handler
	s.rebuildPoller()
}

// Unregister removes sock from the poller. Must be called from inside a
// function passed to Submit.
func (s *Scheduler) Unregister(sock *zmq.Socket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, sock)
	s.rebuildPoller()
}

// rebuildPoller recreates the poller's socket set from the current handler
// map. zmq4's Poller has no Remove method, so dropping a socket means
// rebuilding the poller from scratch; this is called only on
// Register/Unregister, which are rare compared to Poll.
func (s *Scheduler) rebuildPoller() {
	s.poller = zmq.NewPoller()
	for sock := range s.handlers {
		s.poller.Add(sock, zmq.POLLIN)
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case fn := <-s.actions:
			fn()
			continue
		default:
		}

		s.mu.Lock()
		hasSockets := len(s.handlers) > 0
		poller := s.poller
		s.mu.Unlock()

		if !hasSockets {
			select {
			case <-s.done:
				return
			case fn := <-s.actions:
				fn()
			case <-time.After(pollTimeout):
			}
			continue
		}

		polled, err := poller.Poll(pollTimeout)
		if err != nil {
			s.logger.Debug("poller error", zap.String("scheduler", s.name), zap.Error(err))
			continue
		}
		for _, ps := range polled {
			frames, err := ps.Socket.RecvMessageBytes(0)
			if err != nil {
				s.logger.Debug("recv error", zap.String("scheduler", s.name), zap.Error(err))
				continue
			}
			s.mu.Lock()
			handler, ok := s.handlers[ps.Socket]
			s.mu.Unlock()
			if ok {
				handler(frames)
			}
		}
	}
}

// Stop signals the scheduler goroutine to exit and waits for it to do so.
// It does not close any registered sockets; callers own that.
func (s *Scheduler) Stop() {
	close(s.done)
	s.wg.Wait()
}
