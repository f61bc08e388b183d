package command

import (
	"context"
	"errors"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/coaxial/meshbus/correlation"
	"github.com/coaxial/meshbus/errs"
	"github.com/coaxial/meshbus/reply"
	"github.com/coaxial/meshbus/socketmgr"
	"github.com/coaxial/meshbus/topic"
	"github.com/coaxial/meshbus/wire"
)

// Result is one scatter/gather slot's outcome, in the original snapshot's
// order. Err is nil only when Payload holds a genuine reply.
type Result struct {
	Payload []byte
	Err     error
}

// Scope dispatches scatter/gather commands to whichever peers its
// socketmgr.Manager currently has connected.
type Scope struct {
	name    string
	sockets *socketmgr.Manager
	replies *reply.Registry
	pool    *reply.Pool
	corr    *correlation.Generator
	logger  *zap.Logger
}

// NewScope wires a Scope around an already-running socketmgr.Manager and
// the shared reply registry/pool/correlation generator.
func NewScope(name string, sockets *socketmgr.Manager, replies *reply.Registry, pool *reply.Pool, corr *correlation.Generator, logger *zap.Logger) *Scope {
	return &Scope{name: name, sockets: sockets, replies: replies, pool: pool, corr: corr, logger: logger}
}

// Name returns the scope's label (Local/Machine/Cluster/Network), used for
// logging.
func (s *Scope) Name() string { return s.name }

// Stream marshals req once, scatters it to every currently-connected peer
// in this scope, and gathers the per-peer results in snapshot order. The
// returned channel is closed once every slot has completed, faulted, or
// the snapshot was empty to begin with.
func (s *Scope) Stream(ctx context.Context, name string, req interface{}, timeout time.Duration) (<-chan Result, error) {
	snapshot := s.sockets.All()
	if len(snapshot) == 0 {
		out := make(chan Result)
		close(out)
		return out, nil
	}

	payload, err := msgpack.Marshal(req)
	if err != nil {
		s.logger.Warn("request marshal failed", zap.String("scope", s.name), zap.String("command", name), zap.Error(err))
		return nil, err
	}

	topicID := topic.Hash(name)
	slots := make([]slot, len(snapshot))
	for i, sock := range snapshot {
		pr := s.pool.Rent(s.corr.Next())
		s.replies.Register(pr)
		slots[i] = slot{pr: pr, correlationID: pr.CorrelationID, generation: pr.Generation()}
		sock.Send(wire.EncodeCommandRequest(topicID, pr.CorrelationID, payload))
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	go s.watchCancellation(cctx, slots)

	out := make(chan Result, len(slots))
	go func() {
		defer cancel()
		defer close(out)
		for _, sl := range slots {
			payload, err := sl.pr.Wait()
			out <- Result{Payload: payload, Err: err}
			s.pool.Return(sl.pr)
		}
	}()

	return out, nil
}

// slot pins the identity of one scattered request — its correlation id and
// the generation it was rented under — at send time. watchCancellation must
// act on these captured values rather than reading the PendingReply's live
// fields, since by the time it wakes the object may already have been
// returned to the pool and rented out again for an unrelated request.
type slot struct {
	pr            *reply.PendingReply
	correlationID uint64
	generation    uint64
}

// Send is Stream's void counterpart: it waits for every targeted peer to
// acknowledge (or fault) and returns the first error encountered, if any.
// A request with zero connected peers succeeds trivially.
func (s *Scope) Send(ctx context.Context, name string, req interface{}, timeout time.Duration) error {
	results, err := s.Stream(ctx, name, req, timeout)
	if err != nil {
		return err
	}
	var firstErr error
	for r := range results {
		if r.Err != nil && firstErr == nil {
			firstErr = r.Err
		}
	}
	return firstErr
}

// watchCancellation fires once ctx is done, whether because the caller's
// timeout elapsed or the batch finished normally and the gather goroutine's
// deferred cancel ran. Only slots still registered under their captured
// correlation id are faulted; a slot whose reply already arrived (or that
// a prior watcher already faulted) was unregistered by that path already,
// so TryUnregister reports it absent here and it is left alone — crucially,
// never touched via the PendingReply's possibly-since-recycled live fields.
func (s *Scope) watchCancellation(ctx context.Context, slots []slot) {
	<-ctx.Done()
	faultErr := errs.ErrCancelled
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		faultErr = errs.ErrTimedOut
	}
	for _, sl := range slots {
		if pr, ok := s.replies.TryUnregister(sl.correlationID); ok {
			pr.Fault(sl.generation, faultErr)
		}
	}
}
