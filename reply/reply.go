// Package reply implements the pending-reply bookkeeping shared by all four
// command scopes: a pool of reusable awaiters, a registry mapping in-flight
// correlation ids back to their awaiter, and the generation-counter
// discipline that keeps a pool-recycled awaiter from being completed by a
// reply meant for its previous tenant.
package reply

import "sync"

// PendingReply is a single in-flight command awaiter. It is pool-allocated
// and reused; Generation distinguishes one tenancy from the next so a
// straggling completion for a prior tenancy can never be mistaken for this
// one's result.
type PendingReply struct {
	CorrelationID uint64

	mu         sync.Mutex
	generation uint64
	done       chan struct{}
	payload    []byte
	err        error
	completed  bool
}

func newPendingReply() *PendingReply {
	return &PendingReply{done: make(chan struct{})}
}

// Generation returns the tenancy counter this PendingReply was rented under.
// Complete/Fault calls tagged with a stale generation are no-ops.
func (p *PendingReply) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// Complete records a successful reply payload. Only the first call for a
// given generation has any effect; later calls (including a subsequent
// Fault for the same generation) are no-ops.
func (p *PendingReply) Complete(generation uint64, payload []byte) {
	p.finish(generation, payload, nil)
}

// Fault records a failed reply (timeout, cancellation, transport error).
// Only the first call for a given generation has any effect.
func (p *PendingReply) Fault(generation uint64, err error) {
	p.finish(generation, nil, err)
}

func (p *PendingReply) finish(generation uint64, payload []byte, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if generation != p.generation || p.completed {
		return
	}
	p.completed = true
	p.payload = payload
	p.err = err
	close(p.done)
}

// Wait blocks until this tenancy is completed or faulted, then returns its
// result.
func (p *PendingReply) Wait() ([]byte, error) {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payload, p.err
}

// reset prepares a PendingReply for a new tenancy, bumping its generation so
// any still-inflight completion targeting the old generation becomes a
// no-op.
func (p *PendingReply) reset(correlationID uint64) {
	p.mu.Lock()
	p.generation++
	p.done = make(chan struct{})
	p.payload = nil
	p.err = nil
	p.completed = false
	p.mu.Unlock()
	p.CorrelationID = correlationID
}
