package reply

import "sync"

// Pool recycles PendingReply objects up to a ceiling. Renting beyond the
// ceiling still succeeds — a command burst is never refused — but the
// overflow object is simply dropped on Return instead of going back on the
// free list, leaving it for the garbage collector.
type Pool struct {
	mu      sync.Mutex
	free    []*PendingReply
	ceiling int
}

// NewPool returns a Pool that keeps at most ceiling PendingReply objects on
// its free list.
func NewPool(ceiling int) *Pool {
	if ceiling <= 0 {
		ceiling = 1
	}
	return &Pool{ceiling: ceiling}
}

// Rent returns a PendingReply ready for a new tenancy under correlationID,
// either recycled from the free list or freshly allocated.
func (p *Pool) Rent(correlationID uint64) *PendingReply {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.free); n > 0 {
		pr := p.free[n-1]
		p.free = p.free[:n-1]
		pr.reset(correlationID)
		return pr
	}

	pr := newPendingReply()
	pr.reset(correlationID)
	return pr
}

// Return releases pr back to the pool if there is room under the ceiling;
// otherwise it is dropped.
func (p *Pool) Return(pr *PendingReply) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) >= p.ceiling {
		return
	}
	p.free = append(p.free, pr)
}
