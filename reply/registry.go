package reply

import (
	"sync"

	"go.uber.org/zap"
)

// Registry maps in-flight correlation ids to their PendingReply so an
// inbound response frame can find the awaiter it belongs to.
type Registry struct {
	mu     sync.Mutex
	byCorr map[uint64]*PendingReply
	logger *zap.Logger
}

// NewRegistry returns an empty Registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{byCorr: make(map[uint64]*PendingReply), logger: logger}
}

// Register makes pr reachable by its CorrelationID.
func (r *Registry) Register(pr *PendingReply) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCorr[pr.CorrelationID] = pr
}

// TryUnregister removes and returns the PendingReply for correlationID, if
// still present. Both the normal completion path and the timeout/cancel
// watcher call this, and whichever runs first wins; the loser finds
// nothing registered under correlationID and neither completes nor faults
// the PendingReply.
func (r *Registry) TryUnregister(correlationID uint64) (*PendingReply, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pr, ok := r.byCorr[correlationID]
	if ok {
		delete(r.byCorr, correlationID)
	}
	return pr, ok
}

// OnMessage is the inbound-response entry point wired into every socket
// manager: it looks up the awaiter for correlationID and completes it with
// payload. A correlation id with no registered awaiter (already completed,
// already timed out, or never ours) is logged at debug level and dropped.
func (r *Registry) OnMessage(correlationID uint64, payload []byte) {
	pr, ok := r.TryUnregister(correlationID)
	if !ok {
		if r.logger != nil {
			r.logger.Debug("reply for unknown or already-resolved correlation id", zap.Uint64("correlationId", correlationID))
		}
		return
	}
	pr.Complete(pr.Generation(), payload)
}
