// Package aggregator is a tiny in-process publish/subscribe bus for mesh
// lifecycle events (a peer joining or leaving). It exists so discovery,
// the per-scope socket managers, and the event subscriber manager can all
// react to membership changes without importing one another.
package aggregator

import (
	"sync"

	"github.com/coaxial/meshbus/mesh"
)

// Event is the marker interface implemented by every lifecycle event this
// package carries.
type Event interface {
	isEvent()
}

// MeshJoined is published once a peer (including the local node itself, at
// startup) is inserted into the repository.
type MeshJoined struct {
	Peer mesh.MeshContext
}

func (MeshJoined) isEvent() {}

// MeshRemoved is published once a peer is evicted from the repository by
// the discovery liveness sweep.
type MeshRemoved struct {
	Peer mesh.MeshContext
}

func (MeshRemoved) isEvent() {}

// Handler reacts to a published Event. Handlers run synchronously on the
// publishing goroutine, in subscription order, and must not block.
type Handler func(Event)

// Subscription is the token returned by Subscribe, used to Unsubscribe
// later. Go func values aren't comparable, so a map keyed by handler isn't
// possible; the token stands in for identity instead.
type Subscription struct {
	id uint64
}

type entry struct {
	id      uint64
	handler Handler
}

// Aggregator is a thread-safe, snapshot-before-iterate event bus. Handlers
// are kept in an ordered slice, not a map, so Publish can deliver in
// subscription order as Handler's godoc promises.
type Aggregator struct {
	mu       sync.Mutex
	nextID   uint64
	handlers []entry
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Subscribe registers h and returns a token that can later be passed to
// Unsubscribe.
func (a *Aggregator) Subscribe(h Handler) *Subscription {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	id := a.nextID
	a.handlers = append(a.handlers, entry{id: id, handler: h})
	return &Subscription{id: id}
}

// Unsubscribe removes a previously registered handler. Safe to call more
// than once; subsequent calls are no-ops.
func (a *Aggregator) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, e := range a.handlers {
		if e.id == sub.id {
			a.handlers = append(a.handlers[:i:i], a.handlers[i+1:]...)
			break
		}
	}
}

// Publish delivers evt to every handler registered at the moment Publish is
// called, in subscription order. The handler set is snapshotted before
// iteration, so a handler that unsubscribes itself or others mid-publish
// does not affect which handlers see this event: late subscribers are
// excluded, and handlers removed during this Publish still run to
// completion for this event.
func (a *Aggregator) Publish(evt Event) {
	a.mu.Lock()
	snapshot := make([]Handler, len(a.handlers))
	for i, e := range a.handlers {
		snapshot[i] = e.handler
	}
	a.mu.Unlock()

	for _, h := range snapshot {
		h(evt)
	}
}
