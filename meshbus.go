// Package meshbus is an in-process message bus for LAN service meshes.
// Each embedding process becomes a mesh node that advertises itself over
// UDP broadcast, discovers peers, and exchanges scoped request/reply
// commands and fire-and-forget events with them.
package meshbus

import (
	"github.com/coaxial/meshbus/command"
	"github.com/coaxial/meshbus/config"
	"github.com/coaxial/meshbus/event"
	"github.com/coaxial/meshbus/lifecycle"
)

// Bus is a running mesh node.
type Bus struct {
	lc      *lifecycle.Lifecycle
	Command *command.Dispatcher
	Event   *event.Dispatcher
}

// New starts a mesh node with the given options and begins advertising and
// discovering peers immediately.
func New(opts ...Option) (*Bus, error) {
	o := config.Defaults()
	for _, opt := range opts {
		opt(o)
	}

	lc, err := lifecycle.Start(o)
	if err != nil {
		return nil, err
	}

	return &Bus{
		lc:      lc,
		Command: lc.Command(),
		Event:   lc.Event(),
	}, nil
}

// Stop tears down every component this Bus started: discovery, all four
// command scopes, the event subscriber/publisher, the beacon, and the
// command server.
func (b *Bus) Stop() {
	b.lc.Stop()
}
