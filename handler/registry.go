// Package handler holds the command and event handler registries plus the
// generic registration helpers that adapt a caller's strongly-typed
// function into the untyped msgpack-payload thunk the wire layer calls.
// Go disallows generic methods, so registration is expressed as free
// generic functions operating on the registries rather than as methods.
package handler

import (
	"context"
	"sync"

	"github.com/coaxial/meshbus/topic"
)

// CommandThunk is the untyped form every registered command handler is
// reduced to: decode happens before the call, encode after.
type CommandThunk func(ctx context.Context, payload []byte) ([]byte, error)

// EventThunk is the untyped form every registered event handler is reduced
// to.
type EventThunk func(ctx context.Context, payload []byte) error

// CommandRegistry maps a command's topic hash to the single handler
// registered for it. Registering the same name twice replaces the prior
// handler — the last registration wins, matching a DI container's typical
// "last binding wins" resolution behavior.
type CommandRegistry struct {
	mu     sync.RWMutex
	thunks map[uint64]CommandThunk
}

// NewCommandRegistry returns an empty CommandRegistry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{thunks: make(map[uint64]CommandThunk)}
}

// Register binds name's topic hash to thunk, replacing any prior
// registration for the same name.
func (r *CommandRegistry) Register(name string, thunk CommandThunk) {
	t := topic.Hash(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.thunks[t] = thunk
}

// Lookup returns the handler registered for a topic hash, if any.
func (r *CommandRegistry) Lookup(t uint64) (CommandThunk, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	th, ok := r.thunks[t]
	return th, ok
}

// EventRegistry maps an event name to every handler registered for it;
// unlike CommandRegistry, registrations accumulate rather than replace,
// since fan-out to every subscriber is the point of an event bus.
type EventRegistry struct {
	mu     sync.RWMutex
	thunks map[string][]EventThunk
}

// NewEventRegistry returns an empty EventRegistry.
func NewEventRegistry() *EventRegistry {
	return &EventRegistry{thunks: make(map[string][]EventThunk)}
}

// Register appends thunk to the handlers for name.
func (r *EventRegistry) Register(name string, thunk EventThunk) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.thunks[name] = append(r.thunks[name], thunk)
}

// Lookup returns every handler registered for name, if any.
func (r *EventRegistry) Lookup(name string) ([]EventThunk, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	th, ok := r.thunks[name]
	return th, ok
}
