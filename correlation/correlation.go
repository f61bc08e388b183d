// Package correlation generates the node-wide unique correlation ids that
// pair a command request with its eventual response. One Generator is
// shared across all four command scopes so ids never collide between them.
package correlation

import "sync/atomic"

// Generator produces monotonically increasing correlation ids.
type Generator struct {
	counter uint64
}

// Next returns the next correlation id. Safe for concurrent use.
func (g *Generator) Next() uint64 {
	return atomic.AddUint64(&g.counter, 1)
}
