package meshbus

import (
	"context"
	"time"

	"github.com/coaxial/meshbus/command"
)

// Stream scatters req to every peer currently connected in scope and
// gathers typed replies. See command.Stream for the exact semantics
// around faulted slots and no-handler responses.
func Stream[Resp any](ctx context.Context, scope *command.Scope, name string, req interface{}, timeout time.Duration) (<-chan Resp, error) {
	return command.Stream[Resp](ctx, scope, name, req, timeout)
}

// Send scatters req to every peer currently connected in scope and returns
// the first error encountered, if any.
func Send(ctx context.Context, scope *command.Scope, name string, req interface{}, timeout time.Duration) error {
	return command.Send(ctx, scope, name, req, timeout)
}
