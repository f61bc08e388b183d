package command

import (
	"context"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Stream scatters req to every peer currently connected in scope and
// gathers typed replies in snapshot order. Slots that fault (timeout,
// cancellation, or a decode failure) are dropped rather than surfaced —
// a batch where every peer times out yields a channel that closes empty.
// A peer that replied with no handler registered yields a zero-value Resp,
// not an error.
func Stream[Resp any](ctx context.Context, scope *Scope, name string, req interface{}, timeout time.Duration) (<-chan Resp, error) {
	results, err := scope.Stream(ctx, name, req, timeout)
	if err != nil {
		return nil, err
	}

	out := make(chan Resp, cap(results))
	go func() {
		defer close(out)
		for r := range results {
			if r.Err != nil {
				continue
			}
			var resp Resp
			if len(r.Payload) > 0 {
				if err := msgpack.Unmarshal(r.Payload, &resp); err != nil {
					continue
				}
			}
			out <- resp
		}
	}()

	return out, nil
}

// Send is Stream's void counterpart, provided directly by Scope.Send since
// it carries no typed response.
func Send(ctx context.Context, scope *Scope, name string, req interface{}, timeout time.Duration) error {
	return scope.Send(ctx, name, req, timeout)
}
