package handler

import (
	"context"

	"github.com/vmihailenco/msgpack/v5"
)

// RegisterCommand adapts a strongly-typed request/response handler into a
// CommandThunk and registers it under name. Req is decoded from the
// incoming payload; Resp is encoded into the outgoing one.
func RegisterCommand[Req, Resp any](reg *CommandRegistry, name string, fn func(context.Context, Req) (Resp, error)) {
	reg.Register(name, func(ctx context.Context, payload []byte) ([]byte, error) {
		var req Req
		if len(payload) > 0 {
			if err := msgpack.Unmarshal(payload, &req); err != nil {
				return nil, err
			}
		}
		resp, err := fn(ctx, req)
		if err != nil {
			return nil, err
		}
		return msgpack.Marshal(resp)
	})
}

// RegisterVoidCommand adapts a handler with no reply payload. On success it
// produces an empty response body instead of encoding a zero value, so the
// caller's Send sees a clean void acknowledgement rather than an encoded
// empty struct.
func RegisterVoidCommand[Req any](reg *CommandRegistry, name string, fn func(context.Context, Req) error) {
	reg.Register(name, func(ctx context.Context, payload []byte) ([]byte, error) {
		var req Req
		if len(payload) > 0 {
			if err := msgpack.Unmarshal(payload, &req); err != nil {
				return nil, err
			}
		}
		if err := fn(ctx, req); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// RegisterEvent adapts a strongly-typed event handler into an EventThunk
// and registers it under name.
func RegisterEvent[Evt any](reg *EventRegistry, name string, fn func(context.Context, Evt) error) {
	reg.Register(name, func(ctx context.Context, payload []byte) error {
		var evt Evt
		if len(payload) > 0 {
			if err := msgpack.Unmarshal(payload, &evt); err != nil {
				return err
			}
		}
		return fn(ctx, evt)
	})
}
