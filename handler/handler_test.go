package handler

import (
	"context"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/coaxial/meshbus/topic"
)

type pingReq struct{ N int }
type pongResp struct{ N int }

func TestRegisterCommandRoundTrip(t *testing.T) {
	reg := NewCommandRegistry()
	RegisterCommand(reg, "ping", func(_ context.Context, req pingReq) (pongResp, error) {
		return pongResp{N: req.N + 1}, nil
	})

	thunk, ok := reg.Lookup(topic.Hash("ping"))
	if !ok {
		t.Fatal("expected handler to be registered")
	}

	payload, _ := msgpack.Marshal(pingReq{N: 41})
	out, err := thunk(context.Background(), payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp pongResp
	if err := msgpack.Unmarshal(out, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.N != 42 {
		t.Fatalf("expected 42, got %d", resp.N)
	}
}

func TestRegisterCommandLastRegistrationWins(t *testing.T) {
	reg := NewCommandRegistry()
	RegisterCommand(reg, "ping", func(_ context.Context, req pingReq) (pongResp, error) {
		return pongResp{N: 1}, nil
	})
	RegisterCommand(reg, "ping", func(_ context.Context, req pingReq) (pongResp, error) {
		return pongResp{N: 2}, nil
	})

	thunk, _ := reg.Lookup(topic.Hash("ping"))
	out, _ := thunk(context.Background(), nil)
	var resp pongResp
	msgpack.Unmarshal(out, &resp)
	if resp.N != 2 {
		t.Fatalf("expected the later registration to win, got %d", resp.N)
	}
}

func TestRegisterVoidCommandProducesEmptyPayload(t *testing.T) {
	reg := NewCommandRegistry()
	var called bool
	RegisterVoidCommand(reg, "notify", func(_ context.Context, req pingReq) error {
		called = true
		return nil
	})

	thunk, _ := reg.Lookup(topic.Hash("notify"))
	out, err := thunk(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty payload for a void handler, got %d bytes", len(out))
	}
	if !called {
		t.Fatal("handler was not invoked")
	}
}

func TestRegisterEventFanOut(t *testing.T) {
	reg := NewEventRegistry()
	var a, b int
	RegisterEvent(reg, "joined", func(_ context.Context, e pingReq) error { a = e.N; return nil })
	RegisterEvent(reg, "joined", func(_ context.Context, e pingReq) error { b = e.N; return nil })

	thunks, ok := reg.Lookup("joined")
	if !ok || len(thunks) != 2 {
		t.Fatalf("expected 2 handlers, got %d ok=%v", len(thunks), ok)
	}

	payload, _ := msgpack.Marshal(pingReq{N: 9})
	for _, th := range thunks {
		if err := th(context.Background(), payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if a != 9 || b != 9 {
		t.Fatalf("expected both handlers invoked, got a=%d b=%d", a, b)
	}
}
