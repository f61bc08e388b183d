package wire

import (
	"bytes"
	"testing"
)

func TestCommandRequestRoundTrip(t *testing.T) {
	sent := EncodeCommandRequest(42, 7, []byte("payload"))
	if len(sent) != 4 {
		t.Fatalf("expected DEALER-side send to be 4 frames ([empty][topic][correlationId][payload]), got %d", len(sent))
	}
	// simulate the ROUTER prepending the sender identity on receive
	received := append([][]byte{[]byte("peer-identity")}, sent...)
	if len(received) != 5 {
		t.Fatalf("expected ROUTER-side receive to be 5 frames, got %d", len(received))
	}

	identity, topicID, corrID, payload, err := DecodeCommandRequest(received)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(identity) != "peer-identity" {
		t.Fatalf("identity = %q", identity)
	}
	if topicID != 42 || corrID != 7 {
		t.Fatalf("topic/correlation = %d/%d", topicID, corrID)
	}
	if !bytes.Equal(payload, []byte("payload")) {
		t.Fatalf("payload = %q", payload)
	}
}

func TestCommandResponseRoundTrip(t *testing.T) {
	sent := EncodeCommandResponse([]byte("peer-identity"), 7, []byte("reply"))
	// simulate ZeroMQ stripping the identity frame before DEALER delivery
	received := sent[1:]

	corrID, payload, err := DecodeCommandResponse(received)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if corrID != 7 {
		t.Fatalf("correlation = %d", corrID)
	}
	if !bytes.Equal(payload, []byte("reply")) {
		t.Fatalf("payload = %q", payload)
	}
}

func TestEventRoundTrip(t *testing.T) {
	sent := EncodeEvent("orders.created", []byte("body"))
	name, payload, err := DecodeEvent(sent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "orders.created" || !bytes.Equal(payload, []byte("body")) {
		t.Fatalf("name/payload = %q/%q", name, payload)
	}
}

func TestDecodeCommandRequestRejectsWrongFrameCount(t *testing.T) {
	if _, _, _, _, err := DecodeCommandRequest([][]byte{{}, {}}); err != ErrMalformed {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestDecodeCommandRequestRejectsShortTopicFrame(t *testing.T) {
	// identity, empty, short topic frame, full correlationId frame, payload
	frames := [][]byte{[]byte("peer-identity"), {}, {1, 2, 3}, make([]byte, 8), []byte("payload")}
	if _, _, _, _, err := DecodeCommandRequest(frames); err != ErrMalformed {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestDecodeCommandResponseRejectsShortHeader(t *testing.T) {
	if _, _, err := DecodeCommandResponse([][]byte{{}, {1, 2, 3}, {}}); err != ErrMalformed {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}
