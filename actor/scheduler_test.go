package actor

import (
	"testing"
	"time"

	zmq "github.com/pebbe/zmq4"
	"go.uber.org/zap"
)

func TestSchedulerDeliversRegisteredSocketMessages(t *testing.T) {
	server, err := zmq.NewSocket(zmq.PAIR)
	if err != nil {
		t.Fatalf("new server socket: %v", err)
	}
	defer server.Close()
	if err := server.Bind("inproc://scheduler-test-1"); err != nil {
		t.Fatalf("bind: %v", err)
	}

	client, err := zmq.NewSocket(zmq.PAIR)
	if err != nil {
		t.Fatalf("new client socket: %v", err)
	}
	defer client.Close()
	if err := client.Connect("inproc://scheduler-test-1"); err != nil {
		t.Fatalf("connect: %v", err)
	}

	s := New("test", zap.NewNop())
	defer s.Stop()

	received := make(chan []byte, 1)
	s.Submit(func() {
		s.Register(server, func(frames [][]byte) {
			received <- frames[0]
		})
	})

	if _, err := client.SendBytes([]byte("hello"), 0); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case got := <-received:
		if string(got) != "hello" {
			t.Fatalf("got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestSchedulerSubmitReturnsAfterStop(t *testing.T) {
	s := New("test", zap.NewNop())
	s.Stop()

	done := make(chan struct{})
	go func() {
		s.Submit(func() {})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit should return promptly once the scheduler has stopped")
	}
}
