package event

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/coaxial/meshbus/actor"
	"github.com/coaxial/meshbus/aggregator"
	"github.com/coaxial/meshbus/handler"
	"github.com/coaxial/meshbus/mesh"
)

type orderCreated struct{ ID int }

func TestSubscriberManagerDeliversPublishedEventToSelf(t *testing.T) {
	logger := zap.NewNop()

	pub, err := NewPublisher(PublisherConfig{BasePort: 22000, ProbeWindow: 200}, logger)
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	defer pub.Stop()

	agg := aggregator.New()
	registry := handler.NewEventRegistry()
	got := make(chan int, 1)
	handler.RegisterEvent(registry, "order.created", func(_ context.Context, e orderCreated) error {
		got <- e.ID
		return nil
	})

	sched := actor.New("event-subscriber-test", logger)
	defer sched.Stop()
	NewSubscriberManager(sched, agg, registry, logger)

	self := mesh.MeshContext{MeshId: 1, Self: true, Address: "127.0.0.1", PubPort: pub.Port()}
	agg.Publish(aggregator.MeshJoined{Peer: self})

	// give the SUB socket time to connect before publishing
	time.Sleep(200 * time.Millisecond)

	dispatcher := NewDispatcher(pub)
	if err := dispatcher.Publish("order.created", orderCreated{ID: 99}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case id := <-got:
		if id != 99 {
			t.Fatalf("expected id 99, got %d", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the self-published event")
	}
}

func TestSubscriberManagerRemovesPeerOnMeshRemoved(t *testing.T) {
	logger := zap.NewNop()
	agg := aggregator.New()
	registry := handler.NewEventRegistry()
	sched := actor.New("event-subscriber-remove-test", logger)
	defer sched.Stop()

	mgr := NewSubscriberManager(sched, agg, registry, logger)
	peer := mesh.MeshContext{MeshId: 2, Address: "127.0.0.1", PubPort: 22099}

	agg.Publish(aggregator.MeshJoined{Peer: peer})
	deadline := time.Now().Add(2 * time.Second)
	for mgr.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if mgr.Count() != 1 {
		t.Fatalf("expected one subscriber, got %d", mgr.Count())
	}

	agg.Publish(aggregator.MeshRemoved{Peer: peer})
	deadline = time.Now().Add(2 * time.Second)
	for mgr.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if mgr.Count() != 0 {
		t.Fatalf("expected subscriber to be removed, got %d", mgr.Count())
	}
}
