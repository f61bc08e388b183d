package aggregator

import (
	"testing"

	"github.com/coaxial/meshbus/mesh"
)

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	a := New()
	var gotA, gotB int
	a.Subscribe(func(Event) { gotA++ })
	a.Subscribe(func(Event) { gotB++ })

	a.Publish(MeshJoined{Peer: mesh.MeshContext{MeshId: 1}})

	if gotA != 1 || gotB != 1 {
		t.Fatalf("expected both subscribers to observe the event, got %d/%d", gotA, gotB)
	}
}

func TestUnsubscribeStopsFutureDelivery(t *testing.T) {
	a := New()
	var count int
	sub := a.Subscribe(func(Event) { count++ })
	a.Unsubscribe(sub)

	a.Publish(MeshJoined{Peer: mesh.MeshContext{MeshId: 1}})

	if count != 0 {
		t.Fatalf("expected no delivery after unsubscribe, got %d", count)
	}
}

func TestLateSubscriberExcludedFromInFlightPublish(t *testing.T) {
	a := New()
	var lateCount int
	a.Subscribe(func(Event) {
		// subscribing here must not affect this in-flight Publish call
		a.Subscribe(func(Event) { lateCount++ })
	})

	a.Publish(MeshJoined{Peer: mesh.MeshContext{MeshId: 1}})

	if lateCount != 0 {
		t.Fatalf("late subscriber should not see the event that triggered its registration, got %d", lateCount)
	}

	a.Publish(MeshJoined{Peer: mesh.MeshContext{MeshId: 1}})
	if lateCount != 1 {
		t.Fatalf("late subscriber should see the next publish, got %d", lateCount)
	}
}

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	a := New()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		a.Subscribe(func(Event) { order = append(order, i) })
	}

	a.Publish(MeshJoined{Peer: mesh.MeshContext{MeshId: 1}})

	for i, got := range order {
		if got != i {
			t.Fatalf("expected delivery order %v, got %v", []int{0, 1, 2, 3, 4}, order)
		}
	}
}

func TestUnsubscribeDuringPublishStillCompletesForThisEvent(t *testing.T) {
	a := New()
	var subB *Subscription
	var calledB bool
	a.Subscribe(func(Event) {
		a.Unsubscribe(subB)
	})
	subB = a.Subscribe(func(Event) { calledB = true })

	a.Publish(MeshJoined{Peer: mesh.MeshContext{MeshId: 1}})

	if !calledB {
		t.Fatal("handler removed mid-publish should still complete for the event already in flight")
	}
}
