package discovery

import (
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/coaxial/meshbus/aggregator"
	"github.com/coaxial/meshbus/beacon"
	"github.com/coaxial/meshbus/mesh"
)

func TestOnSignalInsertsAndPublishesMeshJoinedOnce(t *testing.T) {
	repo := mesh.NewRepository()
	agg := aggregator.New()
	var joinCount int
	agg.Subscribe(func(e aggregator.Event) {
		if _, ok := e.(aggregator.MeshJoined); ok {
			joinCount++
		}
	})

	svc := New(Config{CleanupInterval: time.Hour, InactiveThreshold: time.Hour}, repo, agg, beacon.New(0, time.Second), zap.NewNop())

	payload, err := msgpack.Marshal(mesh.MeshContext{MeshId: 7, WorkstationName: "peer-a"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	svc.onSignal(&beacon.Signal{Addr: "127.0.0.1", Transmit: payload})
	svc.onSignal(&beacon.Signal{Addr: "127.0.0.1", Transmit: payload})

	if joinCount != 1 {
		t.Fatalf("expected exactly one MeshJoined for a repeated beacon, got %d", joinCount)
	}
	if _, ok := repo.Get(7); !ok {
		t.Fatal("expected peer to be present in the repository")
	}
}

func TestEvictExpiredRemovesStalePeerAndPublishes(t *testing.T) {
	repo := mesh.NewRepository()
	agg := aggregator.New()
	var removed aggregator.MeshRemoved
	var gotRemoval bool
	agg.Subscribe(func(e aggregator.Event) {
		if r, ok := e.(aggregator.MeshRemoved); ok {
			removed = r
			gotRemoval = true
		}
	})

	repo.Insert(mesh.MeshContext{MeshId: 3, LastSeen: time.Now().Add(-time.Hour)})

	svc := New(Config{CleanupInterval: time.Hour, InactiveThreshold: time.Minute}, repo, agg, beacon.New(0, time.Second), zap.NewNop())
	svc.evictExpired()

	if !gotRemoval || removed.Peer.MeshId != 3 {
		t.Fatalf("expected MeshRemoved for peer 3, got ok=%v %+v", gotRemoval, removed)
	}
	if _, ok := repo.Get(3); ok {
		t.Fatal("expired peer should have been removed from the repository")
	}
}

func TestEvictExpiredIgnoresFreshPeers(t *testing.T) {
	repo := mesh.NewRepository()
	agg := aggregator.New()
	repo.Insert(mesh.MeshContext{MeshId: 4, LastSeen: time.Now()})

	svc := New(Config{InactiveThreshold: time.Minute}, repo, agg, beacon.New(0, time.Second), zap.NewNop())
	svc.evictExpired()

	if _, ok := repo.Get(4); !ok {
		t.Fatal("fresh peer should not have been evicted")
	}
}
